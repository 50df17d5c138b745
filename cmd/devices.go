package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nearcap/nearcap/internal/capture"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List capture-capable network interfaces",
	Long: `List the link-layer devices available to the Capture Source
(spec.md §4.1), with the index each may be selected by under
capture.selected_device.`,
	Run: func(cmd *cobra.Command, args []string) {
		runDevicesCommand()
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func runDevicesCommand() {
	devices, err := capture.ListDevices()
	if err != nil {
		exitWithError("failed to enumerate devices", err)
	}

	for _, d := range devices {
		fmt.Printf("%d  %s", d.Index, d.Name)
		if d.Description != "" {
			fmt.Printf("  (%s)", d.Description)
		}
		for _, a := range d.Addresses {
			fmt.Printf("  %s", a)
		}
		fmt.Println()
	}
}
