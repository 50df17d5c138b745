package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nearcap/nearcap/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the nearcap configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default configuration file",
	Long: `Write DefaultConfig (the same values nearcap start applies when
a knob is absent) to path as YAML, so an operator has a starting
file to edit rather than hand-writing the nearcap: root key.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := "config.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.WriteDefault(path); err != nil {
			exitWithError("failed to write default config", err)
		}
		fmt.Printf("wrote default config to %s\n", path)
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
