package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nearcap/nearcap/internal/capture"
	"github.com/nearcap/nearcap/internal/config"
	"github.com/nearcap/nearcap/internal/log"
	"github.com/nearcap/nearcap/internal/metrics"
	"github.com/nearcap/nearcap/internal/pipeline"
	"github.com/nearcap/nearcap/internal/sink/console"
)

var (
	deviceIndex int
	replayPath  string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start capturing and decoding traffic on a device",
	Long: `Start the nearcap capture pipeline (spec.md §2): it opens a
device, reassembles TCP streams, decodes notify envelopes, and
dispatches entity/damage events to a console sink until interrupted.

Examples:
  nearcap start                         # auto-pick the device, default config
  nearcap start -c config.yaml          # load settings from config.yaml
  nearcap start -d 2                    # capture on device index 2
  nearcap start -r capture.pcap         # replay a previously captured file`,
	Run: func(cmd *cobra.Command, args []string) {
		runStartCommand()
	},
}

func init() {
	startCmd.Flags().IntVarP(&deviceIndex, "device", "d", -1, "device index to capture on (-1 = use capture.selected_device from config)")
	startCmd.Flags().StringVarP(&replayPath, "replay", "r", "", "replay a previously captured pcap file instead of a live device")
	rootCmd.AddCommand(startCmd)
}

func runStartCommand() {
	loader, err := config.Load(configFile)
	if err != nil {
		exitWithError("failed to load config", err)
	}
	log.Init(loader.Config.Log)

	s := console.New()
	p := pipeline.NewBuilder().WithLoader(loader).WithSink(s).Build()

	var metricsServer *metrics.Server
	if loader.Config.Metrics.Enabled {
		metricsServer = metrics.NewServer(loader.Config.Metrics.ListenAddr, loader.Config.Metrics.Path)
		if err := metricsServer.Start(context.Background()); err != nil {
			exitWithError("failed to start metrics server", err)
		}
	}

	loader.WatchSafety()

	if replayPath != "" {
		if err := p.StartReplay(replayPath); err != nil {
			exitWithError("failed to start pipeline replay", err)
		}
		log.GetLogger().WithField("file", replayPath).Info("nearcap started in replay mode")
	} else {
		devices, err := capture.ListDevices()
		if err != nil {
			exitWithError("failed to enumerate devices", err)
		}

		selected := loader.Config.Capture.SelectedDevice
		if deviceIndex != -1 {
			selected = deviceIndex
		}
		device, err := capture.Resolve(devices, selected)
		if err != nil {
			exitWithError("failed to resolve capture device", err)
		}

		if err := p.Start(device); err != nil {
			exitWithError("failed to start pipeline", err)
		}
		log.GetLogger().WithField("device", device.Name).Info("nearcap started")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.GetLogger().Info("shutting down")
	p.Stop()
	if metricsServer != nil {
		_ = metricsServer.Stop(context.Background())
	}
}
