package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/volblock/internal/daemon"
	"github.com/jmylchreest/volblock/internal/tui"
)

var tuiOpts struct {
	interval time.Duration
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Show the volume in an interactive terminal view",
	Long: `Show the volume, mute state and last mixer error in a terminal view.

Press r to refresh, ? for help and q to quit.`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)

	tuiCmd.Flags().DurationVarP(&tuiOpts.interval, "interval", "i", 0,
		"Time between polls (default from config)")
}

func runTUI(cmd *cobra.Command, args []string) error {
	interval := cfg.Watch.Interval.Duration()
	if tuiOpts.interval > 0 {
		interval = tuiOpts.interval
	}

	// Logging would draw over the alternate screen.
	if !globalOpts.verbose {
		logLevel.Set(logLevelOff)
	}

	runner := daemon.NewRunner(newVolumeBlock(cfg), daemon.RunnerOptions{Interval: interval}, logger)
	return tui.Run(cmd.Context(), tui.RunOptions{Runner: runner})
}
