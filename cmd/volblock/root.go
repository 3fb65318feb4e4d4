// Package main provides the CLI entrypoint for volblock.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/volblock/internal/adapter/output"
	"github.com/jmylchreest/volblock/internal/config"
	"github.com/jmylchreest/volblock/internal/volume"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	cfg        *config.Config
	globalOpts struct {
		verbose    bool
		configPath string
	}
	logger   *slog.Logger
	logLevel = new(slog.LevelVar)
)

// logLevelOff is above every level slog emits.
const logLevelOff = slog.LevelError + 4

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "volblock",
	Short: "Volume block for status bars",
	Long: `volblock reports the ALSA master volume for status bars.

It polls the mixer (amixer by default), parses the volume and mute state,
and renders an icon and text for waybar, i3bar or a terminal.

Running volblock without a subcommand prints the status once.`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger(os.Stderr)

		var err error
		cfg, err = config.LoadConfig(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		applyLogLevel(cfg)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/volblock/config.toml)")

	addStatusFlags(rootCmd)
	setupLogger(os.Stderr)
}

// setupLogger configures the global slog logger.
func setupLogger(w io.Writer) {
	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	// Log to stderr so stdout is clean for output
	handler := slog.NewTextHandler(w, opts)
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// applyLogLevel sets the log level from c unless --verbose was given.
func applyLogLevel(c *config.Config) {
	if globalOpts.verbose {
		logLevel.Set(slog.LevelDebug)
		return
	}
	logLevel.Set(c.Log.SlogLevel())
}

// newVolumeBlock creates the volume block for c.
func newVolumeBlock(c *config.Config) *volume.Block {
	poller := volume.NewPoller(c.PollerOptions(), logger)
	return volume.NewBlock(poller, logger)
}

// newFormatter creates a formatter, letting a non-empty flag value
// override the configured format and template.
func newFormatter(c *config.Config, format, template string, stream bool) (output.Formatter, error) {
	if format == "" {
		format = c.Output.Format
	}
	if template == "" {
		template = c.Output.Template
	}
	return output.NewFormatter(output.FormatType(format), output.FormatterOptions{
		Template: template,
		Stream:   stream,
	})
}
