package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/volblock/internal/adapter/output"
	"github.com/jmylchreest/volblock/internal/block"
)

var statusOpts struct {
	format   string
	template string
	timeout  time.Duration
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the volume status once",
	Long: `Poll the mixer once and print the volume status.

This is designed to be used with Waybar's custom module:

  "custom/volume": {
    "exec": "volblock status",
    "interval": 2,
    "return-type": "json",
    "signal": 10
  }

If the mixer output cannot be parsed the error status is printed and
volblock exits non-zero. Mixer failures are retried with backoff until
--timeout expires.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	addStatusFlags(statusCmd)
}

func addStatusFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&statusOpts.format, "format", "f", "",
		"Output format: waybar, i3bar, plain, json, yaml, pretty (default from config)")
	cmd.Flags().StringVar(&statusOpts.template, "template", "",
		"Go template for plain format")
	cmd.Flags().DurationVar(&statusOpts.timeout, "timeout", 10*time.Second,
		"Give up on the mixer after this long")
}

func runStatus(cmd *cobra.Command, args []string) error {
	formatter, err := newFormatter(cfg, statusOpts.format, statusOpts.template, false)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), statusOpts.timeout)
	defer cancel()

	return printStatus(ctx, os.Stdout, newVolumeBlock(cfg), formatter)
}

// printStatus updates b once and writes its status. The update error is
// returned after the status has been written.
func printStatus(ctx context.Context, w io.Writer, b block.Block, f output.Formatter) error {
	updateErr := block.UpdateContext(ctx, b)
	if updateErr != nil {
		logger.Debug("update failed", "block", b.Name(), "error", updateErr)
	}

	if err := f.Format(w, output.NewStatus(b, updateErr, time.Now())); err != nil {
		return err
	}
	return updateErr
}
