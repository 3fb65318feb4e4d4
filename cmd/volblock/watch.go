package main

import (
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/volblock/internal/adapter/output"
	"github.com/jmylchreest/volblock/internal/config"
	"github.com/jmylchreest/volblock/internal/daemon"
	"github.com/jmylchreest/volblock/internal/notify"
	"github.com/jmylchreest/volblock/internal/volume"
)

var watchOpts struct {
	format      string
	template    string
	interval    time.Duration
	changesOnly bool
	notify      bool
	noReload    bool
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Continuously print the volume status",
	Long: `Poll the mixer on an interval and print a status line for every update.

Send SIGUSR1 to refresh immediately, for example from a volume key binding:

  pkill -USR1 -x volblock

The config file is watched and changes to the mixer, interval, format and
notification settings are applied without a restart. Waybar users can run
this as a persistent custom module:

  "custom/volume": {
    "exec": "volblock watch",
    "return-type": "json"
  }`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchOpts.format, "format", "f", "",
		"Output format: waybar, i3bar, plain, json, yaml, pretty (default from config)")
	watchCmd.Flags().StringVar(&watchOpts.template, "template", "",
		"Go template for plain format")
	watchCmd.Flags().DurationVarP(&watchOpts.interval, "interval", "i", 0,
		"Time between polls (default from config)")
	watchCmd.Flags().BoolVar(&watchOpts.changesOnly, "changes-only", false,
		"Only print when the status changes (default from config)")
	watchCmd.Flags().BoolVar(&watchOpts.notify, "notify", false,
		"Send a desktop notification on change (default from config)")
	watchCmd.Flags().BoolVar(&watchOpts.noReload, "no-reload", false,
		"Do not watch the config file for changes")
}

// watchSession holds the parts of watch mode that a config reload can change.
type watchSession struct {
	mu        sync.Mutex
	cmd       *cobra.Command
	block     *volume.Block
	runner    *daemon.Runner
	formatter output.Formatter
	notifier  *notify.Notifier
	notifyOn  bool

	// connect opens the notification bus; notify.Connect outside tests.
	connect func(timeout time.Duration, logger *slog.Logger) (*notify.Notifier, error)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := newWatchSession(cmd, cfg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.ensureNotifier(cfg)
	s.mu.Unlock()

	if !watchOpts.noReload {
		watcher, err := daemon.NewConfigWatcher(globalOpts.configPath, logger)
		if err != nil {
			logger.Warn("failed to create config watcher", "error", err)
		} else {
			watcher.SetReloadCallback(s.apply)
			if err := watcher.Start(cfg); err != nil {
				logger.Warn("failed to start config watcher", "error", err)
			}
			defer func() { _ = watcher.Stop() }()
		}
	}

	usr1 := make(chan os.Signal, 1)
	signal.Notify(usr1, syscall.SIGUSR1)
	defer signal.Stop(usr1)

	statuses := make(chan output.Status)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.runner.Run(gctx, statuses)
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-usr1:
				logger.Debug("refresh requested by signal")
				s.runner.Trigger()
			}
		}
	})
	g.Go(func() error {
		return s.publish(os.Stdout, statuses)
	})

	return g.Wait()
}

// newWatchSession builds the block, runner and formatter for c.
func newWatchSession(cmd *cobra.Command, c *config.Config) (*watchSession, error) {
	formatter, err := newFormatter(c, watchOpts.format, watchOpts.template, true)
	if err != nil {
		return nil, err
	}

	b := newVolumeBlock(c)
	s := &watchSession{
		cmd:       cmd,
		block:     b,
		formatter: formatter,
		connect:   notify.Connect,
	}
	s.runner = daemon.NewRunner(b, s.runnerOptions(c), logger)
	s.notifyOn = s.notifyEnabled(c)
	return s, nil
}

func (s *watchSession) runnerOptions(c *config.Config) daemon.RunnerOptions {
	opts := daemon.RunnerOptions{
		Interval:    c.Watch.Interval.Duration(),
		ChangesOnly: c.Watch.ChangesOnly,
	}
	if s.cmd.Flags().Changed("interval") {
		opts.Interval = watchOpts.interval
	}
	if s.cmd.Flags().Changed("changes-only") {
		opts.ChangesOnly = watchOpts.changesOnly
	}
	return opts
}

func (s *watchSession) notifyEnabled(c *config.Config) bool {
	if s.cmd.Flags().Changed("notify") {
		return watchOpts.notify
	}
	return c.Notify.Enabled
}

// apply updates the session from a reloaded config. Flags given on the
// command line keep precedence.
func (s *watchSession) apply(c *config.Config) {
	applyLogLevel(c)
	s.block.Poller().SetOptions(c.PollerOptions())

	opts := s.runnerOptions(c)
	s.runner.SetInterval(opts.Interval)
	s.runner.SetChangesOnly(opts.ChangesOnly)

	s.mu.Lock()
	defer s.mu.Unlock()

	// An i3bar stream has already written its header; keep it.
	if _, streaming := s.formatter.(*output.I3barFormatter); !streaming {
		if f, err := newFormatter(c, watchOpts.format, watchOpts.template, true); err != nil {
			logger.Warn("keeping previous output format", "error", err)
		} else {
			s.formatter = f
		}
	}

	s.notifyOn = s.notifyEnabled(c)
	if s.notifier != nil {
		s.notifier.SetTimeout(c.Notify.Timeout.Duration())
	}
	s.ensureNotifier(c)
}

// ensureNotifier connects to the notification bus the first time
// notifications are enabled. s.mu must be held.
func (s *watchSession) ensureNotifier(c *config.Config) {
	if !s.notifyOn || s.notifier != nil {
		return
	}
	n, err := s.connect(c.Notify.Timeout.Duration(), logger)
	if err != nil {
		logger.Warn("desktop notifications disabled", "error", err)
		return
	}
	s.notifier = n
}

// publish writes each status and sends notifications for changed ones
// until statuses is closed.
func (s *watchSession) publish(w io.Writer, statuses <-chan output.Status) error {
	var last *output.Status
	for status := range statuses {
		s.mu.Lock()
		formatter := s.formatter
		notifier := s.notifier
		notifyOn := s.notifyOn
		s.mu.Unlock()

		if err := formatter.Format(w, status); err != nil {
			return err
		}

		changed := last != nil && !last.Equal(status)
		last = &status
		if notifyOn && notifier != nil && changed {
			if _, err := notifier.Notify(status); err != nil {
				logger.Warn("failed to send notification", "error", err)
			}
		}
	}
	return nil
}
