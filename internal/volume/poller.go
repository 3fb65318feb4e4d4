package volume

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// Default poller settings.
const (
	DefaultCommand        = "amixer"
	DefaultControl        = "Master"
	DefaultInitialBackoff = 1 * time.Second
	DefaultMaxBackoff     = 30 * time.Second
)

// Executor runs an external command and returns its stdout.
type Executor interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecExecutor runs commands with os/exec.
type ExecExecutor struct{}

// Output runs name with args and returns stdout.
func (ExecExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// PollerOptions configures a Poller.
type PollerOptions struct {
	Command        string        // Mixer executable (default "amixer")
	Control        string        // Simple mixer control (default "Master")
	Card           string        // ALSA card, passed as -c when set
	InitialBackoff time.Duration // First retry wait (default 1s)
	MaxBackoff     time.Duration // Retry wait ceiling (default 30s)
}

// DefaultPollerOptions returns the options for `amixer sget Master`.
func DefaultPollerOptions() PollerOptions {
	return PollerOptions{
		Command:        DefaultCommand,
		Control:        DefaultControl,
		InitialBackoff: DefaultInitialBackoff,
		MaxBackoff:     DefaultMaxBackoff,
	}
}

// withDefaults fills zero fields from DefaultPollerOptions.
func (o PollerOptions) withDefaults() PollerOptions {
	d := DefaultPollerOptions()
	if o.Command == "" {
		o.Command = d.Command
	}
	if o.Control == "" {
		o.Control = d.Control
	}
	if o.InitialBackoff <= 0 {
		o.InitialBackoff = d.InitialBackoff
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = d.MaxBackoff
	}
	if o.InitialBackoff > o.MaxBackoff {
		o.InitialBackoff = o.MaxBackoff
	}
	return o
}

// Args returns the mixer command arguments.
func (o PollerOptions) Args() []string {
	var args []string
	if o.Card != "" {
		args = append(args, "-c", o.Card)
	}
	return append(args, "sget", o.Control)
}

// Poller reads the mixer status line, retrying until the mixer answers.
type Poller struct {
	mu     sync.RWMutex
	opts   PollerOptions
	exec   Executor
	sleep  func(ctx context.Context, d time.Duration) error
	logger *slog.Logger
}

// NewPoller creates a Poller. A nil logger uses slog.Default().
func NewPoller(opts PollerOptions, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		opts:   opts.withDefaults(),
		exec:   ExecExecutor{},
		sleep:  sleepContext,
		logger: logger,
	}
}

// SetExecutor replaces the command executor.
func (p *Poller) SetExecutor(e Executor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exec = e
}

// SetOptions replaces the poller options. Takes effect on the next fetch.
func (p *Poller) SetOptions(opts PollerOptions) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opts = opts.withDefaults()
}

// Options returns the effective poller options.
func (p *Poller) Options() PollerOptions {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.opts
}

// FetchStatusLine returns the last line of the mixer output.
// It blocks until the mixer answers and never fails.
func (p *Poller) FetchStatusLine() string {
	line, _ := p.FetchStatusLineContext(context.Background())
	return line
}

// FetchStatusLineContext is FetchStatusLine with cancellation.
// The only error it returns is ctx.Err().
func (p *Poller) FetchStatusLineContext(ctx context.Context) (string, error) {
	p.mu.RLock()
	opts := p.opts
	executor := p.exec
	p.mu.RUnlock()

	wait := opts.InitialBackoff
	warned := false
	for {
		line, err := p.fetchOnce(ctx, executor, opts)
		if err == nil {
			return line, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}

		p.logger.Debug("mixer query failed, retrying",
			"command", opts.Command, "error", err, "wait", wait)
		if wait == opts.MaxBackoff && !warned {
			p.logger.Warn("mixer still unavailable", "command", opts.Command, "error", err)
			warned = true
		}

		if err := p.sleep(ctx, wait); err != nil {
			return "", err
		}
		wait = min(wait*2, opts.MaxBackoff)
	}
}

// fetchOnce runs the mixer once and extracts the last output line.
func (p *Poller) fetchOnce(ctx context.Context, executor Executor, opts PollerOptions) (string, error) {
	out, err := executor.Output(ctx, opts.Command, opts.Args()...)
	if err != nil {
		return "", &CommandError{Command: opts.Command, Message: "failed to execute mixer", Err: err}
	}
	line, err := LastLine(out)
	if err != nil {
		return "", &CommandError{Command: opts.Command, Message: "unusable mixer output", Err: err}
	}
	return line, nil
}

// LastLine decodes mixer output and returns its final line.
func LastLine(out []byte) (string, error) {
	if !utf8.Valid(out) {
		return "", ErrNotText
	}
	if len(out) == 0 {
		return "", ErrNoLines
	}

	// A trailing newline terminates the last line rather than starting a new one.
	out = bytes.TrimSuffix(out, []byte("\n"))
	if i := bytes.LastIndexByte(out, '\n'); i >= 0 {
		out = out[i+1:]
	}
	return strings.TrimSuffix(string(out), "\r"), nil
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
