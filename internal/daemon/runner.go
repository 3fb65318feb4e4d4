package daemon

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/volblock/internal/adapter/output"
	"github.com/jmylchreest/volblock/internal/block"
)

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	Interval    time.Duration // Time between updates
	ChangesOnly bool          // Suppress statuses identical to the last one published
}

// Runner drives a block's blocking updates on a worker goroutine and
// publishes the results as statuses.
type Runner struct {
	mu          sync.Mutex
	block       block.Block
	interval    time.Duration
	changesOnly bool
	logger      *slog.Logger

	triggerCh  chan struct{}
	intervalCh chan time.Duration

	now func() time.Time
}

// NewRunner creates a Runner for b.
func NewRunner(b block.Block, opts RunnerOptions, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	return &Runner{
		block:       b,
		interval:    opts.Interval,
		changesOnly: opts.ChangesOnly,
		logger:      logger,
		triggerCh:   make(chan struct{}, 1),
		intervalCh:  make(chan time.Duration, 1),
		now:         time.Now,
	}
}

// Trigger requests an immediate update. Requests made while one is already
// pending are coalesced.
func (r *Runner) Trigger() {
	select {
	case r.triggerCh <- struct{}{}:
	default:
	}
}

// SetInterval changes the update interval of a running Runner.
func (r *Runner) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	r.mu.Lock()
	r.interval = d
	r.mu.Unlock()

	// Replace any interval change that has not been picked up yet.
	for {
		select {
		case r.intervalCh <- d:
			return
		default:
		}
		select {
		case <-r.intervalCh:
		default:
		}
	}
}

// SetChangesOnly toggles duplicate suppression.
func (r *Runner) SetChangesOnly(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changesOnly = v
}

// Run updates the block once immediately and then on every tick or trigger,
// sending each resulting status to out. It returns nil when ctx is cancelled
// and closes out before returning.
func (r *Runner) Run(ctx context.Context, out chan<- output.Status) error {
	defer close(out)

	g, gctx := errgroup.WithContext(ctx)
	results := make(chan output.Status)

	g.Go(func() error {
		return r.updateLoop(gctx, results)
	})
	g.Go(func() error {
		return r.publishLoop(gctx, results, out)
	})

	err := g.Wait()
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// updateLoop runs updates on schedule.
func (r *Runner) updateLoop(ctx context.Context, results chan<- output.Status) error {
	r.mu.Lock()
	interval := r.interval
	r.mu.Unlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := r.updateOnce(ctx, results); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d := <-r.intervalCh:
			r.logger.Debug("update interval changed", "block", r.block.Name(), "interval", d)
			ticker.Reset(d)
			continue
		case <-ticker.C:
		case <-r.triggerCh:
			r.logger.Debug("update triggered", "block", r.block.Name())
		}

		if err := r.updateOnce(ctx, results); err != nil {
			return err
		}
	}
}

// updateOnce performs one update on a worker goroutine so a block that
// ignores ctx cannot hold up shutdown.
func (r *Runner) updateOnce(ctx context.Context, results chan<- output.Status) error {
	done := make(chan error, 1)
	go func() {
		done <- block.UpdateContext(ctx, r.block)
	}()

	var err error
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err = <-done:
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if err != nil {
		r.logger.Warn("block update failed", "block", r.block.Name(), "error", err)
	}

	status := output.NewStatus(r.block, err, r.now())
	select {
	case <-ctx.Done():
		return ctx.Err()
	case results <- status:
		return nil
	}
}

// publishLoop forwards statuses to out, dropping unchanged ones when
// changesOnly is set.
func (r *Runner) publishLoop(ctx context.Context, results <-chan output.Status, out chan<- output.Status) error {
	var last *output.Status

	for {
		var status output.Status
		select {
		case <-ctx.Done():
			return ctx.Err()
		case status = <-results:
		}

		r.mu.Lock()
		changesOnly := r.changesOnly
		r.mu.Unlock()

		if changesOnly && last != nil && last.Equal(status) {
			continue
		}
		last = &status

		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- status:
		}
	}
}
