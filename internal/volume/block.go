package volume

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/volblock/internal/block"
)

// BlockName is the name the volume block reports to its host.
const BlockName = "volume"

// Block is the volume status block.
type Block struct {
	mu     sync.RWMutex
	state  State
	poller *Poller
	logger *slog.Logger
}

var (
	_ block.Block          = (*Block)(nil)
	_ block.ContextUpdater = (*Block)(nil)
	_ block.Gauge          = (*Block)(nil)
)

// NewBlock creates a volume block reading from poller.
func NewBlock(poller *Poller, logger *slog.Logger) *Block {
	if logger == nil {
		logger = slog.Default()
	}
	if poller == nil {
		poller = NewPoller(DefaultPollerOptions(), logger)
	}
	return &Block{
		poller: poller,
		logger: logger,
	}
}

// Poller returns the block's poller.
func (b *Block) Poller() *Poller {
	return b.poller
}

// Name returns "volume".
func (b *Block) Name() string {
	return BlockName
}

// NextUpdateTime always reports no cadence; the host decides.
func (b *Block) NextUpdateTime() (time.Time, bool) {
	return time.Time{}, false
}

// Update polls the mixer and applies the result. It blocks until the mixer
// answers.
func (b *Block) Update() error {
	return b.UpdateContext(context.Background())
}

// UpdateContext is Update with cancellation. A cancelled poll returns
// ctx.Err() and leaves the state untouched.
func (b *Block) UpdateContext(ctx context.Context) error {
	line, err := b.poller.FetchStatusLineContext(ctx)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	next, err := Parse(line, b.state)
	if err != nil {
		b.logger.Debug("unrecognised mixer status line", "line", line, "error", err)
		return &block.UpdateError{
			BlockName: BlockName,
			Message:   err.Error(),
			Err:       err,
		}
	}

	if next != b.state {
		b.logger.Debug("volume changed", "volume", next.Volume, "muted", next.Muted)
	}
	b.state = next
	return nil
}

// State returns a copy of the current state.
func (b *Block) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Output renders the current state. It is always present.
func (b *Block) Output() (block.Output, bool) {
	return Render(b.State()), true
}

// Level returns the audible volume: 0 when muted.
func (b *Block) Level() int {
	s := b.State()
	if s.Muted {
		return 0
	}
	return s.Volume
}

// IsParseError reports whether err came from an unrecognised status line.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
