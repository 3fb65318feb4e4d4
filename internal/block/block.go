// Package block defines the contract between a status-bar host and the blocks
// it renders.
package block

import (
	"context"
	"time"
)

// Attention is how loudly a block asks for the user's attention.
type Attention int

const (
	AttentionNormal Attention = iota
	AttentionDim
	AttentionWarning
	AttentionCritical
)

// AttentionNames maps attention levels to their string names.
var AttentionNames = map[Attention]string{
	AttentionNormal:   "normal",
	AttentionDim:      "dim",
	AttentionWarning:  "warning",
	AttentionCritical: "critical",
}

// String returns the attention level name.
func (a Attention) String() string {
	if name, ok := AttentionNames[a]; ok {
		return name
	}
	return "unknown"
}

// Output is the rendered content of a block.
type Output struct {
	Icon          rune      `json:"icon" yaml:"icon"`
	PrimaryText   string    `json:"primary_text" yaml:"primary_text"`
	SecondaryText *string   `json:"secondary_text,omitempty" yaml:"secondary_text,omitempty"`
	Attention     Attention `json:"attention" yaml:"attention"`
}

// Block is a single pluggable status-bar element.
type Block interface {
	// Update refreshes the block's state. Format errors are returned as
	// *UpdateError.
	Update() error

	// Name returns the block identifier (e.g., "volume").
	Name() string

	// NextUpdateTime returns when the block wants its next update.
	// ok is false when the block has no cadence of its own.
	NextUpdateTime() (t time.Time, ok bool)

	// Output renders the block's current state.
	// ok is false when the block has nothing to show.
	Output() (out Output, ok bool)
}

// ContextUpdater is implemented by blocks whose update can be abandoned.
type ContextUpdater interface {
	UpdateContext(ctx context.Context) error
}

// Gauge is implemented by blocks that expose a 0-100 level.
type Gauge interface {
	Level() int
}

// UpdateContext calls b.UpdateContext when available, otherwise b.Update.
func UpdateContext(ctx context.Context, b Block) error {
	if cu, ok := b.(ContextUpdater); ok {
		return cu.UpdateContext(ctx)
	}
	return b.Update()
}

// UpdateError describes a failed block update.
type UpdateError struct {
	BlockName string
	Message   string
	Err       error
}

func (e *UpdateError) Error() string {
	return e.BlockName + ": " + e.Message
}

func (e *UpdateError) Unwrap() error {
	return e.Err
}
