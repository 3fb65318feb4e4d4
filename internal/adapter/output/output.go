// Package output provides output formatters for block status.
package output

import (
	"fmt"
	"io"
	"time"

	"github.com/jmylchreest/volblock/internal/block"
)

// Status is a snapshot of one block ready for formatting.
type Status struct {
	Name      string
	Output    block.Output
	Level     int // 0-100 gauge level, valid when HasLevel
	HasLevel  bool
	Err       error
	UpdatedAt time.Time
}

// NewStatus snapshots b. err is the result of the most recent update.
func NewStatus(b block.Block, err error, at time.Time) Status {
	s := Status{
		Name:      b.Name(),
		Err:       err,
		UpdatedAt: at,
	}
	if out, ok := b.Output(); ok {
		s.Output = out
	}
	if g, ok := b.(block.Gauge); ok {
		s.Level = g.Level()
		s.HasLevel = true
	}
	return s
}

// Text returns the icon and primary text, e.g. "󰕾 75%".
func (s Status) Text() string {
	if s.Output.Icon == 0 {
		return s.Output.PrimaryText
	}
	return string(s.Output.Icon) + " " + s.Output.PrimaryText
}

// Class returns a short CSS-style class for the status.
// Gauges are bucketed into muted/low/medium/high.
func (s Status) Class() string {
	switch {
	case s.Err != nil:
		return "error"
	case !s.HasLevel:
		return s.Output.Attention.String()
	case s.Level <= 0:
		return "muted"
	case s.Level < 34:
		return "low"
	case s.Level < 67:
		return "medium"
	default:
		return "high"
	}
}

// Equal reports whether two statuses would render identically, ignoring
// UpdatedAt.
func (s Status) Equal(o Status) bool {
	if s.Name != o.Name || s.Level != o.Level || s.HasLevel != o.HasLevel {
		return false
	}
	if (s.Err == nil) != (o.Err == nil) || (s.Err != nil && s.Err.Error() != o.Err.Error()) {
		return false
	}
	a, b := s.Output, o.Output
	if a.Icon != b.Icon || a.PrimaryText != b.PrimaryText || a.Attention != b.Attention {
		return false
	}
	if (a.SecondaryText == nil) != (b.SecondaryText == nil) {
		return false
	}
	return a.SecondaryText == nil || *a.SecondaryText == *b.SecondaryText
}

// Formatter formats block status for output.
type Formatter interface {
	// Format writes the formatted status to the writer.
	Format(w io.Writer, s Status) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatWaybar FormatType = "waybar"
	FormatI3bar  FormatType = "i3bar"
	FormatPlain  FormatType = "plain"
	FormatJSON   FormatType = "json"
	FormatYAML   FormatType = "yaml"
	FormatPretty FormatType = "pretty"
)

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template string // Custom template for the plain format
	Stream   bool   // Emit the i3bar protocol header and array framing
}

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) (Formatter, error) {
	switch format {
	case FormatWaybar:
		return NewWaybarFormatter(), nil
	case FormatI3bar:
		return NewI3barFormatter(opts), nil
	case FormatPlain:
		return NewPlainFormatter(opts)
	case FormatJSON:
		return NewJSONFormatter(), nil
	case FormatYAML:
		return NewYAMLFormatter(), nil
	case FormatPretty:
		return NewPrettyFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}
