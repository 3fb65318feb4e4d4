package output

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/jmylchreest/volblock/internal/block"
)

// i3bar colours per attention level. Normal uses the bar default.
var i3barColors = map[block.Attention]string{
	block.AttentionDim:      "#888888",
	block.AttentionWarning:  "#ffb86c",
	block.AttentionCritical: "#ff5555",
}

const i3barErrorColor = "#ff5555"

// I3barBlock is one block of the i3bar protocol.
type I3barBlock struct {
	Name      string `json:"name"`
	FullText  string `json:"full_text"`
	ShortText string `json:"short_text,omitempty"`
	Color     string `json:"color,omitempty"`
	Urgent    bool   `json:"urgent,omitempty"`
}

// I3barHeader is the i3bar protocol header.
type I3barHeader struct {
	Version int `json:"version"`
}

// I3barFormatter formats status as i3bar protocol blocks.
// In stream mode the first Format call writes the protocol header and opens
// the infinite array; every call then writes one status line.
type I3barFormatter struct {
	opts    FormatterOptions
	mu      sync.Mutex
	started bool
}

// NewI3barFormatter creates a new i3bar formatter.
func NewI3barFormatter(opts FormatterOptions) *I3barFormatter {
	return &I3barFormatter{opts: opts}
}

// Format writes s as an i3bar block.
func (f *I3barFormatter) Format(w io.Writer, s Status) error {
	b := GenerateI3barBlock(s)

	if !f.opts.Stream {
		return json.NewEncoder(w).Encode(b)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.started {
		if err := json.NewEncoder(w).Encode(I3barHeader{Version: 1}); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "[\n"); err != nil {
			return err
		}
		f.started = true
	}

	data, err := json.Marshal([]I3barBlock{b})
	if err != nil {
		return err
	}
	data = append(data, ',', '\n')
	_, err = w.Write(data)
	return err
}

// GenerateI3barBlock creates an I3barBlock from a block status.
func GenerateI3barBlock(s Status) I3barBlock {
	b := I3barBlock{
		Name:      s.Name,
		FullText:  s.Text(),
		ShortText: s.Output.PrimaryText,
		Color:     i3barColors[s.Output.Attention],
		Urgent:    s.Output.Attention == block.AttentionCritical,
	}
	if s.Err != nil {
		b.Color = i3barErrorColor
	}
	return b
}
