package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
)

// WaybarStatus represents the Waybar custom module JSON format.
type WaybarStatus struct {
	Text       string `json:"text"`
	Alt        string `json:"alt,omitempty"`
	Tooltip    string `json:"tooltip,omitempty"`
	Class      string `json:"class,omitempty"`
	Percentage int    `json:"percentage,omitempty"`
}

// WaybarFormatter writes one Waybar JSON object per line.
//
// Use with Waybar's custom module:
//
//	"custom/volume": {
//	  "exec": "volblock watch",
//	  "return-type": "json",
//	  "signal": 10
//	}
type WaybarFormatter struct{}

// NewWaybarFormatter creates a new Waybar formatter.
func NewWaybarFormatter() *WaybarFormatter {
	return &WaybarFormatter{}
}

// Format writes s as a single-line Waybar JSON object.
func (f *WaybarFormatter) Format(w io.Writer, s Status) error {
	encoder := json.NewEncoder(w)
	return encoder.Encode(GenerateWaybarStatus(s))
}

// GenerateWaybarStatus creates a WaybarStatus from a block status.
func GenerateWaybarStatus(s Status) WaybarStatus {
	class := s.Class()
	ws := WaybarStatus{
		Text:    s.Text(),
		Alt:     class,
		Tooltip: buildTooltip(s),
		Class:   class,
	}
	if s.HasLevel {
		ws.Percentage = min(max(s.Level, 0), 100)
	}
	return ws
}

// buildTooltip describes the status and when it was last refreshed.
func buildTooltip(s Status) string {
	var lines []string

	lines = append(lines, fmt.Sprintf("%s: %s", s.Name, s.Output.PrimaryText))
	if s.Output.SecondaryText != nil && *s.Output.SecondaryText != "" {
		lines = append(lines, *s.Output.SecondaryText)
	}
	if s.Err != nil {
		lines = append(lines, "Error: "+s.Err.Error())
	}
	if !s.UpdatedAt.IsZero() {
		lines = append(lines, "Updated "+humanize.Time(s.UpdatedAt))
	}

	return strings.Join(lines, "\n")
}
