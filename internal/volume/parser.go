package volume

import (
	"strconv"
	"strings"
)

// State is the mixer state shown by the volume block.
type State struct {
	Volume int  `json:"volume" yaml:"volume"` // Percent, as reported by the mixer
	Muted  bool `json:"muted" yaml:"muted"`
}

// Parse applies one mixer status line to prev and returns the new state.
//
// Everything from the first '[' onwards is inspected: "on" means unmuted,
// "off" means muted. When unmuted, every digit in that segment is
// concatenated and read as the percentage. When muted, the volume is kept
// from prev.
func Parse(line string, prev State) (State, error) {
	i := strings.IndexByte(line, '[')
	if i < 0 {
		return prev, &ParseError{Kind: ErrKindMalformedOutput, Line: line}
	}
	segment := line[i:]

	next := prev
	switch {
	case strings.Contains(segment, "on"):
		next.Muted = false
	case strings.Contains(segment, "off"):
		next.Muted = true
	default:
		return prev, &ParseError{Kind: ErrKindAmbiguousMuteState, Line: line}
	}

	if next.Muted {
		return next, nil
	}

	digits := extractDigits(segment)
	percent, err := strconv.ParseInt(digits, 10, 32)
	if err != nil {
		return prev, &ParseError{
			Kind:   ErrKindInvalidPercentage,
			Line:   line,
			Digits: digits,
			Err:    err,
		}
	}
	next.Volume = int(percent)

	return next, nil
}

// extractDigits returns the ASCII digits of s in order.
func extractDigits(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
