package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/volblock/internal/block"
)

// PrettyFormatter formats status for a terminal with lipgloss styling.
type PrettyFormatter struct {
	iconStyle  lipgloss.Style
	textStyles map[block.Attention]lipgloss.Style
	errStyle   lipgloss.Style
}

// NewPrettyFormatter creates a new terminal formatter.
func NewPrettyFormatter() *PrettyFormatter {
	return &PrettyFormatter{
		iconStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		textStyles: map[block.Attention]lipgloss.Style{
			block.AttentionNormal:   lipgloss.NewStyle(),
			block.AttentionDim:      lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
			block.AttentionWarning:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
			block.AttentionCritical: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		},
		errStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

// Format writes s as a styled line.
func (f *PrettyFormatter) Format(w io.Writer, s Status) error {
	line := ""
	if s.Output.Icon != 0 {
		line = f.iconStyle.Render(string(s.Output.Icon)) + " "
	}
	line += f.textStyles[s.Output.Attention].Render(s.Output.PrimaryText)
	if s.Output.SecondaryText != nil && *s.Output.SecondaryText != "" {
		line += " " + f.textStyles[block.AttentionDim].Render(*s.Output.SecondaryText)
	}
	if s.Err != nil {
		line += " " + f.errStyle.Render("✗ "+s.Err.Error())
	}

	_, err := io.WriteString(w, line+"\n")
	return err
}
