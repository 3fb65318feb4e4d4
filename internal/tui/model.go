// Package tui provides the BubbleTea-based terminal user interface.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/volblock/internal/adapter/output"
	"github.com/jmylchreest/volblock/internal/daemon"
)

// gaugeWidth is the number of cells in the level gauge.
const gaugeWidth = 30

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	textStyle  = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	filledCell = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	mutedCell  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1)
)

// Model is the main TUI model.
type Model struct {
	statuses <-chan output.Status
	refresh  func()

	status   *output.Status
	lastErr  error
	updates  int
	closed   bool
	showHelp bool
	width    int

	keys KeyMap
	help help.Model

	now func() time.Time
}

// New creates a Model that renders statuses as they arrive. refresh is called
// when the user asks for an immediate update and may be nil.
func New(statuses <-chan output.Status, refresh func()) Model {
	return Model{
		statuses: statuses,
		refresh:  refresh,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		now:      time.Now,
	}
}

type statusMsg output.Status

type closedMsg struct{}

type tickMsg time.Time

// waitForStatus blocks until the next status arrives.
func (m Model) waitForStatus() tea.Msg {
	s, ok := <-m.statuses
	if !ok {
		return closedMsg{}
	}
	return statusMsg(s)
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init initializes the TUI.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitForStatus, tick())
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			m.help.ShowAll = m.showHelp
		case key.Matches(msg, m.keys.Refresh):
			if m.refresh != nil {
				m.refresh()
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case statusMsg:
		s := output.Status(msg)
		m.status = &s
		m.updates++
		if s.Err != nil {
			m.lastErr = s.Err
		}
		return m, m.waitForStatus

	case closedMsg:
		m.closed = true
		return m, tea.Quit

	case tickMsg:
		// Re-render so the relative update time stays current.
		return m, tick()
	}

	return m, nil
}

// Gauge renders level as a bar of width cells.
func Gauge(level, width int, muted bool) string {
	filled := max(0, min(width, level*width/100))
	style := filledCell
	if muted {
		style = mutedCell
	}
	return style.Render(strings.Repeat("█", filled)) +
		dimStyle.Render(strings.Repeat("░", width-filled))
}

// View renders the TUI.
func (m Model) View() string {
	if m.status == nil {
		return dimStyle.Render("Waiting for mixer...") + "\n"
	}
	s := *m.status

	var b strings.Builder
	b.WriteString(titleStyle.Render(s.Name))
	b.WriteString("  ")
	b.WriteString(textStyle.Render(s.Text()))
	b.WriteString("\n")

	if s.HasLevel {
		b.WriteString(Gauge(s.Level, gaugeWidth, s.Class() == "muted"))
		b.WriteString("\n")
	}
	if s.Output.SecondaryText != nil {
		b.WriteString(dimStyle.Render(*s.Output.SecondaryText))
		b.WriteString("\n")
	}
	if m.lastErr != nil {
		b.WriteString(errStyle.Render("Last error: " + m.lastErr.Error()))
		b.WriteString("\n")
	}

	b.WriteString(dimStyle.Render("Updated " + humanize.RelTime(s.UpdatedAt, m.now(), "ago", "from now") +
		" (" + humanize.Comma(int64(m.updates)) + " updates)"))

	view := boxStyle.Render(b.String()) + "\n" + m.help.View(m.keys) + "\n"
	if m.closed {
		view += dimStyle.Render("Runner stopped") + "\n"
	}
	return view
}

// RunOptions configures the TUI.
type RunOptions struct {
	Runner *daemon.Runner
}

// Run starts the runner and the TUI, and stops the runner when the TUI exits.
func Run(ctx context.Context, opts RunOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	statuses := make(chan output.Status)
	errCh := make(chan error, 1)
	go func() {
		errCh <- opts.Runner.Run(ctx, statuses)
	}()

	p := tea.NewProgram(New(statuses, opts.Runner.Trigger), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()

	cancel()
	if runErr := <-errCh; runErr != nil && err == nil {
		err = runErr
	}
	return err
}
