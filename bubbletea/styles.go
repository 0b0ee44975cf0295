package bubbletea

import (
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	fleetspeed "github.com/TorgeirBrenn/FleetSpeed"
)

// Styles maps a Theme to lipgloss styles for TUI rendering.
type Styles struct {
	Title lipgloss.Style
	Error lipgloss.Style
	Muted lipgloss.Style
	Table table.Styles
}

// NewStyles creates Styles from a Theme.
func NewStyles(t fleetspeed.Theme) Styles {
	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		Foreground(ansiColor(t.Header)).
		Bold(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true)
	// The leaderboard is display-only: render the cursor row like any other.
	ts.Selected = ts.Cell

	return Styles{
		Title: lipgloss.NewStyle().Foreground(ansiColor(t.Title)).Bold(true),
		Error: lipgloss.NewStyle().Foreground(ansiColor(t.Error)),
		Muted: lipgloss.NewStyle().Foreground(ansiColor(t.Muted)).Faint(true),
		Table: ts,
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}
