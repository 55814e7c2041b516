package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/contamio/recallctl/pkg/recall"
)

var (
	accent = lipgloss.AdaptiveColor{Light: "#005577", Dark: "#00aadd"}

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#1a1a1a", Dark: "#dddddd"}).
			Bold(true).
			Margin(0, 0, 1, 0)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.AdaptiveColor{Light: "#a8a8a8", Dark: "#4e4e4e"}).
			Padding(0, 1)

	focusedPaneStyle = paneStyle.
				BorderForeground(accent)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#859900", Dark: "#50fa7b"}).
			Bold(true)

	cursorStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#626262", Dark: "#a8a8a8"}).
			Margin(1, 0, 0, 0)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#859900", Dark: "#50fa7b"}).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#dc322f", Dark: "#ff5555"}).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#8a8a8a", Dark: "#6c6c6c"})
)

// statusStyle colors a status the way the CLI table does.
func statusStyle(status recall.Status) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch status {
	case recall.StatusOpen:
		return base.Foreground(lipgloss.AdaptiveColor{Light: "#dc322f", Dark: "#ff5555"})
	case recall.StatusInProgress:
		return base.Foreground(lipgloss.AdaptiveColor{Light: "#b58900", Dark: "#f1fa8c"})
	case recall.StatusClosed:
		return base.Foreground(lipgloss.AdaptiveColor{Light: "#626262", Dark: "#a8a8a8"})
	case recall.StatusResolved:
		return base.Foreground(lipgloss.AdaptiveColor{Light: "#859900", Dark: "#50fa7b"})
	default:
		return base
	}
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(accent).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.AdaptiveColor{Light: "#ffffff", Dark: "#000000"}).
		Background(accent).
		Bold(true)

	return styles
}
