package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mistweaverco/addonup/internal/addon"
)

var (
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	docStyle      = lipgloss.NewStyle().Padding(1, 2, 1, 2)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(highlight)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	disabledStyle = lipgloss.NewStyle().Faint(true)
	focusedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	buttonStyle   = lipgloss.NewStyle().Foreground(special)

	errorBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#ff5555")).
			Padding(0, 1)
	infoBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#8be9fd")).
			Padding(0, 1)
)

// Glyph returns the terminal symbol for a panel icon.
func Glyph(icon addon.Icon) string {
	switch icon {
	case addon.IconFileRefresh:
		return "⟳"
	case addon.IconTriaDownBar:
		return "⤓"
	case addon.IconCancel:
		return "✗"
	case addon.IconError:
		return "!"
	}
	return " "
}

// Tab is one entry of the tab row.
type Tab struct {
	Title    string
	IsActive bool
	Id       string
}

func (t Tab) Render() string {
	border := lipgloss.Border{
		Top:         "─",
		Bottom:      "─",
		Left:        "│",
		Right:       "│",
		TopLeft:     "╭",
		TopRight:    "╮",
		BottomLeft:  "┴",
		BottomRight: "┴",
	}
	if t.IsActive {
		border.Bottom = " "
		border.BottomLeft = "┘"
		border.BottomRight = "└"
	}
	return lipgloss.NewStyle().
		Align(lipgloss.Center).
		Border(border, true).
		BorderForeground(highlight).
		Padding(0, 1).
		Render(t.Title)
}

// RenderTabs creates the tab row with a full-width bottom line.
func RenderTabs(tabs []Tab, totalWidth int) string {
	rendered := make([]string, 0, len(tabs))
	for _, tab := range tabs {
		rendered = append(rendered, tab.Render())
	}
	row := lipgloss.JoinHorizontal(lipgloss.Bottom, rendered...)

	if gap := totalWidth - lipgloss.Width(row); gap > 0 {
		line := lipgloss.NewStyle().Foreground(highlight).Render(strings.Repeat("─", gap))
		row = lipgloss.JoinHorizontal(lipgloss.Bottom, row, line)
	}
	return row
}
