package modal

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Type selects the icon and border color of a modal.
type Type string

const (
	TypeError Type = "error"
	TypeInfo  Type = "info"
)

type keyMap struct {
	Quit  key.Binding
	Close key.Binding
}

var keys = keyMap{
	Quit:  key.NewBinding(key.WithKeys("ctrl+c")),
	Close: key.NewBinding(key.WithKeys("esc", "enter")),
}

var (
	errorColor = lipgloss.Color("#ff5555")
	infoColor  = lipgloss.Color("#8be9fd")
)

// ClosedMsg is sent when the user dismisses the modal.
type ClosedMsg struct{}

// Modal shows an updater error or info notice on top of the panel.
type Modal struct {
	Message  string
	Type     Type
	width    int
	height   int
	quitting bool
	keys     keyMap
}

func New(msg string, t Type) Modal {
	return Modal{
		Message: msg,
		Type:    t,
		keys:    keys,
	}
}

// Open reports whether there is a message to show.
func (m Modal) Open() bool {
	return m.Message != ""
}

func (m Modal) Update(msg tea.Msg) (Modal, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Close) {
			closed := Modal{keys: m.keys, width: m.width, height: m.height}
			return closed, func() tea.Msg { return ClosedMsg{} }
		}
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Modal) icon() string {
	if m.Type == TypeError {
		return "✗"
	}
	return "ℹ"
}

func (m Modal) color() lipgloss.Color {
	if m.Type == TypeError {
		return errorColor
	}
	return infoColor
}

func (m Modal) View() string {
	width, height := m.width, m.height
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 12
	}
	return m.view(width, height)
}

func (m Modal) view(screenWidth, screenHeight int) string {
	title := m.icon() + " " + strings.ToUpper(string(m.Type))

	maxLineWidth := lipgloss.Width(title)
	lines := strings.Split(m.Message, "\n")
	for _, line := range lines {
		if w := lipgloss.Width(line); w > maxLineWidth {
			maxLineWidth = w
		}
	}

	modalWidth := maxLineWidth + 4
	if modalWidth > screenWidth-4 {
		modalWidth = screenWidth - 4
	}

	header := lipgloss.NewStyle().Bold(true).Foreground(m.color()).Render(title)
	content := lipgloss.NewStyle().Width(modalWidth - 4).Align(lipgloss.Center).Render(m.Message)
	closeButton := lipgloss.NewStyle().Padding(0, 1).Faint(true).Render("[enter] close")

	box := lipgloss.NewStyle().
		Width(modalWidth).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(m.color()).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Center, header, content, closeButton))

	return lipgloss.Place(screenWidth, screenHeight, lipgloss.Center, lipgloss.Center, box)
}
