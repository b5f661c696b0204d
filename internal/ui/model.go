package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mistweaverco/addonup/internal/addon"
	"github.com/mistweaverco/addonup/internal/lib/log"
	"github.com/mistweaverco/addonup/internal/lib/updater"
	"github.com/mistweaverco/addonup/internal/modal"
)

var Logger = log.NewLogger()

const (
	tabPanel = iota
	tabCandidates
)

// operatorDoneMsg is sent when a background operator call returns.
type operatorDoneMsg struct {
	id     string
	result addon.Result
	err    error
}

type model struct {
	ctx      context.Context
	timeout  time.Duration
	manager  *updater.Manager
	registry *addon.Registry
	prefs    addon.Preferences

	tabs           []Tab
	activeTabIndex int
	candidates     table.Model
	targetInput    textinput.Model
	focus          int

	width, height int
	spinner       spinner.Model
	running       string
	modal         *modal.Modal
}

func newModel(ctx context.Context, m *updater.Manager, reg *addon.Registry, prefs addon.Preferences, timeout time.Duration) model {
	columns := []table.Column{
		{Title: "Ref", Width: 24},
		{Title: "Version", Width: 12},
		{Title: "Kind", Width: 8},
	}
	candidates := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	candidates.SetStyles(styles)

	ti := textinput.New()
	ti.Placeholder = "branch or tag"
	ti.Width = 24
	ti.PromptStyle = lipgloss.NewStyle().Foreground(highlight)
	ti.Prompt = "› "
	ti.SetValue(prefs.BranchToUpdate)

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	out := model{
		ctx:      ctx,
		timeout:  timeout,
		manager:  m,
		registry: reg,
		prefs:    prefs,
		tabs: []Tab{
			{Title: "Updater", IsActive: true, Id: "updater"},
			{Title: "Candidates", Id: "candidates"},
		},
		candidates:  candidates,
		targetInput: ti,
		spinner:     sp,
		width:       80,
	}
	out.refreshCandidates()
	return out
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) panel() addon.Panel {
	return addon.DrawUpdaterUI(m.prefs, m.manager)
}

// runOperator executes an operator off the UI goroutine. Each call gets its
// own deadline so a stalled remote cannot leave the manager busy.
func (m model) runOperator(id string, props addon.Properties) tea.Cmd {
	parent, timeout, reg := m.ctx, m.timeout, m.registry
	return func() tea.Msg {
		ctx := parent
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(parent, timeout)
			defer cancel()
		}
		res, err := reg.Execute(ctx, id, props)
		return operatorDoneMsg{id: id, result: res, err: err}
	}
}

func (m *model) refreshCandidates() {
	snap := m.manager.Snapshot()
	rows := make([]table.Row, 0, len(snap.Candidates))
	for _, c := range snap.Candidates {
		v := c.Version
		if v == "" {
			v = "-"
		}
		rows = append(rows, table.Row{c.Name, v, string(c.Kind)})
	}
	m.candidates.SetRows(rows)
}

func (m *model) setActiveTab(idx int) {
	m.activeTabIndex = idx
	for i := range m.tabs {
		m.tabs[i].IsActive = i == idx
	}
}
