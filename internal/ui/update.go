package ui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mistweaverco/addonup/internal/addon"
	"github.com/mistweaverco/addonup/internal/modal"
)

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.modal != nil {
		if _, closed := msg.(modal.ClosedMsg); closed {
			m.modal = nil
			return m, nil
		}
		if _, isKey := msg.(tea.KeyMsg); isKey {
			updated, cmd := m.modal.Update(msg)
			if updated.Open() {
				m.modal = &updated
			} else {
				m.modal = nil
			}
			return m, cmd
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = min(msg.Width, 100)
		m.height = msg.Height
		m.candidates.SetHeight(max(msg.Height-10, 3))
		if m.modal != nil {
			updated, _ := m.modal.Update(msg)
			m.modal = &updated
		}
		return m, nil

	case spinner.TickMsg:
		if m.running == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case operatorDoneMsg:
		return m.handleOperatorDone(msg)

	case tea.KeyMsg:
		if m.targetInput.Focused() {
			return m.handleTargetKey(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleOperatorDone(msg operatorDoneMsg) (tea.Model, tea.Cmd) {
	m.running = ""
	m.refreshCandidates()
	m.focus = 0

	switch {
	case msg.err != nil:
		Logger.Error("Operator failed", "id", msg.id, "error", msg.err)
		m.openModal(msg.err.Error(), modal.TypeError)
	case m.manager.HasError():
		m.openModal(m.manager.Error(), modal.TypeError)
	case msg.id == addon.UpdateOperatorID && m.manager.HasInfo():
		m.openModal(m.manager.Info(), modal.TypeInfo)
	}
	return m, nil
}

func (m *model) openModal(text string, t modal.Type) {
	md := modal.New(text, t)
	md, _ = md.Update(tea.WindowSizeMsg{Width: m.width, Height: max(m.height, 12)})
	m.modal = &md
}

// start runs an operator unless another one is still in flight.
func (m model) start(id string, props addon.Properties) (tea.Model, tea.Cmd) {
	if m.running != "" {
		return m, nil
	}
	m.running = id
	return m, tea.Batch(m.spinner.Tick, m.runOperator(id, props))
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab", "shift+tab":
		m.setActiveTab((m.activeTabIndex + 1) % len(m.tabs))
		return m, nil
	}

	if m.activeTabIndex == tabCandidates {
		if msg.String() == "enter" {
			if row := m.candidates.SelectedRow(); len(row) > 0 {
				m.prefs.BranchToUpdate = row[0]
				m.targetInput.SetValue(row[0])
				m.setActiveTab(tabPanel)
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.candidates, cmd = m.candidates.Update(msg)
		return m, cmd
	}

	panel := m.panel()
	buttons := panel.Buttons()
	switch msg.String() {
	case "c", "r":
		return m.start(addon.CheckUpdateOperatorID, nil)
	case "u":
		if panel.Update != nil && panel.Update.Enabled {
			return m.start(panel.Update.Operator, panel.Update.Properties)
		}
	case "e", "/":
		if panel.Manual != nil {
			cmd := m.targetInput.Focus()
			return m, cmd
		}
	case "up", "k":
		if m.focus > 0 {
			m.focus--
		}
	case "down", "j":
		if m.focus < len(buttons)-1 {
			m.focus++
		}
	case "enter":
		if m.focus < len(buttons) && buttons[m.focus].Enabled {
			b := buttons[m.focus]
			return m.start(b.Operator, b.Properties)
		}
	}
	return m, nil
}

func (m model) handleTargetKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.targetInput.SetValue(m.prefs.BranchToUpdate)
		m.targetInput.Blur()
		return m, nil
	case "enter":
		prefs, err := addon.NewPreferences(m.targetInput.Value())
		if err != nil {
			m.openModal(err.Error(), modal.TypeError)
			return m, nil
		}
		m.prefs = prefs
		m.targetInput.SetValue(prefs.BranchToUpdate)
		m.targetInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.targetInput, cmd = m.targetInput.Update(msg)
	return m, cmd
}
