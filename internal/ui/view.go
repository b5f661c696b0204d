package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mistweaverco/addonup/internal/addon"
)

func (m model) View() string {
	if m.modal != nil {
		return m.modal.View()
	}

	snap := m.manager.Snapshot()
	header := titleStyle.Render(fmt.Sprintf("%s/%s", snap.Owner, snap.Repository)) +
		statusStyle.Render("  "+snap.StateName)

	var content string
	switch m.activeTabIndex {
	case tabCandidates:
		if len(snap.Candidates) == 0 {
			content = disabledStyle.Render("No candidates yet. Run a check first.")
		} else {
			content = m.candidates.View()
		}
	default:
		content = m.panelView(m.panel())
	}

	return docStyle.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		RenderTabs(m.tabs, m.width-4),
		content,
		"",
		helpStyle.Render(m.help()),
	))
}

func (m model) renderButton(b addon.Button, focused bool) string {
	label := b.Text
	if b.Icon != addon.IconNone {
		label = Glyph(b.Icon) + " " + label
	}
	switch {
	case !b.Enabled:
		return disabledStyle.Render("  " + label)
	case focused:
		return focusedStyle.Render("> " + label)
	}
	return buttonStyle.Render("  " + label)
}

func (m model) panelView(p addon.Panel) string {
	var lines []string
	idx := 0
	if p.Check != nil {
		lines = append(lines, m.renderButton(*p.Check, m.focus == idx))
		idx++
	}
	if p.Update != nil {
		lines = append(lines, m.renderButton(*p.Update, m.focus == idx))
		idx++
	}
	if p.Manual != nil {
		lines = append(lines, "", p.Manual.Label)
		row := lipgloss.JoinHorizontal(lipgloss.Center,
			"  "+p.Manual.Target.Label+": ",
			m.targetInput.View(),
			"  ",
			m.renderButton(p.Manual.Button, m.focus == idx),
		)
		lines = append(lines, row)
	}
	if m.running != "" {
		text := "Checking for updates..."
		if m.running == addon.UpdateOperatorID {
			text = "Updating..."
		}
		lines = append(lines, "", m.spinner.View()+" "+text)
	}
	if p.Message != nil {
		style := infoBoxStyle
		if p.Message.IsError {
			style = errorBoxStyle
		}
		lines = append(lines, "", style.Render(Glyph(p.Message.Icon)+" "+p.Message.Text))
	}
	return strings.Join(lines, "\n")
}

func (m model) help() string {
	if m.targetInput.Focused() {
		return "enter save • esc cancel"
	}
	if m.activeTabIndex == tabCandidates {
		return "↑/↓ select • enter use as target • tab switch • q quit"
	}
	return "c check • u update latest • e edit target • ↑/↓ focus • enter run • tab switch • q quit"
}
