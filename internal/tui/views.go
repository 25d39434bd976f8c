package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var fieldLabels = [fieldCount]string{"Deck", "Note type", "Actions"}

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var body string
	switch m.state {
	case StateEditing:
		body = m.renderForm()
	case StateConfirmQuit:
		body = m.renderConfirmQuit()
	default:
		body = m.renderList()
	}

	return lipgloss.JoinVertical(lipgloss.Left, body, m.renderStatus(), m.renderHelp())
}

func (m Model) renderList() string {
	title := m.theme.Title.Render("Leech rules")
	subtitle := m.theme.Subtitle.Render(fmt.Sprintf("Cards tagged %q are matched top to bottom; the first matching rule wins.", m.base.LeechTag))

	if len(m.rules) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "",
			m.theme.Normal.Render("No rules yet. Press a to add one."))
	}

	lines := make([]string, 0, len(m.rules))
	for i, r := range m.rules {
		line := fmt.Sprintf("%2d. %-20s %-16s %s", i+1, r.Deck, r.NoteType, r.ActionSummary())
		if i == m.cursor {
			lines = append(lines, m.theme.Selected.Render("> "+line))
			continue
		}
		lines = append(lines, m.theme.Normal.Render("  "+line))
	}

	header := m.theme.Bold.Render(fmt.Sprintf("    %-20s %-16s %s", "DECK", "NOTE TYPE", "ACTIONS"))
	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "", header, strings.Join(lines, "\n"))
}

func (m Model) renderForm() string {
	title := "Add rule"
	if m.editIndex >= 0 {
		title = fmt.Sprintf("Edit rule %d", m.editIndex+1)
	}

	rows := []string{m.theme.Title.Render(title)}
	for i, in := range m.inputs {
		label := fieldLabels[i]
		if i == m.focus {
			label = lipgloss.NewStyle().Foreground(m.theme.Primary).Bold(true).Render(label)
		}
		rows = append(rows, label, in.View(), "")
	}
	rows = append(rows,
		m.theme.Subtitle.Render("Patterns: Any, an exact name (decks include sub-decks), or a glob with * and ?"),
		m.theme.Subtitle.Render("Actions: reset, delay:N, delete, reset_lapses, remove_tag, suspend"),
	)

	return m.theme.BorderedBox.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m Model) renderConfirmQuit() string {
	return m.theme.StatusWarning.Render("Discard unsaved changes? (y/n)")
}

func (m Model) renderStatus() string {
	switch {
	case m.lastError != nil:
		return m.theme.StatusError.Render("Error: " + m.lastError.Error())
	case m.saving:
		return m.theme.Subtitle.Render("Saving...")
	case m.status != "":
		return m.theme.StatusSuccess.Render(m.status)
	case m.dirty:
		return m.theme.StatusWarning.Render("Unsaved changes")
	}
	return ""
}

func (m Model) renderHelp() string {
	if m.state == StateEditing {
		return m.help.View(formKeys{m.keymap})
	}
	return m.help.View(m.keymap)
}
