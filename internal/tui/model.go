// Package tui is the interactive rule editor.
package tui

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/leech-actions/internal/config"
	"github.com/Veraticus/leech-actions/internal/model"
	"github.com/Veraticus/leech-actions/internal/tui/themes"
)

// State represents the current state of the TUI.
type State int

const (
	StateList State = iota
	StateEditing
	StateConfirmQuit
)

// Form fields.
const (
	fieldDeck = iota
	fieldNoteType
	fieldActions
	fieldCount
)

// Model holds the editor state. Edits stay local until saved.
type Model struct {
	store     RuleStore
	lastError error
	theme     themes.Theme
	help      help.Model
	status    string
	keymap    KeyMap
	base      model.Configuration
	rules     []model.Rule
	inputs    []textinput.Model
	width     int
	height    int
	cursor    int
	focus     int
	editIndex int
	state     State
	dirty     bool
	saving    bool
	quitting  bool
}

func newModel(store RuleStore, cfg Config) Model {
	base := store.Current()
	return Model{
		store:     store,
		theme:     cfg.Theme,
		help:      help.New(),
		keymap:    DefaultKeyMap(),
		base:      base,
		rules:     slices.Clone(base.Rules),
		inputs:    newInputs(),
		width:     cfg.Width,
		height:    cfg.Height,
		editIndex: -1,
	}
}

func newInputs() []textinput.Model {
	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		in := textinput.New()
		in.CharLimit = 200
		inputs[i] = in
	}
	inputs[fieldDeck].Placeholder = "Any, Kanji, Kanji::*"
	inputs[fieldNoteType].Placeholder = "Any, Basic, Cloze*"
	inputs[fieldActions].Placeholder = "reset_lapses,delay:7,remove_tag"
	return inputs
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case savedMsg:
		m.saving = false
		if msg.err != nil {
			m.lastError = msg.err
			m.status = ""
			return m, nil
		}
		m.base = msg.config
		m.rules = slices.Clone(msg.config.Rules)
		m.dirty = false
		m.lastError = nil
		m.status = fmt.Sprintf("Saved %d rules", len(m.rules))
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keymap.ForceQuit) {
			m.quitting = true
			return m, tea.Quit
		}

		switch m.state {
		case StateList:
			return m.updateList(msg)
		case StateEditing:
			return m.updateForm(msg)
		case StateConfirmQuit:
			return m.updateConfirmQuit(msg)
		}
	}

	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""

	switch {
	case key.Matches(msg, m.keymap.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keymap.Down):
		if m.cursor < len(m.rules)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keymap.Add):
		return m.openForm(-1)

	case key.Matches(msg, m.keymap.Edit):
		if len(m.rules) > 0 {
			return m.openForm(m.cursor)
		}

	case key.Matches(msg, m.keymap.Delete):
		m.applyEdit(config.RemoveRule(m.rules, m.cursor))
		if m.cursor >= len(m.rules) && m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keymap.MoveUp):
		if m.applyEdit(config.MoveRuleUp(m.rules, m.cursor)) && m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keymap.MoveDown):
		if m.applyEdit(config.MoveRuleDown(m.rules, m.cursor)) && m.cursor < len(m.rules)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keymap.Save):
		if m.saving {
			return m, nil
		}
		m.saving = true
		return m, m.saveRules()

	case key.Matches(msg, m.keymap.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keymap.Quit):
		if m.dirty {
			m.state = StateConfirmQuit
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

// applyEdit installs the result of a config editor operation.
func (m *Model) applyEdit(rules []model.Rule, err error) bool {
	if err != nil {
		m.lastError = err
		return false
	}
	m.lastError = nil
	m.rules = rules
	m.dirty = true
	return true
}

func (m Model) openForm(index int) (tea.Model, tea.Cmd) {
	m.inputs = newInputs()
	if index >= 0 {
		r := m.rules[index]
		m.inputs[fieldDeck].SetValue(r.Deck)
		m.inputs[fieldNoteType].SetValue(r.NoteType)
		m.inputs[fieldActions].SetValue(config.FormatActions(r.Actions))
	}
	m.editIndex = index
	m.focus = fieldDeck
	m.lastError = nil
	m.state = StateEditing
	return m, m.inputs[fieldDeck].Focus()
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Cancel):
		m.state = StateList
		m.lastError = nil
		return m, nil

	case key.Matches(msg, m.keymap.Submit):
		return m.submitForm()

	case key.Matches(msg, m.keymap.NextField):
		return m, m.setFocus((m.focus + 1) % fieldCount)

	case key.Matches(msg, m.keymap.PrevField):
		return m, m.setFocus((m.focus + fieldCount - 1) % fieldCount)
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) setFocus(field int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = field
	return m.inputs[field].Focus()
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	actions, err := config.ParseActions(m.inputs[fieldActions].Value())
	if err != nil {
		m.lastError = err
		return m, nil
	}
	rule := model.NewRule(m.inputs[fieldDeck].Value(), m.inputs[fieldNoteType].Value(), actions...)

	var rules []model.Rule
	if m.editIndex < 0 {
		rules = config.AddRule(m.rules, rule)
	} else if rules, err = config.ReplaceRule(m.rules, m.editIndex, rule); err != nil {
		m.lastError = err
		return m, nil
	}

	if err := config.Validate(m.base.WithRules(rules)); err != nil {
		m.lastError = err
		return m, nil
	}

	m.applyEdit(rules, nil)
	if m.editIndex < 0 {
		m.cursor = len(rules) - 1
	} else {
		m.cursor = m.editIndex
	}
	m.state = StateList
	return m, nil
}

func (m Model) updateConfirmQuit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.quitting = true
		return m, tea.Quit
	case "n", "N", "esc":
		m.state = StateList
	}
	return m, nil
}

// Dirty reports whether there are unsaved edits.
func (m Model) Dirty() bool {
	return m.dirty
}

// Rules returns the edited rule list.
func (m Model) Rules() []model.Rule {
	return slices.Clone(m.rules)
}
