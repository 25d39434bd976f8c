package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/leech-actions/internal/config"
	"github.com/Veraticus/leech-actions/internal/model"
)

type fakeStore struct {
	err     error
	cfg     model.Configuration
	updates int
}

func (s *fakeStore) Current() model.Configuration {
	return s.cfg.Clone()
}

func (s *fakeStore) Update(_ context.Context, fn func(*model.Configuration) error) error {
	if s.err != nil {
		return s.err
	}
	cfg := s.cfg.Clone()
	if err := fn(&cfg); err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	s.cfg = cfg
	s.updates++
	return nil
}

func threeRules() []model.Rule {
	return []model.Rule{
		model.NewRule("A", model.AnyPattern, model.Suspend{}),
		model.NewRule("B", model.AnyPattern, model.ResetLapses{}),
		model.NewRule("C", model.AnyPattern, model.Delete{}),
	}
}

func newTestModel(rules ...model.Rule) (Model, *fakeStore) {
	store := &fakeStore{cfg: config.Default().WithRules(rules)}
	return newModel(store, defaultConfig()), store
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m, cmd
}

func decks(rules []model.Rule) []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.Deck)
	}
	return out
}

func TestModel_MoveRules(t *testing.T) {
	m, _ := newTestModel(threeRules()...)

	m, _ = send(t, m, runes("J"))
	assert.Equal(t, []string{"B", "A", "C"}, decks(m.Rules()))
	assert.Equal(t, 1, m.cursor)
	assert.True(t, m.Dirty())

	m, _ = send(t, m, runes("J"), runes("J"))
	assert.Equal(t, []string{"B", "C", "A"}, decks(m.Rules()), "moving the last rule down is a no-op")
	assert.Equal(t, 2, m.cursor)

	m, _ = send(t, m, runes("K"))
	assert.Equal(t, []string{"B", "A", "C"}, decks(m.Rules()))
	assert.Equal(t, 1, m.cursor)
}

func TestModel_Navigation(t *testing.T) {
	m, _ := newTestModel(threeRules()...)

	m, _ = send(t, m, runes("k"))
	assert.Equal(t, 0, m.cursor)

	m, _ = send(t, m, runes("j"), tea.KeyMsg{Type: tea.KeyDown}, runes("j"))
	assert.Equal(t, 2, m.cursor)
	assert.False(t, m.Dirty())
}

func TestModel_RemoveRule(t *testing.T) {
	m, _ := newTestModel(threeRules()...)

	m, _ = send(t, m, runes("j"), runes("d"))
	assert.Equal(t, []string{"A", "C"}, decks(m.Rules()))
	assert.Equal(t, 1, m.cursor)

	m, _ = send(t, m, runes("d"))
	assert.Equal(t, []string{"A"}, decks(m.Rules()))
	assert.Equal(t, 0, m.cursor)

	m, _ = send(t, m, runes("d"), runes("d"))
	assert.Empty(t, m.Rules())
	require.Error(t, m.lastError, "removing from an empty list reports an error")
	assert.Contains(t, m.View(), "No rules yet")
}

func TestModel_AddRuleThroughForm(t *testing.T) {
	m, _ := newTestModel(threeRules()...)

	m, _ = send(t, m, runes("a"))
	require.Equal(t, StateEditing, m.state)
	assert.Contains(t, m.View(), "Add rule")

	m, _ = send(t, m,
		runes("Kanji::*"),
		tea.KeyMsg{Type: tea.KeyTab},
		tea.KeyMsg{Type: tea.KeyTab},
		runes("reset_lapses,delay:5"),
		tea.KeyMsg{Type: tea.KeyEnter},
	)

	require.Equal(t, StateList, m.state)
	require.NoError(t, m.lastError)
	rules := m.Rules()
	require.Len(t, rules, 4)
	assert.Equal(t, model.NewRule("Kanji::*", model.AnyPattern, model.ResetLapses{}, model.Delay{Days: 5}), rules[3])
	assert.Equal(t, 3, m.cursor)
	assert.True(t, m.Dirty())
}

func TestModel_EditRule(t *testing.T) {
	m, _ := newTestModel(threeRules()...)

	m, _ = send(t, m, runes("j"), runes("e"))
	require.Equal(t, StateEditing, m.state)
	assert.Equal(t, "B", m.inputs[fieldDeck].Value())
	assert.Equal(t, "reset_lapses", m.inputs[fieldActions].Value())
	assert.Contains(t, m.View(), "Edit rule 2")

	m.inputs[fieldActions].SetValue("suspend, remove_tag")
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	require.Equal(t, StateList, m.state)
	assert.Equal(t, model.NewRule("B", model.AnyPattern, model.Suspend{}, model.RemoveLeechTag{}), m.Rules()[1])
	assert.Equal(t, 1, m.cursor)
}

func TestModel_FormRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		actions string
	}{
		{name: "unknown action", actions: "explode"},
		{name: "delay without days", actions: "delay"},
		{name: "delay out of range", actions: "delay:0"},
		{name: "delete not last", actions: "delete,suspend"},
		{name: "empty", actions: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestModel(threeRules()...)
			m, _ = send(t, m, runes("a"))
			m.inputs[fieldActions].SetValue(tt.actions)

			m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
			assert.Equal(t, StateEditing, m.state)
			require.Error(t, m.lastError)
			assert.Contains(t, m.View(), "Error:")
			assert.Len(t, m.Rules(), 3)
			assert.False(t, m.Dirty())
		})
	}
}

func TestModel_CancelForm(t *testing.T) {
	m, _ := newTestModel(threeRules()...)

	m, _ = send(t, m, runes("a"), runes("X"), tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, StateList, m.state)
	assert.Len(t, m.Rules(), 3)
	assert.False(t, m.Dirty())
}

func TestModel_Save(t *testing.T) {
	m, store := newTestModel(threeRules()...)

	m, _ = send(t, m, runes("J"))
	m, cmd := send(t, m, runes("s"))
	require.NotNil(t, cmd)
	assert.True(t, m.saving)

	m, _ = send(t, m, cmd())
	assert.False(t, m.Dirty())
	assert.False(t, m.saving)
	assert.Equal(t, 1, store.updates)
	assert.Equal(t, []string{"B", "A", "C"}, decks(store.cfg.Rules))
	assert.Contains(t, m.View(), "Saved 3 rules")
}

func TestModel_SaveFailureKeepsEdits(t *testing.T) {
	m, store := newTestModel(threeRules()...)
	store.err = assert.AnError

	m, _ = send(t, m, runes("d"))
	m, cmd := send(t, m, runes("s"))
	m, _ = send(t, m, cmd())

	assert.ErrorIs(t, m.lastError, assert.AnError)
	assert.True(t, m.Dirty())
	assert.Len(t, m.Rules(), 2)
	assert.Len(t, store.cfg.Rules, 3)
}

func TestModel_Quit(t *testing.T) {
	t.Run("clean quits immediately", func(t *testing.T) {
		m, _ := newTestModel(threeRules()...)
		m, cmd := send(t, m, runes("q"))
		require.NotNil(t, cmd)
		assert.Equal(t, tea.QuitMsg{}, cmd())
		assert.Empty(t, m.View())
	})

	t.Run("dirty asks first", func(t *testing.T) {
		m, _ := newTestModel(threeRules()...)
		m, _ = send(t, m, runes("d"), runes("q"))
		require.Equal(t, StateConfirmQuit, m.state)
		assert.Contains(t, m.View(), "Discard unsaved changes?")

		m, _ = send(t, m, runes("n"))
		assert.Equal(t, StateList, m.state)

		_, cmd := send(t, m, runes("q"), runes("y"))
		require.NotNil(t, cmd)
		assert.Equal(t, tea.QuitMsg{}, cmd())
	})

	t.Run("ctrl+c while editing", func(t *testing.T) {
		m, _ := newTestModel(threeRules()...)
		_, cmd := send(t, m, runes("a"), tea.KeyMsg{Type: tea.KeyCtrlC})
		require.NotNil(t, cmd)
		assert.Equal(t, tea.QuitMsg{}, cmd())
	})
}

func TestModel_ViewListsRules(t *testing.T) {
	m, _ := newTestModel(threeRules()...)
	view := m.View()

	assert.Contains(t, view, "Leech rules")
	assert.Contains(t, view, `Cards tagged "leech"`)
	assert.Contains(t, view, "reset_lapses")
	assert.Contains(t, view, "> ")
}

func TestRun_RequiresStore(t *testing.T) {
	assert.Error(t, Run(context.Background(), nil))
}
