package tui

import (
	"context"
	"slices"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/leech-actions/internal/model"
)

// saveRules persists the edited rule list through the store.
// Other configuration keys keep whatever the store currently holds.
func (m Model) saveRules() tea.Cmd {
	store := m.store
	rules := slices.Clone(m.rules)

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := store.Update(ctx, func(cfg *model.Configuration) error {
			cfg.Rules = rules
			return nil
		})
		if err != nil {
			return savedMsg{err: err}
		}
		return savedMsg{config: store.Current()}
	}
}
