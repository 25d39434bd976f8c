package tui

import (
	"context"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
)

// Run opens the rule editor on store and blocks until the user quits.
func Run(ctx context.Context, store RuleStore, opts ...Option) error {
	if store == nil {
		return fmt.Errorf("rule store is required")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	program := tea.NewProgram(newModel(store, cfg), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := program.Run()
	if err != nil {
		return fmt.Errorf("rule editor failed: %w", err)
	}

	if m, ok := final.(Model); ok && m.Dirty() {
		slog.Info("Rule editor closed without saving", "rules", len(m.Rules()))
	}
	return nil
}
