package config

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/Veraticus/leech-actions/internal/model"
	"github.com/Veraticus/leech-actions/internal/pattern"
)

// MaxDelayDays bounds Delay actions to a sane horizon.
const MaxDelayDays = 3650

// Validate checks every documented invariant of a configuration.
func Validate(cfg model.Configuration) error {
	if cfg.Version != CurrentVersion {
		return invalid(keyVersion, fmt.Sprintf("expected %d, got %d", CurrentVersion, cfg.Version))
	}
	if err := validateTag(cfg.LeechTag); err != nil {
		return err
	}
	for i, rule := range cfg.Rules {
		if err := validateRule(i, rule); err != nil {
			return err
		}
	}
	return nil
}

func validateTag(tag string) error {
	if tag == "" {
		return invalid(keyLeechTag, "must not be empty")
	}
	if strings.IndexFunc(tag, unicode.IsSpace) >= 0 {
		return invalid(keyLeechTag, "must not contain whitespace")
	}
	return nil
}

func validateRule(i int, rule model.Rule) error {
	if rule.Deck == "" {
		return invalidRule(i, "deck", "pattern must not be empty")
	}
	if rule.NoteType == "" {
		return invalidRule(i, "note_type", "pattern must not be empty")
	}
	if _, err := pattern.CompileDeckPattern(rule.Deck); err != nil {
		return invalidRule(i, "deck", err.Error())
	}
	if _, err := pattern.CompileNoteTypePattern(rule.NoteType); err != nil {
		return invalidRule(i, "note_type", err.Error())
	}
	if len(rule.Actions) == 0 {
		return invalidRule(i, "actions", "at least one action is required")
	}

	seen := make(map[model.ActionKind]bool, len(rule.Actions))
	for j, action := range rule.Actions {
		if action == nil {
			return invalidRule(i, "actions", fmt.Sprintf("action %d is empty", j+1))
		}
		kind := action.Kind()
		if seen[kind] {
			return invalidRule(i, "actions", fmt.Sprintf("%s listed twice", kind))
		}
		seen[kind] = true

		if d, ok := action.(model.Delay); ok && (d.Days <= 0 || d.Days > MaxDelayDays) {
			return invalidRule(i, "actions", fmt.Sprintf("delay days must be between 1 and %d, got %d", MaxDelayDays, d.Days))
		}
		if kind == model.ActionDelete && j != len(rule.Actions)-1 {
			return invalidRule(i, "actions", "delete must be the last action")
		}
	}
	return nil
}
