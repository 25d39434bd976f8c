package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/leech-actions/internal/model"
)

// Document keys.
const (
	keyVersion               = "version"
	keyRules                 = "rules"
	keyLeechTag              = "leech_tag"
	keyAutoRunEnabled        = "auto_run_enabled"
	keyAutoRunOnTag          = "auto_run_on_tag"
	keyAutoRunAfterSync      = "auto_run_after_sync"
	keyShowAutoNotifications = "show_auto_notifications"
	keyLegacySchemaVersion   = "schema_version"
)

// legacyDefaultDelayDays is the delay used by legacy rules that omitted delay_days.
const legacyDefaultDelayDays = 7

// Migration upgrades a document from Version-1 to Version.
// Up receives a private copy and must be total over every document valid at Version-1.
type Migration struct {
	Up          func(Document) Document
	Description string
	Version     int
}

// CurrentVersion is the document version this release reads and writes.
var CurrentVersion = len(migrations)

var migrations = []Migration{
	{
		Version:     1,
		Description: "Introduce version and base keys",
		Up: func(doc Document) Document {
			if _, ok := doc[keyRules].([]any); !ok {
				doc[keyRules] = []any{}
			}
			doc.setDefault(keyAutoRunEnabled, true)
			// The legacy counter is superseded by "version".
			delete(doc, keyLegacySchemaVersion)
			return doc
		},
	},
	{
		Version:     2,
		Description: "Add configurable leech tag",
		Up: func(doc Document) Document {
			doc.setDefault(keyLeechTag, model.DefaultLeechTag)
			return doc
		},
	},
	{
		Version:     3,
		Description: "Rename auto_run_enabled and add notification toggle",
		Up: func(doc Document) Document {
			if v, ok := doc[keyAutoRunEnabled]; ok {
				doc.setDefault(keyAutoRunOnTag, v)
				delete(doc, keyAutoRunEnabled)
			}
			doc.setDefault(keyAutoRunOnTag, true)
			doc.setDefault(keyShowAutoNotifications, true)
			return doc
		},
	},
	{
		Version:     4,
		Description: "Add post-sync automatic runs",
		Up: func(doc Document) Document {
			doc.setDefault(keyAutoRunAfterSync, false)
			return doc
		},
	},
	{
		Version:     5,
		Description: "Convert single-action rules to action lists",
		Up: func(doc Document) Document {
			legacy, _ := doc[keyRules].([]any)
			rules := make([]any, 0, len(legacy))
			for _, entry := range legacy {
				raw, ok := entry.(map[string]any)
				if !ok {
					continue
				}
				rules = append(rules, upgradeLegacyRule(raw))
			}
			doc[keyRules] = rules
			return doc
		},
	},
}

// Migrate applies every migration newer than from, strictly in order, one step at a time.
// The input document is not modified.
func Migrate(doc Document, from int) (Document, error) {
	if from > CurrentVersion {
		return nil, &ConfigVersionError{Stored: from, Supported: CurrentVersion}
	}
	if from < 0 {
		return nil, invalid(keyVersion, fmt.Sprintf("negative version %d", from))
	}

	out := doc.Clone()
	for _, migration := range migrations {
		if migration.Version <= from {
			continue
		}
		out = migration.Up(out.Clone())
		out[keyVersion] = migration.Version

		slog.Debug("Applied configuration migration",
			"version", migration.Version,
			"description", migration.Description)
	}
	return out, nil
}

// legacyActionLabels maps display labels of the legacy editor to action kinds.
var legacyActionLabels = map[string]model.ActionKind{
	"reset progress":    model.ActionResetProgress,
	"delay card":        model.ActionDelay,
	"delete card":       model.ActionDelete,
	"reset lapse count": model.ActionResetLapses,
	"remove leech tag":  model.ActionRemoveTag,
}

func upgradeLegacyRule(raw map[string]any) map[string]any {
	deck := legacyPattern(raw["deck"])
	noteType := legacyPattern(raw["note_type"])
	kind := legacyActionKind(raw["action"])

	var actions []any
	switch kind {
	case model.ActionDelay:
		days := legacyDefaultDelayDays
		if n, ok := asInt(raw["delay_days"]); ok {
			days = max(1, n)
		}
		actions = []any{
			map[string]any{"kind": string(model.ActionDelay), "days": days},
		}
	default:
		actions = []any{map[string]any{"kind": string(kind)}}
	}

	// Legacy processing always dropped the leech tag after acting.
	if kind != model.ActionDelete && kind != model.ActionRemoveTag {
		actions = append(actions, map[string]any{"kind": string(model.ActionRemoveTag)})
	}

	return map[string]any{
		"deck":      deck,
		"note_type": noteType,
		"actions":   actions,
	}
}

func legacyPattern(v any) string {
	p := strings.TrimSpace(asString(v, ""))
	if p == "" || p == "*" {
		return model.AnyPattern
	}
	return p
}

func legacyActionKind(v any) model.ActionKind {
	label := strings.ToLower(strings.TrimSpace(asString(v, string(model.ActionResetProgress))))
	if kind, ok := legacyActionLabels[label]; ok {
		return kind
	}
	switch kind := model.ActionKind(label); kind {
	case model.ActionResetProgress, model.ActionDelay, model.ActionDelete,
		model.ActionResetLapses, model.ActionRemoveTag:
		return kind
	}
	return model.ActionResetProgress
}
