package config

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Veraticus/leech-actions/internal/model"
)

// document is the current-version shape. Pointer fields let decoding tell a
// missing key from a zero value: defaults belong to migrations, never to reads.
type document struct {
	Version               *int             `json:"version"`
	LeechTag              *string          `json:"leech_tag"`
	AutoRunOnTag          *bool            `json:"auto_run_on_tag"`
	AutoRunAfterSync      *bool            `json:"auto_run_after_sync"`
	ShowAutoNotifications *bool            `json:"show_auto_notifications"`
	Rules                 *[]model.RawRule `json:"rules"`
}

// Load reads a persisted configuration of any supported version and returns
// it migrated, normalized, and validated.
func Load(raw []byte) (model.Configuration, error) {
	cfg, _, err := Decode(raw)
	return cfg, err
}

// Decode is Load that also reports the version found in storage, so callers
// can persist the migrated form when it was older.
func Decode(raw []byte) (model.Configuration, int, error) {
	doc, err := ParseDocument(raw)
	if err != nil {
		return model.Configuration{}, 0, err
	}

	stored, err := doc.Version()
	if err != nil {
		return model.Configuration{}, 0, err
	}

	migrated, err := Migrate(doc, stored)
	if err != nil {
		return model.Configuration{}, stored, err
	}

	cfg, err := fromDocument(migrated)
	if err != nil {
		return model.Configuration{}, stored, err
	}

	if err := Validate(cfg); err != nil {
		return model.Configuration{}, stored, err
	}
	return cfg, stored, nil
}

// Save validates cfg and serializes it as an indented current-version document.
func Save(cfg model.Configuration) ([]byte, error) {
	cfg = Normalize(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	rules := make([]model.RawRule, 0, len(cfg.Rules))
	for _, r := range cfg.Rules {
		raw := model.RawRule{Deck: r.Deck, NoteType: r.NoteType}
		for _, a := range r.Actions {
			raw.Actions = append(raw.Actions, model.ToRaw(a))
		}
		rules = append(rules, raw)
	}

	version := CurrentVersion
	out := document{
		Version:               &version,
		LeechTag:              &cfg.LeechTag,
		AutoRunOnTag:          &cfg.AutoRunOnTag,
		AutoRunAfterSync:      &cfg.AutoRunAfterSync,
		ShowAutoNotifications: &cfg.ShowAutoNotifications,
		Rules:                 &rules,
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}
	return append(data, '\n'), nil
}

// Default is the configuration of a fresh install.
func Default() model.Configuration {
	cfg, err := Load(nil)
	if err != nil {
		panic(fmt.Sprintf("default configuration does not load: %v", err))
	}
	return cfg
}

// Normalize stamps the current version and normalizes rule patterns.
func Normalize(cfg model.Configuration) model.Configuration {
	out := cfg.Clone()
	out.Version = CurrentVersion
	return out
}

func fromDocument(doc Document) (model.Configuration, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return model.Configuration{}, invalid("document", err.Error())
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var d document
	if err := dec.Decode(&d); err != nil {
		return model.Configuration{}, invalid("document", err.Error())
	}

	switch {
	case d.Version == nil:
		return model.Configuration{}, invalid(keyVersion, "missing")
	case d.LeechTag == nil:
		return model.Configuration{}, invalid(keyLeechTag, "missing")
	case d.AutoRunOnTag == nil:
		return model.Configuration{}, invalid(keyAutoRunOnTag, "missing")
	case d.AutoRunAfterSync == nil:
		return model.Configuration{}, invalid(keyAutoRunAfterSync, "missing")
	case d.ShowAutoNotifications == nil:
		return model.Configuration{}, invalid(keyShowAutoNotifications, "missing")
	case d.Rules == nil:
		return model.Configuration{}, invalid(keyRules, "missing")
	}

	var rules []model.Rule
	for i, raw := range *d.Rules {
		actions := make([]model.Action, 0, len(raw.Actions))
		for _, ra := range raw.Actions {
			a, err := model.FromRaw(ra)
			if err != nil {
				return model.Configuration{}, invalidRule(i, "actions", err.Error())
			}
			actions = append(actions, a)
		}
		rules = append(rules, model.NewRule(raw.Deck, raw.NoteType, actions...))
	}

	return model.Configuration{
		Version:               *d.Version,
		LeechTag:              *d.LeechTag,
		AutoRunOnTag:          *d.AutoRunOnTag,
		AutoRunAfterSync:      *d.AutoRunAfterSync,
		ShowAutoNotifications: *d.ShowAutoNotifications,
		Rules:                 rules,
	}, nil
}
