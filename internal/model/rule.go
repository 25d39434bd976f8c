package model

import (
	"strings"
)

// AnyPattern is the sentinel pattern that matches every deck or note type.
const AnyPattern = "Any"

// DeckSeparator separates parent and child deck names.
const DeckSeparator = "::"

// Rule maps a deck pattern and note-type pattern to the actions applied to matching leeches.
// A rule's position in the configuration decides its priority.
type Rule struct {
	Deck     string
	NoteType string
	Actions  []Action
}

// NewRule builds a rule with normalized patterns.
func NewRule(deck, noteType string, actions ...Action) Rule {
	return Rule{
		Deck:     NormalizePattern(deck),
		NoteType: NormalizePattern(noteType),
		Actions:  append([]Action(nil), actions...),
	}
}

// NormalizePattern maps empty patterns to AnyPattern.
func NormalizePattern(p string) string {
	if strings.TrimSpace(p) == "" {
		return AnyPattern
	}
	return p
}

// Normalized returns a copy of the rule with normalized patterns and its own action slice.
func (r Rule) Normalized() Rule {
	return NewRule(r.Deck, r.NoteType, r.Actions...)
}

// HasAction reports whether the rule contains an action of the given kind.
func (r Rule) HasAction(kind ActionKind) bool {
	for _, a := range r.Actions {
		if a.Kind() == kind {
			return true
		}
	}
	return false
}

// ActionSummary renders the rule's actions as a comma separated list.
func (r Rule) ActionSummary() string {
	parts := make([]string, 0, len(r.Actions))
	for _, a := range r.Actions {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, ",")
}

// RawRule is the persisted form of a Rule.
type RawRule struct {
	Deck     string      `json:"deck" yaml:"deck"`
	NoteType string      `json:"note_type" yaml:"note_type"`
	Actions  []RawAction `json:"actions" yaml:"actions"`
}
