package model

import (
	"fmt"
)

// ActionKind identifies an action variant in persisted configuration and reports.
type ActionKind string

// Action kinds, in the order they are listed to users.
const (
	ActionResetProgress ActionKind = "reset"
	ActionDelay         ActionKind = "delay"
	ActionDelete        ActionKind = "delete"
	ActionResetLapses   ActionKind = "reset_lapses"
	ActionRemoveTag     ActionKind = "remove_tag"
	ActionSuspend       ActionKind = "suspend"
)

// ActionKinds lists every action kind.
var ActionKinds = []ActionKind{
	ActionResetProgress,
	ActionDelay,
	ActionDelete,
	ActionResetLapses,
	ActionRemoveTag,
	ActionSuspend,
}

// Label returns the human readable name of the action kind.
func (k ActionKind) Label() string {
	switch k {
	case ActionResetProgress:
		return "Reset progress"
	case ActionDelay:
		return "Delay card"
	case ActionDelete:
		return "Delete card"
	case ActionResetLapses:
		return "Reset lapse count"
	case ActionRemoveTag:
		return "Remove leech tag"
	case ActionSuspend:
		return "Suspend card"
	}
	return string(k)
}

// Action is one mutation a rule applies to a card.
// The set of variants is closed: only the types in this file implement it.
type Action interface {
	Kind() ActionKind
	String() string
	// Accept dispatches to the visitor method for the concrete variant.
	Accept(v ActionVisitor) error
}

// ActionVisitor has one method per action variant. Implementations are
// checked by the compiler to cover every variant.
type ActionVisitor interface {
	VisitDelete(Delete) error
	VisitDelay(Delay) error
	VisitResetProgress(ResetProgress) error
	VisitResetLapses(ResetLapses) error
	VisitRemoveLeechTag(RemoveLeechTag) error
	VisitSuspend(Suspend) error
}

// Delete removes the card permanently.
type Delete struct{}

// Delay pushes the card's due date to Days days from today.
type Delay struct {
	Days int
}

// ResetProgress returns the card to the new queue.
type ResetProgress struct{}

// ResetLapses zeroes the lapse counter.
type ResetLapses struct{}

// RemoveLeechTag strips the configured leech tag from the card's note.
type RemoveLeechTag struct{}

// Suspend removes the card from the review queue.
type Suspend struct{}

func (Delete) Kind() ActionKind         { return ActionDelete }
func (Delay) Kind() ActionKind          { return ActionDelay }
func (ResetProgress) Kind() ActionKind  { return ActionResetProgress }
func (ResetLapses) Kind() ActionKind    { return ActionResetLapses }
func (RemoveLeechTag) Kind() ActionKind { return ActionRemoveTag }
func (Suspend) Kind() ActionKind        { return ActionSuspend }

func (a Delete) Accept(v ActionVisitor) error         { return v.VisitDelete(a) }
func (a Delay) Accept(v ActionVisitor) error          { return v.VisitDelay(a) }
func (a ResetProgress) Accept(v ActionVisitor) error  { return v.VisitResetProgress(a) }
func (a ResetLapses) Accept(v ActionVisitor) error    { return v.VisitResetLapses(a) }
func (a RemoveLeechTag) Accept(v ActionVisitor) error { return v.VisitRemoveLeechTag(a) }
func (a Suspend) Accept(v ActionVisitor) error        { return v.VisitSuspend(a) }

func (Delete) String() string         { return string(ActionDelete) }
func (a Delay) String() string        { return fmt.Sprintf("%s:%d", ActionDelay, a.Days) }
func (ResetProgress) String() string  { return string(ActionResetProgress) }
func (ResetLapses) String() string    { return string(ActionResetLapses) }
func (RemoveLeechTag) String() string { return string(ActionRemoveTag) }
func (Suspend) String() string        { return string(ActionSuspend) }

// RawAction is the persisted form of an Action.
type RawAction struct {
	Days *int       `json:"days,omitempty" yaml:"days,omitempty"`
	Kind ActionKind `json:"kind" yaml:"kind"`
}

// ToRaw converts an Action to its persisted form.
func ToRaw(a Action) RawAction {
	raw := RawAction{Kind: a.Kind()}
	if d, ok := a.(Delay); ok {
		days := d.Days
		raw.Days = &days
	}
	return raw
}

// FromRaw converts a persisted action back to an Action.
// It does not range-check Delay days; validation happens on the whole configuration.
func FromRaw(raw RawAction) (Action, error) {
	switch raw.Kind {
	case ActionDelete:
		return Delete{}, nil
	case ActionDelay:
		if raw.Days == nil {
			return nil, fmt.Errorf("delay action requires days")
		}
		return Delay{Days: *raw.Days}, nil
	case ActionResetProgress:
		return ResetProgress{}, nil
	case ActionResetLapses:
		return ResetLapses{}, nil
	case ActionRemoveTag:
		return RemoveLeechTag{}, nil
	case ActionSuspend:
		return Suspend{}, nil
	}
	return nil, fmt.Errorf("unknown action kind %q", raw.Kind)
}
