// Package pattern selects the rule that applies to a leech card.
package pattern

import (
	"github.com/Veraticus/leech-actions/internal/model"
)

// RuleMatcher selects the first rule matching a card's deck and note type.
type RuleMatcher interface {
	// Match returns the first matching rule and its index, or ok == false when
	// no rule applies. No match is a normal outcome, not an error.
	Match(deck, noteType string) (rule model.Rule, index int, ok bool)
}

// Rule is an alias to the model.Rule type for convenience.
type Rule = model.Rule
