package config

import (
	"fmt"

	"github.com/Veraticus/leech-actions/internal/model"
)

// Rule list edits. Each returns a new slice and leaves its input untouched,
// so a Configuration holding the old slice never observes the change.

// AddRule appends rule at the end (lowest priority).
func AddRule(rules []model.Rule, rule model.Rule) []model.Rule {
	out := make([]model.Rule, 0, len(rules)+1)
	out = append(out, rules...)
	return append(out, rule.Normalized())
}

// InsertRule places rule at index, shifting later rules down.
func InsertRule(rules []model.Rule, index int, rule model.Rule) ([]model.Rule, error) {
	if index < 0 || index > len(rules) {
		return nil, fmt.Errorf("rule position %d out of range 1-%d", index+1, len(rules)+1)
	}
	out := make([]model.Rule, 0, len(rules)+1)
	out = append(out, rules[:index]...)
	out = append(out, rule.Normalized())
	return append(out, rules[index:]...), nil
}

// RemoveRule deletes the rule at index.
func RemoveRule(rules []model.Rule, index int) ([]model.Rule, error) {
	if err := checkIndex(rules, index); err != nil {
		return nil, err
	}
	out := make([]model.Rule, 0, len(rules)-1)
	out = append(out, rules[:index]...)
	return append(out, rules[index+1:]...), nil
}

// ReplaceRule swaps in a new rule at index.
func ReplaceRule(rules []model.Rule, index int, rule model.Rule) ([]model.Rule, error) {
	if err := checkIndex(rules, index); err != nil {
		return nil, err
	}
	out := append([]model.Rule(nil), rules...)
	out[index] = rule.Normalized()
	return out, nil
}

// MoveRuleUp raises the rule's priority by one. Moving the first rule is a no-op.
func MoveRuleUp(rules []model.Rule, index int) ([]model.Rule, error) {
	if err := checkIndex(rules, index); err != nil {
		return nil, err
	}
	out := append(make([]model.Rule, 0, len(rules)), rules...)
	if index > 0 {
		out[index-1], out[index] = out[index], out[index-1]
	}
	return out, nil
}

// MoveRuleDown lowers the rule's priority by one. Moving the last rule is a no-op.
func MoveRuleDown(rules []model.Rule, index int) ([]model.Rule, error) {
	if err := checkIndex(rules, index); err != nil {
		return nil, err
	}
	out := append(make([]model.Rule, 0, len(rules)), rules...)
	if index < len(out)-1 {
		out[index+1], out[index] = out[index], out[index+1]
	}
	return out, nil
}

func checkIndex(rules []model.Rule, index int) error {
	if index < 0 || index >= len(rules) {
		if len(rules) == 0 {
			return fmt.Errorf("there are no rules")
		}
		return fmt.Errorf("rule %d does not exist (have 1-%d)", index+1, len(rules))
	}
	return nil
}
