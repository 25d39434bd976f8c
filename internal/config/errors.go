package config

import (
	"fmt"

	"github.com/Veraticus/leech-actions/internal/common"
)

// ConfigVersionError reports a stored configuration written by a newer release.
// It is fatal: no downgrade is attempted.
type ConfigVersionError struct {
	Stored    int
	Supported int
}

func (e *ConfigVersionError) Error() string {
	return fmt.Sprintf("configuration version %d is newer than supported version %d", e.Stored, e.Supported)
}

// ConfigValidationError reports a malformed configuration.
// RuleIndex is the zero-based rule position, or -1 for document-level problems.
type ConfigValidationError struct {
	Field     string
	Reason    string
	RuleIndex int
}

func (e *ConfigValidationError) Error() string {
	if e.RuleIndex >= 0 {
		return fmt.Sprintf("invalid configuration: rule %d: %s: %s", e.RuleIndex+1, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Unwrap lets callers match common.ErrInvalidConfig.
func (e *ConfigValidationError) Unwrap() error {
	return common.ErrInvalidConfig
}

func invalid(field, reason string) *ConfigValidationError {
	return &ConfigValidationError{Field: field, Reason: reason, RuleIndex: -1}
}

func invalidRule(index int, field, reason string) *ConfigValidationError {
	return &ConfigValidationError{Field: field, Reason: reason, RuleIndex: index}
}
