// Package storage provides the SQLite host collection: cards, notes, decks,
// note types, addon configuration, run history, and checkpoints.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/leech-actions/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrInvalidID    = errors.New("id must be positive")
	ErrInvalidCard  = errors.New("invalid card")
	ErrInvalidTag   = errors.New("invalid tag")
	ErrInvalidRun   = errors.New("invalid run")
	ErrInvalidState = errors.New("invalid card state")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	return nil
}

// validateTag rejects tags the space separated tag column cannot hold.
func validateTag(tag string) error {
	if tag == "" || strings.ContainsAny(tag, " \t\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidTag, tag)
	}
	return nil
}

// validateCard validates a card before import.
func validateCard(card *model.Card) error {
	if card.ID < 0 || card.NoteID < 0 {
		return fmt.Errorf("%w: negative id", ErrInvalidCard)
	}
	if strings.TrimSpace(card.Deck) == "" {
		return fmt.Errorf("%w: missing deck", ErrInvalidCard)
	}
	if strings.TrimSpace(card.NoteType) == "" {
		return fmt.Errorf("%w: missing note type", ErrInvalidCard)
	}
	switch card.State {
	case "", model.CardStateNew, model.CardStateReview:
	default:
		return fmt.Errorf("%w: %s", ErrInvalidState, card.State)
	}
	if card.Interval < 0 || card.Lapses < 0 || card.Ease < 0 {
		return fmt.Errorf("%w: negative scheduling value", ErrInvalidCard)
	}
	for _, tag := range card.Tags {
		if err := validateTag(tag); err != nil {
			return err
		}
	}
	return nil
}

// validateRun validates a run summary before it is recorded.
func validateRun(run *model.RunSummary) error {
	if strings.TrimSpace(run.RunID) == "" {
		return fmt.Errorf("%w: missing run id", ErrInvalidRun)
	}
	if run.StartedAt.IsZero() {
		return fmt.Errorf("%w: missing start time", ErrInvalidRun)
	}
	switch run.Mode {
	case model.RunModeCommit, model.RunModeAuto:
	default:
		return fmt.Errorf("%w: mode %q is not recorded", ErrInvalidRun, run.Mode)
	}
	return nil
}
