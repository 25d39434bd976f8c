package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Veraticus/leech-actions/internal/common"
	"github.com/Veraticus/leech-actions/internal/model"
	"github.com/Veraticus/leech-actions/internal/service"
)

const cardColumns = `
	c.id, c.note_id, d.name, nt.name, n.tags, c.state, c.due,
	c.interval, c.ease, c.lapses, c.suspended
	FROM cards c
	JOIN notes n ON n.id = c.note_id
	JOIN decks d ON d.id = c.deck_id
	JOIN note_types nt ON nt.id = n.note_type_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*model.Card, error) {
	var (
		card  model.Card
		tags  string
		state string
		due   sql.NullTime
	)
	if err := row.Scan(&card.ID, &card.NoteID, &card.Deck, &card.NoteType, &tags, &state, &due,
		&card.Interval, &card.Ease, &card.Lapses, &card.Suspended); err != nil {
		return nil, err
	}
	card.Tags = model.ParseTags(tags)
	card.State = model.CardState(state)
	if due.Valid {
		card.Due = due.Time
	}
	return &card, nil
}

func notFound(id int64) error {
	return fmt.Errorf("card %d: %w", id, common.ErrNotFound)
}

// GetCard retrieves a card with its deck, note type, and note tags.
func (s *SQLiteStorage) GetCard(ctx context.Context, id int64) (*model.Card, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+cardColumns+` WHERE c.id = ?`, id)
	card, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, mapError(fmt.Errorf("failed to get card %d: %w", id, err))
	}
	return card, nil
}

// FindCardsByTag returns ids of cards whose note carries tag, in id order.
func (s *SQLiteStorage) FindCardsByTag(ctx context.Context, tag string) ([]int64, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateTag(tag); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id FROM cards c
		JOIN notes n ON n.id = c.note_id
		WHERE instr(n.tags, ?) > 0
		ORDER BY c.id`, " "+tag+" ")
	if err != nil {
		return nil, mapError(fmt.Errorf("failed to find cards tagged %q: %w", tag, err))
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan card id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListCards lists cards matching filter, in id order.
// A deck filter includes sub-decks.
func (s *SQLiteStorage) ListCards(ctx context.Context, filter service.CardFilter) ([]model.Card, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if filter.Tag != "" {
		where = append(where, "instr(n.tags, ?) > 0")
		args = append(args, " "+filter.Tag+" ")
	}
	if filter.Deck != "" {
		where = append(where, "(d.name = ? OR substr(d.name, 1, ?) = ?)")
		prefix := filter.Deck + model.DeckSeparator
		args = append(args, filter.Deck, len(prefix), prefix)
	}

	query := `SELECT ` + cardColumns
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY c.id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(fmt.Errorf("failed to list cards: %w", err))
	}
	defer func() { _ = rows.Close() }()

	var cards []model.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, *card)
	}
	return cards, rows.Err()
}

// DeleteCard removes a card, and its note once the note has no cards left.
func (s *SQLiteStorage) DeleteCard(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var noteID int64
		err := tx.QueryRowContext(ctx, `SELECT note_id FROM cards WHERE id = ?`, id).Scan(&noteID)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound(id)
		}
		if err != nil {
			return fmt.Errorf("failed to look up card %d: %w", id, err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete card %d: %w", id, err)
		}

		if _, err := tx.ExecContext(ctx, `
			DELETE FROM notes WHERE id = ?
			AND NOT EXISTS (SELECT 1 FROM cards WHERE note_id = ?)`, noteID, noteID); err != nil {
			return fmt.Errorf("failed to delete orphaned note %d: %w", noteID, err)
		}
		return nil
	})
}

// SetSuspended suspends or unsuspends a card.
func (s *SQLiteStorage) SetSuspended(ctx context.Context, id int64, suspended bool) error {
	return s.updateCard(ctx, id, `UPDATE cards SET suspended = ?, modified = CURRENT_TIMESTAMP WHERE id = ?`,
		suspended, id)
}

// SetSchedule moves a card into review, due at due with the given interval in days.
// Cards without an ease yet get the default.
func (s *SQLiteStorage) SetSchedule(ctx context.Context, id int64, due time.Time, interval int) error {
	if interval < 0 {
		return fmt.Errorf("%w: negative interval", ErrInvalidCard)
	}
	return s.updateCard(ctx, id, `
		UPDATE cards SET
			state = ?, due = ?, interval = ?,
			ease = CASE WHEN ease = 0 THEN ? ELSE ease END,
			modified = CURRENT_TIMESTAMP
		WHERE id = ?`,
		string(model.CardStateReview), due, interval, model.DefaultEase, id)
}

// ResetSchedule returns a card to the new queue.
func (s *SQLiteStorage) ResetSchedule(ctx context.Context, id int64) error {
	return s.updateCard(ctx, id, `
		UPDATE cards SET
			state = ?, due = NULL, interval = 0, ease = 0,
			modified = CURRENT_TIMESTAMP
		WHERE id = ?`,
		string(model.CardStateNew), id)
}

// ResetLapses zeroes a card's lapse counter.
func (s *SQLiteStorage) ResetLapses(ctx context.Context, id int64) error {
	return s.updateCard(ctx, id, `UPDATE cards SET lapses = 0, modified = CURRENT_TIMESTAMP WHERE id = ?`, id)
}

// RemoveTag removes tag from the card's note. Removing an absent tag is a no-op.
func (s *SQLiteStorage) RemoveTag(ctx context.Context, id int64, tag string) error {
	return s.editTags(ctx, id, tag, func(tags []string) []string {
		return slices.DeleteFunc(tags, func(t string) bool { return t == tag })
	})
}

// AddTag adds tag to the card's note.
func (s *SQLiteStorage) AddTag(ctx context.Context, id int64, tag string) error {
	return s.editTags(ctx, id, tag, func(tags []string) []string {
		return append(tags, tag)
	})
}

func (s *SQLiteStorage) editTags(ctx context.Context, id int64, tag string, edit func([]string) []string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id); err != nil {
		return err
	}
	if err := validateTag(tag); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var (
			noteID int64
			tags   string
		)
		err := tx.QueryRowContext(ctx, `
			SELECT n.id, n.tags FROM cards c
			JOIN notes n ON n.id = c.note_id
			WHERE c.id = ?`, id).Scan(&noteID, &tags)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound(id)
		}
		if err != nil {
			return fmt.Errorf("failed to read tags of card %d: %w", id, err)
		}

		before := model.ParseTags(tags)
		after := model.JoinTags(edit(slices.Clone(before)))
		if after == model.JoinTags(before) {
			return nil
		}

		if _, err := tx.ExecContext(ctx, `UPDATE notes SET tags = ?, modified = CURRENT_TIMESTAMP WHERE id = ?`,
			after, noteID); err != nil {
			return fmt.Errorf("failed to update tags of note %d: %w", noteID, err)
		}
		return nil
	})
}

func (s *SQLiteStorage) updateCard(ctx context.Context, id int64, query string, args ...any) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(fmt.Errorf("failed to update card %d: %w", id, err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update of card %d: %w", id, err)
	}
	if n == 0 {
		return notFound(id)
	}
	return nil
}

// ImportCards inserts or replaces cards, creating decks, note types, and notes
// as needed. Cards without a note id get a note of their own.
func (s *SQLiteStorage) ImportCards(ctx context.Context, cards []model.Card) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	for i := range cards {
		if err := validateCard(&cards[i]); err != nil {
			return 0, fmt.Errorf("card at index %d: %w", i, err)
		}
	}

	imported := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, card := range cards {
			if err := s.importCardTx(ctx, tx, card); err != nil {
				return err
			}
			imported++
		}
		return nil
	})
	if err != nil {
		s.clearCache()
		return 0, err
	}
	return imported, nil
}

func (s *SQLiteStorage) importCardTx(ctx context.Context, tx *sql.Tx, card model.Card) error {
	deckID, err := s.ensureNamed(ctx, tx, "decks", card.Deck, s.deckIDs)
	if err != nil {
		return err
	}
	noteTypeID, err := s.ensureNamed(ctx, tx, "note_types", card.NoteType, s.noteTypes)
	if err != nil {
		return err
	}

	noteID := card.NoteID
	tags := model.JoinTags(card.Tags)
	if noteID == 0 {
		result, err := tx.ExecContext(ctx, `INSERT INTO notes (note_type_id, tags) VALUES (?, ?)`, noteTypeID, tags)
		if err != nil {
			return fmt.Errorf("failed to create note: %w", err)
		}
		if noteID, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read note id: %w", err)
		}
	} else if _, err := tx.ExecContext(ctx, `
		INSERT INTO notes (id, note_type_id, tags) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET note_type_id = excluded.note_type_id, tags = excluded.tags`,
		noteID, noteTypeID, tags); err != nil {
		return fmt.Errorf("failed to upsert note %d: %w", noteID, err)
	}

	state := card.State
	if state == "" {
		state = model.CardStateNew
	}
	var due any
	if !card.Due.IsZero() {
		due = card.Due
	}

	var id any
	if card.ID != 0 {
		id = card.ID
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO cards (id, note_id, deck_id, state, due, interval, ease, lapses, suspended)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, noteID, deckID, string(state), due, card.Interval, card.Ease, card.Lapses, card.Suspended); err != nil {
		return fmt.Errorf("failed to import card %d: %w", card.ID, err)
	}
	return nil
}

// ensureNamed returns the id of the named deck or note type, creating it if needed.
func (s *SQLiteStorage) ensureNamed(ctx context.Context, tx *sql.Tx, table, name string, cache map[string]int64) (int64, error) {
	s.cacheMutex.RLock()
	id, ok := cache[name]
	s.cacheMutex.RUnlock()
	if ok {
		return id, nil
	}

	var insert, lookup string
	switch table {
	case "decks":
		insert = `INSERT OR IGNORE INTO decks (name) VALUES (?)`
		lookup = `SELECT id FROM decks WHERE name = ?`
	case "note_types":
		insert = `INSERT OR IGNORE INTO note_types (name) VALUES (?)`
		lookup = `SELECT id FROM note_types WHERE name = ?`
	default:
		return 0, fmt.Errorf("unknown table %q", table)
	}

	if _, err := tx.ExecContext(ctx, insert, name); err != nil {
		return 0, fmt.Errorf("failed to create %s %q: %w", table, name, err)
	}
	if err := tx.QueryRowContext(ctx, lookup, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to look up %s %q: %w", table, name, err)
	}

	s.cacheMutex.Lock()
	cache[name] = id
	s.cacheMutex.Unlock()
	return id, nil
}

func (s *SQLiteStorage) clearCache() {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()
	clear(s.deckIDs)
	clear(s.noteTypes)
}
