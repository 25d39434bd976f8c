// Package testutil provides a migrated SQLite collection and card fixtures for tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Veraticus/leech-actions/internal/model"
	"github.com/Veraticus/leech-actions/internal/storage"
)

// TestDB is a throwaway collection seeded with cards.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
	Path    string
}

// SetupTestDB creates a migrated collection in a temp dir and imports cards.
// It automatically handles cleanup.
//
// Example:
//
//	db := testutil.SetupTestDB(t,
//		testutil.Leech(1, "Spanish::Verbs", "Basic"),
//		testutil.Leech(2, "Kanji", "Cloze"),
//	)
func SetupTestDB(t *testing.T, cards ...model.Card) *TestDB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "collection.db")
	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	if len(cards) > 0 {
		if _, err := store.ImportCards(ctx, cards); err != nil {
			t.Fatalf("failed to import cards: %v", err)
		}
	}

	return &TestDB{Storage: store, Path: path, t: t}
}

// MustGetCard returns the card with id or fails the test.
func (db *TestDB) MustGetCard(id int64) model.Card {
	db.t.Helper()
	card, err := db.Storage.GetCard(context.Background(), id)
	if err != nil {
		db.t.Fatalf("failed to get card %d: %v", id, err)
	}
	return *card
}

// Leech is a reviewed card carrying the default leech tag.
func Leech(id int64, deck, noteType string) model.Card {
	return model.Card{
		ID:       id,
		Deck:     deck,
		NoteType: noteType,
		State:    model.CardStateReview,
		Tags:     []string{model.DefaultLeechTag},
		Interval: 12,
		Ease:     1300,
		Lapses:   8,
	}
}

// Plain is a reviewed card without the leech tag.
func Plain(id int64, deck, noteType string) model.Card {
	card := Leech(id, deck, noteType)
	card.Tags = nil
	card.Lapses = 1
	return card
}

// Collection is a small mixed collection used across packages.
func Collection() []model.Card {
	return []model.Card{
		Leech(1, "Spanish::Verbs", "Basic"),
		Leech(2, "Spanish", "Cloze"),
		Leech(3, "Kanji", "Basic (and reversed card)"),
		Plain(4, "Spanish", "Basic"),
		Leech(5, "French::Grammar", "Basic"),
	}
}
