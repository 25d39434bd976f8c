// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/leech-actions/internal/model"
)

// CardFilter narrows card listings.
type CardFilter struct {
	Tag   string
	Deck  string
	Limit int
}

// CardReader is the read side of the host collection.
type CardReader interface {
	GetCard(ctx context.Context, id int64) (*model.Card, error)
	FindCardsByTag(ctx context.Context, tag string) ([]int64, error)
}

// CardWriter applies the mutations leech actions are allowed to make.
// Every method returns an error wrapping common.ErrNotFound when the card is gone.
type CardWriter interface {
	DeleteCard(ctx context.Context, id int64) error
	SetSuspended(ctx context.Context, id int64, suspended bool) error
	SetSchedule(ctx context.Context, id int64, due time.Time, interval int) error
	ResetSchedule(ctx context.Context, id int64) error
	ResetLapses(ctx context.Context, id int64) error
	RemoveTag(ctx context.Context, id int64, tag string) error
}

// CardStore is the host record store as seen by the engine.
type CardStore interface {
	CardReader
	CardWriter
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	CardStore

	// Collection maintenance
	ListCards(ctx context.Context, filter CardFilter) ([]model.Card, error)
	ImportCards(ctx context.Context, cards []model.Card) (int, error)
	AddTag(ctx context.Context, id int64, tag string) error

	// Host config storage
	GetAddonConfig(ctx context.Context, name string) ([]byte, error)
	SaveAddonConfig(ctx context.Context, name string, raw []byte) error

	// Run history
	SaveRun(ctx context.Context, run model.RunSummary) error
	ListRuns(ctx context.Context, limit int) ([]model.RunSummary, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
