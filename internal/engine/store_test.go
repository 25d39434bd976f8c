package engine

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Veraticus/leech-actions/internal/common"
	"github.com/Veraticus/leech-actions/internal/model"
	"github.com/Veraticus/leech-actions/internal/service"
)

// memoryStore is an in-memory service.CardStore.
type memoryStore struct {
	cards     map[int64]*model.Card
	failOn    map[int64]error
	busy      map[int64]int
	readFail  map[int64]error
	readBusy  map[int64]int
	readErr   error
	mutations int
	mu        sync.Mutex
}

func newMemoryStore(cards ...model.Card) *memoryStore {
	s := &memoryStore{
		cards:    make(map[int64]*model.Card),
		failOn:   make(map[int64]error),
		busy:     make(map[int64]int),
		readFail: make(map[int64]error),
		readBusy: make(map[int64]int),
	}
	for _, c := range cards {
		c.Tags = slices.Clone(c.Tags)
		s.cards[c.ID] = &c
	}
	return s
}

func (s *memoryStore) snapshot() map[int64]model.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64]model.Card, len(s.cards))
	for id, c := range s.cards {
		cp := *c
		cp.Tags = slices.Clone(c.Tags)
		out[id] = cp
	}
	return out
}

func (s *memoryStore) GetCard(_ context.Context, id int64) (*model.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	if err := s.readFail[id]; err != nil {
		return nil, err
	}
	if s.readBusy[id] > 0 {
		s.readBusy[id]--
		return nil, fmt.Errorf("card %d: %w", id, common.ErrDatabaseBusy)
	}
	c, ok := s.cards[id]
	if !ok {
		return nil, fmt.Errorf("card %d: %w", id, common.ErrNotFound)
	}
	cp := *c
	cp.Tags = slices.Clone(c.Tags)
	return &cp, nil
}

func (s *memoryStore) FindCardsByTag(_ context.Context, tag string) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for id, c := range s.cards {
		if c.HasTag(tag) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *memoryStore) mutate(id int64, fn func(*model.Card)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failOn[id]; err != nil {
		return err
	}
	if s.busy[id] > 0 {
		s.busy[id]--
		return common.ErrDatabaseBusy
	}
	c, ok := s.cards[id]
	if !ok {
		return fmt.Errorf("card %d: %w", id, common.ErrNotFound)
	}
	s.mutations++
	fn(c)
	return nil
}

func (s *memoryStore) DeleteCard(_ context.Context, id int64) error {
	return s.mutate(id, func(c *model.Card) { delete(s.cards, c.ID) })
}

func (s *memoryStore) SetSuspended(_ context.Context, id int64, suspended bool) error {
	return s.mutate(id, func(c *model.Card) { c.Suspended = suspended })
}

func (s *memoryStore) SetSchedule(_ context.Context, id int64, due time.Time, interval int) error {
	return s.mutate(id, func(c *model.Card) {
		c.State = model.CardStateReview
		c.Due = due
		c.Interval = interval
		if c.Ease == 0 {
			c.Ease = model.DefaultEase
		}
	})
}

func (s *memoryStore) ResetSchedule(_ context.Context, id int64) error {
	return s.mutate(id, func(c *model.Card) {
		c.State = model.CardStateNew
		c.Due = time.Time{}
		c.Interval = 0
		c.Ease = 0
	})
}

func (s *memoryStore) ResetLapses(_ context.Context, id int64) error {
	return s.mutate(id, func(c *model.Card) { c.Lapses = 0 })
}

func (s *memoryStore) RemoveTag(_ context.Context, id int64, tag string) error {
	return s.mutate(id, func(c *model.Card) {
		c.Tags = slices.DeleteFunc(c.Tags, func(t string) bool { return t == tag })
	})
}

type staticConfig struct {
	cfg model.Configuration
}

func (s *staticConfig) Current() model.Configuration {
	return s.cfg.Clone()
}

type runLog struct {
	runs []model.RunSummary
	mu   sync.Mutex
}

func (l *runLog) SaveRun(_ context.Context, run model.RunSummary) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.runs = append(l.runs, run)
	return nil
}

var testNow = time.Date(2026, 10, 18, 15, 30, 0, 0, time.Local)

func fixedClock() time.Time { return testNow }

func leech(id int64, deck, noteType string) model.Card {
	return model.Card{
		ID:       id,
		NoteID:   id * 10,
		Deck:     deck,
		NoteType: noteType,
		State:    model.CardStateReview,
		Tags:     []string{"leech", "vocab"},
		Due:      testNow.AddDate(0, 0, -3),
		Interval: 14,
		Ease:     1300,
		Lapses:   8,
	}
}

func testConfig(rules ...model.Rule) model.Configuration {
	return model.Configuration{
		Version:               5,
		LeechTag:              "leech",
		Rules:                 rules,
		AutoRunOnTag:          true,
		AutoRunAfterSync:      true,
		ShowAutoNotifications: true,
	}
}

func quickRetry() service.RetryOptions {
	return service.RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}
}
