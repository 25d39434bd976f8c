package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/leech-actions/internal/common"
	"github.com/Veraticus/leech-actions/internal/model"
)

func TestExecutor_ActionsAreIdempotent(t *testing.T) {
	ctx := context.Background()

	for _, action := range []model.Action{
		model.Delete{},
		model.Delay{Days: 30},
		model.ResetProgress{},
		model.ResetLapses{},
		model.RemoveLeechTag{},
		model.Suspend{},
	} {
		t.Run(string(action.Kind()), func(t *testing.T) {
			store := newMemoryStore(leech(1, "Kanji", "Basic"))
			executor := NewExecutor(store, "leech", fixedClock, quickRetry())

			first := executor.Apply(ctx, 1, action)
			require.NoError(t, first.Err)
			once := store.snapshot()

			second := executor.Apply(ctx, 1, action)
			if action.Kind() == model.ActionDelete {
				// The card is already gone; the store reports it, the state is unchanged.
				assert.ErrorIs(t, second.Err, common.ErrNotFound)
			} else {
				assert.NoError(t, second.Err)
			}
			assert.Equal(t, once, store.snapshot())
		})
	}
}

func TestExecutor_ActionEffects(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		action model.Action
		check  func(t *testing.T, before model.Card, after model.Card, exists bool)
		name   string
	}{
		{
			name:   "delete removes card",
			action: model.Delete{},
			check: func(t *testing.T, _, _ model.Card, exists bool) {
				t.Helper()
				assert.False(t, exists)
			},
		},
		{
			name:   "delay counts from today",
			action: model.Delay{Days: 30},
			check: func(t *testing.T, before, after model.Card, _ bool) {
				t.Helper()
				want := time.Date(2026, 11, 17, 0, 0, 0, 0, time.Local)
				assert.True(t, want.Equal(after.Due), "due %v, want %v", after.Due, want)
				assert.Equal(t, 30, after.Interval)
				assert.Equal(t, before.Suspended, after.Suspended)
				assert.Equal(t, before.Lapses, after.Lapses)
				assert.Equal(t, before.Tags, after.Tags)
			},
		},
		{
			name:   "reset progress",
			action: model.ResetProgress{},
			check: func(t *testing.T, before, after model.Card, _ bool) {
				t.Helper()
				assert.Equal(t, model.CardStateNew, after.State)
				assert.True(t, after.Due.IsZero())
				assert.Zero(t, after.Interval)
				assert.Equal(t, before.Lapses, after.Lapses)
			},
		},
		{
			name:   "reset lapses leaves schedule",
			action: model.ResetLapses{},
			check: func(t *testing.T, before, after model.Card, _ bool) {
				t.Helper()
				assert.Zero(t, after.Lapses)
				assert.True(t, before.Due.Equal(after.Due))
				assert.Equal(t, before.Interval, after.Interval)
				assert.Equal(t, before.Tags, after.Tags)
			},
		},
		{
			name:   "remove tag strips only the leech tag",
			action: model.RemoveLeechTag{},
			check: func(t *testing.T, _, after model.Card, _ bool) {
				t.Helper()
				assert.Equal(t, []string{"vocab"}, after.Tags)
			},
		},
		{
			name:   "suspend",
			action: model.Suspend{},
			check: func(t *testing.T, _, after model.Card, _ bool) {
				t.Helper()
				assert.True(t, after.Suspended)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := leech(1, "Kanji", "Basic")
			store := newMemoryStore(before)
			executor := NewExecutor(store, "leech", fixedClock, quickRetry())

			result := executor.Apply(ctx, 1, tt.action)
			require.True(t, result.OK(), "apply failed: %v", result.Err)

			after, exists := store.snapshot()[1]
			tt.check(t, before, after, exists)
		})
	}
}

func TestExecutor_DelayKeepsSuspension(t *testing.T) {
	card := leech(1, "Kanji", "Basic")
	card.Suspended = true
	store := newMemoryStore(card)
	executor := NewExecutor(store, "leech", fixedClock, quickRetry())

	require.NoError(t, executor.Apply(context.Background(), 1, model.Delay{Days: 2}).Err)
	assert.True(t, store.snapshot()[1].Suspended)
}

func TestExecutor_MissingCardIsMutationError(t *testing.T) {
	executor := NewExecutor(newMemoryStore(), "leech", fixedClock, quickRetry())

	result := executor.Apply(context.Background(), 42, model.ResetLapses{})
	require.Error(t, result.Err)

	var mutErr *RecordMutationError
	require.True(t, errors.As(result.Err, &mutErr))
	assert.Equal(t, int64(42), mutErr.CardID)
	assert.Equal(t, model.ActionResetLapses, mutErr.Action)
	assert.ErrorIs(t, result.Err, common.ErrNotFound)
	assert.Contains(t, result.Err.Error(), "card 42")
}

func TestExecutor_NilAction(t *testing.T) {
	executor := NewExecutor(newMemoryStore(), "leech", fixedClock, quickRetry())

	result := executor.Apply(context.Background(), 1, nil)
	assert.ErrorIs(t, result.Err, ErrNoAction)
}

func TestExecutor_RetriesBusyDatabase(t *testing.T) {
	store := newMemoryStore(leech(1, "Kanji", "Basic"))
	store.busy[1] = 2
	executor := NewExecutor(store, "leech", fixedClock, quickRetry())

	result := executor.Apply(context.Background(), 1, model.Suspend{})
	require.NoError(t, result.Err)
	assert.True(t, store.snapshot()[1].Suspended)
}

func TestExecutor_GivesUpWhenAlwaysBusy(t *testing.T) {
	store := newMemoryStore(leech(1, "Kanji", "Basic"))
	store.busy[1] = 10
	executor := NewExecutor(store, "leech", fixedClock, quickRetry())

	result := executor.Apply(context.Background(), 1, model.Suspend{})
	assert.ErrorIs(t, result.Err, common.ErrMaxRetries)
}

func TestExecutor_ApplyAllStopsAtFirstFailure(t *testing.T) {
	store := newMemoryStore(leech(1, "Kanji", "Basic"))
	executor := NewExecutor(store, "leech", fixedClock, quickRetry())

	results := executor.ApplyAll(context.Background(), 1, []model.Action{
		model.ResetLapses{}, model.Delete{}, model.Suspend{},
	})
	require.Len(t, results, 3)
	assert.True(t, results[0].OK())
	assert.True(t, results[1].OK())
	assert.False(t, results[2].OK(), "suspend after delete must fail")

	results = executor.ApplyAll(context.Background(), 1, []model.Action{model.ResetLapses{}, model.Suspend{}})
	assert.Len(t, results, 1)
}

func TestDelayDue(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	now := time.Date(2026, 12, 31, 23, 59, 0, 0, loc)

	due := DelayDue(now, 1)
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, loc), due)
	assert.Equal(t, DelayDue(now.Add(-time.Hour), 1), due, "same day, same due")
}
