package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/leech-actions/internal/model"
)

func newTestRun(store *memoryStore, rules ...model.Rule) *ManualRun {
	return NewManualRun(NewProcessor(store, WithClock(fixedClock)), store, &staticConfig{cfg: testConfig(rules...)})
}

func TestManualRun_ConfirmPath(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(leech(1, "Kanji::N5", "Basic"), leech(2, "Words", "Basic"))
	run := newTestRun(store, kanjiRules()...)

	assert.Equal(t, StateIdle, run.State())

	preview, err := run.Preview(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatePreviewed, run.State())
	assert.Equal(t, 2, preview.Total())
	assert.Zero(t, store.mutations, "nothing mutates before confirm")

	report, err := run.Confirm(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateCommitted, run.State())
	assert.Equal(t, 2, report.Applied())

	require.NoError(t, run.Reset())
	assert.Equal(t, StateIdle, run.State())
}

func TestManualRun_AbortedCommitReturnsToPreviewed(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(leech(1, "Kanji::N5", "Basic"))
	before := store.snapshot()

	checkpoints := 0
	processor := NewProcessor(store, WithClock(fixedClock), WithBeforeCommit(func(context.Context, model.RunMode) error {
		checkpoints++
		if checkpoints == 1 {
			return errors.New("no space for checkpoint")
		}
		return nil
	}))
	run := NewManualRun(processor, store, &staticConfig{cfg: testConfig(kanjiRules()...)})

	_, err := run.Preview(ctx)
	require.NoError(t, err)

	_, err = run.Confirm(ctx)
	require.ErrorIs(t, err, ErrCommitAborted)
	assert.Equal(t, StatePreviewed, run.State())
	assert.Equal(t, before, store.snapshot())

	report, err := run.Confirm(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateCommitted, run.State())
	assert.Equal(t, 1, report.Applied())
	assert.Equal(t, 2, checkpoints)
}

func TestManualRun_CancelPath(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(leech(1, "Kanji::N5", "Basic"))
	before := store.snapshot()
	run := newTestRun(store, kanjiRules()...)

	_, err := run.Preview(ctx)
	require.NoError(t, err)
	require.NoError(t, run.Cancel())
	assert.Equal(t, StateCancelled, run.State())
	assert.Equal(t, before, store.snapshot())

	require.NoError(t, run.Reset())
	_, err = run.Preview(ctx)
	assert.NoError(t, err)
}

func TestManualRun_RejectsInvalidTransitions(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		setup func(*ManualRun)
		step  func(*ManualRun) error
		name  string
	}{
		{
			name: "confirm from idle",
			step: func(r *ManualRun) error { _, err := r.Confirm(ctx); return err },
		},
		{
			name: "cancel from idle",
			step: func(r *ManualRun) error { return r.Cancel() },
		},
		{
			name: "reset from idle",
			step: func(r *ManualRun) error { return r.Reset() },
		},
		{
			name:  "preview twice",
			setup: func(r *ManualRun) { _, _ = r.Preview(ctx) },
			step:  func(r *ManualRun) error { _, err := r.Preview(ctx); return err },
		},
		{
			name:  "reset from previewed",
			setup: func(r *ManualRun) { _, _ = r.Preview(ctx) },
			step:  func(r *ManualRun) error { return r.Reset() },
		},
		{
			name: "confirm after cancel",
			setup: func(r *ManualRun) {
				_, _ = r.Preview(ctx)
				_ = r.Cancel()
			},
			step: func(r *ManualRun) error { _, err := r.Confirm(ctx); return err },
		},
		{
			name: "cancel after confirm",
			setup: func(r *ManualRun) {
				_, _ = r.Preview(ctx)
				_, _ = r.Confirm(ctx)
			},
			step: func(r *ManualRun) error { return r.Cancel() },
		},
		{
			name: "preview before reset",
			setup: func(r *ManualRun) {
				_, _ = r.Preview(ctx)
				_, _ = r.Confirm(ctx)
			},
			step: func(r *ManualRun) error { _, err := r.Preview(ctx); return err },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := newTestRun(newMemoryStore(leech(1, "A", "Basic")), kanjiRules()...)
			if tt.setup != nil {
				tt.setup(run)
			}
			before := run.State()

			err := tt.step(run)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, before, run.State())
		})
	}
}

func TestManualRun_PreviewErrorStaysIdle(t *testing.T) {
	store := newMemoryStore(leech(1, "A", "Basic"))
	store.readErr = assert.AnError
	run := newTestRun(store, kanjiRules()...)

	_, err := run.Preview(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateIdle, run.State())
}

func TestRunState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "previewed", StatePreviewed.String())
	assert.Equal(t, "committed", StateCommitted.String())
	assert.Equal(t, "cancelled", StateCancelled.String())
	assert.Equal(t, "RunState(9)", RunState(9).String())
}
