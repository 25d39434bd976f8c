package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/leech-actions/internal/model"
)

func TestRuns_SaveAndList(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	for i, mode := range []model.RunMode{model.RunModeCommit, model.RunModeAuto, model.RunModeCommit} {
		run := model.RunSummary{
			RunID:      string(rune('a' + i)),
			Mode:       mode,
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
			FinishedAt: base.Add(time.Duration(i)*time.Hour + time.Second),
			Total:      3,
			Applied:    2,
			Skipped:    1,
			Summary:    "delete: 2, skipped: 1",
		}
		require.NoError(t, store.SaveRun(ctx, run))
	}

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "c", runs[0].RunID)
	assert.Equal(t, model.RunModeAuto, runs[1].Mode)
	assert.Equal(t, 2, runs[2].Applied)
	assert.Equal(t, "delete: 2, skipped: 1", runs[2].Summary)
	assert.True(t, base.Equal(runs[2].StartedAt))

	limited, err := store.ListRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRuns_Validation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	tests := []struct {
		name string
		run  model.RunSummary
	}{
		{name: "missing id", run: model.RunSummary{Mode: model.RunModeCommit, StartedAt: time.Now()}},
		{name: "missing start", run: model.RunSummary{RunID: "x", Mode: model.RunModeCommit}},
		{name: "preview not recorded", run: model.RunSummary{RunID: "x", Mode: model.RunModePreview, StartedAt: time.Now()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, store.SaveRun(ctx, tt.run), ErrInvalidRun)
		})
	}
}
