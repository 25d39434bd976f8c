package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCheckpointStore(t *testing.T) (*SQLiteStorage, *CheckpointManager, func()) {
	t.Helper()
	store, cleanup := createTestStorage(t)
	seedCards(t, store,
		testCard(1, "Spanish", "Basic", "leech"),
		testCard(2, "Spanish::Verbs", "Basic", "leech"),
		testCard(3, "Kanji", "Cloze"),
	)

	manager, err := store.NewCheckpointManager()
	require.NoError(t, err)

	clock := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	manager.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return store, manager, cleanup
}

func TestCheckpointManager_Create(t *testing.T) {
	store, manager, cleanup := setupCheckpointStore(t)
	defer cleanup()
	ctx := context.Background()

	tests := []struct {
		errType     error
		name        string
		tag         string
		description string
		wantErr     bool
	}{
		{name: "with tag", tag: "before-run", description: "Before run"},
		{name: "generated tag", description: "Generated"},
		{name: "path traversal", tag: "../escape", wantErr: true, errType: ErrInvalidCheckpointID},
		{name: "duplicate", tag: "before-run", wantErr: true, errType: ErrCheckpointExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := manager.Create(ctx, tt.tag, tt.description)
			if tt.wantErr {
				require.Error(t, err)
				if tt.errType != nil {
					assert.ErrorIs(t, err, tt.errType)
				}
				return
			}

			require.NoError(t, err)
			if tt.tag != "" {
				assert.Equal(t, tt.tag, info.ID)
			} else {
				assert.Contains(t, info.ID, "checkpoint-")
			}
			assert.Equal(t, tt.description, info.Description)
			assert.Greater(t, info.FileSize, int64(0))
			assert.Equal(t, 3, info.Cards)
			assert.Equal(t, 3, info.Notes)
			assert.Equal(t, 3, info.Decks)
			assert.Equal(t, ExpectedSchemaVersion, info.SchemaVersion)
			assert.False(t, info.IsAuto)

			dir := filepath.Join(filepath.Dir(store.Path()), "checkpoints")
			_, err = os.Stat(filepath.Join(dir, info.ID+".db"))
			assert.NoError(t, err)
			_, err = os.Stat(filepath.Join(dir, info.ID+".meta.json"))
			assert.NoError(t, err)
		})
	}
}

func TestCheckpointManager_ListNewestFirst(t *testing.T) {
	_, manager, cleanup := setupCheckpointStore(t)
	defer cleanup()
	ctx := context.Background()

	for _, tag := range []string{"first", "second", "third"} {
		_, err := manager.Create(ctx, tag, tag)
		require.NoError(t, err)
	}

	list, err := manager.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].ID)
	assert.Equal(t, "first", list[2].ID)

	got, err := manager.Get(ctx, "second")
	require.NoError(t, err)
	assert.Equal(t, "second", got.Description)

	_, err = manager.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCheckpointNotFound)
}

func TestCheckpointManager_Restore(t *testing.T) {
	store, manager, cleanup := setupCheckpointStore(t)
	defer cleanup()
	ctx := context.Background()

	_, err := manager.Create(ctx, "pristine", "")
	require.NoError(t, err)

	require.NoError(t, store.DeleteCard(ctx, 1))
	require.NoError(t, store.ResetLapses(ctx, 2))

	require.NoError(t, manager.Restore(ctx, "pristine"))

	reopened, err := NewSQLiteStorage(store.Path())
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	card, err := reopened.GetCard(ctx, 1)
	require.NoError(t, err)
	assert.True(t, card.HasTag("leech"))

	card, err = reopened.GetCard(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 8, card.Lapses)
}

func TestCheckpointManager_RestoreMissing(t *testing.T) {
	_, manager, cleanup := setupCheckpointStore(t)
	defer cleanup()

	err := manager.Restore(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrCheckpointNotFound)
}

func TestCheckpointManager_Delete(t *testing.T) {
	_, manager, cleanup := setupCheckpointStore(t)
	defer cleanup()
	ctx := context.Background()

	_, err := manager.Create(ctx, "gone", "")
	require.NoError(t, err)

	require.NoError(t, manager.Delete(ctx, "gone"))
	assert.ErrorIs(t, manager.Delete(ctx, "gone"), ErrCheckpointNotFound)

	list, err := manager.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCheckpointManager_AutoCheckpointPrunes(t *testing.T) {
	_, manager, cleanup := setupCheckpointStore(t)
	defer cleanup()
	ctx := context.Background()

	_, err := manager.Create(ctx, "manual", "kept")
	require.NoError(t, err)

	for i := 0; i < maxAutoCheckpoints+2; i++ {
		info, err := manager.AutoCheckpoint(ctx, "leech-run")
		require.NoError(t, err)
		assert.True(t, info.IsAuto)
	}

	list, err := manager.List(ctx)
	require.NoError(t, err)

	auto := 0
	manual := 0
	for _, cp := range list {
		if cp.IsAuto {
			auto++
		} else {
			manual++
		}
	}
	assert.Equal(t, maxAutoCheckpoints, auto)
	assert.Equal(t, 1, manual)
}
