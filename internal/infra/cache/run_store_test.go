package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

func setupRunStore(t *testing.T) (*RunStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return NewRunStore(client, time.Hour), mr
}

func TestRunStore_SaveAndGet(t *testing.T) {
	store, mr := setupRunStore(t)
	ctx := context.Background()

	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rec := usecase.RunRecord{
		RunID:  "run-1",
		Source: entity.SourceBulkUpload,
		Status: usecase.RunStatusPartial,
		Summary: &usecase.RunSummary{
			RunID:   "run-1",
			Source:  entity.SourceBulkUpload,
			Created: 2,
			Skipped: 1,
			Errors:  []usecase.RecordError{{Context: "record 3", Message: "boom"}},
		},
		StartedAt: started,
		EndedAt:   started.Add(time.Second),
	}

	require.NoError(t, store.Save(ctx, rec))
	assert.True(t, mr.Exists(runKeyPrefix+"run-1"))
	assert.Equal(t, time.Hour, mr.TTL(runKeyPrefix+"run-1"))

	got, err := store.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, usecase.RunStatusPartial, got.Status)
	require.NotNil(t, got.Summary)
	assert.Equal(t, 2, got.Summary.Created)
	assert.Equal(t, "record 3", got.Summary.Errors[0].Context)
	assert.True(t, started.Equal(got.StartedAt))
}

func TestRunStore_GetMissing(t *testing.T) {
	store, _ := setupRunStore(t)

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestRunStore_GetExpired(t *testing.T) {
	store, mr := setupRunStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, usecase.RunRecord{RunID: "old", Status: usecase.RunStatusSuccess}))
	mr.FastForward(2 * time.Hour)

	_, err := store.Get(ctx, "old")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestRunStore_RecentNewestFirst(t *testing.T) {
	store, _ := setupRunStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Save(ctx, usecase.RunRecord{RunID: id, Status: usecase.RunStatusSuccess}))
	}

	ids, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, ids)
}

func TestRunStore_Ping(t *testing.T) {
	store, mr := setupRunStore(t)
	require.NoError(t, store.Ping(context.Background()))

	mr.SetError("server down")
	assert.Error(t, store.Ping(context.Background()))
	mr.SetError("")
}
