package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backtest-review/internal/storage"
)

func testSnapshot(userID, backtestID string, fetchedAt time.Time) *storage.DetailSnapshot {
	return &storage.DetailSnapshot{
		UserID:     userID,
		BacktestID: backtestID,
		Name:       "Breakout",
		Status:     "completed",
		Payload:    []byte(`{"id": 7, "summary_metrics": {"z_last": 1, "a_first": 2}}`),
		FetchedAt:  fetchedAt,
	}
}

func TestDetailStore_UpsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewDetailStore(pool)
	fetched := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)

	snap := testSnapshot("u1", "7", fetched)
	require.NoError(t, store.Upsert(ctx, snap))

	got, err := store.Get(ctx, "u1", "7")
	require.NoError(t, err)

	assert.Equal(t, snap.Name, got.Name)
	assert.Equal(t, snap.Status, got.Status)
	assert.Equal(t, fetched, got.FetchedAt)
	// JSON column keeps the document verbatim, including key order.
	assert.Equal(t, string(snap.Payload), string(got.Payload))
}

func TestDetailStore_UpsertReplaces(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewDetailStore(pool)
	fetched := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.Upsert(ctx, testSnapshot("u1", "7", fetched)))

	updated := testSnapshot("u1", "7", fetched.Add(time.Hour))
	updated.Status = "failed"
	updated.Payload = []byte(`{"id": 7}`)
	require.NoError(t, store.Upsert(ctx, updated))

	got, err := store.Get(ctx, "u1", "7")
	require.NoError(t, err)
	assert.Equal(t, "failed", got.Status)
	assert.Equal(t, `{"id": 7}`, string(got.Payload))
	assert.Equal(t, fetched.Add(time.Hour), got.FetchedAt)
}

func TestDetailStore_GetNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := NewDetailStore(pool).Get(context.Background(), "u1", "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDetailStore_UpsertInvalid(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewDetailStore(pool)
	err := store.Upsert(context.Background(), &storage.DetailSnapshot{UserID: "u1"})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestDetailStore_ListByUser(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewDetailStore(pool)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Upsert(ctx, testSnapshot("u1", "1", base)))
	require.NoError(t, store.Upsert(ctx, testSnapshot("u1", "2", base.Add(time.Hour))))
	require.NoError(t, store.Upsert(ctx, testSnapshot("u2", "3", base.Add(2*time.Hour))))

	list, err := store.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2", list[0].BacktestID)
	assert.Equal(t, "1", list[1].BacktestID)
	assert.Nil(t, list[0].Payload)

	empty, err := store.ListByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
