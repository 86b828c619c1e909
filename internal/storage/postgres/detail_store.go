package postgres

import (
	"context"
	"fmt"

	"backtest-review/internal/storage"
)

// DetailStore implements storage.DetailStore on the backtest_snapshots table.
// The payload column is JSON, not JSONB, so the document keeps its key order.
type DetailStore struct {
	pool *Pool
}

// NewDetailStore creates a new DetailStore.
func NewDetailStore(pool *Pool) *DetailStore {
	return &DetailStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DetailStore = (*DetailStore)(nil)

// Upsert inserts the snapshot or replaces the existing row for the same key.
func (s *DetailStore) Upsert(ctx context.Context, snap *storage.DetailSnapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO backtest_snapshots (user_id, backtest_id, name, status, payload, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, backtest_id) DO UPDATE
		SET name = EXCLUDED.name,
		    status = EXCLUDED.status,
		    payload = EXCLUDED.payload,
		    fetched_at = EXCLUDED.fetched_at
	`, snap.UserID, snap.BacktestID, snap.Name, snap.Status, string(snap.Payload), snap.FetchedAt.UTC())
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

// Get retrieves the snapshot of a user's backtest.
func (s *DetailStore) Get(ctx context.Context, userID, backtestID string) (*storage.DetailSnapshot, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT user_id, backtest_id, name, status, payload::text, fetched_at
		FROM backtest_snapshots
		WHERE user_id = $1 AND backtest_id = $2
	`, userID, backtestID)

	var snap storage.DetailSnapshot
	var payload string
	err := row.Scan(&snap.UserID, &snap.BacktestID, &snap.Name, &snap.Status, &payload, &snap.FetchedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	snap.Payload = []byte(payload)
	snap.FetchedAt = snap.FetchedAt.UTC()
	return &snap, nil
}

// ListByUser returns a user's snapshots without payloads, newest first.
func (s *DetailStore) ListByUser(ctx context.Context, userID string) ([]*storage.DetailSnapshot, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT user_id, backtest_id, name, status, fetched_at
		FROM backtest_snapshots
		WHERE user_id = $1
		ORDER BY fetched_at DESC, backtest_id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query snapshots by user: %w", err)
	}
	defer rows.Close()

	var result []*storage.DetailSnapshot
	for rows.Next() {
		var snap storage.DetailSnapshot
		if err := rows.Scan(&snap.UserID, &snap.BacktestID, &snap.Name, &snap.Status, &snap.FetchedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.FetchedAt = snap.FetchedAt.UTC()
		result = append(result, &snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}

	return result, nil
}
