// Package memory provides in-memory store implementations for tests and local runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"backtest-review/internal/storage"
)

// DetailStore is an in-memory implementation of storage.DetailStore.
type DetailStore struct {
	mu        sync.RWMutex
	snapshots map[string]*storage.DetailSnapshot
}

// NewDetailStore creates a new in-memory detail store.
func NewDetailStore() *DetailStore {
	return &DetailStore{
		snapshots: make(map[string]*storage.DetailSnapshot),
	}
}

// Compile-time interface check.
var _ storage.DetailStore = (*DetailStore)(nil)

// Upsert stores a copy of the snapshot.
func (s *DetailStore) Upsert(_ context.Context, snap *storage.DetailSnapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[key(snap.UserID, snap.BacktestID)] = copySnapshot(snap, true)
	return nil
}

// Get returns a copy of the stored snapshot.
func (s *DetailStore) Get(_ context.Context, userID, backtestID string) (*storage.DetailSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[key(userID, backtestID)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copySnapshot(snap, true), nil
}

// ListByUser returns the user's snapshots without payloads, newest first.
func (s *DetailStore) ListByUser(_ context.Context, userID string) ([]*storage.DetailSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*storage.DetailSnapshot
	for _, snap := range s.snapshots {
		if snap.UserID == userID {
			result = append(result, copySnapshot(snap, false))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].FetchedAt.Equal(result[j].FetchedAt) {
			return result[i].FetchedAt.After(result[j].FetchedAt)
		}
		return result[i].BacktestID < result[j].BacktestID
	})
	return result, nil
}

func copySnapshot(s *storage.DetailSnapshot, withPayload bool) *storage.DetailSnapshot {
	c := *s
	c.Payload = nil
	if withPayload {
		c.Payload = append([]byte(nil), s.Payload...)
	}
	return &c
}

func key(userID, backtestID string) string {
	return userID + "|" + backtestID
}
