package memory

import (
	"context"
	"sort"
	"sync"

	"backtest-review/internal/storage"
)

// EquityCurveStore is an in-memory implementation of storage.EquityCurveStore.
type EquityCurveStore struct {
	mu     sync.RWMutex
	curves map[string][]storage.CurvePoint
}

// NewEquityCurveStore creates a new in-memory equity curve store.
func NewEquityCurveStore() *EquityCurveStore {
	return &EquityCurveStore{
		curves: make(map[string][]storage.CurvePoint),
	}
}

// Compile-time interface check.
var _ storage.EquityCurveStore = (*EquityCurveStore)(nil)

// ReplaceCurve stores a sorted copy of points as the current curve.
func (s *EquityCurveStore) ReplaceCurve(_ context.Context, userID, backtestID string, points []storage.CurvePoint) error {
	if userID == "" || backtestID == "" || len(points) == 0 {
		return storage.ErrInvalidInput
	}

	curve := make([]storage.CurvePoint, len(points))
	copy(curve, points)
	sort.SliceStable(curve, func(i, j int) bool { return curve[i].Seq < curve[j].Seq })

	s.mu.Lock()
	defer s.mu.Unlock()

	s.curves[key(userID, backtestID)] = curve
	return nil
}

// GetCurve returns a copy of the current curve.
func (s *EquityCurveStore) GetCurve(_ context.Context, userID, backtestID string) ([]storage.CurvePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	curve, ok := s.curves[key(userID, backtestID)]
	if !ok {
		return nil, storage.ErrNotFound
	}

	result := make([]storage.CurvePoint, len(curve))
	copy(result, curve)
	return result, nil
}
