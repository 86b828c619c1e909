package storage

import (
	"context"
	"time"
)

// DetailSnapshot is an archived backtest-detail payload as returned by the backend.
type DetailSnapshot struct {
	UserID     string
	BacktestID string
	Name       string // backtest_name at fetch time, may be empty
	Status     string
	Payload    []byte // raw JSON document, key order preserved
	FetchedAt  time.Time
}

// Validate checks the fields every store requires.
func (s *DetailSnapshot) Validate() error {
	if s == nil || s.UserID == "" || s.BacktestID == "" || len(s.Payload) == 0 {
		return ErrInvalidInput
	}
	return nil
}

// DetailStore archives the latest backtest-detail payload per (user, backtest).
type DetailStore interface {
	// Upsert stores the snapshot, replacing any previous one for the same key.
	Upsert(ctx context.Context, s *DetailSnapshot) error

	// Get returns the snapshot for a user's backtest. Returns ErrNotFound if not exists.
	Get(ctx context.Context, userID, backtestID string) (*DetailSnapshot, error)

	// ListByUser returns all snapshots of a user, most recently fetched first.
	// Payload is not populated.
	ListByUser(ctx context.Context, userID string) ([]*DetailSnapshot, error)
}

// CurvePoint is one stored equity-curve sample.
type CurvePoint struct {
	Seq     uint32
	Date    string // as received, may be empty
	Balance float64
}

// EquityCurveStore keeps the equity curve of each backtest as a timeseries.
type EquityCurveStore interface {
	// ReplaceCurve stores points as the current curve of the backtest.
	// Returns ErrInvalidInput for empty keys or an empty curve.
	ReplaceCurve(ctx context.Context, userID, backtestID string, points []CurvePoint) error

	// GetCurve returns the current curve ordered by Seq. Returns ErrNotFound if none stored.
	GetCurve(ctx context.Context, userID, backtestID string) ([]CurvePoint, error)
}
