package clickhouse

import (
	"context"
	"fmt"
	"time"

	"backtest-review/internal/storage"
)

// EquityCurveStore implements storage.EquityCurveStore on the equity_curves table.
// Every ReplaceCurve writes the full curve under a new version; GetCurve reads
// only the newest version, so points left over from a longer old curve are ignored.
type EquityCurveStore struct {
	conn *Conn
	now  func() time.Time // Injectable clock for version numbers
}

// NewEquityCurveStore creates a new EquityCurveStore.
func NewEquityCurveStore(conn *Conn) *EquityCurveStore {
	return &EquityCurveStore{conn: conn, now: time.Now}
}

// Compile-time interface check.
var _ storage.EquityCurveStore = (*EquityCurveStore)(nil)

// ReplaceCurve writes points as the current curve of the backtest.
func (s *EquityCurveStore) ReplaceCurve(ctx context.Context, userID, backtestID string, points []storage.CurvePoint) error {
	if userID == "" || backtestID == "" || len(points) == 0 {
		return storage.ErrInvalidInput
	}

	version := uint64(s.now().UnixNano())

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO equity_curves (user_id, backtest_id, version, seq, point_date, balance)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		if err := batch.Append(userID, backtestID, version, p.Seq, p.Date, p.Balance); err != nil {
			if abortErr := batch.Abort(); abortErr != nil {
				return fmt.Errorf("append to batch: %w (abort: %v)", err, abortErr)
			}
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetCurve returns the newest curve ordered by seq.
func (s *EquityCurveStore) GetCurve(ctx context.Context, userID, backtestID string) ([]storage.CurvePoint, error) {
	query := `
		SELECT seq, point_date, balance
		FROM equity_curves FINAL
		WHERE user_id = ? AND backtest_id = ?
		  AND version = (
			SELECT max(version) FROM equity_curves
			WHERE user_id = ? AND backtest_id = ?
		  )
		ORDER BY seq ASC
	`

	rows, err := s.conn.Query(ctx, query, userID, backtestID, userID, backtestID)
	if err != nil {
		return nil, fmt.Errorf("query equity curve: %w", err)
	}
	defer rows.Close()

	var result []storage.CurvePoint
	for rows.Next() {
		var p storage.CurvePoint
		if err := rows.Scan(&p.Seq, &p.Date, &p.Balance); err != nil {
			return nil, fmt.Errorf("scan curve point: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate curve points: %w", err)
	}

	if len(result) == 0 {
		return nil, storage.ErrNotFound
	}
	return result, nil
}
