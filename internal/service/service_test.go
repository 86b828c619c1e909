package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backtest-review/internal/backend"
	"backtest-review/internal/domain"
	"backtest-review/internal/format"
	"backtest-review/internal/metrics"
	"backtest-review/internal/observability"
	"backtest-review/internal/review"
	"backtest-review/internal/storage"
	"backtest-review/internal/storage/memory"
	"backtest-review/internal/value"
)

const payload = `{
  "id": 9,
  "backtest_name": "Mean Reversion",
  "status": "completed",
  "summary_metrics": {"Number_of_Trades": 3, "final_pnl": -12.5},
  "equity_curve": [
    {"date": "2024-01-01", "balance": 1000},
    {"date": null, "balance": 987.5}
  ]
}`

// fakeFetcher returns queued results in order, repeating the last one.
type fakeFetcher struct {
	mu      sync.Mutex
	results []error
	calls   int
}

func (f *fakeFetcher) FetchBacktestDetail(_ context.Context, _, _ string) (*domain.BacktestDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.calls
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	f.calls++
	if err := f.results[i]; err != nil {
		return nil, err
	}
	return domain.DecodeBacktestDetail([]byte(payload))
}

type fixture struct {
	svc     *ReviewService
	fetcher *fakeFetcher
	details *memory.DetailStore
	curves  *memory.EquityCurveStore
	reg     *prometheus.Registry
}

func newFixture(t *testing.T, ttl time.Duration, results ...error) *fixture {
	t.Helper()
	if len(results) == 0 {
		results = []error{nil}
	}
	f := &fixture{
		fetcher: &fakeFetcher{results: results},
		details: memory.NewDetailStore(),
		curves:  memory.NewEquityCurveStore(),
		reg:     prometheus.NewRegistry(),
	}
	f.svc = New(Options{
		Fetcher:  f.fetcher,
		Details:  f.details,
		Curves:   f.curves,
		Builder:  review.NewBuilder(format.Default(), metrics.DefaultTaxonomy(), 10),
		CacheTTL: ttl,
		Metrics:  observability.NewMetrics("test", f.reg),
		Logger:   zerolog.Nop(),
	}).WithClock(func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) })
	return f
}

func TestReview_LiveArchivesPayloadAndCurve(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	r, err := f.svc.Review(ctx, "u1", "9")
	require.NoError(t, err)
	assert.Equal(t, "Mean Reversion", r.Title)
	assert.False(t, r.Stale)
	assert.Equal(t, "-$12.50", r.Headline[1].Value)

	snap, err := f.details.Get(ctx, "u1", "9")
	require.NoError(t, err)
	assert.Equal(t, "Mean Reversion", snap.Name)
	assert.Equal(t, "completed", snap.Status)
	assert.JSONEq(t, payload, string(snap.Payload))
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), snap.FetchedAt)

	curve, err := f.svc.EquityCurve(ctx, "u1", "9")
	require.NoError(t, err)
	assert.Equal(t, []storage.CurvePoint{
		{Seq: 0, Date: "2024-01-01", Balance: 1000},
		{Seq: 1, Date: "", Balance: 987.5},
	}, curve)
}

func TestReview_Cache(t *testing.T) {
	f := newFixture(t, time.Minute)
	ctx := context.Background()

	first, err := f.svc.Review(ctx, "u1", "9")
	require.NoError(t, err)
	second, err := f.svc.Review(ctx, "u1", "9")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, f.fetcher.calls)

	f.svc.Invalidate("u1", "9")
	_, err = f.svc.Review(ctx, "u1", "9")
	require.NoError(t, err)
	assert.Equal(t, 2, f.fetcher.calls)
}

func TestReview_StaleFallback(t *testing.T) {
	outage := &backend.APIError{StatusCode: 503, Message: "down"}
	f := newFixture(t, 0, nil, outage)
	ctx := context.Background()

	_, err := f.svc.Review(ctx, "u1", "9")
	require.NoError(t, err)

	r, err := f.svc.Review(ctx, "u1", "9")
	require.NoError(t, err)
	assert.True(t, r.Stale)
	assert.Equal(t, "Mean Reversion", r.Title)
}

func TestReview_ClientErrorSkipsArchive(t *testing.T) {
	notFound := &backend.APIError{StatusCode: 404, Message: "Backtest not found"}
	f := newFixture(t, 0, nil, notFound)
	ctx := context.Background()

	_, err := f.svc.Review(ctx, "u1", "9")
	require.NoError(t, err)

	_, err = f.svc.Review(ctx, "u1", "9")
	var apiErr *backend.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 404, apiErr.StatusCode)
}

func TestReview_NoArchiveReturnsError(t *testing.T) {
	f := newFixture(t, 0, errors.New("connection refused"))

	_, err := f.svc.Review(context.Background(), "u1", "9")
	assert.ErrorContains(t, err, "connection refused")
}

func TestReview_WithoutStores(t *testing.T) {
	svc := New(Options{
		Fetcher: &fakeFetcher{results: []error{nil}},
		Builder: review.NewBuilder(format.Default(), metrics.DefaultTaxonomy(), 10),
		Logger:  zerolog.Nop(),
	})
	ctx := context.Background()

	r, err := svc.Review(ctx, "u1", "9")
	require.NoError(t, err)
	assert.Equal(t, "Mean Reversion", r.Title)

	list, err := svc.Archived(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.EquityCurve(ctx, "u1", "9")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestArchived(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	_, err := f.svc.Review(ctx, "u1", "9")
	require.NoError(t, err)

	list, err := f.svc.Archived(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "9", list[0].BacktestID)
}

func TestFetchErrorKind(t *testing.T) {
	assert.Equal(t, "", fetchErrorKind(nil))
	assert.Equal(t, "server", fetchErrorKind(&backend.APIError{StatusCode: 500}))
	assert.Equal(t, "client", fetchErrorKind(&backend.APIError{StatusCode: 422}))
	assert.Equal(t, "empty", fetchErrorKind(backend.ErrEmptyResponse))
	assert.Equal(t, "invalid", fetchErrorKind(domain.ErrInvalidDetail))
	assert.Equal(t, "invalid", fetchErrorKind(fmt.Errorf("decode backtest detail: %w", value.ErrTruncated)))
	assert.Equal(t, "too_large", fetchErrorKind(backend.ErrResponseTooLarge))
	assert.Equal(t, "transport", fetchErrorKind(errors.New("dial tcp")))
}

func TestReview_ErrorsMarkedAsBackend(t *testing.T) {
	f := newFixture(t, 0, &backend.APIError{StatusCode: 400, Message: "bad"})

	_, err := f.svc.Review(context.Background(), "u1", "9")
	assert.ErrorIs(t, err, ErrBackend)
	assert.True(t, backend.IsClientError(err))
}
