// Package service serves backtest reviews: it fetches backtest details from
// the backend, archives them, and builds reviews with caching and a stale
// fallback to the archive when the backend is unavailable.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"backtest-review/internal/backend"
	"backtest-review/internal/domain"
	"backtest-review/internal/observability"
	"backtest-review/internal/review"
	"backtest-review/internal/storage"
	"backtest-review/internal/value"
)

// Store names used in metrics and logs.
const (
	storeDetails = "details"
	storeCurves  = "curves"
)

// ErrBackend marks errors from fetching a backtest detail.
var ErrBackend = errors.New("backend request failed")

// DetailFetcher fetches a backtest detail from the backend.
type DetailFetcher interface {
	FetchBacktestDetail(ctx context.Context, userID, backtestID string) (*domain.BacktestDetail, error)
}

// Options configures a ReviewService. Details and Curves are optional; without
// Details there is no archive and no stale fallback.
type Options struct {
	Fetcher  DetailFetcher
	Details  storage.DetailStore
	Curves   storage.EquityCurveStore
	Builder  *review.Builder
	CacheTTL time.Duration // zero disables caching
	Metrics  *observability.Metrics
	Tracer   trace.Tracer
	Logger   zerolog.Logger
}

// ReviewService builds reviews for a user's backtests.
// Reviews returned from the cache are shared and must not be modified.
type ReviewService struct {
	fetcher DetailFetcher
	details storage.DetailStore
	curves  storage.EquityCurveStore
	builder *review.Builder
	cache   *cache.Cache
	metrics *observability.Metrics
	tracer  trace.Tracer
	logger  zerolog.Logger
	now     func() time.Time // Injectable clock for archive timestamps
}

// New creates a ReviewService.
func New(opts Options) *ReviewService {
	s := &ReviewService{
		fetcher: opts.Fetcher,
		details: opts.Details,
		curves:  opts.Curves,
		builder: opts.Builder,
		metrics: opts.Metrics,
		tracer:  opts.Tracer,
		logger:  opts.Logger.With().Str("component", "review_service").Logger(),
		now:     time.Now,
	}
	if s.tracer == nil {
		s.tracer = noop.NewTracerProvider().Tracer("")
	}
	if opts.CacheTTL > 0 {
		s.cache = cache.New(opts.CacheTTL, 2*opts.CacheTTL)
	}
	return s
}

// WithClock sets a custom clock function for archive timestamps.
func (s *ReviewService) WithClock(now func() time.Time) *ReviewService {
	s.now = now
	return s
}

// Review returns the review of a user's backtest. Backend failures other than
// 4xx responses fall back to the archived snapshot, marked stale.
func (s *ReviewService) Review(ctx context.Context, userID, backtestID string) (*review.Review, error) {
	ctx, span := s.tracer.Start(ctx, "ReviewService.Review", trace.WithAttributes(
		attribute.String("user_id", userID),
		attribute.String("backtest_id", backtestID),
	))
	defer span.End()

	key := userID + "|" + backtestID
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			s.metrics.RecordCache(true)
			s.metrics.RecordReview(observability.SourceCache)
			span.SetAttributes(attribute.String("source", observability.SourceCache))
			return cached.(*review.Review), nil
		}
		s.metrics.RecordCache(false)
	}

	detail, err := s.fetch(ctx, userID, backtestID)
	if err != nil {
		r, archiveErr := s.fromArchive(ctx, userID, backtestID, err)
		if archiveErr != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		span.SetAttributes(attribute.String("source", observability.SourceArchive))
		return r, nil
	}

	s.archive(ctx, userID, backtestID, detail)

	r := s.build(detail)
	if s.cache != nil {
		s.cache.SetDefault(key, r)
	}
	s.metrics.RecordReview(observability.SourceLive)
	span.SetAttributes(attribute.String("source", observability.SourceLive))
	return r, nil
}

// Archived lists the archived snapshots of a user, newest first.
func (s *ReviewService) Archived(ctx context.Context, userID string) ([]*storage.DetailSnapshot, error) {
	if s.details == nil {
		return nil, nil
	}
	start := time.Now()
	list, err := s.details.ListByUser(ctx, userID)
	s.metrics.RecordStore(storeDetails, "list", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("list archived snapshots: %w", err)
	}
	return list, nil
}

// EquityCurve returns the stored equity curve of a backtest.
// Returns storage.ErrNotFound when nothing is stored or no curve store is configured.
func (s *ReviewService) EquityCurve(ctx context.Context, userID, backtestID string) ([]storage.CurvePoint, error) {
	if s.curves == nil {
		return nil, storage.ErrNotFound
	}
	start := time.Now()
	points, err := s.curves.GetCurve(ctx, userID, backtestID)
	s.metrics.RecordStore(storeCurves, "get", time.Since(start), ignoreNotFound(err))
	if err != nil {
		return nil, fmt.Errorf("get equity curve: %w", err)
	}
	return points, nil
}

// Invalidate drops a cached review.
func (s *ReviewService) Invalidate(userID, backtestID string) {
	if s.cache != nil {
		s.cache.Delete(userID + "|" + backtestID)
	}
}

func (s *ReviewService) fetch(ctx context.Context, userID, backtestID string) (*domain.BacktestDetail, error) {
	ctx, span := s.tracer.Start(ctx, "backend.FetchBacktestDetail")
	defer span.End()

	start := time.Now()
	detail, err := s.fetcher.FetchBacktestDetail(ctx, userID, backtestID)
	s.metrics.RecordBackendFetch(time.Since(start), fetchErrorKind(err))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: backtest %s: %w", ErrBackend, backtestID, err)
	}
	return detail, nil
}

// fromArchive builds a stale review from the archived snapshot after a failed fetch.
func (s *ReviewService) fromArchive(ctx context.Context, userID, backtestID string, fetchErr error) (*review.Review, error) {
	if s.details == nil || backend.IsClientError(fetchErr) || errors.Is(fetchErr, context.Canceled) {
		return nil, fetchErr
	}

	start := time.Now()
	snap, err := s.details.Get(ctx, userID, backtestID)
	s.metrics.RecordStore(storeDetails, "get", time.Since(start), ignoreNotFound(err))
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Error().Err(err).Str("backtest_id", backtestID).Msg("read archived snapshot")
		}
		return nil, fetchErr
	}

	detail, err := domain.DecodeBacktestDetail(snap.Payload)
	if err != nil {
		s.logger.Error().Err(err).Str("backtest_id", backtestID).Msg("decode archived snapshot")
		return nil, fetchErr
	}

	s.logger.Warn().
		Err(fetchErr).
		Str("user_id", userID).
		Str("backtest_id", backtestID).
		Time("fetched_at", snap.FetchedAt).
		Msg("backend unavailable, serving archived snapshot")

	r := s.build(detail)
	r.Stale = true
	s.metrics.RecordReview(observability.SourceArchive)
	return r, nil
}

// archive stores the raw payload and the equity curve. Failures are logged,
// the review is still served.
func (s *ReviewService) archive(ctx context.Context, userID, backtestID string, d *domain.BacktestDetail) {
	if s.details != nil && len(d.Raw) > 0 {
		snap := &storage.DetailSnapshot{
			UserID:     userID,
			BacktestID: backtestID,
			Status:     d.Status,
			Payload:    d.Raw,
			FetchedAt:  s.now().UTC(),
		}
		if d.Name != nil {
			snap.Name = *d.Name
		}

		start := time.Now()
		err := s.details.Upsert(ctx, snap)
		s.metrics.RecordStore(storeDetails, "upsert", time.Since(start), err)
		if err != nil {
			s.logger.Error().Err(err).Str("backtest_id", backtestID).Msg("archive snapshot")
		}
	}

	if s.curves != nil && len(d.EquityCurve) > 0 {
		points := make([]storage.CurvePoint, len(d.EquityCurve))
		for i, p := range d.EquityCurve {
			points[i] = storage.CurvePoint{Seq: uint32(i), Balance: p.Balance}
			if p.Date != nil {
				points[i].Date = *p.Date
			}
		}

		start := time.Now()
		err := s.curves.ReplaceCurve(ctx, userID, backtestID, points)
		s.metrics.RecordStore(storeCurves, "replace", time.Since(start), err)
		if err != nil {
			s.logger.Error().Err(err).Str("backtest_id", backtestID).Msg("store equity curve")
		}
	}
}

func (s *ReviewService) build(d *domain.BacktestDetail) *review.Review {
	start := time.Now()
	r := s.builder.Build(d)
	s.metrics.RecordBuild(time.Since(start), r.Groups)
	return r
}

// fetchErrorKind labels a fetch error for metrics. Empty for nil.
func fetchErrorKind(err error) string {
	var apiErr *backend.APIError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr) && apiErr.StatusCode >= 500:
		return "server"
	case errors.As(err, &apiErr):
		return "client"
	case errors.Is(err, backend.ErrEmptyResponse):
		return "empty"
	case errors.Is(err, backend.ErrResponseTooLarge):
		return "too_large"
	case errors.Is(err, domain.ErrInvalidDetail), errors.Is(err, value.ErrTruncated), errors.Is(err, value.ErrTrailingData):
		return "invalid"
	default:
		return "transport"
	}
}

func ignoreNotFound(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}
