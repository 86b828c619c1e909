// Package httpapi exposes reviews over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"backtest-review/internal/observability"
	"backtest-review/internal/review"
	"backtest-review/internal/storage"
	apptrace "backtest-review/internal/trace"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// Reviewer is the service the handlers call.
type Reviewer interface {
	Review(ctx context.Context, userID, backtestID string) (*review.Review, error)
	Archived(ctx context.Context, userID string) ([]*storage.DetailSnapshot, error)
	EquityCurve(ctx context.Context, userID, backtestID string) ([]storage.CurvePoint, error)
}

// Options configures the router.
type Options struct {
	Service Reviewer
	Logger  zerolog.Logger
	Metrics *observability.Metrics
	Tracer  trace.Tracer
}

type server struct {
	svc     Reviewer
	logger  zerolog.Logger
	metrics *observability.Metrics
	tracer  trace.Tracer
}

// NewRouter returns the HTTP handler with all routes and middleware.
func NewRouter(opts Options) http.Handler {
	s := &server{
		svc:     opts.Service,
		logger:  opts.Logger.With().Str("component", "httpapi").Logger(),
		metrics: opts.Metrics,
		tracer:  opts.Tracer,
	}
	if s.tracer == nil {
		s.tracer = noop.NewTracerProvider().Tracer("")
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/backtests/{backtestID}/review", s.handleReview)
	r.Get("/backtests/{backtestID}/equity-curve", s.handleEquityCurve)
	r.Get("/users/{userID}/reviews", s.handleArchived)

	return r
}

type requestIDKey struct{}

// requestID assigns each request an ID, reusing a valid incoming one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// RequestID returns the request ID stored in ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// instrument wraps each request in a span, records metrics and writes the access log.
func (s *server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx, span := s.tracer.Start(r.Context(), r.Method+" "+r.URL.Path, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		duration := time.Since(start)

		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
			attribute.String("request_id", RequestID(r.Context())),
		)
		s.metrics.RecordHTTP(route, status, duration)

		event := s.logger.Info()
		if status >= 500 {
			event = s.logger.Error()
		}
		if traceID, _, ok := apptrace.Fields(ctx); ok {
			event = event.Str("trace_id", traceID)
		}
		event.
			Str("request_id", RequestID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("route", route).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", duration).
			Msg("request")
	})
}
