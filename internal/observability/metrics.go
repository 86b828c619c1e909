// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"backtest-review/internal/metrics"
)

// DefaultNamespace prefixes every metric when no namespace is given.
const DefaultNamespace = "backtest_review"

// Review sources.
const (
	SourceLive    = "live"
	SourceCache   = "cache"
	SourceArchive = "archive"
)

// Metrics holds all Prometheus metrics for the application.
// All Record methods are safe on a nil receiver.
type Metrics struct {
	// Review metrics
	ReviewsBuilt        *prometheus.CounterVec
	ReviewBuildDuration prometheus.Histogram
	MetricItems         *prometheus.CounterVec

	// Backend metrics
	BackendFetchDuration prometheus.Histogram
	BackendErrors        *prometheus.CounterVec
	LastSuccessfulFetch  prometheus.Gauge

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Store metrics
	StoreQueryDuration *prometheus.HistogramVec
	StoreErrors        *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewMetrics creates a Metrics instance registered on reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	factory := promauto.With(reg)

	return &Metrics{
		ReviewsBuilt: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "review",
			Name:      "built_total",
			Help:      "Total number of reviews built by source",
		}, []string{"source"}),
		ReviewBuildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "review",
			Name:      "build_duration_seconds",
			Help:      "Time to build a review from a backtest detail",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		MetricItems: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "review",
			Name:      "metric_items_total",
			Help:      "Total number of displayed metric items by value kind",
		}, []string{"kind"}),

		BackendFetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "fetch_duration_seconds",
			Help:      "Backtest detail fetch latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		BackendErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "errors_total",
			Help:      "Total number of failed backtest detail fetches by kind",
		}, []string{"kind"}),
		LastSuccessfulFetch: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "last_successful_fetch_timestamp",
			Help:      "Unix timestamp of the last successful backend fetch",
		}),

		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of review cache hits",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total number of review cache misses",
		}),

		StoreQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "query_duration_seconds",
			Help:      "Store operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"store", "operation"}),
		StoreErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "errors_total",
			Help:      "Total number of store operation errors",
		}, []string{"store", "operation"}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status",
		}, []string{"route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// RecordReview records a review served from source.
func (m *Metrics) RecordReview(source string) {
	if m == nil {
		return
	}
	m.ReviewsBuilt.WithLabelValues(source).Inc()
}

// RecordBuild records the build duration and the kinds of the displayed metrics.
func (m *Metrics) RecordBuild(d time.Duration, groups []metrics.MetricGroup) {
	if m == nil {
		return
	}
	m.ReviewBuildDuration.Observe(d.Seconds())
	for _, g := range groups {
		for _, item := range g.Items {
			m.MetricItems.WithLabelValues(string(item.Kind)).Inc()
		}
	}
}

// RecordBackendFetch records a fetch. errKind is empty on success.
func (m *Metrics) RecordBackendFetch(d time.Duration, errKind string) {
	if m == nil {
		return
	}
	m.BackendFetchDuration.Observe(d.Seconds())
	if errKind != "" {
		m.BackendErrors.WithLabelValues(errKind).Inc()
		return
	}
	m.LastSuccessfulFetch.SetToCurrentTime()
}

// RecordCache records a cache lookup.
func (m *Metrics) RecordCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.Inc()
	} else {
		m.CacheMisses.Inc()
	}
}

// RecordStore records a store operation.
func (m *Metrics) RecordStore(store, operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.StoreQueryDuration.WithLabelValues(store, operation).Observe(d.Seconds())
	if err != nil {
		m.StoreErrors.WithLabelValues(store, operation).Inc()
	}
}

// RecordHTTP records a served request.
func (m *Metrics) RecordHTTP(route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, http.StatusText(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}
