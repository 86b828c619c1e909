// Package main runs the review HTTP API together with a Prometheus metrics server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"backtest-review/internal/backend"
	"backtest-review/internal/config"
	"backtest-review/internal/httpapi"
	"backtest-review/internal/logger"
	"backtest-review/internal/observability"
	"backtest-review/internal/review"
	"backtest-review/internal/service"
	"backtest-review/internal/storage"
	"backtest-review/internal/storage/memory"
	"backtest-review/internal/storage/migrations"
	chstore "backtest-review/internal/storage/clickhouse"
	pgstore "backtest-review/internal/storage/postgres"
	"backtest-review/internal/trace"
)

const shutdownTimeout = 30 * time.Second

// stores holds the archive implementations.
type stores struct {
	details storage.DetailStore
	curves  storage.EquityCurveStore
}

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "Optional YAML config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (overrides config)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL and ClickHouse")
	flag.Parse()

	// Set before Load so validation does not demand DSNs.
	if *useMemory {
		_ = os.Setenv("USE_MEMORY", "true")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.HTTP.Addr = *addr
	}
	if *metricsAddr != "" {
		cfg.HTTP.MetricsAddr = *metricsAddr
	}

	log := logger.Component(logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}, os.Stdout), "server")
	if !cfg.EnvFileLoaded {
		log.Debug().Msg("no .env file found, using environment")
	}

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
	log.Info().Msg("shutdown complete")
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := trace.Init(ctx, trace.Config{Enabled: cfg.Tracing.Enabled, ServiceName: "backtest-review"})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown tracing")
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := observability.NewMetrics(observability.DefaultNamespace, reg)

	st, cleanup, err := createStores(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("create stores: %w", err)
	}
	defer cleanup()

	f, err := cfg.Formatter()
	if err != nil {
		return fmt.Errorf("create formatter: %w", err)
	}
	tax, err := cfg.Taxonomy()
	if err != nil {
		return fmt.Errorf("load taxonomy: %w", err)
	}

	client, err := backend.NewClient(backend.Options{
		BaseURL:         cfg.Backend.BaseURL,
		Timeout:         cfg.Backend.Timeout,
		RequestsPerSec:  cfg.Backend.RequestsPerSec,
		MaxRetryTimeout: cfg.Backend.MaxRetryTime,
	})
	if err != nil {
		return fmt.Errorf("create backend client: %w", err)
	}

	svc := service.New(service.Options{
		Fetcher:  client,
		Details:  st.details,
		Curves:   st.curves,
		Builder:  review.NewBuilder(f, tax, cfg.Review.PreviewLimit),
		CacheTTL: cfg.Review.CacheTTL,
		Metrics:  m,
		Tracer:   tp.Tracer(),
		Logger:   log,
	})

	api := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: httpapi.NewRouter(httpapi.Options{
			Service: svc,
			Logger:  log,
			Metrics: m,
			Tracer:  tp.Tracer(),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", observability.Handler(reg))
	metricsSrv := &http.Server{
		Addr:              cfg.HTTP.MetricsAddr,
		Handler:           metricsMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go serve(api, "api", log, errCh)
	go serve(metricsSrv, "metrics", log, errCh)

	select {
	case <-ctx.Done():
		log.Info().Msg("received shutdown signal")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Join(api.Shutdown(shutdownCtx), metricsSrv.Shutdown(shutdownCtx))
}

func serve(srv *http.Server, name string, log zerolog.Logger, errCh chan<- error) {
	log.Info().Str("addr", srv.Addr).Msgf("starting %s server", name)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errCh <- fmt.Errorf("%s server: %w", name, err)
	}
}

// createStores returns in-memory stores, or PostgreSQL and ClickHouse stores after
// running their migrations.
func createStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, func(), error) {
	if cfg.Storage.UseMemory {
		log.Info().Msg("using in-memory storage")
		return &stores{
			details: memory.NewDetailStore(),
			curves:  memory.NewEquityCurveStore(),
		}, func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN, cfg.Storage.PostgresMaxConns)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	applied, err := migrations.RunPostgresMigrations(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate postgres: %w", err)
	}
	log.Info().Strs("applied", applied).Msg("postgres migrations done")

	// ClickHouse
	chConn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate clickhouse: %w", err)
	}

	st := &stores{
		details: pgstore.NewDetailStore(pool),
		curves:  chstore.NewEquityCurveStore(chConn),
	}
	cleanup := func() {
		if err := chConn.Close(); err != nil {
			log.Error().Err(err).Msg("close clickhouse")
		}
		pool.Close()
	}
	return st, cleanup, nil
}
