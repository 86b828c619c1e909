// Package config loads service configuration from .env, an optional YAML file
// and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"backtest-review/internal/format"
	"backtest-review/internal/metrics"
	"backtest-review/internal/review"
)

// Config holds all application configuration.
type Config struct {
	Backend struct {
		BaseURL        string        `yaml:"base_url"`
		Timeout        time.Duration `yaml:"timeout"`
		RequestsPerSec int           `yaml:"requests_per_sec"`
		MaxRetryTime   time.Duration `yaml:"max_retry_time"`
	} `yaml:"backend"`

	HTTP struct {
		Addr        string `yaml:"addr"`
		MetricsAddr string `yaml:"metrics_addr"`
	} `yaml:"http"`

	Storage struct {
		UseMemory        bool   `yaml:"use_memory"`
		PostgresDSN      string `yaml:"postgres_dsn"`
		PostgresMaxConns int32  `yaml:"postgres_max_conns"`
		ClickhouseDSN    string `yaml:"clickhouse_dsn"`
	} `yaml:"storage"`

	Review struct {
		Locale       string        `yaml:"locale"`
		Timezone     string        `yaml:"timezone"`
		PreviewLimit int           `yaml:"preview_limit"`
		TaxonomyFile string        `yaml:"taxonomy_file"`
		CacheTTL     time.Duration `yaml:"cache_ttl"`
	} `yaml:"review"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Tracing struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"tracing"`

	// EnvFileLoaded is true when a .env file was found.
	EnvFileLoaded bool `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	var cfg Config
	cfg.Backend.BaseURL = "http://localhost:8000"
	cfg.Backend.Timeout = 30 * time.Second
	cfg.Backend.RequestsPerSec = 5
	cfg.Backend.MaxRetryTime = 30 * time.Second
	cfg.HTTP.Addr = ":8080"
	cfg.HTTP.MetricsAddr = ":9090"
	cfg.Storage.UseMemory = true
	cfg.Review.Locale = "en-US"
	cfg.Review.Timezone = "UTC"
	cfg.Review.PreviewLimit = review.DefaultPreviewLimit
	cfg.Review.CacheTTL = 5 * time.Minute
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	return &cfg
}

// Load reads .env (if present), then the YAML file at path (if non-empty),
// then environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err == nil {
		cfg.EnvFileLoaded = true
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var errs []error

	setString(&c.Backend.BaseURL, "BACKTEST_API_BASE_URL")
	errs = append(errs,
		setDuration(&c.Backend.Timeout, "BACKTEST_API_TIMEOUT"),
		setInt(&c.Backend.RequestsPerSec, "BACKTEST_API_RPS"),
		setDuration(&c.Backend.MaxRetryTime, "BACKTEST_API_MAX_RETRY"),
	)

	setString(&c.HTTP.Addr, "HTTP_ADDR")
	setString(&c.HTTP.MetricsAddr, "METRICS_ADDR")

	setString(&c.Storage.PostgresDSN, "POSTGRES_DSN")
	setString(&c.Storage.ClickhouseDSN, "CLICKHOUSE_DSN")
	errs = append(errs, setBool(&c.Storage.UseMemory, "USE_MEMORY"))
	if v := os.Getenv("POSTGRES_MAX_CONNS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			errs = append(errs, fmt.Errorf("POSTGRES_MAX_CONNS: %w", err))
		} else {
			c.Storage.PostgresMaxConns = int32(n)
		}
	}

	setString(&c.Review.Locale, "REVIEW_LOCALE")
	setString(&c.Review.Timezone, "REVIEW_TIMEZONE")
	setString(&c.Review.TaxonomyFile, "REVIEW_TAXONOMY_FILE")
	errs = append(errs,
		setInt(&c.Review.PreviewLimit, "REVIEW_PREVIEW_LIMIT"),
		setDuration(&c.Review.CacheTTL, "REVIEW_CACHE_TTL"),
	)

	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
	errs = append(errs, setBool(&c.Tracing.Enabled, "TRACING_ENABLED"))

	return errors.Join(errs...)
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		errs = append(errs, errors.New("backend base url is required"))
	}
	if c.Review.PreviewLimit <= 0 {
		errs = append(errs, errors.New("preview limit must be positive"))
	}
	if c.Backend.RequestsPerSec <= 0 {
		errs = append(errs, errors.New("requests per second must be positive"))
	}
	if !c.Storage.UseMemory && (c.Storage.PostgresDSN == "" || c.Storage.ClickhouseDSN == "") {
		errs = append(errs, errors.New("postgres and clickhouse DSNs are required unless use_memory is set"))
	}
	if _, err := time.LoadLocation(c.Review.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Review.Timezone, err))
	}
	return errors.Join(errs...)
}

// Formatter returns the formatter for the configured locale and time zone.
func (c *Config) Formatter() (format.Formatter, error) {
	loc, err := time.LoadLocation(c.Review.Timezone)
	if err != nil {
		return format.Formatter{}, fmt.Errorf("load timezone: %w", err)
	}
	return format.ParseLocale(c.Review.Locale, loc), nil
}

// Taxonomy returns the taxonomy from the configured file, or the built-in one.
func (c *Config) Taxonomy() (metrics.Taxonomy, error) {
	if c.Review.TaxonomyFile == "" {
		return metrics.DefaultTaxonomy(), nil
	}
	return metrics.LoadTaxonomy(c.Review.TaxonomyFile)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
