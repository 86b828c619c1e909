// Package main renders a backtest review from a detail file, stdin or the backend.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"backtest-review/internal/backend"
	"backtest-review/internal/config"
	"backtest-review/internal/domain"
	"backtest-review/internal/reporting"
	"backtest-review/internal/review"
)

// options are the parsed command-line flags.
type options struct {
	configPath string
	input      string
	userID     string
	backtestID string
	format     string
	table      string
	chart      string
	output     string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", os.Getenv("CONFIG_FILE"), "Optional YAML config file")
	flag.StringVar(&opts.input, "input", "", "Backtest detail JSON file, - for stdin (fetches from the backend when empty)")
	flag.StringVar(&opts.userID, "user-id", os.Getenv("BACKTEST_USER_ID"), "User ID for backend fetches")
	flag.StringVar(&opts.backtestID, "backtest-id", "", "Backtest ID for backend fetches")
	flag.StringVar(&opts.format, "format", "markdown", "Output format: markdown, json, csv, svg")
	flag.StringVar(&opts.table, "table", "trades", "CSV table: trades or metrics")
	flag.StringVar(&opts.chart, "chart", reporting.ChartEquity, "SVG chart: equity, drawdown or durations")
	flag.StringVar(&opts.output, "output", "", "Output file (stdout when empty)")
	flag.Parse()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	out := io.Writer(os.Stdout)
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating output: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	if err := run(context.Background(), cfg, opts, os.Stdin, out); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, stdin io.Reader, out io.Writer) error {
	detail, err := loadDetail(ctx, cfg, opts, stdin)
	if err != nil {
		return err
	}

	f, err := cfg.Formatter()
	if err != nil {
		return fmt.Errorf("create formatter: %w", err)
	}
	tax, err := cfg.Taxonomy()
	if err != nil {
		return fmt.Errorf("load taxonomy: %w", err)
	}

	r := review.NewBuilder(f, tax, cfg.Review.PreviewLimit).Build(detail)
	text, err := render(r, opts)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(out, text); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func loadDetail(ctx context.Context, cfg *config.Config, opts options, stdin io.Reader) (*domain.BacktestDetail, error) {
	var (
		raw []byte
		err error
	)
	switch opts.input {
	case "":
		if opts.userID == "" || opts.backtestID == "" {
			return nil, errors.New("--user-id and --backtest-id are required without --input")
		}
		client, err := backend.NewClient(backend.Options{
			BaseURL:         cfg.Backend.BaseURL,
			Timeout:         cfg.Backend.Timeout,
			RequestsPerSec:  cfg.Backend.RequestsPerSec,
			MaxRetryTimeout: cfg.Backend.MaxRetryTime,
		})
		if err != nil {
			return nil, fmt.Errorf("create backend client: %w", err)
		}
		return client.FetchBacktestDetail(ctx, opts.userID, opts.backtestID)
	case "-":
		raw, err = io.ReadAll(stdin)
	default:
		raw, err = os.ReadFile(opts.input)
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return domain.DecodeBacktestDetail(raw)
}

func render(r *review.Review, opts options) (string, error) {
	switch strings.ToLower(opts.format) {
	case "markdown", "md":
		return reporting.RenderMarkdown(r), nil
	case "json":
		data, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(r, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode review: %w", err)
		}
		return string(data) + "\n", nil
	case "csv":
		if opts.table == "metrics" {
			return reporting.RenderMetricsCSV(r)
		}
		return reporting.RenderTradesCSV(r)
	case "svg":
		return reporting.RenderChartSVG(r, opts.chart)
	default:
		return "", fmt.Errorf("unsupported format %q", opts.format)
	}
}
