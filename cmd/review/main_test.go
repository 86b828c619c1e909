package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backtest-review/internal/config"
)

const detailJSON = `{
  "id": 9,
  "backtest_name": "Gap fill",
  "status": "completed",
  "summary_metrics": {"Number_of_Trades": 4, "final_pnl": -20},
  "equity_curve": [{"date": "2024-01-01", "balance": 100}, {"date": "2024-01-02", "balance": 80}],
  "trades_preview": [{"symbol": "TSLA", "pnl": -20}],
  "trades_columns": ["symbol", "pnl"]
}`

func TestRun_Formats(t *testing.T) {
	tests := []struct {
		name     string
		opts     options
		contains string
	}{
		{"markdown", options{format: "markdown"}, "# Gap fill"},
		{"json", options{format: "json"}, `"title": "Gap fill"`},
		{"trades csv", options{format: "csv", table: "trades"}, "symbol,pnl\nTSLA,"},
		{"metrics csv", options{format: "csv", table: "metrics"}, "group,key,label"},
		{"svg", options{format: "svg", chart: "equity"}, "<polyline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.input = "-"
			var out strings.Builder
			err := run(context.Background(), config.Default(), tt.opts, strings.NewReader(detailJSON), &out)
			require.NoError(t, err)
			assert.Contains(t, out.String(), tt.contains)
		})
	}
}

func TestRun_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "detail.json")
	require.NoError(t, os.WriteFile(path, []byte(detailJSON), 0o644))

	var out strings.Builder
	err := run(context.Background(), config.Default(), options{input: path, format: "md"}, nil, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "| Total trades | 4 |")
}

func TestRun_Errors(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()

	err := run(ctx, cfg, options{input: "-", format: "pdf"}, strings.NewReader(detailJSON), &strings.Builder{})
	assert.ErrorContains(t, err, "unsupported format")

	err = run(ctx, cfg, options{input: "-", format: "json"}, strings.NewReader(`[1,2]`), &strings.Builder{})
	assert.Error(t, err)

	err = run(ctx, cfg, options{format: "json"}, nil, &strings.Builder{})
	assert.ErrorContains(t, err, "--user-id and --backtest-id are required")
}
