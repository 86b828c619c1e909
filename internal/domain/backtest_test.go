package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backtest-review/internal/value"
)

const sampleDetail = `{
  "id": 42,
  "backtest_name": "Momentum",
  "status": "completed",
  "created_at": "2024-01-05T10:00:00Z",
  "saved_at_utc": null,
  "config": {
    "saved_at_utc": "2024-01-04T09:00:00Z",
    "starting_balance": "10,000",
    "selected_symbols": ["AAPL", 7, "MSFT"],
    "long_enabled": true,
    "short_enabled": 0,
    "long_config": {"exit_type_position_long": "atr", "atr_config_long": {"period": 14}},
    "ai_entry": {"offset_long": 2}
  },
  "summary_metrics": {"b": 1, "a": 2},
  "equity_curve": [
    {"date": "2024-01-01", "balance": 1000},
    {"date": null, "balance": "1,050.5"},
    {"date": "2024-01-03", "balance": "n/a"}
  ],
  "drawdown_curve": [-0.1, "x", null],
  "trades_preview": [{"symbol": "AAPL"}, 5],
  "trades_columns": ["symbol", 3, "pnl"],
  "participated_symbols": ["AAPL"],
  "entry_text_long": "Buy dips",
  "entry_text_short": null
}`

func TestDecodeBacktestDetail(t *testing.T) {
	d, err := DecodeBacktestDetail([]byte(sampleDetail))
	require.NoError(t, err)

	assert.Equal(t, "42", d.ID)
	require.NotNil(t, d.Name)
	assert.Equal(t, "Momentum", *d.Name)
	assert.Equal(t, StatusCompleted, d.Status)
	assert.Equal(t, "2024-01-05T10:00:00Z", d.CreatedAt)
	assert.Nil(t, d.SavedAtUTC)
	assert.Equal(t, []string{"b", "a"}, d.Summary().Keys())

	require.Len(t, d.EquityCurve, 2)
	assert.Equal(t, "2024-01-01", *d.EquityCurve[0].Date)
	assert.Nil(t, d.EquityCurve[1].Date)
	assert.Equal(t, 1050.5, d.EquityCurve[1].Balance)

	assert.Len(t, d.DrawdownCurve, 3)
	assert.Len(t, d.TradesPreview, 1)
	assert.Equal(t, []string{"symbol", "pnl"}, d.TradesColumns)
	assert.Equal(t, []string{"AAPL"}, d.ParticipatedSymbols)
	require.NotNil(t, d.EntryTextLong)
	assert.Equal(t, "Buy dips", *d.EntryTextLong)
	assert.Nil(t, d.EntryTextShort)
	assert.Equal(t, []byte(sampleDetail), d.Raw)
}

func TestDecodeBacktestDetail_Config(t *testing.T) {
	d, err := DecodeBacktestDetail([]byte(sampleDetail))
	require.NoError(t, err)
	cfg := d.Settings()

	require.NotNil(t, cfg.SavedAtUTC())
	assert.Equal(t, "2024-01-04T09:00:00Z", *cfg.SavedAtUTC())
	n, ok := value.ParseNumber(cfg.StartingBalance())
	assert.True(t, ok)
	assert.Equal(t, 10000.0, n)
	assert.True(t, cfg.USDPerTrade().IsNull())
	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.SelectedSymbols())
	assert.True(t, cfg.Enabled(SideLong))
	assert.False(t, cfg.Enabled(SideShort))

	exit, _ := cfg.SideConfig(SideLong, "exit_type_position").AsString()
	assert.Equal(t, "atr", exit)
	assert.Equal(t, "14", cfg.SideConfig(SideLong, "atr_config").Path("period").String())
	assert.True(t, cfg.SideConfig(SideShort, "tp").IsNull())
	assert.Equal(t, "2", cfg.AIEntry(SideLong, "offset").String())
	assert.True(t, cfg.AIEntry(SideShort, "offset").IsNull())
}

func TestDecodeBacktestDetail_Lenient(t *testing.T) {
	d, err := DecodeBacktestDetail([]byte(`{"id":"abc","summary_metrics":[1,2],"equity_curve":"bad"}`))
	require.NoError(t, err)

	assert.Equal(t, "abc", d.ID)
	assert.Nil(t, d.Name)
	assert.Equal(t, 0, d.Summary().Len())
	assert.Empty(t, d.EquityCurve)
	assert.Empty(t, d.TradesColumns)
	assert.False(t, d.Settings().Enabled(SideLong))
}

func TestDecodeBacktestDetail_Errors(t *testing.T) {
	_, err := DecodeBacktestDetail([]byte(`[1,2]`))
	assert.ErrorIs(t, err, ErrInvalidDetail)

	_, err = DecodeBacktestDetail([]byte(`{"id":`))
	assert.Error(t, err)

	_, err = DecodeBacktestDetail([]byte(`{"id": 7, "summary_metrics": {"final_pnl": 12, "Number_of_Trades": 3`))
	assert.ErrorIs(t, err, value.ErrTruncated)

	_, err = DecodeBacktestDetail([]byte(`{"id": 8} trailing junk`))
	assert.ErrorIs(t, err, value.ErrTrailingData)
}
