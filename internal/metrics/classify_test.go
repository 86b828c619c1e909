package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"backtest-review/internal/format"
	"backtest-review/internal/value"
)

func TestFormatMetricValue(t *testing.T) {
	f := format.Default()
	tests := []struct {
		name     string
		key      string
		in       value.Value
		text     string
		negative bool
		kind     Kind
	}{
		{"null", "Sharpe_Ratio", value.Null(), "—", false, KindMissing},
		{"bool true", "Uses_Leverage", value.Bool(true), "Yes", false, KindBoolean},
		{"bool false", "final_pnl", value.Bool(false), "No", false, KindBoolean},
		{"unparseable", "Strategy", value.String("momentum"), "momentum", false, KindText},
		{"unparseable negative-looking", "final_pnl", value.String("-n/a"), "-n/a", false, KindText},
		{"negative pnl", "final_pnl", value.Number(-250.5), "-$250.50", true, KindCurrency},
		{"dollar key", "Total_Return_Profit_$", value.String("1,500"), "$1,500.00", false, KindCurrency},
		{"balance key", "Initial_Balance", value.Number(10000), "$10,000.00", false, KindCurrency},
		{"usd key", "Per_Trade_USD", value.Number(250), "$250.00", false, KindCurrency},
		{"average profit", "Average_Profit_per_Trade", value.Number(12.3), "$12.30", false, KindCurrency},
		{"win rate fraction", "Win_Rate", value.Number(0.42), "42.00%", false, KindPercent},
		{"win rate percent", "Win_Rate", value.Number(42), "42.00%", false, KindPercent},
		{"drawdown", "Maximum_Drawdown", value.Number(-0.15), "-15.00%", true, KindPercent},
		{"percent suffix", "Total_Return_Profit_%", value.Number(12.5), "12.50%", false, KindPercent},
		{"return", "Annualized_Return", value.Number(1), "100.00%", false, KindPercent},
		{"trade count", "Number_of_Trades", value.Number(1234), "1,234", false, KindCount},
		{"trade count lowercase", "number_of_trades", value.String("7.6"), "8", false, KindCount},
		{"plain", "Sharpe_Ratio", value.Number(1.23456), "1.2346", false, KindNumber},
		{"plain negative", "Sortino_Ratio", value.Number(-0.5), "-0.5", true, KindNumber},
		{"squashed", "Sharpe_Ratio", value.Number(-3e-12), "0", false, KindNumber},
		{"zero", "Profit_Factor", value.Number(0), "0", false, KindNumber},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatMetricValue(f, tt.key, tt.in)
			assert.Equal(t, tt.text, got.Text)
			assert.Equal(t, tt.negative, got.Negative)
			assert.Equal(t, tt.kind, got.Kind)
		})
	}
}

func TestFormatMetricValue_CurrencyBeatsPercent(t *testing.T) {
	// "Total_Return_$" contains both a currency marker and "return".
	got := FormatMetricValue(format.Default(), "Total_Return_$", value.Number(99.5))
	assert.Equal(t, KindCurrency, got.Kind)
	assert.Equal(t, "$99.50", got.Text)
}

func TestFormatMetricValue_ObjectRendersRaw(t *testing.T) {
	obj := value.FromObject(value.ObjectOf("1", 2))
	got := FormatMetricValue(format.Default(), "Trade_Duration_Distribution", obj)
	assert.Equal(t, `{"1":2}`, got.Text)
	assert.False(t, got.Negative)
}
