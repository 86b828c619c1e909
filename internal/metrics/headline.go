package metrics

import (
	jsoniter "github.com/json-iterator/go"

	"backtest-review/internal/format"
	"backtest-review/internal/value"
)

// Tone colours a headline figure. The empty tone is neutral.
type Tone string

const (
	ToneNeutral  Tone = ""
	TonePositive Tone = "pos"
	ToneNegative Tone = "neg"
)

// MarshalJSON encodes the neutral tone as null.
func (t Tone) MarshalJSON() ([]byte, error) {
	if t == ToneNeutral {
		return []byte("null"), nil
	}
	return jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(string(t))
}

// ToneOf returns the tone for the sign of n.
func ToneOf(n float64) Tone {
	switch {
	case n > 0:
		return TonePositive
	case n < 0:
		return ToneNegative
	default:
		return ToneNeutral
	}
}

// HeadlineMetric is one of the three summary figures shown above the metric groups.
type HeadlineMetric struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Tone  Tone   `json:"tone"`
}

var (
	tradeCountKeys = []string{"Number_of_Trades", "total_trades"}
	finalPnLKeys   = []string{"final_pnl", "Total_Return_Profit_$", "Profit_$", "Total_Return_$"}
	annualizedKeys = []string{"Annualized_Return"}
)

// BuildHeadlineMetrics resolves trade count, final P&L and annualized return.
// Each figure takes the first non-null candidate key; an unparseable value is not
// replaced by later candidates and renders as a dash.
func BuildHeadlineMetrics(f format.Formatter, summary *value.Object) [3]HeadlineMetric {
	var out [3]HeadlineMetric

	out[0] = HeadlineMetric{Label: "Total trades", Value: format.Placeholder}
	if n, ok := value.ParseNumber(FirstPresent(summary, tradeCountKeys...)); ok {
		out[0].Value = f.Integer(n)
	}

	out[1] = HeadlineMetric{Label: "Final PnL", Value: format.Placeholder}
	if n, ok := value.ParseNumber(FirstPresent(summary, finalPnLKeys...)); ok {
		out[1].Value = f.Currency(n)
		out[1].Tone = ToneOf(n)
	}

	out[2] = HeadlineMetric{Label: "Annualized Return", Value: format.Placeholder}
	if n, ok := value.ParseNumber(FirstPresent(summary, annualizedKeys...)); ok {
		out[2].Value = format.Percent(n)
		out[2].Tone = ToneOf(n)
	}

	return out
}

// FirstPresent returns the value of the first key holding a non-null value.
func FirstPresent(obj *value.Object, keys ...string) value.Value {
	for _, k := range keys {
		if v, ok := obj.Get(k); ok && !v.IsNull() {
			return v
		}
	}
	return value.Null()
}
