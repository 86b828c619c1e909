// Package metrics classifies, formats and groups backtest summary metrics.
package metrics

import (
	"strings"

	"backtest-review/internal/format"
	"backtest-review/internal/value"
)

// Kind is the display class a metric value was rendered as.
type Kind string

const (
	KindMissing  Kind = "missing"
	KindBoolean  Kind = "boolean"
	KindText     Kind = "text"
	KindCurrency Kind = "currency"
	KindPercent  Kind = "percent"
	KindCount    Kind = "count"
	KindNumber   Kind = "number"
)

// Formatted is a rendered metric value.
type Formatted struct {
	Text     string `json:"text"`
	Negative bool   `json:"negative"`
	Kind     Kind   `json:"kind"`
}

// numericRule renders a parsed number when its key matches.
type numericRule struct {
	match  func(key, lower string) bool
	render func(f format.Formatter, n float64) Formatted
}

// numericRules are evaluated in order; the first match wins.
// Keys that match none of them fall through to the plain number rule.
var numericRules = []numericRule{
	{
		match: isCurrencyKey,
		render: func(f format.Formatter, n float64) Formatted {
			return Formatted{Text: f.Currency(n), Negative: n < 0, Kind: KindCurrency}
		},
	},
	{
		match: isPercentKey,
		render: func(_ format.Formatter, n float64) Formatted {
			return Formatted{Text: format.Percent(n), Negative: n < 0, Kind: KindPercent}
		},
	},
	{
		match: func(_, lower string) bool {
			return lower == "number_of_trades"
		},
		render: func(f format.Formatter, n float64) Formatted {
			return Formatted{Text: f.Integer(n), Negative: n < 0, Kind: KindCount}
		},
	},
}

func isCurrencyKey(key, lower string) bool {
	return strings.Contains(key, "$") ||
		strings.Contains(lower, "usd") ||
		strings.Contains(lower, "balance") ||
		strings.Contains(lower, "profit_$") ||
		strings.HasSuffix(key, "_$") ||
		lower == "final_pnl" ||
		lower == "average_profit_per_trade"
}

func isPercentKey(key, lower string) bool {
	return strings.HasSuffix(key, "_%") ||
		strings.Contains(key, "%") ||
		strings.Contains(lower, "drawdown") ||
		strings.Contains(lower, "rate") ||
		strings.Contains(lower, "return")
}

// FormatMetricValue classifies v by its key and renders it.
// It never fails: missing values render as a dash and unparseable values verbatim.
func FormatMetricValue(f format.Formatter, key string, v value.Value) Formatted {
	switch v.Kind() {
	case value.KindNull:
		return Formatted{Text: format.Placeholder, Kind: KindMissing}
	case value.KindBool:
		b, _ := v.AsBool()
		text := "No"
		if b {
			text = "Yes"
		}
		return Formatted{Text: text, Kind: KindBoolean}
	}

	n, ok := value.ParseNumber(v)
	if !ok {
		return Formatted{Text: v.String(), Kind: KindText}
	}

	lower := strings.ToLower(key)
	for _, rule := range numericRules {
		if rule.match(key, lower) {
			return rule.render(f, n)
		}
	}

	squashed := format.Squash(n)
	return Formatted{Text: f.Number(squashed), Negative: squashed < 0, Kind: KindNumber}
}

