// Package review assembles the complete view model of a backtest review.
package review

import (
	"time"

	"backtest-review/internal/metrics"
	"backtest-review/internal/series"
	"backtest-review/internal/trades"
)

// Review is everything a renderer needs to present one backtest.
type Review struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Status      string       `json:"status"`
	StatusTone  metrics.Tone `json:"status_tone"`
	CreatedAt   string       `json:"created_at"`
	SavedAt     string       `json:"saved_at,omitempty"`
	GeneratedAt time.Time    `json:"generated_at"`
	// Stale is set when the review was built from an archived snapshot
	// because the backend could not be reached.
	Stale bool `json:"stale"`

	Headline [3]metrics.HeadlineMetric `json:"headline"`
	Groups   []metrics.MetricGroup     `json:"groups"`

	Equity    EquityView   `json:"equity"`
	Drawdown  DrawdownView `json:"drawdown"`
	Durations DurationView `json:"durations"`

	Trades   trades.Table `json:"trades"`
	Settings Settings     `json:"settings"`
}

// EquityView is the equity curve with its chart geometry.
type EquityView struct {
	series.Labeled
	Chart      series.LineChart `json:"chart"`
	FirstLabel string           `json:"first_label"`
	LastLabel  string           `json:"last_label"`
}

// DrawdownView is the drawdown curve in percent with its chart geometry.
type DrawdownView struct {
	Values []float64        `json:"values"`
	Chart  series.LineChart `json:"chart"`
}

// DurationView is the trade-duration histogram with bar heights in percent.
type DurationView struct {
	series.Labeled
	Heights []float64 `json:"heights"`
}

// Settings summarizes the strategy configuration.
type Settings struct {
	StartingBalance     string       `json:"starting_balance,omitempty"`
	PerTradeUSD         string       `json:"per_trade_usd,omitempty"`
	SelectedSymbols     []string     `json:"selected_symbols"`
	ParticipatedSymbols []string     `json:"participated_symbols"`
	Long                SideSettings `json:"long"`
	Short               SideSettings `json:"short"`
}

// SideSettings describes one trading direction.
type SideSettings struct {
	Enabled bool `json:"enabled"`
	// Offset is rendered even when the side is disabled.
	Offset        string `json:"offset"`
	EntryText     string `json:"entry_text,omitempty"`
	ConditionCode string `json:"condition_code,omitempty"`
	// Exit is nil when the side is disabled or has no exit type.
	Exit *ExitSettings `json:"exit,omitempty"`
}

// ExitSettings describes how positions on one side are closed.
type ExitSettings struct {
	Type      string       `json:"type"`
	ATRPeriod string       `json:"atr_period,omitempty"`
	Params    []LabelValue `json:"params"`
}

// LabelValue is a labelled setting.
type LabelValue struct {
	Label string `json:"label"`
	Value string `json:"value"`
}
