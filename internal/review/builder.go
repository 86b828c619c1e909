package review

import (
	"strings"
	"time"

	"backtest-review/internal/domain"
	"backtest-review/internal/format"
	"backtest-review/internal/metrics"
	"backtest-review/internal/series"
	"backtest-review/internal/trades"
	"backtest-review/internal/value"
)

// DefaultPreviewLimit is the number of trailing trades shown.
const DefaultPreviewLimit = 10

// Builder turns backtest details into reviews. It holds no mutable state and
// is safe for concurrent use.
type Builder struct {
	formatter    format.Formatter
	taxonomy     metrics.Taxonomy
	previewLimit int
	now          func() time.Time // Injectable clock for deterministic output
}

// NewBuilder creates a builder. A non-positive previewLimit uses DefaultPreviewLimit.
func NewBuilder(f format.Formatter, tax metrics.Taxonomy, previewLimit int) *Builder {
	if previewLimit <= 0 {
		previewLimit = DefaultPreviewLimit
	}
	return &Builder{
		formatter:    f,
		taxonomy:     tax,
		previewLimit: previewLimit,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Formatter returns the formatter reviews are rendered with.
func (b *Builder) Formatter() format.Formatter {
	return b.formatter
}

// Build assembles the review of d. It never fails; missing sections are empty.
func (b *Builder) Build(d *domain.BacktestDetail) *Review {
	if d == nil {
		d = &domain.BacktestDetail{}
	}
	f := b.formatter
	summary := d.Summary()

	r := &Review{
		ID:          d.ID,
		Title:       title(d),
		Status:      d.Status,
		StatusTone:  statusTone(d.Status),
		CreatedAt:   format.Placeholder,
		GeneratedAt: b.now(),
	}

	// Timestamps
	if d.CreatedAt != "" {
		r.CreatedAt = f.DateTimeText(d.CreatedAt)
	}
	if saved := savedAt(d); saved != "" {
		r.SavedAt = f.DateTimeText(saved)
	}

	// Metrics
	r.Headline = metrics.BuildHeadlineMetrics(f, summary)
	r.Groups = metrics.BuildMetricGroups(f, b.taxonomy, summary)

	// Series
	equity := series.EquityCurve(f, d.EquityCurve)
	r.Equity = EquityView{Labeled: equity, Chart: series.Line(equity.Values)}
	if n := len(equity.Labels); n > 0 {
		r.Equity.FirstLabel = equity.Labels[0]
		r.Equity.LastLabel = equity.Labels[n-1]
	}

	drawdown := series.Drawdown(d.DrawdownCurve)
	r.Drawdown = DrawdownView{Values: drawdown, Chart: series.Line(drawdown)}

	durationRaw, _ := summary.Get("Trade_Duration_Distribution")
	durations := series.DurationDistribution(durationRaw)
	r.Durations = DurationView{Labeled: durations, Heights: series.Bars(durations.Values)}

	// Trades
	r.Trades = trades.BuildTable(f, d.TradesColumns, d.TradesPreview, b.previewLimit)

	// Settings
	r.Settings = b.buildSettings(d, summary)

	return r
}

func title(d *domain.BacktestDetail) string {
	if d.Name != nil {
		return *d.Name
	}
	return "Backtest #" + d.ID
}

func statusTone(status string) metrics.Tone {
	switch status {
	case domain.StatusCompleted:
		return metrics.TonePositive
	case domain.StatusFailed:
		return metrics.ToneNegative
	default:
		return metrics.ToneNeutral
	}
}

// savedAt prefers the document's save time over the configuration's.
func savedAt(d *domain.BacktestDetail) string {
	if d.SavedAtUTC != nil {
		return *d.SavedAtUTC
	}
	if s := d.Settings().SavedAtUTC(); s != nil {
		return *s
	}
	return ""
}

func (b *Builder) buildSettings(d *domain.BacktestDetail, summary *value.Object) Settings {
	f := b.formatter
	cfg := d.Settings()

	s := Settings{
		StartingBalance: nonZeroCurrency(f,
			metrics.FirstPresent(summary, "Initial_Balance"),
			cfg.StartingBalance()),
		PerTradeUSD: nonZeroCurrency(f,
			metrics.FirstPresent(summary, "Per_Trade_USD", "per_trade_usd"),
			cfg.USDPerTrade()),
		SelectedSymbols:     cfg.SelectedSymbols(),
		ParticipatedSymbols: d.ParticipatedSymbols,
	}
	if s.ParticipatedSymbols == nil {
		s.ParticipatedSymbols = []string{}
	}

	s.Long = sideSettings(cfg, domain.SideLong, d.EntryTextLong)
	s.Short = sideSettings(cfg, domain.SideShort, d.EntryTextShort)
	return s
}

// nonZeroCurrency formats the first candidate that parses to a non-zero number.
func nonZeroCurrency(f format.Formatter, candidates ...value.Value) string {
	for _, c := range candidates {
		if n, ok := value.ParseNumber(c); ok && n != 0 {
			return f.Currency(n)
		}
	}
	return ""
}

func sideSettings(cfg domain.BacktestConfig, side domain.Side, entryText *string) SideSettings {
	s := SideSettings{
		Enabled: cfg.Enabled(side),
		Offset:  format.Placeholder,
	}

	if offset := cfg.AIEntry(side, "offset"); !offset.IsNull() {
		s.Offset = offset.String()
	}
	if code, ok := cfg.AIEntry(side, "condition_code").AsString(); ok {
		s.ConditionCode = strings.TrimSpace(code)
	}

	if entryText != nil {
		s.EntryText = *entryText
	} else if text, ok := cfg.SideConfig(side, "entry_explanation").AsString(); ok {
		s.EntryText = text
	}

	exitType, _ := cfg.SideConfig(side, "exit_type_position").AsString()
	if !s.Enabled || exitType == "" {
		return s
	}

	exit := &ExitSettings{Type: "Percentage", Params: []LabelValue{}}
	tpLabel, slLabel := "TP %", "SL %"
	if exitType == "atr" {
		exit.Type = "ATR"
		tpLabel, slLabel = "TP (ATR multiple)", "SL (ATR multiple)"
		if atr, ok := cfg.SideConfig(side, "atr_config").AsObject(); ok {
			if period, ok := atr.Get("period"); ok && !period.IsNull() {
				exit.ATRPeriod = period.String()
			}
		}
	}
	if tp := cfg.SideConfig(side, "tp"); !tp.IsNull() {
		exit.Params = append(exit.Params, LabelValue{Label: tpLabel, Value: tp.String()})
	}
	if sl := cfg.SideConfig(side, "sl"); !sl.IsNull() {
		exit.Params = append(exit.Params, LabelValue{Label: slLabel, Value: sl.String()})
	}
	s.Exit = exit
	return s
}
