// Package domain holds the backtest-detail document and views over it.
package domain

import (
	"errors"
	"fmt"

	"backtest-review/internal/value"
)

// Backtest statuses reported by the backend.
const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ErrInvalidDetail is returned when a payload is not a JSON object.
var ErrInvalidDetail = errors.New("backtest detail is not a JSON object")

// EquityPoint is one sample of the account balance.
// Date is nil when the backend sent null.
type EquityPoint struct {
	Date    *string `json:"date"`
	Balance float64 `json:"balance"`
}

// BacktestDetail is the backend's backtest-detail document, decoded leniently.
// Fields the backend omitted or sent with the wrong type are left at their zero value.
type BacktestDetail struct {
	ID                  string
	Name                *string
	Status              string
	CreatedAt           string
	SavedAtUTC          *string
	Config              *value.Object
	SummaryMetrics      *value.Object
	EquityCurve         []EquityPoint
	DrawdownCurve       []value.Value
	TradesPreview       []*value.Object
	TradesColumns       []string
	ParticipatedSymbols []string
	EntryTextLong       *string
	EntryTextShort      *string

	// Raw is the document as received, kept for archiving.
	Raw []byte
}

// DecodeBacktestDetail parses a backtest-detail payload.
// Only a malformed document or a non-object top level is an error.
func DecodeBacktestDetail(raw []byte) (*BacktestDetail, error) {
	doc, err := value.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("decode backtest detail: %w", err)
	}
	obj, ok := doc.AsObject()
	if !ok {
		return nil, ErrInvalidDetail
	}

	d := &BacktestDetail{
		ID:         idText(field(obj, "id")),
		Name:       optString(field(obj, "backtest_name")),
		CreatedAt:  textOf(field(obj, "created_at")),
		SavedAtUTC: optString(field(obj, "saved_at_utc")),
		Raw:        append([]byte(nil), raw...),
	}
	d.Status, _ = field(obj, "status").AsString()
	d.Config, _ = field(obj, "config").AsObject()
	d.SummaryMetrics, _ = field(obj, "summary_metrics").AsObject()
	d.EquityCurve = equityPoints(field(obj, "equity_curve"))
	d.DrawdownCurve, _ = field(obj, "drawdown_curve").AsArray()
	d.TradesPreview = objects(field(obj, "trades_preview"))
	d.TradesColumns = stringItems(field(obj, "trades_columns"))
	d.ParticipatedSymbols = stringItems(field(obj, "participated_symbols"))
	d.EntryTextLong = optString(field(obj, "entry_text_long"))
	d.EntryTextShort = optString(field(obj, "entry_text_short"))

	return d, nil
}

// Summary returns the summary metrics, never nil.
func (d *BacktestDetail) Summary() *value.Object {
	if d == nil || d.SummaryMetrics == nil {
		return value.NewObject()
	}
	return d.SummaryMetrics
}

// Settings returns a read view over the submitted configuration.
func (d *BacktestDetail) Settings() BacktestConfig {
	if d == nil {
		return BacktestConfig{}
	}
	return BacktestConfig{obj: d.Config}
}

func field(obj *value.Object, key string) value.Value {
	v, _ := obj.Get(key)
	return v
}

func idText(v value.Value) string {
	switch v.Kind() {
	case value.KindNumber, value.KindString:
		return v.String()
	default:
		return ""
	}
}

func textOf(v value.Value) string {
	switch v.Kind() {
	case value.KindNull:
		return ""
	default:
		return v.String()
	}
}

func optString(v value.Value) *string {
	s, ok := v.AsString()
	if !ok {
		return nil
	}
	return &s
}

// equityPoints keeps the entries whose balance parses as a number, in order.
func equityPoints(v value.Value) []EquityPoint {
	items, _ := v.AsArray()
	points := make([]EquityPoint, 0, len(items))
	for _, item := range items {
		balance, ok := value.ParseNumber(item.Path("balance"))
		if !ok {
			continue
		}
		points = append(points, EquityPoint{
			Date:    optString(item.Path("date")),
			Balance: balance,
		})
	}
	return points
}

func objects(v value.Value) []*value.Object {
	items, _ := v.AsArray()
	out := make([]*value.Object, 0, len(items))
	for _, item := range items {
		if obj, ok := item.AsObject(); ok {
			out = append(out, obj)
		}
	}
	return out
}

func stringItems(v value.Value) []string {
	items, _ := v.AsArray()
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.AsString(); ok {
			out = append(out, s)
		}
	}
	return out
}
