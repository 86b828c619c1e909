// Package trades formats the trade preview table.
package trades

import (
	"math"
	"strings"

	"backtest-review/internal/format"
	"backtest-review/internal/metrics"
	"backtest-review/internal/value"
)

// PriorityColumns lists the displayed columns in display order.
var PriorityColumns = []string{
	"symbol",
	"entry_date",
	"position_status",
	"entry",
	"target",
	"stop",
	"length",
	"pnl",
}

const (
	columnPositionStatus = "position_status"
	columnPnL            = "pnl"
)

var positionLabels = map[string]string{
	"LONG_POS":  "Long",
	"SHORT_POS": "Short",
}

// ResolveTradeColumns matches declared columns against PriorityColumns
// case-insensitively. The result follows priority order and keeps the declared
// casing. When two declared columns differ only in case, the later one wins.
func ResolveTradeColumns(columns []string) []string {
	byLower := make(map[string]string, len(columns))
	for _, col := range columns {
		byLower[strings.ToLower(col)] = col
	}
	resolved := make([]string, 0, len(PriorityColumns))
	for _, key := range PriorityColumns {
		if col, ok := byLower[key]; ok && col != "" {
			resolved = append(resolved, col)
		}
	}
	return resolved
}

// FormatTradeCell renders one cell value.
func FormatTradeCell(f format.Formatter, v value.Value) string {
	switch v.Kind() {
	case value.KindNull:
		return format.Placeholder
	case value.KindNumber:
		n, _ := v.AsNumber()
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return v.String()
		}
		return f.Number(n)
	case value.KindString:
		s, _ := v.AsString()
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			return format.Placeholder
		}
		if strings.ContainsAny(trimmed, "-/") {
			if t, ok := f.ParseTime(trimmed); ok {
				return f.DateTime(t)
			}
		}
		if n, ok := value.ParseNumberString(trimmed); ok {
			return f.Number(n)
		}
		return trimmed
	default:
		return v.String()
	}
}

// Cell is a formatted table cell. Number is set when the raw value parses as a
// number so callers can colour cells by sign.
type Cell struct {
	Column string       `json:"column"`
	Text   string       `json:"text"`
	Number *float64     `json:"number,omitempty"`
	Tone   metrics.Tone `json:"tone"`
}

// FormatCell renders v for column. Position statuses are translated and P&L
// cells carry a tone from their sign.
func FormatCell(f format.Formatter, column string, v value.Value) Cell {
	lower := strings.ToLower(column)
	cell := Cell{Text: FormatTradeCell(f, v), Column: column}

	if n, ok := value.ParseNumber(v); ok {
		cell.Number = &n
		if lower == columnPnL {
			cell.Tone = metrics.ToneOf(n)
		}
	}

	if lower == columnPositionStatus {
		status := ""
		if !v.IsNull() {
			status = v.String()
		}
		if label, ok := positionLabels[status]; ok {
			cell.Text = label
		}
	}
	return cell
}

// Table is the rendered trade preview.
type Table struct {
	Columns []string `json:"columns"`
	Headers []string `json:"headers"`
	Rows    [][]Cell `json:"rows"`
}

// Empty reports whether the table has nothing to show.
func (t Table) Empty() bool {
	return len(t.Columns) == 0 || len(t.Rows) == 0
}

// BuildTable renders the last limit rows over the resolved columns.
// A limit of zero or less keeps every row. A cell reads row[column] and falls
// back to row[lower(column)] when the first is null or missing.
func BuildTable(f format.Formatter, declared []string, rows []*value.Object, limit int) Table {
	columns := ResolveTradeColumns(declared)
	table := Table{
		Columns: columns,
		Headers: make([]string, len(columns)),
		Rows:    [][]Cell{},
	}
	for i, col := range columns {
		table.Headers[i] = strings.ReplaceAll(col, "_", " ")
	}
	if len(columns) == 0 {
		return table
	}

	if limit > 0 && len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}
	for _, row := range rows {
		cells := make([]Cell, len(columns))
		for i, col := range columns {
			cells[i] = FormatCell(f, col, metrics.FirstPresent(row, col, strings.ToLower(col)))
		}
		table.Rows = append(table.Rows, cells)
	}
	return table
}
