package reporting

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"backtest-review/internal/review"
)

// RenderTradesCSV renders the trade preview as CSV with the declared column names as header.
func RenderTradesCSV(r *review.Review) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write(r.Trades.Columns); err != nil {
		return "", fmt.Errorf("write trades header: %w", err)
	}
	for _, row := range r.Trades.Rows {
		record := make([]string, len(row))
		for i, c := range row {
			record[i] = c.Text
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("write trades row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush trades csv: %w", err)
	}
	return sb.String(), nil
}

// RenderMetricsCSV renders the grouped metrics as CSV, one row per metric in display order.
func RenderMetricsCSV(r *review.Review) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write([]string{"group", "key", "label", "value", "negative", "unit", "kind"}); err != nil {
		return "", fmt.Errorf("write metrics header: %w", err)
	}
	for _, g := range r.Groups {
		for _, item := range g.Items {
			record := []string{
				g.Group,
				item.Key,
				item.Label,
				item.Value,
				strconv.FormatBool(item.Negative),
				item.Unit,
				string(item.Kind),
			}
			if err := w.Write(record); err != nil {
				return "", fmt.Errorf("write metrics row: %w", err)
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush metrics csv: %w", err)
	}
	return sb.String(), nil
}
