// Package reporting renders reviews as Markdown, CSV and SVG.
package reporting

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"backtest-review/internal/review"
)

// RenderMarkdown renders a review as a Markdown document.
func RenderMarkdown(r *review.Review) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# %s\n\n", r.Title))
	status := r.Status
	if status == "" {
		status = "unknown"
	}
	sb.WriteString(fmt.Sprintf("Status: **%s** | Created: %s", status, r.CreatedAt))
	if r.SavedAt != "" {
		sb.WriteString(fmt.Sprintf(" | Saved: %s", r.SavedAt))
	}
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	if r.Stale {
		sb.WriteString("> Backend unavailable; this review was built from an archived snapshot.\n\n")
	}

	// Headline
	sb.WriteString("## Headline\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	for _, h := range r.Headline {
		sb.WriteString(fmt.Sprintf("| %s | %s |\n", cell(h.Label), cell(h.Value)))
	}
	sb.WriteString("\n")

	// Equity curve
	sb.WriteString("## Equity Curve\n\n")
	if r.Equity.Len() > 0 {
		sb.WriteString(fmt.Sprintf("%d points", r.Equity.Len()))
		if r.Equity.FirstLabel != "" || r.Equity.LastLabel != "" {
			sb.WriteString(fmt.Sprintf(" from %s to %s", r.Equity.FirstLabel, r.Equity.LastLabel))
		}
		sb.WriteString(".\n\n")
	} else {
		sb.WriteString("No data.\n\n")
	}

	// Results summary
	sb.WriteString("## Results Summary\n\n")
	if len(r.Groups) > 0 {
		for _, g := range r.Groups {
			sb.WriteString(fmt.Sprintf("### %s\n\n", g.Group))
			sb.WriteString("| Metric | Value |\n")
			sb.WriteString("|--------|-------|\n")
			for _, item := range g.Items {
				v := item.Value
				if item.Unit != "" {
					v += " " + item.Unit
				}
				sb.WriteString(fmt.Sprintf("| %s | %s |\n", cell(item.Label), cell(v)))
			}
			sb.WriteString("\n")
		}
	} else {
		sb.WriteString("No metrics available.\n\n")
	}

	// Trade durations
	if r.Durations.Len() > 0 {
		sb.WriteString("## Trade Duration Distribution\n\n")
		sb.WriteString("| Duration | Trades |\n")
		sb.WriteString("|----------|--------|\n")
		for i, label := range r.Durations.Labels {
			sb.WriteString(fmt.Sprintf("| %s | %s |\n", cell(label), rawNumber(r.Durations.Values[i])))
		}
		sb.WriteString("\n")
	}

	// Trades
	sb.WriteString("## Last Trades\n\n")
	if !r.Trades.Empty() {
		sb.WriteString("| " + strings.Join(escapeAll(r.Trades.Headers), " | ") + " |\n")
		sb.WriteString(strings.Repeat("|---", len(r.Trades.Headers)) + "|\n")
		for _, row := range r.Trades.Rows {
			texts := make([]string, len(row))
			for i, c := range row {
				texts[i] = cell(c.Text)
			}
			sb.WriteString("| " + strings.Join(texts, " | ") + " |\n")
		}
	} else {
		sb.WriteString("No trades found.\n")
	}
	sb.WriteString("\n")

	// Strategy settings
	writeSettings(&sb, r.Settings)

	return sb.String()
}

func writeSettings(sb *strings.Builder, s review.Settings) {
	sb.WriteString("## Strategy Settings\n\n")
	if s.StartingBalance != "" {
		sb.WriteString(fmt.Sprintf("- Starting Balance: %s\n", s.StartingBalance))
	}
	if s.PerTradeUSD != "" {
		sb.WriteString(fmt.Sprintf("- Per Trade USD: %s\n", s.PerTradeUSD))
	}
	if len(s.SelectedSymbols) > 0 {
		sb.WriteString(fmt.Sprintf("- Selected Symbols (%d): %s\n", len(s.SelectedSymbols), strings.Join(s.SelectedSymbols, ", ")))
	}
	if len(s.ParticipatedSymbols) > 0 {
		sb.WriteString(fmt.Sprintf("- Participated Symbols (%d): %s\n", len(s.ParticipatedSymbols), strings.Join(s.ParticipatedSymbols, ", ")))
	}
	sb.WriteString("\n")

	sb.WriteString("### Entry Conditions\n\n")
	writeEntry(sb, "Long", s.Long)
	writeEntry(sb, "Short", s.Short)

	writeExit(sb, "Long", s.Long)
	writeExit(sb, "Short", s.Short)
}

func writeEntry(sb *strings.Builder, side string, s review.SideSettings) {
	sb.WriteString(fmt.Sprintf("**%s Entry (offset: %s)**\n\n", side, s.Offset))
	if !s.Enabled {
		sb.WriteString(fmt.Sprintf("%s trading disabled\n\n", side))
		return
	}
	if s.EntryText != "" {
		sb.WriteString(fmt.Sprintf("User description: %s\n\n", s.EntryText))
	}
	code := s.ConditionCode
	if code == "" {
		code = fmt.Sprintf("Not trading %s", strings.ToLower(side))
	}
	sb.WriteString("```\n" + code + "\n```\n\n")
}

func writeExit(sb *strings.Builder, side string, s review.SideSettings) {
	sb.WriteString(fmt.Sprintf("### %s Exit\n\n", side))
	if s.Exit == nil {
		sb.WriteString(fmt.Sprintf("No %s exit configuration.\n\n", strings.ToLower(side)))
		return
	}
	sb.WriteString(fmt.Sprintf("- Type: %s\n", s.Exit.Type))
	if s.Exit.ATRPeriod != "" {
		sb.WriteString(fmt.Sprintf("- ATR Period: %s\n", s.Exit.ATRPeriod))
	}
	for _, p := range s.Exit.Params {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", p.Label, p.Value))
	}
	sb.WriteString("\n")
}

// cell escapes characters that would break a Markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func escapeAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = cell(s)
	}
	return out
}

// rawNumber renders a series value in shortest form without grouping.
func rawNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
