package reporting

import (
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"backtest-review/internal/review"
	"backtest-review/internal/series"
)

// Chart names accepted by RenderChartSVG.
const (
	ChartEquity    = "equity"
	ChartDrawdown  = "drawdown"
	ChartDurations = "durations"
)

// ErrUnknownChart is returned for an unsupported chart name.
var ErrUnknownChart = errors.New("unknown chart")

const noDataSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100"><text x="50" y="50" text-anchor="middle" font-size="8" fill="#6b7280">No data</text></svg>`

// RenderChartSVG renders one of the review's charts.
func RenderChartSVG(r *review.Review, chart string) (string, error) {
	switch chart {
	case ChartEquity, "":
		return RenderLineSVG(r.Equity.Chart, "#2563eb", "#93c5fd"), nil
	case ChartDrawdown:
		return RenderLineSVG(r.Drawdown.Chart, "#dc2626", "#fca5a5"), nil
	case ChartDurations:
		return RenderBarsSVG(r.Durations.Labels, r.Durations.Heights), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownChart, chart)
	}
}

// RenderLineSVG draws a polyline on a 100x100 viewBox. A non-empty fill adds a
// translucent area under the line.
func RenderLineSVG(chart series.LineChart, stroke, fill string) string {
	if len(chart.Points) == 0 {
		return noDataSVG
	}

	points := make([]string, len(chart.Points))
	for i, p := range chart.Points {
		points[i] = coord(p.X) + "," + coord(p.Y)
	}
	line := strings.Join(points, " ")

	var sb strings.Builder
	sb.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100" preserveAspectRatio="none">`)
	if fill != "" {
		sb.WriteString(fmt.Sprintf(`<polygon points="0,100 %s 100,100" fill="%s" opacity="0.25"/>`, line, html.EscapeString(fill)))
	}
	sb.WriteString(fmt.Sprintf(`<polyline points="%s" stroke="%s" stroke-width="2.5" fill="none"/>`, line, html.EscapeString(stroke)))
	sb.WriteString("</svg>")
	return sb.String()
}

// RenderBarsSVG draws one bar per height, given in percent of the chart height.
func RenderBarsSVG(labels []string, heights []float64) string {
	if len(heights) == 0 {
		return noDataSVG
	}

	width := 100 / float64(len(heights))
	var sb strings.Builder
	sb.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100" preserveAspectRatio="none">`)
	for i, h := range heights {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		sb.WriteString(fmt.Sprintf(`<rect x="%s" y="%s" width="%s" height="%s" fill="#2563eb"><title>%s</title></rect>`,
			coord(float64(i)*width+width*0.1), coord(100-h), coord(width*0.8), coord(h), html.EscapeString(label)))
	}
	sb.WriteString("</svg>")
	return sb.String()
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
