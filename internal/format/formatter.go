// Package format renders numbers, currency amounts and timestamps for review output.
//
// All locale state lives in a Formatter value. Nothing in this package reads
// process-global locale or timezone settings.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Placeholder is rendered for missing values.
const Placeholder = "—"

// squashThreshold is the magnitude below which plain numbers render as zero.
const squashThreshold = 1e-10

// humanizeLimit bounds the integers handed to go-humanize, which groups via float64.
const humanizeLimit = 1e15

// Formatter holds the separators, currency placement and calendar settings used
// to render values. The zero value is not usable; start from Default or ForLocale.
type Formatter struct {
	// Grouping is the thousands separator. It must be a single rune.
	Grouping string
	// Decimal is the decimal separator. It must be a single rune.
	Decimal string
	// CurrencyPattern positions the USD amount, e.g. "$%s" or "%s $".
	CurrencyPattern string
	// Location is the zone timestamps are displayed in.
	Location *time.Location
	// DateLayout renders short dates such as equity curve labels.
	DateLayout string
	// DateTimeLayout renders full timestamps in trade cells and settings.
	DateTimeLayout string
}

// Default returns the en-US formatter operating in UTC.
func Default() Formatter {
	return Formatter{
		Grouping:        ",",
		Decimal:         ".",
		CurrencyPattern: "$%s",
		Location:        time.UTC,
		DateLayout:      "Jan 02, 2006",
		DateTimeLayout:  "1/2/2006, 3:04:05 PM",
	}
}

// Squash zeroes values whose magnitude is below the display threshold.
func Squash(v float64) float64 {
	if math.Abs(v) < squashThreshold {
		return 0
	}
	return v
}

// Currency renders v as a USD amount with exactly two fraction digits.
func (f Formatter) Currency(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Placeholder
	}
	return sign(v) + fmt.Sprintf(f.CurrencyPattern, f.grouped(math.Abs(v), 2))
}

// Number renders v with grouping and up to four fraction digits.
// Magnitudes below 1e-10 render as plain zero.
func (f Formatter) Number(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return formatNonFinite(v)
	}
	v = Squash(v)
	text := f.grouped(math.Abs(v), 4)
	if strings.Contains(text, f.Decimal) {
		text = strings.TrimRight(text, "0")
		text = strings.TrimSuffix(text, f.Decimal)
	}
	return sign(v) + text
}

// Integer rounds half up and renders v with grouping.
func (f Formatter) Integer(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return formatNonFinite(v)
	}
	r := math.Floor(v + 0.5)
	return sign(r) + f.grouped(math.Abs(r), 0)
}

// Percent renders v as a percentage with two decimals. Magnitudes up to 1 are
// treated as fractions and scaled by 100; larger magnitudes are already percent.
// The output uses a fixed "." separator and no grouping.
func Percent(v float64) string {
	pct := v
	if math.Abs(v) <= 1 {
		pct = v * 100
	}
	return strconv.FormatFloat(pct, 'f', 2, 64) + "%"
}

// Date renders t in the formatter's zone with the short date layout.
func (f Formatter) Date(t time.Time) string {
	return t.In(f.location()).Format(f.DateLayout)
}

// DateTime renders t in the formatter's zone with the full timestamp layout.
func (f Formatter) DateTime(t time.Time) string {
	return t.In(f.location()).Format(f.DateTimeLayout)
}

func (f Formatter) location() *time.Location {
	if f.Location == nil {
		return time.UTC
	}
	return f.Location
}

// grouped renders a non-negative magnitude with the formatter's separators.
// The shortest decimal form of abs is rounded half away from zero, so 1.005
// renders as 1.01 even though its binary value sits just below the tie.
func (f Formatter) grouped(abs float64, precision int) string {
	text := decimal.NewFromFloat(abs).StringFixed(int32(precision))
	intPart, fracPart, hasFrac := strings.Cut(text, ".")
	out := f.groupDigits(intPart)
	if hasFrac {
		out += f.Decimal + fracPart
	}
	return out
}

// groupDigits inserts the grouping separator into a run of integer digits.
func (f Formatter) groupDigits(digits string) string {
	if n, err := strconv.ParseInt(digits, 10, 64); err == nil && n < humanizeLimit {
		// A trailing decimal separator tells go-humanize to render no fraction.
		return humanize.FormatInteger("#"+f.Grouping+"###"+f.Decimal, int(n))
	}
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteString(f.Grouping)
		}
		b.WriteRune(r)
	}
	return b.String()
}

func sign(v float64) string {
	if v < 0 {
		return "-"
	}
	return ""
}

func formatNonFinite(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case v > 0:
		return "∞"
	default:
		return "-∞"
	}
}
