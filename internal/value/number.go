package value

import (
	"math"
	"strconv"
	"strings"
)

// ParseNumber extracts a finite number from v.
//
// Numbers pass through when finite. Strings have thousands separators (",") removed
// and surrounding whitespace trimmed before parsing. Every other kind, and any
// string that is empty or not a finite number, reports false. A legitimate zero
// reports (0, true).
func ParseNumber(v Value) (float64, bool) {
	switch v.kind {
	case KindNumber:
		if math.IsNaN(v.n) || math.IsInf(v.n, 0) {
			return 0, false
		}
		return v.n, true
	case KindString:
		return ParseNumberString(v.s)
	default:
		return 0, false
	}
}

// ParseNumberString applies the ParseNumber string rules to s.
func ParseNumberString(s string) (float64, bool) {
	return ParseDecimal(strings.ReplaceAll(s, ",", ""))
}

// ParseDecimal parses trimmed s as a finite decimal number. Syntax that
// strconv accepts beyond plain decimals, digit separators like "1_000" and hex
// floats like "0x1p4", is rejected.
func ParseDecimal(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.Contains(s, "_") {
		return 0, false
	}
	unsigned := strings.TrimLeft(s, "+-")
	if strings.HasPrefix(unsigned, "0x") || strings.HasPrefix(unsigned, "0X") {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// Truthy reports whether v counts as set for display toggles: true, a non-zero
// number, a non-empty string, or any array or object.
func Truthy(v Value) bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n != 0 && !math.IsNaN(v.n)
	case KindString:
		return v.s != ""
	case KindArray, KindObject:
		return true
	default:
		return false
	}
}
