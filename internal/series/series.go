// Package series derives chart-ready series from backtest time series.
//
// Every builder returns empty, non-nil slices when its input is missing or malformed.
package series

import (
	"sort"
	"strconv"

	"backtest-review/internal/domain"
	"backtest-review/internal/format"
	"backtest-review/internal/value"
)

// Labeled is a pair of parallel label and value slices.
type Labeled struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// Len returns the number of samples.
func (l Labeled) Len() int { return len(l.Values) }

func emptyLabeled() Labeled {
	return Labeled{Labels: []string{}, Values: []float64{}}
}

// EquityCurve returns balances in input order with short date labels.
// Null dates produce empty labels; unparseable dates are kept verbatim.
// Points whose balance is not numeric never reach here: domain.DecodeBacktestDetail drops them.
func EquityCurve(f format.Formatter, points []domain.EquityPoint) Labeled {
	out := emptyLabeled()
	for _, p := range points {
		label := ""
		if p.Date != nil && *p.Date != "" {
			label = f.DateLabel(*p.Date)
		}
		out.Labels = append(out.Labels, label)
		out.Values = append(out.Values, p.Balance)
	}
	return out
}

// Drawdown scales fractional drawdowns to percent. Non-numeric entries become 0.
func Drawdown(entries []value.Value) []float64 {
	out := make([]float64, len(entries))
	for i, e := range entries {
		if n, ok := e.AsNumber(); ok {
			out[i] = n * 100
		}
	}
	return out
}

type bucket struct {
	key   float64
	count float64
}

// DurationDistribution turns a bucket-to-count mapping into series sorted by
// numeric bucket. Buckets whose key is not a finite number or whose count does
// not parse are dropped. Labels are the canonical number text, so "05" becomes "5".
// Arrays are accepted and keyed by index.
func DurationDistribution(raw value.Value) Labeled {
	var buckets []bucket
	add := func(key string, v value.Value) {
		k, ok := parseBucketKey(key)
		if !ok {
			return
		}
		count, ok := value.ParseNumber(v)
		if !ok {
			return
		}
		buckets = append(buckets, bucket{key: k, count: count})
	}

	switch raw.Kind() {
	case value.KindObject:
		obj, _ := raw.AsObject()
		obj.Range(func(key string, v value.Value) bool {
			add(key, v)
			return true
		})
	case value.KindArray:
		items, _ := raw.AsArray()
		for i, v := range items {
			add(strconv.Itoa(i), v)
		}
	default:
		return emptyLabeled()
	}

	sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].key < buckets[j].key })

	out := emptyLabeled()
	for _, b := range buckets {
		out.Labels = append(out.Labels, value.Number(b.key).String())
		out.Values = append(out.Values, b.count)
	}
	return out
}

// parseBucketKey accepts keys that read as finite decimal numbers after trimming.
// Blank keys are rejected.
func parseBucketKey(key string) (float64, bool) {
	return value.ParseDecimal(key)
}
