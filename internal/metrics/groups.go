package metrics

import (
	"strings"

	"backtest-review/internal/format"
	"backtest-review/internal/value"
)

// MetricItem is one labelled, formatted metric.
type MetricItem struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Value    string `json:"value"`
	Negative bool   `json:"negative"`
	Unit     string `json:"unit,omitempty"`
	Kind     Kind   `json:"kind"`
}

// MetricGroup is a named list of metrics in display order.
type MetricGroup struct {
	Group string       `json:"group"`
	Items []MetricItem `json:"items"`
}

// BuildMetricGroups partitions summary into the taxonomy's groups followed by Other.
//
// Group members appear only when present in summary, in the order the taxonomy
// declares them. Remaining keys go to Other in document order unless they are
// hidden or excluded. Empty groups are omitted and no key is listed twice.
func BuildMetricGroups(f format.Formatter, tax Taxonomy, summary *value.Object) []MetricGroup {
	seen := make(map[string]struct{})
	groups := make([]MetricGroup, 0, len(tax.Groups)+1)

	for _, g := range tax.Groups {
		var items []MetricItem
		for _, key := range g.Keys {
			if _, dup := seen[key]; dup {
				continue
			}
			v, ok := summary.Get(key)
			if !ok {
				continue
			}
			seen[key] = struct{}{}
			items = append(items, buildItem(f, tax, key, v))
		}
		if len(items) > 0 {
			groups = append(groups, MetricGroup{Group: g.Name, Items: items})
		}
	}

	hidden := toSet(tax.Hidden)
	excluded := toSet(tax.Excluded)
	var other []MetricItem
	summary.Range(func(key string, v value.Value) bool {
		if _, ok := seen[key]; ok {
			return true
		}
		if _, ok := hidden[key]; ok {
			return true
		}
		if _, ok := excluded[key]; ok {
			return true
		}
		seen[key] = struct{}{}
		other = append(other, buildItem(f, tax, key, v))
		return true
	})
	if len(other) > 0 {
		groups = append(groups, MetricGroup{Group: OtherGroup, Items: other})
	}

	return groups
}

func buildItem(f format.Formatter, tax Taxonomy, key string, v value.Value) MetricItem {
	formatted := FormatMetricValue(f, key, v)
	return MetricItem{
		Key:      key,
		Label:    tax.Label(key),
		Value:    formatted.Text,
		Negative: formatted.Negative,
		Unit:     tax.Units[key],
		Kind:     formatted.Kind,
	}
}

func humanizeKey(key string) string {
	return strings.ReplaceAll(key, "_", " ")
}
