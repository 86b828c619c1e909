package metrics

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// OtherGroup collects metrics that no taxonomy group claims.
const OtherGroup = "Other"

// Group is a named, ordered set of metric keys.
type Group struct {
	Name string   `yaml:"name"`
	Keys []string `yaml:"keys"`
}

// Taxonomy decides how summary metrics are grouped, labelled and filtered.
type Taxonomy struct {
	Groups []Group `yaml:"groups"`
	// Hidden keys are series rendered elsewhere and never listed as metrics.
	Hidden []string `yaml:"hidden"`
	// Excluded keys are dropped from the Other group.
	Excluded []string          `yaml:"excluded"`
	Labels   map[string]string `yaml:"labels"`
	Units    map[string]string `yaml:"units"`
}

// DefaultTaxonomy returns the built-in grouping.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		Groups: []Group{
			{Name: "Balances & Returns", Keys: []string{"Initial_Balance", "final_balance", "Total_Return_Profit_%", "final_pnl", "Annualized_Return"}},
			{Name: "Trade Stats", Keys: []string{"Number_of_Trades", "Win_Rate", "Profit_Factor", "Risk_Reward_Ratio", "Average_Profit_per_Trade", "Recovery_Factor"}},
			{Name: "Risk & Volatility", Keys: []string{"Maximum_Drawdown", "Sharpe_Ratio", "Sortino_Ratio"}},
			{Name: "Durations & Streaks", Keys: []string{"Average_Holding_Period", "Max_Win_Streak", "Max_Loss_Streak"}},
		},
		Hidden: []string{"Equity_Curve", "Trade_Duration_Distribution"},
		Excluded: []string{
			"Total_Return_Profit_$",
			"Recovery_Factor",
			"Total_Return_Net_Profit",
			"Time_in_Market",
			"time_in_market",
			"Per_Trade_USD",
			"per_trade_usd",
			"CAGR",
			"Volatility",
			"Calmar_Ratio",
			"Expectancy",
			"Transaction_Costs",
			"transaction_costs",
			"Transaction_Cost",
			"transaction_cost",
			"Ulcer_Index",
			"ulcer_index",
		},
		Labels: map[string]string{
			"final_pnl":                "Final PnL",
			"Average_Profit_per_Trade": "Average Profit per Trade",
		},
		Units: map[string]string{
			"Average_Holding_Period": "Candles",
		},
	}
}

// ParseTaxonomy decodes a YAML taxonomy document and validates it.
func ParseTaxonomy(data []byte) (Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Taxonomy{}, fmt.Errorf("parse taxonomy: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Taxonomy{}, err
	}
	return t, nil
}

// LoadTaxonomy reads a YAML taxonomy from path.
func LoadTaxonomy(path string) (Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Taxonomy{}, fmt.Errorf("read taxonomy %s: %w", path, err)
	}
	return ParseTaxonomy(data)
}

// Validate checks that group names are unique and no key belongs to two groups.
func (t Taxonomy) Validate() error {
	names := make(map[string]bool, len(t.Groups))
	owners := make(map[string]string)
	for _, g := range t.Groups {
		if g.Name == "" {
			return fmt.Errorf("taxonomy: group with empty name")
		}
		if g.Name == OtherGroup {
			return fmt.Errorf("taxonomy: group name %q is reserved", OtherGroup)
		}
		if names[g.Name] {
			return fmt.Errorf("taxonomy: duplicate group %q", g.Name)
		}
		names[g.Name] = true
		for _, key := range g.Keys {
			if owner, ok := owners[key]; ok {
				return fmt.Errorf("taxonomy: key %q in both %q and %q", key, owner, g.Name)
			}
			owners[key] = g.Name
		}
	}
	return nil
}

// Label returns the display label for key.
func (t Taxonomy) Label(key string) string {
	if label, ok := t.Labels[key]; ok {
		return label
	}
	return humanizeKey(key)
}

func toSet(keys []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}
