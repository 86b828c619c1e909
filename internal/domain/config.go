package domain

import "backtest-review/internal/value"

// Side selects the long or short half of a strategy configuration.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// BacktestConfig is a read view over the configuration a backtest was submitted with.
// The zero value behaves as an empty configuration.
type BacktestConfig struct {
	obj *value.Object
}

// Get returns a top-level configuration value, or null.
func (c BacktestConfig) Get(key string) value.Value {
	v, _ := c.obj.Get(key)
	return v
}

// Name returns the configured backtest name, if any.
func (c BacktestConfig) Name() *string {
	return optString(c.Get("backtest_name"))
}

// SavedAtUTC returns the configuration save timestamp, if any.
func (c BacktestConfig) SavedAtUTC() *string {
	return optString(c.Get("saved_at_utc"))
}

// StartingBalance returns the raw configured starting balance.
func (c BacktestConfig) StartingBalance() value.Value {
	return c.Get("starting_balance")
}

// USDPerTrade returns the raw configured position size.
func (c BacktestConfig) USDPerTrade() value.Value {
	return c.Get("usd_per_trade")
}

// SelectedSymbols returns the string entries of selected_symbols.
func (c BacktestConfig) SelectedSymbols() []string {
	return stringItems(c.Get("selected_symbols"))
}

// Enabled reports whether trading on side is switched on.
func (c BacktestConfig) Enabled(side Side) bool {
	return value.Truthy(c.Get(string(side) + "_enabled"))
}

// SideConfig returns the per-side configuration value named "<name>_<side>",
// read from the "<side>_config" object.
func (c BacktestConfig) SideConfig(side Side, name string) value.Value {
	return c.Get(string(side)+"_config").Path(name + "_" + string(side))
}

// AIEntry returns the generated entry value named "<name>_<side>".
// A non-object ai_entry behaves as empty.
func (c BacktestConfig) AIEntry(side Side, name string) value.Value {
	return c.Get("ai_entry").Path(name + "_" + string(side))
}
