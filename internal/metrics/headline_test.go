package metrics

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backtest-review/internal/format"
	"backtest-review/internal/value"
)

func TestBuildHeadlineMetrics_EndToEnd(t *testing.T) {
	summary := value.ObjectOf(
		"Number_of_Trades", 12,
		"final_pnl", 340.25,
		"Annualized_Return", 0.18,
		"Maximum_Drawdown", -0.15,
	)

	got := BuildHeadlineMetrics(format.Default(), summary)

	assert.Equal(t, HeadlineMetric{Label: "Total trades", Value: "12", Tone: ToneNeutral}, got[0])
	assert.Equal(t, HeadlineMetric{Label: "Final PnL", Value: "$340.25", Tone: TonePositive}, got[1])
	assert.Equal(t, HeadlineMetric{Label: "Annualized Return", Value: "18.00%", Tone: TonePositive}, got[2])
}

func TestBuildHeadlineMetrics_Fallbacks(t *testing.T) {
	summary := value.ObjectOf(
		"Number_of_Trades", nil,
		"total_trades", "1,204",
		"final_pnl", nil,
		"Profit_$", -80,
		"Total_Return_$", 50,
	)

	got := BuildHeadlineMetrics(format.Default(), summary)

	assert.Equal(t, "1,204", got[0].Value)
	assert.Equal(t, "-$80.00", got[1].Value)
	assert.Equal(t, ToneNegative, got[1].Tone)
	assert.Equal(t, "—", got[2].Value)
	assert.Equal(t, ToneNeutral, got[2].Tone)
}

func TestBuildHeadlineMetrics_UnparseableStopsChain(t *testing.T) {
	summary := value.ObjectOf("final_pnl", "pending", "Profit_$", 10)

	got := BuildHeadlineMetrics(format.Default(), summary)

	assert.Equal(t, "—", got[1].Value)
	assert.Equal(t, ToneNeutral, got[1].Tone)
}

func TestBuildHeadlineMetrics_Missing(t *testing.T) {
	got := BuildHeadlineMetrics(format.Default(), nil)

	require.Len(t, got, 3)
	for _, h := range got {
		assert.Equal(t, "—", h.Value)
		assert.Equal(t, ToneNeutral, h.Tone)
	}
}

func TestBuildHeadlineMetrics_ZeroIsNeutral(t *testing.T) {
	got := BuildHeadlineMetrics(format.Default(), value.ObjectOf("final_pnl", 0, "Annualized_Return", 0))
	assert.Equal(t, "$0.00", got[1].Value)
	assert.Equal(t, ToneNeutral, got[1].Tone)
	assert.Equal(t, "0.00%", got[2].Value)
}

func TestTone_MarshalJSON(t *testing.T) {
	data, err := json.Marshal([]HeadlineMetric{
		{Label: "a", Value: "1", Tone: TonePositive},
		{Label: "b", Value: "2"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"label":"a","value":"1","tone":"pos"},{"label":"b","value":"2","tone":null}]`, string(data))
}
