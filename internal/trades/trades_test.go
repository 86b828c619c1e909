package trades

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backtest-review/internal/format"
	"backtest-review/internal/metrics"
	"backtest-review/internal/value"
)

func TestResolveTradeColumns(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"priority order, declared casing", []string{"Entry_Date", "PNL", "symbol"}, []string{"symbol", "Entry_Date", "PNL"}},
		{"extras dropped", []string{"pnl", "commission", "notes", "Stop"}, []string{"Stop", "pnl"}},
		{"later duplicate wins", []string{"Symbol", "SYMBOL"}, []string{"SYMBOL"}},
		{"none", []string{"foo"}, []string{}},
		{"nil", nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveTradeColumns(tt.in))
		})
	}
}

func TestFormatTradeCell(t *testing.T) {
	f := format.Default()
	tests := []struct {
		name string
		in   value.Value
		want string
	}{
		{"null", value.Null(), "—"},
		{"number", value.Number(1234.56789), "1,234.5679"},
		{"tiny number", value.Number(-4e-11), "0"},
		{"nan", value.Number(math.NaN()), "NaN"},
		{"datetime", value.String("2024-01-05 14:30:00"), "1/5/2024, 2:30:00 PM"},
		{"slash date", value.String("2024/01/05"), "1/5/2024, 12:00:00 AM"},
		{"numeric string", value.String(" 1,500.25 "), "1,500.25"},
		{"negative numeric string", value.String("-12.5"), "-12.5"},
		{"text", value.String("  AAPL "), "AAPL"},
		{"blank", value.String("   "), "—"},
		{"enum", value.String("LONG_POS"), "LONG_POS"},
		{"bool", value.Bool(true), "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatTradeCell(f, tt.in))
		})
	}
}

func TestFormatCell_PositionStatus(t *testing.T) {
	f := format.Default()
	assert.Equal(t, "Long", FormatCell(f, "position_status", value.String("LONG_POS")).Text)
	assert.Equal(t, "Short", FormatCell(f, "Position_Status", value.String("SHORT_POS")).Text)
	assert.Equal(t, "FLAT", FormatCell(f, "position_status", value.String("FLAT")).Text)
	assert.Equal(t, "—", FormatCell(f, "position_status", value.Null()).Text)
	// Translation only applies to the status column.
	assert.Equal(t, "LONG_POS", FormatCell(f, "symbol", value.String("LONG_POS")).Text)
}

func TestFormatCell_PnLTone(t *testing.T) {
	f := format.Default()

	loss := FormatCell(f, "PnL", value.String("-12.5"))
	require.NotNil(t, loss.Number)
	assert.Equal(t, -12.5, *loss.Number)
	assert.Equal(t, metrics.ToneNegative, loss.Tone)

	gain := FormatCell(f, "pnl", value.Number(3))
	assert.Equal(t, metrics.TonePositive, gain.Tone)

	flat := FormatCell(f, "pnl", value.Number(0))
	assert.Equal(t, metrics.ToneNeutral, flat.Tone)

	entry := FormatCell(f, "entry", value.Number(-3))
	require.NotNil(t, entry.Number)
	assert.Equal(t, metrics.ToneNeutral, entry.Tone)

	text := FormatCell(f, "pnl", value.String("n/a"))
	assert.Nil(t, text.Number)
}

func TestBuildTable(t *testing.T) {
	rows := make([]*value.Object, 0, 12)
	for i := 0; i < 12; i++ {
		rows = append(rows, value.ObjectOf("Symbol", nil, "symbol", "S", "pnl", float64(i)))
	}

	table := BuildTable(format.Default(), []string{"Symbol", "pnl", "extra"}, rows, 10)

	assert.Equal(t, []string{"Symbol", "pnl"}, table.Columns)
	assert.Equal(t, []string{"Symbol", "pnl"}, table.Headers)
	require.Len(t, table.Rows, 10)
	// Last ten rows are kept, oldest first.
	assert.Equal(t, "2", table.Rows[0][1].Text)
	assert.Equal(t, "11", table.Rows[9][1].Text)
	// Null under the declared casing falls back to the lowercase key.
	assert.Equal(t, "S", table.Rows[0][0].Text)
	assert.False(t, table.Empty())
}

func TestBuildTable_Headers(t *testing.T) {
	table := BuildTable(format.Default(), []string{"entry_date", "position_status"}, nil, 10)
	assert.Equal(t, []string{"entry date", "position status"}, table.Headers)
	assert.True(t, table.Empty())
}

func TestBuildTable_NoColumns(t *testing.T) {
	rows := []*value.Object{value.ObjectOf("foo", 1)}
	table := BuildTable(format.Default(), []string{"foo"}, rows, 10)
	assert.True(t, table.Empty())
	assert.Empty(t, table.Rows)
}
