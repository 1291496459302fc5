package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/tabprep/internal/table"
)

func patients() *table.Table {
	return table.MustNew(
		table.Floats("age", 10, 25, 40, 80, table.NaN),
		table.Strings("site", "A", "B", "A", "C", ""),
		table.NewColumn("arm", table.KindCategory, []table.Value{
			table.Label("placebo"), table.Label("drug"), table.Label("drug"), table.Null(), table.Label("placebo"),
		}),
	)
}

func ages(t *testing.T, tbl *table.Table) []float64 {
	t.Helper()
	col, err := tbl.Column("age")
	require.NoError(t, err)
	return floats(t, col)
}

func TestFilterInRangeInclusive(t *testing.T) {
	out, err := Filter(patients(), []Condition{Between("age", 18, 65)})
	require.NoError(t, err)
	assert.Equal(t, []float64{25, 40}, ages(t, out))

	out, err = Filter(patients(), []Condition{Between("age", 25, 40)})
	require.NoError(t, err)
	assert.Equal(t, []float64{25, 40}, ages(t, out), "bounds are inclusive")
}

func TestFilterOperators(t *testing.T) {
	tests := []struct {
		name string
		cond Condition
		want []float64
	}{
		{"equals number", Eq("age", 40), []float64{40}},
		{"equals numeric text", Eq("age", "40"), []float64{40}},
		{"greater than", Gt("age", 25), []float64{40, 80}},
		{"less than", Lt("age", 25), []float64{10}},
		{"in list", OneOf("age", 10, 80, 99), []float64{10, 80}},
		{"text equals", Eq("site", "A"), []float64{10, 40}},
		{"text in list", OneOf("site", "B", "C"), []float64{25, 80}},
		{"category equals", Eq("arm", "drug"), []float64{25, 40}},
		{"uncoercible equals matches nothing", Eq("age", "old"), []float64{}},
		{"number against text matches nothing", Eq("site", 1), []float64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Filter(patients(), []Condition{tt.cond})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ages(t, out))
		})
	}
}

func TestFilterNullsNeverMatch(t *testing.T) {
	out, err := Filter(patients(), []Condition{OneOf("arm", "placebo", "drug")})
	require.NoError(t, err)
	assert.Equal(t, 4, out.NumRows())

	out, err = Filter(patients(), []Condition{Gt("age", -1)})
	require.NoError(t, err)
	assert.Equal(t, 4, out.NumRows())
}

func TestFilterRowCountNeverIncreases(t *testing.T) {
	conds := []Condition{
		Gt("age", 0),
		OneOf("site", "A", "B"),
		Lt("age", 50),
		Eq("arm", "drug"),
	}

	prev := patients().NumRows()
	for i := range conds {
		out, err := Filter(patients(), conds[:i+1])
		require.NoError(t, err)
		assert.LessOrEqual(t, out.NumRows(), prev)
		prev = out.NumRows()
	}
	assert.Equal(t, 2, prev)
}

func TestFilterEmptyResult(t *testing.T) {
	out, err := Filter(patients(), []Condition{Gt("age", 1000)})
	require.NoError(t, err)
	assert.Equal(t, 0, out.NumRows())
	assert.Equal(t, 3, out.NumCols())
}

func TestFilterDatetime(t *testing.T) {
	day := func(d int) table.Value { return table.Time(time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)) }
	tbl := table.MustNew(table.NewColumn("visit", table.KindDatetime, []table.Value{day(1), day(10), day(20)}))

	out, err := Filter(tbl, []Condition{Between("visit", "2024-01-05", "01/15/2024")})
	require.NoError(t, err)
	require.Equal(t, 1, out.NumRows())
	assert.Equal(t, "2024-01-10", out.Row(0)[0].String())
}

func TestFilterErrors(t *testing.T) {
	_, err := Filter(patients(), []Condition{Eq("height", 1)})
	assert.ErrorIs(t, err, table.ErrNotFound)

	_, err = Filter(patients(), []Condition{Gt("arm", "drug")})
	require.ErrorIs(t, err, table.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "unordered")

	_, err = Filter(patients(), []Condition{Gt("age", "old")})
	assert.ErrorIs(t, err, table.ErrInvalidArgument)

	_, err = Filter(patients(), []Condition{{Column: "age", Op: "contains"}})
	assert.ErrorIs(t, err, table.ErrInvalidArgument)
}

func TestParseFiltersAliases(t *testing.T) {
	specs := []FilterSpec{
		{Column: "age", Condition: "in_range", Value: []any{18.0, 65.0}},
		{Column: "site", Operator: "in_list", Value: []any{"A"}},
		{Column: "age", Condition: "greater_than", Operator: "less_than", Value: 20},
	}

	conds, err := ParseFilters(specs)
	require.NoError(t, err)
	require.Len(t, conds, 3)

	assert.Equal(t, OpInRange, conds[0].Op)
	assert.True(t, conds[0].Low.Equal(table.Number(18)))
	assert.True(t, conds[0].High.Equal(table.Number(65)))
	assert.Equal(t, OpInList, conds[1].Op)
	assert.Equal(t, OpGreaterThan, conds[2].Op, "condition wins over operator")

	out, err := Filter(patients(), conds)
	require.NoError(t, err)
	assert.Equal(t, []float64{40}, ages(t, out))
}

func TestParseFiltersErrors(t *testing.T) {
	tests := []struct {
		name string
		spec FilterSpec
		want string
	}{
		{"unknown condition", FilterSpec{Column: "a", Condition: "contains", Value: 1}, "unknown condition: contains"},
		{"missing condition", FilterSpec{Column: "a", Value: 1}, "missing condition"},
		{"range needs pair", FilterSpec{Column: "a", Condition: "in_range", Value: []any{1}}, "[low, high]"},
		{"list needs list", FilterSpec{Column: "a", Condition: "in_list", Value: "x"}, "must be a list"},
		{"scalar needs scalar", FilterSpec{Column: "a", Condition: "equals", Value: []any{1}}, "must be a scalar"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFilters([]FilterSpec{tt.spec})
			require.ErrorIs(t, err, table.ErrInvalidArgument)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
