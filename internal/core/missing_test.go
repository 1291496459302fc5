package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/tabprep/internal/table"
)

func floats(t *testing.T, c *table.Column) []float64 {
	t.Helper()
	out := make([]float64, c.Len())
	for i, v := range c.Values {
		f, ok := v.Float()
		if !ok {
			out[i] = table.NaN
			continue
		}
		out[i] = f
	}
	return out
}

func TestDetectMissing(t *testing.T) {
	tbl := table.MustNew(
		table.Floats("age", 30, table.NaN, 41),
		table.Strings("site", "", "", "B"),
	)

	got := DetectMissing(tbl)

	assert.Equal(t, []MissingCount{
		{Column: "age", Missing: 1},
		{Column: "site", Missing: 2},
	}, got)
}

func TestCleanDefaults(t *testing.T) {
	tbl := table.MustNew(
		table.Floats("id", 1, 1, 2, 3),
		table.Floats("age", 30, 30, -999, 52),
		table.Strings("site", "A", "A", "-999", "B"),
	)

	out, err := Clean(tbl, DefaultCleanOptions())
	require.NoError(t, err)

	require.Equal(t, 3, out.NumRows())
	age, _ := out.Column("age")
	assert.True(t, age.Values[1].IsNull())
	site, _ := out.Column("site")
	assert.Equal(t, table.Text("-999"), site.Values[1], "text spelling is not the numeric sentinel")

	// Input is untouched.
	assert.Equal(t, 4, tbl.NumRows())
	in, _ := tbl.Column("age")
	assert.False(t, in.Values[2].IsNull())
}

func TestCleanMatchText(t *testing.T) {
	tbl := table.MustNew(
		table.Floats("age", 30, -999),
		table.Strings("site", "A", "-999"),
	)

	opts := DefaultCleanOptions()
	opts.MatchText = true
	out, err := Clean(tbl, opts)
	require.NoError(t, err)

	site, _ := out.Column("site")
	assert.True(t, site.Values[1].IsNull())
	assert.Equal(t, table.Text("A"), site.Values[0])
}

func TestCleanDedupBeforeReplace(t *testing.T) {
	tbl := table.MustNew(
		table.Floats("id", 1, 1),
		table.Floats("score", -999, table.NaN),
	)

	out, err := Clean(tbl, DefaultCleanOptions())
	require.NoError(t, err)

	require.Equal(t, 2, out.NumRows(), "a sentinel row is not a duplicate of a null row")
	score, _ := out.Column("score")
	assert.True(t, score.Values[0].IsNull())
	assert.True(t, score.Values[1].IsNull())
}

func TestCleanLeavesNoSentinel(t *testing.T) {
	sentinel := table.Number(-999)
	tbl := table.MustNew(
		table.Floats("a", -999, 1, -999, 2),
		table.Floats("b", 5, -999, -999, 6),
	)

	out, err := Clean(tbl, CleanOptions{Sentinel: sentinel})
	require.NoError(t, err)

	for _, c := range out.Columns() {
		for _, v := range c.Values {
			assert.False(t, v.Equal(sentinel), "column %s still holds the sentinel", c.Name)
		}
	}
	assert.Equal(t, 4, out.NumRows(), "duplicates kept when disabled")
}

func TestCleanIsIdempotent(t *testing.T) {
	tbl := table.MustNew(
		table.Floats("id", 1, 1, 2, 3),
		table.Floats("score", -999, -999, 7, table.NaN),
		table.Strings("site", "A", "A", "B", ""),
	)

	once, err := Clean(tbl, DefaultCleanOptions())
	require.NoError(t, err)
	twice, err := Clean(once, DefaultCleanOptions())
	require.NoError(t, err)

	assert.Equal(t, 3, once.NumRows())
	_, wantRows := once.Records()
	_, gotRows := twice.Records()
	assert.Equal(t, wantRows, gotRows)
}

func TestCleanCategoryDropsSentinelLabel(t *testing.T) {
	tests := []struct {
		name string
		opts CleanOptions
	}{
		{"text sentinel", CleanOptions{Sentinel: table.Text("-999")}},
		{"numeric sentinel matching text", CleanOptions{Sentinel: table.Number(-999), MatchText: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col := table.NewColumn("grade", table.KindCategory, []table.Value{
				table.Label("low"), table.Label("-999"), table.Label("high"),
			})
			out, err := Clean(table.MustNew(col), tt.opts)
			require.NoError(t, err)

			grade, _ := out.Column("grade")
			assert.Equal(t, []string{"low", "high"}, grade.Categories)
			assert.True(t, grade.Values[1].IsNull())
		})
	}
}

func TestCleanCategoryKeepsLabelWithoutMatchText(t *testing.T) {
	col := table.NewColumn("grade", table.KindCategory, []table.Value{
		table.Label("low"), table.Label("-999"),
	})
	out, err := Clean(table.MustNew(col), DefaultCleanOptions())
	require.NoError(t, err)

	grade, _ := out.Column("grade")
	assert.Equal(t, []string{"low", "-999"}, grade.Categories)
	assert.False(t, grade.Values[1].IsNull())
}

func TestCleanRejectsNullSentinel(t *testing.T) {
	_, err := Clean(table.MustNew(table.Floats("a", 1)), CleanOptions{})
	assert.ErrorIs(t, err, table.ErrInvalidArgument)
}

func TestDropDuplicatesTreatsNullsAsEqual(t *testing.T) {
	tbl := table.MustNew(
		table.Floats("a", 1, 1, table.NaN, table.NaN),
		table.Strings("b", "x", "x", "", ""),
	)
	out := DropDuplicates(tbl)
	assert.Equal(t, 2, out.NumRows())
}

func TestFillMissing(t *testing.T) {
	tbl := table.MustNew(table.Floats("x", 1, table.NaN, 3))

	tests := []struct {
		name     string
		strategy FillStrategy
		want     []float64
	}{
		{"forward fill", FillForward, []float64{1, 1, 3}},
		{"mean", FillMean, []float64{1, 2, 3}},
		{"median", FillMedian, []float64{1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := FillMissing(tbl, "x", tt.strategy)
			require.NoError(t, err)
			col, _ := out.Column("x")
			assert.Equal(t, tt.want, floats(t, col))
		})
	}

	in, _ := tbl.Column("x")
	assert.True(t, in.Values[1].IsNull(), "input must not change")
}

func TestFillMissingMedianIgnoresOutlier(t *testing.T) {
	tbl := table.MustNew(table.Floats("x", 1, 2, table.NaN, 100))
	out, err := FillMissing(tbl, "x", FillMedian)
	require.NoError(t, err)
	col, _ := out.Column("x")
	assert.Equal(t, []float64{1, 2, 2, 100}, floats(t, col))
}

func TestFillMissingForwardLeadingNull(t *testing.T) {
	tbl := table.MustNew(table.Strings("site", "", "A", "", "B"))
	out, err := FillMissing(tbl, "site", FillForward)
	require.NoError(t, err)

	col, _ := out.Column("site")
	assert.Equal(t, table.KindText, col.Kind)
	assert.True(t, col.Values[0].IsNull())
	assert.Equal(t, "A", col.Values[2].String())
}

func TestFillMissingNumericText(t *testing.T) {
	tbl := table.MustNew(table.Strings("x", "2", "", "4"))
	out, err := FillMissing(tbl, "x", FillMean)
	require.NoError(t, err)

	col, _ := out.Column("x")
	assert.Equal(t, table.KindNumeric, col.Kind)
	assert.Equal(t, []float64{2, 3, 4}, floats(t, col))
}

func TestFillMissingAllNull(t *testing.T) {
	tbl := table.MustNew(table.Floats("x", table.NaN, table.NaN))
	out, err := FillMissing(tbl, "x", FillMean)
	require.NoError(t, err)
	col, _ := out.Column("x")
	assert.Equal(t, 2, col.NullCount())
}

func TestFillMissingErrors(t *testing.T) {
	tbl := table.MustNew(
		table.Floats("x", 1, table.NaN),
		table.Strings("name", "ann", ""),
	)

	_, err := FillMissing(tbl, "missing", FillMean)
	assert.ErrorIs(t, err, table.ErrNotFound)

	_, err = FillMissing(tbl, "name", FillMean)
	assert.ErrorIs(t, err, table.ErrInvalidArgument)

	_, err = ParseFillStrategy("mode")
	require.ErrorIs(t, err, table.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "mode")
}

func TestParseFillStrategy(t *testing.T) {
	for _, s := range []FillStrategy{FillMean, FillMedian, FillForward} {
		got, err := ParseFillStrategy(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
}
