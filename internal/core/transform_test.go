package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/tabprep/internal/table"
)

func TestTransformTypes(t *testing.T) {
	tbl := table.MustNew(
		table.Strings("enrolled", "2024-01-15", "03/02/2024", "soon"),
		table.Strings("dose", "$1,200", "(5)", "n/a"),
		table.Strings("site", "B", "A", "B"),
		table.Floats("id", 1, 2, 3),
	)

	err := TransformTypes(tbl, TypeMap{
		"enrolled": TargetDatetime,
		"dose":     TargetNumeric,
		"site":     TargetCategory,
		"id":       TargetString,
	})
	require.NoError(t, err)

	enrolled, _ := tbl.Column("enrolled")
	assert.Equal(t, table.KindDatetime, enrolled.Kind)
	ts, ok := enrolled.Values[1].Time()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), ts)
	assert.True(t, enrolled.Values[2].IsNull(), "unparseable dates become null")

	dose, _ := tbl.Column("dose")
	assert.Equal(t, table.KindNumeric, dose.Kind)
	assert.Equal(t, []float64{1200, -5}, floats(t, dose)[:2])
	assert.True(t, dose.Values[2].IsNull())

	site, _ := tbl.Column("site")
	assert.Equal(t, table.KindCategory, site.Kind)
	assert.Equal(t, []string{"B", "A"}, site.Categories)

	id, _ := tbl.Column("id")
	assert.Equal(t, table.KindText, id.Kind)
	assert.Equal(t, "2", id.Values[1].String())
}

func TestTransformTypesUnmentionedColumnsUntouched(t *testing.T) {
	tbl := table.MustNew(
		table.Strings("a", "1", "2"),
		table.Strings("b", "3", "4"),
	)
	before, _ := tbl.Column("b")

	require.NoError(t, TransformTypes(tbl, TypeMap{"a": TargetNumeric}))

	after, _ := tbl.Column("b")
	assert.Same(t, before, after)
	assert.Equal(t, table.KindText, after.Kind)
}

func TestTransformTypesNumericDatetimeRoundTrip(t *testing.T) {
	when := time.Date(2023, 6, 1, 12, 30, 0, 0, time.UTC)
	tbl := table.MustNew(table.NewColumn("at", table.KindDatetime, []table.Value{table.Time(when)}))

	require.NoError(t, TransformTypes(tbl, TypeMap{"at": TargetNumeric}))
	at, _ := tbl.Column("at")
	f, ok := at.Values[0].Float()
	require.True(t, ok)
	assert.Equal(t, float64(when.UnixNano()), f)

	require.NoError(t, TransformTypes(tbl, TypeMap{"at": TargetDatetime}))
	at, _ = tbl.Column("at")
	got, ok := at.Values[0].Time()
	require.True(t, ok)
	assert.True(t, when.Equal(got))
}

func TestTransformTypesOutOfRangeBecomesNull(t *testing.T) {
	far := time.Date(3000, 1, 1, 0, 0, 0, 0, time.UTC)
	tbl := table.MustNew(
		table.Floats("n", 1e30, -1e30, 0),
		table.NewColumn("at", table.KindDatetime, []table.Value{
			table.Time(far), table.Time(time.Date(1500, 1, 1, 0, 0, 0, 0, time.UTC)), table.Time(time.Unix(0, 0)),
		}),
	)

	require.NoError(t, TransformTypes(tbl, TypeMap{"n": TargetDatetime, "at": TargetNumeric}))

	n, _ := tbl.Column("n")
	assert.True(t, n.Values[0].IsNull())
	assert.True(t, n.Values[1].IsNull())
	epoch, ok := n.Values[2].Time()
	require.True(t, ok)
	assert.True(t, epoch.Equal(time.Unix(0, 0)))

	at, _ := tbl.Column("at")
	assert.True(t, at.Values[0].IsNull())
	assert.True(t, at.Values[1].IsNull())
	assert.Equal(t, table.Number(0), at.Values[2])
}

func TestTransformTypesMissingColumnChangesNothing(t *testing.T) {
	tbl := table.MustNew(table.Strings("a", "1"))

	err := TransformTypes(tbl, TypeMap{"a": TargetNumeric, "zzz": TargetNumeric})
	require.ErrorIs(t, err, table.ErrNotFound)

	a, _ := tbl.Column("a")
	assert.Equal(t, table.KindText, a.Kind)
}

func TestParseTypeMapSkipsUnknownTargets(t *testing.T) {
	got := ParseTypeMap(context.Background(), map[string]string{
		"a": "numeric",
		"b": "Category",
		"c": "boolean",
	})
	assert.Equal(t, TypeMap{"a": TargetNumeric, "b": TargetCategory}, got)
}
