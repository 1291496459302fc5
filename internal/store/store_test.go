package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/tabprep/internal/table"
)

func sample() *table.Table {
	return table.MustNew(
		table.Floats("age", 34, table.NaN),
		table.Strings("site name", "A", ""),
		table.NewColumn("enrolled", table.KindDatetime, []table.Value{
			table.Time(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)), table.Null(),
		}),
		table.NewColumn("arm", table.KindCategory, []table.Value{table.Label("drug"), table.Null()}),
	)
}

func TestCreateTableSQL(t *testing.T) {
	got := createTableSQL(`trial"s`, sample())
	want := `CREATE TABLE "trial""s" ("age" double precision, "site name" text, "enrolled" timestamptz, "arm" text)`
	assert.Equal(t, want, got)
}

func TestPGValue(t *testing.T) {
	tests := []struct {
		name string
		kind table.Kind
		in   table.Value
		want any
	}{
		{"number", table.KindNumeric, table.Number(1.5), pgtype.Float8{Float64: 1.5, Valid: true}},
		{"null number", table.KindNumeric, table.Null(), pgtype.Float8{}},
		{"text", table.KindText, table.Text("a"), pgtype.Text{String: "a", Valid: true}},
		{"null text", table.KindText, table.Null(), pgtype.Text{}},
		{"label", table.KindCategory, table.Label("drug"), pgtype.Text{String: "drug", Valid: true}},
		{"null time", table.KindDatetime, table.Null(), pgtype.Timestamptz{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pgValue(tt.kind, tt.in))
		})
	}
}

func TestKindForOID(t *testing.T) {
	assert.Equal(t, table.KindNumeric, kindForOID(pgtype.Float8OID))
	assert.Equal(t, table.KindNumeric, kindForOID(pgtype.Int8OID))
	assert.Equal(t, table.KindDatetime, kindForOID(pgtype.TimestamptzOID))
	assert.Equal(t, table.KindText, kindForOID(pgtype.TextOID))
	assert.Equal(t, table.KindText, kindForOID(pgtype.BoolOID))
}

func TestFromPG(t *testing.T) {
	assert.True(t, fromPG(nil).IsNull())
	assert.True(t, fromPG(float64(2)).Equal(table.Number(2)))
	assert.True(t, fromPG(int32(7)).Equal(table.Number(7)))
	assert.True(t, fromPG("x").Equal(table.Text("x")))

	var n pgtype.Numeric
	require.NoError(t, n.Scan("12.5"))
	assert.True(t, fromPG(n).Equal(table.Number(12.5)))
}

// Integration tests need a scratch database, for example:
//
//	TEST_DATABASE_URL=postgres://localhost:5432/tabprep_test go test ./internal/store
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	pool, err := pgxpool.New(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestStoreRoundTrip(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	s := New(pool)

	n, err := s.Save(ctx, "tabprep_roundtrip", sample())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	t.Cleanup(func() { _, _ = pool.Exec(ctx, `DROP TABLE IF EXISTS "tabprep_roundtrip"`) })

	// Saving again replaces the table.
	_, err = s.Save(ctx, "tabprep_roundtrip", sample())
	require.NoError(t, err)

	got, err := s.Load(ctx, "tabprep_roundtrip")
	require.NoError(t, err)
	assert.Equal(t, []string{"age", "site name", "enrolled", "arm"}, got.Names())
	assert.Equal(t, 2, got.NumRows())

	age, _ := got.Column("age")
	assert.Equal(t, table.KindNumeric, age.Kind)
	assert.True(t, age.Values[1].IsNull())

	enrolled, _ := got.Column("enrolled")
	assert.Equal(t, table.KindDatetime, enrolled.Kind)
	assert.Equal(t, "2024-01-15", enrolled.Values[0].String())
}

func TestStoreLoadMissing(t *testing.T) {
	pool := testPool(t)
	_, err := New(pool).Load(context.Background(), "tabprep_does_not_exist")
	assert.ErrorIs(t, err, table.ErrNotFound)
}
