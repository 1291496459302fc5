// Package store persists tables in PostgreSQL.
//
// Each table is stored as a SQL table of the same name. Numeric columns map
// to double precision, datetimes to timestamptz and everything else to text.
// Rows are written with the COPY protocol.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/tabprep/internal/logging"
	"github.com/JonMunkholm/tabprep/internal/table"
)

// undefinedTable is the SQLSTATE for a missing relation.
const undefinedTable = "42P01"

// DB is the subset of *pgxpool.Pool the store uses.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store saves and loads tables.
type Store struct {
	db DB
}

// New returns a Store backed by db.
func New(db DB) *Store {
	return &Store{db: db}
}

// Save replaces the SQL table name with the contents of t in a single
// transaction and returns the number of rows copied.
func (s *Store) Save(ctx context.Context, name string, t *table.Table) (int64, error) {
	if strings.TrimSpace(name) == "" {
		return 0, table.Invalidf("table name is required")
	}
	if t.NumCols() == 0 {
		return 0, table.Invalidf("table %q has no columns", name)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	ident := pgx.Identifier{name}
	if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+ident.Sanitize()); err != nil {
		return 0, fmt.Errorf("drop %s: %w", name, err)
	}
	if _, err := tx.Exec(ctx, createTableSQL(name, t)); err != nil {
		return 0, fmt.Errorf("create %s: %w", name, err)
	}

	cols := t.Columns()
	n, err := tx.CopyFrom(ctx, ident, t.Names(), pgx.CopyFromSlice(t.NumRows(), func(i int) ([]any, error) {
		row := make([]any, len(cols))
		for j, c := range cols {
			row[j] = pgValue(c.Kind, c.Values[i])
		}
		return row, nil
	}))
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", name, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}

	logging.FromContext(ctx).Info("table saved",
		"table", name,
		"rows", n,
		"columns", len(cols),
	)
	return n, nil
}

// Load reads the SQL table name back into a table. Column kinds follow the
// SQL types; text columns come back as text, not category.
func (s *Store) Load(ctx context.Context, name string) (*table.Table, error) {
	rows, err := s.db.Query(ctx, "SELECT * FROM "+pgx.Identifier{name}.Sanitize())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == undefinedTable {
			return nil, table.NotFoundf("stored table %q", name)
		}
		return nil, fmt.Errorf("query %s: %w", name, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	kinds := make([]table.Kind, len(fields))
	values := make([][]table.Value, len(fields))
	for j, f := range fields {
		kinds[j] = kindForOID(f.DataTypeOID)
	}

	for rows.Next() {
		raw, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", name, err)
		}
		for j, v := range raw {
			values[j] = append(values[j], fromPG(v))
		}
	}
	if err := rows.Err(); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == undefinedTable {
			return nil, table.NotFoundf("stored table %q", name)
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	cols := make([]*table.Column, len(fields))
	for j, f := range fields {
		cols[j] = table.NewColumn(f.Name, kinds[j], values[j])
	}
	return table.New(cols...)
}

func createTableSQL(name string, t *table.Table) string {
	defs := make([]string, 0, t.NumCols())
	for _, c := range t.Columns() {
		defs = append(defs, pgx.Identifier{c.Name}.Sanitize()+" "+pgType(c.Kind))
	}
	return "CREATE TABLE " + pgx.Identifier{name}.Sanitize() + " (" + strings.Join(defs, ", ") + ")"
}

func pgType(k table.Kind) string {
	switch k {
	case table.KindNumeric:
		return "double precision"
	case table.KindDatetime:
		return "timestamptz"
	default:
		return "text"
	}
}

// pgValue converts a cell for COPY. Nulls become invalid pgtype values.
func pgValue(k table.Kind, v table.Value) any {
	switch k {
	case table.KindNumeric:
		f, ok := v.Float()
		return pgtype.Float8{Float64: f, Valid: ok}
	case table.KindDatetime:
		ts, ok := v.Time()
		return pgtype.Timestamptz{Time: ts, Valid: ok}
	default:
		return pgtype.Text{String: v.String(), Valid: !v.IsNull()}
	}
}

func kindForOID(oid uint32) table.Kind {
	switch oid {
	case pgtype.Float8OID, pgtype.Float4OID, pgtype.Int2OID, pgtype.Int4OID, pgtype.Int8OID, pgtype.NumericOID:
		return table.KindNumeric
	case pgtype.TimestamptzOID, pgtype.TimestampOID, pgtype.DateOID:
		return table.KindDatetime
	default:
		return table.KindText
	}
}

// fromPG converts a decoded column value to a cell.
func fromPG(v any) table.Value {
	switch x := v.(type) {
	case nil:
		return table.Null()
	case pgtype.Numeric:
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return table.Null()
		}
		return table.Number(f.Float64)
	case time.Time:
		return table.Time(x.UTC())
	case string:
		return table.Text(x)
	default:
		return table.ValueOf(x)
	}
}
