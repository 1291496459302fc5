package core

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/JonMunkholm/tabprep/internal/logging"
	"github.com/JonMunkholm/tabprep/internal/table"
)

// TargetType is the kind TransformTypes converts a column to.
type TargetType string

const (
	TargetDatetime TargetType = "datetime"
	TargetNumeric  TargetType = "numeric"
	TargetCategory TargetType = "category"
	TargetString   TargetType = "string"
)

// ParseTargetType maps a wire name to a TargetType.
func ParseTargetType(s string) (TargetType, error) {
	switch tt := TargetType(strings.ToLower(strings.TrimSpace(s))); tt {
	case TargetDatetime, TargetNumeric, TargetCategory, TargetString:
		return tt, nil
	default:
		return "", table.Invalidf("unknown target type %q", s)
	}
}

// Kind returns the column kind produced by the target.
func (tt TargetType) Kind() table.Kind {
	switch tt {
	case TargetDatetime:
		return table.KindDatetime
	case TargetNumeric:
		return table.KindNumeric
	case TargetCategory:
		return table.KindCategory
	case TargetString:
		return table.KindText
	default:
		return 0
	}
}

// TypeMap assigns target types to column names.
type TypeMap map[string]TargetType

// ParseTypeMap converts a wire type map. Entries with an unknown target name
// are skipped and logged, so a typo leaves that column as it was.
func ParseTypeMap(ctx context.Context, m map[string]string) TypeMap {
	out := make(TypeMap, len(m))
	for col, name := range m {
		tt, err := ParseTargetType(name)
		if err != nil {
			logging.FromContext(ctx).Warn("ignoring unknown target type",
				"column", col,
				"target", name,
			)
			continue
		}
		out[col] = tt
	}
	return out
}

// TransformTypes converts the mapped columns of t in place. Every mapped
// column must exist; nothing is converted when one is missing. Cells that
// cannot be converted become null.
//
// Numbers and datetimes convert into each other as Unix nanoseconds.
func TransformTypes(t *table.Table, types TypeMap) error {
	for col := range types {
		if err := t.Require(col); err != nil {
			return err
		}
	}
	for col, tt := range types {
		if tt.Kind() == 0 {
			return table.Invalidf("column %q: unknown target type %q", col, tt)
		}
	}

	for _, name := range t.Names() {
		tt, ok := types[name]
		if !ok {
			continue
		}
		col, _ := t.Column(name)
		if err := t.SetColumn(convertColumn(col, tt)); err != nil {
			return err
		}
	}
	return nil
}

func convertColumn(col *table.Column, tt TargetType) *table.Column {
	if col.Kind == tt.Kind() {
		return col
	}
	values := make([]table.Value, len(col.Values))
	for i, v := range col.Values {
		if v.IsNull() {
			continue
		}
		switch tt {
		case TargetDatetime:
			values[i] = toDatetime(v)
		case TargetNumeric:
			values[i] = toNumeric(v)
		case TargetCategory:
			values[i] = table.Label(v.String())
		case TargetString:
			values[i] = table.Text(v.String())
		}
	}
	return table.NewColumn(col.Name, tt.Kind(), values)
}

// Numbers and datetimes convert through Unix nanoseconds, which only
// reach from 1677 to 2262. Values outside that span become null.
var (
	minUnixNano = time.Unix(0, math.MinInt64)
	maxUnixNano = time.Unix(0, math.MaxInt64)
)

func toDatetime(v table.Value) table.Value {
	switch v.Kind() {
	case table.KindDatetime:
		return v
	case table.KindNumeric:
		f, _ := v.Float()
		if math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return table.Null()
		}
		return table.Time(time.Unix(0, int64(f)).UTC())
	default:
		ts, ok := table.ParseTime(v.String())
		if !ok {
			return table.Null()
		}
		return table.Time(ts)
	}
}

func toNumeric(v table.Value) table.Value {
	switch v.Kind() {
	case table.KindNumeric:
		return v
	case table.KindDatetime:
		ts, _ := v.Time()
		if ts.Before(minUnixNano) || ts.After(maxUnixNano) {
			return table.Null()
		}
		return table.Number(float64(ts.UnixNano()))
	default:
		f, ok := table.ParseNumber(v.String())
		if !ok {
			return table.Null()
		}
		return table.Number(f)
	}
}
