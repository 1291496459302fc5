package core

import (
	"strconv"
	"strings"

	"github.com/JonMunkholm/tabprep/internal/table"
)

// MissingCount is the number of null cells in one column.
type MissingCount struct {
	Column  string `json:"column"`
	Missing int    `json:"missing"`
}

// DetectMissing returns the null count of every column, in column order.
func DetectMissing(t *table.Table) []MissingCount {
	out := make([]MissingCount, 0, t.NumCols())
	for _, c := range t.Columns() {
		out = append(out, MissingCount{Column: c.Name, Missing: c.NullCount()})
	}
	return out
}

// FillStrategy selects how FillMissing imputes nulls.
type FillStrategy int

const (
	// FillMean fills nulls with the column mean.
	FillMean FillStrategy = iota + 1
	// FillMedian fills nulls with the column median.
	FillMedian
	// FillForward carries the last non-null value forward.
	FillForward
)

func (s FillStrategy) String() string {
	switch s {
	case FillMean:
		return "mean"
	case FillMedian:
		return "median"
	case FillForward:
		return "ffill"
	default:
		return "unknown"
	}
}

// ParseFillStrategy maps "mean", "median" or "ffill" to a strategy.
func ParseFillStrategy(s string) (FillStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mean":
		return FillMean, nil
	case "median":
		return FillMedian, nil
	case "ffill":
		return FillForward, nil
	default:
		return 0, table.Invalidf("unknown strategy %q (want mean, median or ffill)", s)
	}
}

// FillMissing returns a new table with the nulls of one column filled.
//
// Mean and median are computed over the column's float view, ignoring nulls,
// and the filled column is numeric. A cell with no float view is an error.
// A column with no values at all is returned unchanged.
//
// Forward fill keeps the column kind; a leading null stays null.
func FillMissing(t *table.Table, column string, strategy FillStrategy) (*table.Table, error) {
	col, err := t.Column(column)
	if err != nil {
		return nil, err
	}

	var filled *table.Column
	switch strategy {
	case FillMean, FillMedian:
		filled, err = fillStatistic(col, strategy)
		if err != nil {
			return nil, err
		}
	case FillForward:
		filled = forwardFill(col)
	default:
		return nil, table.Invalidf("unknown strategy %q", strategy)
	}

	out := t.Clone()
	if err := out.SetColumn(filled); err != nil {
		return nil, err
	}
	return out, nil
}

func fillStatistic(col *table.Column, strategy FillStrategy) (*table.Column, error) {
	view, err := floatView(col)
	if err != nil {
		return nil, err
	}

	present := make([]float64, 0, len(view))
	for _, v := range view {
		if !v.IsNull() {
			f, _ := v.Float()
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return col.Clone(), nil
	}

	fill := mean(present)
	if strategy == FillMedian {
		fill = median(present)
	}

	for i, v := range view {
		if v.IsNull() {
			view[i] = table.Number(fill)
		}
	}
	return table.NewColumn(col.Name, table.KindNumeric, view), nil
}

// floatView converts a column to numbers. Text and category cells must be
// plain numeric literals; datetimes have no float view.
func floatView(col *table.Column) ([]table.Value, error) {
	out := make([]table.Value, len(col.Values))
	for i, v := range col.Values {
		switch v.Kind() {
		case 0, table.KindNumeric:
			out[i] = v
		case table.KindText, table.KindCategory:
			f, err := strconv.ParseFloat(strings.TrimSpace(v.String()), 64)
			if err != nil {
				return nil, table.Invalidf("column %q: cannot convert %q to float", col.Name, v.String())
			}
			out[i] = table.Number(f)
		default:
			return nil, table.Invalidf("column %q: cannot convert %s to float", col.Name, v.Kind())
		}
	}
	return out, nil
}

func forwardFill(col *table.Column) *table.Column {
	out := col.Clone()
	last := table.Null()
	for i, v := range out.Values {
		if v.IsNull() {
			out.Values[i] = last
			continue
		}
		last = v
	}
	return out
}
