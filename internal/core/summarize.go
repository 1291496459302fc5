package core

import (
	"math"
	"sort"
	"strings"

	"github.com/JonMunkholm/tabprep/internal/table"
)

// AggFunc is a per-group reduction.
type AggFunc string

const (
	AggMean    AggFunc = "mean"
	AggMedian  AggFunc = "median"
	AggSum     AggFunc = "sum"
	AggMin     AggFunc = "min"
	AggMax     AggFunc = "max"
	AggCount   AggFunc = "count" // non-null cells
	AggStd     AggFunc = "std"   // sample standard deviation
	AggVar     AggFunc = "var"   // sample variance
	AggFirst   AggFunc = "first" // first non-null cell
	AggLast    AggFunc = "last"  // last non-null cell
	AggNUnique AggFunc = "nunique"
	AggSize    AggFunc = "size" // rows, nulls included
)

// ParseAggFunc maps a wire name to an AggFunc.
func ParseAggFunc(s string) (AggFunc, error) {
	switch fn := AggFunc(strings.ToLower(strings.TrimSpace(s))); fn {
	case AggMean, AggMedian, AggSum, AggMin, AggMax, AggCount,
		AggStd, AggVar, AggFirst, AggLast, AggNUnique, AggSize:
		return fn, nil
	default:
		return "", table.Invalidf("unknown aggregation %q", s)
	}
}

// Aggregation is the list of reductions applied to one column.
type Aggregation struct {
	Column string    `json:"column" validate:"required"`
	Funcs  []AggFunc `json:"funcs" validate:"min=1"`
}

// Agg is shorthand for an Aggregation literal.
func Agg(column string, funcs ...AggFunc) Aggregation {
	return Aggregation{Column: column, Funcs: funcs}
}

// SummarizeByGroup reduces t to one row per distinct value of groupCol.
//
// The group column comes first, followed by one column per (column, func)
// pair. A single func keeps the column name; several produce
// "{column}_{func}". With no aggregations, every other numeric column is
// averaged.
//
// Groups are sorted by key (category groups in domain order) and the null
// group, when present, is kept and ordered last.
func SummarizeByGroup(t *table.Table, groupCol string, aggs []Aggregation) (*table.Table, error) {
	key, err := t.Column(groupCol)
	if err != nil {
		return nil, err
	}
	for _, a := range aggs {
		if err := t.Require(a.Column); err != nil {
			return nil, err
		}
	}
	if len(aggs) == 0 {
		aggs = defaultAggregations(t, groupCol)
	}

	groups := groupRows(key)

	keyValues := make([]table.Value, len(groups))
	for i, g := range groups {
		keyValues[i] = g.key
	}
	out := []*table.Column{outputColumn(key, key.Name, keyValues)}

	for _, a := range aggs {
		if len(a.Funcs) == 0 {
			return nil, table.Invalidf("aggregation on %q has no functions", a.Column)
		}
		col, _ := t.Column(a.Column)
		for _, fn := range a.Funcs {
			values, kind, err := reduce(col, fn, groups)
			if err != nil {
				return nil, err
			}
			name := a.Column
			if len(a.Funcs) > 1 {
				name = a.Column + "_" + string(fn)
			}
			if kind == col.Kind {
				out = append(out, outputColumn(col, name, values))
			} else {
				out = append(out, table.NewColumn(name, kind, values))
			}
		}
	}
	return table.New(out...)
}

func defaultAggregations(t *table.Table, groupCol string) []Aggregation {
	var aggs []Aggregation
	for _, c := range t.Columns() {
		if c.Name != groupCol && c.Kind == table.KindNumeric {
			aggs = append(aggs, Agg(c.Name, AggMean))
		}
	}
	return aggs
}

// outputColumn builds a column of src's kind, keeping its category domain.
func outputColumn(src *table.Column, name string, values []table.Value) *table.Column {
	if src.Kind == table.KindCategory {
		return table.NewCategoryColumn(name, src.Categories, values)
	}
	return table.NewColumn(name, src.Kind, values)
}

type group struct {
	key  table.Value
	rows []int
}

func groupRows(col *table.Column) []*group {
	byKey := make(map[string]*group)
	var groups []*group
	for i, v := range col.Values {
		k := v.Key()
		g, ok := byKey[k]
		if !ok {
			g = &group{key: v}
			byKey[k] = g
			groups = append(groups, g)
		}
		g.rows = append(g.rows, i)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i].key, groups[j].key
		if a.IsNull() || b.IsNull() {
			return !a.IsNull() && b.IsNull()
		}
		if col.Kind == table.KindCategory {
			return col.CategoryIndex(a.String()) < col.CategoryIndex(b.String())
		}
		cmp, _ := a.Compare(b)
		return cmp < 0
	})
	return groups
}

// reduce applies fn to every group and returns the values and their kind.
func reduce(col *table.Column, fn AggFunc, groups []*group) ([]table.Value, table.Kind, error) {
	out := make([]table.Value, len(groups))

	switch fn {
	case AggMean, AggMedian, AggSum, AggStd, AggVar:
		if col.Kind != table.KindNumeric {
			return nil, 0, table.Invalidf("%s of %s column %q: need numeric", fn, col.Kind, col.Name)
		}
		for i, g := range groups {
			xs := groupFloats(col, g.rows)
			switch fn {
			case AggMean:
				out[i] = table.Number(mean(xs))
			case AggMedian:
				out[i] = table.Number(median(xs))
			case AggSum:
				sum := 0.0
				for _, x := range xs {
					sum += x
				}
				out[i] = table.Number(sum)
			case AggStd:
				out[i] = table.Number(math.Sqrt(variance(xs)))
			case AggVar:
				out[i] = table.Number(variance(xs))
			}
		}
		return out, table.KindNumeric, nil

	case AggMin, AggMax:
		if col.Kind == table.KindCategory {
			return nil, 0, table.Invalidf("%s of category column %q: categories are unordered", fn, col.Name)
		}
		for i, g := range groups {
			best := table.Null()
			for _, r := range g.rows {
				v := col.Values[r]
				if v.IsNull() {
					continue
				}
				cmp, _ := v.Compare(best)
				if best.IsNull() || (fn == AggMin && cmp < 0) || (fn == AggMax && cmp > 0) {
					best = v
				}
			}
			out[i] = best
		}
		return out, col.Kind, nil

	case AggFirst, AggLast:
		for i, g := range groups {
			out[i] = table.Null()
			for j := range g.rows {
				r := g.rows[j]
				if fn == AggLast {
					r = g.rows[len(g.rows)-1-j]
				}
				if v := col.Values[r]; !v.IsNull() {
					out[i] = v
					break
				}
			}
		}
		return out, col.Kind, nil

	case AggCount, AggNUnique, AggSize:
		for i, g := range groups {
			n := 0
			seen := make(map[string]bool)
			for _, r := range g.rows {
				v := col.Values[r]
				switch {
				case fn == AggSize:
					n++
				case v.IsNull():
				case fn == AggCount:
					n++
				case !seen[v.Key()]:
					seen[v.Key()] = true
					n++
				}
			}
			out[i] = table.Number(float64(n))
		}
		return out, table.KindNumeric, nil

	default:
		return nil, 0, table.Invalidf("unknown aggregation %q", fn)
	}
}

func groupFloats(col *table.Column, rows []int) []float64 {
	xs := make([]float64, 0, len(rows))
	for _, r := range rows {
		if f, ok := col.Values[r].Float(); ok {
			xs = append(xs, f)
		}
	}
	return xs
}
