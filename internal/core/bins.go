package core

import (
	"sort"

	"github.com/JonMunkholm/tabprep/internal/table"
)

// BinSpec describes a binning of a numeric column.
//
// Edges must be strictly increasing with at least two entries, and Labels
// must name each of the len(Edges)-1 intervals. NewColumn defaults to
// "{Column}_bins".
type BinSpec struct {
	Column    string    `json:"column" yaml:"column" validate:"required"`
	Edges     []float64 `json:"edges" yaml:"edges" validate:"min=2"`
	Labels    []string  `json:"labels" yaml:"labels"`
	NewColumn string    `json:"new_column,omitempty" yaml:"new_column,omitempty"`
}

// Validate checks the edges and labels without looking at a table.
func (s BinSpec) Validate() error {
	if len(s.Edges) < 2 {
		return table.Invalidf("bins: need at least 2 edges, got %d", len(s.Edges))
	}
	for i := 1; i < len(s.Edges); i++ {
		if !(s.Edges[i] > s.Edges[i-1]) {
			return table.Invalidf("bins: edges must be strictly increasing (%v then %v)", s.Edges[i-1], s.Edges[i])
		}
	}
	if len(s.Labels) != len(s.Edges)-1 {
		return table.Invalidf("bins: %d edges need %d labels, got %d", len(s.Edges), len(s.Edges)-1, len(s.Labels))
	}
	seen := make(map[string]bool, len(s.Labels))
	for _, l := range s.Labels {
		if seen[l] {
			return table.Invalidf("bins: duplicate label %q", l)
		}
		seen[l] = true
	}
	return nil
}

// OutputName returns the name of the column CreateBins writes.
func (s BinSpec) OutputName() string {
	if s.NewColumn != "" {
		return s.NewColumn
	}
	return s.Column + "_bins"
}

// CreateBins returns a new table with a category column assigning each value
// of spec.Column to its interval. Intervals are (e[i], e[i+1]] except the
// first, which also includes its lower edge. Nulls and values outside the
// edges get null. An existing column with the output name is replaced.
func CreateBins(t *table.Table, spec BinSpec) (*table.Table, error) {
	col, err := t.Column(spec.Column)
	if err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if col.Kind != table.KindNumeric {
		return nil, table.Invalidf("bins: column %q is %s, want numeric", spec.Column, col.Kind)
	}

	values := make([]table.Value, col.Len())
	for i, v := range col.Values {
		f, ok := v.Float()
		if !ok {
			continue
		}
		if idx := binIndex(spec.Edges, f); idx >= 0 {
			values[i] = table.Label(spec.Labels[idx])
		}
	}

	out := t.Clone()
	binned := table.NewCategoryColumn(spec.OutputName(), spec.Labels, values)
	if err := out.SetColumn(binned); err != nil {
		return nil, err
	}
	return out, nil
}

// binIndex returns the interval holding f, or -1 when f is out of range.
func binIndex(edges []float64, f float64) int {
	if f == edges[0] {
		return 0
	}
	if f < edges[0] || f > edges[len(edges)-1] {
		return -1
	}
	// First edge >= f closes the interval.
	return sort.SearchFloat64s(edges, f) - 1
}
