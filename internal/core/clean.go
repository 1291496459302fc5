package core

import (
	"strings"

	"github.com/JonMunkholm/tabprep/internal/table"
)

// DefaultSentinel is the placeholder that stands for "not recorded" in the
// raw exports this package is built for.
const DefaultSentinel = -999

// CleanOptions configures Clean.
type CleanOptions struct {
	RemoveDuplicates bool
	Sentinel         table.Value

	// MatchText also nulls text and category cells spelled like the
	// sentinel, e.g. "-999" in a text column for a numeric sentinel.
	MatchText bool
}

// DefaultCleanOptions drops duplicate rows and nulls out -999.
func DefaultCleanOptions() CleanOptions {
	return CleanOptions{RemoveDuplicates: true, Sentinel: table.Number(DefaultSentinel)}
}

// Clean returns a new table with duplicate rows removed (when enabled) and
// every sentinel cell replaced by null.
//
// Duplicates are found on the raw cells, so a sentinel row and an otherwise
// equal row holding null are both kept.
func Clean(t *table.Table, opts CleanOptions) (*table.Table, error) {
	if opts.Sentinel.IsNull() {
		return nil, table.Invalidf("sentinel must not be null")
	}
	out := t
	if opts.RemoveDuplicates {
		out = DropDuplicates(out)
	}
	return replaceSentinel(out, sentinelMatcher(opts)), nil
}

// DropDuplicates returns a new table keeping the first occurrence of every
// distinct row. Nulls compare equal to each other.
func DropDuplicates(t *table.Table) *table.Table {
	seen := make(map[string]bool, t.NumRows())
	keep := make([]int, 0, t.NumRows())
	cols := t.Columns()

	var b strings.Builder
	for i := 0; i < t.NumRows(); i++ {
		b.Reset()
		for _, c := range cols {
			b.WriteString(c.Values[i].Key())
			b.WriteByte(0x1f)
		}
		key := b.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		keep = append(keep, i)
	}
	return t.Take(keep)
}

func sentinelMatcher(opts CleanOptions) func(table.Value) bool {
	sentinel := opts.Sentinel
	label := sentinel.String()
	return func(v table.Value) bool {
		switch {
		case v.IsNull():
			return false
		case v.Equal(sentinel):
			return true
		case !opts.MatchText:
			return false
		}
		k := v.Kind()
		return (k == table.KindText || k == table.KindCategory) && v.String() == label
	}
}

// replaceSentinel nulls every matching cell and drops matching labels from
// category domains.
func replaceSentinel(t *table.Table, match func(table.Value) bool) *table.Table {
	out := t.Clone()
	for _, c := range out.Columns() {
		for i, v := range c.Values {
			if match(v) {
				c.Values[i] = table.Null()
			}
		}
		if c.Kind != table.KindCategory {
			continue
		}
		kept := c.Categories[:0:0]
		for _, cat := range c.Categories {
			if !match(table.Label(cat)) {
				kept = append(kept, cat)
			}
		}
		c.Categories = kept
	}
	return out
}
