package table

import (
	"math"
	"strconv"
	"strings"
)

// Column is a named, single-kind sequence of values.
type Column struct {
	Name   string
	Kind   Kind
	Values []Value

	// Categories is the ordered category domain of a KindCategory column.
	// It is nil for every other kind.
	Categories []string
}

// NewColumn builds a column of the given kind. For category columns the
// domain is the first-seen order of the distinct non-null labels.
func NewColumn(name string, kind Kind, values []Value) *Column {
	c := &Column{Name: name, Kind: kind, Values: values}
	if kind == KindCategory {
		c.Categories = firstSeen(values)
	}
	return c
}

// NewCategoryColumn builds a category column with an explicit domain.
// Labels missing from the domain are appended in first-seen order.
func NewCategoryColumn(name string, categories []string, values []Value) *Column {
	domain := append([]string(nil), categories...)
	known := make(map[string]bool, len(domain))
	for _, c := range domain {
		known[c] = true
	}
	for _, l := range firstSeen(values) {
		if !known[l] {
			known[l] = true
			domain = append(domain, l)
		}
	}
	return &Column{Name: name, Kind: KindCategory, Values: values, Categories: domain}
}

// Floats builds a numeric column; NaN entries become null.
func Floats(name string, vals ...float64) *Column {
	values := make([]Value, len(vals))
	for i, f := range vals {
		values[i] = Number(f)
	}
	return NewColumn(name, KindNumeric, values)
}

// Strings builds a text column; empty strings become null.
func Strings(name string, vals ...string) *Column {
	values := make([]Value, len(vals))
	for i, s := range vals {
		if s != "" {
			values[i] = Text(s)
		}
	}
	return NewColumn(name, KindText, values)
}

// NaN is shorthand for a null entry in Floats.
var NaN = math.NaN()

// Len returns the number of rows in the column.
func (c *Column) Len() int { return len(c.Values) }

// NullCount returns the number of null cells.
func (c *Column) NullCount() int {
	n := 0
	for _, v := range c.Values {
		if v.IsNull() {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the column.
func (c *Column) Clone() *Column {
	out := &Column{
		Name:   c.Name,
		Kind:   c.Kind,
		Values: append([]Value(nil), c.Values...),
	}
	if c.Categories != nil {
		out.Categories = append([]string(nil), c.Categories...)
	}
	return out
}

// Take returns a new column holding the given rows in order.
func (c *Column) Take(rows []int) *Column {
	values := make([]Value, len(rows))
	for i, r := range rows {
		values[i] = c.Values[r]
	}
	out := &Column{Name: c.Name, Kind: c.Kind, Values: values}
	if c.Categories != nil {
		out.Categories = append([]string(nil), c.Categories...)
	}
	return out
}

// CategoryIndex returns the position of label in the category domain, or -1.
func (c *Column) CategoryIndex(label string) int {
	for i, l := range c.Categories {
		if l == label {
			return i
		}
	}
	return -1
}

func firstSeen(values []Value) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range values {
		if v.IsNull() {
			continue
		}
		l := v.String()
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}

// uniqueName mangles duplicate header names the way spreadsheet tools do:
// the second "age" becomes "age.1", the third "age.2".
func uniqueName(name string, taken map[string]bool) string {
	name = strings.TrimSpace(name)
	if !taken[name] {
		return name
	}
	for i := 1; ; i++ {
		candidate := name + "." + strconv.Itoa(i)
		if !taken[candidate] {
			return candidate
		}
	}
}
