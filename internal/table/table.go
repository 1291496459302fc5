package table

// Table is an ordered collection of named columns with positionally aligned
// rows.
//
// Operations that document returning a new Table never modify their input.
// The only in-place mutators are SetColumn and the functions that say so.
type Table struct {
	cols  []*Column
	index map[string]int
}

// New builds a table from columns. Columns must have equal lengths and
// unique names.
func New(cols ...*Column) (*Table, error) {
	t := &Table{index: make(map[string]int, len(cols))}
	for _, c := range cols {
		if c == nil {
			return nil, Invalidf("nil column")
		}
		if _, dup := t.index[c.Name]; dup {
			return nil, Invalidf("duplicate column name %q", c.Name)
		}
		if len(t.cols) > 0 && c.Len() != t.cols[0].Len() {
			return nil, Invalidf("column %q has %d rows, want %d", c.Name, c.Len(), t.cols[0].Len())
		}
		t.index[c.Name] = len(t.cols)
		t.cols = append(t.cols, c)
	}
	return t, nil
}

// MustNew is like New but panics on error. Intended for tests and fixtures.
func MustNew(cols ...*Column) *Table {
	t, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	if len(t.cols) == 0 {
		return 0
	}
	return t.cols[0].Len()
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.cols) }

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// Columns returns the columns in order. The slice is a copy; the columns
// are shared with the table.
func (t *Table) Columns() []*Column {
	return append([]*Column(nil), t.cols...)
}

// Has reports whether the table has a column with the given name.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the named column, or an error wrapping ErrNotFound.
func (t *Table) Column(name string) (*Column, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, NotFoundf("column %q", name)
	}
	return t.cols[i], nil
}

// Require checks that every named column exists.
func (t *Table) Require(names ...string) error {
	for _, n := range names {
		if !t.Has(n) {
			return NotFoundf("column %q", n)
		}
	}
	return nil
}

// Row returns the values of row i in column order.
func (t *Table) Row(i int) []Value {
	row := make([]Value, len(t.cols))
	for j, c := range t.cols {
		row[j] = c.Values[i]
	}
	return row
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{
		cols:  make([]*Column, len(t.cols)),
		index: make(map[string]int, len(t.cols)),
	}
	for i, c := range t.cols {
		out.cols[i] = c.Clone()
		out.index[c.Name] = i
	}
	return out
}

// Take returns a new table holding the given rows in order.
func (t *Table) Take(rows []int) *Table {
	out := &Table{
		cols:  make([]*Column, len(t.cols)),
		index: make(map[string]int, len(t.cols)),
	}
	for i, c := range t.cols {
		out.cols[i] = c.Take(rows)
		out.index[c.Name] = i
	}
	return out
}

// SetColumn replaces the column with the same name in place, or appends c
// when no such column exists. This mutates t.
func (t *Table) SetColumn(c *Column) error {
	if len(t.cols) > 0 && c.Len() != t.NumRows() {
		return Invalidf("column %q has %d rows, want %d", c.Name, c.Len(), t.NumRows())
	}
	if i, ok := t.index[c.Name]; ok {
		t.cols[i] = c
		return nil
	}
	if t.index == nil {
		t.index = make(map[string]int)
	}
	t.index[c.Name] = len(t.cols)
	t.cols = append(t.cols, c)
	return nil
}
