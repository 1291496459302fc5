package web

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/tabprep/internal/table"
)

// errTooManyDatasets is returned by Registry.Add at capacity.
var errTooManyDatasets = errors.New("too many datasets")

// Dataset is a table held in memory between requests.
type Dataset struct {
	ID      string
	Name    string
	Parent  string // id of the dataset this was derived from, if any
	Op      string // operation that produced it
	Created time.Time

	mu    sync.RWMutex
	table *table.Table
}

// View runs fn with shared access to the table. fn must not modify it.
func (d *Dataset) View(fn func(*table.Table) error) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return fn(d.table)
}

// Update runs fn with exclusive access to the table. Used by in-place
// operations.
func (d *Dataset) Update(fn func(*table.Table) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fn(d.table)
}

// DatasetInfo is the JSON view of a dataset.
type DatasetInfo struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Parent  string       `json:"parent,omitempty"`
	Op      string       `json:"op,omitempty"`
	Rows    int          `json:"rows"`
	Columns []ColumnInfo `json:"columns"`
	Created time.Time    `json:"created"`
}

// ColumnInfo describes one column.
type ColumnInfo struct {
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	Nulls      int      `json:"nulls"`
	Categories []string `json:"categories,omitempty"`
}

// Info summarizes the dataset.
func (d *Dataset) Info() DatasetInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	t := d.table
	info := DatasetInfo{
		ID:      d.ID,
		Name:    d.Name,
		Parent:  d.Parent,
		Op:      d.Op,
		Rows:    t.NumRows(),
		Created: d.Created,
	}
	for _, c := range t.Columns() {
		info.Columns = append(info.Columns, ColumnInfo{
			Name:       c.Name,
			Kind:       c.Kind.String(),
			Nulls:      c.NullCount(),
			Categories: c.Categories,
		})
	}
	return info
}

// Registry is a bounded, concurrency-safe set of datasets keyed by UUID.
type Registry struct {
	mu    sync.RWMutex
	items map[string]*Dataset
	max   int
	now   func() time.Time
}

// NewRegistry holds at most max datasets.
func NewRegistry(max int) *Registry {
	return &Registry{
		items: make(map[string]*Dataset),
		max:   max,
		now:   time.Now,
	}
}

// Add stores t under a new id.
func (r *Registry) Add(name, parent, op string, t *table.Table) (*Dataset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.max > 0 && len(r.items) >= r.max {
		return nil, fmt.Errorf("%w: limit is %d, delete one first", errTooManyDatasets, r.max)
	}
	d := &Dataset{
		ID:      uuid.NewString(),
		Name:    name,
		Parent:  parent,
		Op:      op,
		Created: r.now(),
		table:   t,
	}
	r.items[d.ID] = d
	return d, nil
}

// Get returns the dataset with the given id.
func (r *Registry) Get(id string) (*Dataset, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, table.NotFoundf("dataset %q", id)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.items[id]
	if !ok {
		return nil, table.NotFoundf("dataset %q", id)
	}
	return d, nil
}

// Delete removes a dataset.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return table.NotFoundf("dataset %q", id)
	}
	delete(r.items, id)
	return nil
}

// List returns every dataset, oldest first.
func (r *Registry) List() []*Dataset {
	r.mu.RLock()
	out := make([]*Dataset, 0, len(r.items))
	for _, d := range r.items {
		out = append(out, d)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Created.Equal(out[j].Created) {
			return out[i].ID < out[j].ID
		}
		return out[i].Created.Before(out[j].Created)
	})
	return out
}

// Len returns the number of datasets held.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
