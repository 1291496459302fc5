// Package views renders the HTML pages of the service. Components live in
// views.templ; run `templ generate` after editing it.
package views

import (
	"fmt"
	"strconv"
)

// ColumnHeader describes one column heading in a preview.
type ColumnHeader struct {
	Name string
	Kind string
}

// PreviewData is everything the dataset preview page shows.
type PreviewData struct {
	ID      string
	Name    string
	Rows    int
	Columns []ColumnHeader
	Cells   [][]string // first rows, already formatted; "" means null
	Missing map[string]int
}

func (d PreviewData) summary() string {
	return fmt.Sprintf("%d rows, %d columns, showing %d", d.Rows, len(d.Columns), len(d.Cells))
}

func (d PreviewData) columnNote(c ColumnHeader) string {
	return c.Kind + ", " + strconv.Itoa(d.Missing[c.Name]) + " missing"
}

func exportURL(id, format string) string {
	return "/api/datasets/" + id + "/export?format=" + format
}
