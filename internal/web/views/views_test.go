package views

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreview(t *testing.T) {
	var buf bytes.Buffer
	err := Preview(PreviewData{
		ID:      "abc",
		Name:    "trial <2024>.csv",
		Rows:    3,
		Columns: []ColumnHeader{{Name: "age", Kind: "numeric"}, {Name: "site", Kind: "text"}},
		Cells:   [][]string{{"34", "A"}, {"", "B"}},
		Missing: map[string]int{"age": 1},
	}).Render(context.Background(), &buf)
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "trial &lt;2024&gt;.csv")
	assert.NotContains(t, html, "<2024>")
	assert.Contains(t, html, "numeric, 1 missing")
	assert.Contains(t, html, "text, 0 missing")
	assert.Contains(t, html, `<td class="null">`)
	assert.Contains(t, html, "/api/datasets/abc/export?format=xlsx")
	assert.Contains(t, html, "3 rows, 2 columns, showing 2")
}

func TestErrorAlert(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ErrorAlert("Column not found", "", "COL001").Render(context.Background(), &buf))

	html := buf.String()
	assert.Contains(t, html, "Column not found")
	assert.Contains(t, html, "Error code: COL001")
	assert.NotContains(t, html, `class="action"`)
}
