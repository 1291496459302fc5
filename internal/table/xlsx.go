package table

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the sheet name used when writing workbooks.
const DefaultSheet = "Sheet1"

// ReadXLSX loads a table from a workbook sheet. An empty sheet name selects
// the first sheet. The first row is the header; kinds are inferred as for CSV.
func ReadXLSX(r io.Reader, sheet string) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, Invalidf("invalid xlsx: %v", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, Invalidf("empty file: workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, NotFoundf("sheet %q", sheet)
	}
	if len(rows) == 0 {
		return nil, Invalidf("empty file: sheet %q has no header row", sheet)
	}

	// GetRows drops trailing empty cells; FromRecords pads them back.
	return FromRecords(rows[0], rows[1:])
}

// WriteXLSX writes the table to a single-sheet workbook. Numbers are written
// as numbers; everything else as its text rendering so a round trip through
// ReadXLSX is lossless up to kind inference.
func WriteXLSX(w io.Writer, t *Table, sheet string) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = DefaultSheet
	}
	if sheet != DefaultSheet {
		if err := f.SetSheetName(DefaultSheet, sheet); err != nil {
			return fmt.Errorf("name sheet: %w", err)
		}
	}

	header := make([]any, t.NumCols())
	for j, name := range t.Names() {
		header[j] = name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := 0; i < t.NumRows(); i++ {
		row := make([]any, t.NumCols())
		for j, v := range t.Row(i) {
			if num, ok := v.Float(); ok {
				row[j] = num
			} else {
				row[j] = v.String()
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
