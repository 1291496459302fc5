package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// ReadCSV loads a table from delimited text with a header row.
//
// A leading BOM is skipped and invalid UTF-8 is replaced. Missing-value
// spellings become null. Rows with more or fewer fields than the header are
// rejected with ErrInvalidArgument.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(sanitize(r))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, Invalidf("empty file: no header row")
	}
	if err != nil {
		return nil, Invalidf("invalid csv: %v", err)
	}

	var records [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, Invalidf("invalid csv: %v", err)
		}
		if len(rec) != len(header) {
			line, _ := cr.FieldPos(0)
			return nil, Invalidf("invalid csv: line %d has %d fields, header has %d", line, len(rec), len(header))
		}
		records = append(records, rec)
	}

	return FromRecords(header, records)
}

// FromRecords builds a table from a header and string rows, inferring a kind
// per column. Rows shorter than the header are padded with nulls.
func FromRecords(header []string, records [][]string) (*Table, error) {
	taken := make(map[string]bool, len(header))
	cols := make([]*Column, len(header))
	for j, h := range header {
		name := h
		if CleanCell(name) == "" {
			name = fmt.Sprintf("Unnamed: %d", j)
		}
		name = uniqueName(name, taken)
		taken[name] = true

		raw := make([]string, len(records))
		for i, rec := range records {
			if j < len(rec) {
				raw[i] = rec[j]
			}
		}
		cols[j] = inferColumn(name, raw)
	}
	for i, rec := range records {
		if len(rec) > len(header) {
			return nil, Invalidf("row %d has %d fields, header has %d", i+1, len(rec), len(header))
		}
	}
	return New(cols...)
}

// inferColumn picks numeric when every present cell is a plain number.
func inferColumn(name string, raw []string) *Column {
	values := make([]Value, len(raw))
	numeric := true
	for i, s := range raw {
		if IsMissingToken(s) {
			continue
		}
		f, ok := parsePlainNumber(s)
		if !ok {
			numeric = false
			break
		}
		values[i] = Number(f)
	}
	if numeric {
		return NewColumn(name, KindNumeric, values)
	}

	for i, s := range raw {
		if IsMissingToken(s) {
			values[i] = Null()
			continue
		}
		values[i] = Text(s)
	}
	return NewColumn(name, KindText, values)
}

// Records renders the table as a header and string rows. Nulls render as "".
func (t *Table) Records() (header []string, rows [][]string) {
	header = t.Names()
	rows = make([][]string, t.NumRows())
	for i := range rows {
		row := make([]string, len(t.cols))
		for j, c := range t.cols {
			row[j] = c.Values[i].String()
		}
		rows[i] = row
	}
	return header, rows
}

// WriteCSV writes the table as delimited text with a header row.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	header, rows := t.Records()
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}
