package table

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format identifies a file encoding for tables.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", Invalidf("unsupported file type %q (want .csv or .xlsx)", filepath.Ext(path))
	}
}

// Read decodes a table in the given format.
func Read(r io.Reader, format Format) (*Table, error) {
	switch format {
	case FormatCSV:
		return ReadCSV(r)
	case FormatXLSX:
		return ReadXLSX(r, "")
	default:
		return nil, Invalidf("unsupported format %q", format)
	}
}

// Write encodes a table in the given format.
func Write(w io.Writer, t *Table, format Format) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, t)
	case FormatXLSX:
		return WriteXLSX(w, t, "")
	default:
		return Invalidf("unsupported format %q", format)
	}
}

// Load reads a table from a .csv or .xlsx file.
func Load(path string) (*Table, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	t, err := Read(f, format)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return t, nil
}

// Save writes a table to a .csv or .xlsx file, creating parent directories.
func Save(path string, t *Table) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(f, t, format); err != nil {
		f.Close()
		return fmt.Errorf("save %s: %w", path, err)
	}
	return f.Close()
}
