// Package table provides the in-memory tabular value the preparation
// operations work on, plus readers and writers for delimited text and
// spreadsheet files.
//
// A [Table] is an ordered set of named [Column] values whose rows are aligned
// by position. Every column has one logical [Kind]; individual cells are
// [Value]s and the zero Value is the null marker.
//
// # Loading
//
// [ReadCSV] and [ReadXLSX] take the header row as column names and infer a
// kind per column: a column whose every non-missing cell parses as a plain
// number is numeric, everything else is text. Dates are never guessed; convert
// them explicitly. Cells that match one of the usual missing-data spellings
// ("", "NA", "NaN", "null", ...) load as null.
//
// # Errors
//
// Two error kinds are used across the module:
//
//   - [ErrInvalidArgument]: malformed input such as ragged rows, bad bin
//     edges or an unknown operator name
//   - [ErrNotFound]: a referenced column does not exist
//
// Both are wrapped, so test with errors.Is.
package table
