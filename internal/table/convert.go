package table

// convert.go turns raw cell text into typed values.
//
// The parsers deal with the messy reality of hand-edited files:
//   - Multiple date formats (US, EU, ISO, with or without a time part)
//   - Currency symbols and thousand separators in numbers
//   - Accounting negatives written as (123.45)
//   - Excel formula prefixes (="value") and stray quotes
//
// Parsers never fail loudly: they report ok=false and the caller decides
// whether that means null or an error.

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// numericRegex validates that a string is a plain number after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would land more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

// Date layouts split by year format for proper 2-digit year handling
var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999",
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04",
		"2006-01-02",
		"1/2/2006 15:04:05", "1/2/2006 15:04",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"2006/01/02", "2006.01.02",
		"Jan 2, 2006", "January 2, 2006", "2 Jan 2006", "02-Jan-2006",
		"20060102",
	}
)

// missingTokens are the spellings of "no data" recognized on load.
var missingTokens = map[string]bool{
	"":         true,
	"NA":       true,
	"N/A":      true,
	"n/a":      true,
	"NaN":      true,
	"nan":      true,
	"-NaN":     true,
	"-nan":     true,
	"null":     true,
	"NULL":     true,
	"None":     true,
	"#N/A":     true,
	"#NA":      true,
	"<NA>":     true,
	"#N/A N/A": true,
}

// IsMissingToken reports whether a raw cell spells a missing value.
func IsMissingToken(s string) bool {
	return missingTokens[strings.TrimSpace(s)]
}

// ParseNumber converts a cell to a float.
// Handles currency symbols, thousands separators, and accounting format
// (parentheses for negative).
func ParseNumber(s string) (float64, bool) {
	s = CleanCell(s)
	if s == "" {
		return 0, false
	}

	// Detect negative accounting format "(123.45)"
	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	// Remove common currency symbols and thousands separators
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// parsePlainNumber accepts only what a float literal looks like. Used for
// kind inference on load, where "$1,200" must stay text.
func parsePlainNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !numericRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

// ParseTime converts a cell to a time in UTC.
// Supports ISO, RFC 3339, US and EU layouts, and 2-digit years with pivot.
func ParseTime(s string) (time.Time, bool) {
	s = CleanCell(s)
	if s == "" {
		return time.Time{}, false
	}

	// Try 4-digit year layouts first (unambiguous)
	for _, layout := range fourDigitYearLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), true
		}
	}

	// Try 2-digit year layouts with pivot year adjustment
	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t.UTC(), true
		}
	}

	return time.Time{}, false
}

// CleanCell removes common CSV artifacts from a cell value:
//   - Trims whitespace
//   - Removes Excel formula prefix (="...")
//   - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.Trim(s, `"'`)
}
