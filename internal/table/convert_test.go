package table

import (
	"testing"
	"time"
)

// ----------------------------------------------------------------------------
// ParseNumber Tests
// ----------------------------------------------------------------------------

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantOK bool
		want   float64
	}{
		// Valid: basic numbers
		{name: "positive integer", input: "123", wantOK: true, want: 123},
		{name: "zero", input: "0", wantOK: true, want: 0},
		{name: "negative integer", input: "-456", wantOK: true, want: -456},
		{name: "decimal number", input: "123.45", wantOK: true, want: 123.45},
		{name: "leading decimal point", input: ".99", wantOK: true, want: 0.99},
		{name: "scientific notation", input: "1.5e3", wantOK: true, want: 1500},

		// Valid: currency and separators
		{name: "dollar sign", input: "$1,234.56", wantOK: true, want: 1234.56},
		{name: "euro sign", input: "€1234.56", wantOK: true, want: 1234.56},
		{name: "pound sign", input: "£99", wantOK: true, want: 99},
		{name: "accounting negative", input: "(123.45)", wantOK: true, want: -123.45},
		{name: "surrounding whitespace", input: "  42  ", wantOK: true, want: 42},
		{name: "excel formula prefix", input: `="17"`, wantOK: true, want: 17},

		// Invalid
		{name: "empty", input: "", wantOK: false},
		{name: "letters", input: "abc", wantOK: false},
		{name: "trailing garbage", input: "12abc", wantOK: false},
		{name: "two decimal points", input: "1.2.3", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNumber(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseNumber(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseNumber(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ParseTime Tests
// ----------------------------------------------------------------------------

func TestParseTime(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantOK bool
		want   time.Time
	}{
		{name: "ISO date", input: "2024-01-15", wantOK: true, want: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{name: "ISO date time", input: "2024-01-15 10:30:00", wantOK: true, want: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{name: "RFC 3339", input: "2024-01-15T10:30:00Z", wantOK: true, want: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{name: "US format", input: "1/15/2024", wantOK: true, want: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{name: "US format zero padded", input: "01/15/2024", wantOK: true, want: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{name: "month name", input: "Jan 15, 2024", wantOK: true, want: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{name: "compact", input: "20240115", wantOK: true, want: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{name: "two digit year", input: "1/15/24", wantOK: true, want: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},

		{name: "empty", input: "", wantOK: false},
		{name: "not a date", input: "yesterday", wantOK: false},
		{name: "invalid month", input: "2024-13-01", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTime(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseTime(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("ParseTime(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseTime_TwoDigitYearPivot(t *testing.T) {
	// A two-digit year far in the future falls back a century.
	future := (time.Now().Year() + TwoDigitYearPivot + 5) % 100
	input := "1/1/" + twoDigits(future)

	got, ok := ParseTime(input)
	if !ok {
		t.Fatalf("ParseTime(%q) failed", input)
	}
	if got.Year() > time.Now().Year()+TwoDigitYearPivot {
		t.Errorf("ParseTime(%q) year = %d, want previous century", input, got.Year())
	}
}

func twoDigits(n int) string {
	return string([]byte{byte('0' + n/10), byte('0' + n%10)})
}

// ----------------------------------------------------------------------------
// CleanCell / IsMissingToken Tests
// ----------------------------------------------------------------------------

func TestCleanCell(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  hello  ", "hello"},
		{`="00123"`, "00123"},
		{"=SUM", "SUM"},
		{`"quoted"`, "quoted"},
		{"'single'", "single"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := CleanCell(tt.input); got != tt.want {
			t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestIsMissingToken(t *testing.T) {
	for _, s := range []string{"", "  ", "NA", "N/A", "NaN", "null", "NULL", "None", "#N/A"} {
		if !IsMissingToken(s) {
			t.Errorf("IsMissingToken(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"0", "-999", "none of the above", "na"} {
		if IsMissingToken(s) {
			t.Errorf("IsMissingToken(%q) = true, want false", s)
		}
	}
}
