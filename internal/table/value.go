package table

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind is the logical type of a column.
type Kind int

const (
	KindNumeric Kind = iota + 1
	KindText
	KindDatetime
	KindCategory
)

// String returns the lowercase kind name used in APIs and pipeline files.
func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindText:
		return "text"
	case KindDatetime:
		return "datetime"
	case KindCategory:
		return "category"
	default:
		return "unknown"
	}
}

// Value is a single cell. The zero Value is null.
type Value struct {
	kind Kind
	num  float64
	str  string
	ts   time.Time
}

// Null returns the null marker.
func Null() Value { return Value{} }

// Number returns a numeric value. NaN is treated as null.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{kind: KindNumeric, num: f}
}

// Text returns a text value.
func Text(s string) Value { return Value{kind: KindText, str: s} }

// Time returns a datetime value. The zero time is treated as null.
func Time(t time.Time) Value {
	if t.IsZero() {
		return Value{}
	}
	return Value{kind: KindDatetime, ts: t}
}

// Label returns a categorical value.
func Label(s string) Value { return Value{kind: KindCategory, str: s} }

// IsNull reports whether v is the null marker.
func (v Value) IsNull() bool { return v.kind == 0 }

// Kind returns the kind of v, or 0 for null.
func (v Value) Kind() Kind { return v.kind }

// Float returns the numeric payload. ok is false for anything but a
// non-null numeric value.
func (v Value) Float() (f float64, ok bool) {
	if v.kind != KindNumeric {
		return 0, false
	}
	return v.num, true
}

// Time returns the datetime payload. ok is false for anything but a
// non-null datetime value.
func (v Value) Time() (t time.Time, ok bool) {
	if v.kind != KindDatetime {
		return time.Time{}, false
	}
	return v.ts, true
}

// String renders v the way it is written to CSV. Null renders as "".
func (v Value) String() string {
	switch v.kind {
	case KindNumeric:
		return FormatNumber(v.num)
	case KindText, KindCategory:
		return v.str
	case KindDatetime:
		return FormatTime(v.ts)
	default:
		return ""
	}
}

// Equal reports whether v and o hold the same value. Two nulls are equal.
// Text and category values compare by label; other kinds never equal each
// other.
func (v Value) Equal(o Value) bool {
	switch {
	case v.kind == 0 || o.kind == 0:
		return v.kind == o.kind
	case v.isLabel() && o.isLabel():
		return v.str == o.str
	case v.kind != o.kind:
		return false
	case v.kind == KindNumeric:
		return v.num == o.num
	default:
		return v.ts.Equal(o.ts)
	}
}

// Compare orders v against o. ok is false when either side is null or the
// kinds cannot be ordered against each other.
func (v Value) Compare(o Value) (cmp int, ok bool) {
	switch {
	case v.kind == 0 || o.kind == 0:
		return 0, false
	case v.isLabel() && o.isLabel():
		return strings.Compare(v.str, o.str), true
	case v.kind != o.kind:
		return 0, false
	case v.kind == KindNumeric:
		switch {
		case v.num < o.num:
			return -1, true
		case v.num > o.num:
			return 1, true
		}
		return 0, true
	default:
		return v.ts.Compare(o.ts), true
	}
}

// Key returns a string that is identical for values that are Equal.
// It is used for deduplication and grouping.
func (v Value) Key() string {
	switch v.kind {
	case KindNumeric:
		if v.num == 0 {
			// -0 and +0 are equal.
			return "n:0"
		}
		return "n:" + strconv.FormatUint(math.Float64bits(v.num), 16)
	case KindText, KindCategory:
		return "s:" + v.str
	case KindDatetime:
		return "t:" + strconv.FormatInt(v.ts.Unix(), 16) + "." + strconv.Itoa(v.ts.Nanosecond())
	default:
		return "\x00"
	}
}

func (v Value) isLabel() bool {
	return v.kind == KindText || v.kind == KindCategory
}

// FormatNumber renders f in its shortest round-trip form.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FormatTime renders a datetime as a date when it is midnight UTC and as a
// date-time otherwise.
func FormatTime(t time.Time) string {
	t = t.UTC()
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05.999999999")
}
