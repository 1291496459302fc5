package table

import (
	"fmt"
	"time"
)

// ValueOf converts a decoded JSON/YAML scalar or a Go value to a cell.
// Strings stay text; use Literal to read numbers out of strings.
func ValueOf(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case int:
		return Number(float64(x))
	case int8:
		return Number(float64(x))
	case int16:
		return Number(float64(x))
	case int32:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case uint:
		return Number(float64(x))
	case uint8:
		return Number(float64(x))
	case uint16:
		return Number(float64(x))
	case uint32:
		return Number(float64(x))
	case uint64:
		return Number(float64(x))
	case bool:
		if x {
			return Number(1)
		}
		return Number(0)
	case string:
		return Text(x)
	case time.Time:
		return Time(x)
	case fmt.Stringer:
		return Text(x.String())
	default:
		return Text(fmt.Sprint(x))
	}
}

// Literal reads a cell from free text the way a loader would: missing
// tokens are null, plain numbers are numeric, anything else is text.
func Literal(s string) Value {
	if IsMissingToken(s) {
		return Null()
	}
	if f, ok := parsePlainNumber(s); ok {
		return Number(f)
	}
	return Text(s)
}
