package core

import (
	"strings"

	"github.com/JonMunkholm/tabprep/internal/table"
)

// Operator is a row predicate kind understood by Filter.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpInRange     Operator = "in_range" // inclusive on both ends
	OpInList      Operator = "in_list"
)

// ParseOperator maps a wire name to an Operator.
func ParseOperator(s string) (Operator, error) {
	switch op := Operator(strings.ToLower(strings.TrimSpace(s))); op {
	case OpEquals, OpGreaterThan, OpLessThan, OpInRange, OpInList:
		return op, nil
	default:
		return "", table.Invalidf("unknown condition: %s", s)
	}
}

// Condition is one filter predicate on a column.
//
// Value is the operand of OpEquals, OpGreaterThan and OpLessThan. Low and
// High bound OpInRange. List holds the members of OpInList.
type Condition struct {
	Column string
	Op     Operator
	Value  table.Value
	Low    table.Value
	High   table.Value
	List   []table.Value
}

// Eq matches rows whose column equals v.
func Eq(column string, v any) Condition {
	return Condition{Column: column, Op: OpEquals, Value: table.ValueOf(v)}
}

// Gt matches rows whose column is strictly greater than v.
func Gt(column string, v any) Condition {
	return Condition{Column: column, Op: OpGreaterThan, Value: table.ValueOf(v)}
}

// Lt matches rows whose column is strictly less than v.
func Lt(column string, v any) Condition {
	return Condition{Column: column, Op: OpLessThan, Value: table.ValueOf(v)}
}

// Between matches rows with low <= column <= high.
func Between(column string, low, high any) Condition {
	return Condition{Column: column, Op: OpInRange, Low: table.ValueOf(low), High: table.ValueOf(high)}
}

// OneOf matches rows whose column equals any of vs.
func OneOf(column string, vs ...any) Condition {
	list := make([]table.Value, len(vs))
	for i, v := range vs {
		list[i] = table.ValueOf(v)
	}
	return Condition{Column: column, Op: OpInList, List: list}
}

// Filter returns a new table with the rows that satisfy every condition.
// Conditions apply left to right, each to the survivors of the previous.
// Null cells never match.
func Filter(t *table.Table, conds []Condition) (*table.Table, error) {
	for _, c := range conds {
		if err := t.Require(c.Column); err != nil {
			return nil, err
		}
	}

	rows := make([]int, t.NumRows())
	for i := range rows {
		rows[i] = i
	}

	for _, c := range conds {
		col, _ := t.Column(c.Column)
		match, err := compile(col, c)
		if err != nil {
			return nil, err
		}
		kept := rows[:0]
		for _, r := range rows {
			v := col.Values[r]
			if !v.IsNull() && match(v) {
				kept = append(kept, r)
			}
		}
		rows = kept
	}
	return t.Take(rows), nil
}

// compile coerces the operands once and returns the row predicate.
func compile(col *table.Column, c Condition) (func(table.Value) bool, error) {
	switch c.Op {
	case OpEquals:
		want, ok := coerce(col, c.Value)
		if !ok {
			return never, nil
		}
		return want.Equal, nil

	case OpInList:
		set := make(map[string]bool, len(c.List))
		for _, v := range c.List {
			if want, ok := coerce(col, v); ok {
				set[want.Key()] = true
			}
		}
		return func(v table.Value) bool { return set[v.Key()] }, nil

	case OpGreaterThan:
		want, err := orderOperand(col, c.Op, c.Value)
		if err != nil {
			return nil, err
		}
		return func(v table.Value) bool {
			cmp, ok := v.Compare(want)
			return ok && cmp > 0
		}, nil

	case OpLessThan:
		want, err := orderOperand(col, c.Op, c.Value)
		if err != nil {
			return nil, err
		}
		return func(v table.Value) bool {
			cmp, ok := v.Compare(want)
			return ok && cmp < 0
		}, nil

	case OpInRange:
		low, err := orderOperand(col, c.Op, c.Low)
		if err != nil {
			return nil, err
		}
		high, err := orderOperand(col, c.Op, c.High)
		if err != nil {
			return nil, err
		}
		return func(v table.Value) bool {
			lo, ok1 := v.Compare(low)
			hi, ok2 := v.Compare(high)
			return ok1 && ok2 && lo >= 0 && hi <= 0
		}, nil

	default:
		return nil, table.Invalidf("unknown condition: %s", c.Op)
	}
}

func never(table.Value) bool { return false }

func orderOperand(col *table.Column, op Operator, v table.Value) (table.Value, error) {
	if col.Kind == table.KindCategory {
		return table.Value{}, table.Invalidf("%s on category column %q: categories are unordered", op, col.Name)
	}
	want, ok := coerce(col, v)
	if !ok {
		return table.Value{}, table.Invalidf("%s on %s column %q: cannot compare with %q", op, col.Kind, col.Name, v.String())
	}
	return want, nil
}

// coerce converts an operand to the column's kind. ok is false when the
// operand is null or has no representation in that kind.
func coerce(col *table.Column, v table.Value) (table.Value, bool) {
	if v.IsNull() {
		return v, false
	}
	switch col.Kind {
	case table.KindNumeric:
		switch v.Kind() {
		case table.KindNumeric:
			return v, true
		case table.KindText, table.KindCategory:
			f, ok := table.ParseNumber(v.String())
			return table.Number(f), ok
		}
	case table.KindText:
		switch v.Kind() {
		case table.KindText, table.KindCategory:
			return table.Text(v.String()), true
		}
	case table.KindCategory:
		switch v.Kind() {
		case table.KindText, table.KindCategory, table.KindNumeric:
			return table.Label(v.String()), true
		}
	case table.KindDatetime:
		switch v.Kind() {
		case table.KindDatetime:
			return v, true
		case table.KindText, table.KindCategory:
			ts, ok := table.ParseTime(v.String())
			return table.Time(ts), ok
		}
	}
	return v, false
}

// FilterSpec is the wire form of a Condition. The operator may be given as
// either "condition" or "operator"; "condition" wins when both are set.
//
// Value is a scalar for equals, greater_than and less_than, a two-element
// list for in_range and a list for in_list.
type FilterSpec struct {
	Column    string `json:"column" yaml:"column" validate:"required"`
	Condition string `json:"condition,omitempty" yaml:"condition,omitempty"`
	Operator  string `json:"operator,omitempty" yaml:"operator,omitempty"`
	Value     any    `json:"value" yaml:"value"`
}

// ToCondition validates the spec and converts it.
func (s FilterSpec) ToCondition() (Condition, error) {
	name := s.Condition
	if name == "" {
		name = s.Operator
	}
	if name == "" {
		return Condition{}, table.Invalidf("filter on %q: missing condition", s.Column)
	}
	op, err := ParseOperator(name)
	if err != nil {
		return Condition{}, err
	}

	c := Condition{Column: s.Column, Op: op}
	switch op {
	case OpEquals, OpGreaterThan, OpLessThan:
		if _, isList := listOf(s.Value); isList {
			return Condition{}, table.Invalidf("%s on %q: value must be a scalar", op, s.Column)
		}
		c.Value = table.ValueOf(s.Value)
	case OpInRange:
		bounds, isList := listOf(s.Value)
		if !isList || len(bounds) != 2 {
			return Condition{}, table.Invalidf("in_range on %q: value must be a [low, high] pair", s.Column)
		}
		c.Low, c.High = bounds[0], bounds[1]
	case OpInList:
		list, isList := listOf(s.Value)
		if !isList {
			return Condition{}, table.Invalidf("in_list on %q: value must be a list", s.Column)
		}
		c.List = list
	}
	return c, nil
}

// ParseFilters converts wire specs into conditions, stopping at the first
// invalid one.
func ParseFilters(specs []FilterSpec) ([]Condition, error) {
	conds := make([]Condition, 0, len(specs))
	for _, s := range specs {
		c, err := s.ToCondition()
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
	}
	return conds, nil
}

func listOf(v any) ([]table.Value, bool) {
	switch xs := v.(type) {
	case []any:
		out := make([]table.Value, len(xs))
		for i, x := range xs {
			out[i] = table.ValueOf(x)
		}
		return out, true
	case []table.Value:
		return xs, true
	case []string:
		out := make([]table.Value, len(xs))
		for i, x := range xs {
			out[i] = table.Text(x)
		}
		return out, true
	case []float64:
		out := make([]table.Value, len(xs))
		for i, x := range xs {
			out[i] = table.Number(x)
		}
		return out, true
	case []int:
		out := make([]table.Value, len(xs))
		for i, x := range xs {
			out[i] = table.Number(float64(x))
		}
		return out, true
	default:
		return nil, false
	}
}
