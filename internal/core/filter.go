// internal/core/filter.go
package core

import "fmt"

// Operator is the closed set of comparison operators a filter condition may
// carry. Anything outside this set is rejected at parse time, so the query
// builder's switch over it is exhaustive.
type Operator int

const (
	OpEq Operator = iota
	OpNeq
	OpGt
	OpGte
	OpLt
	OpLte
	OpLike
	OpIn
	OpNotIn
	OpIsNull
	OpIsNotNull
)

var operatorNames = map[string]Operator{
	"eq":        OpEq,
	"neq":       OpNeq,
	"gt":        OpGt,
	"gte":       OpGte,
	"lt":        OpLt,
	"lte":       OpLte,
	"like":      OpLike,
	"in":        OpIn,
	"notin":     OpNotIn,
	"isnull":    OpIsNull,
	"isnotnull": OpIsNotNull,
}

// ParseOperator resolves an operator token from the filters parameter.
func ParseOperator(token string) (Operator, bool) {
	op, ok := operatorNames[token]
	return op, ok
}

func (op Operator) String() string {
	for name, candidate := range operatorNames {
		if candidate == op {
			return name
		}
	}
	return "unknown"
}

// takesValue reports whether the operator requires a value segment.
func (op Operator) takesValue() bool {
	return op != OpIsNull && op != OpIsNotNull
}

// ValueKind tags the coerced representation of a filter value.
type ValueKind int

const (
	ValueString ValueKind = iota
	ValueInt
	ValueFloat
	ValueBool
)

// Value is a typed filter value. The kind is derived from the field's
// declared type; values that fail coercion stay ValueString when lenient
// typing is configured, so the database decides compatibility.
type Value struct {
	Kind  ValueKind
	Str   string
	Int   int64
	Float float64
	Bool  bool
}

// Arg returns the driver-level binding for the value.
func (v Value) Arg() any {
	switch v.Kind {
	case ValueInt:
		return v.Int
	case ValueFloat:
		return v.Float
	case ValueBool:
		return v.Bool
	}
	return v.Str
}

// FilterCondition is one validated WHERE condition. The field name has
// already been checked against the table's filterable whitelist.
type FilterCondition struct {
	Field  string
	Op     Operator
	Values []Value
}

// SortKey is one validated ORDER BY key. Order of appearance defines
// tie-break precedence.
type SortKey struct {
	Field string
	Desc  bool
}

// ParseError records one dropped query-string segment. The request proceeds
// with the remaining valid segments unless strict query mode rejects it.
type ParseError struct {
	Segment string `json:"segment"`
	Field   string `json:"field,omitempty"`
	Reason  string `json:"reason"`
}

func (e ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid query segment (field %q): %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid query segment: %s", e.Reason)
}
