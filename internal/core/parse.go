// internal/core/parse.go
package core

import (
	"strconv"
	"strings"

	"github.com/tabula-io/tabula-backend/internal/schema"
)

// ParseFilters parses the raw filters parameter into validated conditions.
//
// Grammar: condition (',' condition)* with condition = field ':' operator
// (':' value)?. The value segment of 'in'/'notin' is itself comma-separated,
// so the outer comma split runs first and a segment without a colon continues
// the value list of the preceding in/notin condition.
//
// Invalid segments are dropped and reported; the parse never aborts.
func ParseFilters(raw string, cfg *schema.TableConfig, strictTypes bool) ([]FilterCondition, []ParseError) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var conditions []FilterCondition
	var parseErrs []ParseError

	// Index of the in/notin condition currently accepting continuation
	// values, -1 when none. openDropped swallows continuations that belong
	// to an in/notin condition that was itself rejected; a bare segment
	// after any other dropped condition is an error of its own.
	openIdx := -1
	openDropped := false

	for _, segment := range strings.Split(raw, ",") {
		if !strings.Contains(segment, ":") {
			switch {
			case openIdx >= 0:
				field := conditions[openIdx].Field
				if segment == "" {
					parseErrs = append(parseErrs, ParseError{Segment: segment, Field: field, Reason: "empty value in list"})
					continue
				}
				val, ok := coerceValue(segment, cfg.FieldType(field))
				if !ok && strictTypes {
					parseErrs = append(parseErrs, ParseError{Segment: segment, Field: field, Reason: "value does not match field type"})
					continue
				}
				conditions[openIdx].Values = append(conditions[openIdx].Values, val)
			case openDropped:
				// Belongs to an already-reported condition.
			default:
				parseErrs = append(parseErrs, ParseError{Segment: segment, Reason: "malformed condition, expected field:operator[:value]"})
			}
			continue
		}

		openIdx = -1
		openDropped = false

		cond, perr := parseCondition(segment, cfg, strictTypes)
		if perr != nil {
			parseErrs = append(parseErrs, *perr)
			openDropped = droppedListCondition(segment)
			continue
		}
		conditions = append(conditions, cond)
		if cond.Op == OpIn || cond.Op == OpNotIn {
			openIdx = len(conditions) - 1
		}
	}

	return conditions, parseErrs
}

// droppedListCondition reports whether a rejected segment named an in/notin
// operator. Only those leave continuation values behind that belong to the
// already-reported condition rather than being stray segments.
func droppedListCondition(segment string) bool {
	parts := strings.SplitN(segment, ":", 3)
	if len(parts) < 2 {
		return false
	}
	op, ok := ParseOperator(strings.ToLower(strings.TrimSpace(parts[1])))
	return ok && (op == OpIn || op == OpNotIn)
}

// parseCondition validates a single field:operator[:value] segment.
func parseCondition(segment string, cfg *schema.TableConfig, strictTypes bool) (FilterCondition, *ParseError) {
	parts := strings.SplitN(segment, ":", 3)
	field := strings.TrimSpace(parts[0])
	if field == "" || len(parts) < 2 {
		return FilterCondition{}, &ParseError{Segment: segment, Reason: "malformed condition, expected field:operator[:value]"}
	}

	op, ok := ParseOperator(strings.ToLower(strings.TrimSpace(parts[1])))
	if !ok {
		return FilterCondition{}, &ParseError{Segment: segment, Field: field, Reason: "unsupported operator"}
	}
	if !cfg.Filterable[field] {
		return FilterCondition{}, &ParseError{Segment: segment, Field: field, Reason: "field is not filterable"}
	}

	if !op.takesValue() {
		if len(parts) == 3 && parts[2] != "" {
			return FilterCondition{}, &ParseError{Segment: segment, Field: field, Reason: "operator takes no value"}
		}
		return FilterCondition{Field: field, Op: op}, nil
	}

	if len(parts) < 3 || parts[2] == "" {
		return FilterCondition{}, &ParseError{Segment: segment, Field: field, Reason: "operator requires a value"}
	}

	// LIKE matches are always textual regardless of the declared type.
	if op == OpLike {
		return FilterCondition{Field: field, Op: op, Values: []Value{{Kind: ValueString, Str: parts[2]}}}, nil
	}

	val, ok := coerceValue(parts[2], cfg.FieldType(field))
	if !ok && strictTypes {
		return FilterCondition{}, &ParseError{Segment: segment, Field: field, Reason: "value does not match field type"}
	}
	return FilterCondition{Field: field, Op: op, Values: []Value{val}}, nil
}

// coerceValue converts a raw value to the field's declared type. On failure
// it returns the raw string form and false; the caller decides whether that
// is an error (strict typing) or left for the database to judge.
func coerceValue(raw string, ft schema.FieldType) (Value, bool) {
	switch ft {
	case schema.TypeInteger:
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return Value{Kind: ValueInt, Int: n}, true
		}
	case schema.TypeReal:
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return Value{Kind: ValueFloat, Float: f}, true
		}
	case schema.TypeBoolean:
		switch strings.ToLower(raw) {
		case "true", "1":
			return Value{Kind: ValueBool, Bool: true}, true
		case "false", "0":
			return Value{Kind: ValueBool, Bool: false}, true
		}
	default:
		return Value{Kind: ValueString, Str: raw}, true
	}
	return Value{Kind: ValueString, Str: raw}, false
}

// ParseSort parses the raw order parameter: sortspec (';' sortspec)* with
// sortspec = field (',' direction)?. Direction is case-insensitive and
// defaults to ascending. Invalid specs are dropped and reported.
func ParseSort(raw string, cfg *schema.TableConfig) ([]SortKey, []ParseError) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var keys []SortKey
	var parseErrs []ParseError

	for _, spec := range strings.Split(raw, ";") {
		parts := strings.Split(spec, ",")
		field := strings.TrimSpace(parts[0])
		if field == "" || len(parts) > 2 {
			parseErrs = append(parseErrs, ParseError{Segment: spec, Reason: "malformed sort, expected field[,asc|desc]"})
			continue
		}
		if !cfg.Sortable[field] {
			parseErrs = append(parseErrs, ParseError{Segment: spec, Field: field, Reason: "field is not sortable"})
			continue
		}

		desc := false
		if len(parts) == 2 {
			switch strings.ToLower(strings.TrimSpace(parts[1])) {
			case "asc", "":
			case "desc":
				desc = true
			default:
				parseErrs = append(parseErrs, ParseError{Segment: spec, Field: field, Reason: "direction must be 'asc' or 'desc'"})
				continue
			}
		}
		keys = append(keys, SortKey{Field: field, Desc: desc})
	}

	return keys, parseErrs
}

// ParseSearch trims the free-text search parameter. The query builder is
// responsible for the %...% wrapping.
func ParseSearch(raw string) string {
	return strings.TrimSpace(raw)
}
