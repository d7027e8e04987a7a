// internal/schema/validation.go
package schema

import (
	"math"
	"regexp"
	"strings"
)

// Regular expression for valid table/column names (alphanumeric + underscore)
var nameValidationRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// FieldType is the declared storage type of a field, used as the coercion
// hint for filter values and the validation rule for write bodies.
type FieldType string

const (
	TypeText    FieldType = "TEXT"
	TypeInteger FieldType = "INTEGER"
	TypeReal    FieldType = "REAL"
	TypeBoolean FieldType = "BOOLEAN"
)

// AllowedFieldTypes maps accepted type spellings to their normalized form.
var AllowedFieldTypes = map[string]FieldType{
	"TEXT":    TypeText,
	"INTEGER": TypeInteger,
	"REAL":    TypeReal,
	"BOOLEAN": TypeBoolean,
}

// IsValidIdentifier checks if a string is a valid identifier (e.g., table_name, column_name).
// Applies basic format and length checks.
func IsValidIdentifier(name string) bool {
	return nameValidationRegex.MatchString(name) && len(name) > 0 && len(name) <= 64
}

// NormalizeAndValidateType checks if a string is an allowed field type,
// returning the normalized uppercase version.
func NormalizeAndValidateType(fieldType string) (FieldType, bool) {
	normalized, ok := AllowedFieldTypes[strings.ToUpper(fieldType)]
	return normalized, ok
}

// ValidateValue reports whether a JSON-decoded value is compatible with the
// declared field type. nil is acceptable for every type.
func ValidateValue(ft FieldType, val any) bool {
	if val == nil {
		return true
	}
	switch ft {
	case TypeInteger:
		switch v := val.(type) {
		case float64:
			return math.Floor(v) == v
		case int, int64:
			return true
		}
		return false
	case TypeReal:
		switch val.(type) {
		case float64, int, int64:
			return true
		}
		return false
	case TypeText:
		_, ok := val.(string)
		return ok
	case TypeBoolean:
		switch v := val.(type) {
		case bool:
			return true
		case float64:
			return v == 0 || v == 1
		}
		return false
	}
	return true // Lenient for undeclared types
}
