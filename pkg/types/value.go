// Package types provides the core data types for Segmetric: typed scalar
// values, field schemas, and the record table the analytics engine consumes.
package types

import (
	"strconv"
	"time"
)

// FieldType classifies a table column.
type FieldType int

const (
	FieldNumeric FieldType = iota
	FieldString
	FieldBool
	FieldTime
)

// String returns the lowercase name of the field type.
func (t FieldType) String() string {
	switch t {
	case FieldNumeric:
		return "numeric"
	case FieldString:
		return "string"
	case FieldBool:
		return "bool"
	case FieldTime:
		return "time"
	}
	return "unknown"
}

// ParseFieldType converts a type name back to a FieldType.
func ParseFieldType(s string) (FieldType, bool) {
	switch s {
	case "numeric":
		return FieldNumeric, true
	case "string":
		return FieldString, true
	case "bool":
		return FieldBool, true
	case "time":
		return FieldTime, true
	}
	return 0, false
}

// TypeOf infers the FieldType of a cell value. Unknown Go types are
// treated as strings.
func TypeOf(v interface{}) FieldType {
	switch v.(type) {
	case float64, float32, int, int32, int64:
		return FieldNumeric
	case bool:
		return FieldBool
	case time.Time:
		return FieldTime
	default:
		return FieldString
	}
}

// AsFloat converts a cell value to float64 for numeric aggregation.
// Booleans convert to 0/1 so retention-style flags can be averaged.
func AsFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// AsTime converts a cell value to time.Time. String cells are parsed
// as RFC 3339 or "2006-01-02 15:04:05" as a fallback.
func AsTime(v interface{}) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, true
	case string:
		if t, err := time.Parse(time.RFC3339, val); err == nil {
			return t, true
		}
		if t, err := time.Parse("2006-01-02 15:04:05", val); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Label renders a cell value as a grouping label. Numerics drop trailing
// zeros, timestamps use RFC 3339.
func Label(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(time.RFC3339)
	}
	if f, ok := AsFloat(v); ok {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return ""
}
