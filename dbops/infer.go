// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package dbops

import (
	"math"
	"strings"
	"time"
)

// SQLType is the inferred PostgreSQL column type for a response field.
type SQLType int

const (
	TypeText SQLType = iota
	TypeInteger
	TypeNumeric
	TypeBoolean
	TypeTimestamp
	TypeJSON
)

// DDL returns the PostgreSQL type name.
func (t SQLType) DDL() string {
	switch t {
	case TypeInteger:
		return "INTEGER"
	case TypeNumeric:
		return "NUMERIC"
	case TypeBoolean:
		return "BOOLEAN"
	case TypeTimestamp:
		return "TIMESTAMP"
	case TypeJSON:
		return "JSONB"
	default:
		return "TEXT"
	}
}

func (t SQLType) String() string { return t.DDL() }

// timestampLayouts accepted when deciding whether a string is a timestamp
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// InferType classifies sample values into a column type:
//
//   - all numeric, all integral -> INTEGER
//   - numeric with any fractional part -> NUMERIC
//   - all boolean -> BOOLEAN
//   - time.Time or timestamp-shaped strings -> TIMESTAMP
//   - nested values (slices, maps) -> JSONB
//   - everything else, including mixed kinds -> TEXT
//
// Nil values are ignored; no non-nil samples means TEXT.
func InferType(values ...any) SQLType {
	seen := 0
	integral := true
	current := TypeText
	first := true

	for _, v := range values {
		if v == nil {
			continue
		}
		seen++

		k, frac := classify(v)
		if k == TypeJSON {
			// a single nested value makes the whole column JSONB
			return TypeJSON
		}
		if !frac {
			integral = false
		}

		if first {
			current = k
			first = false
			continue
		}
		if k != current {
			return TypeText
		}
	}

	if seen == 0 {
		return TypeText
	}
	if current == TypeInteger && !integral {
		return TypeNumeric
	}
	return current
}

// classify returns the kind of one value, and whether it is an integral
// number (meaningful only for numeric kinds).
func classify(v any) (SQLType, bool) {
	switch x := v.(type) {
	case bool:
		return TypeBoolean, true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return TypeInteger, true
	case float32:
		return TypeInteger, float64(x) == math.Trunc(float64(x))
	case float64:
		return TypeInteger, x == math.Trunc(x)
	case time.Time:
		return TypeTimestamp, true
	case string:
		if looksLikeTimestamp(x) {
			return TypeTimestamp, true
		}
		return TypeText, true
	case []any, map[string]any:
		return TypeJSON, true
	default:
		return TypeText, true
	}
}

func looksLikeTimestamp(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, layout := range timestampLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
