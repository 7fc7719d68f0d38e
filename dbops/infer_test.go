// dbops/infer_test.go
package dbops

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInferType(t *testing.T) {
	tests := []struct {
		name   string
		values []any
		want   SQLType
	}{
		{"integral floats", []any{float64(1), float64(5), float64(-3)}, TypeInteger},
		{"int kinds", []any{1, int64(2)}, TypeInteger},
		{"fractional", []any{1.5, 2.0}, TypeNumeric},
		{"booleans", []any{true, false}, TypeBoolean},
		{"time values", []any{time.Now()}, TypeTimestamp},
		{"timestamp strings", []any{"2026-08-31 10:00:00", "2026-01-02"}, TypeTimestamp},
		{"rfc3339 string", []any{"2026-08-31T10:00:00Z"}, TypeTimestamp},
		{"plain strings", []any{"GITHUB", "GitLab"}, TypeText},
		{"nested list", []any{[]any{"a", "b"}}, TypeJSON},
		{"nested map", []any{map[string]any{"k": 1}}, TypeJSON},
		{"mixed kinds", []any{1, "x"}, TypeText},
		{"mixed with nested", []any{"x", []any{"a"}}, TypeJSON},
		{"all nil", []any{nil, nil}, TypeText},
		{"no values", nil, TypeText},
		{"nil ignored", []any{nil, float64(3)}, TypeInteger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferType(tt.values...))
		})
	}
}

func TestSQLTypeDDL(t *testing.T) {
	assert.Equal(t, "INTEGER", TypeInteger.DDL())
	assert.Equal(t, "NUMERIC", TypeNumeric.DDL())
	assert.Equal(t, "BOOLEAN", TypeBoolean.DDL())
	assert.Equal(t, "TIMESTAMP", TypeTimestamp.DDL())
	assert.Equal(t, "JSONB", TypeJSON.DDL())
	assert.Equal(t, "TEXT", TypeText.DDL())
}
