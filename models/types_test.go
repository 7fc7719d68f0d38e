// models/types_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeCheckboxes_FoldsGroups(t *testing.T) {
	in := Row{
		"langs..go":   true,
		"langs..rust": true,
		"langs..perl": false,
		"langs_other": "zig",
		"rating":      float64(5),
	}

	out := DecodeCheckboxes(in)

	assert.Equal(t, []any{"go", "rust"}, out["langs"])
	assert.Equal(t, "zig", out["langs_other"])
	assert.Equal(t, float64(5), out["rating"])
	assert.NotContains(t, out, "langs..go")
}

func TestDecodeCheckboxes_PlainFieldsPassThrough(t *testing.T) {
	in := Row{"feedback": "Great", "done": true}
	out := DecodeCheckboxes(in)
	assert.Equal(t, in, out)
}

func TestDecodeCheckboxes_MalformedKeysKept(t *testing.T) {
	// A leading or trailing separator is not a checkbox encoding.
	in := Row{"..oops": true, "trail..": true}
	out := DecodeCheckboxes(in)
	assert.Equal(t, true, out["..oops"])
	assert.Equal(t, true, out["trail.."])
}
