// dbops/sanitize_test.go
package dbops

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My Survey!", "my_survey_"},
		{"already_clean", "already_clean"},
		{"MiXeD-Case.Name", "mixed_case_name"},
		{"table; DROP TABLE users", "table__drop_table_users"},
		{"Ünïcödé", "_n_c_d_"},
		{"", ""},
		{"123abc", "123abc"},
	}

	safe := regexp.MustCompile(`^[a-z0-9_]*$`)
	for _, tt := range tests {
		got := SanitizeIdentifier(tt.in)
		assert.Equal(t, tt.want, got)
		assert.Regexp(t, safe, got)
		// deterministic
		assert.Equal(t, got, SanitizeIdentifier(tt.in))
	}
}
