// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package dbops

import "strings"

// SanitizeIdentifier makes a user-supplied table or column name safe to
// splice into SQL: lowercase, with every character outside [a-z0-9_]
// replaced by an underscore. Identifiers cannot be bound parameters, so
// this client-side rewrite is the injection defense for names.
//
// The mapping is deterministic: "My Survey!" always becomes "my_survey_".
func SanitizeIdentifier(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
