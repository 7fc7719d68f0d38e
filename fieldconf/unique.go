// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package fieldconf

import (
	"context"
	"strings"

	"github.com/danielhkuo/formsink/models"
)

// UniqueStatus is the server-side verdict on a submitted value.
type UniqueStatus int

const (
	UniqueOK UniqueStatus = iota
	UniqueWarned
	UniqueRejected
)

// Normalize prepares a value for duplicate comparison: lowercase,
// whitespace collapsed to single spaces, and optionally every
// non-alphanumeric stripped.
func Normalize(s string, stripNonAlnum bool) string {
	s = strings.ToLower(strings.Join(strings.Fields(s), " "))
	if !stripNonAlnum {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// uniqueValidation builds the client-side payload for a unique field:
// every existing value in both original and normalized form, plus the
// result policy, so the client can give duplicate feedback per keystroke.
func (c *Configurator) uniqueValidation(ctx context.Context, cfg Config) (*models.UniqueValidation, error) {
	existing, err := c.existingValues(ctx, cfg.Field)
	if err != nil {
		return nil, err
	}
	uv := &models.UniqueValidation{
		Result:     cfg.Result,
		Values:     existing,
		Normalized: make([]string, len(existing)),
	}
	for i, v := range existing {
		uv.Normalized[i] = Normalize(v, cfg.StripNonAlnum)
	}
	return uv, nil
}

// CheckUnique enforces uniqueness at submission time. A value that
// normalizes to match an existing one is rejected under result "stop" and
// warned under result "warn"; an unreadable write table degrades to OK
// with a logged warning (the check is best-effort, the database constraint
// is the backstop).
func (c *Configurator) CheckUnique(ctx context.Context, field, value string) (UniqueStatus, string) {
	for _, cfg := range c.configs {
		if cfg.Type != "unique" || cfg.Field != field {
			continue
		}
		existing, err := c.existingValues(ctx, cfg.Field)
		if err != nil {
			c.warn("uniqueness check unavailable for field " + field + ": " + err.Error())
			return UniqueOK, ""
		}
		norm := Normalize(value, cfg.StripNonAlnum)
		for _, ex := range existing {
			if Normalize(ex, cfg.StripNonAlnum) == norm {
				if cfg.Result == models.UniqueStop {
					return UniqueRejected, "value for " + field + " already exists"
				}
				return UniqueWarned, "value for " + field + " duplicates an existing entry"
			}
		}
	}
	return UniqueOK, ""
}
