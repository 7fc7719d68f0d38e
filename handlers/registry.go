// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/danielhkuo/formsink/fieldconf"
)

// Registry holds the survey definitions served by this process. A
// definition is an opaque JSON document named <survey>.json; an optional
// sidecar <survey>.fields.json declares its dynamic field configs. The
// sidecar is either a bare config list or an object
// {"active": bool, "fields": [...]} so a survey can be deactivated without
// removing its definition.
type Registry struct {
	surveys  map[string]json.RawMessage
	fields   map[string][]fieldconf.Config
	inactive map[string]bool
}

// fieldsFile is the object form of a <survey>.fields.json sidecar.
type fieldsFile struct {
	Active *bool              `json:"active"`
	Fields []fieldconf.Config `json:"fields"`
}

// LoadRegistry reads every survey definition in dir. Definitions are
// pass-through: they are parsed only far enough to confirm they are valid
// JSON.
func LoadRegistry(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read survey directory: %w", err)
	}

	r := &Registry{
		surveys:  map[string]json.RawMessage{},
		fields:   map[string][]fieldconf.Config{},
		inactive: map[string]bool{},
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		if name, ok := strings.CutSuffix(entry.Name(), ".fields.json"); ok {
			trimmed := bytes.TrimLeft(raw, " \t\r\n")
			if len(trimmed) > 0 && trimmed[0] == '[' {
				var configs []fieldconf.Config
				if err := json.Unmarshal(raw, &configs); err != nil {
					return nil, fmt.Errorf("invalid field config %s: %w", path, err)
				}
				r.fields[name] = configs
			} else {
				var ff fieldsFile
				if err := json.Unmarshal(raw, &ff); err != nil {
					return nil, fmt.Errorf("invalid field config %s: %w", path, err)
				}
				r.fields[name] = ff.Fields
				if ff.Active != nil && !*ff.Active {
					r.inactive[name] = true
				}
			}
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ".json")
		if !json.Valid(raw) {
			return nil, fmt.Errorf("survey definition %s is not valid JSON", path)
		}
		r.surveys[name] = json.RawMessage(raw)
	}

	return r, nil
}

// Survey returns a definition by name.
func (r *Registry) Survey(name string) (json.RawMessage, bool) {
	doc, ok := r.surveys[name]
	return doc, ok
}

// Fields returns the dynamic field configs declared for a survey, nil if
// none.
func (r *Registry) Fields(name string) []fieldconf.Config {
	return r.fields[name]
}

// Active reports whether a survey accepts traffic. Surveys are active
// unless their sidecar deactivates them.
func (r *Registry) Active(name string) bool {
	return !r.inactive[name]
}

// Names lists the registered surveys, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.surveys))
	for n := range r.surveys {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
