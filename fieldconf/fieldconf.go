// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package fieldconf

import (
	"context"
	"fmt"
	"net/url"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/danielhkuo/formsink/auditlog"
	"github.com/danielhkuo/formsink/dbops"
	"github.com/danielhkuo/formsink/models"
)

// Reference-table snapshots live for the session; there is no live
// invalidation, a known staleness tradeoff.
const cacheTTL = 4 * time.Hour

// Config declares one dynamic field: where its choices come from, how it
// cascades, and whether submitted values must be unique.
type Config struct {
	Field string `json:"field"`
	Type  string `json:"type"` // "choice", "param", or "unique"

	// Choice source
	Table       string `json:"table,omitempty"`
	ValueColumn string `json:"value_column,omitempty"`
	TextColumn  string `json:"text_column,omitempty"` // display text; defaults to ValueColumn

	// Cascade. ChildField on a parent names the dependent field; on the
	// child entry, ParentColumn names the column of its source table
	// carrying the linkage and ParentBy selects "id" or "value" linkage.
	ChildField   string `json:"child_field,omitempty"`
	ParentColumn string `json:"parent_column,omitempty"`
	ParentBy     string `json:"parent_by,omitempty"`

	// Optional equality filter on the source table.
	FilterColumn string `json:"filter_column,omitempty"`
	FilterValue  string `json:"filter_value,omitempty"`

	// ExcludeExisting drops choices whose value already appears under
	// this field's column in the write table.
	ExcludeExisting bool `json:"exclude_existing,omitempty"`

	// Uniqueness (Type == "unique"). Result "warn" needs DisplayField,
	// the companion field shown in the warning; "stop" hard-blocks.
	Result        string `json:"result,omitempty"`
	DisplayField  string `json:"display_field,omitempty"`
	StripNonAlnum bool   `json:"strip_non_alnum,omitempty"`
}

// TableReader is the slice of the database facade the configurator needs.
type TableReader interface {
	ReadFiltered(ctx context.Context, q dbops.Query) ([]models.Row, error)
}

// Configurator turns a declarative config list into URL-parameter verdicts
// and a choice payload for the client widget. One instance per session;
// reference tables are read once and cached.
type Configurator struct {
	reader     TableReader
	writeTable string
	configs    []Config
	cache      *gocache.Cache
	log        *auditlog.Logger
}

// New builds a configurator. The logger may be nil (console-less tests).
func New(reader TableReader, writeTable string, configs []Config, log *auditlog.Logger) *Configurator {
	return &Configurator{
		reader:     reader,
		writeTable: writeTable,
		configs:    configs,
		cache:      gocache.New(cacheTTL, 2*cacheTTL),
		log:        log,
	}
}

func (c *Configurator) warn(msg string) {
	if c.log != nil {
		c.log.LogMessage(msg, auditlog.SeverityWarn, "SURVEY")
	}
}

func (c *Configurator) logError(msg string) {
	if c.log != nil {
		c.log.LogMessage(msg, auditlog.SeverityError, "SURVEY")
	}
}

// CacheTables reads every distinct source table once and caches the
// snapshot. A missing or unreadable table is a warning, not a failure: it
// is cached as empty so later stages degrade gracefully. Returns the
// warnings.
func (c *Configurator) CacheTables(ctx context.Context) []string {
	var warnings []string
	seen := map[string]bool{}

	for _, cfg := range c.configs {
		if cfg.Table == "" {
			continue
		}
		name := dbops.SanitizeIdentifier(cfg.Table)
		if seen[name] {
			continue
		}
		seen[name] = true

		rows, err := c.reader.ReadFiltered(ctx, dbops.Query{Table: cfg.Table})
		if err != nil {
			w := fmt.Sprintf("reference table %q could not be read: %v", cfg.Table, err)
			warnings = append(warnings, w)
			c.warn(w)
			rows = nil
		}
		c.cache.Set(name, rows, gocache.DefaultExpiration)
	}
	return warnings
}

// tableRows returns the cached snapshot, empty if the table was missing.
func (c *Configurator) tableRows(table string) []models.Row {
	name := dbops.SanitizeIdentifier(table)
	if v, ok := c.cache.Get(name); ok {
		if rows, ok := v.([]models.Row); ok {
			return rows
		}
	}
	return nil
}

// ValidateShape checks the structural rules of the config list. All
// violations are collected, not fail-fast.
func (c *Configurator) ValidateShape() []error {
	var errs []error
	for _, cfg := range c.configs {
		if cfg.Field == "" {
			errs = append(errs, fmt.Errorf("config entry missing target field"))
			continue
		}
		switch cfg.Type {
		case "choice", "param":
			if cfg.Table == "" || cfg.ValueColumn == "" {
				errs = append(errs, fmt.Errorf("field %q: %s entries need a source table and value column", cfg.Field, cfg.Type))
			}
		case "unique":
			switch cfg.Result {
			case models.UniqueStop:
			case models.UniqueWarn:
				if cfg.DisplayField == "" {
					errs = append(errs, fmt.Errorf("field %q: unique result \"warn\" needs a display field", cfg.Field))
				}
			default:
				errs = append(errs, fmt.Errorf("field %q: unknown unique result %q", cfg.Field, cfg.Result))
			}
		case "":
			errs = append(errs, fmt.Errorf("field %q: missing config type", cfg.Field))
		default:
			errs = append(errs, fmt.Errorf("field %q: unknown config type %q", cfg.Field, cfg.Type))
		}
	}
	for _, err := range errs {
		c.logError(err.Error())
	}
	return errs
}

// Verdict is the result of URL-parameter validation.
type Verdict struct {
	Valid  bool
	Values map[string]string
	Errors []string
}

// ValidateParams checks every param-type entry against the URL query: the
// key must be present and its value must exist in the cached source
// table's matching column. All violations are collected before reporting.
func (c *Configurator) ValidateParams(query url.Values) Verdict {
	v := Verdict{Valid: true, Values: map[string]string{}}

	for _, cfg := range c.configs {
		if cfg.Type != "param" {
			continue
		}
		raw := query.Get(cfg.Field)
		if raw == "" {
			v.Valid = false
			v.Errors = append(v.Errors, fmt.Sprintf("missing required URL parameter %q", cfg.Field))
			continue
		}
		if !c.valueInTable(cfg, raw) {
			v.Valid = false
			v.Errors = append(v.Errors, fmt.Sprintf("URL parameter %q has unknown value %q", cfg.Field, raw))
			continue
		}
		v.Values[cfg.Field] = raw
	}

	for _, e := range v.Errors {
		c.logError(e)
	}
	return v
}

func (c *Configurator) valueInTable(cfg Config, value string) bool {
	for _, row := range c.tableRows(cfg.Table) {
		if CellString(row[cfg.ValueColumn]) == value {
			return true
		}
	}
	return false
}

// ParamValues transforms a validation verdict into the load-message
// payload: each validated parameter paired with its display text.
func (c *Configurator) ParamValues(v Verdict) map[string]models.ParamValue {
	if len(v.Values) == 0 {
		return nil
	}
	out := make(map[string]models.ParamValue, len(v.Values))
	for _, cfg := range c.configs {
		if cfg.Type != "param" {
			continue
		}
		raw, ok := v.Values[cfg.Field]
		if !ok {
			continue
		}
		text := raw
		if cfg.TextColumn != "" {
			for _, row := range c.tableRows(cfg.Table) {
				if CellString(row[cfg.ValueColumn]) == raw {
					text = CellString(row[cfg.TextColumn])
					break
				}
			}
		}
		out[cfg.Field] = models.ParamValue{Text: text, Value: raw}
	}
	return out
}

// CellString renders a table cell for comparison and display. Integral
// floats print without a decimal point, matching their INTEGER storage.
func CellString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
