// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package fieldconf

import (
	"context"
	"fmt"

	"github.com/danielhkuo/formsink/dbops"
	"github.com/danielhkuo/formsink/models"
)

// BuildUpdateMessage resolves every configured field into the single
// choice-update message sent to the client. current holds the values the
// client currently displays (used for cascade filtering and clearing).
// Per-field resolution is isolated: one field's failure degrades that
// field and is logged, never aborting the others. A nil return means
// nothing resolved and the caller should show an error state.
func (c *Configurator) BuildUpdateMessage(ctx context.Context, current map[string]string) *models.ChoiceUpdateMessage {
	fields := make(map[string]models.FieldChoices)
	childOf := c.childIndex()

	for _, cfg := range c.configs {
		switch cfg.Type {
		case "choice", "param":
			fc := c.resolveField(ctx, cfg, childOf, current)
			fields[cfg.Field] = fc
		case "unique":
			uv, err := c.uniqueValidation(ctx, cfg)
			if err != nil {
				c.logError(fmt.Sprintf("field %q: uniqueness set unavailable: %v", cfg.Field, err))
				continue
			}
			fc := fields[cfg.Field]
			if fc.Type == "" {
				fc.Type = models.FieldStandalone
			}
			fc.UniqueValidation = uv
			fields[cfg.Field] = fc
		}
	}

	if len(fields) == 0 {
		return nil
	}
	return &models.ChoiceUpdateMessage{Fields: fields}
}

// childIndex maps each child field name to its parent's config.
func (c *Configurator) childIndex() map[string]Config {
	idx := map[string]Config{}
	for _, cfg := range c.configs {
		if cfg.ChildField != "" {
			idx[cfg.ChildField] = cfg
		}
	}
	return idx
}

func (c *Configurator) resolveField(ctx context.Context, cfg Config, childOf map[string]Config, current map[string]string) models.FieldChoices {
	parentCfg, isChild := childOf[cfg.Field]

	fc := models.FieldChoices{Type: models.FieldStandalone}
	switch {
	case isChild:
		fc.Type = models.FieldChild
	case cfg.ChildField != "" && cfg.Type == "param":
		fc.Type = models.FieldParamParent
		fc.Child = cfg.ChildField
	case cfg.ChildField != "" && cfg.Type == "choice":
		fc.Type = models.FieldChoiceParent
		fc.Child = cfg.ChildField
	case cfg.ChildField != "":
		fc.Type = models.FieldParent
		fc.Child = cfg.ChildField
	}

	exclude := map[string]bool{}
	if cfg.ExcludeExisting {
		existing, err := c.existingValues(ctx, cfg.Field)
		if err != nil {
			c.warn(fmt.Sprintf("field %q: could not read existing values, exclusion skipped: %v", cfg.Field, err))
		} else {
			for _, v := range existing {
				exclude[v] = true
			}
		}
	}

	// Restrict a child's candidates when the parent's current value is
	// known; otherwise ship the full set with linkage for client-side
	// filtering.
	parentFilter := ""
	if isChild {
		parentFilter = current[parentCfg.Field]
	}

	linked := isChild && cfg.ParentColumn != ""
	seen := map[string]bool{}
	seenLink := map[string]bool{}
	for _, row := range c.tableRows(cfg.Table) {
		val := CellString(row[cfg.ValueColumn])
		if val == "" || exclude[val] {
			continue
		}
		if cfg.FilterColumn != "" && CellString(row[cfg.FilterColumn]) != cfg.FilterValue {
			continue
		}

		var parentID, parentValue string
		if linked {
			link := CellString(row[cfg.ParentColumn])
			if cfg.ParentBy == "id" {
				parentID = link
				parentValue = c.parentValueByID(parentCfg, link)
			} else {
				parentValue = link
			}
			if parentFilter != "" && parentValue != parentFilter && parentID != parentFilter {
				continue
			}
		}

		// A child value may recur under different parents; every linkage
		// ships so client-side filtering can surface the value under each.
		if linked {
			key := val + "\x00" + parentID + "\x00" + parentValue
			if seenLink[key] {
				continue
			}
			seenLink[key] = true
		} else if seen[val] {
			continue
		}

		seen[val] = true
		fc.Choices.Value = append(fc.Choices.Value, val)
		text := val
		if cfg.TextColumn != "" {
			text = CellString(row[cfg.TextColumn])
		}
		fc.Choices.Text = append(fc.Choices.Text, text)
		if linked {
			fc.Choices.ParentID = append(fc.Choices.ParentID, parentID)
			fc.Choices.ParentValue = append(fc.Choices.ParentValue, parentValue)
		}
	}

	// A held value that did not survive resolution must be cleared
	// client-side.
	if held := current[cfg.Field]; held != "" && !seen[held] {
		fc.Clear = true
	}

	return fc
}

// parentValueByID looks a parent row's value up by its surrogate id.
func (c *Configurator) parentValueByID(parent Config, id string) string {
	for _, row := range c.tableRows(parent.Table) {
		if CellString(row["id"]) == id {
			return CellString(row[parent.ValueColumn])
		}
	}
	return ""
}

// existingValues reads the distinct values already stored under a field's
// column in the write table.
func (c *Configurator) existingValues(ctx context.Context, field string) ([]string, error) {
	col := dbops.SanitizeIdentifier(field)
	rows, err := c.reader.ReadFiltered(ctx, dbops.Query{
		Table:   c.writeTable,
		Columns: []string{col},
	})
	if err != nil {
		return nil, err
	}
	var out []string
	for _, row := range rows {
		if v := CellString(row[col]); v != "" {
			out = append(out, v)
		}
	}
	return out, nil
}
