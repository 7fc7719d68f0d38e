// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"encoding/json"
	"sort"
	"strings"
)

// Row is a flat field-name -> scalar-value mapping, the shape of both a
// submitted response and a row read back from the database.
type Row map[string]any

// UI error states. Each failure class maps to exactly one of these so the
// client can show a specific reason instead of a generic error page.
const (
	StateSurveyNotFound  = "survey-not-found"
	StateSurveyUndefined = "survey-undefined"
	StateInvalidQuery    = "invalid-query"
	StateInvalidData     = "invalid-data"
	StateInactiveSurvey  = "inactive-survey"
	StateDatabaseError   = "database-error"
)

// Field choice types as consumed by the client widget
const (
	FieldStandalone   = "standalone"
	FieldChild        = "child"
	FieldParent       = "parent"
	FieldParamParent  = "param_parent"
	FieldChoiceParent = "choice_parent"
)

// Uniqueness result policies
const (
	UniqueWarn = "warn"
	UniqueStop = "stop"
)

// Request types

// SubmitResponseRequest is the flat field->value payload sent when the
// client signals form completion. Checkbox groups arrive encoded as
// "field..option": true pairs; see DecodeCheckboxes.
type SubmitResponseRequest struct {
	Data             Row     `json:"data"`
	LoadDuration     float64 `json:"load_duration,omitempty"`
	CompleteDuration float64 `json:"complete_duration,omitempty"`
}

type PatchDurationRequest struct {
	SaveDuration float64 `json:"save_duration"`
}

// Response types

type SubmitResponseResponse struct {
	ResponseID int64    `json:"response_id"`
	Warnings   []string `json:"warnings,omitempty"`
}

// Outbound message types

// ParamValue pairs a display string with the raw URL-parameter value.
type ParamValue struct {
	Text  string `json:"text"`
	Value string `json:"value"`
}

// LoadSurveyMessage is sent once to the client to render a survey. The
// survey document is opaque pass-through JSON, never validated here.
type LoadSurveyMessage struct {
	Survey json.RawMessage       `json:"survey"`
	Params map[string]ParamValue `json:"params,omitempty"`
}

// ChoiceSet carries parallel value/text slices, plus parent linkage for
// child fields so the client can filter cascades without a round trip.
type ChoiceSet struct {
	Value       []string `json:"value"`
	Text        []string `json:"text"`
	ParentID    []string `json:"parentId,omitempty"`
	ParentValue []string `json:"parentValue,omitempty"`
}

// UniqueValidation ships existing values in both original and normalized
// form so the client can do instant duplicate feedback per keystroke.
type UniqueValidation struct {
	Result     string   `json:"result"`
	Values     []string `json:"values"`
	Normalized []string `json:"normalized"`
}

type FieldChoices struct {
	Type             string            `json:"type"`
	Choices          ChoiceSet         `json:"choices"`
	Child            string            `json:"child,omitempty"`
	UniqueValidation *UniqueValidation `json:"unique_validation,omitempty"`
	// Clear tells the client the field's currently held value is no
	// longer a valid choice and must be reset.
	Clear bool `json:"clear,omitempty"`
}

// ChoiceUpdateMessage maps field names to their resolved choice payloads.
type ChoiceUpdateMessage struct {
	Fields map[string]FieldChoices `json:"fields"`
}

// Error response

type ErrorResponse struct {
	Error   string   `json:"error"`
	State   string   `json:"state,omitempty"`
	Message string   `json:"message,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// DecodeCheckboxes folds the widget's checkbox-group encoding into list
// values. A checked option arrives as "field..option": true; all checked
// options of a field collapse into one sorted list under "field". The
// free-text sibling "field_other" is an ordinary flat field and passes
// through untouched.
func DecodeCheckboxes(in Row) Row {
	out := make(Row, len(in))
	groups := make(map[string][]string)

	for key, val := range in {
		base, option, found := strings.Cut(key, "..")
		if !found || base == "" || option == "" {
			out[key] = val
			continue
		}
		if checked, ok := val.(bool); ok && checked {
			groups[base] = append(groups[base], option)
		}
	}

	for base, options := range groups {
		sort.Strings(options)
		list := make([]any, len(options))
		for i, o := range options {
			list[i] = o
		}
		out[base] = list
	}

	return out
}
