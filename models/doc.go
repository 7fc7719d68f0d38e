// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and message types shared across
the API.

# Request Types

Types for parsing incoming JSON:

  - SubmitResponseRequest: flat field->value data plus load/complete durations
  - PatchDurationRequest: save_duration

# Outbound Messages

One message type per client-widget concern:

  - LoadSurveyMessage: opaque survey document plus validated URL parameters
  - ChoiceUpdateMessage: field name -> FieldChoices (type, choices, parent
    linkage, uniqueness validation data)

# Rows

Row is the universal flat record shape (map[string]any). Submitted data and
database reads both travel as Rows. DecodeCheckboxes collapses the widget's
"field..option": true checkbox encoding into list values before storage.

# Error States

Each failure class maps to a distinct named UI state so the end user sees a
specific reason rather than a generic error page:

	StateSurveyNotFound  = "survey-not-found"
	StateSurveyUndefined = "survey-undefined"
	StateInvalidQuery    = "invalid-query"
	StateInvalidData     = "invalid-data"
	StateInactiveSurvey  = "inactive-survey"
	StateDatabaseError   = "database-error"
*/
package models
