// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Formsink API.

# Handler Type

SurveyHandler carries the database facade, config, survey registry, and
audit logger, and serves every survey endpoint:

	h := handlers.NewSurveyHandler(facade, cfg, registry, alog)

# Survey Flow

Clients load a survey, fetch its dynamic choices, and submit a response:

	GET  /surveys/{name}              → LoadSurvey (validates URL params)
	GET  /surveys/{name}/choices      → GetChoices (cascade resolution)
	POST /surveys/{name}/responses    → SubmitResponse
	PATCH /surveys/{name}/responses/{id} → PatchDuration

The load response carries an X-Session-ID header; clients echo it on
submission so stored rows and audit entries share a session id.

# Admin Access

	GET /surveys/{name}/responses → ListResponses

Admin reads require the X-Admin-Key header, an HMAC over the survey name;
see the session package.

# Survey Registry

Definitions are JSON files in the survey directory: <name>.json is served
opaquely, and an optional <name>.fields.json declares the survey's dynamic
field configs (choice sources, cascades, uniqueness policies). The sidecar
is either a bare config array or an object {"active": bool, "fields": [...]};
surveys marked inactive reject loads and submissions with 403.
*/
package handlers
