// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Formsink API.

# Route Registration

NewRouter creates a configured handler with all endpoints:

	h := router.NewRouter(facade, cfg, registry, alog, log)

# Endpoints

Health:

	GET /live  - Liveness probe
	GET /ready - Readiness probe (pings the database)

Survey flow (public):

	GET   /surveys/{name}               - Load survey definition
	GET   /surveys/{name}/choices       - Resolve dynamic field choices
	POST  /surveys/{name}/responses     - Submit a response
	PATCH /surveys/{name}/responses/{id} - Record save duration

Admin (requires X-Admin-Key):

	GET /surveys/{name}/responses - List stored responses

# Handler Initialization

The router creates the survey handler with dependency injection:

	surveyHandler := handlers.NewSurveyHandler(facade, cfg, registry, alog)

Every route is wrapped in request logging, and the whole mux in CORS
handling for browser-embedded surveys.
*/
package router
