// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"
	"time"

	"github.com/heptiolabs/healthcheck"
	"go.uber.org/zap"

	"github.com/danielhkuo/formsink/auditlog"
	"github.com/danielhkuo/formsink/cliparse"
	"github.com/danielhkuo/formsink/dbops"
	"github.com/danielhkuo/formsink/handlers"
	"github.com/danielhkuo/formsink/middleware"
)

func NewRouter(facade *dbops.Facade, cfg cliparse.Config, registry *handlers.Registry, alog *auditlog.Logger, log *zap.SugaredLogger) http.Handler {
	mux := http.NewServeMux()

	// Initialize handlers
	surveyHandler := handlers.NewSurveyHandler(facade, cfg, registry, alog)

	// Liveness and readiness probes
	health := healthcheck.NewHandler()
	health.AddReadinessCheck("database", healthcheck.DatabasePingCheck(facade.DB(), 1*time.Second))
	mux.HandleFunc("GET /live", health.LiveEndpoint)
	mux.HandleFunc("GET /ready", health.ReadyEndpoint)

	// Survey flow (public)
	mux.HandleFunc("GET /surveys/{name}", middleware.WithLogging(log, surveyHandler.LoadSurvey))
	mux.HandleFunc("GET /surveys/{name}/choices", middleware.WithLogging(log, surveyHandler.GetChoices))
	mux.HandleFunc("POST /surveys/{name}/responses", middleware.WithLogging(log, surveyHandler.SubmitResponse))
	mux.HandleFunc("PATCH /surveys/{name}/responses/{id}", middleware.WithLogging(log, surveyHandler.PatchDuration))

	// Admin operations (require X-Admin-Key)
	mux.HandleFunc("GET /surveys/{name}/responses", middleware.WithLogging(log, surveyHandler.ListResponses))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("formsink API v1"))
	})

	return middleware.CORS(mux)
}
