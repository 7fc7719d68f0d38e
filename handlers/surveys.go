// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"net/http"

	"github.com/danielhkuo/formsink/auditlog"
	"github.com/danielhkuo/formsink/cliparse"
	"github.com/danielhkuo/formsink/dbops"
	"github.com/danielhkuo/formsink/fieldconf"
	"github.com/danielhkuo/formsink/middleware"
	"github.com/danielhkuo/formsink/models"
	"github.com/danielhkuo/formsink/session"
)

// SurveyHandler serves survey definitions, choice payloads, and response
// submission for every registered survey.
type SurveyHandler struct {
	facade   *dbops.Facade
	cfg      cliparse.Config
	registry *Registry
	alog     *auditlog.Logger
}

// NewSurveyHandler builds the handler. The audit logger may be nil in tests.
func NewSurveyHandler(facade *dbops.Facade, cfg cliparse.Config, registry *Registry, alog *auditlog.Logger) *SurveyHandler {
	return &SurveyHandler{facade: facade, cfg: cfg, registry: registry, alog: alog}
}

// sessionID returns the client's session id, minting one if the request
// carries none.
func (h *SurveyHandler) sessionID(r *http.Request) string {
	if sid := r.Header.Get("X-Session-ID"); sid != "" {
		return sid
	}
	return session.NewSessionID()
}

func (h *SurveyHandler) configurator(survey string) *fieldconf.Configurator {
	return fieldconf.New(h.facade, h.cfg.WriteTable, h.registry.Fields(survey), h.alog)
}

// audit enqueues an entry, tolerating a nil logger.
func (h *SurveyHandler) audit(e auditlog.Entry) {
	if h.alog != nil {
		h.alog.Log(e)
	}
}

// clientIP renders the client address for storage, salted-hashed when the
// deployment opts out of raw addresses.
func (h *SurveyHandler) clientIP(r *http.Request) string {
	ip := middleware.ClientIP(r)
	if h.cfg.HashIPs {
		return session.HashIP(ip, h.cfg.AdminKeySalt)
	}
	return ip
}

// LoadSurvey handles GET /surveys/{name}: validates the URL parameters
// against the field configs and returns the opaque survey document with the
// resolved parameter values. The first successful load unlocks audit
// persistence for the process.
func (h *SurveyHandler) LoadSurvey(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	sid := h.sessionID(r)
	ip := h.clientIP(r)

	doc, ok := h.registry.Survey(name)
	if !ok {
		middleware.StateResponse(w, http.StatusNotFound, models.StateSurveyNotFound,
			"no survey is registered under this name", nil)
		return
	}
	if string(bytes.TrimSpace(doc)) == "null" {
		middleware.StateResponse(w, http.StatusNotFound, models.StateSurveyUndefined,
			"survey is registered but has no definition", nil)
		return
	}
	if !h.registry.Active(name) {
		middleware.StateResponse(w, http.StatusForbidden, models.StateInactiveSurvey,
			"survey is no longer accepting responses", nil)
		return
	}

	cfg := h.configurator(name)
	if errs := cfg.ValidateShape(); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		middleware.StateResponse(w, http.StatusInternalServerError, models.StateSurveyUndefined,
			"survey field configuration is invalid", msgs)
		return
	}
	cfg.CacheTables(r.Context())

	verdict := cfg.ValidateParams(r.URL.Query())
	if !verdict.Valid {
		h.audit(auditlog.Entry{
			SessionID: sid, Subject: name, Zone: "SURVEY",
			Severity: auditlog.SeverityError,
			Message:  "survey load rejected: invalid URL parameters",
			IP:       ip, Force: true,
		})
		middleware.StateResponse(w, http.StatusBadRequest, models.StateInvalidQuery,
			"one or more URL parameters are missing or invalid", verdict.Errors)
		return
	}

	h.audit(auditlog.Entry{
		SessionID: sid, Subject: name, Zone: "SURVEY",
		Message: "survey loaded", IP: ip, Force: true,
	})
	if h.alog != nil {
		h.alog.SetLoaded()
	}

	w.Header().Set("X-Session-ID", sid)
	middleware.JSONResponse(w, http.StatusOK, models.LoadSurveyMessage{
		Survey: doc,
		Params: cfg.ParamValues(verdict),
	})
}

// GetChoices handles GET /surveys/{name}/choices: resolves the dynamic
// field choices against the currently held values passed as query
// parameters. No resolvable fields yields 204.
func (h *SurveyHandler) GetChoices(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if _, ok := h.registry.Survey(name); !ok {
		middleware.StateResponse(w, http.StatusNotFound, models.StateSurveyNotFound,
			"no survey is registered under this name", nil)
		return
	}

	current := map[string]string{}
	for key, vals := range r.URL.Query() {
		if len(vals) > 0 {
			current[key] = vals[0]
		}
	}

	cfg := h.configurator(name)
	cfg.CacheTables(r.Context())
	msg := cfg.BuildUpdateMessage(r.Context(), current)
	if msg == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, msg)
}
