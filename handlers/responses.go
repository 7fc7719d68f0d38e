// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/danielhkuo/formsink/auditlog"
	"github.com/danielhkuo/formsink/dbops"
	"github.com/danielhkuo/formsink/fieldconf"
	"github.com/danielhkuo/formsink/middleware"
	"github.com/danielhkuo/formsink/models"
	"github.com/danielhkuo/formsink/session"
)

// SubmitResponse handles POST /surveys/{name}/responses: decodes checkbox
// groups, enforces uniqueness policies, creates the write table on first
// contact, and appends the response with its session and client metadata.
func (h *SurveyHandler) SubmitResponse(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	sid := h.sessionID(r)
	ip := h.clientIP(r)

	if _, ok := h.registry.Survey(name); !ok {
		middleware.StateResponse(w, http.StatusNotFound, models.StateSurveyNotFound,
			"no survey is registered under this name", nil)
		return
	}
	if !h.registry.Active(name) {
		middleware.StateResponse(w, http.StatusForbidden, models.StateInactiveSurvey,
			"survey is no longer accepting responses", nil)
		return
	}

	var req models.SubmitResponseRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.StateResponse(w, http.StatusBadRequest, models.StateInvalidData,
			"request body is not valid JSON", nil)
		return
	}
	if len(req.Data) == 0 {
		middleware.StateResponse(w, http.StatusBadRequest, models.StateInvalidData,
			"response carries no fields", nil)
		return
	}

	data := models.DecodeCheckboxes(req.Data)

	cfg := h.configurator(name)
	cfg.CacheTables(r.Context())

	var warnings []string
	for _, fc := range h.registry.Fields(name) {
		if fc.Type != "unique" {
			continue
		}
		value := fieldconf.CellString(data[fc.Field])
		if value == "" {
			continue
		}
		status, msg := cfg.CheckUnique(r.Context(), fc.Field, value)
		switch status {
		case fieldconf.UniqueRejected:
			h.audit(auditlog.Entry{
				SessionID: sid, Subject: name, Zone: "SURVEY",
				Severity: auditlog.SeverityError,
				Message:  "submission rejected: " + msg,
				IP:       ip, Force: true,
			})
			middleware.StateResponse(w, http.StatusConflict, models.StateInvalidData, msg, nil)
			return
		case fieldconf.UniqueWarned:
			warnings = append(warnings, msg)
		}
	}

	table := h.cfg.WriteTable
	if err := h.facade.CreateTableIfAbsent(r.Context(), table, data); err != nil {
		h.auditDatabaseError(sid, name, ip, "write table creation failed")
		middleware.StateResponse(w, http.StatusInternalServerError, models.StateDatabaseError,
			"could not prepare response storage", nil)
		return
	}

	row := make(models.Row, len(data)+4)
	for k, v := range data {
		row[k] = v
	}
	row["session_id"] = sid
	row["ip_address"] = ip
	if req.LoadDuration > 0 {
		row["load_duration"] = req.LoadDuration
	}
	if req.CompleteDuration > 0 {
		row["complete_duration"] = req.CompleteDuration
	}

	start := time.Now()
	id, err := h.facade.AppendRow(r.Context(), table, row)
	if err != nil {
		if errors.Is(err, dbops.ErrDuplicate) {
			middleware.StateResponse(w, http.StatusConflict, models.StateInvalidData,
				"a response with this value already exists", nil)
			return
		}
		h.auditDatabaseError(sid, name, ip, "response insert failed")
		middleware.StateResponse(w, http.StatusInternalServerError, models.StateDatabaseError,
			"could not store the response", nil)
		return
	}

	entry := auditlog.Entry{
		SessionID: sid, Subject: name, Zone: "DATABASE",
		Message:      "response saved",
		SaveDuration: auditlog.Float(time.Since(start).Seconds()),
		IP:           ip, Force: true,
	}
	if req.LoadDuration > 0 {
		entry.LoadDuration = auditlog.Float(req.LoadDuration)
	}
	if req.CompleteDuration > 0 {
		entry.CompleteDuration = auditlog.Float(req.CompleteDuration)
	}
	h.audit(entry)

	w.Header().Set("X-Session-ID", sid)
	middleware.JSONResponse(w, http.StatusCreated, models.SubmitResponseResponse{
		ResponseID: id,
		Warnings:   warnings,
	})
}

// PatchDuration handles PATCH /surveys/{name}/responses/{id}: records the
// client-measured save duration on an already stored response.
func (h *SurveyHandler) PatchDuration(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if _, ok := h.registry.Survey(name); !ok {
		middleware.StateResponse(w, http.StatusNotFound, models.StateSurveyNotFound,
			"no survey is registered under this name", nil)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		middleware.StateResponse(w, http.StatusBadRequest, models.StateInvalidQuery,
			"response id must be an integer", nil)
		return
	}

	var req models.PatchDurationRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.StateResponse(w, http.StatusBadRequest, models.StateInvalidData,
			"request body is not valid JSON", nil)
		return
	}

	err = h.facade.UpdateByID(r.Context(), h.cfg.WriteTable, id,
		models.Row{"save_duration": req.SaveDuration})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			middleware.ErrorResponse(w, http.StatusNotFound, "response not found")
			return
		}
		middleware.StateResponse(w, http.StatusInternalServerError, models.StateDatabaseError,
			"could not update the response", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListResponsesResponse is the admin listing payload.
type ListResponsesResponse struct {
	Count     int          `json:"count"`
	Responses []models.Row `json:"responses"`
}

// ListResponses handles GET /surveys/{name}/responses: an admin-keyed read
// of the stored responses, newest first.
func (h *SurveyHandler) ListResponses(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if _, ok := h.registry.Survey(name); !ok {
		middleware.StateResponse(w, http.StatusNotFound, models.StateSurveyNotFound,
			"no survey is registered under this name", nil)
		return
	}

	key := r.Header.Get("X-Admin-Key")
	if err := session.ValidateAdminKey(name, key, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "invalid admin key")
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			middleware.StateResponse(w, http.StatusBadRequest, models.StateInvalidQuery,
				"limit must be a positive integer", nil)
			return
		}
		limit = n
	}

	rows, err := h.facade.ReadFiltered(r.Context(), dbops.Query{
		Table:      h.cfg.WriteTable,
		OrderBy:    "id",
		Descending: true,
		Limit:      limit,
	})
	if err != nil {
		middleware.StateResponse(w, http.StatusInternalServerError, models.StateDatabaseError,
			"could not read responses", nil)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, ListResponsesResponse{
		Count:     len(rows),
		Responses: rows,
	})
}

func (h *SurveyHandler) auditDatabaseError(sid, name, ip, msg string) {
	h.audit(auditlog.Entry{
		SessionID: sid, Subject: name, Zone: "DATABASE",
		Severity: auditlog.SeverityError,
		Message:  msg,
		IP:       ip, Force: true,
	})
}
