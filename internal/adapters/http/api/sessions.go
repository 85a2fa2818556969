// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/podiumhq/podium/internal/adapters/repository"
	"github.com/podiumhq/podium/internal/domain/metric"
	"github.com/podiumhq/podium/internal/meeting"
)

// Default page size for session history listings.
const defaultHistoryLimit = 20

// SessionDependencies defines the interface for session operations.
type SessionDependencies interface {
	AddItem(ctx context.Context, item metric.SessionItem) error
	FinalizeSession(ctx context.Context, req meeting.FinalizeRequest) (metric.CompletedSession, error)
	LatestBySessionID(ctx context.Context, sessionID string) (metric.CompletedSession, error)
	History(ctx context.Context, username string, limit int) ([]metric.CompletedSession, error)
}

// SessionsHandler handles session item ingestion, finalization and reads.
type SessionsHandler struct {
	deps SessionDependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps SessionDependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

// analyzerPayload is one analyzer block of an item submission. A missing
// confidence defaults to 1.
type analyzerPayload struct {
	Score      float64  `json:"score"`
	Confidence *float64 `json:"confidence"`
	Version    string   `json:"version"`
}

// itemRequest mirrors the request schema for POST /sessions/{id}/items.
type itemRequest struct {
	Username   string                     `json:"username"`
	ScenarioID string                     `json:"scenario_id"`
	Idx        int                        `json:"idx"`
	VideoURL   string                     `json:"video_url"`
	Analyzers  map[string]analyzerPayload `json:"analyzers"`
	TS         string                     `json:"ts"`
}

// finalizeRequest mirrors the request schema for POST /sessions/{id}/finalize.
type finalizeRequest struct {
	Username        string `json:"username"`
	ScenarioID      string `json:"scenario_id"`
	VideoURL        string `json:"video_url"`
	PipelineVersion string `json:"pipeline_version"`
	TS              string `json:"ts"`
}

// HandleListSessions handles GET /sessions?username=...&limit=... requests.
func (h *SessionsHandler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_sessions"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		writeError(w, http.StatusBadRequest, "bad_request",
			WrapKind(op, ErrBadRequest, errors.New("missing username")))
		return
	}
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request",
				WrapKind(op, ErrBadRequest, errors.New("invalid limit")))
			return
		}
		limit = n
	}
	docs, err := h.deps.History(r.Context(), username, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// HandleSessionPath dispatches /sessions/{id}, /sessions/{id}/items and
// /sessions/{id}/finalize.
func (h *SessionsHandler) HandleSessionPath(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/sessions/")
	sessionID, action, _ := strings.Cut(rest, "/")
	if sessionID == "" || strings.Contains(action, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	switch action {
	case "":
		h.handleGetSession(w, r, sessionID)
	case "items":
		h.handlePostItem(w, r, sessionID)
	case "finalize":
		h.handlePostFinalize(w, r, sessionID)
	default:
		http.NotFound(w, r)
	}
}

func (h *SessionsHandler) handleGetSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	doc, err := h.deps.LatestBySessionID(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *SessionsHandler) handlePostItem(w http.ResponseWriter, r *http.Request, sessionID string) {
	const op = "api.post_item"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	ts, err := parseTS(req.TS)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	analyzers := make(map[string]metric.AnalyzerResult, len(req.Analyzers))
	for name, a := range req.Analyzers {
		conf := 1.0
		if a.Confidence != nil {
			conf = *a.Confidence
		}
		analyzers[name] = metric.AnalyzerResult{Score: a.Score, Confidence: conf, Version: a.Version}
	}

	item := metric.SessionItem{
		SessionID:  sessionID,
		Username:   req.Username,
		ScenarioID: req.ScenarioID,
		Idx:        req.Idx,
		VideoURL:   req.VideoURL,
		Analyzers:  analyzers,
		Timestamp:  ts,
	}
	if err := h.deps.AddItem(r.Context(), item); err != nil {
		if errors.Is(err, metric.ErrValidation) {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "stored"})
}

func (h *SessionsHandler) handlePostFinalize(w http.ResponseWriter, r *http.Request, sessionID string) {
	const op = "api.post_finalize"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req finalizeRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
	}
	ts, err := parseTS(req.TS)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	doc, err := h.deps.FinalizeSession(r.Context(), meeting.FinalizeRequest{
		SessionID:       sessionID,
		Username:        req.Username,
		ScenarioID:      req.ScenarioID,
		VideoURL:        req.VideoURL,
		Timestamp:       ts,
		PipelineVersion: req.PipelineVersion,
		IfAbsent:        isTruthy(r.URL.Query().Get("if_absent")),
	})
	if err != nil {
		switch {
		case errors.Is(err, meeting.ErrEmptySession):
			writeError(w, http.StatusConflict, "empty_session", err)
		case errors.Is(err, metric.ErrValidation):
			writeError(w, http.StatusBadRequest, "bad_request", err)
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// parseTS parses an optional RFC3339 timestamp; empty means "unset".
func parseTS(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errors.New("invalid ts; must be RFC3339")
	}
	return ts, nil
}

func isTruthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
