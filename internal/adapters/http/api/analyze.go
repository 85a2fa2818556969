// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/podiumhq/podium/internal/adapters/mq/queue"
)

// AnalyzeDependencies defines the interface for analysis job submission.
type AnalyzeDependencies interface {
	Enqueue(ctx context.Context, j queue.Job) bool
}

// AnalyzeHandler handles analysis job submissions.
type AnalyzeHandler struct {
	deps AnalyzeDependencies
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(deps AnalyzeDependencies) *AnalyzeHandler {
	return &AnalyzeHandler{deps: deps}
}

// analyzeRequest mirrors the request schema for POST /analyze.
type analyzeRequest struct {
	SessionID  string `json:"session_id"`
	Username   string `json:"username"`
	ScenarioID string `json:"scenario_id"`
	Idx        int    `json:"idx"`
	VideoPath  string `json:"video_path"`
	Question   string `json:"question"`
	TS         string `json:"ts"`
}

func (a analyzeRequest) validate() error {
	switch {
	case strings.TrimSpace(a.SessionID) == "":
		return errors.New("missing session_id")
	case strings.TrimSpace(a.VideoPath) == "":
		return errors.New("missing video_path")
	case a.Idx < 0:
		return errors.New("negative idx")
	}
	if a.TS != "" {
		if _, err := time.Parse(time.RFC3339, a.TS); err != nil {
			return errors.New("invalid ts; must be RFC3339")
		}
	}
	return nil
}

type ackResponse struct {
	Status string `json:"status"`
}

// HandlePostAnalyze handles POST /analyze requests.
func (h *AnalyzeHandler) HandlePostAnalyze(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_analyze"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	ts := time.Now().UTC()
	if req.TS != "" {
		ts, _ = time.Parse(time.RFC3339, req.TS)
	}
	job := queue.Job{
		SessionID:  req.SessionID,
		Username:   req.Username,
		ScenarioID: req.ScenarioID,
		Idx:        req.Idx,
		VideoPath:  req.VideoPath,
		Question:   req.Question,
		Timestamp:  ts,
	}
	if ok := h.deps.Enqueue(r.Context(), job); !ok {
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}
