// Package metric contains the normalized result contracts shared by all
// analyzers and the aggregation pipeline.
//
// Conventions:
// - Scores are always 0..100, confidences 0..1.
// - Results are immutable once stored; validation happens before any write.
package metric

import (
	"fmt"
	"time"
)

// Score bounds shared across the pipeline.
const (
	MinScore      = 0.0
	MaxScore      = 100.0
	MinConfidence = 0.0
	MaxConfidence = 1.0
)

// Result is the uniform output of a single analyzer run.
// Confidence is a pointer so "no confidence available" (e.g. zero usable
// frames) is distinguishable from 0.
type Result struct {
	Metric     string         `json:"metric"`
	Score      float64        `json:"score"`
	Confidence *float64       `json:"confidence"`
	Model      string         `json:"model"`
	Version    string         `json:"version"`
	DurationMS int64          `json:"duration_ms"`
	Details    map[string]any `json:"details,omitempty"`
	Errors     []string       `json:"errors,omitempty"`
}

// Validate checks the score/confidence ranges.
func (r Result) Validate() error {
	if r.Metric == "" {
		return fmt.Errorf("%w: missing metric name", ErrValidation)
	}
	if r.Score < MinScore || r.Score > MaxScore {
		return fmt.Errorf("%w: score %.2f out of range for %s", ErrValidation, r.Score, r.Metric)
	}
	if r.Confidence != nil && (*r.Confidence < MinConfidence || *r.Confidence > MaxConfidence) {
		return fmt.Errorf("%w: confidence %.3f out of range for %s", ErrValidation, *r.Confidence, r.Metric)
	}
	return nil
}

// ConfPtr is a convenience for building a *float64 confidence.
func ConfPtr(v float64) *float64 { return &v }

// AnalyzerResult is the per-item analyzer payload as stored on a session
// item. Confidence defaults to 1 when the caller omits it.
type AnalyzerResult struct {
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	Version    string  `json:"version,omitempty"`
}

// Validate checks the score/confidence ranges.
func (a AnalyzerResult) Validate() error {
	if a.Score < MinScore || a.Score > MaxScore {
		return fmt.Errorf("%w: analyzer score %.2f out of range", ErrValidation, a.Score)
	}
	if a.Confidence < MinConfidence || a.Confidence > MaxConfidence {
		return fmt.Errorf("%w: analyzer confidence %.3f out of range", ErrValidation, a.Confidence)
	}
	return nil
}

// SessionItem is one answered question of a session: the raw analyzer
// outputs for one video segment. Uniquely identified by (SessionID, Idx).
type SessionItem struct {
	SessionID  string                    `json:"session_id"`
	Username   string                    `json:"username"`
	ScenarioID string                    `json:"scenario_id"`
	Idx        int                       `json:"idx"`
	VideoURL   string                    `json:"video_url"`
	Analyzers  map[string]AnalyzerResult `json:"analyzers"`
	Timestamp  time.Time                 `json:"timestamp"`
}

// Validate checks identifiers, index and every analyzer block.
func (s SessionItem) Validate() error {
	if s.SessionID == "" {
		return fmt.Errorf("%w: missing session_id", ErrValidation)
	}
	if s.Idx < 0 {
		return fmt.Errorf("%w: negative item index %d", ErrValidation, s.Idx)
	}
	if s.VideoURL == "" {
		return fmt.Errorf("%w: empty video_url", ErrValidation)
	}
	for name, a := range s.Analyzers {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("analyzer %q: %w", name, err)
		}
	}
	return nil
}
