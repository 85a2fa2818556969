package metric

import (
	"fmt"
	"time"
)

// Current schema version for completed session documents. Bump whenever the
// aggregation output shape changes; old records stay readable as-is.
const SchemaVersion = 2

// OverallScore is the session-level final score.
type OverallScore struct {
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

// CategoryScore holds the rolled-up score of one category. A nil Score is an
// explicit missing-data marker: no configured analyzer contributed.
type CategoryScore struct {
	Score *float64 `json:"score"`
}

// AnalyzerFinal is the per-analyzer aggregate across all items of a session.
type AnalyzerFinal struct {
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	Version    string  `json:"version,omitempty"`
}

// Weights is the two-level weight tree driving rollups. Weights are relative
// within each group; normalization divides by the sum actually used.
type Weights struct {
	Overall    map[string]float64            `json:"overall"`
	Categories map[string]map[string]float64 `json:"categories"`
}

// Validate rejects negative weights.
func (w Weights) Validate() error {
	for cat, wt := range w.Overall {
		if wt < 0 {
			return fmt.Errorf("%w: negative overall weight for %s", ErrValidation, cat)
		}
	}
	for cat, m := range w.Categories {
		for an, wt := range m {
			if wt < 0 {
				return fmt.Errorf("%w: negative weight for %s/%s", ErrValidation, cat, an)
			}
		}
	}
	return nil
}

// Meta carries reproducibility metadata for a completed session. The weight
// tree used at finalize time is snapshotted so later config changes never
// retroactively alter the document.
type Meta struct {
	SchemaVersion   int     `json:"schema_version"`
	PipelineVersion string  `json:"pipeline_version"`
	Weights         Weights `json:"weights"`
	NumItems        int     `json:"num_items"`
}

// CompletedSession is the terminal artifact of finalization.
type CompletedSession struct {
	ID          string                   `json:"id,omitempty"`
	Username    string                   `json:"username"`
	ScenarioID  string                   `json:"scenario_id"`
	SessionID   string                   `json:"session_id"`
	Timestamp   time.Time                `json:"timestamp"`
	VideoURL    string                   `json:"video_url"`
	Overall     OverallScore             `json:"overall"`
	Categories  map[string]CategoryScore `json:"categories"`
	Analyzers   map[string]AnalyzerFinal `json:"analyzers"`
	SummaryText string                   `json:"summary_text"`
	Meta        Meta                     `json:"meta"`
}

// Validate runs range checks on every score and confidence plus the required
// metadata. A document that fails here must never be persisted.
func (c CompletedSession) Validate() error {
	if c.SessionID == "" {
		return fmt.Errorf("%w: missing session_id", ErrValidation)
	}
	if c.Overall.Score < MinScore || c.Overall.Score > MaxScore {
		return fmt.Errorf("%w: overall score %.2f out of range", ErrValidation, c.Overall.Score)
	}
	if c.Overall.Confidence < MinConfidence || c.Overall.Confidence > MaxConfidence {
		return fmt.Errorf("%w: overall confidence %.3f out of range", ErrValidation, c.Overall.Confidence)
	}
	for cat, cs := range c.Categories {
		if cs.Score != nil && (*cs.Score < MinScore || *cs.Score > MaxScore) {
			return fmt.Errorf("%w: category %s score %.2f out of range", ErrValidation, cat, *cs.Score)
		}
	}
	for name, af := range c.Analyzers {
		if af.Score < MinScore || af.Score > MaxScore {
			return fmt.Errorf("%w: analyzer %s score %.2f out of range", ErrValidation, name, af.Score)
		}
		if af.Confidence < MinConfidence || af.Confidence > MaxConfidence {
			return fmt.Errorf("%w: analyzer %s confidence %.3f out of range", ErrValidation, name, af.Confidence)
		}
	}
	if c.Meta.SchemaVersion < 1 {
		return fmt.Errorf("%w: schema_version must be >= 1", ErrValidation)
	}
	if c.Meta.NumItems < 1 {
		return fmt.Errorf("%w: num_items must be >= 1", ErrValidation)
	}
	if err := c.Meta.Weights.Validate(); err != nil {
		return err
	}
	return nil
}
