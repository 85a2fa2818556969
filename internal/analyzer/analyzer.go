// Package analyzer defines the analyzer execution contract and the concrete
// per-metric analyzers. Every analyzer consumes a video path (plus an
// optional question for question-aware metrics) and produces a normalized
// metric.Result. Analyzers never fail the run: extraction or model errors
// degrade into a zero-score result carrying the error strings.
package analyzer

import (
	"context"
	"time"

	"github.com/podiumhq/podium/internal/domain/metric"
)

// Metric names produced by the built-in analyzers.
const (
	MetricEyeContact  = "eye_contact"
	MetricHeadPose    = "head_pose"
	MetricTone        = "tone"
	MetricSpeechStyle = "speech_style"
	MetricGrammar     = "grammar"
	MetricFacial      = "facial_expression"
	MetricContent     = "content_quality"
)

// DefaultMetrics returns every built-in metric in canonical execution
// order. Order matters: the speech-style analyzer produces the shared
// transcript, so it must run before its consumers (grammar, content).
func DefaultMetrics() []string {
	return []string{
		MetricEyeContact,
		MetricHeadPose,
		MetricTone,
		MetricSpeechStyle,
		MetricGrammar,
		MetricFacial,
		MetricContent,
	}
}

// Analyzer is the uniform execution contract. NeedsQuestion declares whether
// the analyzer consumes the auxiliary question input, so the orchestrator
// branches on capability rather than on metric name.
type Analyzer interface {
	Metric() string
	NeedsQuestion() bool
	Analyze(ctx context.Context, videoPath, question string) metric.Result
}

// degraded builds the failure-shaped result: score 0, no confidence, error
// strings attached.
func degraded(name, model, version string, start time.Time, errs ...string) metric.Result {
	return metric.Result{
		Metric:     name,
		Score:      0,
		Confidence: nil,
		Model:      model,
		Version:    version,
		DurationMS: time.Since(start).Milliseconds(),
		Errors:     errs,
	}
}
