package analyzer

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/podiumhq/podium/internal/analyzer/artifact"
	"github.com/podiumhq/podium/internal/domain/metric"
)

// DefaultQuestion is used when the caller supplies no question.
const DefaultQuestion = "Please provide a comprehensive answer to the given topic."

const contentSuccessConfidence = 0.9

// ContentEvaluation is the judge's verdict on one answer.
type ContentEvaluation struct {
	Score      float64  `json:"score"`
	GoodPoints []string `json:"good_points"`
	BadPoints  []string `json:"bad_points"`
}

// ContentJudge evaluates how well an answer addresses a question. The
// generative model behind it is an external collaborator.
type ContentJudge interface {
	Evaluate(ctx context.Context, question, answer string) (ContentEvaluation, error)
}

// ContentAnalyzer scores answer content quality. It is the only
// question-aware analyzer: the orchestrator passes the session question
// through based on the declared capability. The transcript comes from the
// artifact cache populated earlier in the run.
type ContentAnalyzer struct {
	judge ContentJudge
	cache *artifact.Cache
}

// NewContentAnalyzer creates a content quality analyzer.
func NewContentAnalyzer(judge ContentJudge, cache *artifact.Cache) *ContentAnalyzer {
	return &ContentAnalyzer{judge: judge, cache: cache}
}

// Metric returns the metric name.
func (a *ContentAnalyzer) Metric() string { return MetricContent }

// NeedsQuestion reports that content scoring consumes the question input.
func (a *ContentAnalyzer) NeedsQuestion() bool { return true }

// Analyze scores the transcript as an answer to the question.
func (a *ContentAnalyzer) Analyze(ctx context.Context, videoPath, question string) metric.Result {
	const (
		model   = "answer-judge"
		version = "1.0.0"
	)
	start := time.Now()

	if question == "" {
		question = DefaultQuestion
	}

	answer := strings.TrimSpace(a.cache.Transcript(videoPath))
	if answer == "" {
		r := degraded(MetricContent, model, version, start, "no transcript available")
		r.Confidence = metric.ConfPtr(0)
		return r
	}

	eval, err := a.judge.Evaluate(ctx, question, answer)
	if err != nil {
		r := degraded(MetricContent, model, version, start, "evaluate answer: "+err.Error())
		r.Confidence = metric.ConfPtr(0)
		return r
	}

	score := math.Max(0, math.Min(100, eval.Score))
	conf := 0.0
	if score > 0 {
		conf = contentSuccessConfidence
	}

	return metric.Result{
		Metric:     MetricContent,
		Score:      score,
		Confidence: metric.ConfPtr(conf),
		Model:      model,
		Version:    version,
		DurationMS: time.Since(start).Milliseconds(),
		Details: map[string]any{
			"question":   question,
			"word_count": len(strings.Fields(answer)),
			"evaluation": map[string]any{
				"score":       score,
				"good_points": eval.GoodPoints,
				"bad_points":  eval.BadPoints,
			},
		},
	}
}
