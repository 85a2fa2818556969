package analyzer

import (
	"context"
	"time"

	"github.com/podiumhq/podium/internal/analyzer/artifact"
	"github.com/podiumhq/podium/internal/domain/metric"
	"github.com/podiumhq/podium/pkg/logger"
	"github.com/podiumhq/podium/pkg/metrics"
)

// Orchestrator runs a configured set of analyzers against one video and
// collects their results by metric name. The artifact cache is injected at
// construction; per-video artifacts are scoped to one Run and cleared on
// every exit path.
type Orchestrator struct {
	analyzers []Analyzer
	cache     *artifact.Cache
	log       logger.Logger
}

// OrchestratorOption applies a configuration option to the Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithOrchestratorLogger overrides the default named logger.
func WithOrchestratorLogger(log logger.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if log != nil {
			o.log = log
		}
	}
}

// NewOrchestrator creates an orchestrator over the given analyzers.
func NewOrchestrator(analyzers []Analyzer, cache *artifact.Cache, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		analyzers: analyzers,
		cache:     cache,
		log:       logger.Named("analyzer"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes every analyzer against the video path and returns the results
// keyed by metric name. Question-aware analyzers receive the question;
// everyone else gets the empty string. Individual analyzer failures degrade
// into error-carrying results and never abort the run.
func (o *Orchestrator) Run(ctx context.Context, videoPath, question string) map[string]metric.Result {
	results := make(map[string]metric.Result, len(o.analyzers))

	_ = o.cache.WithVideo(videoPath, func() error {
		for _, a := range o.analyzers {
			q := ""
			if a.NeedsQuestion() {
				q = question
			}

			start := time.Now()
			res := a.Analyze(ctx, videoPath, q)
			elapsed := time.Since(start)

			metrics.RecordAnalyzerRun(a.Metric())
			metrics.RecordAnalyzerLatency(a.Metric(), float64(elapsed.Milliseconds()))
			if len(res.Errors) > 0 {
				metrics.RecordAnalyzerError(a.Metric())
				o.log.Warn(ctx, "analyzer degraded",
					logger.String("metric", a.Metric()),
					logger.Any("errors", res.Errors))
			} else {
				o.log.Debug(ctx, "analyzer finished",
					logger.String("metric", a.Metric()),
					logger.Float64("score", res.Score),
					logger.Int("duration_ms", int(elapsed.Milliseconds())))
			}

			results[res.Metric] = res
		}
		return nil
	})

	return results
}
