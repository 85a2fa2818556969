// Package worker runs the analysis pipeline over queued jobs and stores the
// resulting session items.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/podiumhq/podium/internal/adapters/mq/queue"
	"github.com/podiumhq/podium/internal/domain/metric"
	"github.com/podiumhq/podium/pkg/logger"
	"github.com/podiumhq/podium/pkg/metrics"
)

// Workers drain their in-flight job on shutdown; the pool bounds the total
// wait.
const poolShutdownTimeout = 30 * time.Second

// Job is what workers read off the queue.
type Job = queue.Job

// Runner executes every enabled analyzer against a video segment.
type Runner interface {
	Run(ctx context.Context, videoPath, question string) map[string]metric.Result
}

// Ingestor stores the per-question item produced from a finished run.
type Ingestor interface {
	AddItem(ctx context.Context, item metric.SessionItem) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker, finishing the job in flight.
	Shutdown(ctx context.Context) error
}

// AnalysisWorker implements Worker over a runner and an ingestor.
type AnalysisWorker struct {
	queue    Queue
	runner   Runner
	ingestor Ingestor
	name     string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewAnalysisWorker creates a new worker with configuration options.
func NewAnalysisWorker(q Queue, runner Runner, ingestor Ingestor, opts ...Option) *AnalysisWorker {
	w := &AnalysisWorker{
		queue:    q,
		runner:   runner,
		ingestor: ingestor,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *AnalysisWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.processJob(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing job", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *AnalysisWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob analyzes one video segment and stores the resulting item.
func (w *AnalysisWorker) processJob(ctx context.Context, job Job) error {
	start := time.Now()
	defer func() {
		metrics.RecordJobLatency(float64(time.Since(start).Milliseconds()))
	}()

	results := w.runner.Run(ctx, job.VideoPath, job.Question)

	item := metric.SessionItem{
		SessionID:  job.SessionID,
		Username:   job.Username,
		ScenarioID: job.ScenarioID,
		Idx:        job.Idx,
		VideoURL:   job.VideoPath,
		Analyzers:  toAnalyzerResults(results),
		Timestamp:  job.Timestamp,
	}
	if err := w.ingestor.AddItem(ctx, item); err != nil {
		metrics.RecordWorkerError()
		w.logger.Error(ctx, "failed to store analyzed item",
			logger.String("session_id", job.SessionID),
			logger.Int("idx", job.Idx),
			logger.Error(err),
		)
		return fmt.Errorf("store item for session %s: %w", job.SessionID, err)
	}

	w.logger.Debug(ctx, "job processed",
		logger.String("session_id", job.SessionID),
		logger.Int("idx", job.Idx),
		logger.Int("analyzers", len(results)),
	)
	return nil
}

// toAnalyzerResults flattens run results into the stored per-item shape.
// A missing confidence becomes 0 so degraded runs carry no weight in the
// confidence-weighted rollup.
func toAnalyzerResults(results map[string]metric.Result) map[string]metric.AnalyzerResult {
	out := make(map[string]metric.AnalyzerResult, len(results))
	for name, res := range results {
		conf := 0.0
		if res.Confidence != nil {
			conf = *res.Confidence
		}
		out[name] = metric.AnalyzerResult{
			Score:      res.Score,
			Confidence: conf,
			Version:    res.Version,
		}
	}
	return out
}

// Pool manages multiple workers over one queue.
type Pool struct {
	workers []*AnalysisWorker
	queue   Queue

	logger logger.Logger
}

// NewPool creates a worker pool. A non-positive count defaults to one worker
// per CPU.
func NewPool(workerCount int, q Queue, runner Runner, ingestor Ingestor) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*AnalysisWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewAnalysisWorker(q, runner, ingestor, WithName("worker-"+strconv.Itoa(i)))
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for every worker to drain.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	metrics.UpdateWorkerCount(0)
	return nil
}
