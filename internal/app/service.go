// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/podiumhq/podium/internal/adapters/mq/queue"
	"github.com/podiumhq/podium/internal/adapters/mq/worker"
	"github.com/podiumhq/podium/internal/adapters/repository"
	"github.com/podiumhq/podium/internal/analyzer"
	"github.com/podiumhq/podium/internal/analyzer/artifact"
	"github.com/podiumhq/podium/internal/config"
	"github.com/podiumhq/podium/internal/domain/aggregate"
	"github.com/podiumhq/podium/internal/domain/metric"
	"github.com/podiumhq/podium/internal/meeting"
	"github.com/podiumhq/podium/pkg/logger"
	"github.com/podiumhq/podium/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultQueueSize     = 1024
	defaultRetentionAge  = 168 * time.Hour
	defaultRetentionSpec = "@hourly"
)

// Service wires the stores, the analysis pipeline and the finalization
// controller behind the HTTP API contract.
type Service struct {
	mu sync.RWMutex

	// Core components
	items        repository.ItemStore
	sessions     repository.SessionStore
	sqlite       *repository.SQLite
	cache        *artifact.Cache
	registry     *analyzer.Registry
	orchestrator *analyzer.Orchestrator
	controller   *meeting.Controller
	jobQueue     queue.Queue
	pool         *worker.Pool
	sweeper      *cron.Cron

	// Configuration
	storeBackend    string
	sqlitePath      string
	queueSize       int
	workerCount     int
	enabledMetrics  []string
	weights         metric.Weights
	pipelineVersion string
	deleteItems     bool
	retentionSpec   string
	retentionMaxAge time.Duration

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStoreBackend selects the persistence layer and, for sqlite, the
// database path.
func WithStoreBackend(backend, path string) Option {
	return func(s *Service) {
		if backend != "" {
			s.storeBackend = backend
		}
		if path != "" {
			s.sqlitePath = path
		}
	}
}

// WithQueueSize sets the maximum size of the analysis job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithWorkerCount sets the number of analysis workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithEnabledMetrics sets which analyzers to run. Unknown names make Start
// fail.
func WithEnabledMetrics(names []string) Option {
	return func(s *Service) {
		if len(names) > 0 {
			s.enabledMetrics = names
		}
	}
}

// WithRegistry replaces the default analyzer registry.
func WithRegistry(r *analyzer.Registry) Option {
	return func(s *Service) {
		if r != nil {
			s.registry = r
		}
	}
}

// WithWeights replaces the default weight tree.
func WithWeights(w metric.Weights) Option {
	return func(s *Service) { s.weights = w }
}

// WithPipelineVersion sets the version stamped into finalized documents.
func WithPipelineVersion(v string) Option {
	return func(s *Service) {
		if v != "" {
			s.pipelineVersion = v
		}
	}
}

// WithDeleteItemsOnFinalize removes a session's raw items after finalize.
func WithDeleteItemsOnFinalize(on bool) Option {
	return func(s *Service) { s.deleteItems = on }
}

// WithRetention configures the raw-item retention sweep.
func WithRetention(spec string, maxAge time.Duration) Option {
	return func(s *Service) {
		if spec != "" {
			s.retentionSpec = spec
		}
		if maxAge > 0 {
			s.retentionMaxAge = maxAge
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		storeBackend:    config.StoreMemory,
		queueSize:       defaultQueueSize,
		workerCount:     0, // worker.NewPool defaults to NumCPU
		weights:         aggregate.DefaultWeights(),
		pipelineVersion: meeting.DefaultPipelineVersion,
		retentionSpec:   defaultRetentionSpec,
		retentionMaxAge: defaultRetentionAge,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FromConfig builds the option list matching a loaded configuration. Weight
// maps are only applied when both levels are present.
func FromConfig(cfg *config.Config) []Option {
	opts := []Option{
		WithStoreBackend(cfg.StoreBackend, cfg.SQLitePath),
		WithQueueSize(cfg.QueueSize),
		WithWorkerCount(cfg.WorkerCount),
		WithEnabledMetrics(cfg.EnabledMetrics),
		WithPipelineVersion(cfg.PipelineVersion),
		WithDeleteItemsOnFinalize(cfg.DeleteItemsOnFinalize),
		WithRetention(cfg.RetentionSchedule, time.Duration(cfg.RetentionMaxAgeHours)*time.Hour),
	}
	if len(cfg.OverallWeights) > 0 && len(cfg.CategoryWeights) > 0 {
		opts = append(opts, WithWeights(metric.Weights{
			Overall:    cfg.OverallWeights,
			Categories: cfg.CategoryWeights,
		}))
	}
	return opts
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting scoring service...")

	if err := s.initStores(ctx); err != nil {
		return err
	}

	s.cache = artifact.NewCache()
	if s.registry == nil {
		s.registry = analyzer.DefaultRegistry(s.cache)
	}
	if len(s.enabledMetrics) == 0 {
		s.enabledMetrics = analyzer.DefaultMetrics()
	}
	analyzers, err := s.registry.Build(s.enabledMetrics)
	if err != nil {
		return fmt.Errorf("build analyzers: %w", err)
	}
	s.orchestrator = analyzer.NewOrchestrator(analyzers, s.cache)

	s.controller = meeting.NewController(s.items, s.sessions,
		meeting.WithWeights(s.weights),
		meeting.WithPipelineVersion(s.pipelineVersion),
		meeting.WithDeleteItemsOnFinalize(s.deleteItems),
	)

	s.jobQueue = queue.NewInMemoryQueue(
		queue.WithCapacity(s.queueSize),
		queue.WithBufferSize(s.queueSize),
	)
	s.pool = worker.NewPool(s.workerCount, s.jobQueue, s.orchestrator, s.controller)
	s.pool.Start(ctx)

	s.startRetentionSweep(ctx)

	s.started = true
	s.logger.Info(ctx, "scoring service started",
		logger.String("store", s.storeBackend),
		logger.Int("queueSize", s.queueSize),
		logger.Any("metrics", s.enabledMetrics),
	)
	return nil
}

func (s *Service) initStores(ctx context.Context) error {
	switch s.storeBackend {
	case config.StoreSQLite:
		db, err := repository.OpenSQLite(ctx, s.sqlitePath)
		if err != nil {
			return err
		}
		s.sqlite = db
		s.items = db.Items()
		s.sessions = db.Sessions()
		s.logger.Info(ctx, "using sqlite store", logger.String("path", s.sqlitePath))
	default:
		s.items = repository.NewMemoryItemStore()
		s.sessions = repository.NewMemorySessionStore()
		s.logger.Info(ctx, "using in-memory store")
	}
	return nil
}

// startRetentionSweep schedules periodic removal of raw items that were
// never finalized.
func (s *Service) startRetentionSweep(ctx context.Context) {
	s.sweeper = cron.New()
	_, err := s.sweeper.AddFunc(s.retentionSpec, func() {
		cutoff := time.Now().Add(-s.retentionMaxAge)
		n, err := s.items.PurgeOlderThan(ctx, cutoff)
		if err != nil {
			s.logger.Error(ctx, "retention sweep failed", logger.Error(err))
			return
		}
		if n > 0 {
			s.logger.Info(ctx, "retention sweep removed stale items", logger.Int("count", n))
			metrics.UpdateItemsStored(s.items.Count(ctx))
		}
	})
	if err != nil {
		s.logger.Warn(ctx, "invalid retention schedule, sweep disabled",
			logger.String("spec", s.retentionSpec), logger.Error(err))
		return
	}
	s.sweeper.Start()
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping scoring service...")

	if s.sweeper != nil {
		s.sweeper.Stop()
	}
	if s.pool != nil {
		_ = s.pool.Shutdown(ctx)
	}
	if s.sqlite != nil {
		_ = s.sqlite.Close()
	}

	s.started = false
	s.logger.Info(ctx, "scoring service stopped")
}

// Enqueue submits an analysis job for asynchronous processing.
func (s *Service) Enqueue(ctx context.Context, j queue.Job) bool {
	ok := s.jobQueue.Enqueue(ctx, j)
	if ok {
		s.logger.Debug(ctx, "analysis job enqueued",
			logger.String("session_id", j.SessionID),
			logger.Int("idx", j.Idx),
		)
	}
	return ok
}

// AddItem validates and stores one per-question session item.
func (s *Service) AddItem(ctx context.Context, item metric.SessionItem) error {
	return s.controller.AddItem(ctx, item)
}

// FinalizeSession aggregates a session's items into a completed document.
func (s *Service) FinalizeSession(ctx context.Context, req meeting.FinalizeRequest) (metric.CompletedSession, error) {
	return s.controller.FinalizeSession(ctx, req)
}

// LatestBySessionID returns the newest completed document for a session.
func (s *Service) LatestBySessionID(ctx context.Context, sessionID string) (metric.CompletedSession, error) {
	return s.controller.LatestBySessionID(ctx, sessionID)
}

// History returns a user's completed documents, newest first.
func (s *Service) History(ctx context.Context, username string, limit int) ([]metric.CompletedSession, error) {
	return s.controller.History(ctx, username, limit)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":         s.started,
		"store_backend":   s.storeBackend,
		"enabled_metrics": s.enabledMetrics,
	}
	if s.started {
		stats["queue_length"] = s.jobQueue.Len(ctx)
		stats["items_stored"] = s.items.Count(ctx)
		stats["sessions_finished"] = s.sessions.Count(ctx)
	}
	return stats
}
