// Package meeting coordinates the write side of the pipeline: per-question
// item ingestion and session finalization into a completed document.
package meeting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/podiumhq/podium/internal/adapters/repository"
	"github.com/podiumhq/podium/internal/domain/aggregate"
	"github.com/podiumhq/podium/internal/domain/metric"
	"github.com/podiumhq/podium/pkg/logger"
	"github.com/podiumhq/podium/pkg/metrics"
)

// DefaultPipelineVersion is stamped into completed session metadata unless
// overridden by configuration.
const DefaultPipelineVersion = "2.0.0"

// Controller validates and stores session items and turns a session's items
// into a single immutable completed document.
type Controller struct {
	items           repository.ItemStore
	sessions        repository.SessionStore
	engine          *aggregate.Engine
	weights         metric.Weights
	pipelineVersion string
	deleteItems     bool
	log             logger.Logger
}

// Option configures the controller.
type Option func(*Controller)

// WithWeights replaces the default weight tree.
func WithWeights(w metric.Weights) Option {
	return func(c *Controller) { c.weights = w }
}

// WithEngine replaces the default aggregation engine.
func WithEngine(e *aggregate.Engine) Option {
	return func(c *Controller) { c.engine = e }
}

// WithPipelineVersion sets the version stamped into completed documents.
func WithPipelineVersion(v string) Option {
	return func(c *Controller) { c.pipelineVersion = v }
}

// WithDeleteItemsOnFinalize enables removal of a session's raw items after a
// successful finalize. Off by default so sessions can be re-finalized.
func WithDeleteItemsOnFinalize(on bool) Option {
	return func(c *Controller) { c.deleteItems = on }
}

// WithControllerLogger sets the logger.
func WithControllerLogger(l logger.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// NewController creates a controller over the given stores.
func NewController(items repository.ItemStore, sessions repository.SessionStore, opts ...Option) *Controller {
	c := &Controller{
		items:           items,
		sessions:        sessions,
		engine:          aggregate.New(),
		weights:         aggregate.DefaultWeights(),
		pipelineVersion: DefaultPipelineVersion,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Named("meeting")
	}
	return c
}

// AddItem validates and upserts one per-question item. Re-submitting the same
// (session_id, idx) overwrites the previous record.
func (c *Controller) AddItem(ctx context.Context, item metric.SessionItem) error {
	if item.Timestamp.IsZero() {
		item.Timestamp = time.Now().UTC()
	}
	if err := item.Validate(); err != nil {
		metrics.RecordIngestError()
		return err
	}
	if err := c.items.Upsert(ctx, item); err != nil {
		metrics.RecordIngestError()
		return fmt.Errorf("store session item: %w", err)
	}
	metrics.RecordItemIngested()
	metrics.UpdateItemsStored(c.items.Count(ctx))
	c.log.Debug(ctx, "session item stored",
		logger.String("session_id", item.SessionID),
		logger.Int("idx", item.Idx))
	return nil
}

// FinalizeRequest carries the session-level fields of a finalize call.
type FinalizeRequest struct {
	SessionID  string
	Username   string
	ScenarioID string
	VideoURL   string
	Timestamp  time.Time

	// PipelineVersion overrides the controller's configured version for this
	// document only. Empty means the configured one.
	PipelineVersion string

	// IfAbsent makes finalize return the newest existing document for the
	// session instead of producing another one.
	IfAbsent bool
}

// FinalizeSession aggregates all stored items of a session into a completed
// document and persists it. Finalize is not idempotent: calling it again for
// the same session produces a new document, unless IfAbsent is set.
func (c *Controller) FinalizeSession(ctx context.Context, req FinalizeRequest) (metric.CompletedSession, error) {
	start := time.Now()

	if req.SessionID == "" {
		metrics.RecordFinalizeError()
		return metric.CompletedSession{}, fmt.Errorf("%w: missing session_id", metric.ErrValidation)
	}

	if req.IfAbsent {
		doc, err := c.sessions.GetBySessionID(ctx, req.SessionID)
		switch {
		case err == nil:
			c.log.Debug(ctx, "finalize skipped, document exists",
				logger.String("session_id", req.SessionID),
				logger.String("id", doc.ID))
			return doc, nil
		case !errors.Is(err, repository.ErrNotFound):
			metrics.RecordFinalizeError()
			return metric.CompletedSession{}, fmt.Errorf("lookup completed session: %w", err)
		}
	}

	items, err := c.items.ListBySession(ctx, req.SessionID)
	if err != nil {
		metrics.RecordFinalizeError()
		return metric.CompletedSession{}, fmt.Errorf("list session items: %w", err)
	}
	if len(items) == 0 {
		metrics.RecordFinalizeError()
		return metric.CompletedSession{}, fmt.Errorf("%w: %s", ErrEmptySession, req.SessionID)
	}

	finals := c.engine.AnalyzerFinals(items)
	categories := c.engine.Categories(finals, c.weights)
	overall := c.engine.Overall(categories, c.weights)

	ts := req.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	pipelineVersion := c.pipelineVersion
	if req.PipelineVersion != "" {
		pipelineVersion = req.PipelineVersion
	}

	doc := metric.CompletedSession{
		Username:    req.Username,
		ScenarioID:  req.ScenarioID,
		SessionID:   req.SessionID,
		Timestamp:   ts,
		VideoURL:    req.VideoURL,
		Overall:     metric.OverallScore{Score: overall, Confidence: c.engine.OverallConfidence()},
		Categories:  categories,
		Analyzers:   finals,
		SummaryText: c.engine.Summary(finals),
		Meta: metric.Meta{
			SchemaVersion:   metric.SchemaVersion,
			PipelineVersion: pipelineVersion,
			Weights:         c.weights,
			NumItems:        len(items),
		},
	}
	if err := doc.Validate(); err != nil {
		metrics.RecordFinalizeError()
		return metric.CompletedSession{}, err
	}

	id, err := c.sessions.Insert(ctx, doc)
	if err != nil {
		metrics.RecordFinalizeError()
		return metric.CompletedSession{}, fmt.Errorf("store completed session: %w", err)
	}
	doc.ID = id

	if c.deleteItems {
		if n, err := c.items.DeleteSession(ctx, req.SessionID); err != nil {
			// Finalize already succeeded; leftover items are only garbage.
			c.log.Warn(ctx, "failed to delete session items",
				logger.String("session_id", req.SessionID),
				logger.Error(err))
		} else {
			c.log.Debug(ctx, "session items deleted",
				logger.String("session_id", req.SessionID),
				logger.Int("count", n))
		}
	}

	metrics.RecordFinalization()
	metrics.RecordFinalizeLatency(float64(time.Since(start).Milliseconds()))
	metrics.UpdateSessionsFinished(c.sessions.Count(ctx))
	metrics.UpdateItemsStored(c.items.Count(ctx))

	c.log.Info(ctx, "session finalized",
		logger.String("session_id", req.SessionID),
		logger.String("id", id),
		logger.Int("num_items", len(items)),
		logger.Float64("overall", doc.Overall.Score))
	return doc, nil
}

// Session returns a completed document by its store id.
func (c *Controller) Session(ctx context.Context, id string) (metric.CompletedSession, error) {
	return c.sessions.Get(ctx, id)
}

// LatestBySessionID returns the newest completed document for a logical
// session id.
func (c *Controller) LatestBySessionID(ctx context.Context, sessionID string) (metric.CompletedSession, error) {
	return c.sessions.GetBySessionID(ctx, sessionID)
}

// History returns a user's newest completed documents, newest first.
func (c *Controller) History(ctx context.Context, username string, limit int) ([]metric.CompletedSession, error) {
	return c.sessions.ListByUser(ctx, username, limit)
}
