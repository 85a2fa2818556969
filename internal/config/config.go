// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) to build a Config with defaults, Load(...) to layer
//   file and environment sources on top.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"runtime"
)

// Store backend names accepted by StoreBackend.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreBackend selects the persistence layer: memory or sqlite.
	StoreBackend string `koanf:"store_backend"`

	// SQLitePath is the database file used when StoreBackend is sqlite.
	SQLitePath string `koanf:"sqlite_path"`

	// QueueSize bounds the in-memory analysis job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of analysis workers.
	WorkerCount int `koanf:"worker_count"`

	// EnabledMetrics lists the analyzers to run, in execution order.
	// speech_style must precede grammar and content_quality: it produces
	// the transcript they consume. Unknown names fail startup.
	EnabledMetrics []string `koanf:"enabled_metrics"`

	// PipelineVersion is stamped into finalized documents.
	PipelineVersion string `koanf:"pipeline_version"`

	// DeleteItemsOnFinalize removes a session's raw items after a
	// successful finalize.
	DeleteItemsOnFinalize bool `koanf:"delete_items_on_finalize"`

	// OverallWeights maps category names to their weight in the session
	// score. Empty means the built-in weight tree.
	OverallWeights map[string]float64 `koanf:"overall_weights"`

	// CategoryWeights maps category names to per-analyzer weights. Empty
	// means the built-in weight tree.
	CategoryWeights map[string]map[string]float64 `koanf:"category_weights"`

	// RetentionSchedule is the cron spec for the raw-item retention sweep.
	RetentionSchedule string `koanf:"retention_schedule"`

	// RetentionMaxAgeHours is how long raw items of unfinalized sessions
	// are kept before the sweep removes them.
	RetentionMaxAgeHours int `koanf:"retention_max_age_hours"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:     "info",
		Addr:         ":8080",
		StoreBackend: StoreMemory,
		SQLitePath:   "podium.db",
		QueueSize:    1024,
		WorkerCount:  runtime.NumCPU(),
		EnabledMetrics: []string{
			"eye_contact",
			"head_pose",
			"tone",
			"speech_style",
			"grammar",
			"facial_expression",
			"content_quality",
		},
		PipelineVersion:       "2.0.0",
		DeleteItemsOnFinalize: false,
		RetentionSchedule:     "@hourly",
		RetentionMaxAgeHours:  168,
	}
}
