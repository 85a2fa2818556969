// Package worker runs the analysis pipeline over queued jobs.
package worker

import (
	"github.com/podiumhq/podium/pkg/logger"
)

// Option applies a configuration option to the AnalysisWorker.
type Option func(*AnalysisWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *AnalysisWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *AnalysisWorker) {
		if l != nil {
			w.logger = l
		}
	}
}
