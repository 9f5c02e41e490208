// Package worker defines worker contracts for asynchronous message
// feature extraction and event appending.
package worker

import (
	"github.com/loesoe/cortex/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
			w.logger = w.logger.Named(name)
		}
	}
}

// WithLearner wires per-user learning updates into message processing.
func WithLearner(l Learner) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.learner = l
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}
