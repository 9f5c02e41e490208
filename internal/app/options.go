package service

import (
	"github.com/loesoe/cortex/internal/adapters/eventstore"
	"github.com/loesoe/cortex/internal/adapters/patternstore"
	"github.com/loesoe/cortex/internal/domain/dedupe"
	"github.com/loesoe/cortex/internal/domain/feature"
	"github.com/loesoe/cortex/pkg/clock"
	"github.com/loesoe/cortex/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the message queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithWindowMinutes sets the default aggregation window.
func WithWindowMinutes(minutes int) Option {
	return func(s *Service) {
		if minutes > 0 {
			s.windowMinutes = minutes
		}
	}
}

// WithFetchLimit sets the default event fetch limit.
func WithFetchLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.fetchLimit = limit
		}
	}
}

// WithClock overrides the time source. Useful in tests.
func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithEventStore injects a custom event store.
func WithEventStore(store eventstore.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.events = store
		}
	}
}

// WithPatternStore injects a custom pattern store.
func WithPatternStore(store patternstore.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.patterns = store
		}
	}
}

// WithDeduper injects a custom deduper.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *Service) {
		if d != nil {
			s.deduper = d
		}
	}
}

// WithExtractor injects a custom feature extractor.
func WithExtractor(ex *feature.Extractor) Option {
	return func(s *Service) {
		if ex != nil {
			s.extractor = ex
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
