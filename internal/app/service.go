// Package service provides the core learning service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/loesoe/cortex/internal/adapters/eventstore"
	msgqueue "github.com/loesoe/cortex/internal/adapters/mq/queue"
	workerpool "github.com/loesoe/cortex/internal/adapters/mq/worker"
	"github.com/loesoe/cortex/internal/adapters/patternstore"
	"github.com/loesoe/cortex/internal/domain/aggregate"
	"github.com/loesoe/cortex/internal/domain/composite"
	"github.com/loesoe/cortex/internal/domain/dedupe"
	"github.com/loesoe/cortex/internal/domain/derive"
	"github.com/loesoe/cortex/internal/domain/feature"
	"github.com/loesoe/cortex/internal/domain/model"
	"github.com/loesoe/cortex/internal/domain/module"
	"github.com/loesoe/cortex/internal/domain/selflearn"
	"github.com/loesoe/cortex/internal/domain/session"
	"github.com/loesoe/cortex/pkg/clock"
	"github.com/loesoe/cortex/pkg/logger"
	"github.com/loesoe/cortex/pkg/metrics"
)

// Service wires stores, trackers, the extraction pipeline and the scoring
// modules into one behavioral learning core.
type Service struct {
	mu sync.RWMutex

	// Core components
	events    eventstore.Store
	patterns  patternstore.Store
	deduper   dedupe.Deduper
	queue     msgqueue.Queue
	pool      *workerpool.Pool
	extractor *feature.Extractor
	deriver   *derive.Deriver
	registry  *module.Registry
	learner   *selflearn.Tracker
	sessions  *session.Tracker
	scorer    *composite.Scorer

	// Configuration
	workerCount   int
	queueSize     int
	dedupeSize    int
	windowMinutes int
	fetchLimit    int

	clock clock.Clock

	// State
	started bool

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   runtime.NumCPU() * 2,
		queueSize:     10_000,
		dedupeSize:    50_000,
		windowMinutes: eventstore.DefaultWindowMinutes,
		fetchLimit:    eventstore.DefaultFetchLimit,
		clock:         clock.System{},
		logger:        logger.Get().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.events == nil {
		s.events = eventstore.NewMemStore(eventstore.WithClock(s.clock))
	}
	if s.patterns == nil {
		s.patterns = patternstore.NewMemStore(patternstore.WithClock(s.clock))
	}
	if s.deduper == nil {
		s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	}
	if s.extractor == nil {
		s.extractor = feature.New(feature.WithClock(s.clock))
	}
	if s.deriver == nil {
		s.deriver = derive.New(derive.WithClock(s.clock))
	}
	if s.registry == nil {
		s.registry = module.NewRegistry(module.DefaultFactories(), module.WithLogger(s.logger.Named("modules")))
	}
	if s.learner == nil {
		s.learner = selflearn.NewTracker()
	}
	if s.sessions == nil {
		s.sessions = session.NewTracker(session.WithClock(s.clock))
	}
	if s.scorer == nil {
		s.scorer = composite.New(composite.WithClock(s.clock))
	}
	return s
}

// Start spins up the ingest queue and the worker pool. Safe to call once.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}

	s.queue = msgqueue.NewInMemoryQueue(msgqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(
		s.workerCount,
		s.queue,
		s.extractor,
		s.events,
		workerpool.WithLearner(s.learner),
	)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queue_size", s.queueSize))
	return nil
}

// Stop closes the queue so workers drain the backlog, then shuts the pool
// down.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return ErrNotStarted
	}

	if err := s.queue.Close(); err != nil {
		return fmt.Errorf("close queue: %w", err)
	}
	if err := s.pool.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown workers: %w", err)
	}

	s.started = false
	s.logger.Info(ctx, "service stopped")
	return nil
}

// IngestMessage queues a chat message for asynchronous feature extraction.
// A message without an ID gets one assigned. The returned flag reports
// whether the message was a duplicate.
func (s *Service) IngestMessage(ctx context.Context, m model.Message) (model.Message, bool, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return m, false, ErrNotStarted
	}

	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	if s.deduper.SeenAndRecord(ctx, m.ID) {
		metrics.RecordMessageDuplicate()
		return m, true, nil
	}

	if ok := s.queue.Enqueue(ctx, m); !ok {
		s.deduper.Unrecord(ctx, m.ID)
		return m, false, ErrBackpressure
	}

	s.sessions.MarkAction(m.UserID, []string{"chat"}, 0)
	return m, false, nil
}

// ScoreMessage extracts a feature vector synchronously without touching
// any state.
func (s *Service) ScoreMessage(ctx context.Context, text string, history []string) model.FeatureVector {
	return s.extractor.Extract(text, history)
}

// AppendEvent validates and stores a raw behavioral event. Login and
// logout events additionally update the session tracker.
func (s *Service) AppendEvent(ctx context.Context, e model.Event) (int64, error) {
	id, err := s.events.Append(ctx, e)
	if err != nil {
		return 0, err
	}
	if e.UserID != "" {
		switch e.EventType {
		case "login":
			s.MarkLogin(e.UserID)
		case "logout":
			s.MarkLogout(e.UserID)
		default:
			s.sessions.MarkAction(e.UserID, []string{e.EventType}, 0)
		}
	}
	return id, nil
}

// Events fetches raw events matching the query, newest first.
func (s *Service) Events(ctx context.Context, q eventstore.Query) ([]model.Event, error) {
	return s.events.Fetch(ctx, s.withDefaults(q))
}

// Summary aggregates the events in the query window into counts per type
// and tag.
func (s *Service) Summary(ctx context.Context, q eventstore.Query) (aggregate.Summary, error) {
	events, err := s.events.Fetch(ctx, s.withDefaults(q))
	if err != nil {
		return aggregate.Summary{}, err
	}
	return aggregate.Summarize(events), nil
}

// DeriveReport describes one derivation run.
type DeriveReport struct {
	EventsConsidered int             `json:"events_considered"`
	Created          int             `json:"created"`
	Updated          int             `json:"updated"`
	Patterns         []model.Pattern `json:"patterns"`
}

// Derive runs the rule set over the query window and upserts the derived
// patterns.
func (s *Service) Derive(ctx context.Context, q eventstore.Query) (DeriveReport, error) {
	start := time.Now()

	events, err := s.events.Fetch(ctx, s.withDefaults(q))
	if err != nil {
		return DeriveReport{}, err
	}

	derived := s.deriver.Derive(events)

	report := DeriveReport{
		EventsConsidered: len(events),
		Patterns:         derived,
	}
	for _, p := range derived {
		created, err := s.patterns.Upsert(ctx, p)
		if err != nil {
			return report, fmt.Errorf("upsert pattern %s: %w", p.TripleKey(), err)
		}
		if created {
			report.Created++
		} else {
			report.Updated++
		}
	}

	metrics.RecordDeriveRun(float64(time.Since(start).Milliseconds()))
	metrics.RecordPatternsDerived(len(derived))
	metrics.RecordPatternsUpserted(report.Created + report.Updated)

	s.logger.Info(ctx, "derivation run finished",
		logger.Int("events", report.EventsConsidered),
		logger.Int("derived", len(derived)),
		logger.Int("created", report.Created),
		logger.Int("updated", report.Updated))
	return report, nil
}

// Patterns lists stored patterns with filtering, ordering and pagination.
func (s *Service) Patterns(ctx context.Context, q patternstore.Query) ([]patternstore.Record, int, error) {
	return s.patterns.Query(ctx, q)
}

// RunModules invokes every registered scoring module against the current
// pattern snapshot.
func (s *Service) RunModules(ctx context.Context, userID string) ([]module.Result, error) {
	records, _, err := s.patterns.Query(ctx, patternstore.Query{Limit: patternstore.MaxQueryLimit})
	if err != nil {
		return nil, err
	}

	snapshot := make([]model.Pattern, 0, len(records))
	for _, r := range records {
		snapshot = append(snapshot, r.Pattern)
	}

	mctx := module.Context{
		UserID:   userID,
		Now:      s.clock.Now(),
		Patterns: snapshot,
	}
	return s.registry.InvokeAll(mctx), nil
}

// Feedback applies a suggestion feedback action for a user and returns the
// adjusted suggestion score.
func (s *Service) Feedback(ctx context.Context, userID, suggestionID, action string) float64 {
	s.learner.RecordFeedback(userID, suggestionID, action)
	return s.learner.SuggestionScore(userID, suggestionID)
}

// AddPreference records an explicit user preference.
func (s *Service) AddPreference(ctx context.Context, userID, preference string) {
	s.learner.AddPreference(userID, preference)
}

// MarkLogin records a user login.
func (s *Service) MarkLogin(userID string) { s.sessions.MarkLogin(userID) }

// MarkLogout records a user logout.
func (s *Service) MarkLogout(userID string) { s.sessions.MarkLogout(userID) }

func (s *Service) withDefaults(q eventstore.Query) eventstore.Query {
	if q.WindowMinutes <= 0 {
		q.WindowMinutes = s.windowMinutes
	}
	if q.Limit <= 0 {
		q.Limit = s.fetchLimit
	}
	return q
}
