package eventstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/loesoe/cortex/internal/domain/model"
	"github.com/loesoe/cortex/pkg/clock"
	"github.com/loesoe/cortex/pkg/metrics"
)

// MemStore implements Store with an in-memory slice guarded by a mutex.
type MemStore struct {
	mu     sync.RWMutex
	events []model.Event
	nextID int64
	closed bool

	clock clock.Clock
}

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithClock overrides the time source. Useful in tests.
func WithClock(c clock.Clock) Option {
	return func(s *MemStore) {
		if c != nil {
			s.clock = c
		}
	}
}

// NewMemStore creates an empty in-memory event store.
func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{
		nextID: 1,
		clock:  clock.System{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append validates and stores an event. The store owns the event identity:
// any caller-provided ID or timestamp is overwritten.
func (s *MemStore) Append(ctx context.Context, e model.Event) (int64, error) {
	if err := validate(e); err != nil {
		return 0, err
	}

	e.Tags = model.NormalizeTags(e.Tags)
	if strings.TrimSpace(e.Source) == "" {
		e.Source = model.DefaultEventSource
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	e.ID = s.nextID
	s.nextID++
	e.CreatedAt = s.clock.Now()
	s.events = append(s.events, e)

	metrics.RecordEventAppended()
	metrics.UpdateEventStoreSize(len(s.events))
	return e.ID, nil
}

// Fetch returns events inside the query window that match every filter,
// newest first, capped at the effective limit.
func (s *MemStore) Fetch(ctx context.Context, q Query) ([]model.Event, error) {
	now := s.clock.Now()
	since := now.Add(-q.Window())
	limit := q.EffectiveLimit()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	matched := make([]model.Event, 0, limit)
	for i := range s.events {
		e := s.events[i]
		if e.CreatedAt.Before(since) || e.CreatedAt.After(now) {
			continue
		}
		if q.UserID != "" && e.UserID != q.UserID {
			continue
		}
		if q.SessionID != "" && e.SessionID != q.SessionID {
			continue
		}
		if q.EventType != "" && e.EventType != q.EventType {
			continue
		}
		if q.Tag != "" && !e.HasTag(q.Tag) {
			continue
		}
		matched = append(matched, e)
	}

	// Newest first; ties broken by insertion order.
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// Count returns the total number of stored events.
func (s *MemStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// Close marks the store as closed. Subsequent appends and fetches fail.
func (s *MemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func validate(e model.Event) error {
	if strings.TrimSpace(e.EventType) == "" {
		return fmt.Errorf("%w: missing event_type", ErrInvalidEvent)
	}
	if e.Confidence != nil && (*e.Confidence < 0 || *e.Confidence > 1) {
		return fmt.Errorf("%w: confidence %v outside [0,1]", ErrInvalidEvent, *e.Confidence)
	}
	return nil
}
