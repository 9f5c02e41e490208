package patternstore

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

// MemStore implements Store with a map keyed by pattern triple.
type MemStore struct {
	mu      sync.RWMutex
	records map[string]*Record
	nextID  int64

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

// NewMemStore creates an empty in-memory pattern store.
func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{
		records: make(map[string]*Record),
		nextID:  1,
		clock:   clock.System{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upsert stores p, replacing any row with the same triple. The stored row
// keeps its ID and creation timestamp across replacements.
func (s *MemStore) Upsert(ctx context.Context, p model.Pattern) (bool, error) {
	if err := validate(p); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	key := p.TripleKey()

	if existing, ok := s.records[key]; ok {
		existing.Pattern = p
		existing.UpdatedAt = now
		return false, nil
	}

	s.records[key] = &Record{
		Pattern:   p,
		ID:        s.nextID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.nextID++
	metrics.UpdatePatternStoreSize(len(s.records))
	return true, nil
}

// Query filters, orders and paginates the stored patterns. The returned
// total counts matches before pagination.
func (s *MemStore) Query(ctx context.Context, q Query) ([]Record, int, error) {
	if err := validateQuery(q); err != nil {
		return nil, 0, err
	}

	s.mu.RLock()
	matched := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		if q.Subject != "" && r.Subject != q.Subject {
			continue
		}
		if q.Type != "" && r.Type != q.Type {
			continue
		}
		if r.Confidence < q.MinConfidence {
			continue
		}
		matched = append(matched, *r)
	}
	s.mu.RUnlock()

	orderBy := q.OrderBy
	if orderBy == "" {
		orderBy = OrderConfidence
	}
	asc := q.Direction == DirectionAsc

	sort.SliceStable(matched, func(i, j int) bool {
		less := less(matched[i], matched[j], orderBy)
		if asc {
			return less
		}
		return !less && !equal(matched[i], matched[j], orderBy)
	})

	total := len(matched)
	start := q.Offset
	if start > total {
		start = total
	}
	end := start + q.EffectiveLimit()
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// Count returns the total number of stored patterns.
func (s *MemStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func less(a, b Record, orderBy string) bool {
	switch orderBy {
	case OrderLastSeen:
		return a.LastSeen.Before(b.LastSeen)
	case OrderCreatedAt:
		return a.CreatedAt.Before(b.CreatedAt)
	case OrderUpdatedAt:
		return a.UpdatedAt.Before(b.UpdatedAt)
	default:
		return a.Confidence < b.Confidence
	}
}

func equal(a, b Record, orderBy string) bool {
	switch orderBy {
	case OrderLastSeen:
		return a.LastSeen.Equal(b.LastSeen)
	case OrderCreatedAt:
		return a.CreatedAt.Equal(b.CreatedAt)
	case OrderUpdatedAt:
		return a.UpdatedAt.Equal(b.UpdatedAt)
	default:
		return a.Confidence == b.Confidence
	}
}

func validate(p model.Pattern) error {
	switch {
	case strings.TrimSpace(p.Subject) == "":
		return fmt.Errorf("%w: missing subject", ErrInvalidPattern)
	case strings.TrimSpace(p.Type) == "":
		return fmt.Errorf("%w: missing pattern_type", ErrInvalidPattern)
	case strings.TrimSpace(p.Key) == "":
		return fmt.Errorf("%w: missing key", ErrInvalidPattern)
	case p.Confidence < 0 || p.Confidence > 1:
		return fmt.Errorf("%w: confidence %v outside [0,1]", ErrInvalidPattern, p.Confidence)
	}
	return nil
}

func validateQuery(q Query) error {
	switch q.OrderBy {
	case "", OrderConfidence, OrderLastSeen, OrderCreatedAt, OrderUpdatedAt:
	default:
		return fmt.Errorf("%w: order_by %q", ErrInvalidQuery, q.OrderBy)
	}
	switch q.Direction {
	case "", DirectionAsc, DirectionDesc:
	default:
		return fmt.Errorf("%w: direction %q", ErrInvalidQuery, q.Direction)
	}
	if q.Offset < 0 {
		return fmt.Errorf("%w: negative offset", ErrInvalidQuery)
	}
	return nil
}
