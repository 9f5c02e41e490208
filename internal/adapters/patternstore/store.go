// Package patternstore defines the contract for persisting derived
// behavioral patterns.
//
// A pattern is identified by its (subject, type, key) triple. Upserting a
// pattern with an existing triple replaces the stored row while keeping its
// identity and creation timestamp.
package patternstore

import (
	"context"
	"time"

	"github.com/loesoe/cortex/internal/domain/model"
)

// Ordering columns accepted by Query.
const (
	OrderConfidence = "confidence"
	OrderLastSeen   = "last_seen"
	OrderCreatedAt  = "created_at"
	OrderUpdatedAt  = "updated_at"
)

// Sort directions accepted by Query.
const (
	DirectionAsc  = "asc"
	DirectionDesc = "desc"
)

// Pagination defaults.
const (
	DefaultQueryLimit = 50
	MaxQueryLimit     = 200
)

// Record is a stored pattern plus its storage identity.
type Record struct {
	model.Pattern

	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Query narrows and orders a pattern listing.
type Query struct {
	// Subject and Type filter on exact match; empty means no filter.
	Subject string
	Type    string

	// MinConfidence drops patterns below the threshold.
	MinConfidence float64

	// OrderBy is one of the Order* constants; empty means OrderConfidence.
	OrderBy string

	// Direction is asc or desc; empty means desc.
	Direction string

	// Limit is clamped to [1, MaxQueryLimit]; non-positive values fall
	// back to DefaultQueryLimit. Offset skips rows after ordering.
	Limit  int
	Offset int
}

// EffectiveLimit returns the clamped page size.
func (q Query) EffectiveLimit() int {
	switch {
	case q.Limit <= 0:
		return DefaultQueryLimit
	case q.Limit > MaxQueryLimit:
		return MaxQueryLimit
	default:
		return q.Limit
	}
}

// Store persists derived patterns.
type Store interface {
	// Upsert stores a pattern, replacing any existing row with the same
	// (subject, type, key) triple. Returns true when a new row was created.
	Upsert(ctx context.Context, p model.Pattern) (bool, error)

	// Query returns the matching page plus the total match count before
	// pagination.
	Query(ctx context.Context, q Query) ([]Record, int, error)

	// Count returns the total number of stored patterns.
	Count(ctx context.Context) int
}
