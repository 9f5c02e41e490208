// Package eventstore defines the contract for appending and querying
// behavioral events.
//
// Implementations may be backed by a database. The MVP ships with an
// in-memory store that keeps events ordered by recency.
package eventstore

import (
	"context"
	"time"

	"github.com/loesoe/cortex/internal/domain/model"
)

// Default query configuration constants.
const (
	DefaultWindowMinutes = 1440
	DefaultFetchLimit    = 500
	MaxFetchLimit        = 2000
)

// Query narrows a fetch to a time window and optional attribute filters.
// All filters are combined with AND semantics; zero values mean "no filter".
type Query struct {
	// WindowMinutes bounds the fetch to [now - window, now].
	// Non-positive values fall back to DefaultWindowMinutes.
	WindowMinutes int

	UserID    string
	SessionID string
	EventType string
	Tag       string

	// Limit caps the number of returned events. Non-positive values fall
	// back to DefaultFetchLimit; values above MaxFetchLimit are clamped.
	Limit int
}

// Window returns the effective fetch window as a duration.
func (q Query) Window() time.Duration {
	minutes := q.WindowMinutes
	if minutes <= 0 {
		minutes = DefaultWindowMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// EffectiveLimit returns the clamped fetch limit.
func (q Query) EffectiveLimit() int {
	switch {
	case q.Limit <= 0:
		return DefaultFetchLimit
	case q.Limit > MaxFetchLimit:
		return MaxFetchLimit
	default:
		return q.Limit
	}
}

// Sink accepts new events for durable storage.
type Sink interface {
	// Append validates and stores an event, assigning its ID and
	// creation timestamp. Returns the assigned ID.
	Append(ctx context.Context, e model.Event) (int64, error)
}

// Source exposes read access over stored events.
type Source interface {
	// Fetch returns events matching the query, newest first.
	Fetch(ctx context.Context, q Query) ([]model.Event, error)

	// Count returns the total number of stored events.
	Count(ctx context.Context) int
}

// Store combines write and read access.
type Store interface {
	Sink
	Source
}
