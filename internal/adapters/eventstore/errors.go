package eventstore

import "errors"

// Sentinel errors for event store operations.
var (
	ErrInvalidEvent = errors.New("invalid event")
	ErrStoreClosed  = errors.New("event store closed")
)
