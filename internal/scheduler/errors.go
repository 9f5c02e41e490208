package scheduler

import "errors"

// Sentinel errors for scheduler operations.
var (
	ErrInvalidSchedule = errors.New("invalid schedule")
)
