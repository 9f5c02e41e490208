package patternstore

import "errors"

// Sentinel errors for pattern store operations.
var (
	ErrInvalidPattern = errors.New("invalid pattern")
	ErrInvalidQuery   = errors.New("invalid pattern query")
)
