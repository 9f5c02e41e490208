package service

import "errors"

// Sentinel errors for service lifecycle and ingestion.
var (
	ErrAlreadyStarted = errors.New("service already started")
	ErrNotStarted     = errors.New("service not started")
	ErrBackpressure   = errors.New("ingest queue full")
)
