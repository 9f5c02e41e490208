// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers YAML file and environment variables over the defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory message queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of feature extraction workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the message deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// WindowMinutes is the default event aggregation window.
	WindowMinutes int `koanf:"window_minutes"`

	// FetchLimit is the default number of events considered per query.
	FetchLimit int `koanf:"fetch_limit"`

	// DeriveSchedule is the cron spec for periodic pattern derivation.
	// Empty disables the scheduler.
	DeriveSchedule string `koanf:"derive_schedule"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		Addr:           ":9090",
		QueueSize:      10_000,
		WorkerCount:    runtime.NumCPU() * 2,
		DedupeSize:     50_000,
		WindowMinutes:  1440,
		FetchLimit:     500,
		DeriveSchedule: "@every 15m",
	}
}
