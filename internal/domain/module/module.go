// Package module defines the contract for pure, explainable scoring
// modules and the registry that holds them.
//
// A compliant module is side-effect free: no store writes, no network
// calls, no shared mutable state. It reads only the snapshot handed to
// Compute and must always populate the explain text.
package module

import (
	"time"

	"github.com/loesoe/cortex/internal/domain/model"
)

// Status of a module result.
type Status string

const (
	StatusOK    Status = "ok"
	StatusWarn  Status = "warn"
	StatusError Status = "error"
)

// Kind of a module result.
type Kind string

const (
	KindScore      Kind = "score"
	KindFlags      Kind = "flags"
	KindSuggestion Kind = "suggestion"
	KindSummary    Kind = "summary"
)

// InputRef source kinds.
const (
	SourcePatterns = "learning_patterns"
	SourceEvents   = "learning_events"
	SourceMemory   = "memory"
	SourceCustom   = "custom"
)

// InputRef is an audit reference to data a module consumed.
type InputRef struct {
	Source string `json:"source"`
	ID     string `json:"id,omitempty"`
	Key    string `json:"key,omitempty"`
	Note   string `json:"note,omitempty"`
}

// Explain carries the mandatory human-readable rationale plus optional
// technical details.
type Explain struct {
	Text  string         `json:"text"`
	Debug map[string]any `json:"debug,omitempty"`
}

// Result is the standard output of one module compute. Data only.
type Result struct {
	Module     string          `json:"module"`
	Version    string          `json:"version"`
	ComputedAt time.Time       `json:"computed_at"`
	Kind       Kind            `json:"kind"`
	Status     Status          `json:"status"`
	Inputs     []InputRef      `json:"inputs"`
	Score      *float64        `json:"score,omitempty"`
	Flags      map[string]bool `json:"flags,omitempty"`
	Suggestion string          `json:"suggestion,omitempty"`
	Payload    model.Value     `json:"payload,omitempty"`
	Explain    Explain         `json:"explain"`
}

// Context is the read-only snapshot handed to Compute. No clients, no
// handles with side effects.
type Context struct {
	UserID   string
	Now      time.Time
	Patterns []model.Pattern
	Meta     map[string]any
}

// Module is the single capability a scoring module implements.
type Module interface {
	Name() string
	Version() string

	// Compute is pure: input snapshot in, result out.
	Compute(ctx Context) (Result, error)
}

// Factory builds a module instance; a failing factory is skipped during
// registry construction.
type Factory func() (Module, error)

func scoreOf(v float64) *float64 { return &v }
