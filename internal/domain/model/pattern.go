package model

import "time"

// Pattern subjects.
const (
	SubjectUser   = "user"
	SubjectSystem = "system"
)

// Pattern types.
const (
	PatternPreference = "preference"
	PatternHabit      = "habit"
	PatternAnomaly    = "anomaly"
)

// Pattern is a derived, confidence-scored behavioral fact. At most one
// live pattern exists per (Subject, Type, Key); re-derivation replaces
// Value, Confidence, Evidence and LastSeen wholesale.
type Pattern struct {
	Subject    string    `json:"subject"`
	Type       string    `json:"pattern_type"`
	Key        string    `json:"key"`
	Value      Value     `json:"value"`
	Confidence float64   `json:"confidence"`
	Evidence   Value     `json:"evidence"`
	LastSeen   time.Time `json:"last_seen"`
}

// TripleKey returns the unique identity of the pattern.
func (p Pattern) TripleKey() string {
	return p.Subject + "/" + p.Type + "/" + p.Key
}
