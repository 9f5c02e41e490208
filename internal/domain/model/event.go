package model

import (
	"strings"
	"time"
)

// Maximum number of tags kept on a single event.
const MaxEventTags = 50

// DefaultEventSource tags events that do not declare an origin.
const DefaultEventSource = "api"

// Event is an immutable, append-only interaction signal.
// ID and CreatedAt are assigned by the event store on append.
type Event struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    string    `json:"user_id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	EventType string    `json:"event_type"`
	Source    string    `json:"source"`
	// Confidence is optional; nil means the producer did not score the event.
	Confidence *float64 `json:"confidence,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Payload    Value    `json:"payload,omitempty"`
}

// HasTag reports whether the event carries the given tag.
func (e Event) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// PayloadAction reads the documented payload "action" field, or "".
func (e Event) PayloadAction() string {
	action, _ := e.Payload.String("action")
	return action
}

// NormalizeTags trims entries, drops empty and repeated ones, and caps
// the list at MaxEventTags while preserving first-occurrence order.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) == MaxEventTags {
			break
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Message is a raw user utterance entering the ingest pipeline. Workers
// turn it into a feature-scored Event. ID is the idempotency key.
type Message struct {
	ID        string   `json:"id"`
	UserID    string   `json:"user_id,omitempty"`
	SessionID string   `json:"session_id,omitempty"`
	Text      string   `json:"text"`
	History   []string `json:"history,omitempty"`
}
