// Package session tracks per-user activity recency: last login/logout,
// last action, modules used, and accumulated dev minutes. The snapshot
// feeds the usage sub-score of the composite scorer.
package session

import (
	"sync"
	"time"

	"github.com/loesoe/cortex/pkg/clock"
)

// Activity is the recency state of one user.
type Activity struct {
	LastLogin   *time.Time `json:"last_login,omitempty"`
	LastLogout  *time.Time `json:"last_logout,omitempty"`
	LastAction  *time.Time `json:"last_action,omitempty"`
	LastModules []string   `json:"last_modules,omitempty"`
	DevMinutes  int        `json:"estimated_dev_minutes"`
}

// Tracker holds activity state for all users. Safe for concurrent use.
type Tracker struct {
	mu    sync.RWMutex
	clock clock.Clock
	users map[string]*Activity
}

// Option applies a configuration option to the Tracker.
type Option func(*Tracker)

// WithClock sets the clock used for activity timestamps.
func WithClock(c clock.Clock) Option {
	return func(t *Tracker) {
		if c != nil {
			t.clock = c
		}
	}
}

// NewTracker creates an empty tracker.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		clock: clock.System{},
		users: make(map[string]*Activity),
	}

	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) user(userID string) *Activity {
	u, ok := t.users[userID]
	if !ok {
		u = &Activity{}
		t.users[userID] = u
	}
	return u
}

// MarkAction updates the user's last activity, optionally recording the
// modules used and adding dev minutes.
func (t *Tracker) MarkAction(userID string, modulesUsed []string, addDevMinutes int) {
	if userID == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	u := t.user(userID)
	now := t.clock.Now().UTC()
	u.LastAction = &now

	if len(modulesUsed) > 0 {
		u.LastModules = append([]string(nil), modulesUsed...)
	}
	if addDevMinutes > 0 {
		u.DevMinutes += addDevMinutes
	}
}

// MarkLogin records a login, which also counts as an action.
func (t *Tracker) MarkLogin(userID string) {
	if userID == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	u := t.user(userID)
	now := t.clock.Now().UTC()
	u.LastLogin = &now
	u.LastAction = &now
}

// MarkLogout records a logout, which also counts as an action.
func (t *Tracker) MarkLogout(userID string) {
	if userID == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	u := t.user(userID)
	now := t.clock.Now().UTC()
	u.LastLogout = &now
	u.LastAction = &now
}

// Snapshot returns a copy of every user's activity state.
func (t *Tracker) Snapshot() map[string]Activity {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]Activity, len(t.users))
	for uid, u := range t.users {
		cp := *u
		if u.LastModules != nil {
			cp.LastModules = append([]string(nil), u.LastModules...)
		}
		out[uid] = cp
	}
	return out
}
