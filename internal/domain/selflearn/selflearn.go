// Package selflearn keeps the per-user self-learning state: prompt
// counts, learned pattern labels, preferences, mood, and feedback scores
// for suggestions. The summary it produces feeds the composite scorer.
package selflearn

import (
	"math"
	"sync"
)

// Per-user score composition caps.
const (
	promptsDivisor  = 10.0
	promptsCap      = 40.0
	patternWeight   = 2.0
	patternsCap     = 30.0
	prefWeight      = 3.0
	prefsCap        = 30.0
	feedbackDelta   = 0.5
	feedbackMin     = -2.0
	feedbackMax     = 5.0
	feedbackAccept  = "accept"
	stateVersion    = 1
	maxUserScore    = 100.0
	summaryRounding = 10.0
)

// userState is the mutable learning state of one user.
type userState struct {
	totalPrompts int
	patterns     map[string]int
	preferences  []string
	prefSet      map[string]struct{}
	lastMood     string
	suggestions  map[string]float64
}

// Block is the self-learning snapshot for one user, shaped for the
// composite scorer and the status surface.
type Block struct {
	HasData          bool           `json:"has_data"`
	AvgScore         float64        `json:"avg_score"`
	UserScore        *float64       `json:"user_score,omitempty"`
	PreferencesCount int            `json:"preferences_count"`
	LastMood         string         `json:"last_mood,omitempty"`
	Patterns         map[string]int `json:"patterns"`
}

// Summary is the global self-learning rollup.
type Summary struct {
	Version    int                `json:"version"`
	UserScores map[string]float64 `json:"user_scores"`
	AvgScore   float64            `json:"avg_score"`
	HasData    bool               `json:"has_data"`
}

// Tracker holds self-learning state for all users. Safe for concurrent use.
type Tracker struct {
	mu    sync.RWMutex
	users map[string]*userState
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{users: make(map[string]*userState)}
}

func (t *Tracker) user(userID string) *userState {
	u, ok := t.users[userID]
	if !ok {
		u = &userState{
			patterns:    make(map[string]int),
			prefSet:     make(map[string]struct{}),
			suggestions: make(map[string]float64),
		}
		t.users[userID] = u
	}
	return u
}

// RecordPrompt counts one prompt and its dominant intent label.
func (t *Tracker) RecordPrompt(userID, intentLabel string) {
	if userID == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	u := t.user(userID)
	u.totalPrompts++
	if intentLabel != "" {
		u.patterns[intentLabel]++
	}
}

// SetMood records the most recent mood label for the user.
func (t *Tracker) SetMood(userID, mood string) {
	if userID == "" || mood == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.user(userID).lastMood = mood
}

// AddPreference records a learned preference once.
func (t *Tracker) AddPreference(userID, pref string) {
	if userID == "" || pref == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	u := t.user(userID)
	if _, seen := u.prefSet[pref]; seen {
		return
	}
	u.prefSet[pref] = struct{}{}
	u.preferences = append(u.preferences, pref)
}

// RecordFeedback updates a suggestion score: accept adds, anything else
// subtracts, clamped to [-2, 5].
func (t *Tracker) RecordFeedback(userID, suggestionID, action string) {
	if userID == "" || suggestionID == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	u := t.user(userID)
	delta := -feedbackDelta
	if action == feedbackAccept {
		delta = feedbackDelta
	}
	cur := u.suggestions[suggestionID] + delta
	u.suggestions[suggestionID] = math.Max(feedbackMin, math.Min(feedbackMax, cur))
}

// SuggestionScore returns the accumulated feedback score for a suggestion.
func (t *Tracker) SuggestionScore(userID, suggestionID string) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	u, ok := t.users[userID]
	if !ok {
		return 0.0
	}
	return u.suggestions[suggestionID]
}

// scoreUser computes the 0-100 per-user learning score from prompt,
// pattern and preference counts.
func scoreUser(u *userState) float64 {
	patternCount := 0
	for _, n := range u.patterns {
		patternCount += n
	}

	score := 0.0
	score += math.Min(float64(u.totalPrompts)/promptsDivisor, promptsCap)
	score += math.Min(float64(patternCount)*patternWeight, patternsCap)
	score += math.Min(float64(len(u.preferences))*prefWeight, prefsCap)

	return math.Max(0.0, math.Min(score, maxUserScore))
}

// Summarize computes the global rollup across all users.
func (t *Tracker) Summarize() Summary {
	t.mu.RLock()
	defer t.mu.RUnlock()

	scores := make(map[string]float64, len(t.users))
	sum := 0.0
	for uid, u := range t.users {
		s := scoreUser(u)
		scores[uid] = s
		sum += s
	}

	avg := 0.0
	if len(scores) > 0 {
		avg = sum / float64(len(scores))
	}

	return Summary{
		Version:    stateVersion,
		UserScores: scores,
		AvgScore:   math.Round(avg*summaryRounding) / summaryRounding,
		HasData:    len(t.users) > 0,
	}
}

// BlockFor builds the per-user self-learning block for the composite
// scorer and the status surface.
func (t *Tracker) BlockFor(userID string) Block {
	summary := t.Summarize()

	if !summary.HasData {
		return Block{Patterns: map[string]int{}}
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	b := Block{
		HasData:  true,
		AvgScore: summary.AvgScore,
		Patterns: map[string]int{},
	}

	if score, ok := summary.UserScores[userID]; ok {
		s := score
		b.UserScore = &s
	}

	if u, ok := t.users[userID]; ok {
		b.PreferencesCount = len(u.preferences)
		b.LastMood = u.lastMood
		for k, v := range u.patterns {
			b.Patterns[k] = v
		}
	}

	return b
}
