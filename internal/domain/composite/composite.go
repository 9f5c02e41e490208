// Package composite blends subsystem health, self-learning state, and
// usage recency into one bounded intelligence/health score.
//
// Point split: subsystems max 35, self-learning max 50 (including the
// mood correction), usage max 15. The formulas are exact contracts.
package composite

import (
	"math"
	"strings"
	"time"

	"github.com/loesoe/cortex/pkg/clock"
)

const (
	maxModulePoints = 35.0
	maxSelfPoints   = 50.0
	maxUsagePoints  = 15.0

	coreKeyWeight = 1.3
	warnShare     = 0.5
	moodDelta     = 4.0

	hasDataPoints   = 10.0
	avgScorePoints  = 30.0
	avgScoreScale   = 10.0
	prefPoints      = 10.0
	prefCountCap    = 10
	devMinutesBonus = 2.0
	devMinutesFloor = 60
)

// SubsystemStatus reports the health of one surrounding subsystem.
type SubsystemStatus struct {
	Key    string `json:"key"`
	Status string `json:"status"` // "ok", "warn", "off"
	Note   string `json:"note,omitempty"`
}

// SelfLearning summarizes the self-learning state feeding the heaviest
// sub-score.
type SelfLearning struct {
	HasData          bool     `json:"has_data"`
	AvgScore         *float64 `json:"avg_score,omitempty"` // 0-10 scale
	UserScore        *float64 `json:"user_score,omitempty"`
	PreferencesCount int      `json:"preferences_count"`
	LastMood         string   `json:"last_mood,omitempty"`
}

// UserActivity is one user's recency state.
type UserActivity struct {
	LastAction *time.Time `json:"last_action,omitempty"`
	DevMinutes int        `json:"estimated_dev_minutes"`
}

// Input bundles everything the scorer reads. Missing blocks degrade to a
// zero-valued sub-score instead of failing the computation.
type Input struct {
	Subsystems   []SubsystemStatus       `json:"subsystems"`
	SelfLearning *SelfLearning           `json:"self_learning,omitempty"`
	Sessions     map[string]UserActivity `json:"sessions,omitempty"`
}

// Breakdown is the scored result with per-component contributions.
type Breakdown struct {
	Subsystems   float64 `json:"subsystems"`    // 0-35
	SelfLearning float64 `json:"self_learning"` // 0-50
	Usage        float64 `json:"usage"`         // 0-15
	Total        float64 `json:"total"`         // 0-100, 1 decimal
}

// Scorer computes the composite score.
type Scorer struct {
	clock         clock.Clock
	coreKeys      map[string]struct{}
	positiveMoods []string
	negativeMoods []string
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithClock sets the clock used for usage recency.
func WithClock(c clock.Clock) Option {
	return func(s *Scorer) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithCoreKeys overrides the subsystem keys that carry extra weight.
func WithCoreKeys(keys []string) Option {
	return func(s *Scorer) {
		set := make(map[string]struct{}, len(keys))
		for _, k := range keys {
			set[k] = struct{}{}
		}
		s.coreKeys = set
	}
}

// WithMoodTriggers overrides the mood word lists for the emotion
// correction.
func WithMoodTriggers(positive, negative []string) Option {
	return func(s *Scorer) {
		s.positiveMoods = positive
		s.negativeMoods = negative
	}
}

// New creates a Scorer with the built-in core keys and mood triggers.
func New(opts ...Option) *Scorer {
	s := &Scorer{
		clock: clock.System{},
		coreKeys: map[string]struct{}{
			"auth":                {},
			"database":            {},
			"database_conn":       {},
			"dashboard_api":       {},
			"model_router":        {},
			"chat_api":            {},
			"zelflerend_geheugen": {},
		},
		positiveMoods: []string{
			"rustig", "kalm", "relaxed", "blij", "tevreden",
			"gemotiveerd", "gefocust", "in balans", "chill",
		},
		negativeMoods: []string{
			"stress", "gestrest", "overprikkeld", "boos", "bang",
			"angstig", "onrustig", "moe", "op", "overwhelmed",
		},
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score computes the composite breakdown from the input snapshot.
func (s *Scorer) Score(in Input) Breakdown {
	b := Breakdown{
		Subsystems:   s.scoreSubsystems(in.Subsystems),
		SelfLearning: s.scoreSelfLearning(in.SelfLearning),
		Usage:        s.scoreUsage(in.Sessions),
	}

	total := b.Subsystems + b.SelfLearning + b.Usage
	total = math.Max(0.0, math.Min(total, 100.0))
	b.Total = math.Round(total*10) / 10
	return b
}

// scoreSubsystems awards each subsystem an equal share of 35 points, with
// core subsystems weighted 1.3x and warn counting half.
func (s *Scorer) scoreSubsystems(subsystems []SubsystemStatus) float64 {
	if len(subsystems) == 0 {
		return 0.0
	}

	basePerModule := maxModulePoints / float64(len(subsystems))
	score := 0.0

	for _, m := range subsystems {
		weight := 1.0
		if _, core := s.coreKeys[m.Key]; core {
			weight = coreKeyWeight
		}

		switch strings.ToLower(m.Status) {
		case "ok":
			score += basePerModule * weight
		case "warn":
			score += basePerModule * warnShare * weight
		}
	}

	return math.Min(score, maxModulePoints)
}

// scoreSelfLearning is the heaviest factor: up to 50 points from learning
// state, with a small mood correction.
func (s *Scorer) scoreSelfLearning(sl *SelfLearning) float64 {
	if sl == nil {
		return 0.0
	}

	base := 0.0

	if sl.HasData {
		base += hasDataPoints
	}

	if sl.AvgScore != nil {
		clamped := math.Max(0.0, math.Min(*sl.AvgScore, avgScoreScale))
		base += (clamped / avgScoreScale) * avgScorePoints
	}

	prefs := sl.PreferencesCount
	if prefs < 0 {
		prefs = 0
	}
	if prefs > prefCountCap {
		prefs = prefCountCap
	}
	base += (float64(prefs) / float64(prefCountCap)) * prefPoints

	score := base + s.scoreMood(sl.LastMood)
	return math.Max(0.0, math.Min(score, maxSelfPoints))
}

// scoreMood gives a small bonus/malus based on the last recorded mood.
// Unrecognized moods contribute nothing.
func (s *Scorer) scoreMood(lastMood string) float64 {
	mood := strings.ToLower(strings.TrimSpace(lastMood))
	if mood == "" {
		return 0.0
	}

	for _, t := range s.positiveMoods {
		if strings.Contains(mood, t) {
			return moodDelta
		}
	}
	for _, t := range s.negativeMoods {
		if strings.Contains(mood, t) {
			return -moodDelta
		}
	}
	return 0.0
}

// scoreUsage awards up to 15 points based on the most recent action
// across all users, plus a small bonus for accumulated dev minutes.
func (s *Scorer) scoreUsage(sessions map[string]UserActivity) float64 {
	var last *time.Time
	devMinutes := 0

	for _, u := range sessions {
		if u.LastAction == nil {
			continue
		}
		if last == nil || u.LastAction.After(*last) {
			ts := *u.LastAction
			last = &ts
			devMinutes = u.DevMinutes
		}
	}

	if last == nil {
		return 0.0
	}

	hours := s.clock.Now().Sub(*last).Hours()

	score := 0.0
	switch {
	case hours <= 6:
		score = 13.0
	case hours <= 24:
		score = 10.0
	case hours <= 72:
		score = 7.0
	case hours <= 168:
		score = 4.0
	}

	if devMinutes >= devMinutesFloor {
		score = math.Min(score+devMinutesBonus, maxUsagePoints)
	}

	return math.Min(score, maxUsagePoints)
}
