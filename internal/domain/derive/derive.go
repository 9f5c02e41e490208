// Package derive applies a fixed, ordered set of deterministic rules over
// a batch of events, each emitting at most one candidate pattern.
//
// Thresholds and confidence formulas are exact contracts: re-deriving over
// the same events must reproduce identical confidence and evidence.
package derive

import (
	"math"
	"time"

	"github.com/loesoe/cortex/internal/domain/model"
	"github.com/loesoe/cortex/pkg/clock"
)

// Rule thresholds and confidence arithmetic.
const (
	explainThreshold  = 4
	explainBase       = 0.55
	explainStep       = 0.08
	explainCeiling    = 0.95
	searchThreshold   = 5
	searchBase        = 0.50
	searchStep        = 0.07
	searchCeiling     = 0.92
	frictionThreshold = 6
	frictionBase      = 0.60
	frictionStep      = 0.05
	frictionCeiling   = 0.90
)

// rule inspects the batch and emits one candidate pattern, or not.
type rule func(events []model.Event, now time.Time) (model.Pattern, bool)

// Deriver runs the rule set over event batches.
type Deriver struct {
	clock clock.Clock
	rules []rule
}

// Option applies a configuration option to the Deriver.
type Option func(*Deriver)

// WithClock sets the clock used for pattern timestamps.
func WithClock(c clock.Clock) Option {
	return func(d *Deriver) {
		if c != nil {
			d.clock = c
		}
	}
}

// New creates a Deriver with the fixed rule set.
func New(opts ...Option) *Deriver {
	d := &Deriver{clock: clock.System{}}

	for _, opt := range opts {
		opt(d)
	}

	d.rules = []rule{
		explainPreference,
		searchHabit,
		highFriction,
	}
	return d
}

// Derive runs every rule in order and collects the emitted patterns.
// Rules never fail: absent or malformed payload fields count as zero
// matches.
func (d *Deriver) Derive(events []model.Event) []model.Pattern {
	now := d.clock.Now().UTC()

	var patterns []model.Pattern
	for _, r := range d.rules {
		if p, ok := r(events, now); ok {
			patterns = append(patterns, p)
		}
	}
	return patterns
}

// explainPreference: repeated ask_explain signals mean the user wants
// detailed answers.
func explainPreference(events []model.Event, now time.Time) (model.Pattern, bool) {
	count := 0
	for i := range events {
		e := &events[i]
		if e.EventType == "ask_explain" || e.HasTag("ask_explain") || e.HasTag("pref:explain") {
			count++
		}
	}
	if count < explainThreshold {
		return model.Pattern{}, false
	}

	conf := math.Min(explainCeiling, explainBase+float64(count-explainThreshold)*explainStep)
	return model.Pattern{
		Subject:    model.SubjectUser,
		Type:       model.PatternPreference,
		Key:        "explain_level",
		Value:      model.Value{"level": "high"},
		Confidence: conf,
		Evidence: model.Value{
			"event_type_or_tag": "ask_explain",
			"count":             count,
			"threshold":         explainThreshold,
		},
		LastSeen: now,
	}, true
}

// searchHabit: frequent search-tool usage, via tag or payload action.
func searchHabit(events []model.Event, now time.Time) (model.Pattern, bool) {
	count := 0
	lastSeen := time.Time{}
	for i := range events {
		e := &events[i]
		if e.HasTag("tool:search") || e.PayloadAction() == "search" {
			count++
			if e.CreatedAt.After(lastSeen) {
				lastSeen = e.CreatedAt
			}
		}
	}
	if count < searchThreshold {
		return model.Pattern{}, false
	}
	if lastSeen.IsZero() {
		lastSeen = now
	}

	conf := math.Min(searchCeiling, searchBase+float64(count-searchThreshold)*searchStep)
	return model.Pattern{
		Subject:    model.SubjectUser,
		Type:       model.PatternHabit,
		Key:        "tool_usage:search",
		Value:      model.Value{"count": count},
		Confidence: conf,
		Evidence: model.Value{
			"signals":   []string{"tool:search", "payload.action=search"},
			"count":     count,
			"threshold": searchThreshold,
		},
		LastSeen: lastSeen,
	}, true
}

// highFriction: a run of corrections and frustration marks the
// interaction as high friction.
func highFriction(events []model.Event, now time.Time) (model.Pattern, bool) {
	count := 0
	for i := range events {
		e := &events[i]
		if e.EventType == "correction" || e.EventType == "frustration" ||
			e.HasTag("correction") || e.HasTag("frustration") || e.HasTag("anomaly:friction") {
			count++
		}
	}
	if count < frictionThreshold {
		return model.Pattern{}, false
	}

	conf := math.Min(frictionCeiling, frictionBase+float64(count-frictionThreshold)*frictionStep)
	return model.Pattern{
		Subject:    model.SubjectUser,
		Type:       model.PatternAnomaly,
		Key:        "interaction:high_friction",
		Value:      model.Value{"count": count},
		Confidence: conf,
		Evidence: model.Value{
			"signals":   []string{"correction", "frustration"},
			"count":     count,
			"threshold": frictionThreshold,
		},
		LastSeen: now,
	}, true
}
