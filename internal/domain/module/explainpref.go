package module

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/loesoe/cortex/internal/domain/model"
)

// Level-to-base mapping for the explain preference.
const (
	levelHighBase   = 1.0
	levelMediumBase = 0.6
	levelLowBase    = 0.2
)

// ExplainPreferenceScore turns the (preference, explain_level) pattern
// into a deterministic 0..1 score.
type ExplainPreferenceScore struct{}

func (ExplainPreferenceScore) Name() string    { return "explain_preference_score" }
func (ExplainPreferenceScore) Version() string { return "0.2.1" }

func (m ExplainPreferenceScore) Compute(ctx Context) (Result, error) {
	p, found := findExplainLevel(ctx.Patterns)

	if !found {
		return Result{
			Module:     m.Name(),
			Version:    m.Version(),
			ComputedAt: ctx.Now,
			Kind:       KindScore,
			Status:     StatusWarn,
			Inputs: []InputRef{
				{Source: SourcePatterns, Key: "explain_level", Note: "no matching preference pattern found"},
			},
			Score: scoreOf(0.0),
			Flags: map[string]bool{"has_preference": false},
			Payload: model.Value{
				"level":      nil,
				"confidence": 0.0,
				"base_score": 0.0,
			},
			Explain: Explain{
				Text:  "No explain_level preference found in learning patterns; score stays 0.0.",
				Debug: map[string]any{"searched": map[string]any{"pattern_type": model.PatternPreference, "key": "explain_level"}},
			},
		}, nil
	}

	conf := normalizeConfidence(p.Confidence)
	level := extractLevel(p.Value)
	base := levelToBase(level)
	score := round4(clamp01(base * conf))

	return Result{
		Module:     m.Name(),
		Version:    m.Version(),
		ComputedAt: ctx.Now,
		Kind:       KindScore,
		Status:     StatusOK,
		Inputs: []InputRef{
			{Source: SourcePatterns, Key: "explain_level", Note: "preference pattern used for deterministic score"},
		},
		Score: scoreOf(score),
		Flags: map[string]bool{
			"has_preference": true,
			"pref_high":      level == "high",
			"pref_medium":    level == "medium",
			"pref_low":       level == "low",
		},
		Payload: model.Value{
			"level":          level,
			"raw_value":      p.Value,
			"base_score":     base,
			"confidence":     conf,
			"raw_confidence": p.Confidence,
			"subject":        p.Subject,
			"last_seen":      p.LastSeen,
		},
		Explain: Explain{
			Text: fmt.Sprintf("Explain preference %q with confidence %.2f gives score %.2f (base %.2f x confidence).", level, conf, score, base),
			Debug: map[string]any{
				"pattern": map[string]any{
					"pattern_type": p.Type,
					"key":          p.Key,
					"value":        p.Value,
					"confidence":   p.Confidence,
					"last_seen":    p.LastSeen,
				},
			},
		},
	}, nil
}

func findExplainLevel(patterns []model.Pattern) (model.Pattern, bool) {
	for _, p := range patterns {
		if p.Type == model.PatternPreference && p.Key == "explain_level" {
			return p, true
		}
	}
	return model.Pattern{}, false
}

// normalizeConfidence treats values above 1 as percentages, then clamps.
func normalizeConfidence(c float64) float64 {
	if c > 1.0 {
		c /= 100.0
	}
	return clamp01(c)
}

// extractLevel reads the preference level out of a pattern value. The
// value is normally {"level":"high"}, but stores that round-trip through
// JSON may hand back a bare string wrapped as {"_raw": ...}.
func extractLevel(v model.Value) string {
	if lvl, ok := v.String("level"); ok && strings.TrimSpace(lvl) != "" {
		return strings.ToLower(strings.TrimSpace(lvl))
	}

	raw, ok := v.String("_raw")
	if !ok || strings.TrimSpace(raw) == "" {
		return "unknown"
	}
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "{") && strings.HasSuffix(raw, "}") {
		var obj map[string]any
		if err := json.Unmarshal([]byte(raw), &obj); err == nil {
			if lvl, ok := obj["level"].(string); ok && strings.TrimSpace(lvl) != "" {
				return strings.ToLower(strings.TrimSpace(lvl))
			}
			return "unknown"
		}
	}

	return strings.ToLower(raw)
}

func levelToBase(level string) float64 {
	switch level {
	case "high":
		return levelHighBase
	case "medium":
		return levelMediumBase
	case "low":
		return levelLowBase
	default:
		return 0.0
	}
}

func clamp01(v float64) float64 {
	return math.Max(0.0, math.Min(1.0, v))
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
