package module

import (
	"fmt"

	"github.com/loesoe/cortex/internal/domain/model"
)

// Volume thresholds, deliberately simple and transparent.
const (
	minExpectedPatterns = 1
	highVolumePatterns  = 100
)

// PatternsVolumeAnomaly flags abnormal pattern counts. Read-only: it uses
// only the pattern snapshot.
type PatternsVolumeAnomaly struct{}

func (PatternsVolumeAnomaly) Name() string    { return "patterns_volume_anomaly" }
func (PatternsVolumeAnomaly) Version() string { return "0.1.0" }

func (m PatternsVolumeAnomaly) Compute(ctx Context) (Result, error) {
	total := len(ctx.Patterns)

	byType := make(map[string]int)
	for _, p := range ctx.Patterns {
		t := p.Type
		if t == "" {
			t = "unknown"
		}
		byType[t]++
	}

	low := total < minExpectedPatterns
	high := total >= highVolumePatterns

	// Indicative only: low -> 0.0, normal -> 0.5, high -> 1.0.
	var score float64
	var status Status
	var msg string
	switch {
	case low:
		score, status = 0.0, StatusWarn
		msg = fmt.Sprintf("Few patterns found (%d). Possibly not much learning data yet.", total)
	case high:
		score, status = 1.0, StatusWarn
		msg = fmt.Sprintf("Many patterns found (%d). Check whether ingest/derive is too aggressive.", total)
	default:
		score, status = 0.5, StatusOK
		msg = fmt.Sprintf("Pattern volume normal (%d).", total)
	}

	return Result{
		Module:     m.Name(),
		Version:    m.Version(),
		ComputedAt: ctx.Now,
		Kind:       KindFlags,
		Status:     status,
		Inputs: []InputRef{
			{Source: SourcePatterns, Note: "count patterns + breakdown by type"},
		},
		Score: scoreOf(score),
		Flags: map[string]bool{
			"low_volume":    low,
			"high_volume":   high,
			"normal_volume": !low && !high,
		},
		Payload: model.Value{
			"total_patterns": total,
			"by_type":        byType,
			"thresholds": model.Value{
				"min_expected": minExpectedPatterns,
				"high_volume":  highVolumePatterns,
			},
		},
		Explain: Explain{
			Text:  msg,
			Debug: map[string]any{"total": total, "by_type": byType},
		},
	}, nil
}
