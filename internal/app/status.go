package service

import (
	"context"

	"github.com/loesoe/cortex/internal/domain/composite"
	"github.com/loesoe/cortex/internal/domain/selflearn"
	"github.com/loesoe/cortex/pkg/metrics"
)

// Subsystem keys reported by Status.
const (
	subsystemEventStore   = "event_store"
	subsystemPatternStore = "pattern_store"
	subsystemIngestQueue  = "ingest_queue"
	subsystemModules      = "module_registry"
	subsystemSelfLearning = "zelflerend_geheugen"
)

// Queue pressure above this utilization flips the subsystem to warn.
const queueWarnUtilization = 0.8

// StatusReport is the full system snapshot returned by the status surface.
type StatusReport struct {
	Subsystems   []composite.SubsystemStatus `json:"subsystems"`
	SelfLearning selflearn.Block             `json:"self_learning"`
	Modules      []string                    `json:"modules"`
	Score        composite.Breakdown         `json:"score"`
}

// Status inspects every subsystem, folds in the self-learning block and
// session recency, and computes the composite readiness score.
func (s *Service) Status(ctx context.Context, userID string) StatusReport {
	subsystems := []composite.SubsystemStatus{
		s.eventStoreStatus(ctx),
		s.patternStoreStatus(ctx),
		s.queueStatus(ctx),
		s.registryStatus(),
		s.learningStatus(),
	}

	block := s.learner.BlockFor(userID)

	input := composite.Input{
		Subsystems:   subsystems,
		SelfLearning: compositeBlock(block),
		Sessions:     s.sessionActivity(),
	}

	breakdown := s.scorer.Score(input)
	metrics.UpdateCompositeScore(breakdown.Total)

	return StatusReport{
		Subsystems:   subsystems,
		SelfLearning: block,
		Modules:      s.registry.Names(),
		Score:        breakdown,
	}
}

func (s *Service) eventStoreStatus(ctx context.Context) composite.SubsystemStatus {
	st := composite.SubsystemStatus{Key: subsystemEventStore, Status: "ok"}
	if s.events.Count(ctx) == 0 {
		st.Status = "warn"
		st.Note = "no events stored"
	}
	return st
}

func (s *Service) patternStoreStatus(ctx context.Context) composite.SubsystemStatus {
	st := composite.SubsystemStatus{Key: subsystemPatternStore, Status: "ok"}
	if s.patterns.Count(ctx) == 0 {
		st.Status = "warn"
		st.Note = "no patterns derived yet"
	}
	return st
}

func (s *Service) queueStatus(ctx context.Context) composite.SubsystemStatus {
	s.mu.RLock()
	started := s.started
	q := s.queue
	s.mu.RUnlock()

	st := composite.SubsystemStatus{Key: subsystemIngestQueue, Status: "ok"}
	if !started || q == nil {
		st.Status = "off"
		st.Note = "pipeline not started"
		return st
	}
	if cap := q.Capacity(); cap > 0 {
		if util := float64(q.Len(ctx)) / float64(cap); util > queueWarnUtilization {
			st.Status = "warn"
			st.Note = "queue under pressure"
		}
	}
	return st
}

func (s *Service) registryStatus() composite.SubsystemStatus {
	st := composite.SubsystemStatus{Key: subsystemModules, Status: "ok"}
	if len(s.registry.Names()) == 0 {
		st.Status = "warn"
		st.Note = "no modules registered"
	}
	return st
}

func (s *Service) learningStatus() composite.SubsystemStatus {
	st := composite.SubsystemStatus{Key: subsystemSelfLearning, Status: "ok"}
	if !s.learner.Summarize().HasData {
		st.Status = "warn"
		st.Note = "no learning data yet"
	}
	return st
}

func compositeBlock(b selflearn.Block) *composite.SelfLearning {
	sl := &composite.SelfLearning{
		HasData:          b.HasData,
		UserScore:        b.UserScore,
		PreferencesCount: b.PreferencesCount,
		LastMood:         b.LastMood,
	}
	if b.HasData {
		avg := b.AvgScore
		sl.AvgScore = &avg
	}
	return sl
}

func (s *Service) sessionActivity() map[string]composite.UserActivity {
	snapshot := s.sessions.Snapshot()
	out := make(map[string]composite.UserActivity, len(snapshot))
	for uid, a := range snapshot {
		out[uid] = composite.UserActivity{
			LastAction: a.LastAction,
			DevMinutes: a.DevMinutes,
		}
	}
	return out
}
