// Package scheduler runs periodic background jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/loesoe/cortex/pkg/logger"
)

// Job is a named unit of periodic work.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

// Scheduler wraps a cron runner with logging and graceful shutdown.
type Scheduler struct {
	cron *cron.Cron
	jobs []Job

	logger logger.Logger
}

// Option applies a configuration option to the Scheduler.
type Option func(*Scheduler)

// WithLogger sets a custom logger for the scheduler.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a scheduler for the given jobs. Jobs with an empty spec are
// skipped.
func New(jobs []Job, opts ...Option) *Scheduler {
	s := &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		jobs:   jobs,
		logger: logger.Get().Named("scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start registers all jobs and starts the cron loop. The provided context
// is passed to every job invocation.
func (s *Scheduler) Start(ctx context.Context) error {
	for _, job := range s.jobs {
		if job.Spec == "" {
			continue
		}
		job := job
		_, err := s.cron.AddFunc(job.Spec, func() {
			if err := job.Run(ctx); err != nil {
				s.logger.Error(ctx, "scheduled job failed",
					logger.String("job", job.Name),
					logger.Error(err))
				return
			}
			s.logger.Debug(ctx, "scheduled job finished", logger.String("job", job.Name))
		})
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidSchedule, job.Name, err)
		}
		s.logger.Info(ctx, "job scheduled",
			logger.String("job", job.Name),
			logger.String("spec", job.Spec))
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
