package scheduler_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/loesoe/cortex/internal/scheduler"
)

func TestStartRunsJobs(t *testing.T) {
	var runs atomic.Int64
	s := scheduler.New([]scheduler.Job{{
		Name: "tick",
		Spec: "@every 10ms",
		Run: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	}})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if runs.Load() == 0 {
		t.Fatal("job never ran")
	}
}

func TestStartInvalidSpec(t *testing.T) {
	s := scheduler.New([]scheduler.Job{{
		Name: "broken",
		Spec: "not a cron spec",
		Run:  func(ctx context.Context) error { return nil },
	}})

	err := s.Start(context.Background())
	if !errors.Is(err, scheduler.ErrInvalidSchedule) {
		t.Fatalf("Start() = %v, want ErrInvalidSchedule", err)
	}
}

func TestEmptySpecSkipped(t *testing.T) {
	ran := false
	s := scheduler.New([]scheduler.Job{{
		Name: "disabled",
		Spec: "",
		Run: func(ctx context.Context) error {
			ran = true
			return nil
		},
	}})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	s.Stop()

	if ran {
		t.Fatal("disabled job ran")
	}
}
