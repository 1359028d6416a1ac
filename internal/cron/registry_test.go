package cron

import (
	"context"
	"testing"
	"time"
)

type stubJob struct {
	name string
}

func (s *stubJob) Name() string              { return s.name }
func (s *stubJob) Run(context.Context) error { return nil }

type hourlyJob struct {
	stubJob
}

func (h *hourlyJob) Every() time.Duration { return time.Hour }

func TestRegistryStoresJobs(t *testing.T) {
	registry := NewRegistry(nil)
	jobA := &stubJob{name: "a"}
	jobB := &stubJob{name: "b"}
	registry.Register(jobA)
	registry.Register(nil)
	registry.Register(jobB)
	jobs := registry.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0] != jobA || jobs[1] != jobB {
		t.Fatalf("jobs returned out of order")
	}
	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatalf("internal slice leaked")
	}
}

func TestCadence(t *testing.T) {
	if got := cadence(&stubJob{name: "tick"}); got != 0 {
		t.Fatalf("expected every-tick job, got %s", got)
	}
	if got := cadence(&hourlyJob{stubJob{name: "hourly"}}); got != time.Hour {
		t.Fatalf("expected hourly cadence, got %s", got)
	}
}
