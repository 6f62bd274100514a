package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jaehyun-dev/concord/pkg/logger"
)

type countingJob struct {
	name     string
	schedule string
	runs     atomic.Int32
	fail     bool
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return j.schedule }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.fail {
		return errors.New("boom")
	}
	return nil
}

func newTestScheduler() *Scheduler {
	s := New(logger.NewNop())
	s.maxRetries = 1
	s.retryDelay = time.Millisecond
	return s
}

func TestScheduler_AddJob(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "a", schedule: "0 0 0 * * *"}

	if err := s.AddJob(job); err != nil {
		t.Fatalf("AddJob() error = %v", err)
	}
	if err := s.AddJob(job); err == nil {
		t.Fatal("duplicate AddJob() should fail")
	}
	if err := s.AddJob(&countingJob{name: "b", schedule: "not a schedule"}); err == nil {
		t.Fatal("invalid schedule should fail")
	}

	jobs := s.Jobs()
	if len(jobs) != 1 || jobs[0] != "a" {
		t.Errorf("Jobs() = %v, want [a]", jobs)
	}
}

func TestScheduler_RunJobRecordsHistory(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "a", schedule: "0 0 0 * * *"}
	if err := s.AddJob(job); err != nil {
		t.Fatal(err)
	}

	if err := s.RunJob("a"); err != nil {
		t.Fatalf("RunJob() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for job.runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	history, err := s.History("a")
	for err == nil && history.Latest() == nil && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
		history, err = s.History("a")
	}
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	latest := history.Latest()
	if latest == nil || !latest.Success {
		t.Fatalf("latest result = %+v, want success", latest)
	}
	if history.SuccessRate() != 1.0 {
		t.Errorf("success rate = %v, want 1.0", history.SuccessRate())
	}
}

func TestScheduler_FailedJobRetriesAndRecords(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "a", schedule: "0 0 0 * * *", fail: true}
	if err := s.AddJob(job); err != nil {
		t.Fatal(err)
	}

	s.runJob(job) // synchronous for the test

	if got := job.runs.Load(); got != 2 {
		t.Errorf("runs = %d, want 2 (initial + 1 retry)", got)
	}

	history, _ := s.History("a")
	latest := history.Latest()
	if latest == nil || latest.Success || latest.Error == "" {
		t.Errorf("latest result = %+v, want recorded failure", latest)
	}
}

func TestScheduler_RunUnknownJob(t *testing.T) {
	s := newTestScheduler()
	if err := s.RunJob("ghost"); err == nil {
		t.Fatal("expected error for unknown job")
	}
	if _, err := s.History("ghost"); err == nil {
		t.Fatal("expected error for unknown job history")
	}
}

func TestJobHistory_Cap(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < 150; i++ {
		h.AddResult(JobResult{JobName: "a", Success: true})
	}
	if len(h.Results) != 100 {
		t.Errorf("history length = %d, want capped at 100", len(h.Results))
	}
}
