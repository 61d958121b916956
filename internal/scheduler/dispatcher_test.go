package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestDispatcherRunsEveryUnit(t *testing.T) {
	var ran int64
	var units []Unit
	for i := 0; i < 20; i++ {
		units = append(units, NewUnit("refresh", func(ctx context.Context) error {
			atomic.AddInt64(&ran, 1)
			return nil
		}))
	}

	report := NewDispatcher(4).Run(context.Background(), units)

	if ran != 20 {
		t.Errorf("ran = %d, want 20", ran)
	}
	if report.Total != 20 || report.Failed != 0 {
		t.Errorf("report = %+v, want 20 total, 0 failed", report)
	}
}

func TestDispatcherIsolatesFailures(t *testing.T) {
	boom := errors.New("upstream 500")
	units := []Unit{
		NewUnit("ok", func(ctx context.Context) error { return nil }),
		NewUnit("fails", func(ctx context.Context) error { return boom }),
		NewUnit("ok", func(ctx context.Context) error { return nil }),
	}

	report := NewDispatcher(2).Run(context.Background(), units)

	if report.Total != 3 || report.Failed != 1 {
		t.Fatalf("report = %+v, want 3 total, 1 failed", report)
	}
	if len(report.Failures) != 1 || !errors.Is(report.Failures[0].Err, boom) {
		t.Errorf("failures = %+v, want the failing unit's error", report.Failures)
	}
	if report.Failures[0].Name != "fails" {
		t.Errorf("failure name = %q, want fails", report.Failures[0].Name)
	}
}

func TestDispatcherRecoversPanics(t *testing.T) {
	units := []Unit{
		NewUnit("panics", func(ctx context.Context) error { panic("bad record") }),
		NewUnit("ok", func(ctx context.Context) error { return nil }),
	}

	report := NewDispatcher(1).Run(context.Background(), units)

	if report.Total != 2 || report.Failed != 1 {
		t.Fatalf("report = %+v, want the panic converted to one failure", report)
	}
}

func TestDispatcherStopsFeedingOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	started := 0

	var units []Unit
	for i := 0; i < 50; i++ {
		units = append(units, NewUnit("refresh", func(ctx context.Context) error {
			mu.Lock()
			started++
			if started == 1 {
				cancel()
			}
			mu.Unlock()
			return nil
		}))
	}

	report := NewDispatcher(1).Run(ctx, units)

	if report.Total >= 50 {
		t.Errorf("total = %d, cancellation must stop unstarted units", report.Total)
	}
	if started == 0 {
		t.Error("no unit ran before cancellation")
	}
}

func TestDispatcherClampsWorkerCount(t *testing.T) {
	units := []Unit{NewUnit("ok", func(ctx context.Context) error { return nil })}

	report := NewDispatcher(0).Run(context.Background(), units)
	if report.Total != 1 {
		t.Errorf("zero-worker dispatcher must clamp to one worker, report = %+v", report)
	}
}
