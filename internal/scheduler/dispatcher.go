package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/PrathamTagline/d247-be/internal/logger"
)

// Unit is one independent piece of fan-out work, typically "refresh odds
// for event X". Units carry no ordering between each other and are safe to
// retry.
type Unit struct {
	ID   string
	Name string
	Run  func(ctx context.Context) error
}

// NewUnit tags a work function with a fresh id.
func NewUnit(name string, run func(ctx context.Context) error) Unit {
	return Unit{
		ID:   uuid.NewString(),
		Name: name,
		Run:  run,
	}
}

// UnitResult is the outcome of one unit.
type UnitResult struct {
	ID   string
	Name string
	Err  error
}

// Report aggregates a dispatch run. A unit's failure never cancels its
// siblings; failures are collected here instead.
type Report struct {
	Total    int
	Failed   int
	Failures []UnitResult
}

// Dispatcher runs units on a fixed-size worker pool.
type Dispatcher struct {
	workers int
	log     *logrus.Entry
}

// NewDispatcher creates a dispatcher with the given worker count.
func NewDispatcher(workers int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		workers: workers,
		log:     logger.WithComponent("dispatcher"),
	}
}

// Run executes all units and blocks until every one has finished or the
// context is cancelled. Cancellation stops units that haven't started;
// units already running finish on their own.
func (d *Dispatcher) Run(ctx context.Context, units []Unit) Report {
	jobs := make(chan Unit)
	results := make(chan UnitResult, len(units))

	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for unit := range jobs {
				results <- UnitResult{
					ID:   unit.ID,
					Name: unit.Name,
					Err:  d.runOne(ctx, unit),
				}
			}
		}()
	}

feed:
	for _, unit := range units {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- unit:
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	report := Report{}
	for result := range results {
		report.Total++
		if result.Err != nil {
			report.Failed++
			report.Failures = append(report.Failures, result)
			d.log.WithError(result.Err).WithFields(logger.Fields{
				"unit_id": result.ID,
				"unit":    result.Name,
			}).Warn("unit failed")
		}
	}
	return report
}

// runOne isolates a single unit: a panic inside one event's refresh must
// not take down the worker.
func (d *Dispatcher) runOne(ctx context.Context, unit Unit) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unit %s panicked: %v", unit.Name, r)
		}
	}()
	return unit.Run(ctx)
}
