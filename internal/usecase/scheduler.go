package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"BillsMonitor/internal/domain"
	"BillsMonitor/internal/ports"
)

// CycleRunner is the unit of work the scheduler repeats.
type CycleRunner interface {
	RunCycle(ctx context.Context) (domain.CycleReport, error)
}

// Scheduler wires the cron-like driver with the poll cycle.
type Scheduler struct {
	driver ports.Scheduler
	runner CycleRunner
	logger *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring cycles.
func NewScheduler(driver ports.Scheduler, runner CycleRunner, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{driver: driver, runner: runner, logger: log}
}

// Start registers the cycle with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.runner == nil {
		return nil
	}

	job := func(trigger time.Time) {
		s.runGuarded(ctx, trigger)
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}

// runGuarded keeps a failing or panicking cycle from taking the process down.
func (s *Scheduler) runGuarded(ctx context.Context, trigger time.Time) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("cycle panicked", "trigger", trigger, "panic", fmt.Sprint(r))
		}
	}()

	report, err := s.runner.RunCycle(ctx)
	if err != nil {
		s.logger.Error("cycle failed, retrying at the next tick", "cycle_id", report.CycleID, "error", err)
		return
	}
	s.logger.Debug("cycle done", "cycle_id", report.CycleID, "trigger", trigger)
}
