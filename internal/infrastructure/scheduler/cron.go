package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"BillsMonitor/internal/ports"
)

var specParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// CronScheduler runs a job once at start and then on a cron schedule ("@every 1h" works too).
// Overlapping runs are skipped and panics are recovered.
type CronScheduler struct {
	spec   string
	loc    *time.Location
	logger *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	halted  chan struct{}
	stopped <-chan struct{}
	initial sync.WaitGroup
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler configured via cron expression string.
func NewCronScheduler(spec string, loc *time.Location, log *slog.Logger) *CronScheduler {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &CronScheduler{spec: spec, loc: loc, logger: log}
}

// Start schedules job and fires it immediately. Cancelling ctx stops further runs.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cron != nil || c.stopped != nil {
		return nil
	}

	schedule, err := specParser.Parse(c.spec)
	if err != nil {
		return fmt.Errorf("parse schedule %q: %w", c.spec, err)
	}

	logger := cronLogger{logger: c.logger}
	wrapped := cron.NewChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)).
		Then(cron.FuncJob(func() { job(time.Now().In(c.loc)) }))

	cr := cron.New(cron.WithLocation(c.loc), cron.WithLogger(logger))
	cr.Schedule(schedule, wrapped)
	cr.Start()
	c.cron = cr
	c.halted = make(chan struct{})
	halted := c.halted

	c.initial.Add(1)
	go func() {
		defer c.initial.Done()
		wrapped.Run()
	}()

	go func() {
		select {
		case <-ctx.Done():
			c.halt()
		case <-halted:
		}
	}()

	next := schedule.Next(time.Now().In(c.loc))
	c.logger.Info("scheduler started", "spec", c.spec, "next_run", next.Format(time.RFC3339))
	return nil
}

// Stop halts the schedule and waits for a running job to finish or ctx to expire.
func (c *CronScheduler) Stop(ctx context.Context) error {
	done := c.halt()

	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("wait for running cycle: %w", ctx.Err())
	}

	waited := make(chan struct{})
	go func() {
		c.initial.Wait()
		close(waited)
	}()

	select {
	case <-waited:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for initial cycle: %w", ctx.Err())
	}
}

// halt stops the cron instance once. Every call returns the channel of that first stop,
// which closes when the jobs it was running are done.
func (c *CronScheduler) halt() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped != nil {
		return c.stopped
	}
	if c.cron == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	c.stopped = c.cron.Stop().Done()
	close(c.halted)
	return c.stopped
}

// cronLogger adapts slog to cron.Logger; cron's chatter goes to debug.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
