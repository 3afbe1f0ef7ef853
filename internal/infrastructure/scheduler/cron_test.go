package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestCronSchedulerRunsImmediately(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ran := make(chan time.Time, 1)
	s := NewCronScheduler("@every 1h", time.UTC, nil)
	if err := s.Start(ctx, func(trigger time.Time) { ran <- trigger }); err != nil {
		t.Fatalf("Start error: %v", err)
	}

	select {
	case trigger := <-ran:
		if trigger.Location() != time.UTC {
			t.Fatalf("unexpected location: %v", trigger.Location())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("job did not run at start")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
	// second stop is a no-op
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("second Stop error: %v", err)
	}
}

func TestCronSchedulerStopWaitsForRunningJob(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool

	s := NewCronScheduler("@every 1h", nil, nil)
	err := s.Start(context.Background(), func(time.Time) {
		close(started)
		<-release
		finished.Store(true)
	})
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}

	<-started
	go func() {
		time.Sleep(50 * time.Millisecond)
		close(release)
	}()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
	if !finished.Load() {
		t.Fatal("Stop returned before the running job finished")
	}
}

func TestCronSchedulerStopWaitsForScheduledJobAfterCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tickStarted := make(chan struct{})
	release := make(chan struct{})
	var runs atomic.Int32
	var finished atomic.Bool

	s := NewCronScheduler("@every 1s", nil, nil)
	err := s.Start(ctx, func(time.Time) {
		if runs.Add(1) != 2 {
			return
		}
		close(tickStarted)
		<-release
		finished.Store(true)
	})
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}

	select {
	case <-tickStarted:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled job did not start")
	}

	// cancellation halts the schedule before Stop is called
	cancel()
	time.Sleep(50 * time.Millisecond)
	go func() {
		time.Sleep(100 * time.Millisecond)
		close(release)
	}()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
	if !finished.Load() {
		t.Fatal("Stop returned while the scheduled job was still running")
	}
}

func TestCronSchedulerRecoversPanics(t *testing.T) {
	t.Parallel()

	done := make(chan struct{})
	s := NewCronScheduler("@every 1h", nil, nil)
	err := s.Start(context.Background(), func(time.Time) {
		defer close(done)
		panic("boom")
	})
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	<-done

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
}

func TestCronSchedulerRejectsBadSpec(t *testing.T) {
	t.Parallel()

	s := NewCronScheduler("every hour please", nil, nil)
	if err := s.Start(context.Background(), func(time.Time) {}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestCronSchedulerNilJob(t *testing.T) {
	t.Parallel()

	s := NewCronScheduler("@every 1h", nil, nil)
	if err := s.Start(context.Background(), nil); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
}
