package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"BillsMonitor/internal/config"
	"BillsMonitor/internal/domain"
	"BillsMonitor/internal/extract"
	"BillsMonitor/internal/filter"
	"BillsMonitor/internal/infrastructure/parser"
	"BillsMonitor/internal/infrastructure/scheduler"
	"BillsMonitor/internal/infrastructure/storage"
	"BillsMonitor/internal/infrastructure/telegram"
	"BillsMonitor/internal/logging"
	"BillsMonitor/internal/metrics"
	"BillsMonitor/internal/usecase"
)

const shutdownTimeout = 30 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	pipeline  *usecase.Pipeline
	scheduler *usecase.Scheduler
	recorder  *metrics.Recorder
	closer    io.Closer
}

// New builds the application. A ledger backend that cannot be opened is fatal.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	rules := extract.DefaultTitleRules()
	if len(cfg.Extract.StartPhrases) > 0 || len(cfg.Extract.StopPhrases) > 0 {
		rules = extract.NewTitleRules(cfg.Extract.StartPhrases, cfg.Extract.StopPhrases)
	}

	source, err := parser.NewRadaSource(cfg.Source, nil, rules, baseLogger.With("component", "source"))
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}

	ledger, closer, err := storage.Open(ctx, cfg.Ledger)
	if err != nil {
		return nil, fmt.Errorf("ledger %s: %w", cfg.Ledger.Driver, err)
	}

	notifierLog := baseLogger.With("component", "telegram")
	if !cfg.Notifications.Telegram.Enabled() {
		notifierLog.Warn("telegram credentials missing, notifications go to stdout only")
	}
	notifier := telegram.NewNotifier(cfg.Notifications.Telegram, os.Stdout, notifierLog)

	recorder := metrics.NewRecorder()

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:             source,
		Ledger:             ledger,
		Matcher:            filter.NewMatcher(cfg.Filter.Keywords),
		Notifier:           notifier,
		Observer:           recorder,
		Logger:             baseLogger.With("component", "pipeline"),
		RetryFailedDetails: cfg.Pipeline.RetryFailedDetails,
	})

	driver := scheduler.NewCronScheduler(
		cfg.Scheduler.CronExpression,
		cfg.Scheduler.Location(),
		baseLogger.With("component", "cron"),
	)

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		pipeline:  pipeline,
		scheduler: usecase.NewScheduler(driver, pipeline, baseLogger.With("component", "scheduler")),
		recorder:  recorder,
		closer:    closer,
	}, nil
}

// Run starts the schedule and blocks until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	metricsErr := make(chan error, 1)
	if addr := a.cfg.Metrics.ListenAddr; addr != "" {
		go func() {
			metricsErr <- a.recorder.Serve(ctx, addr, a.logger.With("component", "metrics"))
		}()
	}

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("monitor started",
		"schedule", a.cfg.Scheduler.CronExpression,
		"timezone", a.cfg.Scheduler.Location().String(),
		"ledger", a.cfg.Ledger.Driver)

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-metricsErr:
		if err != nil {
			runErr = fmt.Errorf("metrics endpoint: %w", err)
		}
	}

	a.logger.Info("shutting down")
	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()
	if err := a.scheduler.Stop(stopCtx); err != nil {
		a.logger.Warn("scheduler did not stop cleanly", "error", err)
	}

	return runErr
}

// RunOnce executes a single cycle and returns its report.
func (a *Application) RunOnce(ctx context.Context) (domain.CycleReport, error) {
	return a.pipeline.RunCycle(ctx)
}

// Close releases the ledger backend.
func (a *Application) Close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	if err != nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("close ledger: %w", err)
	}
	return nil
}
