package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"BillsMonitor/internal/domain"
	"BillsMonitor/internal/ports"
)

// PipelineDeps wires all driven adapters into the poll cycle.
type PipelineDeps struct {
	Source   ports.BillSource
	Ledger   ports.Ledger
	Matcher  ports.Matcher
	Notifier ports.Notifier
	Observer ports.CycleObserver
	Logger   *slog.Logger

	// RetryFailedDetails leaves bills with an unreachable card out of the ledger.
	RetryFailedDetails bool
	// NewCycleID overrides the cycle id generator (uuid by default).
	NewCycleID func() string
}

// Pipeline implements one poll cycle: list, skip seen, load cards, filter, notify, persist.
type Pipeline struct {
	source      ports.BillSource
	ledger      ports.Ledger
	matcher     ports.Matcher
	notifier    ports.Notifier
	observer    ports.CycleObserver
	logger      *slog.Logger
	retryFailed bool
	newCycleID  func() string
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	newCycleID := deps.NewCycleID
	if newCycleID == nil {
		newCycleID = uuid.NewString
	}

	return &Pipeline{
		source:      deps.Source,
		ledger:      deps.Ledger,
		matcher:     deps.Matcher,
		notifier:    deps.Notifier,
		observer:    deps.Observer,
		logger:      logger,
		retryFailed: deps.RetryFailedDetails,
		newCycleID:  newCycleID,
	}
}

// errMisconfigured is returned when a mandatory collaborator is missing.
var errMisconfigured = errors.New("pipeline requires source, ledger, matcher and notifier")

// RunCycle performs a single pass. A listing failure aborts the cycle before the ledger
// is touched; every other failure is absorbed and reflected in the report.
func (p *Pipeline) RunCycle(ctx context.Context) (domain.CycleReport, error) {
	report := domain.CycleReport{CycleID: p.newCycleID()}
	if p.source == nil || p.ledger == nil || p.matcher == nil || p.notifier == nil {
		return report, errMisconfigured
	}

	log := p.logger.With("cycle_id", report.CycleID)
	log.Info("cycle started")

	seen, err := p.ledger.Load(ctx)
	if err != nil {
		log.Warn("ledger unreadable, starting with an empty one", "error", err)
	}
	if seen == nil || err != nil {
		seen = domain.NewSeenSet()
	}
	log.Info("ledger loaded", "seen", seen.Len())

	bills, err := p.source.ListBills(ctx)
	if err != nil {
		p.observe(report, err)
		return report, fmt.Errorf("list bills: %w", err)
	}
	report.Listed = len(bills)
	log.Info("listing fetched", "bills", len(bills))

	updated := seen.Clone()
	touched := domain.NewSeenSet()
	for _, bill := range bills {
		if seen.Has(bill.ID) || touched.Has(bill.ID) {
			continue
		}
		if ctx.Err() != nil {
			log.Warn("cycle interrupted, remaining bills left for the next run", "error", ctx.Err())
			break
		}
		touched.Add(bill.ID)

		if p.processBill(ctx, log, bill, &report) {
			updated.Add(bill.ID)
		}
	}

	report.SeenTotal = updated.Len()
	// the ledger write must survive a shutdown that cancelled ctx mid-cycle
	if err := p.ledger.Save(context.WithoutCancel(ctx), updated); err != nil {
		log.Error("ledger not saved", "error", err)
	} else {
		report.Persisted = true
	}

	log.Info("cycle finished",
		"new", report.New,
		"failed", report.Failed,
		"notified", report.Notified,
		"delivered", report.Delivered,
		"seen_total", report.SeenTotal)

	p.observe(report, nil)
	return report, nil
}

// processBill handles one unseen bill and reports whether it should be marked seen.
func (p *Pipeline) processBill(ctx context.Context, log *slog.Logger, bill domain.BillSummary, report *domain.CycleReport) bool {
	details, err := p.source.FetchDetails(ctx, bill.ID)
	if err != nil {
		if ctx.Err() != nil {
			log.Warn("bill card interrupted", "bill_id", bill.ID, "error", err)
			return false
		}
		report.Failed++
		if p.retryFailed {
			log.Warn("bill card unavailable, will retry next cycle", "bill_id", bill.ID, "error", err)
			return false
		}
		log.Warn("bill card unavailable, skipping", "bill_id", bill.ID, "error", err)
		return true
	}
	report.New++

	matched := p.matcher.Match(details.Title)
	log.Info("bill processed",
		"bill_id", bill.ID,
		"number", bill.Number,
		"date", details.Date,
		"title", details.Title,
		"url", details.URL,
		"matched", matched)

	if !matched {
		return true
	}

	report.Notified++
	delivery := p.notifier.Notify(ctx, domain.NewNotification(bill, details))
	if delivery.Delivered {
		report.Delivered++
	}
	return true
}

func (p *Pipeline) observe(report domain.CycleReport, err error) {
	if p.observer != nil {
		p.observer.ObserveCycle(report, err)
	}
}
