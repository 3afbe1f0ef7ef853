package ports

import (
	"context"
	"time"

	"BillsMonitor/internal/domain"
)

// BillSource pulls the bill listing and individual detail pages from the register.
type BillSource interface {
	ListBills(ctx context.Context) ([]domain.BillSummary, error)
	FetchDetails(ctx context.Context, id string) (domain.BillDetails, error)
}

// Ledger persists identifiers of processed bills between runs.
type Ledger interface {
	Load(ctx context.Context) (domain.SeenSet, error)
	Save(ctx context.Context, seen domain.SeenSet) error
}

// Matcher decides whether a bill title is relevant.
type Matcher interface {
	Match(title string) bool
}

// Notifier delivers a message to the channel. Failures are reported, never raised.
type Notifier interface {
	Notify(ctx context.Context, msg domain.Notification) domain.Delivery
}

// CycleObserver receives the counters of every finished cycle (metrics, etc.).
type CycleObserver interface {
	ObserveCycle(report domain.CycleReport, err error)
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
