// Package metrics exposes poll cycle counters for Prometheus.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"BillsMonitor/internal/domain"
	"BillsMonitor/internal/ports"
)

const namespace = "billsmonitor"

// Recorder turns cycle reports into Prometheus series.
type Recorder struct {
	registry       *prometheus.Registry
	cycles         *prometheus.CounterVec
	listed         prometheus.Counter
	newBills       prometheus.Counter
	notified       prometheus.Counter
	delivered      prometheus.Counter
	detailFailures prometheus.Counter
	ledgerSize     prometheus.Gauge
	lastSuccess    prometheus.Gauge
}

var _ ports.CycleObserver = (*Recorder)(nil)

// NewRecorder registers all collectors on a private registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Poll cycles by result.",
		}, []string{"result"}),
		listed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bills_listed_total",
			Help:      "Bills seen on the listing page.",
		}),
		newBills: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bills_new_total",
			Help:      "New bills whose card was loaded.",
		}),
		notified: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bills_notified_total",
			Help:      "Bills that matched the keywords and were dispatched.",
		}),
		delivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_delivered_total",
			Help:      "Notifications accepted by the channel.",
		}),
		detailFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detail_failures_total",
			Help:      "Bill cards that could not be loaded.",
		}),
		ledgerSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ledger_size",
			Help:      "Identifiers in the seen ledger after the last cycle.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last completed cycle.",
		}),
	}

	r.registry.MustRegister(
		r.cycles, r.listed, r.newBills, r.notified, r.delivered,
		r.detailFailures, r.ledgerSize, r.lastSuccess,
	)
	return r
}

// ObserveCycle records one finished cycle. A non-nil err means the cycle was aborted.
func (r *Recorder) ObserveCycle(report domain.CycleReport, err error) {
	if r == nil {
		return
	}
	if err != nil {
		r.cycles.WithLabelValues("error").Inc()
		return
	}

	r.cycles.WithLabelValues("ok").Inc()
	r.listed.Add(float64(report.Listed))
	r.newBills.Add(float64(report.New))
	r.notified.Add(float64(report.Notified))
	r.delivered.Add(float64(report.Delivered))
	r.detailFailures.Add(float64(report.Failed))
	r.ledgerSize.Set(float64(report.SeenTotal))
	r.lastSuccess.Set(float64(time.Now().Unix()))
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (r *Recorder) Serve(ctx context.Context, addr string, log *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("metrics endpoint listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
