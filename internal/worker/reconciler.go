package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/DanielPopoola/eventpay/internal/application"
	"github.com/DanielPopoola/eventpay/internal/application/reconciliation"
	"github.com/DanielPopoola/eventpay/internal/domain"
)

type ReconciliationService interface {
	Gateways() []domain.Gateway
	Reconcile(ctx context.Context, gw domain.Gateway, from, to time.Time) (*reconciliation.Report, error)
}

// Reconciler periodically compares the trailing window of transactions with every
// gateway that can list them, and logs what disagrees.
type Reconciler struct {
	service  ReconciliationService
	clock    application.Clock
	interval time.Duration
	window   time.Duration
	logger   *slog.Logger
}

func NewReconciler(
	service ReconciliationService,
	clock application.Clock,
	interval time.Duration,
	window time.Duration,
	logger *slog.Logger,
) *Reconciler {
	return &Reconciler{
		service:  service,
		clock:    clock,
		interval: interval,
		window:   window,
		logger:   logger,
	}
}

// Start blocks until ctx is done.
func (r *Reconciler) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("starting background reconciler", "interval", r.interval, "window", r.window)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("stopping background reconciler")
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce executes a single reconciliation cycle and returns the reports it produced.
func (r *Reconciler) RunOnce(ctx context.Context) []*reconciliation.Report {
	to := r.clock.Now()
	from := to.Add(-r.window)

	var reports []*reconciliation.Report
	for _, gw := range r.service.Gateways() {
		report, err := r.service.Reconcile(ctx, gw, from, to)
		if err != nil {
			r.logger.Error("reconciliation failed", "gateway", gw, "error", err)
			continue
		}
		reports = append(reports, report)

		for _, d := range report.Discrepancies {
			attrs := []any{
				"gateway", gw,
				"kind", d.Kind,
				"severity", d.Severity,
				"transaction_id", d.TransactionID,
				"gateway_transaction_id", d.GatewayTransactionID,
				"local_status", d.LocalStatus,
				"provider_status", d.ProviderStatus,
			}
			switch d.Severity {
			case reconciliation.SeverityCritical, reconciliation.SeverityHigh:
				r.logger.Error(manualReconciliation, attrs...)
			default:
				r.logger.Warn("reconciliation discrepancy", attrs...)
			}
		}
	}
	return reports
}
