// Package reconciliation compares the engine's transactions with a provider's own
// records for a period and reports where they disagree.
package reconciliation

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/DanielPopoola/eventpay/internal/application"
	"github.com/DanielPopoola/eventpay/internal/breaker"
	"github.com/DanielPopoola/eventpay/internal/domain"
	"github.com/DanielPopoola/eventpay/internal/gateway"
)

type Kind string

const (
	// KindMissingLocally is a provider transaction the engine has no record of.
	KindMissingLocally Kind = "missing_locally"
	// KindMissingAtProvider is a submitted local transaction the provider does not list.
	KindMissingAtProvider Kind = "missing_at_provider"
	KindStatusMismatch    Kind = "status_mismatch"
	KindAmountMismatch    Kind = "amount_mismatch"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

type Discrepancy struct {
	Kind                 Kind                     `json:"kind"`
	Severity             Severity                 `json:"severity"`
	TransactionID        string                   `json:"transaction_id,omitempty"`
	GatewayTransactionID string                   `json:"gateway_transaction_id,omitempty"`
	LocalStatus          domain.TransactionStatus `json:"local_status,omitempty"`
	ProviderStatus       domain.TransactionStatus `json:"provider_status,omitempty"`
	LocalAmount          int64                    `json:"local_amount,omitempty"`
	ProviderAmount       int64                    `json:"provider_amount,omitempty"`
}

type Report struct {
	Gateway       domain.Gateway `json:"gateway"`
	From          time.Time      `json:"from"`
	To            time.Time      `json:"to"`
	LocalCount    int            `json:"local_count"`
	ProviderCount int            `json:"provider_count"`
	Matched       int            `json:"matched"`
	Discrepancies []Discrepancy  `json:"discrepancies"`
	GeneratedAt   time.Time      `json:"generated_at"`
}

func (r *Report) Clean() bool {
	return len(r.Discrepancies) == 0
}

type Service struct {
	store    domain.Store
	gateways *gateway.Registry
	breakers breaker.Breaker
	clock    application.Clock
	logger   *slog.Logger
}

func NewService(store domain.Store, gateways *gateway.Registry, breakers breaker.Breaker, clock application.Clock, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		gateways: gateways,
		breakers: breakers,
		clock:    clock,
		logger:   logger,
	}
}

// Gateways lists the registered gateways that can enumerate their transactions.
func (s *Service) Gateways() []domain.Gateway {
	var out []domain.Gateway
	for _, g := range s.gateways.Gateways() {
		adapter, err := s.gateways.Get(g)
		if err != nil {
			continue
		}
		if _, ok := adapter.(gateway.Lister); ok {
			out = append(out, g)
		}
	}
	return out
}

// Reconcile matches local and provider transactions created in [from, to].
func (s *Service) Reconcile(ctx context.Context, gw domain.Gateway, from, to time.Time) (*Report, error) {
	if !from.Before(to) {
		return nil, domain.NewValidationError("reconciliation window must start before it ends")
	}
	adapter, err := s.gateways.Get(gw)
	if err != nil {
		return nil, domain.NewValidationError("gateway %s is not enabled", gw)
	}
	lister, ok := adapter.(gateway.Lister)
	if !ok {
		return nil, domain.NewValidationError("gateway %s cannot list transactions", gw)
	}

	local, err := s.store.Repositories().Transactions.ListByGateway(ctx, gw, from, to)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}

	remote, err := s.listRemote(ctx, gw, lister, from, to)
	if err != nil {
		return nil, err
	}

	report := compare(local, remote)
	report.Gateway = gw
	report.From = from
	report.To = to
	report.GeneratedAt = s.clock.Now()

	s.logger.Info("reconciliation finished",
		"gateway", gw,
		"from", from,
		"to", to,
		"local", report.LocalCount,
		"provider", report.ProviderCount,
		"matched", report.Matched,
		"discrepancies", len(report.Discrepancies),
	)
	return report, nil
}

func (s *Service) listRemote(ctx context.Context, gw domain.Gateway, lister gateway.Lister, from, to time.Time) ([]gateway.ProviderTransaction, error) {
	done, err := s.breakers.Allow(gw)
	if err != nil {
		return nil, domain.NewGatewayUnavailableError(gw, err)
	}
	remote, err := lister.ListTransactions(ctx, from, to)
	if err != nil {
		done(false)
		s.logger.Error("failed to list provider transactions", "gateway", gw, "error", err)
		return nil, domain.NewGatewayError(gw, err)
	}
	done(true)
	return remote, nil
}

func compare(local []*domain.Transaction, remote []gateway.ProviderTransaction) *Report {
	report := &Report{
		LocalCount:    len(local),
		ProviderCount: len(remote),
		Discrepancies: []Discrepancy{},
	}

	byRef := make(map[string]*domain.Transaction, len(local))
	for _, t := range local {
		if t.GatewayTransactionID != nil {
			byRef[*t.GatewayTransactionID] = t
		}
	}

	seen := make(map[string]bool, len(remote))
	for _, p := range remote {
		seen[p.TransactionID] = true
		t, ok := byRef[p.TransactionID]
		if !ok {
			report.Discrepancies = append(report.Discrepancies, Discrepancy{
				Kind:                 KindMissingLocally,
				Severity:             missingLocallySeverity(p.Status),
				GatewayTransactionID: p.TransactionID,
				ProviderStatus:       p.Status,
				ProviderAmount:       p.Amount,
			})
			continue
		}

		matched := true
		if classOf(t.Status) != classOf(p.Status) {
			matched = false
			report.Discrepancies = append(report.Discrepancies, Discrepancy{
				Kind:                 KindStatusMismatch,
				Severity:             statusMismatchSeverity(t.Status, p.Status),
				TransactionID:        t.ID,
				GatewayTransactionID: p.TransactionID,
				LocalStatus:          t.Status,
				ProviderStatus:       p.Status,
			})
		}
		if p.Amount != 0 && p.Amount != t.Amount {
			matched = false
			report.Discrepancies = append(report.Discrepancies, Discrepancy{
				Kind:                 KindAmountMismatch,
				Severity:             SeverityHigh,
				TransactionID:        t.ID,
				GatewayTransactionID: p.TransactionID,
				LocalAmount:          t.Amount,
				ProviderAmount:       p.Amount,
			})
		}
		if matched {
			report.Matched++
		}
	}

	for ref, t := range byRef {
		if seen[ref] {
			continue
		}
		report.Discrepancies = append(report.Discrepancies, Discrepancy{
			Kind:                 KindMissingAtProvider,
			Severity:             missingAtProviderSeverity(t.Status),
			TransactionID:        t.ID,
			GatewayTransactionID: ref,
			LocalStatus:          t.Status,
			LocalAmount:          t.Amount,
		})
	}

	sort.SliceStable(report.Discrepancies, func(i, j int) bool {
		a, b := report.Discrepancies[i], report.Discrepancies[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.GatewayTransactionID < b.GatewayTransactionID
	})
	return report
}

type class int

const (
	classInFlight class = iota
	classSettled
	classUnsuccessful
)

// classOf groups statuses that describe the same money position. A provider that
// reports a partially refunded charge as completed agrees with the engine.
func classOf(s domain.TransactionStatus) class {
	switch s {
	case domain.StatusCompleted, domain.StatusPartiallyRefunded, domain.StatusRefunded, domain.StatusDisputed:
		return classSettled
	case domain.StatusFailed, domain.StatusCancelled, domain.StatusExpired:
		return classUnsuccessful
	default:
		return classInFlight
	}
}

func missingLocallySeverity(provider domain.TransactionStatus) Severity {
	if classOf(provider) == classSettled {
		return SeverityCritical
	}
	return SeverityMedium
}

func missingAtProviderSeverity(local domain.TransactionStatus) Severity {
	switch classOf(local) {
	case classSettled:
		return SeverityCritical
	case classInFlight:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Money moved on one side only is critical; anything still in flight may resolve
// on its own.
func statusMismatchSeverity(local, provider domain.TransactionStatus) Severity {
	l, p := classOf(local), classOf(provider)
	switch {
	case l == classSettled || p == classSettled:
		if l == classInFlight || p == classInFlight {
			return SeverityHigh
		}
		return SeverityCritical
	default:
		return SeverityLow
	}
}
