package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/DanielPopoola/eventpay/internal/api"
	"github.com/DanielPopoola/eventpay/internal/application/reconciliation"
	"github.com/DanielPopoola/eventpay/internal/application/services"
	"github.com/DanielPopoola/eventpay/internal/application/webhook"
	"github.com/DanielPopoola/eventpay/internal/breaker"
	"github.com/DanielPopoola/eventpay/internal/card"
	"github.com/DanielPopoola/eventpay/internal/domain"
)

type PaymentService interface {
	Initiate(ctx context.Context, cmd services.InitiateCommand) (*domain.Transaction, error)
	Confirm(ctx context.Context, cmd services.ConfirmCommand) (*services.ConfirmResult, error)
	Refund(ctx context.Context, cmd services.RefundCommand) (*domain.Refund, error)
	ListRefunds(ctx context.Context, transactionID string) ([]*domain.Refund, error)
	Get(ctx context.Context, transactionID string) (*domain.Transaction, error)
	Cancel(ctx context.Context, transactionID, reason string) (*domain.Transaction, error)
	ValidateCard(number string, month, year int) card.Result
}

type WebhookHandler interface {
	SignatureHeader(gw string) string
	Handle(ctx context.Context, gw string, rawPayload []byte, signature string) (*webhook.Outcome, error)
}

type ReconciliationService interface {
	Reconcile(ctx context.Context, gw domain.Gateway, from, to time.Time) (*reconciliation.Report, error)
}

type GatewayLister interface {
	Gateways() []domain.Gateway
}

type BreakerSnapshots interface {
	Snapshot(gw domain.Gateway) breaker.Snapshot
}

// HealthChecker is a dependency checked by /health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handlers implements the generated api.ServerInterface.
type Handlers struct {
	payments       PaymentService
	webhooks       WebhookHandler
	reconciliation ReconciliationService
	gateways       GatewayLister
	breakers       BreakerSnapshots
	checks         map[string]HealthChecker
	logger         *slog.Logger
}

func NewHandlers(
	payments PaymentService,
	webhooks WebhookHandler,
	reconciliation ReconciliationService,
	gateways GatewayLister,
	breakers BreakerSnapshots,
	checks map[string]HealthChecker,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		payments:       payments,
		webhooks:       webhooks,
		reconciliation: reconciliation,
		gateways:       gateways,
		breakers:       breakers,
		checks:         checks,
		logger:         logger,
	}
}

var _ api.ServerInterface = (*Handlers)(nil)
