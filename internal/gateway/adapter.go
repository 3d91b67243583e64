// Package gateway defines the contract every payment provider adapter satisfies and the
// registry the orchestrator uses to find them.
package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/DanielPopoola/eventpay/internal/domain"
)

type InitiateRequest struct {
	TransactionID string
	Amount        int64
	Currency      domain.Currency
	Description   string
	BillingInfo   json.RawMessage
	PaymentMethod json.RawMessage
}

// ProviderResponse is a provider's view of a transaction, already mapped onto the
// engine's status vocabulary.
type ProviderResponse struct {
	TransactionID string
	Status        domain.TransactionStatus
	RawStatus     string
	Amount        int64
	Currency      domain.Currency
}

type ProviderRefundResponse struct {
	RefundID  string
	Status    domain.RefundStatus
	RawStatus string
	Amount    int64
}

// NormalizedWebhook is a provider notification reduced to what the orchestrator needs.
// Status is one of completed, failed, refunded, disputed or expired.
type NormalizedWebhook struct {
	EventID       string
	EventType     string
	TransactionID string
	Status        domain.TransactionStatus
	Amount        *int64
	Currency      *domain.Currency
}

type Adapter interface {
	Gateway() domain.Gateway
	Initiate(ctx context.Context, req InitiateRequest) (*ProviderResponse, error)
	Confirm(ctx context.Context, providerTransactionID string) (*ProviderResponse, error)
	Refund(ctx context.Context, providerTransactionID string, amount int64, reason string) (*ProviderRefundResponse, error)
	// RefundStatus reads back a refund the provider accepted without settling.
	RefundStatus(ctx context.Context, providerTransactionID, providerRefundID string) (*ProviderRefundResponse, error)
	// SignatureHeader names the HTTP header carrying the webhook signature.
	SignatureHeader() string
	ValidateWebhookSignature(rawPayload []byte, signature string) bool
	NormalizeWebhook(rawPayload []byte) (*NormalizedWebhook, error)
}

type ProviderTransaction struct {
	TransactionID string
	Status        domain.TransactionStatus
	Amount        int64
	Currency      domain.Currency
	CreatedAt     time.Time
}

// Lister is implemented by adapters that can enumerate provider-side transactions
// for reconciliation.
type Lister interface {
	ListTransactions(ctx context.Context, from, to time.Time) ([]ProviderTransaction, error)
}
