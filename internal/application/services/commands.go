package services

import (
	"encoding/json"
	"strings"

	"github.com/DanielPopoola/eventpay/internal/domain"
)

type InitiateCommand struct {
	RegistrationID string
	Gateway        string
	Amount         int64
	Currency       string
	Description    string
	BillingInfo    json.RawMessage
	PaymentMethod  json.RawMessage
}

func (c InitiateCommand) validate() (domain.Gateway, domain.Currency, error) {
	if strings.TrimSpace(c.RegistrationID) == "" {
		return "", "", domain.NewValidationError("registration_id is required")
	}
	gw, err := domain.ParseGateway(c.Gateway)
	if err != nil {
		return "", "", err
	}
	currency, err := domain.ParseCurrency(c.Currency)
	if err != nil {
		return "", "", err
	}
	if _, err := domain.NewMoney(c.Amount, currency); err != nil {
		return "", "", err
	}
	return gw, currency, nil
}

// ConfirmSource says who is asking for a confirmation and therefore whose view of
// the provider status is trusted.
type ConfirmSource string

const (
	// SourceWebhook carries a status the provider pushed and signed.
	SourceWebhook ConfirmSource = "webhook"
	// SourceRetry is the sweeper re-checking a failed transaction.
	SourceRetry ConfirmSource = "retry"
	// SourceClient is an API caller asking the engine to check with the provider.
	SourceClient ConfirmSource = "client"
)

type ConfirmCommand struct {
	TransactionID string
	StatusHint    domain.TransactionStatus
	// Amount is the provider-reported amount, when the notification carried one.
	// For refund outcomes it is the total refunded at the provider.
	Amount     *int64
	RawPayload json.RawMessage
	Source     ConfirmSource
}

func (c ConfirmCommand) validate() error {
	if c.TransactionID == "" {
		return domain.NewValidationError("transaction_id is required")
	}
	switch c.Source {
	case SourceWebhook:
		if domain.ConfirmSources(c.StatusHint) == nil {
			return domain.NewValidationError("status %q cannot be confirmed", c.StatusHint)
		}
	case SourceRetry, SourceClient:
	default:
		return domain.NewValidationError("unknown confirmation source %q", c.Source)
	}
	return nil
}

// ConfirmResult reports the transaction after a confirmation attempt. Applied is
// false when the transaction was not in a state the outcome could move it from,
// which callers treat as success.
type ConfirmResult struct {
	Transaction *domain.Transaction
	Applied     bool
}

type RefundCommand struct {
	TransactionID string
	Amount        int64
	Reason        string
}

func (c RefundCommand) validate() error {
	if c.TransactionID == "" {
		return domain.NewValidationError("transaction_id is required")
	}
	if c.Amount <= 0 {
		return domain.NewValidationError("refund amount must be positive, got %d", c.Amount)
	}
	return nil
}
