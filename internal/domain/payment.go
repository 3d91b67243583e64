// Package domain encodes payment transactions, refunds and the registrations they settle.
package domain

import (
	"encoding/json"
	"slices"
	"time"
)

// TransactionStatus represents the current state of a payment in its lifecycle
type TransactionStatus string

const (
	StatusPending           TransactionStatus = "pending"
	StatusProcessing        TransactionStatus = "processing"
	StatusCompleted         TransactionStatus = "completed"
	StatusFailed            TransactionStatus = "failed"
	StatusCancelled         TransactionStatus = "cancelled"
	StatusRefunded          TransactionStatus = "refunded"
	StatusPartiallyRefunded TransactionStatus = "partially_refunded"
	StatusDisputed          TransactionStatus = "disputed"
	StatusExpired           TransactionStatus = "expired"
)

// ActiveStatuses are the states in which a registration is considered to have a payment in flight.
var ActiveStatuses = []TransactionStatus{StatusPending, StatusProcessing}

// RefundableStatuses are the states from which money can be returned.
var RefundableStatuses = []TransactionStatus{StatusCompleted, StatusPartiallyRefunded}

// transitions is the lifecycle graph. failed -> processing is the retry sweeper's claim.
var transitions = map[TransactionStatus][]TransactionStatus{
	StatusPending:           {StatusProcessing, StatusCompleted, StatusFailed, StatusCancelled, StatusExpired},
	StatusProcessing:        {StatusCompleted, StatusFailed, StatusCancelled, StatusExpired},
	StatusFailed:            {StatusProcessing},
	StatusCompleted:         {StatusRefunded, StatusPartiallyRefunded, StatusDisputed},
	StatusPartiallyRefunded: {StatusRefunded, StatusPartiallyRefunded, StatusDisputed},
}

// ConfirmSources returns the states a confirmation may move out of to reach target.
// Settlement outcomes only apply to payments still in flight; refunds and disputes
// only apply to settled payments.
func ConfirmSources(target TransactionStatus) []TransactionStatus {
	switch target {
	case StatusCompleted, StatusFailed, StatusExpired, StatusCancelled:
		return slices.Clone(ActiveStatuses)
	case StatusRefunded, StatusPartiallyRefunded, StatusDisputed:
		return slices.Clone(RefundableStatuses)
	}
	return nil
}

func (s TransactionStatus) CanTransitionTo(target TransactionStatus) bool {
	return slices.Contains(transitions[s], target)
}

func (s TransactionStatus) IsActive() bool {
	return slices.Contains(ActiveStatuses, s)
}

func (s TransactionStatus) IsRefundable() bool {
	return slices.Contains(RefundableStatuses, s)
}

// Transaction is the engine's record of one payment attempt.
type Transaction struct {
	ID                   string
	GatewayTransactionID *string
	RegistrationID       string
	EventID              string
	Gateway              Gateway
	Status               TransactionStatus

	Amount    int64
	Currency  Currency
	Fee       int64
	NetAmount int64

	BillingInfo   json.RawMessage
	PaymentMethod json.RawMessage

	RetryCount     int
	LastRetryAt    *time.Time
	ExpiresAt      time.Time
	FailureReason  *string
	ReviewRequired bool

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
	FailedAt    *time.Time
	RefundedAt  *time.Time
}

type NewTransactionParams struct {
	ID             string
	RegistrationID string
	EventID        string
	Gateway        Gateway
	Amount         int64
	Currency       Currency
	Fee            int64
	BillingInfo    json.RawMessage
	PaymentMethod  json.RawMessage
	CreatedAt      time.Time
	TTL            time.Duration
}

func NewTransaction(p NewTransactionParams) (*Transaction, error) {
	if p.ID == "" {
		return nil, NewValidationError("transaction ID is required")
	}
	if p.RegistrationID == "" {
		return nil, NewValidationError("registration ID is required")
	}
	if _, err := NewMoney(p.Amount, p.Currency); err != nil {
		return nil, err
	}
	if p.Fee < 0 || p.Fee > p.Amount {
		return nil, NewValidationError("fee %d out of range for amount %d", p.Fee, p.Amount)
	}

	return &Transaction{
		ID:             p.ID,
		RegistrationID: p.RegistrationID,
		EventID:        p.EventID,
		Gateway:        p.Gateway,
		Status:         StatusPending,
		Amount:         p.Amount,
		Currency:       p.Currency,
		Fee:            p.Fee,
		NetAmount:      p.Amount - p.Fee,
		BillingInfo:    p.BillingInfo,
		PaymentMethod:  p.PaymentMethod,
		ExpiresAt:      p.CreatedAt.Add(p.TTL),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.CreatedAt,
	}, nil
}

// Apply moves the transaction to the state described by u. Stores call this after
// their own status guard has succeeded so in-memory and persisted records agree.
func (t *Transaction) Apply(u StatusUpdate) error {
	if !t.Status.CanTransitionTo(u.To) {
		return ErrInvalidTransition
	}
	t.Status = u.To
	t.UpdatedAt = u.At

	if u.GatewayTransactionID != nil {
		t.GatewayTransactionID = u.GatewayTransactionID
	}
	if u.FailureReason != nil {
		t.FailureReason = u.FailureReason
	}
	if u.Retry {
		t.RetryCount++
		at := u.At
		t.LastRetryAt = &at
	}

	switch u.To {
	case StatusCompleted:
		t.CompletedAt = &u.At
	case StatusFailed:
		t.FailedAt = &u.At
	case StatusRefunded, StatusPartiallyRefunded:
		t.RefundedAt = &u.At
	}
	return nil
}

func (t *Transaction) IsExpired(now time.Time) bool {
	return t.Status.IsActive() && now.After(t.ExpiresAt)
}

// IsTerminal reports whether no further lifecycle transition is expected.
func (t *Transaction) IsTerminal() bool {
	switch t.Status {
	case StatusCancelled, StatusExpired, StatusRefunded:
		return true
	default:
		return false
	}
}

// StatusUpdate describes a guarded status change.
type StatusUpdate struct {
	To                   TransactionStatus
	At                   time.Time
	GatewayTransactionID *string
	FailureReason        *string
	// Retry increments retry_count and stamps last_retry_at.
	Retry bool
}
