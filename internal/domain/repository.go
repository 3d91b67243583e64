package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrRefundNotFound       = errors.New("refund not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrEventNotFound        = errors.New("event not found")
	// ErrActiveTransactionExists is returned when a registration already has a pending or processing payment.
	ErrActiveTransactionExists = errors.New("active transaction exists for registration")
)

type TransactionRepository interface {
	Create(ctx context.Context, t *Transaction) error
	FindByID(ctx context.Context, id string) (*Transaction, error)
	FindByIDForUpdate(ctx context.Context, id string) (*Transaction, error)
	FindByGatewayTransactionID(ctx context.Context, gateway Gateway, gatewayTransactionID string) (*Transaction, error)
	FindActiveByRegistration(ctx context.Context, registrationID string) (*Transaction, error)

	// CompareAndSetStatus applies u only if the stored status is one of from.
	// It reports whether this call performed the transition.
	CompareAndSetStatus(ctx context.Context, id string, from []TransactionStatus, u StatusUpdate) (bool, error)
	FlagForReview(ctx context.Context, id string, reason string, at time.Time) error
	// AttachGatewayReference records the provider's identifier on a transaction that
	// does not have one yet, without changing its status.
	AttachGatewayReference(ctx context.Context, id string, gatewayTransactionID string, at time.Time) (bool, error)

	FindRetryable(ctx context.Context, maxRetries int, lastRetryBefore time.Time, limit int) ([]*Transaction, error)
	FindExpired(ctx context.Context, now time.Time, limit int) ([]*Transaction, error)
	ListByGateway(ctx context.Context, gateway Gateway, from, to time.Time) ([]*Transaction, error)
}

type RefundRepository interface {
	Create(ctx context.Context, r *Refund) error
	Update(ctx context.Context, r *Refund) error
	FindByID(ctx context.Context, id string) (*Refund, error)
	ListByTransaction(ctx context.Context, transactionID string) ([]*Refund, error)
	// FindOutstanding returns refunds the provider accepted but has not settled,
	// oldest first.
	FindOutstanding(ctx context.Context, limit int) ([]*Refund, error)
}

type RegistrationRepository interface {
	Get(ctx context.Context, id string) (*Registration, error)
	// SetStatus moves the registration to `to` only when it is currently `from`.
	SetStatus(ctx context.Context, id string, from, to RegistrationStatus) (bool, error)
}

type EventRepository interface {
	IncrementOccupancy(ctx context.Context, eventID string) error
}

type WebhookRepository interface {
	// Record stores e unless the provider event was already seen. It returns the stored row
	// and whether this call inserted it.
	Record(ctx context.Context, e *WebhookEvent) (*WebhookEvent, bool, error)
	MarkProcessed(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, reason string) error
	FindUnprocessed(ctx context.Context, maxAttempts int, limit int) ([]*WebhookEvent, error)
}

// Repositories groups the stores that take part in one unit of work.
type Repositories struct {
	Transactions  TransactionRepository
	Refunds       RefundRepository
	Registrations RegistrationRepository
	Events        EventRepository
	Webhooks      WebhookRepository
}

// Store hands out repositories bound either to the connection pool or to a single
// database transaction.
type Store interface {
	Repositories() Repositories
	WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
