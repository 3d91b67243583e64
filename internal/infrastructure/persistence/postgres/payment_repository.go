package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DanielPopoola/eventpay/internal/domain"
	"github.com/jackc/pgx/v5"
)

const transactionColumns = `
	id, gateway_transaction_id, registration_id, event_id, gateway, status,
	amount, currency, fee, net_amount, billing_info, payment_method,
	retry_count, last_retry_at, expires_at, failure_reason, review_required,
	created_at, updated_at, completed_at, failed_at, refunded_at`

const activeRegistrationIndex = "uq_payment_transactions_active_registration"

type TransactionRepository struct {
	q Querier
}

func NewTransactionRepository(q Querier) *TransactionRepository {
	return &TransactionRepository{q: q}
}

func (r *TransactionRepository) Create(ctx context.Context, t *domain.Transaction) error {
	query := `
		INSERT INTO payment_transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		        $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`

	_, err := r.q.Exec(ctx, query,
		t.ID, t.GatewayTransactionID, t.RegistrationID, t.EventID, t.Gateway, t.Status,
		t.Amount, t.Currency, t.Fee, t.NetAmount, nullJSON(t.BillingInfo), nullJSON(t.PaymentMethod),
		t.RetryCount, t.LastRetryAt, t.ExpiresAt, t.FailureReason, t.ReviewRequired,
		t.CreatedAt, t.UpdatedAt, t.CompletedAt, t.FailedAt, t.RefundedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) && constraintName(err) == activeRegistrationIndex {
			return domain.ErrActiveTransactionExists
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepository) FindByID(ctx context.Context, id string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM payment_transactions WHERE id = $1`
	return scanTransaction(r.q.QueryRow(ctx, query, id))
}

// FindByIDForUpdate locks the row until the surrounding transaction ends.
func (r *TransactionRepository) FindByIDForUpdate(ctx context.Context, id string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM payment_transactions WHERE id = $1 FOR UPDATE`
	return scanTransaction(r.q.QueryRow(ctx, query, id))
}

func (r *TransactionRepository) FindByGatewayTransactionID(ctx context.Context, gateway domain.Gateway, gatewayTransactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM payment_transactions
		WHERE gateway = $1 AND gateway_transaction_id = $2`
	return scanTransaction(r.q.QueryRow(ctx, query, gateway, gatewayTransactionID))
}

func (r *TransactionRepository) FindActiveByRegistration(ctx context.Context, registrationID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM payment_transactions
		WHERE registration_id = $1 AND status IN ('pending', 'processing')`
	return scanTransaction(r.q.QueryRow(ctx, query, registrationID))
}

// CompareAndSetStatus is the single guarded write for every lifecycle transition.
// Zero rows affected means another writer got there first, or the row is gone.
// Reactivating a transaction whose registration already has an active one fails
// with domain.ErrActiveTransactionExists.
func (r *TransactionRepository) CompareAndSetStatus(ctx context.Context, id string, from []domain.TransactionStatus, u domain.StatusUpdate) (bool, error) {
	query := `
		UPDATE payment_transactions
		SET status = $3,
		    updated_at = $4,
		    gateway_transaction_id = COALESCE($5, gateway_transaction_id),
		    failure_reason = COALESCE($6, failure_reason),
		    retry_count = retry_count + CASE WHEN $7 THEN 1 ELSE 0 END,
		    last_retry_at = CASE WHEN $7 THEN $4 ELSE last_retry_at END,
		    completed_at = CASE WHEN $3 = 'completed' THEN $4 ELSE completed_at END,
		    failed_at = CASE WHEN $3 = 'failed' THEN $4 ELSE failed_at END,
		    refunded_at = CASE WHEN $3 IN ('refunded', 'partially_refunded') THEN $4 ELSE refunded_at END
		WHERE id = $1 AND status = ANY($2)
	`

	statuses := make([]string, len(from))
	for i, s := range from {
		statuses[i] = string(s)
	}

	tag, err := r.q.Exec(ctx, query, id, statuses, string(u.To), u.At, u.GatewayTransactionID, u.FailureReason, u.Retry)
	if err != nil {
		if IsUniqueViolation(err) && constraintName(err) == activeRegistrationIndex {
			return false, domain.ErrActiveTransactionExists
		}
		return false, fmt.Errorf("failed to update transaction status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *TransactionRepository) FlagForReview(ctx context.Context, id string, reason string, at time.Time) error {
	query := `
		UPDATE payment_transactions
		SET review_required = TRUE, failure_reason = $2, updated_at = $3
		WHERE id = $1
	`
	tag, err := r.q.Exec(ctx, query, id, reason, at)
	if err != nil {
		return fmt.Errorf("failed to flag transaction for review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

func (r *TransactionRepository) AttachGatewayReference(ctx context.Context, id string, gatewayTransactionID string, at time.Time) (bool, error) {
	query := `
		UPDATE payment_transactions
		SET gateway_transaction_id = $2, updated_at = $3
		WHERE id = $1 AND gateway_transaction_id IS NULL
	`
	tag, err := r.q.Exec(ctx, query, id, gatewayTransactionID, at)
	if err != nil {
		return false, fmt.Errorf("failed to attach gateway reference: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// FindRetryable returns failed transactions still inside their retry budget whose
// last attempt is older than lastRetryBefore.
func (r *TransactionRepository) FindRetryable(ctx context.Context, maxRetries int, lastRetryBefore time.Time, limit int) ([]*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM payment_transactions
		WHERE status = 'failed'
		  AND review_required = FALSE
		  AND retry_count < $1
		  AND (last_retry_at IS NULL OR last_retry_at < $2)
		ORDER BY COALESCE(last_retry_at, failed_at, created_at) ASC
		LIMIT $3
	`
	return r.list(ctx, query, maxRetries, lastRetryBefore, limit)
}

func (r *TransactionRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM payment_transactions
		WHERE status IN ('pending', 'processing')
		  AND expires_at < $1
		ORDER BY expires_at ASC
		LIMIT $2
	`
	return r.list(ctx, query, now, limit)
}

func (r *TransactionRepository) ListByGateway(ctx context.Context, gateway domain.Gateway, from, to time.Time) ([]*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM payment_transactions
		WHERE gateway = $1 AND created_at >= $2 AND created_at <= $3
		ORDER BY created_at ASC
	`
	return r.list(ctx, query, gateway, from, to)
}

func (r *TransactionRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Transaction, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Transaction, error) {
		return scanTransaction(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan transactions: %w", err)
	}
	return results, nil
}

// scanTransaction converts a row into a domain Transaction.
// Returns domain.ErrTransactionNotFound if the row doesn't exist.
func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	var billing, method []byte

	err := row.Scan(
		&t.ID, &t.GatewayTransactionID, &t.RegistrationID, &t.EventID, &t.Gateway, &t.Status,
		&t.Amount, &t.Currency, &t.Fee, &t.NetAmount, &billing, &method,
		&t.RetryCount, &t.LastRetryAt, &t.ExpiresAt, &t.FailureReason, &t.ReviewRequired,
		&t.CreatedAt, &t.UpdatedAt, &t.CompletedAt, &t.FailedAt, &t.RefundedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	t.BillingInfo = billing
	t.PaymentMethod = method
	return &t, nil
}

func nullJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
