package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/DanielPopoola/eventpay/internal/domain"
	"github.com/jackc/pgx/v5"
)

const refundColumns = `
	id, transaction_id, gateway_refund_id, amount, fee, net_amount, reason,
	status, failure_reason, created_at, updated_at, completed_at`

type RefundRepository struct {
	q Querier
}

func NewRefundRepository(q Querier) *RefundRepository {
	return &RefundRepository{q: q}
}

func (r *RefundRepository) Create(ctx context.Context, ref *domain.Refund) error {
	query := `
		INSERT INTO refunds (` + refundColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.q.Exec(ctx, query,
		ref.ID, ref.TransactionID, ref.GatewayRefundID, ref.Amount, ref.Fee, ref.NetAmount, ref.Reason,
		ref.Status, ref.FailureReason, ref.CreatedAt, ref.UpdatedAt, ref.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create refund: %w", err)
	}
	return nil
}

func (r *RefundRepository) Update(ctx context.Context, ref *domain.Refund) error {
	query := `
		UPDATE refunds
		SET gateway_refund_id = $2, status = $3, failure_reason = $4,
		    updated_at = $5, completed_at = $6
		WHERE id = $1
	`
	tag, err := r.q.Exec(ctx, query, ref.ID, ref.GatewayRefundID, ref.Status, ref.FailureReason, ref.UpdatedAt, ref.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to update refund: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRefundNotFound
	}
	return nil
}

func (r *RefundRepository) FindByID(ctx context.Context, id string) (*domain.Refund, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE id = $1`
	return scanRefund(r.q.QueryRow(ctx, query, id))
}

func (r *RefundRepository) ListByTransaction(ctx context.Context, transactionID string) ([]*domain.Refund, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE transaction_id = $1 ORDER BY created_at ASC`

	rows, err := r.q.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("query refunds by transaction_id: %w", err)
	}
	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Refund, error) {
		return scanRefund(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan refunds: %w", err)
	}
	return results, nil
}

func (r *RefundRepository) FindOutstanding(ctx context.Context, limit int) ([]*domain.Refund, error) {
	query := `SELECT ` + refundColumns + `
		FROM refunds
		WHERE status = $1 AND gateway_refund_id IS NOT NULL
		ORDER BY updated_at ASC
		LIMIT $2
	`
	rows, err := r.q.Query(ctx, query, domain.RefundProcessing, limit)
	if err != nil {
		return nil, fmt.Errorf("query outstanding refunds: %w", err)
	}
	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Refund, error) {
		return scanRefund(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan refunds: %w", err)
	}
	return results, nil
}

func scanRefund(row pgx.Row) (*domain.Refund, error) {
	var ref domain.Refund
	err := row.Scan(
		&ref.ID, &ref.TransactionID, &ref.GatewayRefundID, &ref.Amount, &ref.Fee, &ref.NetAmount, &ref.Reason,
		&ref.Status, &ref.FailureReason, &ref.CreatedAt, &ref.UpdatedAt, &ref.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRefundNotFound
		}
		return nil, fmt.Errorf("failed to scan refund: %w", err)
	}
	return &ref, nil
}
