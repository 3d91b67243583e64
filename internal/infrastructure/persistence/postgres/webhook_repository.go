package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/DanielPopoola/eventpay/internal/domain"
	"github.com/jackc/pgx/v5"
)

const webhookColumns = `
	id, gateway, provider_event_id, event_type, transaction_ref, status, amount,
	payload, attempts, last_error, received_at, processed_at`

// WebhookRepository is the inbox of received provider notifications. The unique
// (gateway, provider_event_id) key makes redelivery detectable.
type WebhookRepository struct {
	q Querier
}

func NewWebhookRepository(q Querier) *WebhookRepository {
	return &WebhookRepository{q: q}
}

func (r *WebhookRepository) Record(ctx context.Context, e *domain.WebhookEvent) (*domain.WebhookEvent, bool, error) {
	insert := `
		INSERT INTO webhook_events (` + webhookColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (gateway, provider_event_id) DO NOTHING
	`
	tag, err := r.q.Exec(ctx, insert,
		e.ID, e.Gateway, e.ProviderEventID, e.EventType, e.TransactionRef, e.Status, e.Amount,
		string(e.Payload), e.Attempts, e.LastError, e.ReceivedAt, e.ProcessedAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to record webhook event: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return e, true, nil
	}

	query := `SELECT ` + webhookColumns + ` FROM webhook_events WHERE gateway = $1 AND provider_event_id = $2`
	existing, err := scanWebhook(r.q.QueryRow(ctx, query, e.Gateway, e.ProviderEventID))
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *WebhookRepository) MarkProcessed(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE webhook_events
		SET processed_at = $2, attempts = attempts + 1, last_error = NULL
		WHERE id = $1
	`
	if _, err := r.q.Exec(ctx, query, id, at); err != nil {
		return fmt.Errorf("failed to mark webhook processed: %w", err)
	}
	return nil
}

func (r *WebhookRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	query := `UPDATE webhook_events SET attempts = attempts + 1, last_error = $2 WHERE id = $1`
	if _, err := r.q.Exec(ctx, query, id, reason); err != nil {
		return fmt.Errorf("failed to mark webhook failed: %w", err)
	}
	return nil
}

func (r *WebhookRepository) FindUnprocessed(ctx context.Context, maxAttempts int, limit int) ([]*domain.WebhookEvent, error) {
	query := `SELECT ` + webhookColumns + `
		FROM webhook_events
		WHERE processed_at IS NULL AND attempts < $1
		ORDER BY received_at ASC
		LIMIT $2
	`
	rows, err := r.q.Query(ctx, query, maxAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("query unprocessed webhooks: %w", err)
	}
	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.WebhookEvent, error) {
		return scanWebhook(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan webhooks: %w", err)
	}
	return results, nil
}

func scanWebhook(row pgx.Row) (*domain.WebhookEvent, error) {
	var e domain.WebhookEvent
	var payload []byte
	err := row.Scan(
		&e.ID, &e.Gateway, &e.ProviderEventID, &e.EventType, &e.TransactionRef, &e.Status, &e.Amount,
		&payload, &e.Attempts, &e.LastError, &e.ReceivedAt, &e.ProcessedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan webhook event: %w", err)
	}
	e.Payload = payload
	return &e, nil
}
