package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/DanielPopoola/eventpay/internal/domain"
	"github.com/jackc/pgx/v5"
)

// RegistrationRepository reads and confirms registrations owned by the registration platform.
type RegistrationRepository struct {
	q Querier
}

func NewRegistrationRepository(q Querier) *RegistrationRepository {
	return &RegistrationRepository{q: q}
}

func (r *RegistrationRepository) Get(ctx context.Context, id string) (*domain.Registration, error) {
	query := `SELECT id, event_id, status, created_at, updated_at FROM registrations WHERE id = $1`

	var reg domain.Registration
	err := r.q.QueryRow(ctx, query, id).Scan(&reg.ID, &reg.EventID, &reg.Status, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to scan registration: %w", err)
	}
	return &reg, nil
}

func (r *RegistrationRepository) SetStatus(ctx context.Context, id string, from, to domain.RegistrationStatus) (bool, error) {
	query := `UPDATE registrations SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`

	tag, err := r.q.Exec(ctx, query, id, from, to)
	if err != nil {
		return false, fmt.Errorf("failed to update registration status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

type EventRepository struct {
	q Querier
}

func NewEventRepository(q Querier) *EventRepository {
	return &EventRepository{q: q}
}

func (r *EventRepository) IncrementOccupancy(ctx context.Context, eventID string) error {
	query := `UPDATE events SET occupancy = occupancy + 1, updated_at = NOW() WHERE id = $1`

	tag, err := r.q.Exec(ctx, query, eventID)
	if err != nil {
		return fmt.Errorf("failed to increment occupancy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}
