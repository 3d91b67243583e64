package postgres

import (
	"context"

	"github.com/DanielPopoola/eventpay/internal/domain"
	"github.com/jackc/pgx/v5"
)

// Store coordinates repositories across a single database transaction.
type Store struct {
	db *DB
}

func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// Repositories returns repositories bound to the pool.
func (s *Store) Repositories() domain.Repositories {
	return repositories(s.db.Pool)
}

// WithTx executes fn within a database transaction. The repositories fn receives
// all share that transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) error {
	return s.db.WithTx(ctx, func(tx pgx.Tx) error {
		return fn(ctx, repositories(tx))
	})
}

func repositories(q Querier) domain.Repositories {
	return domain.Repositories{
		Transactions:  NewTransactionRepository(q),
		Refunds:       NewRefundRepository(q),
		Registrations: NewRegistrationRepository(q),
		Events:        NewEventRepository(q),
		Webhooks:      NewWebhookRepository(q),
	}
}

var _ domain.Store = (*Store)(nil)
