package services

import (
	"context"
	"time"

	"github.com/DanielPopoola/eventpay/internal/domain"
)

// Get retrieves a transaction by its engine ID.
func (s *PaymentService) Get(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	return s.findTransaction(ctx, s.store.Repositories(), transactionID)
}

// Cancel abandons a payment that has not settled. It does not call the provider;
// a late completion webhook finds the transaction cancelled and is ignored.
func (s *PaymentService) Cancel(ctx context.Context, transactionID, reason string) (*domain.Transaction, error) {
	repos := s.store.Repositories()
	txn, err := s.findTransaction(ctx, repos, transactionID)
	if err != nil {
		return nil, err
	}
	if reason == "" {
		reason = "cancelled by request"
	}

	updated, err := s.transition(ctx, txn.ID, domain.ActiveStatuses, domain.StatusUpdate{
		To:            domain.StatusCancelled,
		At:            s.clock.Now(),
		FailureReason: &reason,
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		current, err := s.findTransaction(ctx, repos, txn.ID)
		if err != nil {
			return nil, err
		}
		return nil, domain.NewInvalidPaymentStatusError(current.ID, current.Status)
	}

	s.logger.Info("payment cancelled", "transaction_id", updated.ID, "reason", reason)
	s.emit(ctx, updated)
	return updated, nil
}

// ExpireStale moves pending or processing transactions past their deadline to
// expired. It returns how many it expired.
func (s *PaymentService) ExpireStale(ctx context.Context, now time.Time, limit int) (int, error) {
	stale, err := s.store.Repositories().Transactions.FindExpired(ctx, now, limit)
	if err != nil {
		return 0, domain.NewInternalError(err)
	}

	expired := 0
	for _, txn := range stale {
		reason := "payment window elapsed"
		updated, err := s.transition(ctx, txn.ID, domain.ActiveStatuses, domain.StatusUpdate{
			To:            domain.StatusExpired,
			At:            now,
			FailureReason: &reason,
		})
		if err != nil {
			return expired, err
		}
		if updated == nil {
			continue
		}
		expired++
		s.logger.Info("payment expired", "transaction_id", updated.ID, "expires_at", txn.ExpiresAt)
		s.emit(ctx, updated)
	}
	return expired, nil
}
