package worker

import (
	"context"

	"github.com/DanielPopoola/eventpay/internal/domain"
)

const manualReconciliation = "MANUAL_RECONCILIATION_REQUIRED"

// flagForReview takes a transaction out of the retry rotation and raises it for an
// operator.
func (w *RetrySweeper) flagForReview(ctx context.Context, txn *domain.Transaction, attempts int, lastErr error) bool {
	if err := w.store.Repositories().Transactions.FlagForReview(ctx, txn.ID, manualReconciliation, w.clock.Now()); err != nil {
		w.logger.Error("failed to flag transaction for review", "transaction_id", txn.ID, "error", err)
		return false
	}

	w.logger.Error(manualReconciliation,
		"transaction_id", txn.ID,
		"gateway", txn.Gateway,
		"registration_id", txn.RegistrationID,
		"amount", txn.Amount,
		"currency", txn.Currency,
		"attempts", attempts,
		"last_error", lastErr,
	)
	return true
}
