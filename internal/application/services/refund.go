package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/DanielPopoola/eventpay/internal/domain"
	"github.com/DanielPopoola/eventpay/internal/gateway"
	"github.com/google/uuid"
)

// Refund returns part or all of a settled payment. The refund row is inserted
// under a row lock on the transaction, so concurrent refunds cannot together
// exceed the net amount.
func (s *PaymentService) Refund(ctx context.Context, cmd RefundCommand) (*domain.Refund, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}

	key, ok := transactionKey(cmd.TransactionID)
	if !ok {
		return nil, domain.NewPaymentNotFoundError(cmd.TransactionID)
	}

	var txn *domain.Transaction
	var refund *domain.Refund

	err := s.store.WithTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		var err error
		txn, err = repos.Transactions.FindByIDForUpdate(ctx, key)
		if err != nil {
			return notFoundOrInternal(err, cmd.TransactionID)
		}
		if !txn.Status.IsRefundable() || txn.GatewayTransactionID == nil {
			return domain.NewPaymentNotRefundableError(txn.ID, txn.Status)
		}

		existing, err := repos.Refunds.ListByTransaction(ctx, txn.ID)
		if err != nil {
			return domain.NewInternalError(err)
		}
		reserved, _ := domain.RefundTotals(existing)
		remaining := txn.NetAmount - reserved
		if cmd.Amount > remaining {
			return domain.NewInvalidRefundAmountError(cmd.Amount, remaining)
		}

		fee, err := s.fees.RefundFee(cmd.Amount, txn.Currency, txn.Gateway)
		if err != nil {
			return err
		}
		refund, err = domain.NewRefund(uuid.New().String(), txn.ID, cmd.Amount, fee, cmd.Reason, s.clock.Now())
		if err != nil {
			return err
		}
		if err := repos.Refunds.Create(ctx, refund); err != nil {
			return domain.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, asDomainError(err)
	}

	adapter, err := s.adapterFor(txn.Gateway)
	if err != nil {
		s.failRefund(ctx, refund, err.Error())
		return nil, err
	}

	var resp *gateway.ProviderRefundResponse
	callErr := s.callGateway(ctx, txn.Gateway, "refund", func(ctx context.Context) error {
		var err error
		resp, err = adapter.Refund(ctx, *txn.GatewayTransactionID, cmd.Amount, cmd.Reason)
		return err
	})
	if callErr != nil {
		s.failRefund(ctx, refund, callErr.Error())
		return nil, callErr
	}

	switch resp.Status {
	case domain.RefundCompleted:
		return s.completeRefund(ctx, txn, refund, resp.RefundID)
	case domain.RefundFailed, domain.RefundCancelled:
		s.failRefund(ctx, refund, "provider rejected refund: "+resp.RawStatus)
		return nil, domain.NewGatewayError(txn.Gateway, fmt.Errorf("refund %s rejected with status %s", refund.ID, resp.RawStatus))
	default:
		// Accepted but not settled yet; the amount stays reserved.
		refund.GatewayRefundID = &resp.RefundID
		refund.UpdatedAt = s.clock.Now()
		if err := s.store.Repositories().Refunds.Update(ctx, refund); err != nil {
			return nil, domain.NewInternalError(err)
		}
		s.logger.Info("refund accepted by gateway, awaiting settlement",
			"refund_id", refund.ID,
			"transaction_id", txn.ID,
			"gateway_refund_id", resp.RefundID,
		)
		return refund, nil
	}
}

func (s *PaymentService) completeRefund(ctx context.Context, txn *domain.Transaction, refund *domain.Refund, gatewayRefundID string) (*domain.Refund, error) {
	var updated *domain.Transaction

	err := s.store.WithTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		if err := refund.Complete(gatewayRefundID, s.clock.Now()); err != nil {
			return err
		}
		if err := repos.Refunds.Update(ctx, refund); err != nil {
			return err
		}

		refunds, err := repos.Refunds.ListByTransaction(ctx, txn.ID)
		if err != nil {
			return err
		}
		_, completed := domain.RefundTotals(refunds)
		to := domain.RefundOutcome(txn.NetAmount, completed)

		applied, err := repos.Transactions.CompareAndSetStatus(ctx, txn.ID, domain.RefundableStatuses, domain.StatusUpdate{
			To: to,
			At: s.clock.Now(),
		})
		if err != nil {
			return err
		}
		if !applied {
			s.logger.Warn("transaction left refundable state while refund was in flight",
				"transaction_id", txn.ID,
				"refund_id", refund.ID,
			)
			return nil
		}
		updated, err = repos.Transactions.FindByID(ctx, txn.ID)
		return err
	})
	if err != nil {
		s.logger.Error("failed to record completed refund",
			"refund_id", refund.ID,
			"transaction_id", txn.ID,
			"gateway_refund_id", gatewayRefundID,
			"error", err,
		)
		return nil, domain.NewInternalError(err)
	}

	s.logger.Info("refund completed",
		"refund_id", refund.ID,
		"transaction_id", txn.ID,
		"amount", refund.Amount,
		"fee", refund.Fee,
	)
	if updated != nil {
		s.emit(ctx, updated, func(d *domain.PaymentEventData) {
			d.RefundID = refund.ID
			d.RefundAmount = refund.Amount
		})
	}
	return refund, nil
}

func (s *PaymentService) failRefund(ctx context.Context, refund *domain.Refund, reason string) {
	if err := refund.Fail(reason, s.clock.Now()); err != nil {
		return
	}
	if err := s.store.Repositories().Refunds.Update(ctx, refund); err != nil {
		s.logger.Error("failed to release refund reservation", "refund_id", refund.ID, "error", err)
	}
}

// SettleRefunds asks providers about refunds they accepted without settling and
// records the ones that have since completed or been rejected. It returns how
// many refunds left the processing state.
func (s *PaymentService) SettleRefunds(ctx context.Context, limit int) (int, error) {
	repos := s.store.Repositories()
	outstanding, err := repos.Refunds.FindOutstanding(ctx, limit)
	if err != nil {
		return 0, domain.NewInternalError(err)
	}

	settled := 0
	for _, refund := range outstanding {
		if ctx.Err() != nil {
			return settled, ctx.Err()
		}
		done, err := s.settleRefund(ctx, repos, refund)
		if err != nil {
			s.logger.Warn("refund settlement check failed",
				"refund_id", refund.ID,
				"transaction_id", refund.TransactionID,
				"error", err,
			)
			continue
		}
		if done {
			settled++
		}
	}
	return settled, nil
}

func (s *PaymentService) settleRefund(ctx context.Context, repos domain.Repositories, refund *domain.Refund) (bool, error) {
	txn, err := repos.Transactions.FindByID(ctx, refund.TransactionID)
	if err != nil {
		return false, err
	}
	if txn.GatewayTransactionID == nil {
		return false, fmt.Errorf("transaction %s has no gateway reference", txn.ID)
	}
	adapter, err := s.adapterFor(txn.Gateway)
	if err != nil {
		return false, err
	}

	var resp *gateway.ProviderRefundResponse
	callErr := s.callGateway(ctx, txn.Gateway, "refund_status", func(ctx context.Context) error {
		var err error
		resp, err = adapter.RefundStatus(ctx, *txn.GatewayTransactionID, *refund.GatewayRefundID)
		return err
	})
	if callErr != nil {
		return false, callErr
	}

	switch resp.Status {
	case domain.RefundCompleted:
		if _, err := s.completeRefund(ctx, txn, refund, resp.RefundID); err != nil {
			return false, err
		}
		return true, nil
	case domain.RefundFailed, domain.RefundCancelled:
		s.logger.Warn("provider rejected accepted refund",
			"refund_id", refund.ID,
			"transaction_id", txn.ID,
			"provider_status", resp.RawStatus,
		)
		s.failRefund(ctx, refund, "provider rejected refund: "+resp.RawStatus)
		return true, nil
	default:
		return false, nil
	}
}

func (s *PaymentService) ListRefunds(ctx context.Context, transactionID string) ([]*domain.Refund, error) {
	repos := s.store.Repositories()
	txn, err := s.findTransaction(ctx, repos, transactionID)
	if err != nil {
		return nil, err
	}
	refunds, err := repos.Refunds.ListByTransaction(ctx, txn.ID)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	return refunds, nil
}

// asDomainError keeps coded errors and wraps anything else as INTERNAL_ERROR.
func asDomainError(err error) error {
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return domain.NewInternalError(err)
}
