package services

import (
	"context"
	"fmt"
	"slices"

	"github.com/DanielPopoola/eventpay/internal/domain"
	"github.com/DanielPopoola/eventpay/internal/gateway"
)

// Confirm is the single path by which a provider outcome is applied to a
// transaction, whether it arrives by webhook, from the retry sweeper or from an
// API caller. The status change is a compare-and-set; only the caller that wins
// it runs the settlement side effects, and losers get a no-op result.
func (s *PaymentService) Confirm(ctx context.Context, cmd ConfirmCommand) (*ConfirmResult, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}

	repos := s.store.Repositories()
	txn, err := s.findTransaction(ctx, repos, cmd.TransactionID)
	if err != nil {
		return nil, err
	}

	target := cmd.StatusHint
	var gatewayRef *string

	if cmd.Source != SourceWebhook {
		if !txn.Status.IsActive() {
			return &ConfirmResult{Transaction: txn}, nil
		}

		resp, err := s.queryProvider(ctx, txn)
		if err != nil {
			return nil, err
		}
		if txn.GatewayTransactionID == nil {
			gatewayRef = &resp.TransactionID
		}

		target = resp.Status
		if target.IsActive() {
			// Provider has not decided yet; keep waiting for a webhook or expiry.
			if gatewayRef != nil {
				if _, err := repos.Transactions.AttachGatewayReference(ctx, txn.ID, *gatewayRef, s.clock.Now()); err != nil {
					return nil, domain.NewInternalError(err)
				}
				return s.unchanged(ctx, repos, txn.ID)
			}
			return &ConfirmResult{Transaction: txn}, nil
		}
	}

	if target == domain.StatusRefunded || target == domain.StatusPartiallyRefunded {
		target, err = s.refundTarget(ctx, repos, txn, cmd.Amount)
		if err != nil {
			return nil, err
		}
		if target == txn.Status {
			s.logger.Debug("refund notification does not change status",
				"transaction_id", txn.ID,
				"status", txn.Status,
				"source", cmd.Source,
			)
			return &ConfirmResult{Transaction: txn}, nil
		}
	}

	from := domain.ConfirmSources(target)
	if !slices.Contains(from, txn.Status) {
		s.logger.Debug("confirmation not applicable",
			"transaction_id", txn.ID,
			"status", txn.Status,
			"outcome", target,
			"source", cmd.Source,
		)
		return &ConfirmResult{Transaction: txn}, nil
	}

	update := domain.StatusUpdate{
		To:                   target,
		At:                   s.clock.Now(),
		GatewayTransactionID: gatewayRef,
	}
	if target == domain.StatusFailed {
		reason := fmt.Sprintf("provider reported failure via %s", cmd.Source)
		update.FailureReason = &reason
	}

	var updated *domain.Transaction
	err = s.store.WithTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		applied, err := repos.Transactions.CompareAndSetStatus(ctx, txn.ID, from, update)
		if err != nil || !applied {
			return err
		}

		if target == domain.StatusCompleted {
			if err := s.settleRegistration(ctx, repos, txn); err != nil {
				return err
			}
		}

		updated, err = repos.Transactions.FindByID(ctx, txn.ID)
		return err
	})
	if err != nil {
		s.logger.Error("failed to confirm transaction",
			"transaction_id", txn.ID,
			"outcome", target,
			"source", cmd.Source,
			"error", err,
		)
		return nil, domain.NewInternalError(err)
	}

	if updated == nil {
		// Another caller won the transition.
		return s.unchanged(ctx, repos, txn.ID)
	}

	s.logger.Info("transaction confirmed",
		"transaction_id", updated.ID,
		"from", txn.Status,
		"to", updated.Status,
		"source", cmd.Source,
	)
	s.emit(ctx, updated)

	return &ConfirmResult{Transaction: updated, Applied: true}, nil
}

// refundTarget picks partially_refunded or refunded for a refund notification. The
// provider may report refunds the engine never issued, so the larger of its figure
// and the completed refunds on record is compared with the net amount.
func (s *PaymentService) refundTarget(ctx context.Context, repos domain.Repositories, txn *domain.Transaction, reported *int64) (domain.TransactionStatus, error) {
	refunds, err := repos.Refunds.ListByTransaction(ctx, txn.ID)
	if err != nil {
		return "", domain.NewInternalError(err)
	}
	_, refunded := domain.RefundTotals(refunds)
	if reported != nil && *reported > refunded {
		refunded = *reported
	}
	return domain.RefundOutcome(txn.NetAmount, refunded), nil
}

// settleRegistration runs the one-time effects of a completed payment. It must be
// called inside the unit of work that won the completed transition.
func (s *PaymentService) settleRegistration(ctx context.Context, repos domain.Repositories, txn *domain.Transaction) error {
	confirmed, err := repos.Registrations.SetStatus(ctx, txn.RegistrationID, domain.RegistrationPendingPayment, domain.RegistrationConfirmed)
	if err != nil {
		return fmt.Errorf("confirm registration %s: %w", txn.RegistrationID, err)
	}
	if !confirmed {
		s.logger.Warn("registration no longer awaiting payment, occupancy unchanged",
			"transaction_id", txn.ID,
			"registration_id", txn.RegistrationID,
		)
		return nil
	}

	if err := repos.Events.IncrementOccupancy(ctx, txn.EventID); err != nil {
		return fmt.Errorf("increment occupancy for event %s: %w", txn.EventID, err)
	}
	return nil
}

// queryProvider asks the gateway where the transaction stands. A transaction that
// never reached the provider is submitted again under its own ID, which adapters
// send as the idempotency key.
func (s *PaymentService) queryProvider(ctx context.Context, txn *domain.Transaction) (*gateway.ProviderResponse, error) {
	adapter, err := s.adapterFor(txn.Gateway)
	if err != nil {
		return nil, err
	}

	var resp *gateway.ProviderResponse
	if txn.GatewayTransactionID != nil {
		err = s.callGateway(ctx, txn.Gateway, "confirm", func(ctx context.Context) error {
			var err error
			resp, err = adapter.Confirm(ctx, *txn.GatewayTransactionID)
			return err
		})
	} else {
		err = s.callGateway(ctx, txn.Gateway, "resubmit", func(ctx context.Context) error {
			var err error
			resp, err = adapter.Initiate(ctx, gateway.InitiateRequest{
				TransactionID: txn.ID,
				Amount:        txn.Amount,
				Currency:      txn.Currency,
				BillingInfo:   txn.BillingInfo,
				PaymentMethod: txn.PaymentMethod,
			})
			return err
		})
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *PaymentService) unchanged(ctx context.Context, repos domain.Repositories, id string) (*ConfirmResult, error) {
	current, err := s.findTransaction(ctx, repos, id)
	if err != nil {
		return nil, err
	}
	return &ConfirmResult{Transaction: current}, nil
}
