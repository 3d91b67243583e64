package services

import (
	"context"
	"errors"

	"github.com/DanielPopoola/eventpay/internal/domain"
	"github.com/DanielPopoola/eventpay/internal/gateway"
	"github.com/google/uuid"
)

// Initiate opens a payment for a registration awaiting payment and submits it to
// the chosen gateway. A provider failure leaves the transaction failed for the
// retry sweeper; it is never retried inline.
func (s *PaymentService) Initiate(ctx context.Context, cmd InitiateCommand) (*domain.Transaction, error) {
	gw, currency, err := cmd.validate()
	if err != nil {
		return nil, err
	}

	repos := s.store.Repositories()

	reg, err := repos.Registrations.Get(ctx, cmd.RegistrationID)
	if err != nil {
		if errors.Is(err, domain.ErrRegistrationNotFound) {
			return nil, domain.NewRegistrationNotFoundError(cmd.RegistrationID)
		}
		return nil, domain.NewInternalError(err)
	}
	if reg.Status != domain.RegistrationPendingPayment {
		return nil, domain.NewInvalidRegistrationStatusError(reg.ID, reg.Status)
	}

	if _, err := repos.Transactions.FindActiveByRegistration(ctx, reg.ID); err == nil {
		return nil, domain.NewPaymentAlreadyExistsError(reg.ID)
	} else if !errors.Is(err, domain.ErrTransactionNotFound) {
		return nil, domain.NewInternalError(err)
	}

	adapter, err := s.adapterFor(gw)
	if err != nil {
		return nil, err
	}
	if err := s.fees.ValidateAmount(cmd.Amount, currency, gw); err != nil {
		return nil, err
	}
	breakdown, err := s.fees.Calculate(cmd.Amount, currency, gw)
	if err != nil {
		return nil, err
	}

	storedMethod, err := s.screenPaymentMethod(cmd.PaymentMethod)
	if err != nil {
		return nil, err
	}

	if err := s.breakers.Ready(gw); err != nil {
		s.logger.Warn("rejecting payment, gateway circuit open", "gateway", gw, "registration_id", reg.ID)
		return nil, domain.NewGatewayUnavailableError(gw, err)
	}

	txn, err := domain.NewTransaction(domain.NewTransactionParams{
		ID:             uuid.New().String(),
		RegistrationID: reg.ID,
		EventID:        reg.EventID,
		Gateway:        gw,
		Amount:         breakdown.Amount,
		Currency:       currency,
		Fee:            breakdown.Fee,
		BillingInfo:    cmd.BillingInfo,
		PaymentMethod:  storedMethod,
		CreatedAt:      s.clock.Now(),
		TTL:            s.opts.PaymentTTL,
	})
	if err != nil {
		return nil, err
	}

	if err := repos.Transactions.Create(ctx, txn); err != nil {
		if errors.Is(err, domain.ErrActiveTransactionExists) {
			return nil, domain.NewPaymentAlreadyExistsError(reg.ID)
		}
		return nil, domain.NewInternalError(err)
	}
	s.emitType(ctx, domain.EventPaymentInitiated, txn)

	s.logger.Info("payment initiated",
		"transaction_id", txn.ID,
		"registration_id", reg.ID,
		"gateway", gw,
		"amount", txn.Amount,
		"currency", txn.Currency,
		"fee", txn.Fee,
	)

	var resp *gateway.ProviderResponse
	callErr := s.callGateway(ctx, gw, "initiate", func(ctx context.Context) error {
		var err error
		resp, err = adapter.Initiate(ctx, gateway.InitiateRequest{
			TransactionID: txn.ID,
			Amount:        txn.Amount,
			Currency:      txn.Currency,
			Description:   cmd.Description,
			BillingInfo:   cmd.BillingInfo,
			PaymentMethod: cmd.PaymentMethod,
		})
		return err
	})
	if callErr != nil {
		// Admission was lost between Ready and Allow: nothing reached the provider.
		to := domain.StatusFailed
		if domain.IsErrorCode(callErr, domain.ErrCodeGatewayUnavailable) {
			to = domain.StatusCancelled
		}
		reason := callErr.Error()
		if updated, err := s.transition(ctx, txn.ID, []domain.TransactionStatus{domain.StatusPending}, domain.StatusUpdate{
			To:            to,
			At:            s.clock.Now(),
			FailureReason: &reason,
		}); err == nil && updated != nil {
			s.emit(ctx, updated)
		}
		return nil, callErr
	}

	updated, err := s.transition(ctx, txn.ID, []domain.TransactionStatus{domain.StatusPending}, domain.StatusUpdate{
		To:                   domain.StatusProcessing,
		At:                   s.clock.Now(),
		GatewayTransactionID: &resp.TransactionID,
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		// A webhook settled the transaction before the submit response was recorded.
		if _, err := repos.Transactions.AttachGatewayReference(ctx, txn.ID, resp.TransactionID, s.clock.Now()); err != nil {
			s.logger.Error("failed to attach gateway reference", "transaction_id", txn.ID, "error", err)
		}
		return s.findTransaction(ctx, repos, txn.ID)
	}

	s.logger.Info("payment submitted to gateway",
		"transaction_id", updated.ID,
		"gateway", gw,
		"gateway_transaction_id", resp.TransactionID,
		"provider_status", resp.RawStatus,
	)
	return updated, nil
}

// transition applies a guarded status change outside a unit of work and returns
// the updated transaction, or nil when the guard did not match.
func (s *PaymentService) transition(ctx context.Context, id string, from []domain.TransactionStatus, u domain.StatusUpdate) (*domain.Transaction, error) {
	repos := s.store.Repositories()

	applied, err := repos.Transactions.CompareAndSetStatus(ctx, id, from, u)
	if err != nil {
		s.logger.Error("failed to update transaction status", "transaction_id", id, "to", u.To, "error", err)
		return nil, domain.NewInternalError(err)
	}
	if !applied {
		return nil, nil
	}
	return s.findTransaction(ctx, repos, id)
}
