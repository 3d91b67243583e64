package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/DanielPopoola/eventpay/internal/application"
	"github.com/DanielPopoola/eventpay/internal/application/services"
	"github.com/DanielPopoola/eventpay/internal/config"
	"github.com/DanielPopoola/eventpay/internal/domain"
)

// PaymentRecoverer is the part of the payment service the sweeper drives.
type PaymentRecoverer interface {
	Confirm(ctx context.Context, cmd services.ConfirmCommand) (*services.ConfirmResult, error)
	ExpireStale(ctx context.Context, now time.Time, limit int) (int, error)
	SettleRefunds(ctx context.Context, limit int) (int, error)
}

// WebhookReplayer re-applies provider notifications that were logged but not applied.
type WebhookReplayer interface {
	Replay(ctx context.Context, maxAttempts, limit int) (int, error)
}

type Settings struct {
	Interval           time.Duration
	BatchSize          int
	RetryCoolDown      time.Duration
	MaxRetries         int
	MaxWebhookAttempts int
}

func SettingsFromConfig(cfg config.WorkerConfig) Settings {
	return Settings{
		Interval:           cfg.Interval,
		BatchSize:          cfg.BatchSize,
		RetryCoolDown:      cfg.RetryCoolDown,
		MaxRetries:         cfg.MaxRetries,
		MaxWebhookAttempts: cfg.MaxWebhookAttempts,
	}
}

func DefaultSettings() Settings {
	return Settings{
		Interval:           5 * time.Minute,
		BatchSize:          50,
		RetryCoolDown:      2 * time.Minute,
		MaxRetries:         3,
		MaxWebhookAttempts: 5,
	}
}

// SweepResult summarizes one pass.
type SweepResult struct {
	Retried          int
	Recovered        int
	Flagged          int
	Expired          int
	RefundsSettled   int
	WebhooksReplayed int
}

// RetrySweeper periodically re-checks failed transactions with their provider,
// expires payments past their window, settles accepted refunds and replays
// unapplied webhooks.
type RetrySweeper struct {
	store    domain.Store
	payments PaymentRecoverer
	webhooks WebhookReplayer
	clock    application.Clock
	settings Settings
	logger   *slog.Logger

	mu      sync.Mutex
	stop    chan struct{}
	wg      sync.WaitGroup
	running bool
}

func NewRetrySweeper(
	store domain.Store,
	payments PaymentRecoverer,
	webhooks WebhookReplayer,
	clock application.Clock,
	settings Settings,
	logger *slog.Logger,
) *RetrySweeper {
	defaults := DefaultSettings()
	if settings.Interval <= 0 {
		settings.Interval = defaults.Interval
	}
	if settings.BatchSize <= 0 {
		settings.BatchSize = defaults.BatchSize
	}
	if settings.MaxRetries <= 0 {
		settings.MaxRetries = defaults.MaxRetries
	}
	if settings.MaxWebhookAttempts <= 0 {
		settings.MaxWebhookAttempts = defaults.MaxWebhookAttempts
	}

	return &RetrySweeper{
		store:    store,
		payments: payments,
		webhooks: webhooks,
		clock:    clock,
		settings: settings,
		logger:   logger,
	}
}

// Start runs a sweep every interval until Stop is called or ctx is done.
func (w *RetrySweeper) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true
	w.stop = make(chan struct{})
	stop := w.stop

	w.wg.Go(func() {
		w.logger.Info("retry sweeper started", "interval", w.settings.Interval)
		ticker := time.NewTicker(w.settings.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				w.logger.Info("retry sweeper stopping")
				return
			case <-stop:
				w.logger.Info("retry sweeper stopping")
				return
			case <-ticker.C:
				if _, err := w.RunOnce(ctx); err != nil {
					w.logger.Error("sweep failed", "error", err)
				}
			}
		}
	})
}

// Stop asks the loop to exit and waits for an in-flight sweep, or for ctx.
func (w *RetrySweeper) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	close(w.stop)
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("retry sweeper did not stop: %w", ctx.Err())
	}
}

// RunOnce performs a single sweep: retries, expiry, refund settlement, then webhook replay.
func (w *RetrySweeper) RunOnce(ctx context.Context) (SweepResult, error) {
	var result SweepResult
	var errs []error

	if err := w.processRetries(ctx, &result); err != nil {
		errs = append(errs, err)
	}

	expired, err := w.payments.ExpireStale(ctx, w.clock.Now(), w.settings.BatchSize)
	result.Expired = expired
	if err != nil {
		errs = append(errs, fmt.Errorf("expire stale payments: %w", err))
	}

	settled, err := w.payments.SettleRefunds(ctx, w.settings.BatchSize)
	result.RefundsSettled = settled
	if err != nil {
		errs = append(errs, fmt.Errorf("settle refunds: %w", err))
	}

	if w.webhooks != nil {
		replayed, err := w.webhooks.Replay(ctx, w.settings.MaxWebhookAttempts, w.settings.BatchSize)
		result.WebhooksReplayed = replayed
		if err != nil {
			errs = append(errs, fmt.Errorf("replay webhooks: %w", err))
		}
	}

	if result != (SweepResult{}) {
		w.logger.Info("sweep finished",
			"retried", result.Retried,
			"recovered", result.Recovered,
			"flagged", result.Flagged,
			"expired", result.Expired,
			"refunds_settled", result.RefundsSettled,
			"webhooks_replayed", result.WebhooksReplayed,
		)
	}
	return result, errors.Join(errs...)
}

func (w *RetrySweeper) processRetries(ctx context.Context, result *SweepResult) error {
	now := w.clock.Now()
	candidates, err := w.store.Repositories().Transactions.FindRetryable(
		ctx, w.settings.MaxRetries, now.Add(-w.settings.RetryCoolDown), w.settings.BatchSize,
	)
	if err != nil {
		return fmt.Errorf("find retryable transactions: %w", err)
	}

	for _, txn := range candidates {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.retry(ctx, txn, result)
	}
	return nil
}

// retry claims a failed transaction, asks the provider where it stands and puts it
// back to failed if that does not settle it.
func (w *RetrySweeper) retry(ctx context.Context, txn *domain.Transaction, result *SweepResult) {
	repo := w.store.Repositories().Transactions

	claimed, superseded, err := w.claim(ctx, txn)
	if errors.Is(err, domain.ErrActiveTransactionExists) {
		// Lost a race with a new attempt for the same registration.
		superseded = err.Error()
		err = nil
	}
	if err != nil {
		w.logger.Error("failed to claim transaction for retry", "transaction_id", txn.ID, "error", err)
		return
	}
	if superseded != "" {
		w.logger.Warn("failed transaction superseded, not retrying",
			"transaction_id", txn.ID,
			"registration_id", txn.RegistrationID,
			"reason", superseded,
		)
		if w.flagForReview(ctx, txn, txn.RetryCount, errors.New(superseded)) {
			result.Flagged++
		}
		return
	}
	if !claimed {
		return
	}
	result.Retried++
	attempt := txn.RetryCount + 1

	res, confirmErr := w.payments.Confirm(ctx, services.ConfirmCommand{
		TransactionID: txn.ID,
		StatusHint:    domain.StatusCompleted,
		Source:        services.SourceRetry,
	})

	if confirmErr == nil {
		switch res.Transaction.Status {
		case domain.StatusCompleted:
			result.Recovered++
			w.logger.Info("transaction recovered by retry", "transaction_id", txn.ID, "attempt", attempt)
			return
		case domain.StatusProcessing, domain.StatusPending:
			w.logger.Info("provider has not settled transaction yet", "transaction_id", txn.ID, "attempt", attempt)
			return
		case domain.StatusFailed:
			// Provider confirmed the failure; Confirm already recorded it.
		default:
			return
		}
	} else {
		// The claim must be undone even when shutdown cancelled the provider call.
		reason := fmt.Sprintf("retry %d failed: %v", attempt, confirmErr)
		if _, err := repo.CompareAndSetStatus(context.WithoutCancel(ctx), txn.ID, []domain.TransactionStatus{domain.StatusProcessing}, domain.StatusUpdate{
			To:            domain.StatusFailed,
			At:            w.clock.Now(),
			FailureReason: &reason,
		}); err != nil {
			w.logger.Error("failed to return transaction to failed", "transaction_id", txn.ID, "error", err)
			return
		}
	}

	category := application.CategorizeError(confirmErr)
	w.logger.Warn("retry did not recover transaction",
		"transaction_id", txn.ID,
		"attempt", attempt,
		"category", category,
		"error", confirmErr,
	)

	if attempt >= w.settings.MaxRetries || category == application.CategoryPermanent {
		if w.flagForReview(context.WithoutCancel(ctx), txn, attempt, confirmErr) {
			result.Flagged++
		}
	}
}

// claim moves txn from failed back to processing. When the registration has moved
// on it claims nothing and returns the reason instead.
func (w *RetrySweeper) claim(ctx context.Context, txn *domain.Transaction) (claimed bool, superseded string, err error) {
	err = w.store.WithTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		reg, err := repos.Registrations.Get(ctx, txn.RegistrationID)
		if err != nil {
			return fmt.Errorf("load registration %s: %w", txn.RegistrationID, err)
		}
		if reg.Status != domain.RegistrationPendingPayment {
			superseded = fmt.Sprintf("registration %s is %s", reg.ID, reg.Status)
			return nil
		}

		active, err := repos.Transactions.FindActiveByRegistration(ctx, txn.RegistrationID)
		switch {
		case err == nil && active.ID != txn.ID:
			superseded = fmt.Sprintf("registration has newer active transaction %s", active.ID)
			return nil
		case err != nil && !errors.Is(err, domain.ErrTransactionNotFound):
			return fmt.Errorf("find active transaction: %w", err)
		}

		claimed, err = repos.Transactions.CompareAndSetStatus(ctx, txn.ID, []domain.TransactionStatus{domain.StatusFailed}, domain.StatusUpdate{
			To:    domain.StatusProcessing,
			At:    w.clock.Now(),
			Retry: true,
		})
		return err
	})
	return claimed, superseded, err
}
