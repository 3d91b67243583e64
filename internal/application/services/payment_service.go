package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/DanielPopoola/eventpay/internal/application"
	"github.com/DanielPopoola/eventpay/internal/breaker"
	"github.com/DanielPopoola/eventpay/internal/card"
	"github.com/DanielPopoola/eventpay/internal/domain"
	"github.com/DanielPopoola/eventpay/internal/fees"
	"github.com/DanielPopoola/eventpay/internal/gateway"
	"github.com/google/uuid"
)

type Options struct {
	// GatewayTimeout bounds every adapter call. A call that runs out is a breaker failure.
	GatewayTimeout time.Duration
	// PaymentTTL is how long a transaction may stay pending or processing.
	PaymentTTL time.Duration
}

func DefaultOptions() Options {
	return Options{
		GatewayTimeout: 45 * time.Second,
		PaymentTTL:     30 * time.Minute,
	}
}

// PaymentService drives the transaction state machine. Every provider call goes
// through the breaker; every status change is a guarded write.
type PaymentService struct {
	store    domain.Store
	gateways *gateway.Registry
	breakers breaker.Breaker
	fees     *fees.Calculator
	cards    *card.Validator
	events   application.EventSink
	clock    application.Clock
	logger   *slog.Logger
	opts     Options
}

func NewPaymentService(
	store domain.Store,
	gateways *gateway.Registry,
	breakers breaker.Breaker,
	calculator *fees.Calculator,
	events application.EventSink,
	clock application.Clock,
	logger *slog.Logger,
	opts Options,
) *PaymentService {
	defaults := DefaultOptions()
	if opts.GatewayTimeout <= 0 {
		opts.GatewayTimeout = defaults.GatewayTimeout
	}
	if opts.PaymentTTL <= 0 {
		opts.PaymentTTL = defaults.PaymentTTL
	}

	return &PaymentService{
		store:    store,
		gateways: gateways,
		breakers: breakers,
		fees:     calculator,
		cards:    card.NewValidatorWithClock(clock.Now),
		events:   events,
		clock:    clock,
		logger:   logger,
		opts:     opts,
	}
}

// ValidateCard checks a card without sending it anywhere.
func (s *PaymentService) ValidateCard(number string, month, year int) card.Result {
	return s.cards.Validate(number, month, year)
}

// callGateway runs fn through the gateway's breaker with the configured timeout.
// An open breaker yields GATEWAY_UNAVAILABLE; a provider failure GATEWAY_ERROR.
func (s *PaymentService) callGateway(ctx context.Context, gw domain.Gateway, op string, fn func(ctx context.Context) error) error {
	done, err := s.breakers.Allow(gw)
	if err != nil {
		s.logger.Warn("gateway call rejected by circuit breaker", "gateway", gw, "operation", op)
		return domain.NewGatewayUnavailableError(gw, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.GatewayTimeout)
	defer cancel()

	if err := fn(callCtx); err != nil {
		done(false)
		s.logger.Error("gateway call failed",
			"gateway", gw,
			"operation", op,
			"category", application.CategorizeError(err),
			"error", err,
		)
		return domain.NewGatewayError(gw, err)
	}
	done(true)
	return nil
}

func (s *PaymentService) adapterFor(gw domain.Gateway) (gateway.Adapter, error) {
	adapter, err := s.gateways.Get(gw)
	if err != nil {
		return nil, domain.NewValidationError("gateway %s is not enabled", gw)
	}
	return adapter, nil
}

// emit announces the transaction's current status, if that status has an event.
func (s *PaymentService) emit(ctx context.Context, t *domain.Transaction, decorate ...func(*domain.PaymentEventData)) {
	eventType, ok := domain.EventTypeFor(t.Status)
	if !ok {
		return
	}
	s.emitType(ctx, eventType, t, decorate...)
}

func (s *PaymentService) emitType(ctx context.Context, eventType string, t *domain.Transaction, decorate ...func(*domain.PaymentEventData)) {
	data := domain.NewPaymentEventData(t, s.clock.Now())
	for _, fn := range decorate {
		fn(&data)
	}
	s.events.Emit(ctx, eventType, data)
}

func (s *PaymentService) findTransaction(ctx context.Context, repos domain.Repositories, id string) (*domain.Transaction, error) {
	key, ok := transactionKey(id)
	if !ok {
		return nil, domain.NewPaymentNotFoundError(id)
	}
	t, err := repos.Transactions.FindByID(ctx, key)
	if err != nil {
		return nil, notFoundOrInternal(err, id)
	}
	return t, nil
}

// transactionKey canonicalizes an engine transaction ID. Anything that is not a
// UUID cannot name a transaction.
func transactionKey(id string) (string, bool) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

func notFoundOrInternal(err error, id string) error {
	if errors.Is(err, domain.ErrTransactionNotFound) {
		return domain.NewPaymentNotFoundError(id)
	}
	return domain.NewInternalError(err)
}
