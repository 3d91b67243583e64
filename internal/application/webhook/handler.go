// Package webhook turns signed provider notifications into confirmations.
package webhook

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/DanielPopoola/eventpay/internal/application"
	"github.com/DanielPopoola/eventpay/internal/application/services"
	"github.com/DanielPopoola/eventpay/internal/domain"
	"github.com/DanielPopoola/eventpay/internal/gateway"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Confirmer applies a provider outcome to a transaction.
type Confirmer interface {
	Confirm(ctx context.Context, cmd services.ConfirmCommand) (*services.ConfirmResult, error)
}

// Outcome is what the handler tells the transport layer. A notification that was
// logged is always acknowledged, even if applying it failed; the inbox row is kept
// for replay.
type Outcome struct {
	Acknowledged  bool                     `json:"acknowledged"`
	Duplicate     bool                     `json:"duplicate,omitempty"`
	Ignored       bool                     `json:"ignored,omitempty"`
	Applied       bool                     `json:"applied"`
	EventID       string                   `json:"event_id,omitempty"`
	TransactionID string                   `json:"transaction_id,omitempty"`
	Status        domain.TransactionStatus `json:"status,omitempty"`
	Error         string                   `json:"error,omitempty"`
}

type Handler struct {
	store     domain.Store
	gateways  *gateway.Registry
	confirmer Confirmer
	clock     application.Clock
	logger    *slog.Logger
}

func NewHandler(store domain.Store, gateways *gateway.Registry, confirmer Confirmer, clock application.Clock, logger *slog.Logger) *Handler {
	return &Handler{
		store:     store,
		gateways:  gateways,
		confirmer: confirmer,
		clock:     clock,
		logger:    logger,
	}
}

// SignatureHeader names the HTTP header gw signs its notifications in, or "" when gw
// is not enabled.
func (h *Handler) SignatureHeader(gw string) string {
	g, err := domain.ParseGateway(gw)
	if err != nil {
		return ""
	}
	adapter, err := h.gateways.Get(g)
	if err != nil {
		return ""
	}
	return adapter.SignatureHeader()
}

// Handle verifies, records and applies one notification from gw.
func (h *Handler) Handle(ctx context.Context, gw string, rawPayload []byte, signature string) (*Outcome, error) {
	g, err := domain.ParseGateway(gw)
	if err != nil {
		return nil, err
	}
	adapter, err := h.gateways.Get(g)
	if err != nil {
		return nil, domain.NewValidationError("gateway %s is not enabled", g)
	}

	if !adapter.ValidateWebhookSignature(rawPayload, signature) {
		h.logger.Warn("webhook signature rejected", "gateway", g, "payload_bytes", len(rawPayload))
		return nil, domain.NewInvalidSignatureError(g)
	}

	n, err := adapter.NormalizeWebhook(rawPayload)
	if err != nil {
		if errors.Is(err, gateway.ErrUnknownEvent) {
			h.logger.Debug("webhook event type ignored", "gateway", g, "error", err)
			return &Outcome{Acknowledged: true, Ignored: true}, nil
		}
		return nil, domain.NewValidationError("unreadable %s webhook: %v", g, err)
	}

	event := &domain.WebhookEvent{
		ID:              ulid.Make().String(),
		Gateway:         g,
		ProviderEventID: providerEventID(n.EventID, rawPayload),
		EventType:       n.EventType,
		TransactionRef:  n.TransactionID,
		Status:          n.Status,
		Amount:          n.Amount,
		Payload:         rawPayload,
		ReceivedAt:      h.clock.Now(),
	}

	stored, inserted, err := h.store.Repositories().Webhooks.Record(ctx, event)
	if err != nil {
		h.logger.Error("failed to record webhook", "gateway", g, "event_id", event.ProviderEventID, "error", err)
		return nil, domain.NewInternalError(err)
	}

	outcome := &Outcome{
		Acknowledged: true,
		EventID:      stored.ProviderEventID,
		Status:       stored.Status,
	}
	if !inserted && stored.IsProcessed() {
		h.logger.Info("duplicate webhook acknowledged",
			"gateway", g,
			"event_id", stored.ProviderEventID,
		)
		outcome.Duplicate = true
		return outcome, nil
	}

	res, err := h.process(ctx, stored)
	if err != nil {
		outcome.Error = err.Error()
		return outcome, nil
	}
	outcome.Applied = res.Applied
	outcome.TransactionID = res.Transaction.ID
	return outcome, nil
}

// Replay retries inbox rows that were logged but never applied. It returns how many
// were applied on this pass.
func (h *Handler) Replay(ctx context.Context, maxAttempts, limit int) (int, error) {
	pending, err := h.store.Repositories().Webhooks.FindUnprocessed(ctx, maxAttempts, limit)
	if err != nil {
		return 0, fmt.Errorf("find unprocessed webhooks: %w", err)
	}

	processed := 0
	for _, e := range pending {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}
		if _, err := h.process(ctx, e); err == nil {
			processed++
		}
	}
	if len(pending) > 0 {
		h.logger.Info("webhook replay finished", "candidates", len(pending), "processed", processed)
	}
	return processed, nil
}

// process applies a recorded notification and marks the inbox row accordingly.
func (h *Handler) process(ctx context.Context, e *domain.WebhookEvent) (*services.ConfirmResult, error) {
	inbox := h.store.Repositories().Webhooks

	res, err := h.apply(ctx, e)
	if err != nil {
		h.logger.Error("webhook processing failed",
			"gateway", e.Gateway,
			"event_id", e.ProviderEventID,
			"transaction_ref", e.TransactionRef,
			"category", application.CategorizeError(err),
			"error", err,
		)
		if markErr := inbox.MarkFailed(ctx, e.ID, err.Error()); markErr != nil {
			h.logger.Error("failed to record webhook failure", "webhook_id", e.ID, "error", markErr)
		}
		return nil, err
	}

	if err := inbox.MarkProcessed(ctx, e.ID, h.clock.Now()); err != nil {
		h.logger.Error("failed to mark webhook processed", "webhook_id", e.ID, "error", err)
	}
	h.logger.Info("webhook applied",
		"gateway", e.Gateway,
		"event_id", e.ProviderEventID,
		"transaction_id", res.Transaction.ID,
		"status", res.Transaction.Status,
		"applied", res.Applied,
	)
	return res, nil
}

func (h *Handler) apply(ctx context.Context, e *domain.WebhookEvent) (*services.ConfirmResult, error) {
	txn, err := h.resolve(ctx, e.Gateway, e.TransactionRef)
	if err != nil {
		return nil, err
	}
	return h.confirmer.Confirm(ctx, services.ConfirmCommand{
		TransactionID: txn.ID,
		StatusHint:    e.Status,
		Amount:        e.Amount,
		RawPayload:    e.Payload,
		Source:        services.SourceWebhook,
	})
}

// resolve finds the transaction a notification refers to, first by the provider's
// identifier and then by the engine's own ID, which some providers echo back.
func (h *Handler) resolve(ctx context.Context, gw domain.Gateway, ref string) (*domain.Transaction, error) {
	if ref == "" {
		return nil, domain.NewValidationError("webhook carries no transaction reference")
	}
	repo := h.store.Repositories().Transactions

	txn, err := repo.FindByGatewayTransactionID(ctx, gw, ref)
	if err == nil {
		return txn, nil
	}
	if !errors.Is(err, domain.ErrTransactionNotFound) {
		return nil, err
	}

	if uuid.Validate(ref) == nil {
		txn, err = repo.FindByID(ctx, ref)
		if err == nil && txn.Gateway == gw {
			return txn, nil
		}
		if err != nil && !errors.Is(err, domain.ErrTransactionNotFound) {
			return nil, err
		}
	}
	return nil, domain.NewPaymentNotFoundError(ref)
}

// providerEventID falls back to a digest of the payload for providers whose
// notifications carry no event identifier.
func providerEventID(id string, payload []byte) string {
	if id != "" {
		return id
	}
	sum := sha256.Sum256(payload)
	return "sha256:" + hex.EncodeToString(sum[:])
}
