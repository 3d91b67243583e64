// Package neonet adapts the NeoNet merchant API. Every request is signed with the
// merchant secret; webhooks carry a hex HMAC of the body.
package neonet

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/DanielPopoola/eventpay/internal/config"
	"github.com/DanielPopoola/eventpay/internal/domain"
	"github.com/DanielPopoola/eventpay/internal/gateway"
)

const (
	signatureHeader  = "X-Neonet-Signature"
	merchantHeader   = "X-Merchant-Id"
	timestampHeader  = "X-Timestamp"
	reqSigHeader     = "X-Signature"
	listPageSize     = 100
	maxListPageCount = 100
)

type Adapter struct {
	client        *gateway.Client
	webhookSecret string
	logger        *slog.Logger
}

func New(cfg config.NeoNetConfig, timeout time.Duration, logger *slog.Logger) *Adapter {
	return newAdapter(cfg, timeout, logger, time.Now)
}

func newAdapter(cfg config.NeoNetConfig, timeout time.Duration, logger *slog.Logger, now func() time.Time) *Adapter {
	merchantID, apiSecret := cfg.MerchantID, cfg.APISecret

	return &Adapter{
		client: gateway.NewClient(domain.GatewayNeoNet, cfg.BaseURL, timeout,
			gateway.WithSigner(func(req *http.Request, body []byte) error {
				ts := strconv.FormatInt(now().Unix(), 10)
				req.Header.Set(merchantHeader, merchantID)
				req.Header.Set(timestampHeader, ts)
				req.Header.Set(reqSigHeader, gateway.HMACHex(apiSecret, []byte(ts), []byte("."), body))
				return nil
			}),
		),
		webhookSecret: cfg.WebhookSecret,
		logger:        logger.With("gateway", domain.GatewayNeoNet),
	}
}

func (a *Adapter) Gateway() domain.Gateway { return domain.GatewayNeoNet }

func (a *Adapter) SignatureHeader() string { return signatureHeader }

type transaction struct {
	ID        string `json:"id"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	CreatedAt string `json:"created_at"`
}

type createTransactionRequest struct {
	Reference     string          `json:"reference"`
	Amount        int64           `json:"amount"`
	Currency      string          `json:"currency"`
	Description   string          `json:"description,omitempty"`
	Billing       json.RawMessage `json:"billing,omitempty"`
	PaymentMethod json.RawMessage `json:"payment_method,omitempty"`
}

type reversalRequest struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason,omitempty"`
}

type reversal struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount int64  `json:"amount"`
}

type transactionPage struct {
	Items   []transaction `json:"items"`
	HasMore bool          `json:"has_more"`
}

func (a *Adapter) Initiate(ctx context.Context, req gateway.InitiateRequest) (*gateway.ProviderResponse, error) {
	body := &createTransactionRequest{
		Reference:     req.TransactionID,
		Amount:        req.Amount,
		Currency:      string(req.Currency),
		Description:   req.Description,
		Billing:       req.BillingInfo,
		PaymentMethod: req.PaymentMethod,
	}

	txn, err := gateway.SendJSON[createTransactionRequest, transaction](ctx, a.client, http.MethodPost, "/api/v1/transactions", body, req.TransactionID)
	if err != nil {
		return nil, err
	}
	return toProviderResponse(txn), nil
}

// Confirm settles an approved authorization; settled or declined transactions are reported as they are.
func (a *Adapter) Confirm(ctx context.Context, providerTransactionID string) (*gateway.ProviderResponse, error) {
	path := "/api/v1/transactions/" + url.PathEscape(providerTransactionID)

	txn, err := gateway.SendJSON[struct{}, transaction](ctx, a.client, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}

	if txn.Status == "AUTHORIZED" {
		txn, err = gateway.SendJSON[struct{}, transaction](ctx, a.client, http.MethodPost, path+"/settle", &struct{}{}, "settle-"+providerTransactionID)
		if err != nil {
			return nil, err
		}
	}
	return toProviderResponse(txn), nil
}

func (a *Adapter) Refund(ctx context.Context, providerTransactionID string, amount int64, reason string) (*gateway.ProviderRefundResponse, error) {
	path := "/api/v1/transactions/" + url.PathEscape(providerTransactionID) + "/reversals"

	r, err := gateway.SendJSON[reversalRequest, reversal](ctx, a.client, http.MethodPost, path, &reversalRequest{Amount: amount, Reason: reason}, "")
	if err != nil {
		return nil, err
	}

	return toRefundResponse(r), nil
}

func (a *Adapter) RefundStatus(ctx context.Context, providerTransactionID, providerRefundID string) (*gateway.ProviderRefundResponse, error) {
	path := "/api/v1/transactions/" + url.PathEscape(providerTransactionID) + "/reversals/" + url.PathEscape(providerRefundID)

	r, err := gateway.SendJSON[struct{}, reversal](ctx, a.client, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	return toRefundResponse(r), nil
}

func toRefundResponse(r *reversal) *gateway.ProviderRefundResponse {
	status := domain.RefundProcessing
	switch r.Status {
	case "REVERSED":
		status = domain.RefundCompleted
	case "REJECTED":
		status = domain.RefundFailed
	}
	return &gateway.ProviderRefundResponse{RefundID: r.ID, Status: status, RawStatus: r.Status, Amount: r.Amount}
}

func (a *Adapter) ListTransactions(ctx context.Context, from, to time.Time) ([]gateway.ProviderTransaction, error) {
	var out []gateway.ProviderTransaction

	for page := 1; page <= maxListPageCount; page++ {
		q := url.Values{}
		q.Set("from", from.UTC().Format(time.RFC3339))
		q.Set("to", to.UTC().Format(time.RFC3339))
		q.Set("page", strconv.Itoa(page))
		q.Set("per_page", strconv.Itoa(listPageSize))

		res, err := gateway.SendJSON[struct{}, transactionPage](ctx, a.client, http.MethodGet, "/api/v1/transactions?"+q.Encode(), nil, "")
		if err != nil {
			return nil, err
		}
		for _, t := range res.Items {
			created, _ := time.Parse(time.RFC3339, t.CreatedAt)
			out = append(out, gateway.ProviderTransaction{
				TransactionID: t.ID,
				Status:        mapStatus(t.Status),
				Amount:        t.Amount,
				Currency:      domain.Currency(t.Currency),
				CreatedAt:     created,
			})
		}
		if !res.HasMore {
			return out, nil
		}
	}

	a.logger.Warn("transaction listing truncated", "pages", maxListPageCount)
	return out, nil
}

func (a *Adapter) ValidateWebhookSignature(rawPayload []byte, signature string) bool {
	if a.webhookSecret == "" {
		return true
	}
	return gateway.VerifyHex(a.webhookSecret, signature, rawPayload)
}

type notification struct {
	EventID       string `json:"event_id"`
	Event         string `json:"event"`
	TransactionID string `json:"transaction_id"`
	Amount        *int64 `json:"amount"`
	Currency      string `json:"currency"`
}

var eventStatuses = map[string]domain.TransactionStatus{
	"transaction.approved":  domain.StatusCompleted,
	"transaction.declined":  domain.StatusFailed,
	"transaction.reversed":  domain.StatusRefunded,
	"transaction.expired":   domain.StatusExpired,
	"chargeback.opened":     domain.StatusDisputed,
	"transaction.cancelled": domain.StatusExpired,
}

func (a *Adapter) NormalizeWebhook(rawPayload []byte) (*gateway.NormalizedWebhook, error) {
	var n notification
	if err := json.Unmarshal(rawPayload, &n); err != nil {
		return nil, fmt.Errorf("%w: %v", gateway.ErrMalformedPayload, err)
	}

	status, ok := eventStatuses[n.Event]
	if !ok {
		return nil, fmt.Errorf("%w: %s", gateway.ErrUnknownEvent, n.Event)
	}
	if n.TransactionID == "" {
		return nil, fmt.Errorf("%w: missing transaction_id", gateway.ErrMalformedPayload)
	}

	out := &gateway.NormalizedWebhook{
		EventID:       n.EventID,
		EventType:     n.Event,
		TransactionID: n.TransactionID,
		Status:        status,
		Amount:        n.Amount,
	}
	if n.Currency != "" {
		c := domain.Currency(n.Currency)
		out.Currency = &c
	}
	return out, nil
}

func toProviderResponse(t *transaction) *gateway.ProviderResponse {
	return &gateway.ProviderResponse{
		TransactionID: t.ID,
		Status:        mapStatus(t.Status),
		RawStatus:     t.Status,
		Amount:        t.Amount,
		Currency:      domain.Currency(t.Currency),
	}
}

func mapStatus(s string) domain.TransactionStatus {
	switch s {
	case "SETTLED", "APPROVED":
		return domain.StatusCompleted
	case "DECLINED":
		return domain.StatusFailed
	case "EXPIRED":
		return domain.StatusExpired
	case "VOIDED":
		return domain.StatusCancelled
	case "REVERSED":
		return domain.StatusRefunded
	default:
		return domain.StatusProcessing
	}
}

var (
	_ gateway.Adapter = (*Adapter)(nil)
	_ gateway.Lister  = (*Adapter)(nil)
)
