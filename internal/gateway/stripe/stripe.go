// Package stripe adapts the Stripe PaymentIntents API.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/DanielPopoola/eventpay/internal/config"
	"github.com/DanielPopoola/eventpay/internal/domain"
	"github.com/DanielPopoola/eventpay/internal/gateway"
)

const signatureHeader = "Stripe-Signature"

type Adapter struct {
	client        *gateway.Client
	webhookSecret string
	tolerance     time.Duration
	now           func() time.Time
	logger        *slog.Logger
}

func New(cfg config.StripeConfig, timeout time.Duration, logger *slog.Logger) *Adapter {
	secretKey := cfg.SecretKey
	tolerance := cfg.WebhookTolerance
	if tolerance == 0 {
		tolerance = 5 * time.Minute
	}

	return &Adapter{
		client: gateway.NewClient(domain.GatewayStripe, cfg.BaseURL, timeout,
			gateway.WithSigner(func(req *http.Request, _ []byte) error {
				req.Header.Set("Authorization", "Bearer "+secretKey)
				return nil
			}),
			gateway.WithErrorDecoder(decodeError),
		),
		webhookSecret: cfg.WebhookSecret,
		tolerance:     tolerance,
		now:           time.Now,
		logger:        logger.With("gateway", domain.GatewayStripe),
	}
}

func (a *Adapter) Gateway() domain.Gateway { return domain.GatewayStripe }

func (a *Adapter) SignatureHeader() string { return signatureHeader }

type paymentIntent struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Created  int64  `json:"created"`
}

type refund struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount int64  `json:"amount"`
}

type intentList struct {
	Data    []paymentIntent `json:"data"`
	HasMore bool            `json:"has_more"`
}

func (a *Adapter) Initiate(ctx context.Context, req gateway.InitiateRequest) (*gateway.ProviderResponse, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.Amount, 10))
	form.Set("currency", strings.ToLower(string(req.Currency)))
	form.Set("capture_method", "manual")
	form.Set("description", req.Description)
	form.Set("metadata[transaction_id]", req.TransactionID)
	if pm := paymentMethodID(req.PaymentMethod); pm != "" {
		form.Set("payment_method", pm)
		form.Set("confirm", "true")
	}

	pi, err := gateway.SendForm[paymentIntent](ctx, a.client, http.MethodPost, "/v1/payment_intents", form, req.TransactionID)
	if err != nil {
		return nil, err
	}
	return toProviderResponse(pi), nil
}

// Confirm captures an intent that is waiting for capture and otherwise reports its current state.
func (a *Adapter) Confirm(ctx context.Context, providerTransactionID string) (*gateway.ProviderResponse, error) {
	path := "/v1/payment_intents/" + url.PathEscape(providerTransactionID)

	pi, err := gateway.SendForm[paymentIntent](ctx, a.client, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}

	if pi.Status == "requires_capture" {
		pi, err = gateway.SendForm[paymentIntent](ctx, a.client, http.MethodPost, path+"/capture", url.Values{}, "capture-"+providerTransactionID)
		if err != nil {
			return nil, err
		}
	}
	return toProviderResponse(pi), nil
}

func (a *Adapter) Refund(ctx context.Context, providerTransactionID string, amount int64, reason string) (*gateway.ProviderRefundResponse, error) {
	form := url.Values{}
	form.Set("payment_intent", providerTransactionID)
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("reason", "requested_by_customer")
	form.Set("metadata[reason]", reason)

	r, err := gateway.SendForm[refund](ctx, a.client, http.MethodPost, "/v1/refunds", form, "")
	if err != nil {
		return nil, err
	}

	return toRefundResponse(r), nil
}

func (a *Adapter) RefundStatus(ctx context.Context, _ string, providerRefundID string) (*gateway.ProviderRefundResponse, error) {
	r, err := gateway.SendForm[refund](ctx, a.client, http.MethodGet, "/v1/refunds/"+url.PathEscape(providerRefundID), nil, "")
	if err != nil {
		return nil, err
	}
	return toRefundResponse(r), nil
}

func toRefundResponse(r *refund) *gateway.ProviderRefundResponse {
	status := domain.RefundProcessing
	switch r.Status {
	case "succeeded":
		status = domain.RefundCompleted
	case "failed", "canceled":
		status = domain.RefundFailed
	}
	return &gateway.ProviderRefundResponse{RefundID: r.ID, Status: status, RawStatus: r.Status, Amount: r.Amount}
}

func (a *Adapter) ListTransactions(ctx context.Context, from, to time.Time) ([]gateway.ProviderTransaction, error) {
	var out []gateway.ProviderTransaction
	startingAfter := ""

	for {
		q := url.Values{}
		q.Set("limit", "100")
		q.Set("created[gte]", strconv.FormatInt(from.Unix(), 10))
		q.Set("created[lte]", strconv.FormatInt(to.Unix(), 10))
		if startingAfter != "" {
			q.Set("starting_after", startingAfter)
		}

		page, err := gateway.SendForm[intentList](ctx, a.client, http.MethodGet, "/v1/payment_intents?"+q.Encode(), nil, "")
		if err != nil {
			return nil, err
		}
		for _, pi := range page.Data {
			out = append(out, gateway.ProviderTransaction{
				TransactionID: pi.ID,
				Status:        mapIntentStatus(pi.Status),
				Amount:        pi.Amount,
				Currency:      domain.Currency(strings.ToUpper(pi.Currency)),
				CreatedAt:     time.Unix(pi.Created, 0).UTC(),
			})
		}
		if !page.HasMore || len(page.Data) == 0 {
			return out, nil
		}
		startingAfter = page.Data[len(page.Data)-1].ID
	}
}

// ValidateWebhookSignature checks a "t=<unix>,v1=<hex>" header signed over "<t>.<payload>".
func (a *Adapter) ValidateWebhookSignature(rawPayload []byte, signature string) bool {
	if a.webhookSecret == "" {
		return true
	}

	var timestamp string
	var candidates []string
	for _, part := range strings.Split(signature, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			timestamp = v
		case "v1":
			candidates = append(candidates, v)
		}
	}
	if timestamp == "" || len(candidates) == 0 {
		return false
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	if age := a.now().Sub(time.Unix(ts, 0)); age > a.tolerance || age < -a.tolerance {
		a.logger.Warn("stripe webhook timestamp outside tolerance", "age", age)
		return false
	}

	for _, c := range candidates {
		if gateway.VerifyHex(a.webhookSecret, c, []byte(timestamp), []byte("."), rawPayload) {
			return true
		}
	}
	return false
}

type event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID             string `json:"id"`
			Object         string `json:"object"`
			PaymentIntent  string `json:"payment_intent"`
			Amount         int64  `json:"amount"`
			AmountRefunded int64  `json:"amount_refunded"`
			Currency       string `json:"currency"`
		} `json:"object"`
	} `json:"data"`
}

var eventStatuses = map[string]domain.TransactionStatus{
	"payment_intent.succeeded":      domain.StatusCompleted,
	"payment_intent.payment_failed": domain.StatusFailed,
	"payment_intent.canceled":       domain.StatusCancelled,
	"charge.refunded":               domain.StatusRefunded,
	"charge.dispute.created":        domain.StatusDisputed,
}

func (a *Adapter) NormalizeWebhook(rawPayload []byte) (*gateway.NormalizedWebhook, error) {
	var ev event
	if err := json.Unmarshal(rawPayload, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", gateway.ErrMalformedPayload, err)
	}

	status, ok := eventStatuses[ev.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", gateway.ErrUnknownEvent, ev.Type)
	}

	obj := ev.Data.Object
	txnID := obj.ID
	if obj.Object != "payment_intent" && obj.PaymentIntent != "" {
		txnID = obj.PaymentIntent
	}
	if txnID == "" {
		return nil, fmt.Errorf("%w: missing payment intent id", gateway.ErrMalformedPayload)
	}

	n := &gateway.NormalizedWebhook{
		EventID:       ev.ID,
		EventType:     ev.Type,
		TransactionID: txnID,
		Status:        status,
	}
	amount := obj.Amount
	if status == domain.StatusRefunded {
		// A charge reports its full amount; what matters is how much of it went back.
		amount = obj.AmountRefunded
	}
	if amount > 0 {
		n.Amount = &amount
	}
	if obj.Currency != "" {
		c := domain.Currency(strings.ToUpper(obj.Currency))
		n.Currency = &c
	}
	return n, nil
}

func toProviderResponse(pi *paymentIntent) *gateway.ProviderResponse {
	return &gateway.ProviderResponse{
		TransactionID: pi.ID,
		Status:        mapIntentStatus(pi.Status),
		RawStatus:     pi.Status,
		Amount:        pi.Amount,
		Currency:      domain.Currency(strings.ToUpper(pi.Currency)),
	}
}

func mapIntentStatus(s string) domain.TransactionStatus {
	switch s {
	case "succeeded":
		return domain.StatusCompleted
	case "canceled":
		return domain.StatusCancelled
	case "requires_payment_method":
		return domain.StatusPending
	default:
		return domain.StatusProcessing
	}
}

func paymentMethodID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var pm struct {
		ID    string `json:"id"`
		Token string `json:"token"`
	}
	if err := json.Unmarshal(raw, &pm); err != nil {
		return ""
	}
	if pm.ID != "" {
		return pm.ID
	}
	return pm.Token
}

func decodeError(statusCode int, body []byte) (string, string) {
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return http.StatusText(statusCode), string(body)
	}
	code := payload.Error.Code
	if code == "" {
		code = payload.Error.Type
	}
	return code, payload.Error.Message
}

var (
	_ gateway.Adapter = (*Adapter)(nil)
	_ gateway.Lister  = (*Adapter)(nil)
)
