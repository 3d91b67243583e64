// Package paypal adapts the PayPal Orders v2 API.
package paypal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/DanielPopoola/eventpay/internal/config"
	"github.com/DanielPopoola/eventpay/internal/domain"
	"github.com/DanielPopoola/eventpay/internal/gateway"
)

const signatureHeader = "Paypal-Transmission-Sig"

type Adapter struct {
	client        *gateway.Client
	webhookSecret string
	logger        *slog.Logger
}

func New(cfg config.PayPalConfig, timeout time.Duration, logger *slog.Logger) *Adapter {
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.BaseURL + "/v1/oauth2/token",
	}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: timeout})

	return &Adapter{
		client: gateway.NewClient(domain.GatewayPayPal, cfg.BaseURL, timeout,
			gateway.WithHTTPClient(cc.Client(tokenCtx)),
			gateway.WithSigner(func(req *http.Request, _ []byte) error {
				if key := req.Header.Get("Idempotency-Key"); key != "" {
					req.Header.Set("PayPal-Request-Id", key)
				}
				return nil
			}),
			gateway.WithErrorDecoder(decodeError),
		),
		webhookSecret: cfg.WebhookSecret,
		logger:        logger.With("gateway", domain.GatewayPayPal),
	}
}

func (a *Adapter) Gateway() domain.Gateway { return domain.GatewayPayPal }

func (a *Adapter) SignatureHeader() string { return signatureHeader }

type money struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type capture struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount money  `json:"amount"`
}

type purchaseUnit struct {
	ReferenceID string `json:"reference_id,omitempty"`
	Description string `json:"description,omitempty"`
	Amount      money  `json:"amount"`
	Payments    *struct {
		Captures []capture `json:"captures"`
	} `json:"payments,omitempty"`
}

type order struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	PurchaseUnits []purchaseUnit `json:"purchase_units"`
}

type createOrderRequest struct {
	Intent        string         `json:"intent"`
	PurchaseUnits []purchaseUnit `json:"purchase_units"`
}

type refundRequest struct {
	Amount      money  `json:"amount"`
	NoteToPayer string `json:"note_to_payer,omitempty"`
}

type refundResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount money  `json:"amount"`
}

func (a *Adapter) Initiate(ctx context.Context, req gateway.InitiateRequest) (*gateway.ProviderResponse, error) {
	body := &createOrderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []purchaseUnit{{
			ReferenceID: req.TransactionID,
			Description: req.Description,
			Amount:      toMoney(req.Amount, req.Currency),
		}},
	}

	o, err := gateway.SendJSON[createOrderRequest, order](ctx, a.client, http.MethodPost, "/v2/checkout/orders", body, req.TransactionID)
	if err != nil {
		return nil, err
	}
	return toProviderResponse(o)
}

// Confirm captures the order. An order captured earlier is read back instead.
func (a *Adapter) Confirm(ctx context.Context, providerTransactionID string) (*gateway.ProviderResponse, error) {
	path := "/v2/checkout/orders/" + url.PathEscape(providerTransactionID)

	o, err := gateway.SendJSON[struct{}, order](ctx, a.client, http.MethodPost, path+"/capture", &struct{}{}, "capture-"+providerTransactionID)
	if err != nil {
		var gwErr *gateway.Error
		if !errors.As(err, &gwErr) || (gwErr.Code != "ORDER_ALREADY_CAPTURED" && gwErr.Code != "ORDER_NOT_APPROVED") {
			return nil, err
		}
		a.logger.Info("order not capturable, reading current state", "order_id", providerTransactionID, "reason", gwErr.Code)

		o, err = gateway.SendJSON[struct{}, order](ctx, a.client, http.MethodGet, path, nil, "")
		if err != nil {
			return nil, err
		}
	}
	return toProviderResponse(o)
}

func (a *Adapter) Refund(ctx context.Context, providerTransactionID string, amount int64, reason string) (*gateway.ProviderRefundResponse, error) {
	o, err := gateway.SendJSON[struct{}, order](ctx, a.client, http.MethodGet, "/v2/checkout/orders/"+url.PathEscape(providerTransactionID), nil, "")
	if err != nil {
		return nil, err
	}

	c, currency := firstCapture(o)
	if c == nil {
		return nil, &gateway.Error{
			Gateway:    domain.GatewayPayPal,
			Code:       "CAPTURE_NOT_FOUND",
			Message:    "order " + providerTransactionID + " has no capture to refund",
			StatusCode: http.StatusUnprocessableEntity,
		}
	}

	body := &refundRequest{Amount: toMoney(amount, currency), NoteToPayer: reason}
	r, err := gateway.SendJSON[refundRequest, refundResponse](ctx, a.client, http.MethodPost, "/v2/payments/captures/"+url.PathEscape(c.ID)+"/refund", body, "")
	if err != nil {
		return nil, err
	}

	return toRefundResponse(r, amount), nil
}

// RefundStatus reads a capture refund by id; PayPal refunds are not nested under the order.
func (a *Adapter) RefundStatus(ctx context.Context, _ string, providerRefundID string) (*gateway.ProviderRefundResponse, error) {
	r, err := gateway.SendJSON[struct{}, refundResponse](ctx, a.client, http.MethodGet, "/v2/payments/refunds/"+url.PathEscape(providerRefundID), nil, "")
	if err != nil {
		return nil, err
	}
	return toRefundResponse(r, 0), nil
}

func toRefundResponse(r *refundResponse, requested int64) *gateway.ProviderRefundResponse {
	refunded, err := fromMoney(r.Amount)
	if err != nil {
		refunded = requested
	}

	status := domain.RefundProcessing
	switch r.Status {
	case "COMPLETED":
		status = domain.RefundCompleted
	case "FAILED", "CANCELLED":
		status = domain.RefundFailed
	}
	return &gateway.ProviderRefundResponse{RefundID: r.ID, Status: status, RawStatus: r.Status, Amount: refunded}
}

type transactionSearch struct {
	TransactionDetails []struct {
		TransactionInfo struct {
			TransactionID     string `json:"transaction_id"`
			PayPalReferenceID string `json:"paypal_reference_id"`
			TransactionStatus string `json:"transaction_status"`
			TransactionAmount money  `json:"transaction_amount"`
			InitiationDate    string `json:"transaction_initiation_date"`
		} `json:"transaction_info"`
	} `json:"transaction_details"`
	Page       int `json:"page"`
	TotalPages int `json:"total_pages"`
}

func (a *Adapter) ListTransactions(ctx context.Context, from, to time.Time) ([]gateway.ProviderTransaction, error) {
	var out []gateway.ProviderTransaction

	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("start_date", from.UTC().Format(time.RFC3339))
		q.Set("end_date", to.UTC().Format(time.RFC3339))
		q.Set("page_size", "100")
		q.Set("page", strconv.Itoa(page))

		res, err := gateway.SendJSON[struct{}, transactionSearch](ctx, a.client, http.MethodGet, "/v1/reporting/transactions?"+q.Encode(), nil, "")
		if err != nil {
			return nil, err
		}

		for _, d := range res.TransactionDetails {
			info := d.TransactionInfo
			amount, err := fromMoney(info.TransactionAmount)
			if err != nil || amount <= 0 {
				continue
			}
			id := info.PayPalReferenceID
			if id == "" {
				id = info.TransactionID
			}
			created, _ := time.Parse(time.RFC3339, info.InitiationDate)
			out = append(out, gateway.ProviderTransaction{
				TransactionID: id,
				Status:        mapReportStatus(info.TransactionStatus),
				Amount:        amount,
				Currency:      domain.Currency(info.TransactionAmount.CurrencyCode),
				CreatedAt:     created,
			})
		}

		if page >= res.TotalPages {
			return out, nil
		}
	}
}

// ValidateWebhookSignature checks a hex HMAC-SHA256 of the raw body.
func (a *Adapter) ValidateWebhookSignature(rawPayload []byte, signature string) bool {
	if a.webhookSecret == "" {
		return true
	}
	return gateway.VerifyHex(a.webhookSecret, signature, rawPayload)
}

type event struct {
	ID        string `json:"id"`
	EventType string `json:"event_type"`
	Resource  struct {
		ID                string `json:"id"`
		Status            string `json:"status"`
		Amount            *money `json:"amount"`
		SupplementaryData struct {
			RelatedIDs struct {
				OrderID string `json:"order_id"`
			} `json:"related_ids"`
		} `json:"supplementary_data"`
	} `json:"resource"`
}

var eventStatuses = map[string]domain.TransactionStatus{
	"PAYMENT.CAPTURE.COMPLETED": domain.StatusCompleted,
	"PAYMENT.CAPTURE.DENIED":    domain.StatusFailed,
	"PAYMENT.CAPTURE.REFUNDED":  domain.StatusRefunded,
	"CUSTOMER.DISPUTE.CREATED":  domain.StatusDisputed,
	"CHECKOUT.ORDER.VOIDED":     domain.StatusExpired,
}

func (a *Adapter) NormalizeWebhook(rawPayload []byte) (*gateway.NormalizedWebhook, error) {
	var ev event
	if err := json.Unmarshal(rawPayload, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", gateway.ErrMalformedPayload, err)
	}

	status, ok := eventStatuses[ev.EventType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", gateway.ErrUnknownEvent, ev.EventType)
	}

	txnID := ev.Resource.SupplementaryData.RelatedIDs.OrderID
	if txnID == "" {
		txnID = ev.Resource.ID
	}
	if txnID == "" {
		return nil, fmt.Errorf("%w: missing order id", gateway.ErrMalformedPayload)
	}

	n := &gateway.NormalizedWebhook{
		EventID:       ev.ID,
		EventType:     ev.EventType,
		TransactionID: txnID,
		Status:        status,
	}
	if ev.Resource.Amount != nil {
		if amount, err := fromMoney(*ev.Resource.Amount); err == nil {
			n.Amount = &amount
			c := domain.Currency(ev.Resource.Amount.CurrencyCode)
			n.Currency = &c
		}
	}
	return n, nil
}

func toProviderResponse(o *order) (*gateway.ProviderResponse, error) {
	resp := &gateway.ProviderResponse{
		TransactionID: o.ID,
		Status:        mapOrderStatus(o.Status),
		RawStatus:     o.Status,
	}
	if c, _ := firstCapture(o); c != nil {
		switch c.Status {
		case "DECLINED", "FAILED":
			resp.Status = domain.StatusFailed
			resp.RawStatus = c.Status
		}
	}
	if len(o.PurchaseUnits) > 0 {
		amount, err := fromMoney(o.PurchaseUnits[0].Amount)
		if err != nil {
			return nil, fmt.Errorf("paypal order %s: %w", o.ID, err)
		}
		resp.Amount = amount
		resp.Currency = domain.Currency(o.PurchaseUnits[0].Amount.CurrencyCode)
	}
	return resp, nil
}

func firstCapture(o *order) (*capture, domain.Currency) {
	for _, pu := range o.PurchaseUnits {
		if pu.Payments != nil && len(pu.Payments.Captures) > 0 {
			return &pu.Payments.Captures[0], domain.Currency(pu.Amount.CurrencyCode)
		}
	}
	return nil, ""
}

func mapOrderStatus(s string) domain.TransactionStatus {
	switch s {
	case "COMPLETED":
		return domain.StatusCompleted
	case "VOIDED":
		return domain.StatusCancelled
	default:
		return domain.StatusProcessing
	}
}

func mapReportStatus(s string) domain.TransactionStatus {
	switch s {
	case "S":
		return domain.StatusCompleted
	case "V":
		return domain.StatusCancelled
	case "D", "F":
		return domain.StatusFailed
	default:
		return domain.StatusProcessing
	}
}

func toMoney(minor int64, currency domain.Currency) money {
	return money{
		CurrencyCode: string(currency),
		Value:        decimal.New(minor, -2).StringFixed(2),
	}
}

func fromMoney(m money) (int64, error) {
	d, err := decimal.NewFromString(m.Value)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", m.Value, err)
	}
	return d.Shift(2).Round(0).IntPart(), nil
}

func decodeError(statusCode int, body []byte) (string, string) {
	var payload struct {
		Name    string `json:"name"`
		Message string `json:"message"`
		Details []struct {
			Issue       string `json:"issue"`
			Description string `json:"description"`
		} `json:"details"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return http.StatusText(statusCode), string(body)
	}
	if len(payload.Details) > 0 && payload.Details[0].Issue != "" {
		return payload.Details[0].Issue, payload.Details[0].Description
	}
	return payload.Name, payload.Message
}

var (
	_ gateway.Adapter = (*Adapter)(nil)
	_ gateway.Lister  = (*Adapter)(nil)
)
