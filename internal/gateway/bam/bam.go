// Package bam adapts the Banco Agromercantil (BAM) payments API.
package bam

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/DanielPopoola/eventpay/internal/config"
	"github.com/DanielPopoola/eventpay/internal/domain"
	"github.com/DanielPopoola/eventpay/internal/gateway"
)

const signatureHeader = "X-BAM-Signature"

type Adapter struct {
	client        *gateway.Client
	webhookSecret string
	logger        *slog.Logger
}

func New(cfg config.BAMConfig, timeout time.Duration, logger *slog.Logger) *Adapter {
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.BaseURL + "/oauth/token",
		Scopes:       []string{"pagos"},
	}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: timeout})

	return &Adapter{
		client: gateway.NewClient(domain.GatewayBAM, cfg.BaseURL, timeout,
			gateway.WithHTTPClient(cc.Client(tokenCtx)),
			gateway.WithErrorDecoder(decodeError),
		),
		webhookSecret: cfg.WebhookSecret,
		logger:        logger.With("gateway", domain.GatewayBAM),
	}
}

func (a *Adapter) Gateway() domain.Gateway { return domain.GatewayBAM }

func (a *Adapter) SignatureHeader() string { return signatureHeader }

type pago struct {
	ID         string `json:"id"`
	Referencia string `json:"referencia"`
	Estado     string `json:"estado"`
	Monto      int64  `json:"monto"`
	Moneda     string `json:"moneda"`
	Fecha      string `json:"fecha"`
}

type crearPago struct {
	Referencia  string          `json:"referencia"`
	Monto       int64           `json:"monto"`
	Moneda      string          `json:"moneda"`
	Descripcion string          `json:"descripcion,omitempty"`
	Facturacion json.RawMessage `json:"facturacion,omitempty"`
	MedioPago   json.RawMessage `json:"medio_pago,omitempty"`
}

type crearReembolso struct {
	Monto  int64  `json:"monto"`
	Motivo string `json:"motivo,omitempty"`
}

type reembolso struct {
	ID     string `json:"id"`
	Estado string `json:"estado"`
	Monto  int64  `json:"monto"`
}

type listaPagos struct {
	Pagos     []pago `json:"pagos"`
	Siguiente string `json:"siguiente"`
}

func (a *Adapter) Initiate(ctx context.Context, req gateway.InitiateRequest) (*gateway.ProviderResponse, error) {
	body := &crearPago{
		Referencia:  req.TransactionID,
		Monto:       req.Amount,
		Moneda:      string(req.Currency),
		Descripcion: req.Description,
		Facturacion: req.BillingInfo,
		MedioPago:   req.PaymentMethod,
	}

	p, err := gateway.SendJSON[crearPago, pago](ctx, a.client, http.MethodPost, "/v1/pagos", body, req.TransactionID)
	if err != nil {
		return nil, err
	}
	return toProviderResponse(p), nil
}

// Confirm asks BAM to confirm the payment. The call is idempotent on BAM's side
// and returns the current state for payments that already left AUTORIZADO.
func (a *Adapter) Confirm(ctx context.Context, providerTransactionID string) (*gateway.ProviderResponse, error) {
	path := "/v1/pagos/" + url.PathEscape(providerTransactionID) + "/confirmar"

	p, err := gateway.SendJSON[struct{}, pago](ctx, a.client, http.MethodPost, path, &struct{}{}, "confirmar-"+providerTransactionID)
	if err != nil {
		return nil, err
	}
	return toProviderResponse(p), nil
}

func (a *Adapter) Refund(ctx context.Context, providerTransactionID string, amount int64, reason string) (*gateway.ProviderRefundResponse, error) {
	path := "/v1/pagos/" + url.PathEscape(providerTransactionID) + "/reembolsos"

	r, err := gateway.SendJSON[crearReembolso, reembolso](ctx, a.client, http.MethodPost, path, &crearReembolso{Monto: amount, Motivo: reason}, "")
	if err != nil {
		return nil, err
	}

	return toRefundResponse(r), nil
}

func (a *Adapter) RefundStatus(ctx context.Context, providerTransactionID, providerRefundID string) (*gateway.ProviderRefundResponse, error) {
	path := "/v1/pagos/" + url.PathEscape(providerTransactionID) + "/reembolsos/" + url.PathEscape(providerRefundID)

	r, err := gateway.SendJSON[struct{}, reembolso](ctx, a.client, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	return toRefundResponse(r), nil
}

func toRefundResponse(r *reembolso) *gateway.ProviderRefundResponse {
	status := domain.RefundProcessing
	switch r.Estado {
	case "COMPLETADO":
		status = domain.RefundCompleted
	case "RECHAZADO":
		status = domain.RefundFailed
	}
	return &gateway.ProviderRefundResponse{RefundID: r.ID, Status: status, RawStatus: r.Estado, Amount: r.Monto}
}

func (a *Adapter) ListTransactions(ctx context.Context, from, to time.Time) ([]gateway.ProviderTransaction, error) {
	q := url.Values{}
	q.Set("desde", from.UTC().Format(time.RFC3339))
	q.Set("hasta", to.UTC().Format(time.RFC3339))
	path := "/v1/pagos?" + q.Encode()

	var out []gateway.ProviderTransaction
	for path != "" {
		res, err := gateway.SendJSON[struct{}, listaPagos](ctx, a.client, http.MethodGet, path, nil, "")
		if err != nil {
			return nil, err
		}
		for _, p := range res.Pagos {
			created, _ := time.Parse(time.RFC3339, p.Fecha)
			out = append(out, gateway.ProviderTransaction{
				TransactionID: p.ID,
				Status:        mapStatus(p.Estado),
				Amount:        p.Monto,
				Currency:      domain.Currency(p.Moneda),
				CreatedAt:     created,
			})
		}
		path = res.Siguiente
	}
	return out, nil
}

func (a *Adapter) ValidateWebhookSignature(rawPayload []byte, signature string) bool {
	if a.webhookSecret == "" {
		return true
	}
	return gateway.VerifyBase64(a.webhookSecret, signature, rawPayload)
}

type notificacion struct {
	ID     string `json:"id"`
	Evento string `json:"evento"`
	Pago   struct {
		ID     string `json:"id"`
		Estado string `json:"estado"`
		Monto  *int64 `json:"monto"`
		Moneda string `json:"moneda"`
	} `json:"pago"`
}

var webhookStatuses = map[string]domain.TransactionStatus{
	"PAGADO":      domain.StatusCompleted,
	"RECHAZADO":   domain.StatusFailed,
	"REEMBOLSADO": domain.StatusRefunded,
	"VENCIDO":     domain.StatusExpired,
	"DISPUTA":     domain.StatusDisputed,
}

func (a *Adapter) NormalizeWebhook(rawPayload []byte) (*gateway.NormalizedWebhook, error) {
	var n notificacion
	if err := json.Unmarshal(rawPayload, &n); err != nil {
		return nil, fmt.Errorf("%w: %v", gateway.ErrMalformedPayload, err)
	}

	status, ok := webhookStatuses[n.Pago.Estado]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", gateway.ErrUnknownEvent, n.Evento, n.Pago.Estado)
	}
	if n.Pago.ID == "" {
		return nil, fmt.Errorf("%w: missing pago.id", gateway.ErrMalformedPayload)
	}

	out := &gateway.NormalizedWebhook{
		EventID:       n.ID,
		EventType:     n.Evento,
		TransactionID: n.Pago.ID,
		Status:        status,
		Amount:        n.Pago.Monto,
	}
	if n.Pago.Moneda != "" {
		c := domain.Currency(n.Pago.Moneda)
		out.Currency = &c
	}
	return out, nil
}

func toProviderResponse(p *pago) *gateway.ProviderResponse {
	return &gateway.ProviderResponse{
		TransactionID: p.ID,
		Status:        mapStatus(p.Estado),
		RawStatus:     p.Estado,
		Amount:        p.Monto,
		Currency:      domain.Currency(p.Moneda),
	}
}

func mapStatus(s string) domain.TransactionStatus {
	switch s {
	case "PAGADO":
		return domain.StatusCompleted
	case "RECHAZADO":
		return domain.StatusFailed
	case "VENCIDO":
		return domain.StatusExpired
	case "ANULADO":
		return domain.StatusCancelled
	case "REEMBOLSADO":
		return domain.StatusRefunded
	case "DISPUTA":
		return domain.StatusDisputed
	default:
		return domain.StatusProcessing
	}
}

func decodeError(statusCode int, body []byte) (string, string) {
	var payload struct {
		Codigo  string `json:"codigo"`
		Mensaje string `json:"mensaje"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Codigo == "" {
		return http.StatusText(statusCode), string(body)
	}
	return payload.Codigo, payload.Mensaje
}

var (
	_ gateway.Adapter = (*Adapter)(nil)
	_ gateway.Lister  = (*Adapter)(nil)
)
