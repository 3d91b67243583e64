package paypal_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DanielPopoola/eventpay/internal/config"
	"github.com/DanielPopoola/eventpay/internal/domain"
	"github.com/DanielPopoola/eventpay/internal/gateway"
	"github.com/DanielPopoola/eventpay/internal/gateway/paypal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestAdapter serves the token endpoint and delegates every other path to handler.
func newTestAdapter(t *testing.T, handler http.HandlerFunc) *paypal.Adapter {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok {
			require.NoError(t, r.ParseForm())
			user, pass = r.PostForm.Get("client_id"), r.PostForm.Get("client_secret")
		}
		assert.Equal(t, "client", user)
		assert.Equal(t, "secret", pass)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"tok_abc","token_type":"Bearer","expires_in":3600}`)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok_abc", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return paypal.New(config.PayPalConfig{
		BaseURL:       srv.URL,
		ClientID:      "client",
		ClientSecret:  "secret",
		WebhookSecret: "wh_secret",
	}, 5*time.Second, slog.Default())
}

func TestInitiate_CreatesOrder(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/checkout/orders", r.URL.Path)
		assert.Equal(t, "txn-1", r.Header.Get("PayPal-Request-Id"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "CAPTURE", body["intent"])
		units := body["purchase_units"].([]any)
		amount := units[0].(map[string]any)["amount"].(map[string]any)
		assert.Equal(t, "125.50", amount["value"])
		assert.Equal(t, "USD", amount["currency_code"])

		fmt.Fprint(w, `{"id":"ORDER-1","status":"CREATED","purchase_units":[{"amount":{"currency_code":"USD","value":"125.50"}}]}`)
	})

	resp, err := a.Initiate(context.Background(), gateway.InitiateRequest{
		TransactionID: "txn-1",
		Amount:        12550,
		Currency:      domain.CurrencyUSD,
	})

	require.NoError(t, err)
	assert.Equal(t, "ORDER-1", resp.TransactionID)
	assert.Equal(t, domain.StatusProcessing, resp.Status)
	assert.Equal(t, int64(12550), resp.Amount)
}

func TestConfirm_Captures(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/checkout/orders/ORDER-1/capture", r.URL.Path)
		fmt.Fprint(w, `{"id":"ORDER-1","status":"COMPLETED","purchase_units":[{"amount":{"currency_code":"USD","value":"100.00"},"payments":{"captures":[{"id":"CAP-1","status":"COMPLETED","amount":{"currency_code":"USD","value":"100.00"}}]}}]}`)
	})

	resp, err := a.Confirm(context.Background(), "ORDER-1")

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, resp.Status)
	assert.Equal(t, int64(10000), resp.Amount)
}

func TestConfirm_AlreadyCapturedReadsOrder(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusUnprocessableEntity)
			fmt.Fprint(w, `{"name":"UNPROCESSABLE_ENTITY","details":[{"issue":"ORDER_ALREADY_CAPTURED","description":"already captured"}]}`)
			return
		}
		fmt.Fprint(w, `{"id":"ORDER-1","status":"COMPLETED","purchase_units":[{"amount":{"currency_code":"USD","value":"100.00"}}]}`)
	})

	resp, err := a.Confirm(context.Background(), "ORDER-1")

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, resp.Status)
}

func TestConfirm_DeclinedCapture(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"ORDER-1","status":"COMPLETED","purchase_units":[{"amount":{"currency_code":"USD","value":"100.00"},"payments":{"captures":[{"id":"CAP-1","status":"DECLINED","amount":{"currency_code":"USD","value":"100.00"}}]}}]}`)
	})

	resp, err := a.Confirm(context.Background(), "ORDER-1")

	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, resp.Status)
}

func TestConfirm_OtherErrorsPropagate(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"name":"INTERNAL_SERVER_ERROR","message":"boom"}`)
	})

	_, err := a.Confirm(context.Background(), "ORDER-1")

	gwErr, ok := gateway.IsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, "INTERNAL_SERVER_ERROR", gwErr.Code)
	assert.True(t, gwErr.IsRetryable())
}

func TestRefund_UsesCaptureID(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/checkout/orders/ORDER-1":
			fmt.Fprint(w, `{"id":"ORDER-1","status":"COMPLETED","purchase_units":[{"amount":{"currency_code":"USD","value":"100.00"},"payments":{"captures":[{"id":"CAP-1","status":"COMPLETED","amount":{"currency_code":"USD","value":"100.00"}}]}}]}`)
		case "/v2/payments/captures/CAP-1/refund":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "40.00", body["amount"].(map[string]any)["value"])
			fmt.Fprint(w, `{"id":"REF-1","status":"COMPLETED","amount":{"currency_code":"USD","value":"40.00"}}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	resp, err := a.Refund(context.Background(), "ORDER-1", 4000, "requested")

	require.NoError(t, err)
	assert.Equal(t, "REF-1", resp.RefundID)
	assert.Equal(t, domain.RefundCompleted, resp.Status)
	assert.Equal(t, int64(4000), resp.Amount)
}

func TestRefund_NoCapture(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"ORDER-1","status":"APPROVED","purchase_units":[{"amount":{"currency_code":"USD","value":"100.00"}}]}`)
	})

	_, err := a.Refund(context.Background(), "ORDER-1", 4000, "requested")

	gwErr, ok := gateway.IsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, "CAPTURE_NOT_FOUND", gwErr.Code)
}

func TestRefundStatus_ReadsRefundByID(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v2/payments/refunds/REF-1", r.URL.Path)
		fmt.Fprint(w, `{"id":"REF-1","status":"COMPLETED","amount":{"currency_code":"USD","value":"40.00"}}`)
	})

	resp, err := a.RefundStatus(context.Background(), "ORDER-1", "REF-1")

	require.NoError(t, err)
	assert.Equal(t, domain.RefundCompleted, resp.Status)
	assert.Equal(t, int64(4000), resp.Amount)
}

func TestListTransactions(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/reporting/transactions", r.URL.Path)
		fmt.Fprint(w, `{"page":1,"total_pages":1,"transaction_details":[
			{"transaction_info":{"transaction_id":"CAP-1","paypal_reference_id":"ORDER-1","transaction_status":"S","transaction_amount":{"currency_code":"USD","value":"100.00"},"transaction_initiation_date":"2026-01-01T10:00:00Z"}},
			{"transaction_info":{"transaction_id":"REF-1","transaction_status":"S","transaction_amount":{"currency_code":"USD","value":"-40.00"}}}
		]}`)
	})

	txns, err := a.ListTransactions(context.Background(), time.Now().Add(-time.Hour), time.Now())

	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "ORDER-1", txns[0].TransactionID)
	assert.Equal(t, domain.StatusCompleted, txns[0].Status)
	assert.Equal(t, int64(10000), txns[0].Amount)
}

func TestWebhook(t *testing.T) {
	a := paypal.New(config.PayPalConfig{WebhookSecret: "wh_secret"}, time.Second, slog.Default())
	payload := []byte(`{"id":"WH-1","event_type":"PAYMENT.CAPTURE.COMPLETED","resource":{"id":"CAP-1","status":"COMPLETED","amount":{"currency_code":"USD","value":"100.00"},"supplementary_data":{"related_ids":{"order_id":"ORDER-1"}}}}`)

	assert.True(t, a.ValidateWebhookSignature(payload, gateway.HMACHex("wh_secret", payload)))
	assert.False(t, a.ValidateWebhookSignature(payload, gateway.HMACHex("nope", payload)))

	n, err := a.NormalizeWebhook(payload)
	require.NoError(t, err)
	assert.Equal(t, "WH-1", n.EventID)
	assert.Equal(t, "ORDER-1", n.TransactionID)
	assert.Equal(t, domain.StatusCompleted, n.Status)
	require.NotNil(t, n.Amount)
	assert.Equal(t, int64(10000), *n.Amount)

	_, err = a.NormalizeWebhook([]byte(`{"id":"WH-2","event_type":"BILLING.PLAN.CREATED","resource":{}}`))
	assert.ErrorIs(t, err, gateway.ErrUnknownEvent)
}
