package stripe

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/DanielPopoola/eventpay/internal/config"
	"github.com/DanielPopoola/eventpay/internal/domain"
	"github.com/DanielPopoola/eventpay/internal/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(config.StripeConfig{
		BaseURL:       srv.URL,
		SecretKey:     "sk_test_123",
		WebhookSecret: "whsec_test",
	}, 5*time.Second, slog.Default())
}

func TestInitiate_SendsManualCaptureIntent(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		assert.Equal(t, "txn-1", r.Header.Get("Idempotency-Key"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "10000", r.PostForm.Get("amount"))
		assert.Equal(t, "usd", r.PostForm.Get("currency"))
		assert.Equal(t, "manual", r.PostForm.Get("capture_method"))
		assert.Equal(t, "pm_card_visa", r.PostForm.Get("payment_method"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"pi_123","status":"requires_capture","amount":10000,"currency":"usd"}`)
	})

	resp, err := a.Initiate(context.Background(), gateway.InitiateRequest{
		TransactionID: "txn-1",
		Amount:        10000,
		Currency:      domain.CurrencyUSD,
		PaymentMethod: []byte(`{"id":"pm_card_visa"}`),
	})

	require.NoError(t, err)
	assert.Equal(t, "pi_123", resp.TransactionID)
	assert.Equal(t, domain.StatusProcessing, resp.Status)
	assert.Equal(t, domain.CurrencyUSD, resp.Currency)
}

func TestInitiate_ProviderError(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		fmt.Fprint(w, `{"error":{"code":"card_declined","message":"Your card was declined."}}`)
	})

	_, err := a.Initiate(context.Background(), gateway.InitiateRequest{TransactionID: "txn-1", Amount: 100, Currency: domain.CurrencyUSD})

	gwErr, ok := gateway.IsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, "card_declined", gwErr.Code)
	assert.Equal(t, http.StatusPaymentRequired, gwErr.StatusCode)
	assert.False(t, gwErr.IsRetryable())
}

func TestConfirm_CapturesWhenRequired(t *testing.T) {
	captured := false
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1/payment_intents/pi_123":
			fmt.Fprint(w, `{"id":"pi_123","status":"requires_capture","amount":10000,"currency":"usd"}`)
		case r.Method == http.MethodPost && r.URL.Path == "/v1/payment_intents/pi_123/capture":
			captured = true
			fmt.Fprint(w, `{"id":"pi_123","status":"succeeded","amount":10000,"currency":"usd"}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	resp, err := a.Confirm(context.Background(), "pi_123")

	require.NoError(t, err)
	assert.True(t, captured)
	assert.Equal(t, domain.StatusCompleted, resp.Status)
}

func TestConfirm_AlreadySucceededSkipsCapture(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		fmt.Fprint(w, `{"id":"pi_123","status":"succeeded","amount":10000,"currency":"usd"}`)
	})

	resp, err := a.Confirm(context.Background(), "pi_123")

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, resp.Status)
}

func TestRefund_MapsStatus(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "pi_123", r.PostForm.Get("payment_intent"))
		assert.Equal(t, "5000", r.PostForm.Get("amount"))
		fmt.Fprint(w, `{"id":"re_1","status":"succeeded","amount":5000}`)
	})

	resp, err := a.Refund(context.Background(), "pi_123", 5000, "customer request")

	require.NoError(t, err)
	assert.Equal(t, "re_1", resp.RefundID)
	assert.Equal(t, domain.RefundCompleted, resp.Status)
}

func TestListTransactions_FollowsPagination(t *testing.T) {
	calls := 0
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("starting_after") == "" {
			fmt.Fprint(w, `{"data":[{"id":"pi_1","status":"succeeded","amount":100,"currency":"usd","created":1700000000}],"has_more":true}`)
			return
		}
		assert.Equal(t, "pi_1", r.URL.Query().Get("starting_after"))
		fmt.Fprint(w, `{"data":[{"id":"pi_2","status":"canceled","amount":200,"currency":"gtq","created":1700000100}],"has_more":false}`)
	})

	txns, err := a.ListTransactions(context.Background(), time.Unix(1699990000, 0), time.Unix(1700010000, 0))

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, txns, 2)
	assert.Equal(t, domain.StatusCompleted, txns[0].Status)
	assert.Equal(t, domain.StatusCancelled, txns[1].Status)
	assert.Equal(t, domain.CurrencyGTQ, txns[1].Currency)
}

func TestValidateWebhookSignature(t *testing.T) {
	a := New(config.StripeConfig{WebhookSecret: "whsec_test"}, time.Second, slog.Default())
	now := time.Unix(1700000000, 0)
	a.now = func() time.Time { return now }

	payload := []byte(`{"id":"evt_1"}`)
	sign := func(at time.Time, secret string) string {
		ts := strconv.FormatInt(at.Unix(), 10)
		return "t=" + ts + ",v1=" + gateway.HMACHex(secret, []byte(ts), []byte("."), payload)
	}

	tests := []struct {
		name      string
		signature string
		want      bool
	}{
		{"valid", sign(now, "whsec_test"), true},
		{"wrong secret", sign(now, "other"), false},
		{"stale timestamp", sign(now.Add(-10*time.Minute), "whsec_test"), false},
		{"missing v1", "t=1700000000", false},
		{"garbage", "not-a-signature", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.ValidateWebhookSignature(payload, tt.signature))
		})
	}
}

func TestNormalizeWebhook(t *testing.T) {
	a := New(config.StripeConfig{}, time.Second, slog.Default())

	t.Run("payment succeeded", func(t *testing.T) {
		n, err := a.NormalizeWebhook([]byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_123","object":"payment_intent","amount":10000,"currency":"usd"}}}`))
		require.NoError(t, err)
		assert.Equal(t, "evt_1", n.EventID)
		assert.Equal(t, "pi_123", n.TransactionID)
		assert.Equal(t, domain.StatusCompleted, n.Status)
		require.NotNil(t, n.Amount)
		assert.Equal(t, int64(10000), *n.Amount)
		assert.Equal(t, domain.CurrencyUSD, *n.Currency)
	})

	t.Run("charge refunded resolves payment intent", func(t *testing.T) {
		n, err := a.NormalizeWebhook([]byte(`{"id":"evt_2","type":"charge.refunded","data":{"object":{"id":"ch_1","object":"charge","payment_intent":"pi_123"}}}`))
		require.NoError(t, err)
		assert.Equal(t, "pi_123", n.TransactionID)
		assert.Equal(t, domain.StatusRefunded, n.Status)
		assert.Nil(t, n.Amount)
	})

	t.Run("partial charge refund reports amount refunded", func(t *testing.T) {
		n, err := a.NormalizeWebhook([]byte(`{"id":"evt_4","type":"charge.refunded","data":{"object":{"id":"ch_1","object":"charge","payment_intent":"pi_123","amount":10000,"amount_refunded":1000,"currency":"usd"}}}`))
		require.NoError(t, err)
		require.NotNil(t, n.Amount)
		assert.Equal(t, int64(1000), *n.Amount)
	})

	t.Run("canceled intent agrees with intent status mapping", func(t *testing.T) {
		n, err := a.NormalizeWebhook([]byte(`{"id":"evt_5","type":"payment_intent.canceled","data":{"object":{"id":"pi_123","object":"payment_intent"}}}`))
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, n.Status)
		assert.Equal(t, mapIntentStatus("canceled"), n.Status)
	})

	t.Run("unknown event", func(t *testing.T) {
		_, err := a.NormalizeWebhook([]byte(`{"id":"evt_3","type":"customer.created","data":{"object":{}}}`))
		assert.ErrorIs(t, err, gateway.ErrUnknownEvent)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := a.NormalizeWebhook([]byte(`{`))
		assert.ErrorIs(t, err, gateway.ErrMalformedPayload)
	})
}

func TestRefundStatus_ReadsRefundBack(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/refunds/re_1", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"re_1","status":"succeeded","amount":4000}`)
	})

	resp, err := a.RefundStatus(context.Background(), "pi_123", "re_1")

	require.NoError(t, err)
	assert.Equal(t, "re_1", resp.RefundID)
	assert.Equal(t, domain.RefundCompleted, resp.Status)
	assert.Equal(t, int64(4000), resp.Amount)
}
