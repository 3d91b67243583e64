package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/DanielPopoola/eventpay/internal/gateway"
	"github.com/stretchr/testify/require"
)

// TestClient wraps HTTP calls to the engine.
type TestClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewTestClient(baseURL string) *TestClient {
	return &TestClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Do sends body (raw bytes or anything JSON-encodable) and decodes data into out when
// the call succeeds. It returns the status and, for failures, the error code.
func (c *TestClient) Do(t *testing.T, method, path string, body any, out any, headers ...string) (int, string) {
	t.Helper()

	var payload []byte
	switch b := body.(type) {
	case nil:
	case []byte:
		payload = b
	default:
		var err error
		payload, err = json.Marshal(b)
		require.NoError(t, err)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := c.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env apiResponse
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	if resp.StatusCode >= 400 {
		return resp.StatusCode, env.Error.Code
	}
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return resp.StatusCode, ""
}

type providerTxn struct {
	ID        string `json:"id"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	CreatedAt string `json:"created_at"`
}

// FakeNeoNet is a NeoNet merchant API that authorizes everything and checks every
// request signature.
type FakeNeoNet struct {
	*httptest.Server

	t          *testing.T
	merchantID string
	apiSecret  string

	mu    sync.Mutex
	seq   int
	txns  map[string]*providerTxn
	order []string
}

func NewFakeNeoNet(t *testing.T, merchantID, apiSecret string) *FakeNeoNet {
	f := &FakeNeoNet{
		t:          t,
		merchantID: merchantID,
		apiSecret:  apiSecret,
		txns:       make(map[string]*providerTxn),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/transactions", f.create)
	mux.HandleFunc("GET /api/v1/transactions", f.list)
	mux.HandleFunc("GET /api/v1/transactions/{id}", f.get)
	mux.HandleFunc("POST /api/v1/transactions/{id}/settle", f.settle)
	mux.HandleFunc("POST /api/v1/transactions/{id}/reversals", f.reverse)

	f.Server = httptest.NewServer(f.verify(mux))
	t.Cleanup(f.Close)
	return f
}

// Settle marks a transaction as settled on the provider side, as its own
// back office would.
func (f *FakeNeoNet) Settle(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txns[id].Status = "SETTLED"
}

// AddForeign records a settled transaction the engine never created.
func (f *FakeNeoNet) AddForeign(id string, amount int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txns[id] = &providerTxn{ID: id, Status: "SETTLED", Amount: amount, Currency: "GTQ", CreatedAt: time.Now().UTC().Format(time.RFC3339)}
	f.order = append(f.order, id)
}

func (f *FakeNeoNet) verify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		ts := r.Header.Get("X-Timestamp")
		ok := r.Header.Get("X-Merchant-Id") == f.merchantID &&
			gateway.VerifyHex(f.apiSecret, r.Header.Get("X-Signature"), []byte(ts), []byte("."), body)
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":"invalid_signature","message":"bad request signature"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeNeoNet) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
		Currency  string `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.seq++
	txn := &providerTxn{
		ID:        "nn-" + strconv.Itoa(f.seq),
		Reference: req.Reference,
		Status:    "AUTHORIZED",
		Amount:    req.Amount,
		Currency:  req.Currency,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	f.txns[txn.ID] = txn
	f.order = append(f.order, txn.ID)
	out := *txn
	f.mu.Unlock()

	writeJSON(w, http.StatusCreated, out)
}

func (f *FakeNeoNet) get(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	txn, ok := f.txns[r.PathValue("id")]
	var out providerTxn
	if ok {
		out = *txn
	}
	f.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"code": "not_found", "message": "no such transaction"})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeNeoNet) settle(w http.ResponseWriter, r *http.Request) {
	f.Settle(r.PathValue("id"))
	f.get(w, r)
}

func (f *FakeNeoNet) reverse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount int64 `json:"amount"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	f.seq++
	id := fmt.Sprintf("rev-%d", f.seq)
	f.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "status": "REVERSED", "amount": req.Amount})
}

func (f *FakeNeoNet) list(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	items := make([]providerTxn, 0, len(f.order))
	for _, id := range f.order {
		items = append(items, *f.txns[id])
	}
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"items": items, "has_more": false})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
