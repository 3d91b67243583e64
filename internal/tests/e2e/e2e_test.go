package e2e

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/DanielPopoola/eventpay/internal/application"
	"github.com/DanielPopoola/eventpay/internal/application/reconciliation"
	"github.com/DanielPopoola/eventpay/internal/application/services"
	"github.com/DanielPopoola/eventpay/internal/application/services/testhelpers"
	"github.com/DanielPopoola/eventpay/internal/application/webhook"
	"github.com/DanielPopoola/eventpay/internal/breaker"
	"github.com/DanielPopoola/eventpay/internal/config"
	"github.com/DanielPopoola/eventpay/internal/domain"
	"github.com/DanielPopoola/eventpay/internal/fees"
	"github.com/DanielPopoola/eventpay/internal/gateway"
	"github.com/DanielPopoola/eventpay/internal/gateway/neonet"
	"github.com/DanielPopoola/eventpay/internal/infrastructure/persistence/postgres"
	"github.com/DanielPopoola/eventpay/internal/interfaces/rest"
	"github.com/DanielPopoola/eventpay/internal/interfaces/rest/handlers"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	merchantID    = "m-e2e"
	apiSecret     = "api-secret"
	webhookSecret = "whsec-e2e"
)

// E2ETestSuite runs the HTTP API over Postgres against a fake NeoNet.
type E2ETestSuite struct {
	suite.Suite
	db       *testhelpers.TestDatabase
	provider *FakeNeoNet
	server   *httptest.Server
	client   *TestClient
	sink     *testhelpers.RecordingSink

	event domain.Event
	reg   domain.Registration
}

func TestE2ESuite(t *testing.T) {
	suite.Run(t, new(E2ETestSuite))
}

func (suite *E2ETestSuite) SetupSuite() {
	suite.db = testhelpers.SetupTestDatabase(suite.T())
	suite.provider = NewFakeNeoNet(suite.T(), merchantID, apiSecret)

	logger := testhelpers.Logger()
	clock := application.SystemClock{}
	store := postgres.NewStore(suite.db.DB)
	registry := gateway.NewRegistry(neonet.New(config.NeoNetConfig{
		Enabled:       true,
		BaseURL:       suite.provider.URL,
		MerchantID:    merchantID,
		APISecret:     apiSecret,
		WebhookSecret: webhookSecret,
	}, 5*time.Second, logger))
	breakers := breaker.NewRegistry(breaker.DefaultSettings(), logger)
	suite.sink = &testhelpers.RecordingSink{}

	payments := services.NewPaymentService(
		store,
		registry,
		breakers,
		fees.NewCalculator(fees.DefaultSchedule()),
		suite.sink,
		clock,
		logger,
		services.DefaultOptions(),
	)
	webhooks := webhook.NewHandler(store, registry, payments, clock, logger)
	recon := reconciliation.NewService(store, registry, breakers, clock, logger)

	h := handlers.NewHandlers(payments, webhooks, recon, registry, breakers,
		map[string]handlers.HealthChecker{"database": suite.db.DB}, logger)
	router, err := handlers.NewRouter(h, 10*time.Second, logger)
	suite.Require().NoError(err)
	suite.server = httptest.NewServer(router)
	suite.client = NewTestClient(suite.server.URL)
}

func (suite *E2ETestSuite) TearDownSuite() {
	if suite.server != nil {
		suite.server.Close()
	}
	if suite.db != nil {
		suite.db.Cleanup(suite.T())
	}
}

func (suite *E2ETestSuite) SetupTest() {
	suite.db.CleanTables(suite.T())
	suite.sink.Reset()

	suite.event = domain.Event{ID: "evt-" + uuid.NewString(), Name: "DevFest Guatemala", Capacity: 10}
	suite.reg = domain.Registration{ID: "reg-" + uuid.NewString(), EventID: suite.event.ID, Status: domain.RegistrationPendingPayment}
	suite.db.AddEvent(suite.T(), suite.event)
	suite.db.AddRegistration(suite.T(), suite.reg)
}

func (suite *E2ETestSuite) initiate() rest.TransactionResponse {
	var txn rest.TransactionResponse
	status, code := suite.client.Do(suite.T(), http.MethodPost, "/api/v1/payments", map[string]any{
		"registration_id": suite.reg.ID,
		"gateway":         "neonet",
		"amount":          10000,
		"currency":        "GTQ",
		"description":     "General admission",
		"payment_method":  map[string]string{"type": "card", "token": "tok_neonet_visa"},
	}, &txn)
	suite.Require().Equal(http.StatusCreated, status, code)
	return txn
}

func (suite *E2ETestSuite) notify(event, eventID, providerTxnID string) (int, webhook.Outcome) {
	body := fmt.Appendf(nil, `{"event_id":%q,"event":%q,"transaction_id":%q,"amount":10000,"currency":"GTQ"}`, eventID, event, providerTxnID)
	sig := gateway.HMACHex(webhookSecret, body)

	var outcome webhook.Outcome
	status, _ := suite.client.Do(suite.T(), http.MethodPost, "/webhooks/neonet", body, &outcome, "X-Neonet-Signature", sig)
	return status, outcome
}

func (suite *E2ETestSuite) get(id string) rest.TransactionResponse {
	var txn rest.TransactionResponse
	status, code := suite.client.Do(suite.T(), http.MethodGet, "/api/v1/payments/"+id, nil, &txn)
	suite.Require().Equal(http.StatusOK, status, code)
	return txn
}

// ============================================================================
// HAPPY PATH: Initiate -> Webhook -> Refund -> Reconcile
// ============================================================================

func (suite *E2ETestSuite) TestHappyPath_InitiateSettleRefundReconcile() {
	t := suite.T()

	txn := suite.initiate()
	require.NotNil(t, txn.GatewayTransactionID)
	assert.Equal(t, "processing", txn.Status)
	assert.Equal(t, int64(350), txn.Fee)
	assert.Equal(t, int64(9650), txn.NetAmount)
	providerID := *txn.GatewayTransactionID

	suite.provider.Settle(providerID)
	status, outcome := suite.notify("transaction.approved", "ev-1", providerID)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, outcome.Applied)
	assert.Equal(t, txn.ID, outcome.TransactionID)

	assert.Equal(t, "completed", suite.get(txn.ID).Status)
	assert.Equal(t, 1, suite.db.Occupancy(t, suite.event.ID))

	var refund rest.RefundResponse
	status, code := suite.client.Do(t, http.MethodPost, "/api/v1/payments/"+txn.ID+"/refunds",
		map[string]any{"amount": 4000, "reason": "cannot attend day two"}, &refund)
	require.Equal(t, http.StatusCreated, status, code)
	assert.Equal(t, "completed", refund.Status)
	assert.Equal(t, "partially_refunded", suite.get(txn.ID).Status)

	suite.provider.AddForeign("nn-ghost", 5000)

	q := url.Values{}
	q.Set("gateway", "neonet")
	q.Set("from", time.Now().Add(-time.Hour).UTC().Format(time.RFC3339))
	q.Set("to", time.Now().Add(time.Hour).UTC().Format(time.RFC3339))

	var report reconciliation.Report
	status, code = suite.client.Do(t, http.MethodGet, "/api/v1/reconciliation?"+q.Encode(), nil, &report)
	require.Equal(t, http.StatusOK, status, code)
	assert.Equal(t, 1, report.Matched)
	require.Len(t, report.Discrepancies, 1)
	assert.Equal(t, reconciliation.KindMissingLocally, report.Discrepancies[0].Kind)
	assert.Equal(t, reconciliation.SeverityCritical, report.Discrepancies[0].Severity)
	assert.Equal(t, "nn-ghost", report.Discrepancies[0].GatewayTransactionID)

	assert.Equal(t, 1, suite.sink.Count(domain.EventPaymentCompleted))
}

func (suite *E2ETestSuite) TestClientConfirm_SettlesAuthorizedTransaction() {
	t := suite.T()
	txn := suite.initiate()

	var res handlers.ConfirmPaymentResponse
	status, code := suite.client.Do(t, http.MethodPost, "/api/v1/payments/"+txn.ID+"/confirm", nil, &res)
	require.Equal(t, http.StatusOK, status, code)
	assert.True(t, res.Applied)
	assert.Equal(t, "completed", res.Transaction.Status)
	assert.Equal(t, 1, suite.db.Occupancy(t, suite.event.ID))
}

// ============================================================================
// WEBHOOK SAFETY
// ============================================================================

func (suite *E2ETestSuite) TestWebhook_RedeliveryCountsSeatOnce() {
	t := suite.T()
	txn := suite.initiate()
	providerID := *txn.GatewayTransactionID

	_, first := suite.notify("transaction.approved", "ev-dup", providerID)
	_, second := suite.notify("transaction.approved", "ev-dup", providerID)
	_, other := suite.notify("transaction.approved", "ev-other", providerID)

	assert.True(t, first.Applied)
	assert.True(t, second.Duplicate)
	assert.False(t, other.Applied)
	assert.Equal(t, 1, suite.db.Occupancy(t, suite.event.ID))
}

func (suite *E2ETestSuite) TestWebhook_ForgedSignatureRejected() {
	t := suite.T()
	txn := suite.initiate()

	body := fmt.Appendf(nil, `{"event_id":"ev-x","event":"transaction.approved","transaction_id":%q}`, *txn.GatewayTransactionID)
	status, code := suite.client.Do(t, http.MethodPost, "/webhooks/neonet", body, nil,
		"X-Neonet-Signature", gateway.HMACHex("not-the-secret", body))

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, domain.ErrCodeInvalidSignature, code)
	assert.Equal(t, "processing", suite.get(txn.ID).Status)
	assert.Equal(t, 0, suite.db.Occupancy(t, suite.event.ID))
}

// ============================================================================
// GUARDS
// ============================================================================

func (suite *E2ETestSuite) TestDeclinedThenRetryAllowed() {
	t := suite.T()
	txn := suite.initiate()

	status, code := suite.client.Do(t, http.MethodPost, "/api/v1/payments", map[string]any{
		"registration_id": suite.reg.ID, "gateway": "neonet", "amount": 10000, "currency": "GTQ",
	}, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, domain.ErrCodePaymentAlreadyExists, code)

	_, outcome := suite.notify("transaction.declined", "ev-decline", *txn.GatewayTransactionID)
	require.True(t, outcome.Applied)
	assert.Equal(t, "failed", suite.get(txn.ID).Status)

	again := suite.initiate()
	assert.NotEqual(t, txn.ID, again.ID)
}

func (suite *E2ETestSuite) TestHealth() {
	status, _ := suite.client.Do(suite.T(), http.MethodGet, "/health", nil, nil)
	assert.Equal(suite.T(), http.StatusOK, status)

	var snapshots []breaker.Snapshot
	status, _ = suite.client.Do(suite.T(), http.MethodGet, "/api/v1/gateways/health", nil, &snapshots)
	require.Equal(suite.T(), http.StatusOK, status)
	require.Len(suite.T(), snapshots, 1)
	assert.Equal(suite.T(), breaker.StateClosed, snapshots[0].State)
}
