package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DanielPopoola/eventpay/internal/application/services"
	"github.com/DanielPopoola/eventpay/internal/application/services/testhelpers"
	"github.com/DanielPopoola/eventpay/internal/breaker"
	"github.com/DanielPopoola/eventpay/internal/domain"
	"github.com/DanielPopoola/eventpay/internal/fees"
	"github.com/DanielPopoola/eventpay/internal/gateway"
	"github.com/DanielPopoola/eventpay/internal/gateway/mocks"
	"github.com/DanielPopoola/eventpay/internal/infrastructure/persistence/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type PaymentServiceTestSuite struct {
	suite.Suite
	store    *memory.Store
	adapter  *mocks.MockAdapter
	breakers *breaker.Registry
	fees     *fees.Calculator
	sink     *testhelpers.RecordingSink
	clock    *testhelpers.FixedClock
	service  *services.PaymentService

	event domain.Event
	reg   domain.Registration
	seq   atomic.Int64
}

func TestPaymentServiceSuite(t *testing.T) {
	suite.Run(t, new(PaymentServiceTestSuite))
}

func (suite *PaymentServiceTestSuite) SetupTest() {
	suite.store = memory.NewStore()
	suite.adapter = mocks.NewMockAdapter(suite.T())
	suite.adapter.EXPECT().Gateway().Return(domain.GatewayStripe).Maybe()

	logger := testhelpers.Logger()
	suite.clock = testhelpers.NewFixedClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	suite.breakers = breaker.NewRegistry(breaker.Settings{FailureThreshold: 2, CoolDown: time.Hour}, logger, breaker.WithClock(suite.clock))
	suite.fees = fees.NewCalculator(fees.DefaultSchedule())
	suite.sink = &testhelpers.RecordingSink{}

	suite.service = services.NewPaymentService(
		suite.store,
		gateway.NewRegistry(suite.adapter),
		suite.breakers,
		suite.fees,
		suite.sink,
		suite.clock,
		logger,
		services.Options{GatewayTimeout: time.Second, PaymentTTL: 30 * time.Minute},
	)

	suite.event, suite.reg = suite.seedRegistration()
}

func (suite *PaymentServiceTestSuite) seedRegistration() (domain.Event, domain.Registration) {
	event, reg := testhelpers.NewRegistration()
	suite.store.AddEvent(event)
	suite.store.AddRegistration(reg)
	return event, reg
}

// processing initiates a payment for reg that the provider accepts.
func (suite *PaymentServiceTestSuite) processing(reg domain.Registration) *domain.Transaction {
	gwID := fmt.Sprintf("pi_%d", suite.seq.Add(1))
	suite.adapter.EXPECT().
		Initiate(mock.Anything, mock.MatchedBy(func(req gateway.InitiateRequest) bool {
			return req.Amount == 10000
		})).
		Return(&gateway.ProviderResponse{TransactionID: gwID, Status: domain.StatusProcessing, RawStatus: "requires_capture"}, nil).
		Once()

	txn, err := suite.service.Initiate(context.Background(), testhelpers.InitiateCommand(reg.ID, domain.GatewayStripe))
	suite.Require().NoError(err)
	suite.Require().Equal(domain.StatusProcessing, txn.Status)
	return txn
}

func (suite *PaymentServiceTestSuite) completed(reg domain.Registration) *domain.Transaction {
	txn := suite.processing(reg)
	res, err := suite.service.Confirm(context.Background(), services.ConfirmCommand{
		TransactionID: txn.ID,
		StatusHint:    domain.StatusCompleted,
		Source:        services.SourceWebhook,
	})
	suite.Require().NoError(err)
	suite.Require().True(res.Applied)
	return res.Transaction
}

func (suite *PaymentServiceTestSuite) occupancy() int {
	e, ok := suite.store.Event(suite.event.ID)
	suite.Require().True(ok)
	return e.Occupancy
}

func (suite *PaymentServiceTestSuite) registrationStatus() domain.RegistrationStatus {
	reg, err := suite.store.Repositories().Registrations.Get(context.Background(), suite.reg.ID)
	suite.Require().NoError(err)
	return reg.Status
}

// ============================================================================
// INITIATE
// ============================================================================

func (suite *PaymentServiceTestSuite) Test_Initiate_Success() {
	var submitted gateway.InitiateRequest
	suite.adapter.EXPECT().
		Initiate(mock.Anything, mock.Anything).
		Run(func(_ context.Context, req gateway.InitiateRequest) { submitted = req }).
		Return(&gateway.ProviderResponse{TransactionID: "pi_123", Status: domain.StatusProcessing}, nil).
		Once()

	txn, err := suite.service.Initiate(context.Background(), testhelpers.InitiateCommand(suite.reg.ID, domain.GatewayStripe))
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), domain.StatusProcessing, txn.Status)
	require.NotNil(suite.T(), txn.GatewayTransactionID)
	assert.Equal(suite.T(), "pi_123", *txn.GatewayTransactionID)
	assert.Equal(suite.T(), int64(10000), txn.Amount)
	// 2.9% + 30 cents
	assert.Equal(suite.T(), int64(320), txn.Fee)
	assert.Equal(suite.T(), int64(9680), txn.NetAmount)
	assert.Equal(suite.T(), suite.event.ID, txn.EventID)
	assert.Equal(suite.T(), suite.clock.Now().Add(30*time.Minute), txn.ExpiresAt)

	assert.Equal(suite.T(), txn.ID, submitted.TransactionID)
	assert.Equal(suite.T(), domain.CurrencyUSD, submitted.Currency)
	assert.Equal(suite.T(), []string{domain.EventPaymentInitiated}, suite.sink.Types())
}

func (suite *PaymentServiceTestSuite) Test_Initiate_RegistrationNotFound() {
	_, err := suite.service.Initiate(context.Background(), testhelpers.InitiateCommand("reg-missing", domain.GatewayStripe))
	assert.True(suite.T(), domain.IsErrorCode(err, domain.ErrCodeRegistrationNotFound))
}

func (suite *PaymentServiceTestSuite) Test_Initiate_RegistrationNotAwaitingPayment() {
	reg := suite.reg
	reg.Status = domain.RegistrationConfirmed
	suite.store.AddRegistration(reg)

	_, err := suite.service.Initiate(context.Background(), testhelpers.InitiateCommand(reg.ID, domain.GatewayStripe))
	assert.True(suite.T(), domain.IsErrorCode(err, domain.ErrCodeInvalidRegistrationStatus))
}

func (suite *PaymentServiceTestSuite) Test_Initiate_OneActiveTransactionPerRegistration() {
	suite.processing(suite.reg)

	_, err := suite.service.Initiate(context.Background(), testhelpers.InitiateCommand(suite.reg.ID, domain.GatewayStripe))
	assert.True(suite.T(), domain.IsErrorCode(err, domain.ErrCodePaymentAlreadyExists))
}

func (suite *PaymentServiceTestSuite) Test_Initiate_AmountOutsideGatewayLimits() {
	cmd := testhelpers.InitiateCommand(suite.reg.ID, domain.GatewayStripe)
	cmd.Amount = 10

	_, err := suite.service.Initiate(context.Background(), cmd)
	assert.True(suite.T(), domain.IsErrorCode(err, domain.ErrCodeValidation))
}

func (suite *PaymentServiceTestSuite) Test_Initiate_GatewayNotEnabled() {
	_, err := suite.service.Initiate(context.Background(), testhelpers.InitiateCommand(suite.reg.ID, domain.GatewayNeoNet))
	assert.True(suite.T(), domain.IsErrorCode(err, domain.ErrCodeValidation))
}

func (suite *PaymentServiceTestSuite) Test_Initiate_RejectsInvalidCard() {
	cmd := testhelpers.InitiateCommand(suite.reg.ID, domain.GatewayStripe)
	cmd.PaymentMethod = []byte(`{"type":"card","card":{"number":"4242424242424241","exp_month":12,"exp_year":2030}}`)

	_, err := suite.service.Initiate(context.Background(), cmd)
	assert.True(suite.T(), domain.IsErrorCode(err, domain.ErrCodeValidation))
	suite.adapter.AssertNotCalled(suite.T(), "Initiate", mock.Anything, mock.Anything)
}

func (suite *PaymentServiceTestSuite) Test_Initiate_StoresCardWithoutNumber() {
	cmd := testhelpers.InitiateCommand(suite.reg.ID, domain.GatewayStripe)
	cmd.PaymentMethod = []byte(`{"type":"card","card":{"number":"4242 4242 4242 4242","exp_month":12,"exp_year":2030}}`)

	suite.adapter.EXPECT().
		Initiate(mock.Anything, mock.Anything).
		Return(&gateway.ProviderResponse{TransactionID: "pi_card", Status: domain.StatusProcessing}, nil).
		Once()

	txn, err := suite.service.Initiate(context.Background(), cmd)
	require.NoError(suite.T(), err)

	stored := string(txn.PaymentMethod)
	assert.NotContains(suite.T(), stored, "4242424242424242")
	assert.NotContains(suite.T(), stored, "4242 4242")
	assert.Contains(suite.T(), stored, `"last4":"4242"`)
	assert.Contains(suite.T(), stored, `"brand":"visa"`)
}

func (suite *PaymentServiceTestSuite) Test_Initiate_GatewayFailureMarksFailed() {
	var txnID string
	suite.adapter.EXPECT().
		Initiate(mock.Anything, mock.Anything).
		Run(func(_ context.Context, req gateway.InitiateRequest) { txnID = req.TransactionID }).
		Return(nil, &gateway.Error{Gateway: domain.GatewayStripe, Code: "api_error", StatusCode: 500}).
		Once()

	_, err := suite.service.Initiate(context.Background(), testhelpers.InitiateCommand(suite.reg.ID, domain.GatewayStripe))
	require.Error(suite.T(), err)
	assert.True(suite.T(), domain.IsErrorCode(err, domain.ErrCodeGatewayError))

	txn, err := suite.service.Get(context.Background(), txnID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), domain.StatusFailed, txn.Status)
	assert.NotNil(suite.T(), txn.FailedAt)
	assert.Nil(suite.T(), txn.GatewayTransactionID)
	assert.Equal(suite.T(), uint32(1), suite.breakers.Snapshot(domain.GatewayStripe).Failures)
	assert.Equal(suite.T(), []string{domain.EventPaymentInitiated, domain.EventPaymentFailed}, suite.sink.Types())
}

func (suite *PaymentServiceTestSuite) Test_Initiate_OpenBreakerFailsFastWithoutPersisting() {
	suite.adapter.EXPECT().
		Initiate(mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused")).
		Times(2)

	for range 2 {
		_, reg := suite.seedRegistration()
		_, err := suite.service.Initiate(context.Background(), testhelpers.InitiateCommand(reg.ID, domain.GatewayStripe))
		require.Error(suite.T(), err)
	}
	snap := suite.breakers.Snapshot(domain.GatewayStripe)
	require.Equal(suite.T(), breaker.StateOpen, snap.State)
	require.NotNil(suite.T(), snap.NextAttemptAt)
	assert.Equal(suite.T(), suite.clock.Now().Add(time.Hour), *snap.NextAttemptAt)

	_, err := suite.service.Initiate(context.Background(), testhelpers.InitiateCommand(suite.reg.ID, domain.GatewayStripe))
	assert.True(suite.T(), domain.IsErrorCode(err, domain.ErrCodeGatewayUnavailable))

	_, err = suite.store.Repositories().Transactions.FindActiveByRegistration(context.Background(), suite.reg.ID)
	assert.ErrorIs(suite.T(), err, domain.ErrTransactionNotFound)
}

// ============================================================================
// CONFIRM
// ============================================================================

func (suite *PaymentServiceTestSuite) Test_Confirm_WebhookCompletesAndSettlesRegistration() {
	txn := suite.processing(suite.reg)

	res, err := suite.service.Confirm(context.Background(), services.ConfirmCommand{
		TransactionID: txn.ID,
		StatusHint:    domain.StatusCompleted,
		Source:        services.SourceWebhook,
	})
	require.NoError(suite.T(), err)

	assert.True(suite.T(), res.Applied)
	assert.Equal(suite.T(), domain.StatusCompleted, res.Transaction.Status)
	assert.NotNil(suite.T(), res.Transaction.CompletedAt)
	assert.Equal(suite.T(), domain.RegistrationConfirmed, suite.registrationStatus())
	assert.Equal(suite.T(), 1, suite.occupancy())
	assert.Equal(suite.T(), 1, suite.sink.Count(domain.EventPaymentCompleted))
}

func (suite *PaymentServiceTestSuite) Test_Confirm_RepeatedDeliveryAppliesOnce() {
	txn := suite.processing(suite.reg)

	applied := 0
	for range 5 {
		res, err := suite.service.Confirm(context.Background(), services.ConfirmCommand{
			TransactionID: txn.ID,
			StatusHint:    domain.StatusCompleted,
			Source:        services.SourceWebhook,
		})
		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), domain.StatusCompleted, res.Transaction.Status)
		if res.Applied {
			applied++
		}
	}

	assert.Equal(suite.T(), 1, applied)
	assert.Equal(suite.T(), 1, suite.occupancy())
	assert.Equal(suite.T(), 1, suite.sink.Count(domain.EventPaymentCompleted))
}

func (suite *PaymentServiceTestSuite) Test_Confirm_ConcurrentCallersSettleOnce() {
	txn := suite.processing(suite.reg)

	const callers = 20
	var applied atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for range callers {
		wg.Go(func() {
			<-start
			res, err := suite.service.Confirm(context.Background(), services.ConfirmCommand{
				TransactionID: txn.ID,
				StatusHint:    domain.StatusCompleted,
				Source:        services.SourceWebhook,
			})
			if err == nil && res.Applied {
				applied.Add(1)
			}
		})
	}
	close(start)
	wg.Wait()

	assert.Equal(suite.T(), int32(1), applied.Load())
	assert.Equal(suite.T(), 1, suite.occupancy())
	assert.Equal(suite.T(), 1, suite.sink.Count(domain.EventPaymentCompleted))
}

func (suite *PaymentServiceTestSuite) Test_Confirm_IneligibleStateIsNoOp() {
	txn := suite.processing(suite.reg)
	_, err := suite.service.Cancel(context.Background(), txn.ID, "attendee left")
	require.NoError(suite.T(), err)

	res, err := suite.service.Confirm(context.Background(), services.ConfirmCommand{
		TransactionID: txn.ID,
		StatusHint:    domain.StatusCompleted,
		Source:        services.SourceWebhook,
	})
	require.NoError(suite.T(), err)
	assert.False(suite.T(), res.Applied)
	assert.Equal(suite.T(), domain.StatusCancelled, res.Transaction.Status)
	assert.Equal(suite.T(), 0, suite.occupancy())
}

func (suite *PaymentServiceTestSuite) Test_Confirm_WebhookFailureLeavesRegistration() {
	txn := suite.processing(suite.reg)

	res, err := suite.service.Confirm(context.Background(), services.ConfirmCommand{
		TransactionID: txn.ID,
		StatusHint:    domain.StatusFailed,
		Source:        services.SourceWebhook,
	})
	require.NoError(suite.T(), err)
	assert.True(suite.T(), res.Applied)
	assert.Equal(suite.T(), domain.StatusFailed, res.Transaction.Status)
	require.NotNil(suite.T(), res.Transaction.FailureReason)
	assert.Equal(suite.T(), domain.RegistrationPendingPayment, suite.registrationStatus())
	assert.Equal(suite.T(), 0, suite.occupancy())
}

func (suite *PaymentServiceTestSuite) Test_Confirm_ClientSourceAsksProvider() {
	txn := suite.processing(suite.reg)
	suite.adapter.EXPECT().
		Confirm(mock.Anything, *txn.GatewayTransactionID).
		Return(&gateway.ProviderResponse{TransactionID: *txn.GatewayTransactionID, Status: domain.StatusCompleted, RawStatus: "succeeded"}, nil).
		Once()

	// The hint is ignored for non-webhook sources.
	res, err := suite.service.Confirm(context.Background(), services.ConfirmCommand{
		TransactionID: txn.ID,
		StatusHint:    domain.StatusFailed,
		Source:        services.SourceClient,
	})
	require.NoError(suite.T(), err)
	assert.True(suite.T(), res.Applied)
	assert.Equal(suite.T(), domain.StatusCompleted, res.Transaction.Status)
	assert.Equal(suite.T(), 1, suite.occupancy())
}

func (suite *PaymentServiceTestSuite) Test_Confirm_ProviderStillPending() {
	txn := suite.processing(suite.reg)
	suite.adapter.EXPECT().
		Confirm(mock.Anything, *txn.GatewayTransactionID).
		Return(&gateway.ProviderResponse{TransactionID: *txn.GatewayTransactionID, Status: domain.StatusProcessing}, nil).
		Once()

	res, err := suite.service.Confirm(context.Background(), services.ConfirmCommand{
		TransactionID: txn.ID,
		Source:        services.SourceClient,
	})
	require.NoError(suite.T(), err)
	assert.False(suite.T(), res.Applied)
	assert.Equal(suite.T(), domain.StatusProcessing, res.Transaction.Status)
}

func (suite *PaymentServiceTestSuite) Test_Confirm_SettledTransactionSkipsProvider() {
	txn := suite.completed(suite.reg)

	res, err := suite.service.Confirm(context.Background(), services.ConfirmCommand{
		TransactionID: txn.ID,
		Source:        services.SourceClient,
	})
	require.NoError(suite.T(), err)
	assert.False(suite.T(), res.Applied)
	suite.adapter.AssertNotCalled(suite.T(), "Confirm", mock.Anything, mock.Anything)
}

func (suite *PaymentServiceTestSuite) Test_Confirm_DisputeAfterSettlement() {
	txn := suite.completed(suite.reg)

	res, err := suite.service.Confirm(context.Background(), services.ConfirmCommand{
		TransactionID: txn.ID,
		StatusHint:    domain.StatusDisputed,
		Source:        services.SourceWebhook,
	})
	require.NoError(suite.T(), err)
	assert.True(suite.T(), res.Applied)
	assert.Equal(suite.T(), domain.StatusDisputed, res.Transaction.Status)
	assert.Equal(suite.T(), 1, suite.sink.Count(domain.EventPaymentDisputed))
	assert.Equal(suite.T(), 1, suite.occupancy())
}

func (suite *PaymentServiceTestSuite) Test_Confirm_UnknownTransaction() {
	_, err := suite.service.Confirm(context.Background(), services.ConfirmCommand{
		TransactionID: "00000000-0000-0000-0000-000000000000",
		StatusHint:    domain.StatusCompleted,
		Source:        services.SourceWebhook,
	})
	assert.True(suite.T(), domain.IsErrorCode(err, domain.ErrCodePaymentNotFound))
}

func (suite *PaymentServiceTestSuite) Test_Confirm_RejectsUnconfirmableHint() {
	_, err := suite.service.Confirm(context.Background(), services.ConfirmCommand{
		TransactionID: "txn",
		StatusHint:    domain.StatusPending,
		Source:        services.SourceWebhook,
	})
	assert.True(suite.T(), domain.IsErrorCode(err, domain.ErrCodeValidation))
}

// ============================================================================
// REFUND
// ============================================================================

func (suite *PaymentServiceTestSuite) expectRefund(gwID string, amount int64) {
	suite.adapter.EXPECT().
		Refund(mock.Anything, gwID, amount, mock.Anything).
		Return(&gateway.ProviderRefundResponse{RefundID: "re_" + gwID, Status: domain.RefundCompleted, RawStatus: "succeeded", Amount: amount}, nil).
		Once()
}

func (suite *PaymentServiceTestSuite) Test_Refund_Full() {
	txn := suite.completed(suite.reg)
	suite.expectRefund(*txn.GatewayTransactionID, txn.NetAmount)

	refund, err := suite.service.Refund(context.Background(), services.RefundCommand{
		TransactionID: txn.ID,
		Amount:        txn.NetAmount,
		Reason:        "event cancelled",
	})
	require.NoError(suite.T(), err)

	wantFee, err := suite.fees.RefundFee(txn.NetAmount, txn.Currency, txn.Gateway)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), domain.RefundCompleted, refund.Status)
	assert.Equal(suite.T(), wantFee, refund.Fee)
	assert.Equal(suite.T(), refund.Amount-refund.Fee, refund.NetAmount)

	updated, err := suite.service.Get(context.Background(), txn.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), domain.StatusRefunded, updated.Status)
	assert.NotNil(suite.T(), updated.RefundedAt)
	assert.Equal(suite.T(), 1, suite.sink.Count(domain.EventPaymentRefunded))
}

func (suite *PaymentServiceTestSuite) Test_Refund_PartialThenRemainder() {
	txn := suite.completed(suite.reg)
	gwID := *txn.GatewayTransactionID

	suite.expectRefund(gwID, 5000)
	_, err := suite.service.Refund(context.Background(), services.RefundCommand{TransactionID: txn.ID, Amount: 5000})
	require.NoError(suite.T(), err)

	updated, err := suite.service.Get(context.Background(), txn.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), domain.StatusPartiallyRefunded, updated.Status)

	remaining := txn.NetAmount - 5000
	_, err = suite.service.Refund(context.Background(), services.RefundCommand{TransactionID: txn.ID, Amount: remaining + 1})
	assert.True(suite.T(), domain.IsErrorCode(err, domain.ErrCodeInvalidRefundAmount))

	suite.expectRefund(gwID, remaining)
	_, err = suite.service.Refund(context.Background(), services.RefundCommand{TransactionID: txn.ID, Amount: remaining})
	require.NoError(suite.T(), err)

	updated, err = suite.service.Get(context.Background(), txn.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), domain.StatusRefunded, updated.Status)

	refunds, err := suite.service.ListRefunds(context.Background(), txn.ID)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), refunds, 2)
}

func (suite *PaymentServiceTestSuite) Test_Refund_ExceedsNetAmount() {
	txn := suite.completed(suite.reg)

	_, err := suite.service.Refund(context.Background(), services.RefundCommand{TransactionID: txn.ID, Amount: txn.Amount})
	assert.True(suite.T(), domain.IsErrorCode(err, domain.ErrCodeInvalidRefundAmount))
}

func (suite *PaymentServiceTestSuite) Test_Refund_NotRefundableWhileProcessing() {
	txn := suite.processing(suite.reg)

	_, err := suite.service.Refund(context.Background(), services.RefundCommand{TransactionID: txn.ID, Amount: 100})
	assert.True(suite.T(), domain.IsErrorCode(err, domain.ErrCodePaymentNotRefundable))
}

func (suite *PaymentServiceTestSuite) Test_Refund_GatewayFailureReleasesReservation() {
	txn := suite.completed(suite.reg)
	gwID := *txn.GatewayTransactionID

	suite.adapter.EXPECT().
		Refund(mock.Anything, gwID, txn.NetAmount, mock.Anything).
		Return(nil, &gateway.Error{Gateway: domain.GatewayStripe, Code: "api_error", StatusCode: 502}).
		Once()

	_, err := suite.service.Refund(context.Background(), services.RefundCommand{TransactionID: txn.ID, Amount: txn.NetAmount})
	assert.True(suite.T(), domain.IsErrorCode(err, domain.ErrCodeGatewayError))

	refunds, err := suite.service.ListRefunds(context.Background(), txn.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), refunds, 1)
	assert.Equal(suite.T(), domain.RefundFailed, refunds[0].Status)

	suite.expectRefund(gwID, txn.NetAmount)
	_, err = suite.service.Refund(context.Background(), services.RefundCommand{TransactionID: txn.ID, Amount: txn.NetAmount})
	assert.NoError(suite.T(), err)
}

func (suite *PaymentServiceTestSuite) Test_Refund_UnknownIDShapeIsNotFound() {
	_, err := suite.service.Refund(context.Background(), services.RefundCommand{TransactionID: "not-a-uuid", Amount: 100})
	assert.True(suite.T(), domain.IsErrorCode(err, domain.ErrCodePaymentNotFound))

	_, err = suite.service.Get(context.Background(), "not-a-uuid")
	assert.True(suite.T(), domain.IsErrorCode(err, domain.ErrCodePaymentNotFound))

	_, err = suite.service.ListRefunds(context.Background(), "12345")
	assert.True(suite.T(), domain.IsErrorCode(err, domain.ErrCodePaymentNotFound))
}

func (suite *PaymentServiceTestSuite) Test_Confirm_RefundedWebhookAfterPartialRefundKeepsRemainder() {
	txn := suite.completed(suite.reg)
	gwID := *txn.GatewayTransactionID

	suite.expectRefund(gwID, 1000)
	_, err := suite.service.Refund(context.Background(), services.RefundCommand{TransactionID: txn.ID, Amount: 1000})
	require.NoError(suite.T(), err)

	// Providers report a partial refund with the same event type as a full one.
	res, err := suite.service.Confirm(context.Background(), services.ConfirmCommand{
		TransactionID: txn.ID,
		StatusHint:    domain.StatusRefunded,
		Source:        services.SourceWebhook,
	})
	require.NoError(suite.T(), err)
	assert.False(suite.T(), res.Applied)
	assert.Equal(suite.T(), domain.StatusPartiallyRefunded, res.Transaction.Status)

	remaining := txn.NetAmount - 1000
	suite.expectRefund(gwID, remaining)
	_, err = suite.service.Refund(context.Background(), services.RefundCommand{TransactionID: txn.ID, Amount: remaining})
	require.NoError(suite.T(), err)

	updated, err := suite.service.Get(context.Background(), txn.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), domain.StatusRefunded, updated.Status)
}

func (suite *PaymentServiceTestSuite) Test_Confirm_RefundedWebhookUsesReportedAmount() {
	txn := suite.completed(suite.reg)
	partial := int64(1000)

	res, err := suite.service.Confirm(context.Background(), services.ConfirmCommand{
		TransactionID: txn.ID,
		StatusHint:    domain.StatusRefunded,
		Amount:        &partial,
		Source:        services.SourceWebhook,
	})
	require.NoError(suite.T(), err)
	assert.True(suite.T(), res.Applied)
	assert.Equal(suite.T(), domain.StatusPartiallyRefunded, res.Transaction.Status)

	full := txn.NetAmount
	res, err = suite.service.Confirm(context.Background(), services.ConfirmCommand{
		TransactionID: txn.ID,
		StatusHint:    domain.StatusRefunded,
		Amount:        &full,
		Source:        services.SourceWebhook,
	})
	require.NoError(suite.T(), err)
	assert.True(suite.T(), res.Applied)
	assert.Equal(suite.T(), domain.StatusRefunded, res.Transaction.Status)
}

// acceptedRefund starts a refund the provider accepts without settling.
func (suite *PaymentServiceTestSuite) acceptedRefund(txn *domain.Transaction, amount int64) *domain.Refund {
	suite.adapter.EXPECT().
		Refund(mock.Anything, *txn.GatewayTransactionID, amount, mock.Anything).
		Return(&gateway.ProviderRefundResponse{RefundID: "re_pending", Status: domain.RefundProcessing, RawStatus: "pending", Amount: amount}, nil).
		Once()

	refund, err := suite.service.Refund(context.Background(), services.RefundCommand{TransactionID: txn.ID, Amount: amount})
	suite.Require().NoError(err)
	suite.Require().Equal(domain.RefundProcessing, refund.Status)
	return refund
}

func (suite *PaymentServiceTestSuite) Test_SettleRefunds_CompletesAcceptedRefund() {
	txn := suite.completed(suite.reg)
	suite.acceptedRefund(txn, txn.NetAmount)
	gwID := *txn.GatewayTransactionID

	suite.adapter.EXPECT().
		RefundStatus(mock.Anything, gwID, "re_pending").
		Return(&gateway.ProviderRefundResponse{RefundID: "re_pending", Status: domain.RefundProcessing, RawStatus: "pending"}, nil).
		Once()
	n, err := suite.service.SettleRefunds(context.Background(), 10)
	require.NoError(suite.T(), err)
	assert.Zero(suite.T(), n)

	suite.adapter.EXPECT().
		RefundStatus(mock.Anything, gwID, "re_pending").
		Return(&gateway.ProviderRefundResponse{RefundID: "re_pending", Status: domain.RefundCompleted, RawStatus: "succeeded"}, nil).
		Once()
	n, err = suite.service.SettleRefunds(context.Background(), 10)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, n)

	updated, err := suite.service.Get(context.Background(), txn.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), domain.StatusRefunded, updated.Status)
	assert.Equal(suite.T(), 1, suite.sink.Count(domain.EventPaymentRefunded))

	n, err = suite.service.SettleRefunds(context.Background(), 10)
	require.NoError(suite.T(), err)
	assert.Zero(suite.T(), n, "settled refunds are no longer outstanding")
}

func (suite *PaymentServiceTestSuite) Test_SettleRefunds_RejectionReleasesReservation() {
	txn := suite.completed(suite.reg)
	suite.acceptedRefund(txn, txn.NetAmount)

	suite.adapter.EXPECT().
		RefundStatus(mock.Anything, *txn.GatewayTransactionID, "re_pending").
		Return(&gateway.ProviderRefundResponse{RefundID: "re_pending", Status: domain.RefundFailed, RawStatus: "failed"}, nil).
		Once()
	n, err := suite.service.SettleRefunds(context.Background(), 10)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, n)

	refunds, err := suite.service.ListRefunds(context.Background(), txn.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), refunds, 1)
	assert.Equal(suite.T(), domain.RefundFailed, refunds[0].Status)

	unchanged, err := suite.service.Get(context.Background(), txn.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), domain.StatusCompleted, unchanged.Status)

	suite.expectRefund(*txn.GatewayTransactionID, txn.NetAmount)
	_, err = suite.service.Refund(context.Background(), services.RefundCommand{TransactionID: txn.ID, Amount: txn.NetAmount})
	assert.NoError(suite.T(), err)
}

// ============================================================================
// CANCEL & EXPIRY
// ============================================================================

func (suite *PaymentServiceTestSuite) Test_Cancel() {
	txn := suite.processing(suite.reg)

	cancelled, err := suite.service.Cancel(context.Background(), txn.ID, "")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), domain.StatusCancelled, cancelled.Status)
	assert.Equal(suite.T(), 1, suite.sink.Count(domain.EventPaymentCancelled))

	_, err = suite.service.Cancel(context.Background(), txn.ID, "")
	assert.True(suite.T(), domain.IsErrorCode(err, domain.ErrCodeInvalidPaymentStatus))
}

func (suite *PaymentServiceTestSuite) Test_ExpireStale() {
	txn := suite.processing(suite.reg)
	_, otherReg := suite.seedRegistration()
	settled := suite.completed(otherReg)

	n, err := suite.service.ExpireStale(context.Background(), suite.clock.Now(), 10)
	require.NoError(suite.T(), err)
	assert.Zero(suite.T(), n)

	suite.clock.Advance(31 * time.Minute)
	n, err = suite.service.ExpireStale(context.Background(), suite.clock.Now(), 10)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, n)

	expired, err := suite.service.Get(context.Background(), txn.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), domain.StatusExpired, expired.Status)

	stillSettled, err := suite.service.Get(context.Background(), settled.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), domain.StatusCompleted, stillSettled.Status)
}

func (suite *PaymentServiceTestSuite) Test_ValidateCard() {
	res := suite.service.ValidateCard("4242424242424242", 12, 2030)
	assert.True(suite.T(), res.IsValid)
	assert.Equal(suite.T(), "visa", string(res.Brand))
}
