package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DanielPopoola/eventpay/internal/application/reconciliation"
	"github.com/DanielPopoola/eventpay/internal/application/services/testhelpers"
	"github.com/DanielPopoola/eventpay/internal/domain"
	"github.com/DanielPopoola/eventpay/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type windowCall struct {
	gateway  domain.Gateway
	from, to time.Time
}

type fakeReconciliation struct {
	gateways []domain.Gateway
	failFor  domain.Gateway
	calls    []windowCall
}

func (f *fakeReconciliation) Gateways() []domain.Gateway {
	return f.gateways
}

func (f *fakeReconciliation) Reconcile(_ context.Context, gw domain.Gateway, from, to time.Time) (*reconciliation.Report, error) {
	f.calls = append(f.calls, windowCall{gateway: gw, from: from, to: to})
	if gw == f.failFor {
		return nil, errors.New("provider listing unavailable")
	}
	return &reconciliation.Report{
		Gateway: gw,
		From:    from,
		To:      to,
		Discrepancies: []reconciliation.Discrepancy{
			{Kind: reconciliation.KindMissingLocally, Severity: reconciliation.SeverityCritical, GatewayTransactionID: "ext-1"},
		},
	}, nil
}

func TestReconciler_RunOnce_CoversEveryListingGateway(t *testing.T) {
	now := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	fake := &fakeReconciliation{
		gateways: []domain.Gateway{domain.GatewayBAM, domain.GatewayNeoNet, domain.GatewayPayPal},
		failFor:  domain.GatewayNeoNet,
	}
	r := worker.NewReconciler(fake, testhelpers.NewFixedClock(now), time.Hour, 24*time.Hour, testhelpers.Logger())

	reports := r.RunOnce(context.Background())

	require.Len(t, fake.calls, 3)
	for _, c := range fake.calls {
		assert.Equal(t, now.Add(-24*time.Hour), c.from)
		assert.Equal(t, now, c.to)
	}
	require.Len(t, reports, 2, "a failing gateway does not stop the others")
	assert.Equal(t, domain.GatewayBAM, reports[0].Gateway)
	assert.Equal(t, domain.GatewayPayPal, reports[1].Gateway)
}

func TestReconciler_StartStopsWithContext(t *testing.T) {
	fake := &fakeReconciliation{}
	r := worker.NewReconciler(fake, testhelpers.NewFixedClock(time.Now()), 5*time.Millisecond, time.Hour, testhelpers.Logger())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reconciler did not stop")
	}
}
