package application

import (
	"context"
	"time"

	"github.com/DanielPopoola/eventpay/internal/domain"
)

// EventSink receives domain events after a transaction changes state. Emit must not
// block the caller and never reports failure; delivery problems are the sink's to log.
type EventSink interface {
	Emit(ctx context.Context, eventType string, data domain.PaymentEventData)
}

// Clock is the time source used by the services and workers.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

type contextKey string

const correlationIDKey contextKey = "correlation_id"

// WithCorrelationID tags ctx so events emitted while handling it can be traced back.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

func CorrelationID(ctx context.Context) string {
	if v, ok := ctx.Value(correlationIDKey).(string); ok {
		return v
	}
	return ""
}
