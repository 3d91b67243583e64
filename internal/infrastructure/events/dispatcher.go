package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/DanielPopoola/eventpay/internal/application"
	"github.com/DanielPopoola/eventpay/internal/domain"
)

const (
	defaultBufferSize = 256
	publishTimeout    = 5 * time.Second
)

// Dispatcher is the application.EventSink. Emit enqueues and returns; a single
// goroutine drains the queue into the Publisher. A full queue drops the event with
// a warning rather than stalling a payment.
type Dispatcher struct {
	publisher Publisher
	logger    *slog.Logger
	queue     chan *Event
	wg        sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(publisher Publisher, bufferSize int, logger *slog.Logger) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	d := &Dispatcher{
		publisher: publisher,
		logger:    logger,
		queue:     make(chan *Event, bufferSize),
	}
	d.wg.Go(d.run)
	return d
}

func (d *Dispatcher) Emit(ctx context.Context, eventType string, data domain.PaymentEventData) {
	event, err := NewEvent(eventType, data.TransactionID, data.OccurredAt, data)
	if err != nil {
		d.logger.Error("failed to build domain event", "type", eventType, "transaction_id", data.TransactionID, "error", err)
		return
	}
	event.CorrelationID = application.CorrelationID(ctx)

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn("dispatcher closed, dropping event", "event_id", event.ID, "type", event.Type)
		return
	}

	select {
	case d.queue <- event:
	default:
		d.logger.Warn("event queue full, dropping event",
			"event_id", event.ID,
			"type", event.Type,
			"transaction_id", data.TransactionID,
		)
	}
}

func (d *Dispatcher) run() {
	for event := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := d.publisher.Publish(ctx, event); err != nil {
			d.logger.Error("failed to publish domain event",
				"event_id", event.ID,
				"type", event.Type,
				"aggregate_id", event.AggregateID,
				"error", err,
			)
		}
		cancel()
	}
}

// Close stops accepting events and waits for queued ones to be published or for
// ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ application.EventSink = (*Dispatcher)(nil)
