// Package events publishes payment domain events. Envelopes are built synchronously
// and handed to a background dispatcher so the emitting transaction never waits on
// the broker.
package events

import (
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
)

const aggregatePayment = "payment_transaction"

// Event represents a domain event envelope
type Event struct {
	ID            string          `json:"event_id"`
	Type          string          `json:"type"`
	Version       int             `json:"version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	Data          json.RawMessage `json:"data"`
}

func NewEvent(eventType, aggregateID string, occurredAt time.Time, data any) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            ulid.Make().String(),
		Type:          eventType,
		Version:       1,
		OccurredAt:    occurredAt.UTC(),
		AggregateType: aggregatePayment,
		AggregateID:   aggregateID,
		Data:          dataBytes,
	}, nil
}

// Subject is the NATS subject the event is published on.
func (e *Event) Subject() string {
	return "events." + e.Type
}

func (e *Event) DecodeData(v any) error {
	return json.Unmarshal(e.Data, v)
}
