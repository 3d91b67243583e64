package domain

import (
	"encoding/json"
	"time"
)

// WebhookEvent is a provider notification as it was received. Rows are written before
// any processing so a failed confirmation can be replayed later.
type WebhookEvent struct {
	ID              string
	Gateway         Gateway
	ProviderEventID string
	EventType       string
	TransactionRef  string
	Status          TransactionStatus
	// Amount is what the provider reported with the event. For refund events it is
	// the amount refunded so far.
	Amount          *int64
	Payload         json.RawMessage
	Attempts        int
	LastError       *string
	ReceivedAt      time.Time
	ProcessedAt     *time.Time
}

func (e *WebhookEvent) IsProcessed() bool {
	return e.ProcessedAt != nil
}
