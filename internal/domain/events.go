package domain

import "time"

// Domain event types published after a transaction changes state.
const (
	EventPaymentInitiated = "payment.initiated"
	EventPaymentCompleted = "payment.completed"
	EventPaymentFailed    = "payment.failed"
	EventPaymentRefunded  = "payment.refunded"
	EventPaymentCancelled = "payment.cancelled"
	EventPaymentExpired   = "payment.expired"
	EventPaymentDisputed  = "payment.disputed"
)

// EventTypeFor maps a status reached by a transaction to the event announcing it.
func EventTypeFor(status TransactionStatus) (string, bool) {
	switch status {
	case StatusCompleted:
		return EventPaymentCompleted, true
	case StatusFailed:
		return EventPaymentFailed, true
	case StatusRefunded, StatusPartiallyRefunded:
		return EventPaymentRefunded, true
	case StatusCancelled:
		return EventPaymentCancelled, true
	case StatusExpired:
		return EventPaymentExpired, true
	case StatusDisputed:
		return EventPaymentDisputed, true
	}
	return "", false
}

type PaymentEventData struct {
	TransactionID  string            `json:"transaction_id"`
	RegistrationID string            `json:"registration_id"`
	EventID        string            `json:"event_id"`
	Gateway        Gateway           `json:"gateway"`
	Status         TransactionStatus `json:"status"`
	Amount         int64             `json:"amount"`
	Currency       Currency          `json:"currency"`
	Fee            int64             `json:"fee"`
	NetAmount      int64             `json:"net_amount"`
	RefundID       string            `json:"refund_id,omitempty"`
	RefundAmount   int64             `json:"refund_amount,omitempty"`
	FailureReason  string            `json:"failure_reason,omitempty"`
	OccurredAt     time.Time         `json:"occurred_at"`
}

func NewPaymentEventData(t *Transaction, at time.Time) PaymentEventData {
	d := PaymentEventData{
		TransactionID:  t.ID,
		RegistrationID: t.RegistrationID,
		EventID:        t.EventID,
		Gateway:        t.Gateway,
		Status:         t.Status,
		Amount:         t.Amount,
		Currency:       t.Currency,
		Fee:            t.Fee,
		NetAmount:      t.NetAmount,
		OccurredAt:     at,
	}
	if t.FailureReason != nil {
		d.FailureReason = *t.FailureReason
	}
	return d
}
