package domain

import "time"

type RefundStatus string

const (
	RefundPending    RefundStatus = "pending"
	RefundProcessing RefundStatus = "processing"
	RefundCompleted  RefundStatus = "completed"
	RefundFailed     RefundStatus = "failed"
	RefundCancelled  RefundStatus = "cancelled"
)

type Refund struct {
	ID              string
	TransactionID   string
	GatewayRefundID *string
	Amount          int64
	Fee             int64
	NetAmount       int64
	Reason          string
	Status          RefundStatus
	FailureReason   *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CompletedAt     *time.Time
}

func NewRefund(id, transactionID string, amount, fee int64, reason string, now time.Time) (*Refund, error) {
	if amount <= 0 {
		return nil, NewValidationError("refund amount must be positive, got %d", amount)
	}
	if fee < 0 || fee > amount {
		return nil, NewValidationError("refund fee %d out of range for amount %d", fee, amount)
	}
	return &Refund{
		ID:            id,
		TransactionID: transactionID,
		Amount:        amount,
		Fee:           fee,
		NetAmount:     amount - fee,
		Reason:        reason,
		Status:        RefundProcessing,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (r *Refund) Complete(gatewayRefundID string, at time.Time) error {
	if r.Status != RefundPending && r.Status != RefundProcessing {
		return ErrInvalidTransition
	}
	r.Status = RefundCompleted
	r.GatewayRefundID = &gatewayRefundID
	r.CompletedAt = &at
	r.UpdatedAt = at
	return nil
}

func (r *Refund) Fail(reason string, at time.Time) error {
	if r.Status != RefundPending && r.Status != RefundProcessing {
		return ErrInvalidTransition
	}
	r.Status = RefundFailed
	r.FailureReason = &reason
	r.UpdatedAt = at
	return nil
}

// Reserves reports whether the refund counts against the refundable balance.
func (r *Refund) Reserves() bool {
	switch r.Status {
	case RefundPending, RefundProcessing, RefundCompleted:
		return true
	}
	return false
}

// RefundTotals sums refunds that hold or have consumed part of a transaction's net amount.
func RefundTotals(refunds []*Refund) (reserved, completed int64) {
	for _, r := range refunds {
		if r.Reserves() {
			reserved += r.Amount
		}
		if r.Status == RefundCompleted {
			completed += r.Amount
		}
	}
	return reserved, completed
}

// RefundOutcome is the status of a settled payment once refunded of its netAmount
// has been returned.
func RefundOutcome(netAmount, refunded int64) TransactionStatus {
	if refunded >= netAmount {
		return StatusRefunded
	}
	return StatusPartiallyRefunded
}

// IsOutstanding reports whether the provider accepted the refund without settling it yet.
func (r *Refund) IsOutstanding() bool {
	return r.Status == RefundProcessing && r.GatewayRefundID != nil
}
