package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/DanielPopoola/eventpay/internal/domain"
	"github.com/go-playground/validator"
)

const maxBodyBytes = 1 << 20

type APIResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

func WriteData(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, APIResponse{Success: true, Data: data})
}

var validate = validator.New()

// DecodeAndValidate reads a JSON body into v and checks its validate tags. An empty
// body is accepted when allowEmpty is set.
func DecodeAndValidate(r *http.Request, v any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			return domain.NewValidationError("invalid request body: %v", err)
		}
	}
	if err := validate.Struct(v); err != nil {
		return domain.NewValidationError("%s", err.Error())
	}
	return nil
}

// ReadBody returns the raw request body, bounded.
func ReadBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, domain.NewValidationError("could not read request body: %v", err)
	}
	return body, nil
}

type TransactionResponse struct {
	ID                   string          `json:"id"`
	GatewayTransactionID *string         `json:"gateway_transaction_id,omitempty"`
	RegistrationID       string          `json:"registration_id"`
	EventID              string          `json:"event_id"`
	Gateway              string          `json:"gateway"`
	Status               string          `json:"status"`
	Amount               int64           `json:"amount"`
	Currency             string          `json:"currency"`
	Fee                  int64           `json:"fee"`
	NetAmount            int64           `json:"net_amount"`
	PaymentMethod        json.RawMessage `json:"payment_method,omitempty"`
	RetryCount           int             `json:"retry_count"`
	ReviewRequired       bool            `json:"review_required,omitempty"`
	FailureReason        *string         `json:"failure_reason,omitempty"`
	ExpiresAt            time.Time       `json:"expires_at"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
	CompletedAt          *time.Time      `json:"completed_at,omitempty"`
	FailedAt             *time.Time      `json:"failed_at,omitempty"`
	RefundedAt           *time.Time      `json:"refunded_at,omitempty"`
}

// ToTransactionResponse leaves billing details out of API responses.
func ToTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:                   t.ID,
		GatewayTransactionID: t.GatewayTransactionID,
		RegistrationID:       t.RegistrationID,
		EventID:              t.EventID,
		Gateway:              string(t.Gateway),
		Status:               string(t.Status),
		Amount:               t.Amount,
		Currency:             string(t.Currency),
		Fee:                  t.Fee,
		NetAmount:            t.NetAmount,
		PaymentMethod:        t.PaymentMethod,
		RetryCount:           t.RetryCount,
		ReviewRequired:       t.ReviewRequired,
		FailureReason:        t.FailureReason,
		ExpiresAt:            t.ExpiresAt,
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
		CompletedAt:          t.CompletedAt,
		FailedAt:             t.FailedAt,
		RefundedAt:           t.RefundedAt,
	}
}

type RefundResponse struct {
	ID              string     `json:"id"`
	TransactionID   string     `json:"transaction_id"`
	GatewayRefundID *string    `json:"gateway_refund_id,omitempty"`
	Amount          int64      `json:"amount"`
	Fee             int64      `json:"fee"`
	NetAmount       int64      `json:"net_amount"`
	Reason          string     `json:"reason,omitempty"`
	Status          string     `json:"status"`
	FailureReason   *string    `json:"failure_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

func ToRefundResponse(r *domain.Refund) RefundResponse {
	return RefundResponse{
		ID:              r.ID,
		TransactionID:   r.TransactionID,
		GatewayRefundID: r.GatewayRefundID,
		Amount:          r.Amount,
		Fee:             r.Fee,
		NetAmount:       r.NetAmount,
		Reason:          r.Reason,
		Status:          string(r.Status),
		FailureReason:   r.FailureReason,
		CreatedAt:       r.CreatedAt,
		CompletedAt:     r.CompletedAt,
	}
}
