package handlers

import (
	"net/http"

	"github.com/DanielPopoola/eventpay/internal/api"
	"github.com/DanielPopoola/eventpay/internal/application/services"
	"github.com/DanielPopoola/eventpay/internal/interfaces/rest"
)

// InitiatePayment handles POST /api/v1/payments
func (h *Handlers) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	var req api.InitiatePaymentJSONRequestBody
	if err := rest.DecodeAndValidate(r, &req, false); err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	txn, err := h.payments.Initiate(r.Context(), services.InitiateCommand{
		RegistrationID: req.RegistrationId,
		Gateway:        string(req.Gateway),
		Amount:         req.Amount,
		Currency:       string(req.Currency),
		Description:    req.Description,
		BillingInfo:    req.BillingInfo,
		PaymentMethod:  req.PaymentMethod,
	})
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteData(w, http.StatusCreated, rest.ToTransactionResponse(txn))
}

type ConfirmPaymentResponse struct {
	Transaction rest.TransactionResponse `json:"transaction"`
	Applied     bool                     `json:"applied"`
}

// ConfirmPayment handles POST /api/v1/payments/{id}/confirm. The provider is asked
// for the outcome; the caller cannot assert one.
func (h *Handlers) ConfirmPayment(w http.ResponseWriter, r *http.Request, id string) {
	res, err := h.payments.Confirm(r.Context(), services.ConfirmCommand{
		TransactionID: id,
		Source:        services.SourceClient,
	})
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteData(w, http.StatusOK, ConfirmPaymentResponse{
		Transaction: rest.ToTransactionResponse(res.Transaction),
		Applied:     res.Applied,
	})
}

// CancelPayment handles POST /api/v1/payments/{id}/cancel
func (h *Handlers) CancelPayment(w http.ResponseWriter, r *http.Request, id string) {
	var req api.CancelPaymentJSONRequestBody
	if err := rest.DecodeAndValidate(r, &req, true); err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	txn, err := h.payments.Cancel(r.Context(), id, req.Reason)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteData(w, http.StatusOK, rest.ToTransactionResponse(txn))
}

// ValidateCard handles POST /api/v1/cards/validate. The number is checked locally
// and never stored or logged.
func (h *Handlers) ValidateCard(w http.ResponseWriter, r *http.Request) {
	var req api.ValidateCardJSONRequestBody
	if err := rest.DecodeAndValidate(r, &req, false); err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteData(w, http.StatusOK, h.payments.ValidateCard(req.Number, req.ExpMonth, req.ExpYear))
}
