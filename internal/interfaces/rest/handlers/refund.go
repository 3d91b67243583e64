package handlers

import (
	"net/http"

	"github.com/DanielPopoola/eventpay/internal/api"
	"github.com/DanielPopoola/eventpay/internal/application/services"
	"github.com/DanielPopoola/eventpay/internal/interfaces/rest"
)

// RefundPayment handles POST /api/v1/payments/{id}/refunds
func (h *Handlers) RefundPayment(w http.ResponseWriter, r *http.Request, id string) {
	var req api.RefundPaymentJSONRequestBody
	if err := rest.DecodeAndValidate(r, &req, false); err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	refund, err := h.payments.Refund(r.Context(), services.RefundCommand{
		TransactionID: id,
		Amount:        req.Amount,
		Reason:        req.Reason,
	})
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteData(w, http.StatusCreated, rest.ToRefundResponse(refund))
}

// ListRefunds handles GET /api/v1/payments/{id}/refunds
func (h *Handlers) ListRefunds(w http.ResponseWriter, r *http.Request, id string) {
	refunds, err := h.payments.ListRefunds(r.Context(), id)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	out := make([]rest.RefundResponse, 0, len(refunds))
	for _, refund := range refunds {
		out = append(out, rest.ToRefundResponse(refund))
	}
	rest.WriteData(w, http.StatusOK, out)
}
