package handlers

import (
	"net/http"

	"github.com/DanielPopoola/eventpay/internal/interfaces/rest"
)

// GetPayment handles GET /api/v1/payments/{id}
func (h *Handlers) GetPayment(w http.ResponseWriter, r *http.Request, id string) {
	txn, err := h.payments.Get(r.Context(), id)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteData(w, http.StatusOK, rest.ToTransactionResponse(txn))
}
