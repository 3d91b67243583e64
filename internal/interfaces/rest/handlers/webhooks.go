package handlers

import (
	"net/http"

	"github.com/DanielPopoola/eventpay/internal/interfaces/rest"
)

// ReceiveWebhook handles POST /webhooks/{gateway}. The raw body is passed through
// untouched because providers sign the exact bytes they sent.
func (h *Handlers) ReceiveWebhook(w http.ResponseWriter, r *http.Request, gw string) {
	body, err := rest.ReadBody(r)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	signature := ""
	if header := h.webhooks.SignatureHeader(gw); header != "" {
		signature = r.Header.Get(header)
	}

	outcome, err := h.webhooks.Handle(r.Context(), gw, body, signature)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteData(w, http.StatusOK, outcome)
}
