package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/DanielPopoola/eventpay/internal/api"
	"github.com/DanielPopoola/eventpay/internal/breaker"
	"github.com/DanielPopoola/eventpay/internal/domain"
	"github.com/DanielPopoola/eventpay/internal/interfaces/rest"
)

// GetGatewayHealth handles GET /api/v1/gateways/health
func (h *Handlers) GetGatewayHealth(w http.ResponseWriter, r *http.Request) {
	gateways := h.gateways.Gateways()
	out := make([]breaker.Snapshot, 0, len(gateways))
	for _, gw := range gateways {
		out = append(out, h.breakers.Snapshot(gw))
	}
	rest.WriteData(w, http.StatusOK, out)
}

// Reconcile handles GET /api/v1/reconciliation?gateway=&from=&to=. The window
// ends now and spans 24 hours unless bounded explicitly.
func (h *Handlers) Reconcile(w http.ResponseWriter, r *http.Request, params api.ReconcileParams) {
	gw, err := domain.ParseGateway(string(params.Gateway))
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	to := time.Now().UTC()
	if params.To != nil {
		to = *params.To
	}
	from := to.Add(-24 * time.Hour)
	if params.From != nil {
		from = *params.From
	}

	report, err := h.reconciliation.Reconcile(r.Context(), gw, from, to)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	rest.WriteData(w, http.StatusOK, report)
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// GetHealth handles GET /health
func (h *Handlers) GetHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	status := http.StatusOK
	for name, check := range h.checks {
		if err := check.HealthCheck(ctx); err != nil {
			h.logger.Warn("health check failed", "dependency", name, "error", err)
			resp.Checks[name] = "unavailable"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	rest.WriteJSON(w, status, resp)
}
