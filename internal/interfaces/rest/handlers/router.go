package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/DanielPopoola/eventpay/internal/api"
	"github.com/DanielPopoola/eventpay/internal/domain"
	"github.com/DanielPopoola/eventpay/internal/interfaces/rest"
	"github.com/DanielPopoola/eventpay/internal/interfaces/rest/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts the generated routes and the API docs behind the standard
// middleware chain. Requests are checked against the OpenAPI document before
// any handler runs.
func NewRouter(h *Handlers, requestTimeout time.Duration, logger *slog.Logger) (http.Handler, error) {
	doc, err := api.Document()
	if err != nil {
		return nil, err
	}
	validateRequests, err := middleware.OpenAPIValidator(doc, logger)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(validateRequests)

	api.RegisterDocsRoutes(r)

	return api.HandlerWithOptions(h, api.ChiServerOptions{
		BaseRouter: r,
		ErrorHandlerFunc: func(w http.ResponseWriter, _ *http.Request, err error) {
			rest.WriteError(w, domain.NewValidationError("%s", err.Error()), logger)
		},
	}), nil
}
