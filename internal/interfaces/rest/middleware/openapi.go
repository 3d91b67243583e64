package middleware

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/DanielPopoola/eventpay/internal/domain"
	"github.com/DanielPopoola/eventpay/internal/interfaces/rest"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers/gorillamux"
)

// OpenAPIValidator rejects requests that do not match the API document before
// they reach a handler. Requests for paths the document does not describe are
// passed through. The body is restored afterwards so webhook handlers still see
// the bytes the provider signed.
func OpenAPIValidator(doc *openapi3.T, logger *slog.Logger) (func(http.Handler) http.Handler, error) {
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}

	options := &openapi3filter.Options{
		AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, pathParams, err := router.FindRoute(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			body, err := rest.ReadBody(r)
			if err != nil {
				rest.WriteError(w, err, logger)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			err = openapi3filter.ValidateRequest(r.Context(), &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options:    options,
			})
			r.Body = io.NopCloser(bytes.NewReader(body))
			if err != nil {
				logger.Debug("request rejected by openapi validation",
					"method", r.Method,
					"path", r.URL.Path,
					"error", err,
				)
				rest.WriteError(w, domain.NewValidationError("%s", describe(err)), logger)
				return
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}

// describe reduces a validation failure to the offending field and reason.
// Schema errors otherwise carry a dump of the whole schema.
func describe(err error) string {
	reason := err.Error()

	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		reason = schemaErr.Reason
		if ptr := schemaErr.JSONPointer(); len(ptr) > 0 {
			reason = strings.Join(ptr, ".") + ": " + reason
		}
	}

	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		switch {
		case reqErr.Parameter != nil:
			return fmt.Sprintf("parameter %s: %s", reqErr.Parameter.Name, reason)
		case reqErr.RequestBody != nil && schemaErr != nil:
			return "request body: " + reason
		}
	}
	return reason
}
