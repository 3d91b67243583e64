package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/DanielPopoola/eventpay/internal/domain"
)

type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatusFor maps a domain error code to its HTTP status.
func StatusFor(code string) int {
	switch code {
	case domain.ErrCodeValidation, domain.ErrCodeInvalidSignature:
		return http.StatusBadRequest
	case domain.ErrCodeRegistrationNotFound, domain.ErrCodePaymentNotFound:
		return http.StatusNotFound
	case domain.ErrCodeInvalidRegistrationStatus,
		domain.ErrCodePaymentAlreadyExists,
		domain.ErrCodeInvalidPaymentStatus,
		domain.ErrCodePaymentNotRefundable:
		return http.StatusConflict
	case domain.ErrCodeInvalidRefundAmount:
		return http.StatusUnprocessableEntity
	case domain.ErrCodeGatewayError:
		return http.StatusBadGateway
	case domain.ErrCodeGatewayUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteError maps application errors to HTTP responses. Internal failures are
// logged and reported without their cause.
func WriteError(w http.ResponseWriter, err error, logger *slog.Logger) {
	code := domain.ErrCodeInternal
	message := "an unexpected error occurred"

	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) && domainErr.Code != domain.ErrCodeInternal {
		code = domainErr.Code
		message = domainErr.Message
	} else if logger != nil {
		logger.Error("request failed", "error", err)
	}

	WriteJSON(w, StatusFor(code), ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// WriteJSON encodes v as the response body.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
