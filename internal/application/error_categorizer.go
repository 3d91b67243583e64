package application

import (
	"context"
	"errors"

	"github.com/DanielPopoola/eventpay/internal/breaker"
	"github.com/DanielPopoola/eventpay/internal/domain"
	"github.com/DanielPopoola/eventpay/internal/gateway"
)

// ErrorCategory represents the nature of an error for retry logic
type ErrorCategory string

const (
	CategoryTransient      ErrorCategory = "TRANSIENT"
	CategoryPermanent      ErrorCategory = "PERMANENT"
	CategoryBusinessRule   ErrorCategory = "BUSINESS_RULE"
	CategoryClientError    ErrorCategory = "CLIENT_ERROR"
	CategoryInfrastructure ErrorCategory = "INFRASTRUCTURE"
)

// CategorizeError determines error category for retry and logging purposes
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return CategoryTransient
	}

	if errors.Is(err, breaker.ErrOpen) {
		return CategoryTransient
	}

	// Provider errors are checked before domain codes: GATEWAY_ERROR wraps them.
	if gwErr, ok := gateway.IsGatewayError(err); ok {
		if gwErr.IsRetryable() {
			return CategoryTransient
		}
		return CategoryPermanent
	}

	if errors.Is(err, gateway.ErrUnknownEvent) || errors.Is(err, gateway.ErrMalformedPayload) {
		return CategoryClientError
	}

	if errors.Is(err, domain.ErrInvalidTransition) {
		return CategoryBusinessRule
	}

	switch domain.ErrorCode(err) {
	case domain.ErrCodeValidation,
		domain.ErrCodeInvalidSignature,
		domain.ErrCodeRegistrationNotFound,
		domain.ErrCodePaymentNotFound:
		return CategoryClientError
	case domain.ErrCodeInvalidRegistrationStatus,
		domain.ErrCodePaymentAlreadyExists,
		domain.ErrCodeInvalidPaymentStatus,
		domain.ErrCodePaymentNotRefundable,
		domain.ErrCodeInvalidRefundAmount:
		return CategoryBusinessRule
	case domain.ErrCodeGatewayUnavailable, domain.ErrCodeGatewayError:
		return CategoryTransient
	}

	// Anything else is a transport failure talking to a provider or the database.
	return CategoryInfrastructure
}

// IsRetryable returns true if the error category suggests retry
func IsRetryable(err error) bool {
	category := CategorizeError(err)
	return category == CategoryTransient || category == CategoryInfrastructure
}
