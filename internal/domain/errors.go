package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business logic error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeValidation                = "VALIDATION_ERROR"
	ErrCodeRegistrationNotFound      = "REGISTRATION_NOT_FOUND"
	ErrCodeInvalidRegistrationStatus = "INVALID_REGISTRATION_STATUS"
	ErrCodePaymentAlreadyExists      = "PAYMENT_ALREADY_EXISTS"
	ErrCodeGatewayUnavailable        = "GATEWAY_UNAVAILABLE"
	ErrCodeGatewayError              = "GATEWAY_ERROR"
	ErrCodePaymentNotFound           = "PAYMENT_NOT_FOUND"
	ErrCodeInvalidPaymentStatus      = "INVALID_PAYMENT_STATUS"
	ErrCodePaymentNotRefundable      = "PAYMENT_NOT_REFUNDABLE"
	ErrCodeInvalidRefundAmount       = "INVALID_REFUND_AMOUNT"
	ErrCodeInvalidSignature          = "INVALID_SIGNATURE"
	ErrCodeInternal                  = "INTERNAL_ERROR"
)

var ErrInvalidTransition = errors.New("invalid status transition")

func NewValidationError(format string, args ...any) *DomainError {
	return &DomainError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

func NewRegistrationNotFoundError(id string) *DomainError {
	return &DomainError{
		Code:    ErrCodeRegistrationNotFound,
		Message: fmt.Sprintf("registration %s not found", id),
	}
}

func NewInvalidRegistrationStatusError(id string, status RegistrationStatus) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidRegistrationStatus,
		Message: fmt.Sprintf("registration %s is %s, expected %s", id, status, RegistrationPendingPayment),
	}
}

func NewPaymentAlreadyExistsError(registrationID string) *DomainError {
	return &DomainError{
		Code:    ErrCodePaymentAlreadyExists,
		Message: fmt.Sprintf("registration %s already has an active payment", registrationID),
	}
}

func NewGatewayUnavailableError(gateway Gateway, err error) *DomainError {
	return &DomainError{
		Code:    ErrCodeGatewayUnavailable,
		Message: fmt.Sprintf("gateway %s is temporarily unavailable", gateway),
		Err:     err,
	}
}

func NewGatewayError(gateway Gateway, err error) *DomainError {
	return &DomainError{
		Code:    ErrCodeGatewayError,
		Message: fmt.Sprintf("gateway %s call failed", gateway),
		Err:     err,
	}
}

func NewPaymentNotFoundError(id string) *DomainError {
	return &DomainError{
		Code:    ErrCodePaymentNotFound,
		Message: fmt.Sprintf("payment with ID %s not found", id),
	}
}

func NewInvalidPaymentStatusError(id string, status TransactionStatus) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidPaymentStatus,
		Message: fmt.Sprintf("payment %s is %s", id, status),
	}
}

func NewPaymentNotRefundableError(id string, status TransactionStatus) *DomainError {
	return &DomainError{
		Code:    ErrCodePaymentNotRefundable,
		Message: fmt.Sprintf("payment %s cannot be refunded while %s", id, status),
	}
}

func NewInvalidRefundAmountError(requested, remaining int64) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidRefundAmount,
		Message: fmt.Sprintf("refund amount %d exceeds refundable balance %d", requested, remaining),
	}
}

func NewInvalidSignatureError(gateway Gateway) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidSignature,
		Message: fmt.Sprintf("webhook signature for %s could not be verified", gateway),
	}
}

func NewInternalError(err error) *DomainError {
	return &DomainError{
		Code:    ErrCodeInternal,
		Message: "an internal error occurred",
		Err:     err,
	}
}

// IsErrorCode checks if an error is a DomainError with a specific code
func IsErrorCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// ErrorCode returns the code carried by err, or INTERNAL_ERROR.
func ErrorCode(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ErrCodeInternal
}
