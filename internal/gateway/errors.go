package gateway

import (
	"errors"
	"fmt"

	"github.com/DanielPopoola/eventpay/internal/domain"
)

// Error is a non-2xx answer from a provider.
type Error struct {
	Gateway    domain.Gateway
	Code       string
	Message    string
	StatusCode int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error [%s]: %s (status: %d)", e.Gateway, e.Code, e.Message, e.StatusCode)
}

func (e *Error) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}

func IsGatewayError(err error) (*Error, bool) {
	var gwErr *Error
	ok := errors.As(err, &gwErr)
	return gwErr, ok
}

var (
	ErrUnknownGateway   = errors.New("no adapter registered for gateway")
	ErrUnknownEvent     = errors.New("webhook event type not handled")
	ErrMalformedPayload = errors.New("malformed webhook payload")
)
