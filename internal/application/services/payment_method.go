package services

import (
	"encoding/json"
	"strings"

	"github.com/DanielPopoola/eventpay/internal/domain"
)

type rawCard struct {
	Number   string `json:"number"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
}

type storedCard struct {
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
}

// screenPaymentMethod validates raw card details, when present, and returns the
// form that may be persisted: the card number replaced by brand and last four.
// Tokenized methods pass through untouched.
func (s *PaymentService) screenPaymentMethod(raw json.RawMessage) (json.RawMessage, error) {
	if len(raw) == 0 {
		return raw, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, domain.NewValidationError("payment_method must be a JSON object")
	}
	cardJSON, ok := fields["card"]
	if !ok {
		return raw, nil
	}

	var c rawCard
	if err := json.Unmarshal(cardJSON, &c); err != nil {
		return nil, domain.NewValidationError("payment_method.card is malformed")
	}
	if c.Number == "" {
		return raw, nil
	}

	result := s.cards.Validate(c.Number, c.ExpMonth, c.ExpYear)
	if !result.IsValid {
		return nil, domain.NewValidationError("card rejected: %s", strings.Join(result.Errors, "; "))
	}

	redacted, err := json.Marshal(storedCard{
		Brand:    string(result.Brand),
		Last4:    result.Last4,
		ExpMonth: c.ExpMonth,
		ExpYear:  c.ExpYear,
	})
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	fields["card"] = redacted

	out, err := json.Marshal(fields)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	return out, nil
}
