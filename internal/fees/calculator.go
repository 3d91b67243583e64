// Package fees computes gateway commissions and enforces per-gateway amount limits.
// All amounts are minor units; rate math is done in decimal to keep results exact.
package fees

import (
	"fmt"

	"github.com/DanielPopoola/eventpay/internal/domain"
	"github.com/shopspring/decimal"
)

// Limit bounds a single charge, inclusive, in minor units.
type Limit struct {
	Min int64
	Max int64
}

// Rate is a gateway's commission: a percentage plus a fixed fee per currency.
type Rate struct {
	Percent decimal.Decimal
	Fixed   map[domain.Currency]int64
	Limits  map[domain.Currency]Limit
}

type Schedule map[domain.Gateway]Rate

// DefaultSchedule holds the contracted rates for the four supported gateways.
func DefaultSchedule() Schedule {
	usd := Limit{Min: 50, Max: 1_000_000}
	gtq := Limit{Min: 500, Max: 7_500_000}

	return Schedule{
		domain.GatewayStripe: {
			Percent: decimal.RequireFromString("0.029"),
			Fixed:   map[domain.Currency]int64{domain.CurrencyUSD: 30, domain.CurrencyGTQ: 250},
			Limits:  map[domain.Currency]Limit{domain.CurrencyUSD: usd, domain.CurrencyGTQ: gtq},
		},
		domain.GatewayPayPal: {
			Percent: decimal.RequireFromString("0.0349"),
			Fixed:   map[domain.Currency]int64{domain.CurrencyUSD: 49},
			Limits:  map[domain.Currency]Limit{domain.CurrencyUSD: {Min: 100, Max: 1_000_000}},
		},
		domain.GatewayNeoNet: {
			Percent: decimal.RequireFromString("0.035"),
			Fixed:   map[domain.Currency]int64{},
			Limits:  map[domain.Currency]Limit{domain.CurrencyGTQ: gtq, domain.CurrencyUSD: usd},
		},
		domain.GatewayBAM: {
			Percent: decimal.RequireFromString("0.03"),
			Fixed:   map[domain.Currency]int64{domain.CurrencyGTQ: 100},
			Limits:  map[domain.Currency]Limit{domain.CurrencyGTQ: gtq},
		},
	}
}

type Breakdown struct {
	Amount    int64
	Fee       int64
	NetAmount int64
}

type Calculator struct {
	schedule Schedule
}

func NewCalculator(schedule Schedule) *Calculator {
	return &Calculator{schedule: schedule}
}

// ValidateAmount checks that gateway accepts currency and that amount is within its limits.
func (c *Calculator) ValidateAmount(amount int64, currency domain.Currency, gateway domain.Gateway) error {
	rate, ok := c.schedule[gateway]
	if !ok {
		return domain.NewValidationError("unsupported gateway %q", gateway)
	}
	limit, ok := rate.Limits[currency]
	if !ok {
		return domain.NewValidationError("gateway %s does not accept %s", gateway, currency)
	}
	if amount < limit.Min || amount > limit.Max {
		return domain.NewValidationError(
			"amount %s %s outside allowed range %s-%s for %s",
			FormatMinor(amount), currency, FormatMinor(limit.Min), FormatMinor(limit.Max), gateway,
		)
	}
	return nil
}

// Calculate returns the commission for a charge. fee = round_half_up(amount*percent) + fixed,
// never more than the amount itself.
func (c *Calculator) Calculate(amount int64, currency domain.Currency, gateway domain.Gateway) (Breakdown, error) {
	fee, err := c.fee(amount, currency, gateway)
	if err != nil {
		return Breakdown{}, err
	}
	return Breakdown{Amount: amount, Fee: fee, NetAmount: amount - fee}, nil
}

// RefundFee is half the commission the gateway would charge on amount.
func (c *Calculator) RefundFee(amount int64, currency domain.Currency, gateway domain.Gateway) (int64, error) {
	fee, err := c.fee(amount, currency, gateway)
	if err != nil {
		return 0, err
	}
	return decimal.NewFromInt(fee).Div(decimal.NewFromInt(2)).Round(0).IntPart(), nil
}

func (c *Calculator) fee(amount int64, currency domain.Currency, gateway domain.Gateway) (int64, error) {
	if amount <= 0 {
		return 0, domain.NewValidationError("amount must be positive, got %d", amount)
	}
	rate, ok := c.schedule[gateway]
	if !ok {
		return 0, domain.NewValidationError("unsupported gateway %q", gateway)
	}

	fee := decimal.NewFromInt(amount).Mul(rate.Percent).Round(0).IntPart() + rate.Fixed[currency]
	if fee > amount {
		fee = amount
	}
	return fee, nil
}

// FormatMinor renders minor units as a two-decimal string, e.g. 1050 -> "10.50".
func FormatMinor(amount int64) string {
	return decimal.New(amount, -2).StringFixed(2)
}

// ParseMajor converts a provider decimal string such as "10.50" to minor units.
func ParseMajor(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return d.Shift(2).Round(0).IntPart(), nil
}
