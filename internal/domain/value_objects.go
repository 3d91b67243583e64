package domain

import "slices"

// Gateway identifies an external payment provider.
type Gateway string

const (
	GatewayStripe Gateway = "stripe"
	GatewayPayPal Gateway = "paypal"
	GatewayNeoNet Gateway = "neonet"
	GatewayBAM    Gateway = "bam"
)

var allGateways = []Gateway{GatewayStripe, GatewayPayPal, GatewayNeoNet, GatewayBAM}

// Gateways lists every provider the engine knows about.
func Gateways() []Gateway {
	return slices.Clone(allGateways)
}

func ParseGateway(s string) (Gateway, error) {
	g := Gateway(s)
	if !slices.Contains(allGateways, g) {
		return "", NewValidationError("unsupported gateway %q", s)
	}
	return g, nil
}

type Currency string

const (
	CurrencyGTQ Currency = "GTQ"
	CurrencyUSD Currency = "USD"
)

func ParseCurrency(s string) (Currency, error) {
	switch c := Currency(s); c {
	case CurrencyGTQ, CurrencyUSD:
		return c, nil
	}
	return "", NewValidationError("unsupported currency %q", s)
}

// Money is an amount in minor units.
type Money struct {
	Amount   int64
	Currency Currency
}

func NewMoney(amount int64, currency Currency) (Money, error) {
	if amount <= 0 {
		return Money{}, NewValidationError("amount must be positive, got %d", amount)
	}
	if currency == "" {
		return Money{}, NewValidationError("currency is required")
	}
	return Money{Amount: amount, Currency: currency}, nil
}
