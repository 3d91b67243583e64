package card_test

import (
	"testing"
	"time"

	"github.com/DanielPopoola/eventpay/internal/card"
	"github.com/stretchr/testify/assert"
)

func fixedValidator() *card.Validator {
	return card.NewValidatorWithClock(func() time.Time {
		return time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)
	})
}

func TestValidate_Luhn(t *testing.T) {
	v := fixedValidator()

	t.Run("valid visa", func(t *testing.T) {
		res := v.Validate("4242424242424242", 12, 2030)

		assert.True(t, res.IsValid)
		assert.True(t, res.IsLuhnValid)
		assert.Equal(t, card.BrandVisa, res.Brand)
		assert.Equal(t, "4242", res.Last4)
		assert.Empty(t, res.Errors)
	})

	t.Run("bad checksum", func(t *testing.T) {
		res := v.Validate("4242424242424241", 12, 2030)

		assert.False(t, res.IsValid)
		assert.False(t, res.IsLuhnValid)
		assert.Contains(t, res.Errors, "card number failed checksum")
	})

	t.Run("strips spaces and dashes", func(t *testing.T) {
		res := v.Validate("4242 4242-4242 4242", 12, 2030)
		assert.True(t, res.IsLuhnValid)
	})

	t.Run("rejects short numbers", func(t *testing.T) {
		res := v.Validate("424242424242", 12, 2030)
		assert.False(t, res.IsValid)
		assert.Equal(t, card.BrandUnknown, res.Brand)
	})

	t.Run("rejects letters", func(t *testing.T) {
		res := v.Validate("4242abcd42424242", 12, 2030)
		assert.False(t, res.IsValid)
		assert.Contains(t, res.Errors, "card number must contain only digits")
	})
}

func TestDetectBrand(t *testing.T) {
	tests := []struct {
		number string
		brand  card.Brand
	}{
		{"4111111111111111", card.BrandVisa},
		{"5555555555554444", card.BrandMastercard},
		{"2223003122003222", card.BrandMastercard},
		{"378282246310005", card.BrandAmex},
		{"6011111111111117", card.BrandDiscover},
		{"6500000000000002", card.BrandDiscover},
		{"3530111333300000", card.BrandJCB},
		{"30569309025904", card.BrandDiners},
		{"36227206271667", card.BrandDiners},
		{"9999999999999995", card.BrandUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.number, func(t *testing.T) {
			assert.Equal(t, tt.brand, card.DetectBrand(tt.number))
		})
	}
}

func TestValidate_Expiry(t *testing.T) {
	v := fixedValidator()

	tests := []struct {
		name  string
		month int
		year  int
		valid bool
	}{
		{"current month", 6, 2026, true},
		{"previous month", 5, 2026, false},
		{"last year", 12, 2025, false},
		{"two digit year", 1, 30, true},
		{"edge of window", 12, 2046, true},
		{"beyond window", 1, 2047, false},
		{"invalid month", 13, 2030, false},
		{"zero month", 0, 2030, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Validate("4242424242424242", tt.month, tt.year)
			assert.Equal(t, tt.valid, res.IsExpiryValid)
			assert.Equal(t, tt.valid, res.IsValid)
		})
	}
}
