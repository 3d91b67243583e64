// Package card checks card numbers and expiry dates before they reach a gateway.
// Raw card numbers are never retained; results only carry the last four digits.
package card

import (
	"regexp"
	"strings"
	"time"
)

type Brand string

const (
	BrandVisa       Brand = "visa"
	BrandMastercard Brand = "mastercard"
	BrandAmex       Brand = "amex"
	BrandDiscover   Brand = "discover"
	BrandDiners     Brand = "diners"
	BrandJCB        Brand = "jcb"
	BrandUnknown    Brand = "unknown"
)

const expiryWindowYears = 20

// jcb is checked before diners: ^35 would otherwise never win over ^3[0689].
var brandPatterns = []struct {
	brand   Brand
	pattern *regexp.Regexp
}{
	{BrandVisa, regexp.MustCompile(`^4`)},
	{BrandMastercard, regexp.MustCompile(`^(5[1-5]|2[2-7])`)},
	{BrandAmex, regexp.MustCompile(`^3[47]`)},
	{BrandDiscover, regexp.MustCompile(`^6(011|5)`)},
	{BrandJCB, regexp.MustCompile(`^35`)},
	{BrandDiners, regexp.MustCompile(`^3[0689]`)},
}

type Result struct {
	IsValid       bool     `json:"is_valid"`
	Brand         Brand    `json:"brand"`
	Last4         string   `json:"last4,omitempty"`
	IsLuhnValid   bool     `json:"is_luhn_valid"`
	IsExpiryValid bool     `json:"is_expiry_valid"`
	Errors        []string `json:"errors,omitempty"`
}

type Validator struct {
	now func() time.Time
}

func NewValidator() *Validator {
	return &Validator{now: time.Now}
}

// NewValidatorWithClock is used by tests to pin the current month.
func NewValidatorWithClock(now func() time.Time) *Validator {
	return &Validator{now: now}
}

func (v *Validator) Validate(number string, month, year int) Result {
	res := Result{Brand: BrandUnknown}

	digits := normalize(number)
	switch {
	case digits == "":
		res.Errors = append(res.Errors, "card number is required")
	case !isDigits(digits):
		res.Errors = append(res.Errors, "card number must contain only digits")
	case len(digits) < 13 || len(digits) > 19:
		res.Errors = append(res.Errors, "card number must be between 13 and 19 digits")
	default:
		res.Last4 = digits[len(digits)-4:]
		res.Brand = DetectBrand(digits)
		res.IsLuhnValid = Luhn(digits)
		if !res.IsLuhnValid {
			res.Errors = append(res.Errors, "card number failed checksum")
		}
	}

	res.IsExpiryValid = v.expiryValid(month, year)
	if !res.IsExpiryValid {
		res.Errors = append(res.Errors, "card is expired or expiry date is invalid")
	}

	res.IsValid = res.IsLuhnValid && res.IsExpiryValid
	return res
}

func (v *Validator) expiryValid(month, year int) bool {
	if month < 1 || month > 12 {
		return false
	}
	if year < 100 {
		year += 2000
	}

	now := v.now()
	currentYear, currentMonth := now.Year(), int(now.Month())

	if year < currentYear || (year == currentYear && month < currentMonth) {
		return false
	}
	return year <= currentYear+expiryWindowYears
}

// Luhn reports whether digits passes the mod-10 checksum.
func Luhn(digits string) bool {
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

func DetectBrand(digits string) Brand {
	for _, bp := range brandPatterns {
		if bp.pattern.MatchString(digits) {
			return bp.brand
		}
	}
	return BrandUnknown
}

func normalize(number string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(number))
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
