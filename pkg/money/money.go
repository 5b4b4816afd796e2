package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// DefaultCurrency is used when a caller passes an unknown or blank ISO code.
const DefaultCurrency = "SGD"

// Unit resolves an ISO 4217 code, falling back to DefaultCurrency.
func Unit(code string) currency.Unit {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return currency.MustParseISO(DefaultCurrency)
	}
	return unit
}

// scale returns the number of minor-unit digits for the currency (2 for SGD, 0 for JPY).
func scale(unit currency.Unit) int32 {
	s, _ := currency.Standard.Rounding(unit)
	return int32(s)
}

// ParseMajor converts a major-unit amount such as "12.5" into minor units (1250),
// rounding half away from zero. Negative amounts are rejected.
func ParseMajor(raw, code string) (int64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, fmt.Errorf("amount is required")
	}
	amount, err := decimal.NewFromString(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", raw)
	}
	if amount.IsNegative() {
		return 0, fmt.Errorf("amount must not be negative")
	}
	return amount.Shift(scale(Unit(code))).Round(0).IntPart(), nil
}

// ToMajor converts minor units to a decimal major-unit amount.
func ToMajor(minor int64, code string) decimal.Decimal {
	return decimal.New(minor, -scale(Unit(code)))
}

// Format renders minor units for display, e.g. "SGD 31.00".
func Format(minor int64, code string) string {
	unit := Unit(code)
	return fmt.Sprintf("%s %s", unit.String(), decimal.New(minor, -scale(unit)).StringFixed(scale(unit)))
}
