package common

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// AmountDecimals is the maximum number of fractional digits accepted for
	// an amount. Larger precision is rejected rather than rounded.
	AmountDecimals = 6

	// AmountSignificantDigits bounds amounts to what a float64 holds exactly,
	// so browser clients print the same digits when they sign.
	AmountSignificantDigits = 15
)

// maxAmount is where JavaScript switches to exponent notation.
var maxAmount = decimal.New(1, 21)

// ParseDecimal parses a decimal string without float precision loss.
// Accepts plain notation only ("10", "10.5", "0.01").
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty string")
	}
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, fmt.Errorf("exponent notation is not supported")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal %q", s)
	}
	return d, nil
}

// ParseAmount parses a transfer amount. The result is strictly positive, has
// at most AmountDecimals fractional digits and AmountSignificantDigits
// significant digits, and is below 1e21. Within those bounds FormatAmount
// matches the number that JSON.stringify writes.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := ParseDecimal(s)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount must be greater than zero")
	}
	if !d.Equal(d.Truncate(AmountDecimals)) {
		return decimal.Zero, fmt.Errorf("amount supports at most %d decimals", AmountDecimals)
	}
	if d.GreaterThanOrEqual(maxAmount) {
		return decimal.Zero, fmt.Errorf("amount is too large")
	}
	if digits := strings.TrimRight(d.Coefficient().String(), "0"); len(digits) > AmountSignificantDigits {
		return decimal.Zero, fmt.Errorf("amount supports at most %d significant digits", AmountSignificantDigits)
	}
	return d, nil
}

// FormatAmount formats an amount in its shortest form: 30, 30.5, 0.01.
// This is also the form used inside canonical transfer messages.
func FormatAmount(d decimal.Decimal) string {
	return d.String()
}

// FormatBalance formats a balance with two fixed decimals for display.
func FormatBalance(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// CompareAmounts compares two decimal string amounts.
// Returns: -1 if a < b, 0 if a == b, 1 if a > b, and error if parsing fails
func CompareAmounts(a, b string) (int, error) {
	aVal, err := ParseDecimal(a)
	if err != nil {
		return 0, fmt.Errorf("failed to parse amount '%s': %w", a, err)
	}

	bVal, err := ParseDecimal(b)
	if err != nil {
		return 0, fmt.Errorf("failed to parse amount '%s': %w", b, err)
	}

	return aVal.Cmp(bVal), nil
}
