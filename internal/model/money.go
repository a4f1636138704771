package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrInvalidAmount indicates a monetary string that cannot be parsed.
var ErrInvalidAmount = errors.New("invalid amount")

// Money is a monetary amount in minor units (cents). Budgets are always
// non-negative; transaction amounts carry their statement sign, negative for
// spending.
type Money int64

// ParseMoney converts a decimal string to cents with half-up rounding on the
// third decimal place. Both dot (12.34) and comma (12,34) separators are
// accepted, as are a leading sign and a bare fractional part (".50").
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}

	negative := false
	switch s[0] {
	case '-':
		negative = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	if s == "" {
		return 0, ErrInvalidAmount
	}

	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}

	cents := iv * 100
	if len(fracPart) > 0 {
		fracCents := int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
		cents += fracCents
	}

	if negative {
		cents = -cents
	}
	return Money(cents), nil
}

// String formats the amount as a plain decimal with two fraction digits.
func (m Money) String() string {
	units := int64(m) / 100
	cents := int64(m) % 100
	sign := ""
	if m < 0 {
		sign = "-"
		units = -units
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, units, cents)
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m < 0
}
