// Package core provides money parsing and handling utilities.
//
// Amounts are held in minor units (cents). User input is accepted with
// either a dot or a comma as the decimal separator.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// MaxAmountCents bounds the magnitude of a single amount so that sums over
// a ledger stay well inside int64.
const MaxAmountCents int64 = 1_000_000_000_000_000

// ParseDecimalToCents converts a decimal string to cents with half-up rounding
// on the third decimal place. Only strictly positive magnitudes are accepted;
// the sign of a transaction comes from its Kind.
//
// Examples:
//
//	ParseDecimalToCents("12.34")  -> 1234, nil
//	ParseDecimalToCents("12,34")  -> 1234, nil
//	ParseDecimalToCents("12.346") -> 1235, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
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
	if !allDigits(intPart) || !allDigits(fracPart) {
		return 0, ErrInvalidAmount
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if iv > MaxAmountCents/100 {
		return 0, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 || cents > MaxAmountCents {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// FormatCents renders cents with a currency prefix, dot thousands separators
// and a comma decimal separator (e.g. "Rp1.250.000,00").
func FormatCents(symbol string, cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	whole := strconv.FormatInt(cents/100, 10)
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	out := symbol + b.String() + "," + fmt.Sprintf("%02d", cents%100)
	if neg {
		return "-" + out
	}
	return out
}

// String formats the amount using the default currency symbol.
func (m Money) String() string {
	return FormatCents("Rp", m.Cents)
}
