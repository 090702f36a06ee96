package services

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatQuantity renders a quantity using the Indian numbering system
// (e.g., 1,23,456.5). Trailing fractional zeros are dropped and at most
// three decimal places are kept.
func FormatQuantity(q decimal.Decimal) string {
	negative := q.IsNegative()
	raw := q.Abs().Round(3).String()

	intPart, decPart, _ := strings.Cut(raw, ".")
	decPart = strings.TrimRight(decPart, "0")

	result := applyIndianGrouping(intPart)
	if decPart != "" {
		result += "." + decPart
	}
	if negative {
		result = "-" + result
	}
	return result
}

// applyIndianGrouping inserts commas into an integer string using the
// Indian numbering system: the rightmost 3 digits form the first group,
// then every 2 digits form subsequent groups.
func applyIndianGrouping(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	// The last 3 digits stay together.
	result := s[n-3:]
	remaining := s[:n-3]

	// Group remaining digits in pairs from the right.
	for len(remaining) > 2 {
		result = remaining[len(remaining)-2:] + "," + result
		remaining = remaining[:len(remaining)-2]
	}
	if len(remaining) > 0 {
		result = remaining + "," + result
	}

	return result
}
