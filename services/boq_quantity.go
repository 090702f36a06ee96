package services

import (
	"strings"

	"github.com/shopspring/decimal"
)

// parseQuantity reads a quantity cell. Thousands separators and spaces are
// ignored; anything unparsable reads as zero.
func parseQuantity(raw string) decimal.Decimal {
	q, ok := tryParseQuantity(raw)
	if !ok {
		return decimal.Zero
	}
	return q
}

func tryParseQuantity(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, false
	}
	s = strings.NewReplacer(",", "", " ", "", "\u00a0", "").Replace(s)
	q, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return q, true
}

// hasQuantity reports whether raw holds a non-zero number.
func hasQuantity(raw string) bool {
	q, ok := tryParseQuantity(raw)
	return ok && !q.IsZero()
}
