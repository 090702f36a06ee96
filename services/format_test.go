package services

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatQuantity_Values(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"zero", "0", "0"},
		{"small integer", "5", "5"},
		{"trailing zeros dropped", "42.500", "42.5"},
		{"thousands", "1234.56", "1,234.56"},
		{"lakhs", "123456.78", "1,23,456.78"},
		{"crores", "12345678", "1,23,45,678"},
		{"rounded to three places", "2.34567", "2.346"},
		{"negative", "-250000.5", "-2,50,000.5"},
		{"exact lakh boundary", "100000", "1,00,000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatQuantity(decimal.RequireFromString(tt.input))
			if got != tt.expect {
				t.Errorf("FormatQuantity(%s) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

func TestApplyIndianGrouping(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"single digit", "5", "5"},
		{"two digits", "42", "42"},
		{"three digits", "999", "999"},
		{"four digits", "1234", "1,234"},
		{"five digits", "12345", "12,345"},
		{"six digits", "123456", "1,23,456"},
		{"seven digits", "1234567", "12,34,567"},
		{"eight digits", "12345678", "1,23,45,678"},
		{"nine digits", "123456789", "12,34,56,789"},
		{"ten digits", "1234567890", "1,23,45,67,890"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := applyIndianGrouping(tt.input)
			if got != tt.expect {
				t.Errorf("applyIndianGrouping(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}
