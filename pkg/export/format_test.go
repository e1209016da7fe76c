package export

import (
	"testing"

	"github.com/sequenceit/proposaldesk/pkg/budget"
	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount   float64
		currency budget.Currency
		want     string
	}{
		{0, budget.BDT, "৳0.00"},
		{999, budget.BDT, "৳999.00"},
		{1000, budget.BDT, "৳1,000.00"},
		{143000, budget.BDT, "৳1,43,000.00"},
		{1234567.891, budget.BDT, "৳12,34,567.89"},
		{-5000, budget.BDT, "-৳5,000.00"},
		{1234567.5, budget.USD, "$1,234,567.50"},
		{100, budget.USD, "$100.00"},
		{123456, budget.EUR, "€123,456.00"},
		{10, budget.Currency("GBP"), "৳10.00"},
		{-0.001, budget.BDT, "৳0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAmount(tt.amount, tt.currency))
		})
	}
}

func TestFormatAmountCode(t *testing.T) {
	assert.Equal(t, "BDT 1,43,000.00", FormatAmountCode(143000, budget.BDT))
	assert.Equal(t, "USD 1,000.00", FormatAmountCode(1000, budget.USD))
	assert.Equal(t, "-EUR 2.50", FormatAmountCode(-2.5, budget.EUR))
}

func TestFormatQuantity(t *testing.T) {
	assert.Equal(t, "2", FormatQuantity(2))
	assert.Equal(t, "1.50", FormatQuantity(1.5))
}
