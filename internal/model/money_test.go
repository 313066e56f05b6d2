package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatINR(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		want   string
	}{
		{name: "small", amount: "500", want: "₹500.00"},
		{name: "thousands", amount: "1234.5", want: "₹1,234.50"},
		{name: "just under a lakh", amount: "99999.99", want: "₹99,999.99"},
		{name: "lakh", amount: "250000", want: "₹2.50 L"},
		{name: "crore", amount: "12000000", want: "₹1.20 Cr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amt := decimal.RequireFromString(tt.amount)
			assert.Equal(t, tt.want, FormatINR(&amt))
		})
	}

	assert.Equal(t, "Not detected", FormatINR(nil))
}
