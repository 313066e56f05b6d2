package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	lakh  = decimal.NewFromInt(100_000)
	crore = decimal.NewFromInt(10_000_000)
)

// FormatINR renders an amount the way Indian banks do: crores and lakhs are
// abbreviated, smaller amounts get thousands separators.
func FormatINR(amount *decimal.Decimal) string {
	if amount == nil {
		return "Not detected"
	}
	switch {
	case amount.GreaterThanOrEqual(crore):
		return "₹" + amount.Div(crore).StringFixed(2) + " Cr"
	case amount.GreaterThanOrEqual(lakh):
		return "₹" + amount.Div(lakh).StringFixed(2) + " L"
	default:
		return "₹" + groupThousands(amount.StringFixed(2))
	}
}

func groupThousands(s string) string {
	intPart, frac, _ := strings.Cut(s, ".")
	neg := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String()
	if neg {
		out = "-" + out
	}
	if frac != "" {
		out += "." + frac
	}
	return out
}
