// Package money provides fixed-point helpers for currency amounts.
// All fee arithmetic goes through decimal.Decimal so summation never
// accumulates binary floating-point drift; rounding to two decimals
// happens only at the display/export boundary.
package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Zero is the additive identity for amounts.
var Zero = decimal.Zero

// Sum adds a series of amounts. An empty series sums to zero.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// Format renders an amount with two fixed decimals, e.g. "1234.50".
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatWithCurrency renders an amount with a locale-aware grouping and
// the given currency symbol, for display surfaces only.
func FormatWithCurrency(d decimal.Decimal, symbol string, tag language.Tag) string {
	p := message.NewPrinter(tag)
	f, _ := d.Round(2).Float64()
	return p.Sprintf("%s%.2f", symbol, f)
}
