package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestSumEmptyIsZero(t *testing.T) {
	require.True(t, Sum().IsZero())
}

func TestSumNoDrift(t *testing.T) {
	// 0.1 added ten times must be exactly 1.00.
	tenth := decimal.RequireFromString("0.1")
	parts := make([]decimal.Decimal, 10)
	for i := range parts {
		parts[i] = tenth
	}
	require.Equal(t, "1.00", Format(Sum(parts...)))
}

func TestFormat(t *testing.T) {
	require.Equal(t, "450.00", Format(decimal.NewFromInt(450)))
	require.Equal(t, "99.90", Format(decimal.RequireFromString("99.9")))
}

func TestFormatWithCurrency(t *testing.T) {
	got := FormatWithCurrency(decimal.RequireFromString("1234.5"), "$", language.English)
	require.Equal(t, "$1,234.50", got)
}
