package valueobject

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// All prices are US dollars held as decimal.Decimal. Stripe amounts are
// integer cents; conversion happens only at the gateway boundary.

var (
	hundred  = decimal.NewFromInt(100)
	usPrices = message.NewPrinter(language.AmericanEnglish)
)

// RoundCents rounds half away from zero to whole cents
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ToCents converts dollars to integer cents, rounding half away from zero
func ToCents(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}

// FromCents converts integer cents to dollars
func FromCents(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Div(hundred)
}

// CeilToStep rounds d up to the next multiple of step, so 12.01 with a
// 0.50 step becomes 12.50. A non-positive step returns d.
func CeilToStep(d, step decimal.Decimal) decimal.Decimal {
	if !step.IsPositive() {
		return d
	}
	return d.Div(step).Ceil().Mul(step)
}

// FormatUSD renders d for customer-facing messages, e.g. "$1,234.50"
func FormatUSD(d decimal.Decimal) string {
	return usPrices.Sprintf("$%.2f", RoundCents(d).InexactFloat64())
}
