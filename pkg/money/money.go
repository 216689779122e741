// Package money implements fixed-point monetary arithmetic for invoicing.
// All values are decimal; line amounts round to 2 places, aggregates are
// summed in full precision and rounded once at the end.
package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when a quantity, rate, discount or tax is negative.
var ErrInvalidAmount = errors.New("invalid amount")

// Places is the number of fractional digits kept in persisted amounts.
const Places = 2

// Amount computes qty x rate rounded to 2 places (half up).
func Amount(qty, rate decimal.Decimal) (decimal.Decimal, error) {
	if qty.IsNegative() || rate.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return qty.Mul(rate).Round(Places), nil
}

// Subtotal sums line amounts in full precision.
func Subtotal(amounts []decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, a := range amounts {
		sum = sum.Add(a)
	}
	return sum
}

// Total computes subtotal - discount + tax, rounded to 2 places.
func Total(subtotal, discount, tax decimal.Decimal) (decimal.Decimal, error) {
	if discount.IsNegative() || tax.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return subtotal.Sub(discount).Add(tax).Round(Places), nil
}
