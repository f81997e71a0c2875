// Package money provides fixed-precision monetary values in minor units.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MinorUnitScale is the number of decimal places in the configured currency's
// minor unit. The engine bills in a single currency with cent precision.
const MinorUnitScale = 2

// Money is an exact monetary amount stored as minor units (cents).
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// New returns a Money value holding the given minor units.
func New(amount int64, currency string) Money {
	return Money{Amount: amount, Currency: currency}
}

// Zero returns a zero amount in the given currency.
func Zero(currency string) Money {
	return Money{Amount: 0, Currency: currency}
}

// FromDecimal rounds a major-unit decimal to the currency's minor unit using
// round-half-to-even and returns the resulting Money. This is the single
// rounding boundary: intermediate terms must stay in decimal form.
func FromDecimal(d decimal.Decimal, currency string) Money {
	return Money{
		Amount:   d.RoundBank(MinorUnitScale).Shift(MinorUnitScale).IntPart(),
		Currency: currency,
	}
}

// Decimal converts the amount back to major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Amount, -MinorUnitScale)
}

// Add returns the sum of two amounts. Amounts are same-currency by
// construction; the engine operates in one configured currency.
func (m Money) Add(o Money) Money {
	return Money{Amount: m.Amount + o.Amount, Currency: m.Currency}
}

// Sub returns the difference of two amounts.
func (m Money) Sub(o Money) Money {
	return Money{Amount: m.Amount - o.Amount, Currency: m.Currency}
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.Amount == 0 }

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool { return m.Amount < 0 }

// Equal reports value equality of amount and currency.
func (m Money) Equal(o Money) bool {
	return m.Amount == o.Amount && m.Currency == o.Currency
}

// String renders the amount in major units, e.g. "95.00 EUR".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Decimal().StringFixed(MinorUnitScale), m.Currency)
}
