// Package money provides DKK amounts with exact decimal arithmetic for
// report output. Model quantities are denominated in 100.000 kr.; FromModel
// converts them to kroner.
package money

import (
	"github.com/shopspring/decimal"
)

// ModelUnit is the denomination of model quantities, in kroner.
const ModelUnit = 100000

// Money represents a DKK amount with financial precision.
type Money struct {
	decimal.Decimal
}

// New creates a Money amount from kroner.
func New(value float64) Money {
	return Money{decimal.NewFromFloat(value)}
}

// FromModel converts a model-denominated quantity (100.000 kr. units) to
// kroner.
func FromModel(value float64) Money {
	return Money{decimal.NewFromFloat(value).Mul(decimal.NewFromInt(ModelUnit))}
}

// Zero returns a zero amount.
func Zero() Money { return Money{decimal.Zero} }

// Add adds another amount.
func (m Money) Add(other Money) Money { return Money{m.Decimal.Add(other.Decimal)} }

// Sub subtracts another amount.
func (m Money) Sub(other Money) Money { return Money{m.Decimal.Sub(other.Decimal)} }

// Mul multiplies by a decimal factor.
func (m Money) Mul(factor decimal.Decimal) Money { return Money{m.Decimal.Mul(factor)} }

// DivInt divides by an integer count, for averaging.
func (m Money) DivInt(n int64) Money {
	return Money{m.Decimal.Div(decimal.NewFromInt(n))}
}

// Round rounds to whole øre.
func (m Money) Round() Money { return Money{m.Decimal.Round(2)} }

// String returns the amount with two decimals.
func (m Money) String() string { return m.Decimal.StringFixed(2) }

// Format returns the amount with the kr. suffix.
func (m Money) Format() string { return m.String() + " kr." }
