// Package core holds the domain model and the pure pieces of the tracker:
// money arithmetic, ledger effect calculation, and occurrence scheduling.
package core

import (
	"github.com/shopspring/decimal"
)

// Money is a fixed-point monetary amount held in integer cents. All balance
// arithmetic stays in cents; floating point never touches stored amounts.
type Money struct {
	Cents int64
}

// ParseMoney converts a decimal string ("150.00", "12,34") to Money with
// half-up rounding on the third decimal place. Negative inputs are rejected;
// direction is encoded by the transaction type, never by sign.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(normalizeDecimal(s))
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if d.IsNegative() {
		return Money{}, ErrInvalidAmount
	}
	cents := d.Shift(2).Round(0)
	if !cents.IsInteger() || cents.BigInt().BitLen() > 62 {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

func normalizeDecimal(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case ' ', '\t':
		case ',':
			out = append(out, '.')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

// String formats the amount with two decimal places, e.g. "-150.00".
func (m Money) String() string {
	return decimal.New(m.Cents, -2).StringFixed(2)
}

func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

func (m Money) Sub(other Money) Money {
	return Money{Cents: m.Cents - other.Cents}
}

func (m Money) Neg() Money {
	return Money{Cents: -m.Cents}
}

func (m Money) IsZero() bool {
	return m.Cents == 0
}
