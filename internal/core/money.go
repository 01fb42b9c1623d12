// Package core holds the ledger domain model: transactions, categories,
// money and the summary aggregation rules. It has no I/O.
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a fixed-point amount stored in cents. Ledger arithmetic stays in
// integer cents so summing many small amounts cannot drift the way float64
// accumulation would.
type Money struct {
	Cents int64
}

var (
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

// MoneyFromDecimal converts d to cents, rounding half-up below one cent.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	c := d.Shift(2).Round(0)
	if c.Cmp(maxCents) > 0 || c.Cmp(minCents) < 0 {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: c.IntPart()}, nil
}

// MoneyFromFloat converts a float amount, typically a decoded JSON number.
// NaN and infinities are rejected before they reach the decimal layer.
func MoneyFromFloat(f float64) (Money, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Money{}, ErrInvalidAmount
	}
	return MoneyFromDecimal(decimal.NewFromFloat(f))
}

// MoneyFromString parses a decimal string such as "12.34".
func MoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return MoneyFromDecimal(d)
}

// Decimal returns the amount with the cents shifted back behind the point.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Amount returns the value as float64 for display. Use cents for math.
func (m Money) Amount() float64 {
	f, _ := m.Decimal().Float64()
	return f
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

// Validate enforces the ledger invariant that amounts are strictly positive.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// MarshalJSON emits a plain JSON number, e.g. 950 or 12.34.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON accepts any JSON number; range rules are applied by Validate
// so that a bad amount surfaces as a field error rather than a decode error.
func (m *Money) UnmarshalJSON(data []byte) error {
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return ErrInvalidAmount
	}
	v, err := MoneyFromDecimal(d)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
