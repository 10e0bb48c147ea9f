package model

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an amount in cents. Balances, prices and transaction amounts
// are stored as integer cents so SQL arithmetic stays exact, and are
// rendered as decimal numbers on the wire (99450 -> 994.5).
type Money int64

// ErrInvalidMoney is returned when a value has more than two decimal
// places or does not fit in the cents range.
var ErrInvalidMoney = errors.New("invalid money amount")

const maxCents = int64(1) << 53

// MoneyFromDecimal converts a decimal amount to cents.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	c := d.Shift(2)
	if !c.IsInteger() {
		return 0, fmt.Errorf("%w: %s has more than two decimal places", ErrInvalidMoney, d.String())
	}
	if c.Abs().GreaterThan(decimal.NewFromInt(maxCents)) {
		return 0, fmt.Errorf("%w: %s out of range", ErrInvalidMoney, d.String())
	}
	return Money(c.IntPart()), nil
}

// ParseMoney parses a decimal string such as "5.5" or "40".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidMoney, err)
	}
	return MoneyFromDecimal(d)
}

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal { return decimal.New(int64(m), -2) }

func (m Money) String() string { return m.Decimal().String() }

// MarshalJSON renders the amount as a bare JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON accepts both JSON numbers and quoted decimal strings.
func (m *Money) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMoney, err)
	}
	v, err := MoneyFromDecimal(d)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// UnmarshalText lets configuration loaders read decimal strings.
func (m *Money) UnmarshalText(b []byte) error {
	v, err := ParseMoney(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
