// Package core holds the ledger domain types.
//
// This file contains the decimal amount type used on the wire and in the
// transaction form.
package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

const (
	// maxAmountText bounds the raw field length.
	maxAmountText = 64
	// maxIntegerDigits and maxFractionDigits bound the parsed value so that
	// exponent notation cannot expand into an unbounded number of digits.
	maxIntegerDigits  = 18
	maxFractionDigits = 18
)

// Amount is a decimal amount stored as provided, without currency
// normalization. It is encoded as a bare JSON number.
type Amount struct {
	decimal.Decimal
}

// ParseAmount parses a decimal string such as "25.50". Surrounding
// whitespace is ignored. Anything decimal.NewFromString rejects is an
// ErrInvalidAmount, as is a value with more than 18 integer or 18
// fractional digits.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxAmountText {
		return Amount{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, ErrInvalidAmount
	}
	// Checked on the unscaled form; nothing here rescales d.
	exp := int64(d.Exponent())
	if exp < -maxFractionDigits || int64(d.NumDigits())+exp > maxIntegerDigits {
		return Amount{}, ErrInvalidAmount
	}
	return Amount{Decimal: d}, nil
}

// MustAmount is ParseAmount for literals known to be valid.
func MustAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// IsPositive reports whether the amount is strictly greater than zero.
func (a Amount) IsPositive() bool {
	return a.Decimal.Sign() > 0
}

// Fixed formats the amount with two decimals, as the dashboard shows it.
func (a Amount) Fixed() string {
	return a.Decimal.StringFixed(2)
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	return a.Decimal.UnmarshalJSON(b)
}
