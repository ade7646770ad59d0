package types

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a fixed-point amount that marshals as a bare JSON number, the
// representation the ERP expects for xprice/xlinetotal.
type Money struct {
	dec decimal.Decimal
}

func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{dec: d}
}

func MoneyFromFloat(f float64) Money {
	return Money{dec: decimal.NewFromFloat(f)}
}

func MoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("parse money %q: %w", s, err)
	}
	return Money{dec: d}, nil
}

func (m Money) Decimal() decimal.Decimal {
	return m.dec
}

// MulInt returns the amount multiplied by an integer quantity.
func (m Money) MulInt(qty int) Money {
	return Money{dec: m.dec.Mul(decimal.NewFromInt(int64(qty)))}
}

func (m Money) Add(other Money) Money {
	return Money{dec: m.dec.Add(other.dec)}
}

func (m Money) Equal(other Money) bool {
	return m.dec.Equal(other.dec)
}

func (m Money) IsNegative() bool {
	return m.dec.IsNegative()
}

func (m Money) IsZero() bool {
	return m.dec.IsZero()
}

func (m Money) String() string {
	return m.dec.String()
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.dec.String()), nil
}

// UnmarshalJSON accepts both bare numbers and quoted decimal strings.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		m.dec = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("unmarshal money: %w", err)
	}
	m.dec = d
	return nil
}
