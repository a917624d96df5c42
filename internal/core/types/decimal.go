// Package types provides the numeric value types shared by documents.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a rate or price with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// NewMoneyFromString creates a Money value from a string.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	return decimal.RequireFromString(s)
}

// Quantity is a fixed-point line quantity with 4 decimal places (scale = 1e4).
// The ERP stores quantities as floats; keeping them scaled avoids drift when
// quantities are re-derived from tag counts.
type Quantity int64

const (
	QuantityScale  int64 = 10_000
	quantityDigits int32 = 4
)

// QuantityFromCount converts a whole number of units (e.g. linked tags).
func QuantityFromCount(n int) Quantity {
	return Quantity(int64(n) * QuantityScale)
}

// NewQuantityFromDecimal rounds d to 4 places.
func NewQuantityFromDecimal(d decimal.Decimal) Quantity {
	return Quantity(d.Shift(quantityDigits).Round(0).IntPart())
}

// Decimal returns the quantity as a decimal value.
func (q Quantity) Decimal() decimal.Decimal {
	return decimal.New(int64(q), -quantityDigits)
}

func (q Quantity) Float64() float64 { return q.Decimal().InexactFloat64() }

func (q Quantity) IsZero() bool { return q == 0 }

func (q Quantity) IsPositive() bool { return q > 0 }

// String returns the shortest decimal representation ("3", "2.5").
func (q Quantity) String() string {
	return q.Decimal().String()
}

// MarshalJSON encodes Quantity as a JSON number.
func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalJSON accepts a JSON number, a numeric string, an empty string or null.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*q = 0
		return nil
	}

	s := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*q = 0
			return nil
		}
	}

	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("parse quantity %q: %w", s, err)
	}
	*q = NewQuantityFromDecimal(d)
	return nil
}

func init() {
	// The ERP expects numeric JSON for currency and rate fields.
	decimal.MarshalJSONWithoutQuotes = true
}
