package util

import (
	"encoding/json"
	"reflect"

	"github.com/shopspring/decimal"
)

// ToCents rounds d half away from zero to two decimals and returns cents.
func ToCents(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}

// FromCents converts cents back to a decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// CentsToFloat is used for JSON responses, where amounts are plain numbers.
func CentsToFloat(cents int64) float64 {
	return FromCents(cents).InexactFloat64()
}

// FormatCents renders cents with exactly two decimals, e.g. 1250 -> "12.50".
func FormatCents(cents int64) string {
	return FromCents(cents).StringFixed(2)
}

// Amount is a request amount. It decodes like decimal.Decimal but reports
// malformed input as a type error, so the decoder can name the field.
type Amount struct {
	decimal.Decimal
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	if err := a.Decimal.UnmarshalJSON(b); err != nil {
		return &json.UnmarshalTypeError{Value: "string " + string(b), Type: reflect.TypeOf(a.Decimal)}
	}
	return nil
}
