package util

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestToCents(t *testing.T) {
	tests := map[string]int64{
		"12.50":   1250,
		"12.5":    1250,
		"1000":    100000,
		"0.01":    1,
		"12.345":  1235,
		"12.344":  1234,
		"0.004":   0,
		"9999.99": 999999,
	}
	for in, want := range tests {
		if got := ToCents(decimal.RequireFromString(in)); got != want {
			t.Errorf("ToCents(%s) = %d, want %d", in, got, want)
		}
	}
}

func TestFromCents(t *testing.T) {
	if got := FormatCents(98750); got != "987.50" {
		t.Errorf("FormatCents(98750) = %q, want 987.50", got)
	}
	if got := CentsToFloat(1250); got != 12.5 {
		t.Errorf("CentsToFloat(1250) = %v, want 12.5", got)
	}
	if got := CentsToFloat(-1250); got != -12.5 {
		t.Errorf("CentsToFloat(-1250) = %v, want -12.5", got)
	}
	if !FromCents(1).Equal(decimal.RequireFromString("0.01")) {
		t.Errorf("FromCents(1) = %s, want 0.01", FromCents(1))
	}
}
