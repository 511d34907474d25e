package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MinQuickLogAmount is the smallest amount accepted from a single manual entry.
var MinQuickLogAmount = decimal.RequireFromString("0.01")

// ParseAmount is the strict write-path parser. Both "12.50" and "12,50"
// are accepted; anything else, or a negative value, is rejected.
func ParseAmount(s string) (decimal.Decimal, error) {
	raw := strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if raw == "" {
		return decimal.Zero, &ValidationError{Field: "amount", Value: s, Err: ErrInvalidAmount}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return decimal.Zero, &ValidationError{Field: "amount", Value: s, Err: ErrInvalidAmount}
	}
	return d, nil
}

// CoerceAmount is the lenient read-path parser: anything non-numeric is 0.
func CoerceAmount(s string) decimal.Decimal {
	raw := strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Sum adds the amounts of txs.
func Sum(txs []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		total = total.Add(t.Amount)
	}
	return total
}
