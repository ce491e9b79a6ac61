package currency

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Payment amounts are decimal strings end to end. Floating point is only
// acceptable in display-level fee estimates, never in the amount that moves.

var ErrInvalidAmount = errors.New("invalid amount")

// Parse parses a decimal amount string exactly.
func Parse(amount string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	return d, nil
}

// Format renders an amount without trailing zeros, the shape the backend
// expects in request bodies.
func Format(d decimal.Decimal) string {
	return d.String()
}

// ToAtomic converts a human-readable amount into atomic token units
// (e.g. "12.5" with 6 decimals -> 12500000). Sub-atomic precision is
// truncated, matching how token contracts treat it.
func ToAtomic(amount string, decimals int32) (*big.Int, error) {
	d, err := Parse(amount)
	if err != nil {
		return nil, err
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("%w: negative amount %q", ErrInvalidAmount, amount)
	}
	return d.Shift(decimals).Truncate(0).BigInt(), nil
}

// FromAtomic converts atomic token units back into a decimal amount string.
func FromAtomic(v *big.Int, decimals int32) string {
	return decimal.NewFromBigInt(v, -decimals).String()
}

// ApplyPercentage returns pct percent of amount, exactly.
func ApplyPercentage(amount decimal.Decimal, pct float64) decimal.Decimal {
	return amount.Mul(decimal.NewFromFloat(pct)).Div(decimal.NewFromInt(100))
}

// FeeTotal combines a flat base fee with a percentage fee on amount.
func FeeTotal(amount decimal.Decimal, baseFee, percentageFee float64) decimal.Decimal {
	return decimal.NewFromFloat(baseFee).Add(ApplyPercentage(amount, percentageFee))
}
