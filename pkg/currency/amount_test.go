package currency

import (
	"errors"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParse(t *testing.T) {
	t.Parallel()

	d, err := Parse("100.25")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "100.25" {
		t.Fatalf("expected 100.25, got %s", d)
	}

	if _, err := Parse("not-a-number"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestToAtomic(t *testing.T) {
	t.Parallel()

	v, err := ToAtomic("12.5", 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Cmp(big.NewInt(12500000)) != 0 {
		t.Fatalf("expected 12500000, got %s", v)
	}

	// Sub-atomic precision truncates.
	v, err = ToAtomic("0.0000001", 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Sign() != 0 {
		t.Fatalf("expected 0, got %s", v)
	}

	if _, err := ToAtomic("-1", 6); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for negative amount, got %v", err)
	}
}

func TestFromAtomic(t *testing.T) {
	t.Parallel()

	if got := FromAtomic(big.NewInt(12500000), 6); got != "12.5" {
		t.Fatalf("expected 12.5, got %s", got)
	}
}

func TestFeeTotal(t *testing.T) {
	t.Parallel()

	amount := decimal.RequireFromString("100")

	// 0.5 base + 0.3% of 100 = 0.8
	total := FeeTotal(amount, 0.5, 0.3)
	if !total.Equal(decimal.RequireFromString("0.8")) {
		t.Fatalf("expected 0.8, got %s", total)
	}
}
