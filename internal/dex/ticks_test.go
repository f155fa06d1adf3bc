package dex

import (
	"errors"
	"math/big"
	"testing"
)

func TestNearestUsableTick(t *testing.T) {
	cases := []struct {
		tick    int32
		spacing int32
		want    int32
	}{
		{tick: 103, spacing: 10, want: 100},
		{tick: 105, spacing: 10, want: 110},
		{tick: 5, spacing: 10, want: 10},
		{tick: -5, spacing: 10, want: 0},
		{tick: -15, spacing: 10, want: -10},
		{tick: -16, spacing: 10, want: -20},
		{tick: 0, spacing: 60, want: 0},
		{tick: 887272, spacing: 60, want: 887220},
		{tick: -887272, spacing: 60, want: -887220},
		{tick: 7, spacing: 1, want: 7},
	}

	for _, tc := range cases {
		got, err := NearestUsableTick(tc.tick, tc.spacing)
		if err != nil {
			t.Fatalf("nearest usable tick(%d, %d): %v", tc.tick, tc.spacing, err)
		}
		if got != tc.want {
			t.Fatalf("nearest usable tick(%d, %d) = %d, want %d", tc.tick, tc.spacing, got, tc.want)
		}
	}
}

func TestComputeTickRange(t *testing.T) {
	lower, upper, err := ComputeTickRange(103, 10)
	if err != nil {
		t.Fatalf("compute range: %v", err)
	}
	if lower != 80 || upper != 120 {
		t.Fatalf("unexpected range (%d, %d)", lower, upper)
	}
}

func TestComputeTickRangeAlignment(t *testing.T) {
	spacings := []int32{1, 10, 50, 60, 100, 200, 2000}
	ticks := []int32{-887272, -200001, -12345, -61, -1, 0, 1, 59, 103, 12345, 200001, 887272}

	for _, s := range spacings {
		for _, tick := range ticks {
			lower, upper, err := ComputeTickRange(tick, s)
			if err != nil {
				t.Fatalf("compute range(%d, %d): %v", tick, s, err)
			}
			if lower%s != 0 || upper%s != 0 {
				t.Fatalf("range (%d, %d) not aligned to %d", lower, upper, s)
			}
			if upper-lower != 4*s {
				t.Fatalf("range (%d, %d) width %d, want %d", lower, upper, upper-lower, 4*s)
			}
		}
	}
}

func TestComputeTickRangeInvalidSpacing(t *testing.T) {
	for _, s := range []int32{0, -10} {
		_, _, err := ComputeTickRange(103, s)
		var spacingErr *InvalidSpacingError
		if !errors.As(err, &spacingErr) {
			t.Fatalf("spacing %d: expected InvalidSpacingError, got %v", s, err)
		}
		if spacingErr.Spacing != s {
			t.Fatalf("spacing %d: error carries %d", s, spacingErr.Spacing)
		}
	}
}

func TestGetSqrtRatioAtTick(t *testing.T) {
	got, err := GetSqrtRatioAtTick(0)
	if err != nil {
		t.Fatalf("tick 0: %v", err)
	}
	if got.Cmp(new(big.Int).Lsh(big.NewInt(1), 96)) != 0 {
		t.Fatalf("tick 0: got %s", got)
	}

	got, err = GetSqrtRatioAtTick(MinTick)
	if err != nil {
		t.Fatalf("min tick: %v", err)
	}
	if got.Cmp(MinSqrtRatio) != 0 {
		t.Fatalf("min tick: got %s, want %s", got, MinSqrtRatio)
	}

	got, err = GetSqrtRatioAtTick(MaxTick)
	if err != nil {
		t.Fatalf("max tick: %v", err)
	}
	if got.Cmp(MaxSqrtRatio) != 0 {
		t.Fatalf("max tick: got %s, want %s", got, MaxSqrtRatio)
	}

	lo, _ := GetSqrtRatioAtTick(-60)
	hi, _ := GetSqrtRatioAtTick(60)
	if lo.Cmp(hi) >= 0 {
		t.Fatalf("sqrt ratio not increasing: %s >= %s", lo, hi)
	}

	if _, err := GetSqrtRatioAtTick(MaxTick + 1); !errors.Is(err, ErrTickOutOfBounds) {
		t.Fatalf("expected out of bounds, got %v", err)
	}
}

func TestCheckTickRange(t *testing.T) {
	lower, upper, err := ComputeTickRange(MinTick, 2000)
	if err != nil {
		t.Fatalf("compute range: %v", err)
	}
	if lower != -890000 || upper != -882000 {
		t.Fatalf("unexpected range (%d, %d)", lower, upper)
	}
	if err := CheckTickRange(lower, upper); !errors.Is(err, ErrTickOutOfBounds) {
		t.Fatalf("expected out of bounds below min tick, got %v", err)
	}

	lower, upper, err = ComputeTickRange(MaxTick, 2000)
	if err != nil {
		t.Fatalf("compute range: %v", err)
	}
	if err := CheckTickRange(lower, upper); !errors.Is(err, ErrTickOutOfBounds) {
		t.Fatalf("expected out of bounds above max tick, got %v", err)
	}

	if err := CheckTickRange(80, 120); err != nil {
		t.Fatalf("range (80, 120): %v", err)
	}
	if err := CheckTickRange(120, 120); err == nil {
		t.Fatalf("expected error for empty range")
	}
}
