package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestLineSubtotal(t *testing.T) {
	cases := []struct {
		name string
		in   LineInput
		want string
	}{
		{
			name: "unit price times units per pack times quantity",
			in:   LineInput{UnitPrice: dec("2.00"), HasPrice: true, UnitsPerPack: 1, Quantity: 5},
			want: "10.00",
		},
		{
			name: "eleven packs at tail tier price",
			in:   LineInput{UnitPrice: dec("1.50"), HasPrice: true, UnitsPerPack: 1, Quantity: 11},
			want: "16.50",
		},
		{
			name: "multi-unit packs",
			in:   LineInput{UnitPrice: dec("0.75"), HasPrice: true, UnitsPerPack: 12, Quantity: 3},
			want: "27.00",
		},
		{
			name: "exclusive discount applied",
			in:   LineInput{UnitPrice: dec("10.00"), HasPrice: true, UnitsPerPack: 1, Quantity: 4, DiscountPercent: dec("25")},
			want: "30.00",
		},
		{
			name: "rounds half up",
			in:   LineInput{UnitPrice: dec("0.335"), HasPrice: true, UnitsPerPack: 1, Quantity: 1},
			want: "0.34",
		},
		{
			name: "missing price row contributes zero",
			in:   LineInput{UnitsPerPack: 1, Quantity: 10},
			want: "0",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := LineSubtotal(tc.in)
			if !got.Equal(dec(tc.want)) {
				t.Fatalf("LineSubtotal = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestPerPackPrice(t *testing.T) {
	got := PerPackPrice(LineInput{UnitPrice: dec("1.25"), HasPrice: true, UnitsPerPack: 6})
	if !got.Equal(dec("7.50")) {
		t.Fatalf("PerPackPrice = %s, want 7.50", got)
	}
	if !PerPackPrice(LineInput{UnitsPerPack: 6}).IsZero() {
		t.Fatal("missing price should yield zero per-pack price")
	}
}

func TestComputeTotals(t *testing.T) {
	totals := ComputeTotals(
		[]decimal.Decimal{dec("10.00"), dec("16.50")},
		dec("10"),
		dec("20"),
	)

	if !totals.Subtotal.Equal(dec("26.50")) {
		t.Fatalf("subtotal = %s, want 26.50", totals.Subtotal)
	}
	if !totals.DiscountAmount.Equal(dec("2.65")) {
		t.Fatalf("discount = %s, want 2.65", totals.DiscountAmount)
	}
	if !totals.VATAmount.Equal(dec("5.30")) {
		t.Fatalf("vat = %s, want 5.30", totals.VATAmount)
	}
	if !totals.Total.Equal(dec("29.15")) {
		t.Fatalf("total = %s, want 29.15", totals.Total)
	}
}

func TestComputeTotalsDoubleRounding(t *testing.T) {
	// Each line is rounded before summing, so the container sum is exact even
	// when the unrounded line values would not be.
	lines := []decimal.Decimal{
		LineSubtotal(LineInput{UnitPrice: dec("0.335"), HasPrice: true, UnitsPerPack: 1, Quantity: 1}),
		LineSubtotal(LineInput{UnitPrice: dec("0.335"), HasPrice: true, UnitsPerPack: 1, Quantity: 1}),
	}
	totals := ComputeTotals(lines, decimal.Zero, decimal.Zero)
	if !totals.Subtotal.Equal(dec("0.68")) {
		t.Fatalf("subtotal = %s, want 0.68", totals.Subtotal)
	}
	if !totals.Total.Equal(dec("0.68")) {
		t.Fatalf("total = %s, want 0.68", totals.Total)
	}
}

func TestComputeTotalsEmpty(t *testing.T) {
	totals := ComputeTotals(nil, dec("10"), dec("20"))
	if !totals.Total.IsZero() {
		t.Fatalf("empty container total = %s, want 0", totals.Total)
	}
}
