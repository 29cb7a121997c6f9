package pricing

import (
	"github.com/shopspring/decimal"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// LineInput carries everything needed to price one consolidated line.
// HasPrice is false when no PricingTierData row exists for the (item, tier)
// pair; such a line contributes zero and the inconsistency is surfaced at
// checkout or activation, not here.
type LineInput struct {
	UnitPrice       decimal.Decimal
	HasPrice        bool
	UnitsPerPack    int
	Quantity        int
	DiscountPercent decimal.Decimal
}

// PerPackPrice is the unit price multiplied by the item's units per pack.
func PerPackPrice(in LineInput) decimal.Decimal {
	if !in.HasPrice {
		return decimal.Zero
	}
	return in.UnitPrice.Mul(decimal.NewFromInt(int64(in.UnitsPerPack)))
}

// LineSubtotal prices one line: per-pack price x pack quantity, then the
// exclusive discount, rounded half-up to 2 decimals. The per-line rounding
// before summing is deliberate and must not be collapsed into a single pass.
func LineSubtotal(in LineInput) decimal.Decimal {
	if !in.HasPrice {
		return decimal.Zero
	}
	subtotal := PerPackPrice(in).Mul(decimal.NewFromInt(int64(in.Quantity)))
	if in.DiscountPercent.IsPositive() {
		subtotal = subtotal.Mul(one.Sub(in.DiscountPercent.Div(hundred)))
	}
	return subtotal.Round(2)
}

// Totals are the container-level money fields persisted on carts and orders.
type Totals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	VATAmount      decimal.Decimal
	Total          decimal.Decimal
}

// ComputeTotals sums already-rounded line subtotals and applies the
// container-level discount and VAT percentages. VAT applies to the raw
// subtotal, never per line.
func ComputeTotals(lineSubtotals []decimal.Decimal, discountPercent, vatPercent decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, s := range lineSubtotals {
		subtotal = subtotal.Add(s)
	}
	subtotal = subtotal.Round(2)

	discount := subtotal.Mul(discountPercent).Div(hundred).Round(2)
	vat := subtotal.Mul(vatPercent).Div(hundred).Round(2)

	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		VATAmount:      vat,
		Total:          subtotal.Sub(discount).Add(vat),
	}
}
