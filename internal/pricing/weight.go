package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/praco-io/praco-backend/pkg/enums"
	"github.com/praco-io/praco-backend/pkg/units"
)

// WeightLine is the weight-relevant slice of one container line. Lines whose
// item has no recorded weight contribute zero.
type WeightLine struct {
	Weight       *decimal.Decimal
	WeightUnit   *enums.WeightUnit
	UnitsPerPack int
	Quantity     int
}

// TotalWeightKG sums the container's weight in kilograms, each line quantized
// to 8 decimal places.
func TotalWeightKG(lines []WeightLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(lineWeightKG(l))
	}
	return total.Round(units.KilogramPrecision)
}

// UsePallet reports whether the given total weight reaches the pallet
// threshold. The threshold is inclusive.
func UsePallet(totalKG decimal.Decimal) bool {
	return totalKG.GreaterThanOrEqual(PalletThresholdKG)
}

func lineWeightKG(l WeightLine) decimal.Decimal {
	if l.Weight == nil || l.WeightUnit == nil {
		return decimal.Zero
	}
	kg, err := units.ToKilograms(*l.Weight, *l.WeightUnit)
	if err != nil {
		return decimal.Zero
	}
	return kg.
		Mul(decimal.NewFromInt(int64(l.UnitsPerPack))).
		Mul(decimal.NewFromInt(int64(l.Quantity))).
		Round(units.KilogramPrecision)
}
