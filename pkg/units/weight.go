// Package units converts catalog weights into the canonical kilogram values
// used by pallet promotion. All conversions quantize to 8 decimal places so
// threshold comparisons are reproducible across backends.
package units

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/praco-io/praco-backend/pkg/enums"
)

// KilogramPrecision is the scale every converted weight is rounded to.
const KilogramPrecision = 8

var kgFactors = map[enums.WeightUnit]decimal.Decimal{
	enums.WeightUnitPound:    decimal.RequireFromString("0.453592"),
	enums.WeightUnitOunce:    decimal.RequireFromString("0.0283495"),
	enums.WeightUnitGram:     decimal.RequireFromString("0.001"),
	enums.WeightUnitKilogram: decimal.NewFromInt(1),
}

// ToKilograms converts a weight in the given unit to kilograms, rounded
// half-up to 8 decimal places.
func ToKilograms(weight decimal.Decimal, unit enums.WeightUnit) (decimal.Decimal, error) {
	factor, ok := kgFactors[unit]
	if !ok {
		return decimal.Zero, fmt.Errorf("unknown weight unit %q", unit)
	}
	return weight.Mul(factor).Round(KilogramPrecision), nil
}
