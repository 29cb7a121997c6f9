package units

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/praco-io/praco-backend/pkg/enums"
)

func TestToKilograms(t *testing.T) {
	cases := []struct {
		name   string
		weight string
		unit   enums.WeightUnit
		want   string
	}{
		{"pounds", "10", enums.WeightUnitPound, "4.53592"},
		{"ounces", "16", enums.WeightUnitOunce, "0.453592"},
		{"grams", "2500", enums.WeightUnitGram, "2.5"},
		{"kilograms", "3.25", enums.WeightUnitKilogram, "3.25"},
		{"rounds to eight places", "0.123456789", enums.WeightUnitKilogram, "0.12345679"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ToKilograms(decimal.RequireFromString(tc.weight), tc.unit)
			if err != nil {
				t.Fatalf("ToKilograms: %v", err)
			}
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("ToKilograms(%s %s) = %s, want %s", tc.weight, tc.unit, got, tc.want)
			}
		})
	}
}

func TestToKilogramsRejectsUnknownUnit(t *testing.T) {
	if _, err := ToKilograms(decimal.NewFromInt(1), enums.WeightUnit("stone")); err == nil {
		t.Fatal("expected error for unknown unit")
	}
}
