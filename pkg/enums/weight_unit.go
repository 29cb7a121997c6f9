package enums

import "fmt"

// WeightUnit is the unit an item's per-pack weight is recorded in.
type WeightUnit string

const (
	WeightUnitPound    WeightUnit = "lb"
	WeightUnitOunce    WeightUnit = "oz"
	WeightUnitGram     WeightUnit = "g"
	WeightUnitKilogram WeightUnit = "kg"
)

var validWeightUnits = []WeightUnit{
	WeightUnitPound,
	WeightUnitOunce,
	WeightUnitGram,
	WeightUnitKilogram,
}

// String implements fmt.Stringer.
func (u WeightUnit) String() string {
	return string(u)
}

// IsValid reports whether the value is a known WeightUnit.
func (u WeightUnit) IsValid() bool {
	for _, candidate := range validWeightUnits {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseWeightUnit converts raw input into a WeightUnit.
func ParseWeightUnit(value string) (WeightUnit, error) {
	for _, candidate := range validWeightUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid weight unit %q", value)
}

// MeasurementUnit is the unit item dimensions are recorded in.
type MeasurementUnit string

const (
	MeasurementUnitMillimeter MeasurementUnit = "mm"
	MeasurementUnitCentimeter MeasurementUnit = "cm"
	MeasurementUnitMeter      MeasurementUnit = "m"
	MeasurementUnitInch       MeasurementUnit = "in"
)

var validMeasurementUnits = []MeasurementUnit{
	MeasurementUnitMillimeter,
	MeasurementUnitCentimeter,
	MeasurementUnitMeter,
	MeasurementUnitInch,
}

// String implements fmt.Stringer.
func (u MeasurementUnit) String() string {
	return string(u)
}

// IsValid reports whether the value is a known MeasurementUnit.
func (u MeasurementUnit) IsValid() bool {
	for _, candidate := range validMeasurementUnits {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseMeasurementUnit converts raw input into a MeasurementUnit.
func ParseMeasurementUnit(value string) (MeasurementUnit, error) {
	for _, candidate := range validMeasurementUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid measurement unit %q", value)
}
