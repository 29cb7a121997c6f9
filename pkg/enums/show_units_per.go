package enums

import "fmt"

// ShowUnitsPer controls which purchasing granularities a variant is sold in.
// Pallet purchasing is never directly selectable on its own; it activates via
// the cart weight threshold, so the only configurations are pack-only or both.
type ShowUnitsPer string

const (
	ShowUnitsPerPack ShowUnitsPer = "pack"
	ShowUnitsPerBoth ShowUnitsPer = "both"
)

var validShowUnitsPer = []ShowUnitsPer{
	ShowUnitsPerPack,
	ShowUnitsPerBoth,
}

// String implements fmt.Stringer.
func (s ShowUnitsPer) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShowUnitsPer.
func (s ShowUnitsPer) IsValid() bool {
	for _, candidate := range validShowUnitsPer {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseShowUnitsPer converts raw input into a ShowUnitsPer.
func ParseShowUnitsPer(value string) (ShowUnitsPer, error) {
	for _, candidate := range validShowUnitsPer {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid show units per %q", value)
}
