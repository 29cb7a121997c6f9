package enums

import "fmt"

// TierKind is the purchasing granularity a pricing tier (and the cart/order
// lines priced by it) applies to.
type TierKind string

const (
	TierKindPack   TierKind = "pack"
	TierKindPallet TierKind = "pallet"
)

var validTierKinds = []TierKind{
	TierKindPack,
	TierKindPallet,
}

// String implements fmt.Stringer.
func (k TierKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known TierKind.
func (k TierKind) IsValid() bool {
	for _, candidate := range validTierKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseTierKind converts raw input into a TierKind.
func ParseTierKind(value string) (TierKind, error) {
	for _, candidate := range validTierKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tier kind %q", value)
}
