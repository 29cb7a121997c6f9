package pricing

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/praco-io/praco-backend/pkg/db/models"
	"github.com/praco-io/praco-backend/pkg/enums"
	pkgerrors "github.com/praco-io/praco-backend/pkg/errors"
)

// ValidateCandidateTier checks the tier set that would result from saving
// candidate alongside the variant's existing tiers of the same kind. A prior
// version of the candidate (same ID) is replaced, not duplicated. Violations
// come back as a field-keyed validation error.
func ValidateCandidateTier(candidate models.PricingTier, existing []models.PricingTier) error {
	final := make([]models.PricingTier, 0, len(existing)+1)
	for _, t := range existing {
		if t.TierKind != candidate.TierKind {
			continue
		}
		if candidate.ID != uuid.Nil && t.ID == candidate.ID {
			continue
		}
		final = append(final, t)
	}
	final = append(final, candidate)
	return ValidateTierSet(final, candidate.TierKind)
}

// ValidateTierSet checks the full set of a variant's tiers for one kind.
//
// Pack rules: every range_start positive, the smallest range must start at 1,
// exactly one tier is unbounded and it must come last, no overlaps, and
// consecutive ranges must be contiguous. Pallet rule: at most one tier.
func ValidateTierSet(tiers []models.PricingTier, kind enums.TierKind) error {
	fields := pkgerrors.FieldErrors{}

	same := make([]models.PricingTier, 0, len(tiers))
	for _, t := range tiers {
		if t.TierKind == kind {
			same = append(same, t)
		}
	}

	if kind == enums.TierKindPallet {
		if len(same) > 1 {
			fields.Add("tier_kind", "only one pallet tier is allowed per variant")
		}
		if fields.HasErrors() {
			return pkgerrors.NewFieldErrors(pkgerrors.CodeIntegrity, fields)
		}
		return nil
	}

	if len(same) == 0 {
		fields.Add("range_start", "at least one pack tier is required")
		return pkgerrors.NewFieldErrors(pkgerrors.CodeIntegrity, fields)
	}

	sort.SliceStable(same, func(i, j int) bool {
		return same[i].RangeStart < same[j].RangeStart
	})

	unbounded := 0
	for _, t := range same {
		if t.RangeStart <= 0 {
			fields.Add("range_start", fmt.Sprintf("range start %d must be positive", t.RangeStart))
		}
		if t.NoEndRange {
			unbounded++
		} else if t.RangeEnd == nil {
			fields.Add("range_end", fmt.Sprintf("tier starting at %d needs an end or no_end_range", t.RangeStart))
		} else if *t.RangeEnd < t.RangeStart {
			fields.Add("range_end", fmt.Sprintf("range end %d precedes range start %d", *t.RangeEnd, t.RangeStart))
		}
	}

	if unbounded == 0 {
		fields.Add("no_end_range", "exactly one tier must be unbounded")
	}
	if unbounded > 1 {
		fields.Add("no_end_range", "only one tier may be unbounded")
	}

	if same[0].RangeStart != 1 {
		fields.Add("range_start", "the first tier must start at 1")
	}

	for i := 0; i < len(same)-1; i++ {
		cur, next := same[i], same[i+1]
		if cur.NoEndRange {
			fields.Add("no_end_range", fmt.Sprintf("the unbounded tier starting at %d must be the last tier", cur.RangeStart))
			continue
		}
		end := effectiveEnd(cur)
		switch {
		case next.RangeStart <= end:
			fields.Add("range_start", fmt.Sprintf("tiers %s and %s overlap", cur.Label(), next.Label()))
		case next.RangeStart != end+1:
			fields.Add("range_start", fmt.Sprintf("gap between tiers %s and %s", cur.Label(), next.Label()))
		}
	}

	if fields.HasErrors() {
		return pkgerrors.NewFieldErrors(pkgerrors.CodeIntegrity, fields)
	}
	return nil
}

func effectiveEnd(t models.PricingTier) int {
	if t.NoEndRange || t.RangeEnd == nil {
		return math.MaxInt
	}
	return *t.RangeEnd
}

// CheckSellability reports whether a variant's tier configuration is complete
// enough for checkout under its show_units_per setting. It never raises for a
// malformed stored set; that simply reads as not sellable. The error return is
// reserved for unknown configuration values.
func CheckSellability(tiers []models.PricingTier, showUnitsPer enums.ShowUnitsPer) (bool, error) {
	palletCount := 0
	for _, t := range tiers {
		if t.TierKind == enums.TierKindPallet {
			palletCount++
		}
	}

	packComplete := ValidateTierSet(tiers, enums.TierKindPack) == nil

	switch showUnitsPer {
	case enums.ShowUnitsPerPack:
		return packComplete && palletCount == 0, nil
	case enums.ShowUnitsPerBoth:
		return packComplete && palletCount == 1, nil
	default:
		return false, fmt.Errorf("unknown show_units_per %q", showUnitsPer)
	}
}
