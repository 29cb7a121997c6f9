// Package pricing holds the pure tier-resolution, validation and price
// computation rules. Nothing here touches storage; the cart, orders and
// catalog services feed it rows and persist the results.
package pricing

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/praco-io/praco-backend/pkg/db/models"
	"github.com/praco-io/praco-backend/pkg/enums"
)

// PalletThresholdKG is the total container weight, in kilograms, at which
// pallet pricing activates. The comparison is inclusive.
var PalletThresholdKG = decimal.RequireFromString("750.00000000")

// ResolveTier picks the tier covering qty among the variant's tiers of the
// given kind. Tiers of other kinds are ignored. When no tier contains qty
// (the quantity exceeds every range, or the set has gaps) the tier with the
// greatest range_start is returned as a best-effort match. Returns nil when
// the variant has no tiers of that kind at all; callers must treat that as a
// validation failure, never as a free price.
func ResolveTier(tiers []models.PricingTier, kind enums.TierKind, qty int) *models.PricingTier {
	candidates := make([]models.PricingTier, 0, len(tiers))
	for _, t := range tiers {
		if t.TierKind == kind {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].RangeStart < candidates[j].RangeStart
	})

	for i := range candidates {
		if candidates[i].Contains(qty) {
			return &candidates[i]
		}
	}

	// Best-effort fallback: greatest range_start wins, last one on ties.
	best := &candidates[0]
	for i := range candidates {
		if candidates[i].RangeStart >= best.RangeStart {
			best = &candidates[i]
		}
	}
	return best
}
