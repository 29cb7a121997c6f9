package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/praco-io/praco-backend/pkg/enums"
)

// UpsertLineInput identifies one consolidated line write. LineID is set when
// updating an existing line in place, so consolidation can exclude it from the
// duplicate lookup.
type UpsertLineInput struct {
	UserID        uuid.UUID
	LineID        *uuid.UUID
	ItemID        uuid.UUID
	PricingTierID uuid.UUID
	Quantity      int
	UnitKind      enums.TierKind
}

// AddItemInput is the container-level add: the tier and unit kind are chosen
// by the service from the consolidated quantity and projected cart weight.
type AddItemInput struct {
	UserID   uuid.UUID
	ItemID   uuid.UUID
	Quantity int
}

// Quote is the priced view of a cart.
type Quote struct {
	CartID         uuid.UUID
	Lines          []QuoteLine
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	VATAmount      decimal.Decimal
	Total          decimal.Decimal
	TotalWeightKG  decimal.Decimal
	PalletActive   bool
}

// QuoteLine mirrors one cart line with its priced snapshot.
type QuoteLine struct {
	LineID       uuid.UUID
	ItemID       uuid.UUID
	TierLabel    string
	UnitKind     enums.TierKind
	Quantity     int
	PerUnitPrice decimal.Decimal
	PerPackPrice decimal.Decimal
	Subtotal     decimal.Decimal
}
