package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/praco-io/praco-backend/pkg/enums"
)

// SaveTierInput creates a tier when ID is nil and updates it otherwise.
type SaveTierInput struct {
	ID               uuid.UUID
	ProductVariantID uuid.UUID
	TierKind         enums.TierKind
	RangeStart       int
	RangeEnd         *int
	NoEndRange       bool
}

// UpsertTierDataInput sets the per-unit price for one (item, tier) pair.
type UpsertTierDataInput struct {
	ItemID        uuid.UUID
	PricingTierID uuid.UUID
	Price         decimal.Decimal
}

// CreateItemInput carries the writable item fields.
type CreateItemInput struct {
	ProductVariantID  uuid.UUID
	Title             string
	SKU               string
	UnitsPerPack      int
	IsPhysicalProduct bool
	Weight            *decimal.Decimal
	WeightUnit        *enums.WeightUnit
	TrackInventory    bool
	Stock             int
	Height            *decimal.Decimal
	Width             *decimal.Decimal
	Length            *decimal.Decimal
	MeasurementUnit   *enums.MeasurementUnit
}

// CreateTableFieldInput declares a custom attribute column on a variant.
type CreateTableFieldInput struct {
	ProductVariantID uuid.UUID
	Name             string
	FieldType        enums.FieldType
	LongField        bool
	Position         int
}

// SetItemDataInput writes one custom field value for an item.
type SetItemDataInput struct {
	ItemID       uuid.UUID
	TableFieldID uuid.UUID
	ValueText    *string
	ValueNumber  *decimal.Decimal
	ValueImage   *string
}

// SetExclusivePriceInput grants a user a discount on an item.
type SetExclusivePriceInput struct {
	UserID             uuid.UUID
	ItemID             uuid.UUID
	DiscountPercentage decimal.Decimal
}
