package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/praco-io/praco-backend/pkg/enums"
)

// PricingTier maps a pack-quantity range onto a price bracket for one variant
// and one purchasing granularity. RangeEnd is nil only when NoEndRange is set,
// which marks the open-ended tail of the tier set.
type PricingTier struct {
	ID               uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductVariantID uuid.UUID      `gorm:"column:product_variant_id;type:uuid;not null;index"`
	TierKind         enums.TierKind `gorm:"column:tier_kind;not null;default:'pack'"`
	RangeStart       int            `gorm:"column:range_start;not null"`
	RangeEnd         *int           `gorm:"column:range_end"`
	NoEndRange       bool           `gorm:"column:no_end_range;not null;default:false"`
	CreatedAt        time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (t *PricingTier) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Contains reports whether qty falls inside the tier's range.
func (t PricingTier) Contains(qty int) bool {
	if qty < t.RangeStart {
		return false
	}
	if t.NoEndRange || t.RangeEnd == nil {
		return true
	}
	return qty <= *t.RangeEnd
}

// Label renders the range the way storefronts display it, e.g. "1-10" or "11+".
func (t PricingTier) Label() string {
	if t.NoEndRange || t.RangeEnd == nil {
		return fmt.Sprintf("%d+", t.RangeStart)
	}
	return fmt.Sprintf("%d-%d", t.RangeStart, *t.RangeEnd)
}

// PricingTierData is the price-per-unit for one (item, tier) pair. The tier's
// variant must equal the item's variant; rows are unique per pair.
type PricingTierData struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ItemID        uuid.UUID       `gorm:"column:item_id;type:uuid;not null;uniqueIndex:idx_tier_data_item_tier"`
	PricingTierID uuid.UUID       `gorm:"column:pricing_tier_id;type:uuid;not null;uniqueIndex:idx_tier_data_item_tier"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (d *PricingTierData) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
