package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/praco-io/praco-backend/pkg/enums"
)

// Cart is the one-per-user line container. VAT and discount percentages are
// business-set defaults stamped at provisioning time; monetary totals are
// recomputed after every mutation.
type Cart struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	VATPercent      decimal.Decimal `gorm:"column:vat_percent;type:numeric(5,2);not null;default:0"`
	DiscountPercent decimal.Decimal `gorm:"column:discount_percent;type:numeric(5,2);not null;default:0"`
	Subtotal        decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null;default:0"`
	VATAmount       decimal.Decimal `gorm:"column:vat_amount;type:numeric(12,2);not null;default:0"`
	DiscountAmount  decimal.Decimal `gorm:"column:discount_amount;type:numeric(12,2);not null;default:0"`
	Total           decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null;default:0"`
	Items           []CartItem      `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Cart) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CartItem is one consolidated line. Lines are unique per
// (cart, item, pricing tier, unit kind); the unit kind always matches the
// referenced tier's kind. Per-unit and per-pack prices are snapshots taken at
// the last recompute.
type CartItem struct {
	ID                   uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID               uuid.UUID       `gorm:"column:cart_id;type:uuid;not null;index;uniqueIndex:idx_cart_lines_identity"`
	ItemID               uuid.UUID       `gorm:"column:item_id;type:uuid;not null;uniqueIndex:idx_cart_lines_identity"`
	PricingTierID        uuid.UUID       `gorm:"column:pricing_tier_id;type:uuid;not null;uniqueIndex:idx_cart_lines_identity"`
	UnitKind             enums.TierKind  `gorm:"column:unit_kind;not null;default:'pack';uniqueIndex:idx_cart_lines_identity"`
	Quantity             int             `gorm:"column:quantity;not null"`
	PerUnitPrice         decimal.Decimal `gorm:"column:per_unit_price;type:numeric(12,2);not null;default:0"`
	PerPackPrice         decimal.Decimal `gorm:"column:per_pack_price;type:numeric(12,2);not null;default:0"`
	Subtotal             decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null;default:0"`
	UserExclusivePriceID *uuid.UUID      `gorm:"column:user_exclusive_price_id;type:uuid"`
	CreatedAt            time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *CartItem) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
