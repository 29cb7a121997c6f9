package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/praco-io/praco-backend/pkg/enums"
)

// Order is a placed, frozen snapshot of a cart. Order lines are pack-only;
// tiers are re-resolved under the pack granularity at placement time and never
// rebalanced afterwards.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	Status          enums.OrderStatus   `gorm:"column:status;not null;default:'pending'"`
	PaymentStatus   enums.PaymentStatus `gorm:"column:payment_status;not null;default:'pending'"`
	VATPercent      decimal.Decimal     `gorm:"column:vat_percent;type:numeric(5,2);not null;default:0"`
	DiscountPercent decimal.Decimal     `gorm:"column:discount_percent;type:numeric(5,2);not null;default:0"`
	Subtotal        decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null;default:0"`
	VATAmount       decimal.Decimal     `gorm:"column:vat_amount;type:numeric(12,2);not null;default:0"`
	DiscountAmount  decimal.Decimal     `gorm:"column:discount_amount;type:numeric(12,2);not null;default:0"`
	TotalAmount     decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null;default:0"`
	ShippingAddress *string             `gorm:"column:shipping_address"`
	PaymentMethod   *string             `gorm:"column:payment_method"`
	TransactionID   *string             `gorm:"column:transaction_id"`
	Items           []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderItem mirrors CartItem structurally but upserts replace quantity instead
// of adding to it, and the unit kind is always pack.
type OrderItem struct {
	ID                   uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID              uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index;uniqueIndex:idx_order_lines_identity"`
	ItemID               uuid.UUID       `gorm:"column:item_id;type:uuid;not null;uniqueIndex:idx_order_lines_identity"`
	PricingTierID        uuid.UUID       `gorm:"column:pricing_tier_id;type:uuid;not null;uniqueIndex:idx_order_lines_identity"`
	UnitKind             enums.TierKind  `gorm:"column:unit_kind;not null;default:'pack';uniqueIndex:idx_order_lines_identity"`
	Quantity             int             `gorm:"column:quantity;not null"`
	PerUnitPrice         decimal.Decimal `gorm:"column:per_unit_price;type:numeric(12,2);not null;default:0"`
	PerPackPrice         decimal.Decimal `gorm:"column:per_pack_price;type:numeric(12,2);not null;default:0"`
	Subtotal             decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null;default:0"`
	UserExclusivePriceID *uuid.UUID      `gorm:"column:user_exclusive_price_id;type:uuid"`
	CreatedAt            time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *OrderItem) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
