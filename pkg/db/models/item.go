package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/praco-io/praco-backend/pkg/enums"
)

// Item is a concrete sellable SKU under a variant. UnitsPerPack feeds the
// pricing math (unit price x units per pack x pack quantity); weight and its
// unit feed pallet promotion. Stock is enforced only when TrackInventory is
// set.
type Item struct {
	ID                uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductVariantID  uuid.UUID              `gorm:"column:product_variant_id;type:uuid;not null;index"`
	Title             string                 `gorm:"column:title;not null"`
	SKU               string                 `gorm:"column:sku;not null;uniqueIndex"`
	Status            enums.CatalogStatus    `gorm:"column:status;not null;default:'draft'"`
	UnitsPerPack      int                    `gorm:"column:units_per_pack;not null;default:1"`
	IsPhysicalProduct bool                   `gorm:"column:is_physical_product;not null;default:true"`
	Weight            *decimal.Decimal       `gorm:"column:weight;type:numeric(14,8)"`
	WeightUnit        *enums.WeightUnit      `gorm:"column:weight_unit"`
	TrackInventory    bool                   `gorm:"column:track_inventory;not null;default:false"`
	Stock             int                    `gorm:"column:stock;not null;default:0"`
	Height            *decimal.Decimal       `gorm:"column:height;type:numeric(12,4)"`
	Width             *decimal.Decimal       `gorm:"column:width;type:numeric(12,4)"`
	Length            *decimal.Decimal       `gorm:"column:length;type:numeric(12,4)"`
	MeasurementUnit   *enums.MeasurementUnit `gorm:"column:measurement_unit"`
	Data              []ItemData             `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *Item) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// ItemData is the value of one custom table field for one item. Exactly one of
// the value columns is populated, matching the field's declared type.
type ItemData struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ItemID       uuid.UUID        `gorm:"column:item_id;type:uuid;not null;uniqueIndex:idx_item_data_item_field"`
	TableFieldID uuid.UUID        `gorm:"column:table_field_id;type:uuid;not null;uniqueIndex:idx_item_data_item_field"`
	ValueText    *string          `gorm:"column:value_text"`
	ValueNumber  *decimal.Decimal `gorm:"column:value_number;type:numeric(14,4)"`
	ValueImage   *string          `gorm:"column:value_image"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (d *ItemData) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
