package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/praco-io/praco-backend/pkg/enums"
)

// ProductVariant is a sellable configuration of a product. Its status is
// derived: draft until every configured tier granularity has a complete,
// contiguous tier set, active afterwards.
type ProductVariant struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID    uuid.UUID          `gorm:"column:product_id;type:uuid;not null;index"`
	Name         string             `gorm:"column:name;not null"`
	Status       enums.CatalogStatus `gorm:"column:status;not null;default:'draft'"`
	ShowUnitsPer enums.ShowUnitsPer `gorm:"column:show_units_per;not null;default:'pack'"`
	PricingTiers []PricingTier      `gorm:"foreignKey:ProductVariantID;constraint:OnDelete:CASCADE"`
	TableFields  []TableField       `gorm:"foreignKey:ProductVariantID;constraint:OnDelete:CASCADE"`
	Items        []Item             `gorm:"foreignKey:ProductVariantID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// TableField declares a custom attribute column rendered for every item of a
// variant. Field names colliding with built-in item columns are rejected at the
// service layer.
type TableField struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductVariantID uuid.UUID       `gorm:"column:product_variant_id;type:uuid;not null;index;uniqueIndex:idx_table_fields_variant_name"`
	Name             string          `gorm:"column:name;not null;uniqueIndex:idx_table_fields_variant_name"`
	FieldType        enums.FieldType `gorm:"column:field_type;not null;default:'text'"`
	LongField        bool            `gorm:"column:long_field;not null;default:false"`
	Position         int             `gorm:"column:position;not null;default:0"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (f *TableField) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
