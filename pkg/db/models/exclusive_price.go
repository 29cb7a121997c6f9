package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UserExclusivePrice grants one user a percentage discount on one item.
// DiscountPercentage is constrained to [0,100].
type UserExclusivePrice struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID             uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_exclusive_user_item"`
	ItemID             uuid.UUID       `gorm:"column:item_id;type:uuid;not null;uniqueIndex:idx_exclusive_user_item"`
	DiscountPercentage decimal.Decimal `gorm:"column:discount_percentage;type:numeric(5,2);not null"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *UserExclusivePrice) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
