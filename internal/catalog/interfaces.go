package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/praco-io/praco-backend/pkg/db/models"
	"github.com/praco-io/praco-backend/pkg/enums"
)

// Repository defines persistence operations for catalog tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateCategory(ctx context.Context, category *models.Category) error
	CreateProduct(ctx context.Context, product *models.Product) error
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)

	CreateVariant(ctx context.Context, variant *models.ProductVariant) error
	FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
	UpdateVariantStatus(ctx context.Context, id uuid.UUID, status enums.CatalogStatus) error

	CreateTableField(ctx context.Context, field *models.TableField) error
	ListTableFields(ctx context.Context, variantID uuid.UUID) ([]models.TableField, error)
	FindTableField(ctx context.Context, id uuid.UUID) (*models.TableField, error)
	UpsertItemData(ctx context.Context, data *models.ItemData) error

	CreateItem(ctx context.Context, item *models.Item) error
	FindItem(ctx context.Context, id uuid.UUID) (*models.Item, error)
	ListItemsByVariant(ctx context.Context, variantID uuid.UUID) ([]models.Item, error)
	UpdateItemStatus(ctx context.Context, id uuid.UUID, status enums.CatalogStatus) error
	// AdjustItemStock applies a signed delta guarded against going negative.
	AdjustItemStock(ctx context.Context, id uuid.UUID, delta int) error

	ListTiersByVariant(ctx context.Context, variantID uuid.UUID) ([]models.PricingTier, error)
	FindTier(ctx context.Context, id uuid.UUID) (*models.PricingTier, error)
	SaveTier(ctx context.Context, tier *models.PricingTier) error
	DeleteTier(ctx context.Context, id uuid.UUID) error

	UpsertTierData(ctx context.Context, data *models.PricingTierData) error
	ListTierDataByItem(ctx context.Context, itemID uuid.UUID) ([]models.PricingTierData, error)

	SetExclusivePrice(ctx context.Context, price *models.UserExclusivePrice) error
	FindExclusivePrice(ctx context.Context, id uuid.UUID) (*models.UserExclusivePrice, error)
	FindExclusivePriceForUserItem(ctx context.Context, userID, itemID uuid.UUID) (*models.UserExclusivePrice, error)
	DeleteExclusivePrice(ctx context.Context, id uuid.UUID) error
}
