package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/praco-io/praco-backend/pkg/db/models"
	"github.com/praco-io/praco-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateCategory(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants").
		Preload("Images").
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) CreateVariant(ctx context.Context, variant *models.ProductVariant) error {
	return r.db.WithContext(ctx).Create(variant).Error
}

func (r *repository) FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := r.db.WithContext(ctx).
		Preload("PricingTiers").
		Where("id = ?", id).
		First(&variant).Error
	if err != nil {
		return nil, err
	}
	return &variant, nil
}

func (r *repository) UpdateVariantStatus(ctx context.Context, id uuid.UUID, status enums.CatalogStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *repository) CreateTableField(ctx context.Context, field *models.TableField) error {
	return r.db.WithContext(ctx).Create(field).Error
}

func (r *repository) ListTableFields(ctx context.Context, variantID uuid.UUID) ([]models.TableField, error) {
	var fields []models.TableField
	err := r.db.WithContext(ctx).
		Where("product_variant_id = ?", variantID).
		Order("position ASC").
		Order("created_at ASC").
		Find(&fields).Error
	return fields, err
}

func (r *repository) FindTableField(ctx context.Context, id uuid.UUID) (*models.TableField, error) {
	var field models.TableField
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&field).Error; err != nil {
		return nil, err
	}
	return &field, nil
}

func (r *repository) UpsertItemData(ctx context.Context, data *models.ItemData) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "item_id"}, {Name: "table_field_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"value_text", "value_number", "value_image", "updated_at"}),
		}).
		Create(data).Error
}

func (r *repository) CreateItem(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) FindItem(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListItemsByVariant(ctx context.Context, variantID uuid.UUID) ([]models.Item, error) {
	var items []models.Item
	err := r.db.WithContext(ctx).
		Where("product_variant_id = ?", variantID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *repository) UpdateItemStatus(ctx context.Context, id uuid.UUID, status enums.CatalogStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *repository) AdjustItemStock(ctx context.Context, id uuid.UUID, delta int) error {
	result := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("id = ? AND stock + ? >= 0", id, delta).
		Update("stock", gorm.Expr("stock + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) ListTiersByVariant(ctx context.Context, variantID uuid.UUID) ([]models.PricingTier, error) {
	var tiers []models.PricingTier
	err := r.db.WithContext(ctx).
		Where("product_variant_id = ?", variantID).
		Order("range_start ASC").
		Find(&tiers).Error
	return tiers, err
}

func (r *repository) FindTier(ctx context.Context, id uuid.UUID) (*models.PricingTier, error) {
	var tier models.PricingTier
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&tier).Error; err != nil {
		return nil, err
	}
	return &tier, nil
}

func (r *repository) SaveTier(ctx context.Context, tier *models.PricingTier) error {
	return r.db.WithContext(ctx).Save(tier).Error
}

func (r *repository) DeleteTier(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.PricingTier{}).Error
}

func (r *repository) UpsertTierData(ctx context.Context, data *models.PricingTierData) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "item_id"}, {Name: "pricing_tier_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"price", "updated_at"}),
		}).
		Create(data).Error
}

func (r *repository) ListTierDataByItem(ctx context.Context, itemID uuid.UUID) ([]models.PricingTierData, error) {
	var rows []models.PricingTierData
	err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Find(&rows).Error
	return rows, err
}

func (r *repository) SetExclusivePrice(ctx context.Context, price *models.UserExclusivePrice) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "item_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"discount_percentage", "updated_at"}),
		}).
		Create(price).Error
}

func (r *repository) FindExclusivePrice(ctx context.Context, id uuid.UUID) (*models.UserExclusivePrice, error) {
	var price models.UserExclusivePrice
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&price).Error; err != nil {
		return nil, err
	}
	return &price, nil
}

func (r *repository) FindExclusivePriceForUserItem(ctx context.Context, userID, itemID uuid.UUID) (*models.UserExclusivePrice, error) {
	var price models.UserExclusivePrice
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND item_id = ?", userID, itemID).
		First(&price).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &price, nil
}

func (r *repository) DeleteExclusivePrice(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.UserExclusivePrice{}).Error
}
