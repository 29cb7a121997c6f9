package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/praco-io/praco-backend/internal/pricing"
	"github.com/praco-io/praco-backend/pkg/db/models"
	"github.com/praco-io/praco-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateCart(ctx context.Context, cart *models.Cart) error {
	return r.db.WithContext(ctx).Create(cart).Error
}

func (r *repository) ListCartIDsUpdatedSince(ctx context.Context, since time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("updated_at >= ?", since).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) FindCart(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *repository) FindCartByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *repository) UpdateCartTotals(ctx context.Context, id uuid.UUID, totals pricing.Totals) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"subtotal":        totals.Subtotal,
			"discount_amount": totals.DiscountAmount,
			"vat_amount":      totals.VATAmount,
			"total":           totals.Total,
		}).Error
}

func (r *repository) ListLines(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error) {
	var lines []models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("created_at ASC").
		Find(&lines).Error
	return lines, err
}

func (r *repository) ListLinesForUpdate(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error) {
	query := r.db.WithContext(ctx)
	// sqlite has no FOR UPDATE; its writer lock serializes instead.
	if r.db.Dialector != nil && r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}
	var lines []models.CartItem
	err := query.
		Where("cart_id = ?", cartID).
		Order("created_at ASC").
		Find(&lines).Error
	return lines, err
}

func (r *repository) FindLine(ctx context.Context, id uuid.UUID) (*models.CartItem, error) {
	var line models.CartItem
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *repository) FindLineByIdentity(ctx context.Context, cartID, itemID uuid.UUID, unitKind enums.TierKind) (*models.CartItem, error) {
	var line models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND item_id = ? AND unit_kind = ?", cartID, itemID, unitKind).
		First(&line).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &line, nil
}

func (r *repository) SaveLine(ctx context.Context, line *models.CartItem) error {
	return r.db.WithContext(ctx).Save(line).Error
}

func (r *repository) DeleteLine(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.CartItem{}).Error
}

func (r *repository) DeleteLines(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error
}
