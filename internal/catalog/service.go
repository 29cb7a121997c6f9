package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/praco-io/praco-backend/internal/pricing"
	"github.com/praco-io/praco-backend/pkg/db/models"
	"github.com/praco-io/praco-backend/pkg/enums"
	pkgerrors "github.com/praco-io/praco-backend/pkg/errors"
	"github.com/praco-io/praco-backend/pkg/logger"
	"github.com/praco-io/praco-backend/pkg/outbox"
	"github.com/praco-io/praco-backend/pkg/outbox/payloads"
)

var hundredPercent = decimal.NewFromInt(100)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// reservedFieldNames are item columns that custom table fields may not shadow.
var reservedFieldNames = map[string]struct{}{
	"title":          {},
	"sku":            {},
	"status":         {},
	"stock":          {},
	"weight":         {},
	"price":          {},
	"quantity":       {},
	"units_per_pack": {},
}

// Service owns catalog writes: tier edits with set validation and the derived
// status cascade on variants and items.
type Service interface {
	ResolveTier(ctx context.Context, variantID uuid.UUID, quantity int, kind enums.TierKind) (*models.PricingTier, error)
	ValidateTierSet(ctx context.Context, variantID uuid.UUID, kind enums.TierKind) error
	SaveTier(ctx context.Context, input SaveTierInput) (*models.PricingTier, error)
	DeleteTier(ctx context.Context, tierID uuid.UUID) error
	UpsertTierData(ctx context.Context, input UpsertTierDataInput) (*models.PricingTierData, error)

	CreateCategory(ctx context.Context, name, slug string) (*models.Category, error)
	CreateProduct(ctx context.Context, title string, description *string, categoryID *uuid.UUID) (*models.Product, error)
	CreateVariant(ctx context.Context, productID uuid.UUID, name string, showUnitsPer enums.ShowUnitsPer) (*models.ProductVariant, error)
	CreateItem(ctx context.Context, input CreateItemInput) (*models.Item, error)
	CreateTableField(ctx context.Context, input CreateTableFieldInput) (*models.TableField, error)
	SetItemData(ctx context.Context, input SetItemDataInput) error

	SetExclusivePrice(ctx context.Context, input SetExclusivePriceInput) (*models.UserExclusivePrice, error)
	RemoveExclusivePrice(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
}

// NewService builds the catalog service with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc, logg: logg}, nil
}

func (s *service) ResolveTier(ctx context.Context, variantID uuid.UUID, quantity int, kind enums.TierKind) (*models.PricingTier, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").WithField("quantity", "must be at least 1")
	}
	tiers, err := s.repo.ListTiersByVariant(ctx, variantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing pricing tiers")
	}
	return pricing.ResolveTier(tiers, kind, quantity), nil
}

func (s *service) ValidateTierSet(ctx context.Context, variantID uuid.UUID, kind enums.TierKind) error {
	tiers, err := s.repo.ListTiersByVariant(ctx, variantID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing pricing tiers")
	}
	return pricing.ValidateTierSet(tiers, kind)
}

func (s *service) SaveTier(ctx context.Context, input SaveTierInput) (*models.PricingTier, error) {
	if !input.TierKind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown tier kind").WithField("tier_kind", "unknown tier kind")
	}

	tier := &models.PricingTier{
		ID:               input.ID,
		ProductVariantID: input.ProductVariantID,
		TierKind:         input.TierKind,
		RangeStart:       input.RangeStart,
		RangeEnd:         input.RangeEnd,
		NoEndRange:       input.NoEndRange,
	}
	if tier.NoEndRange {
		tier.RangeEnd = nil
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		variant, err := repo.FindVariant(ctx, input.ProductVariantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product variant not found")
			}
			return err
		}

		if err := pricing.ValidateCandidateTier(*tier, variant.PricingTiers); err != nil {
			return err
		}
		if err := repo.SaveTier(ctx, tier); err != nil {
			return err
		}
		return s.recomputeVariant(ctx, tx, repo, variant)
	})
	if err != nil {
		return nil, err
	}
	return tier, nil
}

func (s *service) DeleteTier(ctx context.Context, tierID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		tier, err := repo.FindTier(ctx, tierID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "pricing tier not found")
			}
			return err
		}
		if err := repo.DeleteTier(ctx, tierID); err != nil {
			return err
		}

		variant, err := repo.FindVariant(ctx, tier.ProductVariantID)
		if err != nil {
			return err
		}
		return s.recomputeVariant(ctx, tx, repo, variant)
	})
}

func (s *service) UpsertTierData(ctx context.Context, input UpsertTierDataInput) (*models.PricingTierData, error) {
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative").WithField("price", "cannot be negative")
	}

	data := &models.PricingTierData{
		ItemID:        input.ItemID,
		PricingTierID: input.PricingTierID,
		Price:         input.Price,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		item, err := repo.FindItem(ctx, input.ItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
			}
			return err
		}
		tier, err := repo.FindTier(ctx, input.PricingTierID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "pricing tier not found")
			}
			return err
		}
		if tier.ProductVariantID != item.ProductVariantID {
			return pkgerrors.New(pkgerrors.CodeValidation, "pricing tier belongs to a different variant").
				WithField("pricing_tier_id", "belongs to a different variant")
		}

		if err := repo.UpsertTierData(ctx, data); err != nil {
			return err
		}
		return s.recomputeItem(ctx, repo, item)
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *service) CreateCategory(ctx context.Context, name, slug string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name required").WithField("name", "is required")
	}
	category := &models.Category{Name: name, Slug: strings.TrimSpace(slug)}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *service) CreateProduct(ctx context.Context, title string, description *string, categoryID *uuid.UUID) (*models.Product, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product title required").WithField("title", "is required")
	}
	product := &models.Product{Title: title, Description: description, CategoryID: categoryID}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *service) CreateVariant(ctx context.Context, productID uuid.UUID, name string, showUnitsPer enums.ShowUnitsPer) (*models.ProductVariant, error) {
	if !showUnitsPer.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown show_units_per").WithField("show_units_per", "unknown value")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant name required").WithField("name", "is required")
	}
	variant := &models.ProductVariant{
		ProductID:    productID,
		Name:         name,
		Status:       enums.CatalogStatusDraft,
		ShowUnitsPer: showUnitsPer,
	}
	if err := s.repo.CreateVariant(ctx, variant); err != nil {
		return nil, err
	}
	return variant, nil
}

func (s *service) CreateItem(ctx context.Context, input CreateItemInput) (*models.Item, error) {
	fields := pkgerrors.FieldErrors{}
	if strings.TrimSpace(input.SKU) == "" {
		fields.Add("sku", "is required")
	}
	if input.UnitsPerPack < 1 {
		fields.Add("units_per_pack", "must be at least 1")
	}
	if input.Weight != nil && input.WeightUnit == nil {
		fields.Add("weight_unit", "required when weight is set")
	}
	if input.WeightUnit != nil && !input.WeightUnit.IsValid() {
		fields.Add("weight_unit", "unknown weight unit")
	}
	if input.Stock < 0 {
		fields.Add("stock", "cannot be negative")
	}
	if fields.HasErrors() {
		return nil, pkgerrors.NewFieldErrors(pkgerrors.CodeValidation, fields)
	}

	item := &models.Item{
		ProductVariantID:  input.ProductVariantID,
		Title:             strings.TrimSpace(input.Title),
		SKU:               strings.TrimSpace(input.SKU),
		Status:            enums.CatalogStatusDraft,
		UnitsPerPack:      input.UnitsPerPack,
		IsPhysicalProduct: input.IsPhysicalProduct,
		Weight:            input.Weight,
		WeightUnit:        input.WeightUnit,
		TrackInventory:    input.TrackInventory,
		Stock:             input.Stock,
		Height:            input.Height,
		Width:             input.Width,
		Length:            input.Length,
		MeasurementUnit:   input.MeasurementUnit,
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) CreateTableField(ctx context.Context, input CreateTableFieldInput) (*models.TableField, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "field name required").WithField("name", "is required")
	}
	if _, reserved := reservedFieldNames[strings.ToLower(name)]; reserved {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("the name %q is reserved", name)).
			WithField("name", "is reserved")
	}
	if !input.FieldType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown field type").WithField("field_type", "unknown value")
	}

	field := &models.TableField{
		ProductVariantID: input.ProductVariantID,
		Name:             name,
		FieldType:        input.FieldType,
		LongField:        input.LongField,
		Position:         input.Position,
	}
	if err := s.repo.CreateTableField(ctx, field); err != nil {
		return nil, err
	}
	return field, nil
}

func (s *service) SetItemData(ctx context.Context, input SetItemDataInput) error {
	field, err := s.repo.FindTableField(ctx, input.TableFieldID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "table field not found")
		}
		return err
	}

	data := &models.ItemData{
		ItemID:       input.ItemID,
		TableFieldID: input.TableFieldID,
	}
	switch field.FieldType {
	case enums.FieldTypeText:
		if input.ValueText == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "text value required").WithField("value_text", "is required")
		}
		data.ValueText = input.ValueText
	case enums.FieldTypeNumber:
		if input.ValueNumber == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "number value required").WithField("value_number", "is required")
		}
		data.ValueNumber = input.ValueNumber
	case enums.FieldTypeImage:
		if input.ValueImage == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "image value required").WithField("value_image", "is required")
		}
		data.ValueImage = input.ValueImage
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown field type").WithField("field_type", "unknown value")
	}

	return s.repo.UpsertItemData(ctx, data)
}

func (s *service) SetExclusivePrice(ctx context.Context, input SetExclusivePriceInput) (*models.UserExclusivePrice, error) {
	if input.DiscountPercentage.IsNegative() || input.DiscountPercentage.GreaterThan(hundredPercent) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount must be between 0 and 100").
			WithField("discount_percentage", "must be between 0 and 100")
	}
	price := &models.UserExclusivePrice{
		UserID:             input.UserID,
		ItemID:             input.ItemID,
		DiscountPercentage: input.DiscountPercentage,
	}
	if err := s.repo.SetExclusivePrice(ctx, price); err != nil {
		return nil, err
	}
	return price, nil
}

func (s *service) RemoveExclusivePrice(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteExclusivePrice(ctx, id)
}

// recomputeVariant re-derives the variant's sellability status and the status
// of each of its items after a tier edit. A status flip queues a
// variant_status_changed outbox event inside the same transaction.
func (s *service) recomputeVariant(ctx context.Context, tx *gorm.DB, repo Repository, variant *models.ProductVariant) error {
	tiers, err := repo.ListTiersByVariant(ctx, variant.ID)
	if err != nil {
		return err
	}

	sellable, err := pricing.CheckSellability(tiers, variant.ShowUnitsPer)
	if err != nil {
		// Advisory recompute: unknown configuration degrades to draft.
		if s.logg != nil {
			s.logg.Warn(ctx, fmt.Sprintf("sellability check failed, defaulting to draft: %v", err))
		}
		sellable = false
	}

	status := enums.CatalogStatusDraft
	if sellable {
		status = enums.CatalogStatusActive
	}

	if status != variant.Status {
		if err := repo.UpdateVariantStatus(ctx, variant.ID, status); err != nil {
			return err
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventVariantStatusChanged,
			AggregateType: enums.AggregateProductVariant,
			AggregateID:   variant.ID,
			Version:       1,
			Data: payloads.VariantStatusChangedEvent{
				ProductVariantID: variant.ID,
				ProductID:        variant.ProductID,
				PreviousStatus:   variant.Status,
				Status:           status,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}
		variant.Status = status
	}

	items, err := repo.ListItemsByVariant(ctx, variant.ID)
	if err != nil {
		return err
	}
	for i := range items {
		if err := s.recomputeItemWithTiers(ctx, repo, &items[i], tiers); err != nil {
			return err
		}
	}
	return nil
}

// recomputeItem flips an item between draft and active depending on whether a
// price row exists for every tier of its variant.
func (s *service) recomputeItem(ctx context.Context, repo Repository, item *models.Item) error {
	tiers, err := repo.ListTiersByVariant(ctx, item.ProductVariantID)
	if err != nil {
		return err
	}
	return s.recomputeItemWithTiers(ctx, repo, item, tiers)
}

func (s *service) recomputeItemWithTiers(ctx context.Context, repo Repository, item *models.Item, tiers []models.PricingTier) error {
	rows, err := repo.ListTierDataByItem(ctx, item.ID)
	if err != nil {
		return err
	}
	priced := make(map[uuid.UUID]struct{}, len(rows))
	for _, row := range rows {
		priced[row.PricingTierID] = struct{}{}
	}

	status := enums.CatalogStatusActive
	if len(tiers) == 0 {
		status = enums.CatalogStatusDraft
	}
	for _, tier := range tiers {
		if _, ok := priced[tier.ID]; !ok {
			status = enums.CatalogStatusDraft
			break
		}
	}

	if status != item.Status {
		if err := repo.UpdateItemStatus(ctx, item.ID, status); err != nil {
			return err
		}
		item.Status = status
	}
	return nil
}
