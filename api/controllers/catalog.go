package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/praco-io/praco-backend/api/responses"
	"github.com/praco-io/praco-backend/api/validators"
	catalogsvc "github.com/praco-io/praco-backend/internal/catalog"
	"github.com/praco-io/praco-backend/pkg/db/models"
	"github.com/praco-io/praco-backend/pkg/enums"
	pkgerrors "github.com/praco-io/praco-backend/pkg/errors"
	"github.com/praco-io/praco-backend/pkg/logger"
)

type categoryCreateRequest struct {
	Name string `json:"name" validate:"required"`
	Slug string `json:"slug" validate:"required"`
}

type productCreateRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description *string    `json:"description"`
	CategoryID  *uuid.UUID `json:"category_id"`
}

type variantCreateRequest struct {
	ProductID    uuid.UUID `json:"product_id" validate:"required"`
	Name         string    `json:"name" validate:"required"`
	ShowUnitsPer string    `json:"show_units_per" validate:"required"`
}

type itemCreateRequest struct {
	ProductVariantID  uuid.UUID        `json:"product_variant_id" validate:"required"`
	Title             string           `json:"title" validate:"required"`
	SKU               string           `json:"sku" validate:"required"`
	UnitsPerPack      int              `json:"units_per_pack" validate:"required,min=1"`
	IsPhysicalProduct bool             `json:"is_physical_product"`
	Weight            *decimal.Decimal `json:"weight"`
	WeightUnit        *string          `json:"weight_unit"`
	TrackInventory    bool             `json:"track_inventory"`
	Stock             int              `json:"stock"`
}

type tableFieldCreateRequest struct {
	ProductVariantID uuid.UUID `json:"product_variant_id" validate:"required"`
	Name             string    `json:"name" validate:"required"`
	FieldType        string    `json:"field_type" validate:"required"`
	LongField        bool      `json:"long_field"`
	Position         int       `json:"position"`
}

type itemDataSetRequest struct {
	TableFieldID uuid.UUID        `json:"table_field_id" validate:"required"`
	ValueText    *string          `json:"value_text"`
	ValueNumber  *decimal.Decimal `json:"value_number"`
	ValueImage   *string          `json:"value_image"`
}

type tierSaveRequest struct {
	ProductVariantID uuid.UUID `json:"product_variant_id" validate:"required"`
	TierKind         string    `json:"tier_kind" validate:"required"`
	RangeStart       int       `json:"range_start" validate:"required,min=1"`
	RangeEnd         *int      `json:"range_end"`
	NoEndRange       bool      `json:"no_end_range"`
}

type tierPriceRequest struct {
	ItemID uuid.UUID       `json:"item_id" validate:"required"`
	Price  decimal.Decimal `json:"price" validate:"required"`
}

type exclusivePriceRequest struct {
	UserID             uuid.UUID       `json:"user_id" validate:"required"`
	ItemID             uuid.UUID       `json:"item_id" validate:"required"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage" validate:"required"`
}

type tierResponse struct {
	ID               uuid.UUID `json:"id"`
	ProductVariantID uuid.UUID `json:"product_variant_id"`
	TierKind         string    `json:"tier_kind"`
	RangeStart       int       `json:"range_start"`
	RangeEnd         *int      `json:"range_end,omitempty"`
	NoEndRange       bool      `json:"no_end_range"`
	Label            string    `json:"label"`
}

func newTierResponse(tier *models.PricingTier) tierResponse {
	return tierResponse{
		ID:               tier.ID,
		ProductVariantID: tier.ProductVariantID,
		TierKind:         tier.TierKind.String(),
		RangeStart:       tier.RangeStart,
		RangeEnd:         tier.RangeEnd,
		NoEndRange:       tier.NoEndRange,
		Label:            tier.Label(),
	}
}

// CategoryCreate registers a catalog category.
func CategoryCreate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload categoryCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := svc.CreateCategory(r.Context(), validators.SanitizeString(payload.Name, 120), validators.SanitizeString(payload.Slug, 120))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, category)
	}
}

// ProductCreate registers a product shell; variants carry the sellable goods.
func ProductCreate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload productCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), validators.SanitizeString(payload.Title, 255), payload.Description, payload.CategoryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// VariantCreate adds a variant under a product.
func VariantCreate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload variantCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		showUnitsPer, err := enums.ParseShowUnitsPer(payload.ShowUnitsPer)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid show_units_per"))
			return
		}

		variant, err := svc.CreateVariant(r.Context(), payload.ProductID, validators.SanitizeString(payload.Name, 255), showUnitsPer)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, variant)
	}
}

// ItemCreate adds a sellable row under a variant.
func ItemCreate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload itemCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := catalogsvc.CreateItemInput{
			ProductVariantID:  payload.ProductVariantID,
			Title:             validators.SanitizeString(payload.Title, 255),
			SKU:               validators.SanitizeString(payload.SKU, 64),
			UnitsPerPack:      payload.UnitsPerPack,
			IsPhysicalProduct: payload.IsPhysicalProduct,
			Weight:            payload.Weight,
			TrackInventory:    payload.TrackInventory,
			Stock:             payload.Stock,
		}
		if payload.WeightUnit != nil {
			unit, err := enums.ParseWeightUnit(*payload.WeightUnit)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid weight_unit"))
				return
			}
			input.WeightUnit = &unit
		}

		item, err := svc.CreateItem(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

// TableFieldCreate declares a custom attribute column on a variant.
func TableFieldCreate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload tableFieldCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		fieldType, err := enums.ParseFieldType(payload.FieldType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid field_type"))
			return
		}

		field, err := svc.CreateTableField(r.Context(), catalogsvc.CreateTableFieldInput{
			ProductVariantID: payload.ProductVariantID,
			Name:             validators.SanitizeString(payload.Name, 120),
			FieldType:        fieldType,
			LongField:        payload.LongField,
			Position:         payload.Position,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, field)
	}
}

// ItemDataSet writes one custom field value on an item.
func ItemDataSet(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := pathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload itemDataSetRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetItemData(r.Context(), catalogsvc.SetItemDataInput{
			ItemID:       itemID,
			TableFieldID: payload.TableFieldID,
			ValueText:    payload.ValueText,
			ValueNumber:  payload.ValueNumber,
			ValueImage:   payload.ValueImage,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "saved"})
	}
}

// TierCreate adds a pricing tier to a variant.
func TierCreate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return tierSave(svc, logg, false)
}

// TierUpdate rewrites an existing pricing tier's range.
func TierUpdate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return tierSave(svc, logg, true)
}

func tierSave(svc catalogsvc.Service, logg *logger.Logger, update bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var tierID uuid.UUID
		if update {
			id, err := pathUUID(r, "tierId")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			tierID = id
		}

		var payload tierSaveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tierKind, err := enumsParseTierKind(payload.TierKind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tier, err := svc.SaveTier(r.Context(), catalogsvc.SaveTierInput{
			ID:               tierID,
			ProductVariantID: payload.ProductVariantID,
			TierKind:         tierKind,
			RangeStart:       payload.RangeStart,
			RangeEnd:         payload.RangeEnd,
			NoEndRange:       payload.NoEndRange,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusOK
		if !update {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, newTierResponse(tier))
	}
}

// TierDelete removes a tier and re-validates the variant's remaining set.
func TierDelete(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tierID, err := pathUUID(r, "tierId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteTier(r.Context(), tierID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// TierPriceUpsert sets an item's per-unit price for one tier.
func TierPriceUpsert(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tierID, err := pathUUID(r, "tierId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload tierPriceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.UpsertTierData(r.Context(), catalogsvc.UpsertTierDataInput{
			ItemID:        payload.ItemID,
			PricingTierID: tierID,
			Price:         payload.Price,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

// TierResolve answers which tier a quantity lands in for a variant.
func TierResolve(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		variantID, err := pathUUID(r, "variantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quantity, err := validators.ParseQueryInt(r, "quantity", 0, 1, 1<<30)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		kind := enums.TierKindPack
		if raw := r.URL.Query().Get("kind"); raw != "" {
			parsed, err := enumsParseTierKind(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			kind = parsed
		}

		tier, err := svc.ResolveTier(r.Context(), variantID, quantity, kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if tier == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "no tier covers this quantity"))
			return
		}
		responses.WriteSuccess(w, newTierResponse(tier))
	}
}

// ExclusivePriceSet grants one user a percentage discount on an item.
func ExclusivePriceSet(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload exclusivePriceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		price, err := svc.SetExclusivePrice(r.Context(), catalogsvc.SetExclusivePriceInput{
			UserID:             payload.UserID,
			ItemID:             payload.ItemID,
			DiscountPercentage: payload.DiscountPercentage,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, price)
	}
}

// ExclusivePriceDelete revokes a per-user discount.
func ExclusivePriceDelete(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		priceID, err := pathUUID(r, "priceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveExclusivePrice(r.Context(), priceID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
