package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/praco-io/praco-backend/api/responses"
	"github.com/praco-io/praco-backend/api/validators"
	cartsvc "github.com/praco-io/praco-backend/internal/cart"
	pkgerrors "github.com/praco-io/praco-backend/pkg/errors"
	"github.com/praco-io/praco-backend/pkg/logger"
)

type cartAddItemRequest struct {
	ItemID   uuid.UUID `json:"item_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,min=1"`
}

type cartUpsertLineRequest struct {
	ItemID        uuid.UUID `json:"item_id" validate:"required"`
	PricingTierID uuid.UUID `json:"pricing_tier_id" validate:"required"`
	Quantity      int       `json:"quantity" validate:"required,min=1"`
	UnitKind      string    `json:"unit_kind" validate:"required"`
}

type cartQuoteResponse struct {
	CartID         uuid.UUID           `json:"cart_id"`
	Lines          []cartLineResponse  `json:"lines"`
	Subtotal       decimal.Decimal     `json:"subtotal"`
	DiscountAmount decimal.Decimal     `json:"discount_amount"`
	VATAmount      decimal.Decimal     `json:"vat_amount"`
	Total          decimal.Decimal     `json:"total"`
	TotalWeightKG  decimal.Decimal     `json:"total_weight_kg"`
	PalletActive   bool                `json:"pallet_active"`
}

type cartLineResponse struct {
	LineID       uuid.UUID       `json:"line_id"`
	ItemID       uuid.UUID       `json:"item_id"`
	TierLabel    string          `json:"tier_label"`
	UnitKind     string          `json:"unit_kind"`
	Quantity     int             `json:"quantity"`
	PerUnitPrice decimal.Decimal `json:"per_unit_price"`
	PerPackPrice decimal.Decimal `json:"per_pack_price"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

func newCartQuoteResponse(quote *cartsvc.Quote) cartQuoteResponse {
	lines := make([]cartLineResponse, 0, len(quote.Lines))
	for _, line := range quote.Lines {
		lines = append(lines, cartLineResponse{
			LineID:       line.LineID,
			ItemID:       line.ItemID,
			TierLabel:    line.TierLabel,
			UnitKind:     line.UnitKind.String(),
			Quantity:     line.Quantity,
			PerUnitPrice: line.PerUnitPrice,
			PerPackPrice: line.PerPackPrice,
			Subtotal:     line.Subtotal,
		})
	}
	return cartQuoteResponse{
		CartID:         quote.CartID,
		Lines:          lines,
		Subtotal:       quote.Subtotal,
		DiscountAmount: quote.DiscountAmount,
		VATAmount:      quote.VATAmount,
		Total:          quote.Total,
		TotalWeightKG:  quote.TotalWeightKG,
		PalletActive:   quote.PalletActive,
	}
}

// CartFetch returns the caller's priced cart.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Get(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartQuoteResponse(quote))
	}
}

// CartAddItem adds quantity at the container level: the service resolves the
// tier and unit kind from the consolidated quantity and projected weight.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartAddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := svc.AddItem(r.Context(), cartsvc.AddItemInput{
			UserID:   userID,
			ItemID:   payload.ItemID,
			Quantity: payload.Quantity,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Get(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCartQuoteResponse(quote))
	}
}

// CartUpsertLine writes one line with an explicit tier and unit kind.
func CartUpsertLine(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lineID, err := pathUUID(r, "lineId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartUpsertLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		unitKind, err := enumsParseTierKind(payload.UnitKind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := svc.UpsertLine(r.Context(), cartsvc.UpsertLineInput{
			UserID:        userID,
			LineID:        &lineID,
			ItemID:        payload.ItemID,
			PricingTierID: payload.PricingTierID,
			Quantity:      payload.Quantity,
			UnitKind:      unitKind,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Get(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartQuoteResponse(quote))
	}
}

// CartRemoveLine deletes one line and re-resolves the remaining tiers.
func CartRemoveLine(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lineID, err := pathUUID(r, "lineId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveLine(r.Context(), userID, lineID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Get(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartQuoteResponse(quote))
	}
}

// CartClear empties the caller's cart.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Clear(r.Context(), userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}
