package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/praco-io/praco-backend/api/responses"
	"github.com/praco-io/praco-backend/api/validators"
	orderssvc "github.com/praco-io/praco-backend/internal/orders"
	"github.com/praco-io/praco-backend/pkg/db/models"
	pkgerrors "github.com/praco-io/praco-backend/pkg/errors"
	"github.com/praco-io/praco-backend/pkg/logger"
	"github.com/praco-io/praco-backend/pkg/pagination"
)

type placeOrderRequest struct {
	ShippingAddress *string `json:"shipping_address"`
	PaymentMethod   *string `json:"payment_method"`
}

type orderUpsertLineRequest struct {
	ItemID        uuid.UUID `json:"item_id" validate:"required"`
	PricingTierID uuid.UUID `json:"pricing_tier_id" validate:"required"`
	Quantity      int       `json:"quantity" validate:"required,min=1"`
}

type orderResponse struct {
	ID              uuid.UUID           `json:"id"`
	Status          string              `json:"status"`
	PaymentStatus   string              `json:"payment_status"`
	Subtotal        decimal.Decimal     `json:"subtotal"`
	DiscountAmount  decimal.Decimal     `json:"discount_amount"`
	VATAmount       decimal.Decimal     `json:"vat_amount"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	ShippingAddress *string             `json:"shipping_address,omitempty"`
	PaymentMethod   *string             `json:"payment_method,omitempty"`
	Lines           []orderLineResponse `json:"lines"`
	CreatedAt       time.Time           `json:"created_at"`
}

type orderLineResponse struct {
	ID            uuid.UUID       `json:"id"`
	ItemID        uuid.UUID       `json:"item_id"`
	PricingTierID uuid.UUID       `json:"pricing_tier_id"`
	Quantity      int             `json:"quantity"`
	PerUnitPrice  decimal.Decimal `json:"per_unit_price"`
	PerPackPrice  decimal.Decimal `json:"per_pack_price"`
	Subtotal      decimal.Decimal `json:"subtotal"`
}

type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Cursor string          `json:"cursor,omitempty"`
}

func newOrderResponse(order *models.Order) orderResponse {
	lines := make([]orderLineResponse, 0, len(order.Items))
	for _, line := range order.Items {
		lines = append(lines, orderLineResponse{
			ID:            line.ID,
			ItemID:        line.ItemID,
			PricingTierID: line.PricingTierID,
			Quantity:      line.Quantity,
			PerUnitPrice:  line.PerUnitPrice,
			PerPackPrice:  line.PerPackPrice,
			Subtotal:      line.Subtotal,
		})
	}
	return orderResponse{
		ID:              order.ID,
		Status:          order.Status.String(),
		PaymentStatus:   order.PaymentStatus.String(),
		Subtotal:        order.Subtotal,
		DiscountAmount:  order.DiscountAmount,
		VATAmount:       order.VATAmount,
		TotalAmount:     order.TotalAmount,
		ShippingAddress: order.ShippingAddress,
		PaymentMethod:   order.PaymentMethod,
		Lines:           lines,
		CreatedAt:       order.CreatedAt,
	}
}

// OrderPlace freezes the caller's cart into a pending order.
func OrderPlace(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload placeOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.PlaceOrder(r.Context(), orderssvc.PlaceOrderInput{
			UserID:          userID,
			ShippingAddress: payload.ShippingAddress,
			PaymentMethod:   payload.PaymentMethod,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

// OrderList returns the caller's orders, most recent first.
func OrderList(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), userID, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]orderResponse, 0, len(result.Items))
		for i := range result.Items {
			out = append(out, newOrderResponse(&result.Items[i]))
		}
		responses.WriteSuccess(w, orderListResponse{Orders: out, Cursor: result.Cursor})
	}
}

// OrderDetail returns one order owned by the caller.
func OrderDetail(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// OrderUpsertLine replaces one line's quantity on a pending order.
func OrderUpsertLine(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload orderUpsertLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := svc.UpsertLine(r.Context(), orderssvc.UpsertLineInput{
			UserID:        userID,
			OrderID:       orderID,
			ItemID:        payload.ItemID,
			PricingTierID: payload.PricingTierID,
			Quantity:      payload.Quantity,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}
