package orders

import (
	"github.com/google/uuid"

	"github.com/praco-io/praco-backend/pkg/db/models"
)

// PlaceOrderInput freezes the caller's cart into an order.
type PlaceOrderInput struct {
	UserID          uuid.UUID
	ShippingAddress *string
	PaymentMethod   *string
}

// UpsertLineInput sets one order line's quantity. Unlike cart lines, a repeated
// upsert for the same item replaces the quantity instead of accumulating it.
type UpsertLineInput struct {
	UserID        uuid.UUID
	OrderID       uuid.UUID
	ItemID        uuid.UUID
	PricingTierID uuid.UUID
	Quantity      int
}

// ListResult is one page of a user's orders plus the cursor for the next page.
// Cursor is empty on the last page.
type ListResult struct {
	Items  []models.Order
	Cursor string
}
