package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/praco-io/praco-backend/pkg/enums"
)

// OrderFinalizedEvent is emitted once when an order is placed from a cart.
// Downstream consumers generate documents and notifications from it; nothing
// in the placement transaction depends on them.
type OrderFinalizedEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	UserID      uuid.UUID       `json:"user_id"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	VATAmount   decimal.Decimal `json:"vat_amount"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	LineCount   int             `json:"line_count"`
	PlacedAt    time.Time       `json:"placed_at"`
}

// VariantStatusChangedEvent is emitted when tier edits flip a variant between
// draft and active.
type VariantStatusChangedEvent struct {
	ProductVariantID uuid.UUID           `json:"product_variant_id"`
	ProductID        uuid.UUID           `json:"product_id"`
	PreviousStatus   enums.CatalogStatus `json:"previous_status"`
	Status           enums.CatalogStatus `json:"status"`
}
