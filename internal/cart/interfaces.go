package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/praco-io/praco-backend/internal/pricing"
	"github.com/praco-io/praco-backend/pkg/db/models"
	"github.com/praco-io/praco-backend/pkg/enums"
)

// Repository defines persistence operations for carts and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateCart(ctx context.Context, cart *models.Cart) error
	ListCartIDsUpdatedSince(ctx context.Context, since time.Time) ([]uuid.UUID, error)
	FindCart(ctx context.Context, id uuid.UUID) (*models.Cart, error)
	FindCartByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	UpdateCartTotals(ctx context.Context, id uuid.UUID, totals pricing.Totals) error

	ListLines(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error)
	// ListLinesForUpdate takes row locks on the cart's lines so concurrent
	// rebalance passes serialize. Locking is a no-op on dialects without
	// FOR UPDATE support.
	ListLinesForUpdate(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error)
	FindLine(ctx context.Context, id uuid.UUID) (*models.CartItem, error)
	FindLineByIdentity(ctx context.Context, cartID, itemID uuid.UUID, unitKind enums.TierKind) (*models.CartItem, error)
	SaveLine(ctx context.Context, line *models.CartItem) error
	DeleteLine(ctx context.Context, id uuid.UUID) error
	DeleteLines(ctx context.Context, cartID uuid.UUID) error
}
