package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/praco-io/praco-backend/pkg/db/models"
	"github.com/praco-io/praco-backend/pkg/enums"
	"github.com/praco-io/praco-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateOrder(ctx context.Context, order *models.Order) error
	FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Order, *pagination.Cursor, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
	UpdateOrderTotals(ctx context.Context, id uuid.UUID, updates map[string]any) error

	ListLines(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	FindLineByIdentity(ctx context.Context, orderID, itemID uuid.UUID, unitKind enums.TierKind) (*models.OrderItem, error)
	SaveLine(ctx context.Context, line *models.OrderItem) error
}
