package users

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/praco-io/praco-backend/pkg/db/models"
)

// Repository defines persistence operations for users and their addresses.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateUser(ctx context.Context, user *models.User) error
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)

	CreateAddress(ctx context.Context, address *models.Address) error
	ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	FindAddress(ctx context.Context, id uuid.UUID) (*models.Address, error)
	SaveAddress(ctx context.Context, address *models.Address) error
	DeleteAddress(ctx context.Context, id uuid.UUID) error
	ClearDefaultAddress(ctx context.Context, userID uuid.UUID) error
}
