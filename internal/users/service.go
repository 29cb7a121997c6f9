package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/praco-io/praco-backend/internal/cart"
	"github.com/praco-io/praco-backend/pkg/config"
	"github.com/praco-io/praco-backend/pkg/db"
	"github.com/praco-io/praco-backend/pkg/db/models"
	pkgerrors "github.com/praco-io/praco-backend/pkg/errors"
	"github.com/praco-io/praco-backend/pkg/logger"
	"github.com/praco-io/praco-backend/pkg/security"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns account registration and address management. Session issuing
// lives with the external auth layer; this service only verifies credentials.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)

	SaveAddress(ctx context.Context, input AddressInput) (*models.Address, error)
	ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) error
}

type service struct {
	repo        Repository
	cart        cart.Repository
	tx          txRunner
	cartCfg     config.CartConfig
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
}

// NewService builds the users service with the required dependencies.
func NewService(repo Repository, cartRepo cart.Repository, tx txRunner, cartCfg config.CartConfig, passwordCfg config.PasswordConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:        repo,
		cart:        cartRepo,
		tx:          tx,
		cartCfg:     cartCfg,
		passwordCfg: passwordCfg,
		logg:        logg,
	}, nil
}

// Register creates the account and provisions its cart in one transaction.
func (s *service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	fields := pkgerrors.FieldErrors{}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		fields.Add("email", "is required")
	}
	if len(input.Password) < 8 {
		fields.Add("password", "must be at least 8 characters")
	}
	if strings.TrimSpace(input.FirstName) == "" {
		fields.Add("first_name", "is required")
	}
	if fields.HasErrors() {
		return nil, pkgerrors.NewFieldErrors(pkgerrors.CodeValidation, fields)
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
	}

	vatPercent, err := decimal.NewFromString(s.cartCfg.DefaultVATPercent)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parsing default VAT percent")
	}
	discountPercent, err := decimal.NewFromString(s.cartCfg.DefaultDiscountPercent)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parsing default discount percent")
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		IsActive:     true,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cartRepo := s.cart.WithTx(tx)

		if err := repo.CreateUser(ctx, user); err != nil {
			return err
		}
		return cartRepo.CreateCart(ctx, &models.Cart{
			UserID:          user.ID,
			VATPercent:      vatPercent,
			DiscountPercent: discountPercent,
		})
	})
	if err != nil {
		if db.IsUniqueViolation(err, "email") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered").
				WithField("email", "already registered")
		}
		return nil, err
	}
	return user, nil
}

func (s *service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repo.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid credentials")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid credentials")
	}
	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid credentials")
	}
	return user, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindUser(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, err
	}
	return user, nil
}

func (s *service) SaveAddress(ctx context.Context, input AddressInput) (*models.Address, error) {
	fields := pkgerrors.FieldErrors{}
	if strings.TrimSpace(input.Line1) == "" {
		fields.Add("line1", "is required")
	}
	if strings.TrimSpace(input.City) == "" {
		fields.Add("city", "is required")
	}
	if strings.TrimSpace(input.PostalCode) == "" {
		fields.Add("postal_code", "is required")
	}
	if strings.TrimSpace(input.Country) == "" {
		fields.Add("country", "is required")
	}
	if fields.HasErrors() {
		return nil, pkgerrors.NewFieldErrors(pkgerrors.CodeValidation, fields)
	}

	var address *models.Address
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if input.AddressID != nil {
			existing, err := repo.FindAddress(ctx, *input.AddressID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
				}
				return err
			}
			if existing.UserID != input.UserID {
				return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
			}
			address = existing
		} else {
			address = &models.Address{UserID: input.UserID}
		}

		address.Line1 = strings.TrimSpace(input.Line1)
		address.Line2 = input.Line2
		address.City = strings.TrimSpace(input.City)
		address.Region = strings.TrimSpace(input.Region)
		address.PostalCode = strings.TrimSpace(input.PostalCode)
		address.Country = strings.TrimSpace(input.Country)
		address.IsDefault = input.IsDefault

		if input.IsDefault {
			if err := repo.ClearDefaultAddress(ctx, input.UserID); err != nil {
				return err
			}
		}
		return repo.SaveAddress(ctx, address)
	})
	if err != nil {
		return nil, err
	}
	return address, nil
}

func (s *service) ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	return s.repo.ListAddresses(ctx, userID)
}

func (s *service) DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) error {
	address, err := s.repo.FindAddress(ctx, addressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return err
	}
	if address.UserID != userID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return s.repo.DeleteAddress(ctx, addressID)
}
