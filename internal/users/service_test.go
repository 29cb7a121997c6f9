package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/praco-io/praco-backend/internal/cart"
	"github.com/praco-io/praco-backend/pkg/config"
	pkgerrors "github.com/praco-io/praco-backend/pkg/errors"
)

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE addresses (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  line1 TEXT NOT NULL,
  line2 TEXT,
  city TEXT NOT NULL,
  region TEXT,
  postal_code TEXT NOT NULL,
  country TEXT NOT NULL,
  is_default INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE carts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  vat_percent NUMERIC NOT NULL DEFAULT 0,
  discount_percent NUMERIC NOT NULL DEFAULT 0,
  subtotal NUMERIC NOT NULL DEFAULT 0,
  vat_amount NUMERIC NOT NULL DEFAULT 0,
  discount_amount NUMERIC NOT NULL DEFAULT 0,
  total NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  item_id TEXT NOT NULL,
  pricing_tier_id TEXT NOT NULL,
  unit_kind TEXT NOT NULL DEFAULT 'pack',
  quantity INTEGER NOT NULL,
  per_unit_price NUMERIC NOT NULL DEFAULT 0,
  per_pack_price NUMERIC NOT NULL DEFAULT 0,
  subtotal NUMERIC NOT NULL DEFAULT 0,
  user_exclusive_price_id TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (cart_id, item_id, pricing_tier_id, unit_kind)
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func newUsersService(t *testing.T) (Service, cart.Repository, *gorm.DB) {
	t.Helper()

	conn := setupUsersTestDB(t)
	repo := NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	svc, err := NewService(repo, cartRepo, testTxRunner{db: conn}, config.CartConfig{
		DefaultVATPercent:      "20",
		DefaultDiscountPercent: "5",
	}, testPasswordConfig(), nil)
	require.NoError(t, err)
	return svc, cartRepo, conn
}

func TestRegisterProvisionsCart(t *testing.T) {
	svc, cartRepo, _ := newUsersService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Email:     "Buyer@Example.com",
		Password:  "correct horse battery",
		FirstName: "Pat",
		LastName:  "Doe",
	})
	require.NoError(t, err)
	assert.Equal(t, "buyer@example.com", user.Email)
	assert.NotEqual(t, "correct horse battery", user.PasswordHash)

	provisioned, err := cartRepo.FindCartByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, provisioned.VATPercent.Equal(decimal.RequireFromString("20")))
	assert.True(t, provisioned.DiscountPercent.Equal(decimal.RequireFromString("5")))
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _, _ := newUsersService(t)
	ctx := context.Background()

	input := RegisterInput{
		Email:     "dup@example.com",
		Password:  "password123",
		FirstName: "Pat",
	}
	_, err := svc.Register(ctx, input)
	require.NoError(t, err)

	_, err = svc.Register(ctx, input)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())
}

func TestRegisterValidatesInput(t *testing.T) {
	svc, _, _ := newUsersService(t)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "",
		Password: "short",
	})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
	assert.Contains(t, appErr.Fields(), "email")
	assert.Contains(t, appErr.Fields(), "password")
}

func TestAuthenticate(t *testing.T) {
	svc, _, _ := newUsersService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{
		Email:     "login@example.com",
		Password:  "password123",
		FirstName: "Pat",
	})
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, "login@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "login@example.com", user.Email)

	_, err = svc.Authenticate(ctx, "login@example.com", "wrong")
	require.Error(t, err)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "password123")
	require.Error(t, err)
}

func TestSaveAddressDefaultFlagIsExclusive(t *testing.T) {
	svc, _, _ := newUsersService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Email:     "addr@example.com",
		Password:  "password123",
		FirstName: "Pat",
	})
	require.NoError(t, err)

	first, err := svc.SaveAddress(ctx, AddressInput{
		UserID:     user.ID,
		Line1:      "1 First St",
		City:       "Leeds",
		PostalCode: "LS1 1AA",
		Country:    "GB",
		IsDefault:  true,
	})
	require.NoError(t, err)

	_, err = svc.SaveAddress(ctx, AddressInput{
		UserID:     user.ID,
		Line1:      "2 Second St",
		City:       "Leeds",
		PostalCode: "LS2 2BB",
		Country:    "GB",
		IsDefault:  true,
	})
	require.NoError(t, err)

	addresses, err := svc.ListAddresses(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, addresses, 2)
	defaults := 0
	for _, a := range addresses {
		if a.IsDefault {
			defaults++
			assert.NotEqual(t, first.ID, a.ID)
		}
	}
	assert.Equal(t, 1, defaults)
}

func TestDeleteAddressEnforcesOwnership(t *testing.T) {
	svc, _, _ := newUsersService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Email:     "owner@example.com",
		Password:  "password123",
		FirstName: "Pat",
	})
	require.NoError(t, err)

	address, err := svc.SaveAddress(ctx, AddressInput{
		UserID:     user.ID,
		Line1:      "1 First St",
		City:       "Leeds",
		PostalCode: "LS1 1AA",
		Country:    "GB",
	})
	require.NoError(t, err)

	err = svc.DeleteAddress(ctx, uuid.New(), address.ID)
	require.Error(t, err)

	require.NoError(t, svc.DeleteAddress(ctx, user.ID, address.ID))
	addresses, err := svc.ListAddresses(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, addresses)
}
