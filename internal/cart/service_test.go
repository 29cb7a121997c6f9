package cart

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/praco-io/praco-backend/internal/catalog"
	"github.com/praco-io/praco-backend/pkg/db/models"
	"github.com/praco-io/praco-backend/pkg/enums"
	pkgerrors "github.com/praco-io/praco-backend/pkg/errors"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE products (
  id TEXT PRIMARY KEY,
  category_id TEXT,
  title TEXT NOT NULL,
  description TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE product_variants (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'draft',
  show_units_per TEXT NOT NULL DEFAULT 'pack',
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE items (
  id TEXT PRIMARY KEY,
  product_variant_id TEXT NOT NULL,
  title TEXT NOT NULL,
  sku TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL DEFAULT 'draft',
  units_per_pack INTEGER NOT NULL DEFAULT 1,
  is_physical_product INTEGER NOT NULL DEFAULT 1,
  weight NUMERIC,
  weight_unit TEXT,
  track_inventory INTEGER NOT NULL DEFAULT 0,
  stock INTEGER NOT NULL DEFAULT 0,
  height NUMERIC,
  width NUMERIC,
  length NUMERIC,
  measurement_unit TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE pricing_tiers (
  id TEXT PRIMARY KEY,
  product_variant_id TEXT NOT NULL,
  tier_kind TEXT NOT NULL DEFAULT 'pack',
  range_start INTEGER NOT NULL,
  range_end INTEGER,
  no_end_range INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE pricing_tier_data (
  id TEXT PRIMARY KEY,
  item_id TEXT NOT NULL,
  pricing_tier_id TEXT NOT NULL,
  price NUMERIC NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (item_id, pricing_tier_id)
);`,
		`CREATE TABLE user_exclusive_prices (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  item_id TEXT NOT NULL,
  discount_percentage NUMERIC NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (user_id, item_id)
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

type cartFixture struct {
	conn    *gorm.DB
	catalog catalog.Repository
	repo    Repository
	svc     Service
	userID  uuid.UUID
	cart    *models.Cart
}

func newCartFixture(t *testing.T) *cartFixture {
	t.Helper()

	conn := setupCartTestDB(t)
	catalogRepo := catalog.NewRepository(conn)
	repo := NewRepository(conn)
	svc, err := NewService(repo, catalogRepo, testTxRunner{db: conn}, nil)
	require.NoError(t, err)

	userID := uuid.New()
	cart := &models.Cart{
		UserID:     userID,
		VATPercent: decimal.RequireFromString("20"),
	}
	require.NoError(t, repo.CreateCart(context.Background(), cart))

	return &cartFixture{
		conn:    conn,
		catalog: catalogRepo,
		repo:    repo,
		svc:     svc,
		userID:  userID,
		cart:    cart,
	}
}

type variantSpec struct {
	packTiers  [][2]int // {start, end}; end 0 means open-ended
	palletTier bool
}

type itemSpec struct {
	unitsPerPack   int
	weightKG       string
	trackInventory bool
	stock          int
	packPrice      string
	palletPrice    string
}

func (f *cartFixture) seed(t *testing.T, vs variantSpec, is itemSpec) (*models.ProductVariant, *models.Item, []models.PricingTier) {
	t.Helper()
	ctx := context.Background()

	product := &models.Product{Title: "Fixture product"}
	require.NoError(t, f.catalog.CreateProduct(ctx, product))

	variant := &models.ProductVariant{
		ProductID:    product.ID,
		Name:         "Fixture variant",
		Status:       enums.CatalogStatusActive,
		ShowUnitsPer: enums.ShowUnitsPerPack,
	}
	if vs.palletTier {
		variant.ShowUnitsPer = enums.ShowUnitsPerBoth
	}
	require.NoError(t, f.catalog.CreateVariant(ctx, variant))

	for _, bounds := range vs.packTiers {
		tier := &models.PricingTier{
			ProductVariantID: variant.ID,
			TierKind:         enums.TierKindPack,
			RangeStart:       bounds[0],
		}
		if bounds[1] == 0 {
			tier.NoEndRange = true
		} else {
			end := bounds[1]
			tier.RangeEnd = &end
		}
		require.NoError(t, f.catalog.SaveTier(ctx, tier))
	}
	if vs.palletTier {
		require.NoError(t, f.catalog.SaveTier(ctx, &models.PricingTier{
			ProductVariantID: variant.ID,
			TierKind:         enums.TierKindPallet,
			RangeStart:       1,
			NoEndRange:       true,
		}))
	}

	kg := enums.WeightUnitKilogram
	weight := decimal.RequireFromString(is.weightKG)
	item := &models.Item{
		ProductVariantID: variant.ID,
		Title:            "Fixture item",
		SKU:              fmt.Sprintf("fix-%s", uuid.NewString()),
		Status:           enums.CatalogStatusActive,
		UnitsPerPack:     is.unitsPerPack,
		Weight:           &weight,
		WeightUnit:       &kg,
		TrackInventory:   is.trackInventory,
		Stock:            is.stock,
	}
	require.NoError(t, f.catalog.CreateItem(ctx, item))

	tiers, err := f.catalog.ListTiersByVariant(ctx, variant.ID)
	require.NoError(t, err)
	for _, tier := range tiers {
		price := is.packPrice
		if tier.TierKind == enums.TierKindPallet {
			price = is.palletPrice
		}
		if price == "" {
			continue
		}
		require.NoError(t, f.catalog.UpsertTierData(ctx, &models.PricingTierData{
			ItemID:        item.ID,
			PricingTierID: tier.ID,
			Price:         decimal.RequireFromString(price),
		}))
	}
	return variant, item, tiers
}

func TestAddItemConsolidatesIntoOneLine(t *testing.T) {
	f := newCartFixture(t)
	_, item, _ := f.seed(t, variantSpec{packTiers: [][2]int{{1, 10}, {11, 0}}}, itemSpec{
		unitsPerPack: 1,
		weightKG:     "2",
		packPrice:    "2.00",
	})

	ctx := context.Background()
	_, err := f.svc.AddItem(ctx, AddItemInput{UserID: f.userID, ItemID: item.ID, Quantity: 3})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, AddItemInput{UserID: f.userID, ItemID: item.ID, Quantity: 5})
	require.NoError(t, err)

	lines, err := f.repo.ListLines(ctx, f.cart.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 8, lines[0].Quantity)
}

func TestAddItemCrossesTierBoundary(t *testing.T) {
	f := newCartFixture(t)
	// Pack tiers 1-10 at 2.00 and 11+ at 1.50; consolidation to 11 packs
	// must land the whole line on the cheaper tier.
	_, item, tiers := f.seed(t, variantSpec{packTiers: [][2]int{{1, 10}, {11, 0}}}, itemSpec{
		unitsPerPack: 1,
		weightKG:     "2",
		packPrice:    "2.00",
	})

	ctx := context.Background()
	for _, tier := range tiers {
		if tier.NoEndRange {
			require.NoError(t, f.catalog.UpsertTierData(ctx, &models.PricingTierData{
				ItemID:        item.ID,
				PricingTierID: tier.ID,
				Price:         decimal.RequireFromString("1.50"),
			}))
		}
	}

	_, err := f.svc.AddItem(ctx, AddItemInput{UserID: f.userID, ItemID: item.ID, Quantity: 5})
	require.NoError(t, err)

	quote, err := f.svc.Get(ctx, f.userID)
	require.NoError(t, err)
	assert.True(t, quote.Subtotal.Equal(decimal.RequireFromString("10.00")), "got %s", quote.Subtotal)

	_, err = f.svc.AddItem(ctx, AddItemInput{UserID: f.userID, ItemID: item.ID, Quantity: 6})
	require.NoError(t, err)

	quote, err = f.svc.Get(ctx, f.userID)
	require.NoError(t, err)
	require.Len(t, quote.Lines, 1)
	assert.Equal(t, 11, quote.Lines[0].Quantity)
	assert.Equal(t, "11+", quote.Lines[0].TierLabel)
	assert.True(t, quote.Subtotal.Equal(decimal.RequireFromString("16.50")), "got %s", quote.Subtotal)
	assert.True(t, quote.TotalWeightKG.Equal(decimal.RequireFromString("22")), "got %s", quote.TotalWeightKG)
	assert.False(t, quote.PalletActive)
}

func TestAddItemPromotesToPalletAtThreshold(t *testing.T) {
	f := newCartFixture(t)
	_, item, _ := f.seed(t, variantSpec{packTiers: [][2]int{{1, 0}}, palletTier: true}, itemSpec{
		unitsPerPack: 1,
		weightKG:     "100",
		packPrice:    "2.00",
		palletPrice:  "1.20",
	})

	ctx := context.Background()
	line, err := f.svc.AddItem(ctx, AddItemInput{UserID: f.userID, ItemID: item.ID, Quantity: 8})
	require.NoError(t, err)
	require.NotNil(t, line)

	// 8 packs x 100kg = 800kg >= 750kg threshold.
	assert.Equal(t, enums.TierKindPallet, line.UnitKind)

	quote, err := f.svc.Get(ctx, f.userID)
	require.NoError(t, err)
	assert.True(t, quote.PalletActive)
	assert.True(t, quote.TotalWeightKG.Equal(decimal.RequireFromString("800")), "got %s", quote.TotalWeightKG)
}

func TestRemoveLineDemotesBackToPack(t *testing.T) {
	f := newCartFixture(t)
	_, heavy, _ := f.seed(t, variantSpec{packTiers: [][2]int{{1, 0}}, palletTier: true}, itemSpec{
		unitsPerPack: 1,
		weightKG:     "100",
		packPrice:    "2.00",
		palletPrice:  "1.20",
	})
	_, light, _ := f.seed(t, variantSpec{packTiers: [][2]int{{1, 0}}, palletTier: true}, itemSpec{
		unitsPerPack: 1,
		weightKG:     "1",
		packPrice:    "3.00",
		palletPrice:  "2.00",
	})

	ctx := context.Background()
	_, err := f.svc.AddItem(ctx, AddItemInput{UserID: f.userID, ItemID: heavy.ID, Quantity: 8})
	require.NoError(t, err)
	lightLine, err := f.svc.AddItem(ctx, AddItemInput{UserID: f.userID, ItemID: light.ID, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, enums.TierKindPallet, lightLine.UnitKind)

	// Dropping the heavy line pushes total weight below the threshold, so
	// the remaining line demotes to pack pricing.
	lines, err := f.repo.ListLines(ctx, f.cart.ID)
	require.NoError(t, err)
	var heavyLineID uuid.UUID
	for _, l := range lines {
		if l.ItemID == heavy.ID {
			heavyLineID = l.ID
		}
	}
	require.NotEqual(t, uuid.Nil, heavyLineID)
	require.NoError(t, f.svc.RemoveLine(ctx, f.userID, heavyLineID))

	lines, err = f.repo.ListLines(ctx, f.cart.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, enums.TierKindPack, lines[0].UnitKind)
}

func TestInsufficientStockReportsAvailable(t *testing.T) {
	f := newCartFixture(t)
	_, item, _ := f.seed(t, variantSpec{packTiers: [][2]int{{1, 0}}}, itemSpec{
		unitsPerPack:   1,
		weightKG:       "1",
		trackInventory: true,
		stock:          10,
		packPrice:      "2.00",
	})

	ctx := context.Background()
	_, err := f.svc.AddItem(ctx, AddItemInput{UserID: f.userID, ItemID: item.ID, Quantity: 8})
	require.NoError(t, err)

	_, err = f.svc.AddItem(ctx, AddItemInput{UserID: f.userID, ItemID: item.ID, Quantity: 5})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
	details, ok := appErr.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 2, details["available_for_addition"])
}

func TestRebalanceIsIdempotent(t *testing.T) {
	f := newCartFixture(t)
	_, item, _ := f.seed(t, variantSpec{packTiers: [][2]int{{1, 0}}, palletTier: true}, itemSpec{
		unitsPerPack: 1,
		weightKG:     "100",
		packPrice:    "2.00",
		palletPrice:  "1.20",
	})

	ctx := context.Background()
	_, err := f.svc.AddItem(ctx, AddItemInput{UserID: f.userID, ItemID: item.ID, Quantity: 8})
	require.NoError(t, err)

	changed, err := f.svc.Rebalance(ctx, f.cart.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, changed)
}

func TestExclusivePriceAppliedToLineSubtotal(t *testing.T) {
	f := newCartFixture(t)
	_, item, _ := f.seed(t, variantSpec{packTiers: [][2]int{{1, 0}}}, itemSpec{
		unitsPerPack: 2,
		weightKG:     "1",
		packPrice:    "5.00",
	})

	ctx := context.Background()
	require.NoError(t, f.catalog.SetExclusivePrice(ctx, &models.UserExclusivePrice{
		UserID:             f.userID,
		ItemID:             item.ID,
		DiscountPercentage: decimal.RequireFromString("25"),
	}))

	_, err := f.svc.AddItem(ctx, AddItemInput{UserID: f.userID, ItemID: item.ID, Quantity: 3})
	require.NoError(t, err)

	quote, err := f.svc.Get(ctx, f.userID)
	require.NoError(t, err)
	require.Len(t, quote.Lines, 1)
	// 5.00 x 2 units x 3 packs = 30.00, minus 25% = 22.50.
	assert.True(t, quote.Lines[0].Subtotal.Equal(decimal.RequireFromString("22.50")), "got %s", quote.Lines[0].Subtotal)
	// VAT 20% on 22.50 = 4.50.
	assert.True(t, quote.VATAmount.Equal(decimal.RequireFromString("4.50")), "got %s", quote.VATAmount)
	assert.True(t, quote.Total.Equal(decimal.RequireFromString("27.00")), "got %s", quote.Total)
}

func TestClearEmptiesCartAndZeroesTotals(t *testing.T) {
	f := newCartFixture(t)
	_, item, _ := f.seed(t, variantSpec{packTiers: [][2]int{{1, 0}}}, itemSpec{
		unitsPerPack: 1,
		weightKG:     "1",
		packPrice:    "2.00",
	})

	ctx := context.Background()
	_, err := f.svc.AddItem(ctx, AddItemInput{UserID: f.userID, ItemID: item.ID, Quantity: 4})
	require.NoError(t, err)
	require.NoError(t, f.svc.Clear(ctx, f.userID))

	quote, err := f.svc.Get(ctx, f.userID)
	require.NoError(t, err)
	assert.Empty(t, quote.Lines)
	assert.True(t, quote.Subtotal.IsZero())
	assert.True(t, quote.Total.IsZero())
}

func TestUpsertLineReturnsSurvivorAfterDemotionMerge(t *testing.T) {
	f := newCartFixture(t)
	_, item, tiers := f.seed(t, variantSpec{packTiers: [][2]int{{1, 0}}, palletTier: true}, itemSpec{
		unitsPerPack: 1,
		weightKG:     "1",
		packPrice:    "2.00",
		palletPrice:  "1.20",
	})

	var palletTier models.PricingTier
	for _, tier := range tiers {
		if tier.TierKind == enums.TierKindPallet {
			palletTier = tier
		}
	}
	require.NotEqual(t, uuid.Nil, palletTier.ID)

	ctx := context.Background()
	_, err := f.svc.AddItem(ctx, AddItemInput{UserID: f.userID, ItemID: item.ID, Quantity: 3})
	require.NoError(t, err)

	// 5kg total stays far below the pallet threshold, so the rebalance
	// demotes the pallet row and merges it into the existing pack line.
	line, err := f.svc.UpsertLine(ctx, UpsertLineInput{
		UserID:        f.userID,
		ItemID:        item.ID,
		PricingTierID: palletTier.ID,
		Quantity:      2,
		UnitKind:      enums.TierKindPallet,
	})
	require.NoError(t, err)
	require.NotNil(t, line)
	assert.Equal(t, enums.TierKindPack, line.UnitKind)
	assert.Equal(t, 5, line.Quantity)

	lines, err := f.repo.ListLines(ctx, f.cart.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, line.ID, lines[0].ID)
}

func TestUpsertLineRejectsTierQuantityMismatch(t *testing.T) {
	f := newCartFixture(t)
	_, item, tiers := f.seed(t, variantSpec{packTiers: [][2]int{{1, 10}, {11, 0}}}, itemSpec{
		unitsPerPack: 1,
		weightKG:     "1",
		packPrice:    "2.00",
	})

	var bounded models.PricingTier
	for _, tier := range tiers {
		if !tier.NoEndRange {
			bounded = tier
		}
	}

	_, err := f.svc.UpsertLine(context.Background(), UpsertLineInput{
		UserID:        f.userID,
		ItemID:        item.ID,
		PricingTierID: bounded.ID,
		Quantity:      15,
		UnitKind:      enums.TierKindPack,
	})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}
