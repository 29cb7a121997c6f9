package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/praco-io/praco-backend/internal/catalog"
	"github.com/praco-io/praco-backend/internal/pricing"
	"github.com/praco-io/praco-backend/pkg/db/models"
	"github.com/praco-io/praco-backend/pkg/enums"
	pkgerrors "github.com/praco-io/praco-backend/pkg/errors"
	"github.com/praco-io/praco-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns cart line consolidation, weight-driven tier promotion and the
// priced quote surface.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*Quote, error)
	AddItem(ctx context.Context, input AddItemInput) (*models.CartItem, error)
	UpsertLine(ctx context.Context, input UpsertLineInput) (*models.CartItem, error)
	RemoveLine(ctx context.Context, userID, lineID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
	Rebalance(ctx context.Context, cartID uuid.UUID) (int, error)
}

type service struct {
	repo    Repository
	catalog catalog.Repository
	tx      txRunner
	logg    *logger.Logger
}

// NewService builds the cart service with the required dependencies.
func NewService(repo Repository, catalogRepo catalog.Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, catalog: catalogRepo, tx: tx, logg: logg}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*Quote, error) {
	cart, err := s.repo.FindCartByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, err
	}

	quote := &Quote{
		CartID:         cart.ID,
		Subtotal:       cart.Subtotal,
		DiscountAmount: cart.DiscountAmount,
		VATAmount:      cart.VATAmount,
		Total:          cart.Total,
	}

	weightLines := make([]pricing.WeightLine, 0, len(cart.Items))
	for i := range cart.Items {
		line := cart.Items[i]
		item, err := s.catalog.FindItem(ctx, line.ItemID)
		if err != nil {
			return nil, err
		}
		tier, err := s.catalog.FindTier(ctx, line.PricingTierID)
		if err != nil {
			return nil, err
		}
		quote.Lines = append(quote.Lines, QuoteLine{
			LineID:       line.ID,
			ItemID:       line.ItemID,
			TierLabel:    tier.Label(),
			UnitKind:     line.UnitKind,
			Quantity:     line.Quantity,
			PerUnitPrice: line.PerUnitPrice,
			PerPackPrice: line.PerPackPrice,
			Subtotal:     line.Subtotal,
		})
		weightLines = append(weightLines, pricing.WeightLine{
			Weight:       item.Weight,
			WeightUnit:   item.WeightUnit,
			UnitsPerPack: item.UnitsPerPack,
			Quantity:     line.Quantity,
		})
	}

	quote.TotalWeightKG = pricing.TotalWeightKG(weightLines)
	quote.PalletActive = pricing.UsePallet(quote.TotalWeightKG)
	return quote, nil
}

// AddItem is the container-level add: it consolidates the quantity first,
// projects the cart's total weight including the addition, and pre-selects
// pallet pricing when the projection crosses the threshold and the variant
// carries a pallet tier. The per-line upsert below does the rest.
func (s *service) AddItem(ctx context.Context, input AddItemInput) (*models.CartItem, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
			WithField("quantity", "must be at least 1")
	}

	var saved *models.CartItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		catalogRepo := s.catalog.WithTx(tx)

		cart, err := repo.FindCartByUser(ctx, input.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
			}
			return err
		}
		item, err := catalogRepo.FindItem(ctx, input.ItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
			}
			return err
		}
		tiers, err := catalogRepo.ListTiersByVariant(ctx, item.ProductVariantID)
		if err != nil {
			return err
		}

		lines, err := repo.ListLinesForUpdate(ctx, cart.ID)
		if err != nil {
			return err
		}

		consolidated := input.Quantity
		for i := range lines {
			if lines[i].ItemID == input.ItemID {
				consolidated += lines[i].Quantity
			}
		}

		projected, err := s.projectedWeightKG(ctx, catalogRepo, lines, item, input.Quantity)
		if err != nil {
			return err
		}

		unitKind := enums.TierKindPack
		if pricing.UsePallet(projected) && hasKind(tiers, enums.TierKindPallet) {
			unitKind = enums.TierKindPallet
		}

		tier := pricing.ResolveTier(tiers, unitKind, consolidated)
		if tier == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "no pricing tier defined for this quantity").
				WithField("quantity", "no pricing tier defined")
		}

		saved, err = s.upsertLineTx(ctx, tx, cart, upsertLineArgs{
			itemID:        input.ItemID,
			pricingTierID: tier.ID,
			quantity:      input.Quantity,
			unitKind:      unitKind,
			userID:        input.UserID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *service) UpsertLine(ctx context.Context, input UpsertLineInput) (*models.CartItem, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
			WithField("quantity", "must be at least 1")
	}
	if !input.UnitKind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown unit kind").
			WithField("unit_kind", "unknown unit kind")
	}

	var saved *models.CartItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := repo.FindCartByUser(ctx, input.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
			}
			return err
		}

		saved, err = s.upsertLineTx(ctx, tx, cart, upsertLineArgs{
			lineID:        input.LineID,
			itemID:        input.ItemID,
			pricingTierID: input.PricingTierID,
			quantity:      input.Quantity,
			unitKind:      input.UnitKind,
			userID:        input.UserID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *service) RemoveLine(ctx context.Context, userID, lineID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := repo.FindCartByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
			}
			return err
		}
		line, err := repo.FindLine(ctx, lineID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
			}
			return err
		}
		if line.CartID != cart.ID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
		}
		if err := repo.DeleteLine(ctx, lineID); err != nil {
			return err
		}
		if _, err := s.rebalanceTx(ctx, tx, cart.ID); err != nil {
			return err
		}
		return s.recomputeTotalsTx(ctx, tx, cart)
	})
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := repo.FindCartByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
			}
			return err
		}
		if err := repo.DeleteLines(ctx, cart.ID); err != nil {
			return err
		}
		return s.recomputeTotalsTx(ctx, tx, cart)
	})
}

// Rebalance re-resolves every line's tier against the cart's current total
// weight. Safe to call after any mutation; a consistent cart reports zero
// changed lines.
func (s *service) Rebalance(ctx context.Context, cartID uuid.UUID) (int, error) {
	changed := 0
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cart, err := s.repo.WithTx(tx).FindCart(ctx, cartID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
			}
			return err
		}
		changed, err = s.rebalanceTx(ctx, tx, cart.ID)
		if err != nil {
			return err
		}
		return s.recomputeTotalsTx(ctx, tx, cart)
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

type upsertLineArgs struct {
	lineID        *uuid.UUID
	itemID        uuid.UUID
	pricingTierID uuid.UUID
	quantity      int
	unitKind      enums.TierKind
	userID        uuid.UUID
}

func (s *service) upsertLineTx(ctx context.Context, tx *gorm.DB, cart *models.Cart, args upsertLineArgs) (*models.CartItem, error) {
	repo := s.repo.WithTx(tx)
	catalogRepo := s.catalog.WithTx(tx)

	item, err := catalogRepo.FindItem(ctx, args.itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, err
	}
	tier, err := catalogRepo.FindTier(ctx, args.pricingTierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pricing tier not found")
		}
		return nil, err
	}

	exclusive, err := catalogRepo.FindExclusivePriceForUserItem(ctx, args.userID, args.itemID)
	if err != nil {
		return nil, err
	}

	// Consolidation: one row per (cart, item, unit kind). An existing line
	// absorbs the incoming quantity and takes the incoming tier and
	// exclusive price; the incoming row is discarded, never inserted twice.
	line, err := repo.FindLineByIdentity(ctx, cart.ID, args.itemID, args.unitKind)
	if err != nil {
		return nil, err
	}
	var discard *models.CartItem
	switch {
	case line != nil && args.lineID != nil && line.ID == *args.lineID:
		// Editing the matched line itself: set, don't accumulate.
		line.Quantity = args.quantity
	case line != nil:
		line.Quantity += args.quantity
		if args.lineID != nil {
			discard, err = repo.FindLine(ctx, *args.lineID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
		}
	case args.lineID != nil:
		// Identity moved with no counterpart: rewrite the original row.
		line, err = repo.FindLine(ctx, *args.lineID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
			}
			return nil, err
		}
		line.ItemID = args.itemID
		line.UnitKind = args.unitKind
		line.Quantity = args.quantity
	default:
		line = &models.CartItem{
			CartID:   cart.ID,
			ItemID:   args.itemID,
			UnitKind: args.unitKind,
			Quantity: args.quantity,
		}
	}
	line.PricingTierID = tier.ID
	line.UserExclusivePriceID = nil
	if exclusive != nil {
		line.UserExclusivePriceID = &exclusive.ID
	}

	if err := s.validateLine(ctx, repo, cart, line, item, tier); err != nil {
		return nil, err
	}
	if err := repo.SaveLine(ctx, line); err != nil {
		return nil, err
	}
	if discard != nil {
		if err := repo.DeleteLine(ctx, discard.ID); err != nil {
			return nil, err
		}
	}
	if _, err := s.rebalanceTx(ctx, tx, cart.ID); err != nil {
		return nil, err
	}
	if err := s.recomputeTotalsTx(ctx, tx, cart); err != nil {
		return nil, err
	}

	// The rebalance pass may have merged or retiered the saved line.
	refreshed, err := repo.FindLine(ctx, line.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.findMergedLine(ctx, repo, cart.ID, args.itemID)
		}
		return nil, err
	}
	return refreshed, nil
}

// findMergedLine resolves the row that absorbed a line the rebalance pass
// merged away. The surviving row carries whichever kind the rebalance
// settled on, so both kinds are checked.
func (s *service) findMergedLine(ctx context.Context, repo Repository, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	for _, kind := range []enums.TierKind{enums.TierKindPallet, enums.TierKindPack} {
		survivor, err := repo.FindLineByIdentity(ctx, cartID, itemID, kind)
		if err != nil {
			return nil, err
		}
		if survivor != nil {
			return survivor, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeIntegrity, "cart line lost during rebalance")
}

func (s *service) validateLine(ctx context.Context, repo Repository, cart *models.Cart, line *models.CartItem, item *models.Item, tier *models.PricingTier) error {
	fields := pkgerrors.FieldErrors{}
	if tier.ProductVariantID != item.ProductVariantID {
		fields.Add("pricing_tier_id", "belongs to a different variant")
	}
	if tier.TierKind != line.UnitKind {
		fields.Add("unit_kind", fmt.Sprintf("must match the tier kind %q", tier.TierKind))
	}
	if !tier.Contains(line.Quantity) {
		fields.Add("quantity", fmt.Sprintf("must fall within the tier range %s", tier.Label()))
	}
	if fields.HasErrors() {
		return pkgerrors.NewFieldErrors(pkgerrors.CodeValidation, fields)
	}

	if !item.TrackInventory {
		return nil
	}

	lines, err := repo.ListLines(ctx, cart.ID)
	if err != nil {
		return err
	}
	otherUnits := 0
	for i := range lines {
		if lines[i].ItemID != item.ID || lines[i].ID == line.ID {
			continue
		}
		otherUnits += lines[i].Quantity * item.UnitsPerPack
	}
	requestedUnits := line.Quantity * item.UnitsPerPack
	if otherUnits+requestedUnits > item.Stock {
		available := item.Stock - otherUnits
		for i := range lines {
			if lines[i].ItemID == item.ID && lines[i].ID == line.ID {
				available -= lines[i].Quantity * item.UnitsPerPack
			}
		}
		if available < 0 {
			available = 0
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock").
			WithField("quantity", "exceeds available stock").
			WithDetails(map[string]any{
				"stock":                  item.Stock,
				"available_for_addition": available,
			})
	}
	return nil
}

// rebalanceTx re-resolves every line under the cart's current total weight.
// Lines are read under a row lock so two concurrent additions cannot both act
// on a stale total. Returns the number of lines rewritten.
func (s *service) rebalanceTx(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) (int, error) {
	repo := s.repo.WithTx(tx)
	catalogRepo := s.catalog.WithTx(tx)

	lines, err := repo.ListLinesForUpdate(ctx, cartID)
	if err != nil {
		return 0, err
	}
	if len(lines) == 0 {
		return 0, nil
	}

	items := make(map[uuid.UUID]*models.Item, len(lines))
	tiersByVariant := make(map[uuid.UUID][]models.PricingTier)
	weightLines := make([]pricing.WeightLine, 0, len(lines))
	for i := range lines {
		item, ok := items[lines[i].ItemID]
		if !ok {
			item, err = catalogRepo.FindItem(ctx, lines[i].ItemID)
			if err != nil {
				return 0, err
			}
			items[lines[i].ItemID] = item
		}
		if _, ok := tiersByVariant[item.ProductVariantID]; !ok {
			tiers, err := catalogRepo.ListTiersByVariant(ctx, item.ProductVariantID)
			if err != nil {
				return 0, err
			}
			tiersByVariant[item.ProductVariantID] = tiers
		}
		weightLines = append(weightLines, pricing.WeightLine{
			Weight:       item.Weight,
			WeightUnit:   item.WeightUnit,
			UnitsPerPack: item.UnitsPerPack,
			Quantity:     lines[i].Quantity,
		})
	}

	usePallet := pricing.UsePallet(pricing.TotalWeightKG(weightLines))

	byIdentity := make(map[lineIdentity]*models.CartItem, len(lines))
	for i := range lines {
		byIdentity[lineIdentity{lines[i].ItemID, lines[i].UnitKind}] = &lines[i]
	}

	changed := 0
	for i := range lines {
		line := &lines[i]
		if line.Quantity == 0 {
			// Absorbed into another line by an earlier merge this pass.
			continue
		}
		item := items[line.ItemID]
		tiers := tiersByVariant[item.ProductVariantID]

		targetKind := enums.TierKindPack
		if usePallet && hasKind(tiers, enums.TierKindPallet) {
			targetKind = enums.TierKindPallet
		}
		target := pricing.ResolveTier(tiers, targetKind, line.Quantity)
		if target == nil {
			// No tiers of the target kind; the line keeps its current tier.
			continue
		}
		if target.ID == line.PricingTierID && targetKind == line.UnitKind {
			continue
		}

		if targetKind != line.UnitKind {
			if sibling, ok := byIdentity[lineIdentity{line.ItemID, targetKind}]; ok && sibling.Quantity > 0 {
				// Promotion collides with an existing line of the target
				// kind: merge into it and drop this one.
				sibling.Quantity += line.Quantity
				sibling.PricingTierID = pricing.ResolveTier(tiers, targetKind, sibling.Quantity).ID
				if err := repo.SaveLine(ctx, sibling); err != nil {
					return 0, err
				}
				if err := repo.DeleteLine(ctx, line.ID); err != nil {
					return 0, err
				}
				delete(byIdentity, lineIdentity{line.ItemID, line.UnitKind})
				line.Quantity = 0
				changed++
				continue
			}
			delete(byIdentity, lineIdentity{line.ItemID, line.UnitKind})
			line.UnitKind = targetKind
			byIdentity[lineIdentity{line.ItemID, targetKind}] = line
		}
		line.PricingTierID = target.ID
		if err := repo.SaveLine(ctx, line); err != nil {
			return 0, err
		}
		changed++
	}
	return changed, nil
}

type lineIdentity struct {
	itemID   uuid.UUID
	unitKind enums.TierKind
}

// recomputeTotalsTx reprices every line snapshot and the cart-level money
// fields. A line with no price row for its (item, tier) pair contributes zero;
// the gap surfaces at checkout, not here.
func (s *service) recomputeTotalsTx(ctx context.Context, tx *gorm.DB, cart *models.Cart) error {
	repo := s.repo.WithTx(tx)
	catalogRepo := s.catalog.WithTx(tx)

	lines, err := repo.ListLines(ctx, cart.ID)
	if err != nil {
		return err
	}

	subtotals := make([]decimal.Decimal, 0, len(lines))
	for i := range lines {
		line := &lines[i]
		item, err := catalogRepo.FindItem(ctx, line.ItemID)
		if err != nil {
			return err
		}
		input := pricing.LineInput{
			UnitsPerPack: item.UnitsPerPack,
			Quantity:     line.Quantity,
		}

		rows, err := catalogRepo.ListTierDataByItem(ctx, line.ItemID)
		if err != nil {
			return err
		}
		for _, row := range rows {
			if row.PricingTierID == line.PricingTierID {
				input.UnitPrice = row.Price
				input.HasPrice = true
				break
			}
		}
		if !input.HasPrice && s.logg != nil {
			s.logg.Warn(ctx, fmt.Sprintf("cart line %s has no price row for tier %s", line.ID, line.PricingTierID))
		}

		if line.UserExclusivePriceID != nil {
			exclusive, err := catalogRepo.FindExclusivePrice(ctx, *line.UserExclusivePriceID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if exclusive != nil {
				input.DiscountPercent = exclusive.DiscountPercentage
			}
		}

		line.PerUnitPrice = input.UnitPrice
		line.PerPackPrice = pricing.PerPackPrice(input)
		line.Subtotal = pricing.LineSubtotal(input)
		if err := repo.SaveLine(ctx, line); err != nil {
			return err
		}
		subtotals = append(subtotals, line.Subtotal)
	}

	totals := pricing.ComputeTotals(subtotals, cart.DiscountPercent, cart.VATPercent)
	return repo.UpdateCartTotals(ctx, cart.ID, totals)
}

func (s *service) projectedWeightKG(ctx context.Context, catalogRepo catalog.Repository, lines []models.CartItem, incoming *models.Item, quantity int) (decimal.Decimal, error) {
	weightLines := make([]pricing.WeightLine, 0, len(lines)+1)
	for i := range lines {
		item, err := catalogRepo.FindItem(ctx, lines[i].ItemID)
		if err != nil {
			return decimal.Zero, err
		}
		weightLines = append(weightLines, pricing.WeightLine{
			Weight:       item.Weight,
			WeightUnit:   item.WeightUnit,
			UnitsPerPack: item.UnitsPerPack,
			Quantity:     lines[i].Quantity,
		})
	}
	weightLines = append(weightLines, pricing.WeightLine{
		Weight:       incoming.Weight,
		WeightUnit:   incoming.WeightUnit,
		UnitsPerPack: incoming.UnitsPerPack,
		Quantity:     quantity,
	})
	return pricing.TotalWeightKG(weightLines), nil
}

func hasKind(tiers []models.PricingTier, kind enums.TierKind) bool {
	for i := range tiers {
		if tiers[i].TierKind == kind {
			return true
		}
	}
	return false
}
