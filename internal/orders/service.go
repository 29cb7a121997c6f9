package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/praco-io/praco-backend/internal/cart"
	"github.com/praco-io/praco-backend/internal/catalog"
	"github.com/praco-io/praco-backend/internal/pricing"
	"github.com/praco-io/praco-backend/pkg/db/models"
	"github.com/praco-io/praco-backend/pkg/enums"
	pkgerrors "github.com/praco-io/praco-backend/pkg/errors"
	"github.com/praco-io/praco-backend/pkg/logger"
	"github.com/praco-io/praco-backend/pkg/outbox"
	"github.com/praco-io/praco-backend/pkg/outbox/payloads"
	"github.com/praco-io/praco-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service places orders from carts and edits pending order lines. Order lines
// are pack-only and frozen after placement; no weight rebalancing applies.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error)
	UpsertLine(ctx context.Context, input UpsertLineInput) (*models.OrderItem, error)
	Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ListResult, error)
}

type service struct {
	repo    Repository
	cart    cart.Repository
	catalog catalog.Repository
	tx      txRunner
	outbox  outboxPublisher
	logg    *logger.Logger
}

// NewService builds the orders service with the required dependencies.
func NewService(repo Repository, cartRepo cart.Repository, catalogRepo catalog.Repository, tx txRunner, outboxSvc outboxPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, cart: cartRepo, catalog: catalogRepo, tx: tx, outbox: outboxSvc, logg: logg}, nil
}

// PlaceOrder freezes the user's cart into an order. Every cart line is
// re-resolved under the pack granularity, stock is decremented for tracked
// items, the cart is emptied, and an order_finalized event is queued in the
// same transaction.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	var placed *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cartRepo := s.cart.WithTx(tx)
		catalogRepo := s.catalog.WithTx(tx)

		userCart, err := cartRepo.FindCartByUser(ctx, input.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
			}
			return err
		}
		cartLines, err := cartRepo.ListLinesForUpdate(ctx, userCart.ID)
		if err != nil {
			return err
		}
		if len(cartLines) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty").
				WithField("cart", "is empty")
		}

		order := &models.Order{
			UserID:          input.UserID,
			Status:          enums.OrderStatusPending,
			PaymentStatus:   enums.PaymentStatusPending,
			VATPercent:      userCart.VATPercent,
			DiscountPercent: userCart.DiscountPercent,
			ShippingAddress: input.ShippingAddress,
			PaymentMethod:   input.PaymentMethod,
		}
		if err := repo.CreateOrder(ctx, order); err != nil {
			return err
		}

		for i := range cartLines {
			cartLine := &cartLines[i]
			item, err := catalogRepo.FindItem(ctx, cartLine.ItemID)
			if err != nil {
				return err
			}
			tiers, err := catalogRepo.ListTiersByVariant(ctx, item.ProductVariantID)
			if err != nil {
				return err
			}
			tier := pricing.ResolveTier(tiers, enums.TierKindPack, cartLine.Quantity)
			if tier == nil {
				return pkgerrors.New(pkgerrors.CodeValidation, "no pack tier defined for item").
					WithField("item_id", "no pack tier defined")
			}

			if _, err := s.upsertLineTx(ctx, repo, catalogRepo, order, upsertLineArgs{
				itemID:        cartLine.ItemID,
				pricingTierID: tier.ID,
				quantity:      cartLine.Quantity,
				userID:        input.UserID,
			}); err != nil {
				return err
			}

			if item.TrackInventory {
				units := cartLine.Quantity * item.UnitsPerPack
				if err := catalogRepo.AdjustItemStock(ctx, item.ID, -units); err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock").
							WithField("quantity", "exceeds available stock")
					}
					return err
				}
			}
		}

		if err := s.recomputeTotalsTx(ctx, repo, catalogRepo, order); err != nil {
			return err
		}

		if err := cartRepo.DeleteLines(ctx, userCart.ID); err != nil {
			return err
		}
		if err := cartRepo.UpdateCartTotals(ctx, userCart.ID, pricing.Totals{}); err != nil {
			return err
		}

		lines, err := repo.ListLines(ctx, order.ID)
		if err != nil {
			return err
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventOrderFinalized,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: payloads.OrderFinalizedEvent{
				OrderID:     order.ID,
				UserID:      order.UserID,
				Subtotal:    order.Subtotal,
				VATAmount:   order.VATAmount,
				TotalAmount: order.TotalAmount,
				LineCount:   len(lines),
				PlacedAt:    time.Now().UTC(),
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}
		placed = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindOrder(ctx, placed.ID)
}

func (s *service) UpsertLine(ctx context.Context, input UpsertLineInput) (*models.OrderItem, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
			WithField("quantity", "must be at least 1")
	}

	var saved *models.OrderItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		catalogRepo := s.catalog.WithTx(tx)

		order, err := repo.FindOrder(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return err
		}
		if order.UserID != input.UserID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeConflict, "order is no longer editable")
		}

		saved, err = s.upsertLineTx(ctx, repo, catalogRepo, order, upsertLineArgs{
			itemID:        input.ItemID,
			pricingTierID: input.PricingTierID,
			quantity:      input.Quantity,
			userID:        input.UserID,
		})
		if err != nil {
			return err
		}
		return s.recomputeTotalsTx(ctx, repo, catalogRepo, order)
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *service) Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ListResult, error) {
	var cursor *pagination.Cursor
	if params.Cursor != "" {
		parsed, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		cursor = parsed
	}

	orders, next, err := s.repo.ListOrdersByUser(ctx, userID, params.Limit, cursor)
	if err != nil {
		return nil, err
	}

	result := &ListResult{Items: orders}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

type upsertLineArgs struct {
	itemID        uuid.UUID
	pricingTierID uuid.UUID
	quantity      int
	userID        uuid.UUID
}

// upsertLineTx consolidates one order line. Order consolidation replaces the
// quantity for an existing (order, item, kind) line; it never accumulates.
func (s *service) upsertLineTx(ctx context.Context, repo Repository, catalogRepo catalog.Repository, order *models.Order, args upsertLineArgs) (*models.OrderItem, error) {
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

	fields := pkgerrors.FieldErrors{}
	if tier.ProductVariantID != item.ProductVariantID {
		fields.Add("pricing_tier_id", "belongs to a different variant")
	}
	if tier.TierKind != enums.TierKindPack {
		fields.Add("pricing_tier_id", "order lines are pack-only")
	}
	if !tier.Contains(args.quantity) {
		fields.Add("quantity", fmt.Sprintf("must fall within the tier range %s", tier.Label()))
	}
	if fields.HasErrors() {
		return nil, pkgerrors.NewFieldErrors(pkgerrors.CodeValidation, fields)
	}

	exclusive, err := catalogRepo.FindExclusivePriceForUserItem(ctx, args.userID, args.itemID)
	if err != nil {
		return nil, err
	}

	line, err := repo.FindLineByIdentity(ctx, order.ID, args.itemID, enums.TierKindPack)
	if err != nil {
		return nil, err
	}
	if line == nil {
		line = &models.OrderItem{
			OrderID:  order.ID,
			ItemID:   args.itemID,
			UnitKind: enums.TierKindPack,
		}
	}
	line.Quantity = args.quantity
	line.PricingTierID = tier.ID
	line.UserExclusivePriceID = nil
	if exclusive != nil {
		line.UserExclusivePriceID = &exclusive.ID
	}
	if err := repo.SaveLine(ctx, line); err != nil {
		return nil, err
	}
	return line, nil
}

// recomputeTotalsTx reprices every order line snapshot and the order-level
// money fields. A missing price row is fatal here: placement is the point
// where pricing inconsistencies must surface.
func (s *service) recomputeTotalsTx(ctx context.Context, repo Repository, catalogRepo catalog.Repository, order *models.Order) error {
	lines, err := repo.ListLines(ctx, order.ID)
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
		if !input.HasPrice {
			return pkgerrors.New(pkgerrors.CodeMissingPricingData, "item has no price for the resolved tier").
				WithDetails(map[string]any{
					"item_id":         line.ItemID,
					"pricing_tier_id": line.PricingTierID,
				})
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

	totals := pricing.ComputeTotals(subtotals, order.DiscountPercent, order.VATPercent)
	order.Subtotal = totals.Subtotal
	order.DiscountAmount = totals.DiscountAmount
	order.VATAmount = totals.VATAmount
	order.TotalAmount = totals.Total
	return repo.UpdateOrderTotals(ctx, order.ID, map[string]any{
		"subtotal":        totals.Subtotal,
		"discount_amount": totals.DiscountAmount,
		"vat_amount":      totals.VATAmount,
		"total_amount":    totals.Total,
	})
}
