package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/praco-io/praco-backend/pkg/logger"
)

const defaultRebalanceWindow = 24 * time.Hour

type cartRebalancer interface {
	Rebalance(ctx context.Context, cartID uuid.UUID) (int, error)
}

type cartLister interface {
	ListCartIDsUpdatedSince(ctx context.Context, since time.Time) ([]uuid.UUID, error)
}

type CartRebalanceJobParams struct {
	Logger *logger.Logger
	Carts  cartLister
	Svc    cartRebalancer
	Window time.Duration
}

// NewCartRebalanceJob builds the sweep that re-resolves tier selection for
// carts touched inside the configured window. Catalog edits (tier boundaries,
// price rows) do not touch carts directly, so the sweep is what brings idle
// carts back in line with the current catalog.
func NewCartRebalanceJob(params CartRebalanceJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Svc == nil {
		return nil, fmt.Errorf("cart service required")
	}
	window := params.Window
	if window <= 0 {
		window = defaultRebalanceWindow
	}
	return &cartRebalanceJob{
		logg:   params.Logger,
		carts:  params.Carts,
		svc:    params.Svc,
		window: window,
		now:    time.Now,
	}, nil
}

type cartRebalanceJob struct {
	logg   *logger.Logger
	carts  cartLister
	svc    cartRebalancer
	window time.Duration
	now    func() time.Time
}

func (j *cartRebalanceJob) Name() string { return "cart-rebalance" }

func (j *cartRebalanceJob) Run(ctx context.Context) error {
	since := j.now().UTC().Add(-j.window)
	ids, err := j.carts.ListCartIDsUpdatedSince(ctx, since)
	if err != nil {
		return fmt.Errorf("list carts for rebalance: %w", err)
	}

	var swept, changed int
	var errs []error
	for _, id := range ids {
		lines, err := j.svc.Rebalance(ctx, id)
		if err != nil {
			errCtx := j.logg.WithFields(ctx, map[string]any{"cart_id": id})
			j.logg.Error(errCtx, "cart rebalance failed", err)
			errs = append(errs, fmt.Errorf("cart %s: %w", id, err))
			continue
		}
		swept++
		changed += lines
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"since":         since,
		"carts_swept":   swept,
		"lines_changed": changed,
		"carts_failed":  len(errs),
	})
	j.logg.Info(logCtx, "cart rebalance sweep complete")
	return multierr.Combine(errs...)
}
