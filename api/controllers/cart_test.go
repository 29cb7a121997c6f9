package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praco-io/praco-backend/api/middleware"
	cartsvc "github.com/praco-io/praco-backend/internal/cart"
	"github.com/praco-io/praco-backend/pkg/db/models"
	"github.com/praco-io/praco-backend/pkg/enums"
	pkgerrors "github.com/praco-io/praco-backend/pkg/errors"
	"github.com/praco-io/praco-backend/pkg/logger"
	"github.com/praco-io/praco-backend/pkg/types"
)

type stubCartService struct {
	quote      *cartsvc.Quote
	addErr     error
	lastAdd    cartsvc.AddItemInput
	lastUpsert cartsvc.UpsertLineInput
}

func (s *stubCartService) Get(ctx context.Context, userID uuid.UUID) (*cartsvc.Quote, error) {
	if s.quote == nil {
		return &cartsvc.Quote{CartID: uuid.New()}, nil
	}
	return s.quote, nil
}

func (s *stubCartService) AddItem(ctx context.Context, input cartsvc.AddItemInput) (*models.CartItem, error) {
	s.lastAdd = input
	if s.addErr != nil {
		return nil, s.addErr
	}
	return &models.CartItem{ID: uuid.New(), ItemID: input.ItemID, Quantity: input.Quantity}, nil
}

func (s *stubCartService) UpsertLine(ctx context.Context, input cartsvc.UpsertLineInput) (*models.CartItem, error) {
	s.lastUpsert = input
	return &models.CartItem{ID: *input.LineID, ItemID: input.ItemID, Quantity: input.Quantity}, nil
}

func (s *stubCartService) RemoveLine(ctx context.Context, userID, lineID uuid.UUID) error {
	return nil
}

func (s *stubCartService) Clear(ctx context.Context, userID uuid.UUID) error { return nil }

func (s *stubCartService) Rebalance(ctx context.Context, cartID uuid.UUID) (int, error) {
	return 0, nil
}

func authedRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(middleware.WithUserID(req.Context(), uuid.New()))
}

func TestCartAddItemReturnsQuote(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test"})
	itemID := uuid.New()
	svc := &stubCartService{
		quote: &cartsvc.Quote{
			CartID: uuid.New(),
			Lines: []cartsvc.QuoteLine{{
				LineID:    uuid.New(),
				ItemID:    itemID,
				TierLabel: "1-10",
				UnitKind:  enums.TierKindPack,
				Quantity:  3,
				Subtotal:  decimal.RequireFromString("30.00"),
			}},
			Subtotal: decimal.RequireFromString("30.00"),
			Total:    decimal.RequireFromString("36.00"),
		},
	}
	handler := CartAddItem(svc, logg)

	body := `{"item_id":"` + itemID.String() + `","quantity":3}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/cart/items", body))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, itemID, svc.lastAdd.ItemID)
	assert.Equal(t, 3, svc.lastAdd.Quantity)

	var envelope types.SuccessEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	data, ok := envelope.Data.(map[string]any)
	require.True(t, ok)
	lines, ok := data["lines"].([]any)
	require.True(t, ok)
	assert.Len(t, lines, 1)
}

func TestCartAddItemRejectsMissingQuantity(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test"})
	svc := &stubCartService{}
	handler := CartAddItem(svc, logg)

	body := `{"item_id":"` + uuid.NewString() + `"}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/cart/items", body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartAddItemMapsServiceError(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test"})
	svc := &stubCartService{addErr: pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock")}
	handler := CartAddItem(svc, logg)

	body := `{"item_id":"` + uuid.NewString() + `","quantity":5}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/cart/items", body))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "insufficient stock", envelope.Error.Message)
}

func TestCartUpsertLineParsesUnitKind(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test"})
	svc := &stubCartService{}
	lineID := uuid.New()
	itemID := uuid.New()
	tierID := uuid.New()

	router := chiRouterWith("/api/v1/cart/lines/{lineId}", http.MethodPut, CartUpsertLine(svc, logg))
	body := `{"item_id":"` + itemID.String() + `","pricing_tier_id":"` + tierID.String() + `","quantity":4,"unit_kind":"pallet"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPut, "/api/v1/cart/lines/"+lineID.String(), body))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.lastUpsert.LineID)
	assert.Equal(t, lineID, *svc.lastUpsert.LineID)
	assert.Equal(t, enums.TierKindPallet, svc.lastUpsert.UnitKind)
}

func TestCartUpsertLineRejectsUnknownUnitKind(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test"})
	svc := &stubCartService{}
	router := chiRouterWith("/api/v1/cart/lines/{lineId}", http.MethodPut, CartUpsertLine(svc, logg))

	body := `{"item_id":"` + uuid.NewString() + `","pricing_tier_id":"` + uuid.NewString() + `","quantity":4,"unit_kind":"crate"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPut, "/api/v1/cart/lines/"+uuid.NewString(), body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartFetchRequiresIdentity(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test"})
	handler := CartFetch(&stubCartService{}, logg)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
