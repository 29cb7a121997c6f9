package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderssvc "github.com/praco-io/praco-backend/internal/orders"
	"github.com/praco-io/praco-backend/pkg/db/models"
	"github.com/praco-io/praco-backend/pkg/enums"
	pkgerrors "github.com/praco-io/praco-backend/pkg/errors"
	"github.com/praco-io/praco-backend/pkg/logger"
	"github.com/praco-io/praco-backend/pkg/pagination"
	"github.com/praco-io/praco-backend/pkg/types"
)

type stubOrdersService struct {
	order    *models.Order
	placeErr error
	lastIn   orderssvc.PlaceOrderInput
}

func (s *stubOrdersService) PlaceOrder(ctx context.Context, input orderssvc.PlaceOrderInput) (*models.Order, error) {
	s.lastIn = input
	if s.placeErr != nil {
		return nil, s.placeErr
	}
	return s.order, nil
}

func (s *stubOrdersService) UpsertLine(ctx context.Context, input orderssvc.UpsertLineInput) (*models.OrderItem, error) {
	return &models.OrderItem{ID: uuid.New(), ItemID: input.ItemID, Quantity: input.Quantity}, nil
}

func (s *stubOrdersService) Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	if s.order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return s.order, nil
}

func (s *stubOrdersService) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*orderssvc.ListResult, error) {
	if s.order == nil {
		return &orderssvc.ListResult{}, nil
	}
	return &orderssvc.ListResult{Items: []models.Order{*s.order}}, nil
}

func pendingOrder(userID uuid.UUID) *models.Order {
	return &models.Order{
		ID:            uuid.New(),
		UserID:        userID,
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusPending,
		Subtotal:      decimal.RequireFromString("30.00"),
		VATAmount:     decimal.RequireFromString("6.00"),
		TotalAmount:   decimal.RequireFromString("36.00"),
		Items: []models.OrderItem{{
			ID:       uuid.New(),
			ItemID:   uuid.New(),
			Quantity: 3,
			Subtotal: decimal.RequireFromString("30.00"),
		}},
	}
}

func TestOrderPlaceReturnsCreatedOrder(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test"})
	userID := uuid.New()
	svc := &stubOrdersService{order: pendingOrder(userID)}
	handler := OrderPlace(svc, logg)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/orders", `{"payment_method":"invoice"}`))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.lastIn.PaymentMethod)
	assert.Equal(t, "invoice", *svc.lastIn.PaymentMethod)

	var envelope types.SuccessEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	data, ok := envelope.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "pending", data["status"])
	lines, ok := data["lines"].([]any)
	require.True(t, ok)
	assert.Len(t, lines, 1)
}

func TestOrderPlaceMapsMissingPricingData(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test"})
	svc := &stubOrdersService{placeErr: pkgerrors.New(pkgerrors.CodeMissingPricingData, "no price row for tier")}
	handler := OrderPlace(svc, logg)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/orders", `{}`))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, string(pkgerrors.CodeMissingPricingData), envelope.Error.Code)
}

func TestOrderDetailNotFound(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test"})
	svc := &stubOrdersService{}
	router := chiRouterWith("/api/v1/orders/{orderId}", http.MethodGet, OrderDetail(svc, logg))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/orders/"+uuid.NewString(), ""))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrderDetailRejectsMalformedID(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test"})
	svc := &stubOrdersService{}
	router := chiRouterWith("/api/v1/orders/{orderId}", http.MethodGet, OrderDetail(svc, logg))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/orders/not-a-uuid", ""))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
