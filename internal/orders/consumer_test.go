package orders

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/praco-io/praco-backend/pkg/db/models"
	"github.com/praco-io/praco-backend/pkg/enums"
	"github.com/praco-io/praco-backend/pkg/logger"
	"github.com/praco-io/praco-backend/pkg/outbox"
	"github.com/praco-io/praco-backend/pkg/outbox/idempotency"
	"github.com/praco-io/praco-backend/pkg/outbox/payloads"
)

type fakeConsumerRepo struct {
	orders      map[uuid.UUID]*models.Order
	statusByID  map[uuid.UUID]enums.OrderStatus
	findErr     error
	updateErr   error
	updateCalls int
}

func (r *fakeConsumerRepo) FindOrder(_ context.Context, id uuid.UUID) (*models.Order, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	order, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	return &copied, nil
}

func (r *fakeConsumerRepo) UpdateOrderStatus(_ context.Context, id uuid.UUID, status enums.OrderStatus) error {
	r.updateCalls++
	if r.updateErr != nil {
		return r.updateErr
	}
	if r.statusByID == nil {
		r.statusByID = map[uuid.UUID]enums.OrderStatus{}
	}
	r.statusByID[id] = status
	return nil
}

type fakeProcessedStore struct {
	seen   map[string]bool
	setErr error
}

func (s *fakeProcessedStore) Get(context.Context, string) (string, error) { return "", nil }

func (s *fakeProcessedStore) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	if s.setErr != nil {
		return false, s.setErr
	}
	if s.seen == nil {
		s.seen = map[string]bool{}
	}
	if s.seen[key] {
		return false, nil
	}
	s.seen[key] = true
	return true, nil
}

func (s *fakeProcessedStore) IdempotencyKey(scope, id string) string { return scope + ":" + id }

func (s *fakeProcessedStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.seen, key)
	}
	return nil
}

func newTestConsumer(t *testing.T, repo *fakeConsumerRepo, store *fakeProcessedStore) *Consumer {
	t.Helper()

	manager, err := idempotency.NewManager(store, time.Hour)
	require.NoError(t, err)

	logg := logger.New(logger.Options{ServiceName: "orders-test"})

	return &Consumer{
		repo:        repo,
		idempotency: manager,
		logg:        logg,
	}
}

func finalizedMessage(t *testing.T, orderID uuid.UUID) *pubsub.Message {
	t.Helper()

	payload, err := json.Marshal(payloads.OrderFinalizedEvent{
		OrderID:  orderID,
		UserID:   uuid.New(),
		PlacedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	data, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       payload,
	})
	require.NoError(t, err)

	return &pubsub.Message{
		ID:         "m-1",
		Data:       data,
		Attributes: map[string]string{"event_type": string(enums.EventOrderFinalized)},
	}
}

func TestConsumerAdvancesPendingOrder(t *testing.T) {
	orderID := uuid.New()
	repo := &fakeConsumerRepo{
		orders: map[uuid.UUID]*models.Order{
			orderID: {ID: orderID, Status: enums.OrderStatusPending},
		},
	}
	consumer := newTestConsumer(t, repo, &fakeProcessedStore{})

	result := consumer.process(context.Background(), finalizedMessage(t, orderID))

	assert.True(t, result.ack)
	assert.False(t, result.nack)
	assert.Equal(t, enums.OrderStatusProcessing, repo.statusByID[orderID])
}

func TestConsumerSkipsForeignEvents(t *testing.T) {
	repo := &fakeConsumerRepo{}
	consumer := newTestConsumer(t, repo, &fakeProcessedStore{})

	msg := &pubsub.Message{
		ID:         "m-2",
		Attributes: map[string]string{"event_type": string(enums.EventVariantStatusChanged)},
	}
	result := consumer.process(context.Background(), msg)

	assert.True(t, result.ack)
	assert.Zero(t, repo.updateCalls)
}

func TestConsumerSkipsAlreadyAdvancedOrder(t *testing.T) {
	orderID := uuid.New()
	repo := &fakeConsumerRepo{
		orders: map[uuid.UUID]*models.Order{
			orderID: {ID: orderID, Status: enums.OrderStatusShipped},
		},
	}
	consumer := newTestConsumer(t, repo, &fakeProcessedStore{})

	result := consumer.process(context.Background(), finalizedMessage(t, orderID))

	assert.True(t, result.ack)
	assert.Zero(t, repo.updateCalls)
}

func TestConsumerAcksMissingOrder(t *testing.T) {
	repo := &fakeConsumerRepo{}
	consumer := newTestConsumer(t, repo, &fakeProcessedStore{})

	result := consumer.process(context.Background(), finalizedMessage(t, uuid.New()))

	assert.True(t, result.ack)
	assert.Zero(t, repo.updateCalls)
}

func TestConsumerDeduplicatesByEventID(t *testing.T) {
	orderID := uuid.New()
	repo := &fakeConsumerRepo{
		orders: map[uuid.UUID]*models.Order{
			orderID: {ID: orderID, Status: enums.OrderStatusPending},
		},
	}
	store := &fakeProcessedStore{}
	consumer := newTestConsumer(t, repo, store)

	msg := finalizedMessage(t, orderID)
	first := consumer.process(context.Background(), msg)
	require.True(t, first.ack)

	// Flip the order back so a replay would be visible.
	repo.orders[orderID].Status = enums.OrderStatusPending
	repo.updateCalls = 0

	second := consumer.process(context.Background(), msg)

	assert.True(t, second.ack)
	assert.Zero(t, repo.updateCalls)
}

func TestConsumerNacksOnUpdateFailure(t *testing.T) {
	orderID := uuid.New()
	repo := &fakeConsumerRepo{
		orders: map[uuid.UUID]*models.Order{
			orderID: {ID: orderID, Status: enums.OrderStatusPending},
		},
		updateErr: assert.AnError,
	}
	store := &fakeProcessedStore{}
	consumer := newTestConsumer(t, repo, store)

	msg := finalizedMessage(t, orderID)
	result := consumer.process(context.Background(), msg)

	assert.True(t, result.nack)
	// The processed marker is released so redelivery retries the transition.
	assert.Empty(t, store.seen)
}
