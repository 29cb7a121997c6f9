package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praco-io/praco-backend/pkg/config"
	"github.com/praco-io/praco-backend/pkg/db/models"
	"github.com/praco-io/praco-backend/pkg/enums"
	"github.com/praco-io/praco-backend/pkg/outbox"
	"github.com/praco-io/praco-backend/pkg/outbox/payloads"
)

func testPubSubConfig() config.PubSubConfig {
	return config.PubSubConfig{
		OrdersTopic:  "orders-topic",
		CatalogTopic: "catalog-topic",
	}
}

func envelopeFor(t *testing.T, data interface{}) json.RawMessage {
	t.Helper()
	payload, err := json.Marshal(data)
	require.NoError(t, err)
	envelope, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now(),
		Data:       payload,
	})
	require.NoError(t, err)
	return envelope
}

func TestNewEventRegistryRequiresTopics(t *testing.T) {
	_, err := NewEventRegistry(config.PubSubConfig{CatalogTopic: "catalog"})
	assert.Error(t, err)

	_, err = NewEventRegistry(config.PubSubConfig{OrdersTopic: "orders"})
	assert.Error(t, err)
}

func TestResolveOrderFinalized(t *testing.T) {
	reg, err := NewEventRegistry(testPubSubConfig())
	require.NoError(t, err)

	orderID := uuid.New()
	event := models.OutboxEvent{
		EventType:     enums.EventOrderFinalized,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Payload: envelopeFor(t, payloads.OrderFinalizedEvent{
			OrderID:   orderID,
			UserID:    uuid.New(),
			LineCount: 3,
		}),
	}

	resolved, err := reg.Resolve(event)
	require.NoError(t, err)
	assert.Equal(t, "orders-topic", resolved.Descriptor.Topic)

	payload, ok := resolved.Payload.(*payloads.OrderFinalizedEvent)
	require.True(t, ok)
	assert.Equal(t, orderID, payload.OrderID)
	assert.Equal(t, 3, payload.LineCount)
}

func TestResolveVariantStatusChangedTopic(t *testing.T) {
	reg, err := NewEventRegistry(testPubSubConfig())
	require.NoError(t, err)

	event := models.OutboxEvent{
		EventType:     enums.EventVariantStatusChanged,
		AggregateType: enums.AggregateProductVariant,
		AggregateID:   uuid.New(),
		Payload: envelopeFor(t, payloads.VariantStatusChangedEvent{
			ProductVariantID: uuid.New(),
			PreviousStatus:   enums.CatalogStatusDraft,
			Status:           enums.CatalogStatusActive,
		}),
	}

	resolved, err := reg.Resolve(event)
	require.NoError(t, err)
	assert.Equal(t, "catalog-topic", resolved.Descriptor.Topic)
}

func TestResolveRejectsUnknownEventType(t *testing.T) {
	reg, err := NewEventRegistry(testPubSubConfig())
	require.NoError(t, err)

	_, err = reg.Resolve(models.OutboxEvent{
		EventType:     enums.OutboxEventType("bogus"),
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
	})
	var nonRetryable NonRetryableError
	require.True(t, errors.As(err, &nonRetryable))
}

func TestResolveRejectsAggregateMismatch(t *testing.T) {
	reg, err := NewEventRegistry(testPubSubConfig())
	require.NoError(t, err)

	_, err = reg.Resolve(models.OutboxEvent{
		EventType:     enums.EventOrderFinalized,
		AggregateType: enums.AggregateProductVariant,
		AggregateID:   uuid.New(),
		Payload:       envelopeFor(t, payloads.OrderFinalizedEvent{}),
	})
	var nonRetryable NonRetryableError
	require.True(t, errors.As(err, &nonRetryable))
}

func TestResolveRejectsEmptyPayload(t *testing.T) {
	reg, err := NewEventRegistry(testPubSubConfig())
	require.NoError(t, err)

	envelope, err := json.Marshal(outbox.PayloadEnvelope{
		Version: 1,
		EventID: uuid.NewString(),
		Data:    json.RawMessage("null"),
	})
	require.NoError(t, err)

	_, err = reg.Resolve(models.OutboxEvent{
		EventType:     enums.EventOrderFinalized,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       envelope,
	})
	var nonRetryable NonRetryableError
	require.True(t, errors.As(err, &nonRetryable))
}
