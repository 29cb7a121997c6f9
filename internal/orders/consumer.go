package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/praco-io/praco-backend/pkg/db/models"
	"github.com/praco-io/praco-backend/pkg/enums"
	"github.com/praco-io/praco-backend/pkg/logger"
	"github.com/praco-io/praco-backend/pkg/outbox"
	"github.com/praco-io/praco-backend/pkg/outbox/idempotency"
	"github.com/praco-io/praco-backend/pkg/outbox/payloads"
)

const fulfillmentConsumer = "order-fulfillment"

type consumerRepository interface {
	FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
}

// Consumer watches finalized orders and moves them into fulfillment.
type Consumer struct {
	repo         consumerRepository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds an order fulfillment consumer.
func NewConsumer(repo consumerRepository, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("orders subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != string(enums.EventOrderFinalized) {
		c.logg.Info(logCtx, "skipping non-order event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, fulfillmentConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	var payload payloads.OrderFinalizedEvent
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		_ = c.idempotency.Delete(ctx, fulfillmentConsumer, eventID)
		return processResult{nack: true}
	}

	logCtx = c.logg.WithOrderID(logCtx, payload.OrderID.String())

	if err := c.advanceOrder(ctx, payload, logCtx); err != nil {
		c.logg.Error(logCtx, "order fulfillment failed", err)
		_ = c.idempotency.Delete(ctx, fulfillmentConsumer, eventID)
		return processResult{nack: true}
	}

	return processResult{ack: true}
}

func (c *Consumer) advanceOrder(ctx context.Context, payload payloads.OrderFinalizedEvent, logCtx context.Context) error {
	if payload.OrderID == uuid.Nil {
		return fmt.Errorf("order id missing")
	}

	order, err := c.repo.FindOrder(ctx, payload.OrderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Placement committed before the event was published, so a missing
		// order means it was deleted out of band. Nothing to advance.
		c.logg.Warn(logCtx, "order not found, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load order: %w", err)
	}
	if order.Status != enums.OrderStatusPending {
		c.logg.Info(logCtx, "order already advanced")
		return nil
	}

	if err := c.repo.UpdateOrderStatus(ctx, order.ID, enums.OrderStatusProcessing); err != nil {
		return fmt.Errorf("advance order: %w", err)
	}
	c.logg.Info(logCtx, "order moved to processing")
	return nil
}
