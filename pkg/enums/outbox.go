package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type column on outbox_events.
type OutboxAggregateType string

const (
	AggregateOrder          OutboxAggregateType = "order"
	AggregateProductVariant OutboxAggregateType = "product_variant"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateProductVariant,
}

// IsValid reports whether the value matches a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type column on outbox_events.
type OutboxEventType string

const (
	// EventOrderFinalized is the "container finalized" hook consumed by the
	// document-generation/email collaborator.
	EventOrderFinalized OutboxEventType = "order_finalized"
	// EventVariantStatusChanged fires when the derived sellability status of
	// a variant flips between draft and active.
	EventVariantStatusChanged OutboxEventType = "variant_status_changed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderFinalized,
	EventVariantStatusChanged,
}

// IsValid reports whether the value matches a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
