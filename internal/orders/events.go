package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/souqly/storefront-backend/pkg/db/models"
	"github.com/souqly/storefront-backend/pkg/enums"
)

// EventOrderPlaced is the event type header of OrderPlacedEvent records.
const EventOrderPlaced = "order.placed"

type recordProducer interface {
	Publish(ctx context.Context, key string, value []byte, headers map[string]string) error
}

// OrderPlacedEvent is the payload published after an order commits.
type OrderPlacedEvent struct {
	EventType       string            `json:"event_type"`
	OrderCode       string            `json:"order_code"`
	UserID          *uuid.UUID        `json:"user_id,omitempty"`
	Status          enums.OrderStatus `json:"status"`
	Subtotal        decimal.Decimal   `json:"subtotal"`
	DeliveryFee     decimal.Decimal   `json:"delivery_fee"`
	Discount        decimal.Decimal   `json:"discount"`
	Total           decimal.Decimal   `json:"total"`
	TotalWithCoupon decimal.Decimal   `json:"total_with_coupon"`
	Lines           []OrderLineDTO    `json:"lines"`
	OccurredAt      time.Time         `json:"occurred_at"`
}

// EventPublisher emits order events. A nil publisher or one without a
// producer drops events silently.
type EventPublisher struct {
	producer recordProducer
}

// NewEventPublisher wraps a producer.
func NewEventPublisher(producer recordProducer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// NewOrderPlacedEvent builds the event for a committed order.
func NewOrderPlacedEvent(order *models.Order, at time.Time) OrderPlacedEvent {
	dto := NewOrderDTO(order)
	return OrderPlacedEvent{
		EventType:       EventOrderPlaced,
		OrderCode:       dto.Code,
		UserID:          dto.UserID,
		Status:          dto.Status,
		Subtotal:        dto.Subtotal,
		DeliveryFee:     dto.DeliveryFee,
		Discount:        dto.Discount,
		Total:           dto.Total,
		TotalWithCoupon: dto.TotalWithCoupon,
		Lines:           dto.Lines,
		OccurredAt:      at.UTC(),
	}
}

// OrderPlaced publishes the event keyed by order code so all events of one
// order land on the same partition.
func (p *EventPublisher) OrderPlaced(ctx context.Context, order *models.Order) error {
	if p == nil || p.producer == nil || order == nil {
		return nil
	}
	payload, err := json.Marshal(NewOrderPlacedEvent(order, time.Now()))
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}
	return p.producer.Publish(ctx, order.Code, payload, map[string]string{
		"event_type": EventOrderPlaced,
		"version":    "1",
	})
}
