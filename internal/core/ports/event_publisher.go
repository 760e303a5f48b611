package ports

import (
	"context"
	"time"
)

// EventType names an order lifecycle event.
type EventType string

const (
	EventOrderCreated  EventType = "order.created"
	EventOrderChanged  EventType = "order.changed"
	EventItemCompleted EventType = "item.completed"
	EventItemFailed    EventType = "item.failed"
	EventItemRequeued  EventType = "item.requeued"
)

// OrderEvent is published after an order transaction commits.
type OrderEvent struct {
	Type        EventType `json:"type"`
	OrderID     string    `json:"order_id"`
	OrderStatus string    `json:"order_status"`
	ItemID      string    `json:"item_id,omitempty"`
	ItemStatus  string    `json:"item_status,omitempty"`
	ProductIDs  []string  `json:"product_ids,omitempty"`
	Message     string    `json:"message,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// EventPublisher delivers order events to interested consumers.
type EventPublisher interface {
	Publish(ctx context.Context, events ...OrderEvent) error
}
