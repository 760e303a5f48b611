// Package ports defines the contracts between the Art Factory core and its adapters:
// repositories, the unit of work, factory machines, heartbeat storage and event publishing.
package ports

import (
	"context"
	"time"

	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/core/domain/model/order"
)

// ProcessingItem is a claimed item as seen by the foreman.
type ProcessingItem struct {
	OrderID   kernel.UUID
	ItemID    kernel.UUID
	WorkerID  string
	ClaimedAt time.Time
}

// OrderRepository defines the persistence contract for order aggregates and their items.
type OrderRepository interface {
	// Add persists a new order with all of its items.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists the order row and every changed item.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get loads an order with its items ordered by position.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetForUpdate locks the order row for the rest of the transaction, then
	// loads it. Every command mutating an order must use it.
	GetForUpdate(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// LockNextPendingItem locks the oldest pending item together with its order,
	// skipping rows locked by other transactions, and returns the loaded order
	// and the item id. Returns errs.ErrObjectNotFound when nothing is claimable.
	LockNextPendingItem(ctx context.Context) (*order.Order, kernel.UUID, error)

	// FindProcessingItems lists every item currently in Processing status.
	FindProcessingItems(ctx context.Context) ([]ProcessingItem, error)
}
