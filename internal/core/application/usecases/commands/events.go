package commands

import (
	"context"
	"log/slog"
	"time"

	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/core/domain/model/order"
	"artfactory/internal/core/ports"
)

// publish delivers events after a commit. Delivery problems never undo a
// committed change, so they are only logged.
func publish(ctx context.Context, publisher ports.EventPublisher, logger *slog.Logger, events ...ports.OrderEvent) {
	if len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.WarnContext(ctx, "failed to publish order events",
			"error", err,
			"count", len(events),
			"type", string(events[0].Type),
		)
	}
}

func orderEvent(typ ports.EventType, o *order.Order, now time.Time) ports.OrderEvent {
	return ports.OrderEvent{
		Type:        typ,
		OrderID:     o.ID().String(),
		OrderStatus: o.Status().String(),
		OccurredAt:  now,
	}
}

func itemEvent(typ ports.EventType, o *order.Order, it *order.Item, productIDs []kernel.UUID, now time.Time) ports.OrderEvent {
	ev := orderEvent(typ, o, now)
	ev.ItemID = it.ID().String()
	ev.ItemStatus = it.Status().String()
	ev.Message = it.LastError()
	for _, id := range productIDs {
		ev.ProductIDs = append(ev.ProductIDs, id.String())
	}
	return ev
}
