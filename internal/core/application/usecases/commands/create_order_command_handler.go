package commands

import (
	"context"
	"log/slog"
	"time"

	"artfactory/internal/core/domain/model/order"
	"artfactory/internal/core/domain/services"
	"artfactory/internal/core/ports"
)

// CreateOrderCommandHandler plans and persists a new order, then announces it.
//
// Example:
//
//	handler := NewCreateOrderCommandHandler(uowFactory, publisher, logger)
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("order creation failed: %w", err)
//	}
//	// Items are now pending and will be claimed by workers
type CreateOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	planner    services.OrderPlanner
	publisher  ports.EventPublisher
	logger     *slog.Logger
}

func NewCreateOrderCommandHandler(
	uowFactory OrderUoWFactory,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		planner:    services.NewOrderPlanner(),
		publisher:  publisher,
		logger:     logger,
	}
}

// Handle resolves every requested machine, expands quantities into items and
// stores the order in a single transaction.
func (h *CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	machines, err := uow.MachineRepository().GetBySlugs(ctx, cmd.MachineSlugs())
	if err != nil {
		return err
	}

	specs, err := h.planner.Plan(cmd.Prompt(), cmd.Items(), machines)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	o, err := order.NewOrder(cmd.OrderID(), cmd.Title(), cmd.Prompt(), cmd.RequestedBy(), specs, now)
	if err != nil {
		return err
	}

	if err = uow.OrderRepository().Add(ctx, o); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.logger.InfoContext(ctx, "order created",
		"order_id", o.ID().String(),
		"items", len(o.Items()),
		"requested_by", o.RequestedBy(),
	)
	publish(ctx, h.publisher, h.logger, orderEvent(ports.EventOrderCreated, o, now))
	return nil
}
