package commands

import (
	"context"
	"log/slog"
	"time"

	"artfactory/internal/core/ports"
)

// RetryOrderCommandHandler resets failed items to pending with a fresh
// attempt budget.
type RetryOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	publisher  ports.EventPublisher
	logger     *slog.Logger
}

func NewRetryOrderCommandHandler(
	uowFactory OrderUoWFactory,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) RetryOrderCommandHandler {
	return RetryOrderCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
		logger:     logger,
	}
}

// Handle returns the number of items that were requeued.
func (h *RetryOrderCommandHandler) Handle(ctx context.Context, cmd RetryOrderCommand) (int, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	o, err := orderRepo.GetForUpdate(ctx, cmd.OrderID())
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	retried, err := o.RetryFailed(now)
	if err != nil {
		return 0, err
	}

	if err = orderRepo.Update(ctx, o); err != nil {
		return 0, err
	}

	if err = uow.Commit(ctx); err != nil {
		return 0, err
	}

	h.logger.InfoContext(ctx, "order retried", "order_id", o.ID().String(), "items", retried)
	publish(ctx, h.publisher, h.logger, orderEvent(ports.EventOrderChanged, o, now))
	return retried, nil
}
