package commands

import (
	"errors"

	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/pkg/guard"
)

var (
	ErrRetryOrderCommandIsNotConstructed = errors.New(
		"RetryOrderCommand must be created via NewRetryOrderCommand constructor",
	)
)

// RetryOrderCommand puts the failed items of an order back in the queue.
type RetryOrderCommand struct {
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

func NewRetryOrderCommand(orderID kernel.UUID) (RetryOrderCommand, error) {
	if err := orderID.Validate(); err != nil {
		return RetryOrderCommand{}, err
	}

	return RetryOrderCommand{
		orderID: orderID,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c RetryOrderCommand) Validate() error {
	return c.guard.Validate(ErrRetryOrderCommandIsNotConstructed)
}

func (c RetryOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}
