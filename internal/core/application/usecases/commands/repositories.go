// Package commands contains business operations that modify system state.
// Every handler follows the same shape: validate the command, open a unit of
// work, mutate aggregates through their methods, persist, commit, and only
// then publish events.
package commands

import (
	"context"

	"artfactory/internal/core/ports"
)

// Unit of Work interfaces narrowed to what each handler touches.
type (
	// TxManager handles database transaction lifecycle.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	ProductRepoFactory interface {
		ProductRepository() ports.ProductRepository
	}

	MachineRepoFactory interface {
		MachineRepository() ports.MachineRepository
	}

	// OrderUoW is used by commands that change orders and read machines.
	OrderUoW interface {
		TxManager
		OrderRepoFactory
		MachineRepoFactory
	}

	OrderUoWFactory interface {
		Create() OrderUoW
	}

	// ProductUoW is used by gallery curation commands.
	ProductUoW interface {
		TxManager
		ProductRepoFactory
	}

	ProductUoWFactory interface {
		Create() ProductUoW
	}

	// MachineUoW is used by machine management commands.
	MachineUoW interface {
		TxManager
		MachineRepoFactory
	}

	MachineUoWFactory interface {
		Create() MachineUoW
	}

	// UoW spans every aggregate. Workers need it to complete an item and
	// store its products in one transaction.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   o, err := uow.OrderRepository().GetForUpdate(ctx, orderID)
	//   // ... complete the item, add products
	//
	//   err = uow.Commit(ctx)
	UoW interface {
		TxManager
		OrderRepoFactory
		ProductRepoFactory
		MachineRepoFactory
	}

	UoWFactory interface {
		Create() UoW
	}
)
