package commands

import (
	"errors"

	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/core/domain/model/machine"
	"artfactory/internal/pkg/guard"
)

var (
	ErrCreateMachineCommandIsNotConstructed = errors.New(
		"CreateMachineCommand must be created via NewCreateMachineCommand constructor",
	)
)

// CreateMachineCommand registers a new factory machine definition. The
// attributes are validated by the machine aggregate itself.
type CreateMachineCommand struct {
	machineID  kernel.UUID
	attributes machine.Attributes

	guard guard.ConstructorGuard
}

func NewCreateMachineCommand(machineID kernel.UUID, attributes machine.Attributes) (CreateMachineCommand, error) {
	if err := machineID.Validate(); err != nil {
		return CreateMachineCommand{}, err
	}

	return CreateMachineCommand{
		machineID:  machineID,
		attributes: attributes,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

func (c CreateMachineCommand) Validate() error {
	return c.guard.Validate(ErrCreateMachineCommandIsNotConstructed)
}

func (c CreateMachineCommand) MachineID() kernel.UUID { return c.machineID }

func (c CreateMachineCommand) Attributes() machine.Attributes { return c.attributes }
