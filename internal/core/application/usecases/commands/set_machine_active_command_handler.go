package commands

import (
	"context"
	"time"
)

type SetMachineActiveCommandHandler struct {
	uowFactory MachineUoWFactory
}

func NewSetMachineActiveCommandHandler(uowFactory MachineUoWFactory) SetMachineActiveCommandHandler {
	return SetMachineActiveCommandHandler{uowFactory: uowFactory}
}

func (h *SetMachineActiveCommandHandler) Handle(ctx context.Context, cmd SetMachineActiveCommand) error {
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

	machineRepo := uow.MachineRepository()
	def, err := machineRepo.GetBySlug(ctx, cmd.Slug())
	if err != nil {
		return err
	}

	if def.IsActive() == cmd.Active() {
		return nil
	}

	now := time.Now().UTC()
	if cmd.Active() {
		def.Activate(now)
	} else {
		def.Deactivate(now)
	}

	if err = machineRepo.Update(ctx, def); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
