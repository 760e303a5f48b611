package commands

import (
	"context"
	"time"
)

type UpdateMachineCommandHandler struct {
	uowFactory MachineUoWFactory
}

func NewUpdateMachineCommandHandler(uowFactory MachineUoWFactory) UpdateMachineCommandHandler {
	return UpdateMachineCommandHandler{uowFactory: uowFactory}
}

// Handle applies the update. Existing order items keep the parameters and
// cost they were resolved with.
func (h *UpdateMachineCommandHandler) Handle(ctx context.Context, cmd UpdateMachineCommand) error {
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

	if err = def.Update(cmd.Attributes(), time.Now().UTC()); err != nil {
		return err
	}

	if err = machineRepo.Update(ctx, def); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
