package commands

import (
	"context"
	"errors"
	"time"

	"artfactory/internal/core/domain/model/machine"
	"artfactory/internal/pkg/errs"
)

type CreateMachineCommandHandler struct {
	uowFactory MachineUoWFactory
}

func NewCreateMachineCommandHandler(uowFactory MachineUoWFactory) CreateMachineCommandHandler {
	return CreateMachineCommandHandler{uowFactory: uowFactory}
}

// Handle stores a new active definition. A taken slug yields errs.ErrObjectAlreadyExists.
func (h *CreateMachineCommandHandler) Handle(ctx context.Context, cmd CreateMachineCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	def, err := machine.NewDefinition(cmd.MachineID(), cmd.Attributes(), time.Now().UTC())
	if err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	machineRepo := uow.MachineRepository()
	if _, err = machineRepo.GetBySlug(ctx, def.Slug()); err == nil {
		return errs.NewObjectAlreadyExistsError("machine", def.Slug())
	} else if !errors.Is(err, errs.ErrObjectNotFound) {
		return err
	}

	if err = machineRepo.Add(ctx, def); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
