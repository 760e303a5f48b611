package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/core/domain/model/machine"
	"artfactory/internal/pkg/errs"
)

// SyncMachineCatalogResult counts what a sync changed.
type SyncMachineCatalogResult struct {
	Created int
	Updated int
}

// SyncMachineCatalogCommandHandler applies a catalog file atomically: either
// every entry is stored or none is.
type SyncMachineCatalogCommandHandler struct {
	uowFactory MachineUoWFactory
}

func NewSyncMachineCatalogCommandHandler(uowFactory MachineUoWFactory) SyncMachineCatalogCommandHandler {
	return SyncMachineCatalogCommandHandler{uowFactory: uowFactory}
}

func (h *SyncMachineCatalogCommandHandler) Handle(
	ctx context.Context,
	cmd SyncMachineCatalogCommand,
) (SyncMachineCatalogResult, error) {
	if err := cmd.Validate(); err != nil {
		return SyncMachineCatalogResult{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return SyncMachineCatalogResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	machineRepo := uow.MachineRepository()
	now := time.Now().UTC()

	var (
		result   SyncMachineCatalogResult
		problems []error
	)
	for _, attrs := range cmd.Entries() {
		def, err := machineRepo.GetBySlug(ctx, attrs.Slug)
		switch {
		case errors.Is(err, errs.ErrObjectNotFound):
			def, err = machine.NewDefinition(kernel.NewUUID(), attrs, now)
			if err == nil {
				err = machineRepo.Add(ctx, def)
			}
			if err == nil {
				result.Created++
			}
		case err == nil:
			if err = def.Update(attrs, now); err == nil {
				err = machineRepo.Update(ctx, def)
			}
			if err == nil {
				result.Updated++
			}
		}
		if err != nil {
			problems = append(problems, fmt.Errorf("machine %s: %w", attrs.Slug, err))
		}
	}
	if err := errors.Join(problems...); err != nil {
		return SyncMachineCatalogResult{}, err
	}

	if err := uow.Commit(ctx); err != nil {
		return SyncMachineCatalogResult{}, err
	}
	return result, nil
}
