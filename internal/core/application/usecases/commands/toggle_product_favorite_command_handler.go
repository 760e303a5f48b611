package commands

import (
	"context"
)

type ToggleProductFavoriteCommandHandler struct {
	uowFactory ProductUoWFactory
}

func NewToggleProductFavoriteCommandHandler(uowFactory ProductUoWFactory) ToggleProductFavoriteCommandHandler {
	return ToggleProductFavoriteCommandHandler{uowFactory: uowFactory}
}

// Handle flips the favorite flag and returns its new value.
func (h *ToggleProductFavoriteCommandHandler) Handle(ctx context.Context, cmd ToggleProductFavoriteCommand) (bool, error) {
	if err := cmd.Validate(); err != nil {
		return false, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	productRepo := uow.ProductRepository()
	p, err := productRepo.Get(ctx, cmd.ProductID())
	if err != nil {
		return false, err
	}

	favorite := p.ToggleFavorite()
	if err = productRepo.Update(ctx, p); err != nil {
		return false, err
	}

	if err = uow.Commit(ctx); err != nil {
		return false, err
	}
	return favorite, nil
}
