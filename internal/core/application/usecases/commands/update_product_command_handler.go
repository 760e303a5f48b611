package commands

import (
	"context"
	"errors"
)

type UpdateProductCommandHandler struct {
	uowFactory ProductUoWFactory
}

func NewUpdateProductCommandHandler(uowFactory ProductUoWFactory) UpdateProductCommandHandler {
	return UpdateProductCommandHandler{uowFactory: uowFactory}
}

func (h *UpdateProductCommandHandler) Handle(ctx context.Context, cmd UpdateProductCommand) error {
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

	productRepo := uow.ProductRepository()
	p, err := productRepo.Get(ctx, cmd.ProductID())
	if err != nil {
		return err
	}

	var problems []error
	if title, ok := cmd.Title(); ok {
		problems = append(problems, p.Rename(title))
	}
	if tags, ok := cmd.Tags(); ok {
		problems = append(problems, p.SetTags(tags))
	}
	if favorite, ok := cmd.Favorite(); ok {
		p.SetFavorite(favorite)
	}
	if err = errors.Join(problems...); err != nil {
		return err
	}

	if err = productRepo.Update(ctx, p); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
