package commands

import (
	"errors"

	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/pkg/guard"
)

var (
	ErrToggleProductFavoriteCommandIsNotConstructed = errors.New(
		"ToggleProductFavoriteCommand must be created via NewToggleProductFavoriteCommand constructor",
	)
)

type ToggleProductFavoriteCommand struct {
	productID kernel.UUID

	guard guard.ConstructorGuard
}

func NewToggleProductFavoriteCommand(productID kernel.UUID) (ToggleProductFavoriteCommand, error) {
	if err := productID.Validate(); err != nil {
		return ToggleProductFavoriteCommand{}, err
	}

	return ToggleProductFavoriteCommand{
		productID: productID,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c ToggleProductFavoriteCommand) Validate() error {
	return c.guard.Validate(ErrToggleProductFavoriteCommandIsNotConstructed)
}

func (c ToggleProductFavoriteCommand) ProductID() kernel.UUID {
	return c.productID
}
