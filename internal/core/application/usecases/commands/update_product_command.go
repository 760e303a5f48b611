package commands

import (
	"errors"

	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/pkg/errs"
	"artfactory/internal/pkg/guard"
)

var (
	ErrUpdateProductCommandIsNotConstructed = errors.New(
		"UpdateProductCommand must be created via NewUpdateProductCommand constructor",
	)
)

// UpdateProductCommand is a partial update of a gallery product. Nil fields are left as they are.
//
// Example:
//
//	title := "Lighthouse, take two"
//	cmd, err := NewUpdateProductCommand(productID, &title, nil, nil)
type UpdateProductCommand struct {
	productID kernel.UUID
	title     *string
	tags      []string
	hasTags   bool
	favorite  *bool

	guard guard.ConstructorGuard
}

func NewUpdateProductCommand(
	productID kernel.UUID,
	title *string,
	tags *[]string,
	favorite *bool,
) (UpdateProductCommand, error) {
	if err := productID.Validate(); err != nil {
		return UpdateProductCommand{}, err
	}
	if title == nil && tags == nil && favorite == nil {
		return UpdateProductCommand{}, errs.NewValueIsRequiredError("title, tags or favorite")
	}

	cmd := UpdateProductCommand{
		productID: productID,
		title:     title,
		favorite:  favorite,
		guard:     guard.NewConstructorGuard(),
	}
	if tags != nil {
		cmd.tags = append([]string{}, (*tags)...)
		cmd.hasTags = true
	}
	return cmd, nil
}

func (c UpdateProductCommand) Validate() error {
	return c.guard.Validate(ErrUpdateProductCommandIsNotConstructed)
}

func (c UpdateProductCommand) ProductID() kernel.UUID { return c.productID }

// Title returns the new title and whether it was given.
func (c UpdateProductCommand) Title() (string, bool) {
	if c.title == nil {
		return "", false
	}
	return *c.title, true
}

// Tags returns the new tag list and whether it was given. An empty list clears the tags.
func (c UpdateProductCommand) Tags() ([]string, bool) {
	return append([]string{}, c.tags...), c.hasTags
}

func (c UpdateProductCommand) Favorite() (bool, bool) {
	if c.favorite == nil {
		return false, false
	}
	return *c.favorite, true
}
