package commands

import (
	"errors"
	"strings"

	"artfactory/internal/core/domain/model/machine"
	"artfactory/internal/pkg/errs"
	"artfactory/internal/pkg/guard"
)

var (
	ErrUpdateMachineCommandIsNotConstructed = errors.New(
		"UpdateMachineCommand must be created via NewUpdateMachineCommand constructor",
	)
)

// UpdateMachineCommand replaces the mutable attributes of the machine named by
// slug. An empty Slug in attributes means "unchanged".
type UpdateMachineCommand struct {
	slug       string
	attributes machine.Attributes

	guard guard.ConstructorGuard
}

func NewUpdateMachineCommand(slug string, attributes machine.Attributes) (UpdateMachineCommand, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return UpdateMachineCommand{}, errs.NewValueIsRequiredError("slug")
	}
	if attributes.Slug == "" {
		attributes.Slug = slug
	}

	return UpdateMachineCommand{
		slug:       slug,
		attributes: attributes,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

func (c UpdateMachineCommand) Validate() error {
	return c.guard.Validate(ErrUpdateMachineCommandIsNotConstructed)
}

func (c UpdateMachineCommand) Slug() string { return c.slug }

func (c UpdateMachineCommand) Attributes() machine.Attributes { return c.attributes }
