package commands

import (
	"errors"
	"strings"

	"artfactory/internal/pkg/errs"
	"artfactory/internal/pkg/guard"
)

var (
	ErrSetMachineActiveCommandIsNotConstructed = errors.New(
		"SetMachineActiveCommand must be created via NewSetMachineActiveCommand constructor",
	)
)

// SetMachineActiveCommand activates or deactivates a machine. Inactive machines
// cannot be ordered; items already ordered are still processed.
type SetMachineActiveCommand struct {
	slug   string
	active bool

	guard guard.ConstructorGuard
}

func NewSetMachineActiveCommand(slug string, active bool) (SetMachineActiveCommand, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return SetMachineActiveCommand{}, errs.NewValueIsRequiredError("slug")
	}

	return SetMachineActiveCommand{
		slug:   slug,
		active: active,
		guard:  guard.NewConstructorGuard(),
	}, nil
}

func (c SetMachineActiveCommand) Validate() error {
	return c.guard.Validate(ErrSetMachineActiveCommandIsNotConstructed)
}

func (c SetMachineActiveCommand) Slug() string { return c.slug }

func (c SetMachineActiveCommand) Active() bool { return c.active }
