package commands

import (
	"errors"

	"artfactory/internal/pkg/guard"
)

var (
	ErrRecoverStaleItemsCommandIsNotConstructed = errors.New(
		"RecoverStaleItemsCommand must be created via NewRecoverStaleItemsCommand constructor",
	)
)

// RecoverStaleItemsCommand is the foreman's periodic sweep. It has no input;
// thresholds come from the handler's RecoveryPolicy.
type RecoverStaleItemsCommand struct {
	guard guard.ConstructorGuard
}

func NewRecoverStaleItemsCommand() RecoverStaleItemsCommand {
	return RecoverStaleItemsCommand{guard: guard.NewConstructorGuard()}
}

func (c RecoverStaleItemsCommand) Validate() error {
	return c.guard.Validate(ErrRecoverStaleItemsCommandIsNotConstructed)
}
