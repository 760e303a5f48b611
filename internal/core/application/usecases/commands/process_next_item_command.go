package commands

import (
	"errors"
	"strings"

	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/pkg/errs"
	"artfactory/internal/pkg/guard"
)

var (
	ErrProcessNextItemCommandIsNotConstructed = errors.New(
		"ProcessNextItemCommand must be created via NewProcessNextItemCommand constructor",
	)
)

// ProcessNextItemCommand asks a worker to claim and generate one pending item.
//
// Example:
//
//	cmd, _ := NewProcessNextItemCommand("worker-1")
//	result, err := handler.Handle(ctx, cmd)
//	if errors.Is(err, ErrNoPendingItems) {
//	    return nil // queue is empty
//	}
type ProcessNextItemCommand struct {
	workerID string
	onClaim  func(itemID kernel.UUID)

	guard guard.ConstructorGuard
}

func NewProcessNextItemCommand(workerID string) (ProcessNextItemCommand, error) {
	workerID = strings.TrimSpace(workerID)
	if workerID == "" {
		return ProcessNextItemCommand{}, errs.NewValueIsRequiredError("worker id")
	}

	return ProcessNextItemCommand{
		workerID: workerID,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (c ProcessNextItemCommand) Validate() error {
	return c.guard.Validate(ErrProcessNextItemCommandIsNotConstructed)
}

func (c ProcessNextItemCommand) WorkerID() string {
	return c.workerID
}

// WithClaimObserver returns a copy of the command that calls fn once an item
// is claimed, before generation starts.
func (c ProcessNextItemCommand) WithClaimObserver(fn func(itemID kernel.UUID)) ProcessNextItemCommand {
	c.onClaim = fn
	return c
}

// NotifyClaimed calls the claim observer, if any.
func (c ProcessNextItemCommand) NotifyClaimed(itemID kernel.UUID) {
	if c.onClaim != nil {
		c.onClaim(itemID)
	}
}
