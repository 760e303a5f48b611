package commands

import (
	"errors"
	"fmt"
	"strings"

	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/core/domain/model/order"
	"artfactory/internal/core/domain/services"
	"artfactory/internal/pkg/errs"
	"artfactory/internal/pkg/guard"
)

var (
	ErrCreateOrderCommandIsNotConstructed = errors.New(
		"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
	)
)

// CreateOrderCommand requests a new order of generated media.
//
// Example:
//
//	cmd, err := NewCreateOrderCommand(kernel.NewUUID(), "Lighthouse series", "a lighthouse at dusk", "alice",
//	    []services.ItemRequest{{MachineSlug: "fal-flux-schnell", Quantity: 4}})
//	if err != nil {
//	    return fmt.Errorf("invalid order: %w", err)
//	}
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID     kernel.UUID
	title       string
	prompt      string
	requestedBy string
	items       []services.ItemRequest

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand validates the request shape. Machine existence and
// parameter rules are checked by the handler.
func NewCreateOrderCommand(
	orderID kernel.UUID,
	title, prompt, requestedBy string,
	items []services.ItemRequest,
) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		prompt:      strings.TrimSpace(prompt),
		requestedBy: strings.TrimSpace(requestedBy),
		guard:       guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setTitle(title),
		cmd.setItems(items),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return cmd, nil
}

func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

func (c CreateOrderCommand) OrderID() kernel.UUID { return c.orderID }

func (c CreateOrderCommand) Title() string { return c.title }

func (c CreateOrderCommand) Prompt() string { return c.prompt }

func (c CreateOrderCommand) RequestedBy() string { return c.requestedBy }

// Items returns a copy of the requested items.
func (c CreateOrderCommand) Items() []services.ItemRequest {
	return append([]services.ItemRequest(nil), c.items...)
}

// MachineSlugs returns the distinct machine slugs in request order.
func (c CreateOrderCommand) MachineSlugs() []string {
	seen := make(map[string]struct{}, len(c.items))
	slugs := make([]string, 0, len(c.items))
	for _, it := range c.items {
		if _, ok := seen[it.MachineSlug]; ok {
			continue
		}
		seen[it.MachineSlug] = struct{}{}
		slugs = append(slugs, it.MachineSlug)
	}
	return slugs
}

func (c *CreateOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *CreateOrderCommand) setTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return errs.NewValueIsRequiredError("title")
	}

	c.title = title
	return nil
}

func (c *CreateOrderCommand) setItems(items []services.ItemRequest) error {
	if len(items) == 0 {
		return errs.NewValueIsRequiredError("items")
	}
	if len(items) > order.MaxItems {
		return errs.NewValueIsOutOfRangeError("items", len(items), 1, order.MaxItems)
	}

	items = append([]services.ItemRequest(nil), items...)
	var problems []error
	for i := range items {
		items[i].MachineSlug = strings.TrimSpace(items[i].MachineSlug)
		if items[i].MachineSlug == "" {
			problems = append(problems, fmt.Errorf("item %d: %w", i, errs.NewValueIsRequiredError("machine")))
		}
	}
	if err := errors.Join(problems...); err != nil {
		return err
	}

	c.items = items
	return nil
}
