package services

import (
	"errors"
	"fmt"
	"strings"

	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/core/domain/model/machine"
	"artfactory/internal/core/domain/model/order"
	"artfactory/internal/pkg/errs"
)

const MaxQuantity = 8

// ItemRequest asks for Quantity items of one machine. An empty Prompt falls
// back to the order prompt; a zero Quantity means one.
type ItemRequest struct {
	MachineSlug string
	Prompt      string
	Parameters  kernel.Parameters
	Quantity    int
}

// OrderPlanner resolves item requests against machine definitions.
type OrderPlanner struct{}

func NewOrderPlanner() OrderPlanner {
	return OrderPlanner{}
}

// Plan returns one ItemSpec per requested unit, in request order. machines is
// keyed by slug and must contain every requested machine.
//
// Business rules:
//   - Machines must exist and be active
//   - Quantity must be within 1..MaxQuantity
//   - The item prompt overrides the order prompt and is sent as the "prompt" parameter
//   - Parameters must satisfy the machine's composed rules
func (p OrderPlanner) Plan(
	orderPrompt string,
	requests []ItemRequest,
	machines map[string]*machine.Definition,
) ([]order.ItemSpec, error) {
	if len(requests) == 0 {
		return nil, errs.NewValueIsRequiredError("items")
	}

	var (
		specs    []order.ItemSpec
		problems []error
	)
	for i, req := range requests {
		itemSpecs, err := p.planOne(orderPrompt, req, machines)
		if err != nil {
			problems = append(problems, fmt.Errorf("item %d: %w", i, err))
			continue
		}
		specs = append(specs, itemSpecs...)
	}
	if err := errors.Join(problems...); err != nil {
		return nil, err
	}
	return specs, nil
}

func (p OrderPlanner) planOne(
	orderPrompt string,
	req ItemRequest,
	machines map[string]*machine.Definition,
) ([]order.ItemSpec, error) {
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 || quantity > MaxQuantity {
		return nil, errs.NewValueIsOutOfRangeError("quantity", quantity, 1, MaxQuantity)
	}

	def, ok := machines[req.MachineSlug]
	if !ok || def == nil {
		return nil, errs.NewObjectNotFoundError("machine", req.MachineSlug)
	}
	if err := def.EnsureOrderable(); err != nil {
		return nil, err
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		prompt = strings.TrimSpace(orderPrompt)
	}
	overrides := req.Parameters
	if prompt != "" {
		overrides = overrides.With(machine.ParamPrompt, prompt)
	}

	resolved, err := def.ResolveParameters(overrides)
	if err != nil {
		return nil, err
	}
	resolvedPrompt, _ := resolved.String(machine.ParamPrompt)

	specs := make([]order.ItemSpec, quantity)
	for i := range specs {
		specs[i] = order.ItemSpec{
			MachineID:  def.ID(),
			Prompt:     resolvedPrompt,
			Parameters: resolved,
			Cost:       def.CostPerRun(),
		}
	}
	return specs, nil
}
