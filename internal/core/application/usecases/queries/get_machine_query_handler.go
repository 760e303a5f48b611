package queries

import "context"

// GetMachineQueryHandler returns one machine with its effective rules.
// It reads through the aggregate because the rule layers are composed in the domain.
type GetMachineQueryHandler struct {
	machines MachineReader
}

func NewGetMachineQueryHandler(machines MachineReader) GetMachineQueryHandler {
	return GetMachineQueryHandler{machines: machines}
}

func (h GetMachineQueryHandler) Handle(ctx context.Context, query GetMachineQuery) (MachineView, error) {
	if err := query.Validate(); err != nil {
		return MachineView{}, err
	}

	def, err := h.machines.GetBySlug(ctx, query.Slug())
	if err != nil {
		return MachineView{}, err
	}
	return machineView(def), nil
}
