package queries

import (
	"errors"

	"artfactory/internal/pkg/guard"
)

var (
	ErrListMachinesQueryIsNotConstructed = errors.New(
		"ListMachinesQuery must be created via NewListMachinesQuery constructor",
	)
)

type ListMachinesQuery struct {
	activeOnly bool

	guard guard.ConstructorGuard
}

func NewListMachinesQuery(activeOnly bool) (ListMachinesQuery, error) {
	return ListMachinesQuery{activeOnly: activeOnly, guard: guard.NewConstructorGuard()}, nil
}

func (q ListMachinesQuery) Validate() error {
	return q.guard.Validate(ErrListMachinesQueryIsNotConstructed)
}

func (q ListMachinesQuery) ActiveOnly() bool { return q.activeOnly }

type ListMachinesQueryResponse struct {
	Machines []MachineView
}
