package queries

import (
	"context"

	"artfactory/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ListMachinesQueryHandler struct {
	db *gorm.DB
}

func NewListMachinesQueryHandler(db *gorm.DB) ListMachinesQueryHandler {
	return ListMachinesQueryHandler{db: db}
}

func (h ListMachinesQueryHandler) Handle(
	ctx context.Context,
	query ListMachinesQuery,
) (ListMachinesQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return ListMachinesQueryResponse{}, err
	}

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT id, slug, name, provider, model, media_type, cost_per_run,
			default_parameters, rules, active, created_at, updated_at
		FROM machines
		WHERE active OR NOT ?
		ORDER BY slug
	`, query.ActiveOnly()).Rows()
	if err != nil {
		return ListMachinesQueryResponse{}, err
	}
	defer rows.Close()

	resp := ListMachinesQueryResponse{Machines: make([]MachineView, 0)}
	for rows.Next() {
		var (
			view            MachineView
			id              uuid.UUID
			defaults, rules []byte
		)
		if err = rows.Scan(
			&id, &view.Slug, &view.Name, &view.Provider, &view.Model, &view.MediaType, &view.CostPerRun,
			&defaults, &rules, &view.Active, &view.CreatedAt, &view.UpdatedAt,
		); err != nil {
			return ListMachinesQueryResponse{}, err
		}
		if view.ID, err = kernel.UUIDFromBytes(id[:]); err != nil {
			return ListMachinesQueryResponse{}, err
		}
		if view.DefaultParameters, err = decodeParameters(defaults); err != nil {
			return ListMachinesQueryResponse{}, err
		}
		if view.Rules, err = decodeRules(rules); err != nil {
			return ListMachinesQueryResponse{}, err
		}
		resp.Machines = append(resp.Machines, view)
	}

	if err = rows.Err(); err != nil {
		return ListMachinesQueryResponse{}, err
	}

	return resp, nil
}
