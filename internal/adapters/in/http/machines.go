package http

import (
	"net/http"

	"artfactory/internal/core/application/usecases/commands"
	"artfactory/internal/core/application/usecases/queries"
	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/core/domain/model/machine"
	"artfactory/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// ListMachines handles GET /api/v1/machines.
func (s *Server) ListMachines(c echo.Context) error {
	var active *bool
	if err := queryParam(c, "active", &active); err != nil {
		return s.fail(c, err)
	}
	query, err := queries.NewListMachinesQuery(deref(active))
	if err != nil {
		return s.fail(c, err)
	}
	res, err := s.uc.ListMachines.Handle(c.Request().Context(), query)
	if err != nil {
		return s.fail(c, err)
	}

	machines := make([]Machine, 0, len(res.Machines))
	for _, m := range res.Machines {
		machines = append(machines, toMachine(m))
	}
	return c.JSON(http.StatusOK, machines)
}

// GetMachine handles GET /api/v1/machines/{slug}.
func (s *Server) GetMachine(c echo.Context) error {
	slug, err := pathString(c, "slug")
	if err != nil {
		return s.fail(c, err)
	}
	return s.respondMachine(c, http.StatusOK, slug)
}

// CreateMachine handles POST /api/v1/machines.
func (s *Server) CreateMachine(c echo.Context) error {
	var body MachineInput
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}
	attrs, err := body.attributes()
	if err != nil {
		return s.fail(c, err)
	}

	cmd, err := commands.NewCreateMachineCommand(kernel.NewUUID(), attrs)
	if err != nil {
		return s.fail(c, err)
	}
	if err = s.uc.CreateMachine.Handle(c.Request().Context(), cmd); err != nil {
		return s.fail(c, err)
	}
	return s.respondMachine(c, http.StatusCreated, attrs.Slug)
}

// UpdateMachine handles PUT /api/v1/machines/{slug}. Provider and media type
// may be omitted; when given they must match the stored machine.
func (s *Server) UpdateMachine(c echo.Context) error {
	slug, err := pathString(c, "slug")
	if err != nil {
		return s.fail(c, err)
	}
	var body MachineInput
	if err = c.Bind(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}
	attrs, err := body.attributes()
	if err != nil {
		return s.fail(c, err)
	}

	cmd, err := commands.NewUpdateMachineCommand(slug, attrs)
	if err != nil {
		return s.fail(c, err)
	}
	if err = s.uc.UpdateMachine.Handle(c.Request().Context(), cmd); err != nil {
		return s.fail(c, err)
	}
	return s.respondMachine(c, http.StatusOK, slug)
}

// ActivateMachine handles POST /api/v1/machines/{slug}/activate.
func (s *Server) ActivateMachine(c echo.Context) error {
	return s.setMachineActive(c, true)
}

// DeactivateMachine handles POST /api/v1/machines/{slug}/deactivate.
func (s *Server) DeactivateMachine(c echo.Context) error {
	return s.setMachineActive(c, false)
}

func (s *Server) setMachineActive(c echo.Context, active bool) error {
	slug, err := pathString(c, "slug")
	if err != nil {
		return s.fail(c, err)
	}
	cmd, err := commands.NewSetMachineActiveCommand(slug, active)
	if err != nil {
		return s.fail(c, err)
	}
	if err = s.uc.SetMachineActive.Handle(c.Request().Context(), cmd); err != nil {
		return s.fail(c, err)
	}
	return s.respondMachine(c, http.StatusOK, slug)
}

// ValidateMachineParameters handles POST /api/v1/machines/{slug}/validate.
// Rule violations are reported in the body with status 200.
func (s *Server) ValidateMachineParameters(c echo.Context) error {
	slug, err := pathString(c, "slug")
	if err != nil {
		return s.fail(c, err)
	}
	var body ValidateParameters
	if err = c.Bind(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}

	query, err := queries.NewValidateMachineParametersQuery(slug, body.Parameters)
	if err != nil {
		return s.fail(c, err)
	}
	res, err := s.uc.ValidateMachineParameters.Handle(c.Request().Context(), query)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, Validation{Valid: res.Valid, Resolved: res.Resolved, Errors: res.Errors})
}

func (s *Server) respondMachine(c echo.Context, code int, slug string) error {
	query, err := queries.NewGetMachineQuery(slug)
	if err != nil {
		return s.fail(c, err)
	}
	res, err := s.uc.GetMachine.Handle(c.Request().Context(), query)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(code, toMachine(res))
}

func (in MachineInput) attributes() (machine.Attributes, error) {
	attrs := machine.Attributes{
		Slug:     in.Slug,
		Name:     in.Name,
		Model:    in.Model,
		Defaults: kernel.NewParameters(in.DefaultParameters),
	}

	if in.Provider != "" {
		p, err := machine.ParseProvider(in.Provider)
		if err != nil {
			return machine.Attributes{}, err
		}
		attrs.Provider = p
	}
	if in.MediaType != "" {
		mt, err := kernel.ParseMediaType(in.MediaType)
		if err != nil {
			return machine.Attributes{}, err
		}
		attrs.MediaType = mt
	}

	cost, err := decimal.NewFromString(in.CostPerRun)
	if err != nil {
		return machine.Attributes{}, errs.NewValueIsInvalidErrorWithCause("cost_per_run", err)
	}
	attrs.CostPerRun = cost

	for _, r := range in.Rules {
		attrs.Rules = append(attrs.Rules, machine.Rule{
			Name:      r.Name,
			Kind:      machine.RuleKind(r.Kind),
			Required:  r.Required,
			Min:       r.Min,
			Max:       r.Max,
			MaxLength: r.MaxLength,
			Options:   r.Options,
		})
	}
	return attrs, nil
}
