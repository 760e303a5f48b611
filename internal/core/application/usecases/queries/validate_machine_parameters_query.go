package queries

import (
	"errors"
	"strings"

	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/pkg/errs"
	"artfactory/internal/pkg/guard"
)

var (
	ErrValidateMachineParametersQueryIsNotConstructed = errors.New(
		"ValidateMachineParametersQuery must be created via NewValidateMachineParametersQuery constructor",
	)
)

// ValidateMachineParametersQuery dry-runs parameter resolution for a machine
// without placing an order.
type ValidateMachineParametersQuery struct {
	slug       string
	parameters kernel.Parameters

	guard guard.ConstructorGuard
}

func NewValidateMachineParametersQuery(slug string, parameters map[string]any) (ValidateMachineParametersQuery, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return ValidateMachineParametersQuery{}, errs.NewValueIsRequiredError("slug")
	}
	return ValidateMachineParametersQuery{
		slug:       slug,
		parameters: kernel.NewParameters(parameters),
		guard:      guard.NewConstructorGuard(),
	}, nil
}

func (q ValidateMachineParametersQuery) Validate() error {
	return q.guard.Validate(ErrValidateMachineParametersQueryIsNotConstructed)
}

func (q ValidateMachineParametersQuery) Slug() string                  { return q.slug }
func (q ValidateMachineParametersQuery) Parameters() kernel.Parameters { return q.parameters }

type ValidateMachineParametersQueryResponse struct {
	Valid    bool
	Resolved map[string]any
	Errors   []string
}
