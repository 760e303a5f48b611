package queries

import (
	"errors"
	"strings"

	"artfactory/internal/pkg/errs"
	"artfactory/internal/pkg/guard"
)

var (
	ErrGetMachineQueryIsNotConstructed = errors.New(
		"GetMachineQuery must be created via NewGetMachineQuery constructor",
	)
)

type GetMachineQuery struct {
	slug string

	guard guard.ConstructorGuard
}

func NewGetMachineQuery(slug string) (GetMachineQuery, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return GetMachineQuery{}, errs.NewValueIsRequiredError("slug")
	}
	return GetMachineQuery{slug: slug, guard: guard.NewConstructorGuard()}, nil
}

func (q GetMachineQuery) Validate() error {
	return q.guard.Validate(ErrGetMachineQueryIsNotConstructed)
}

func (q GetMachineQuery) Slug() string { return q.slug }
