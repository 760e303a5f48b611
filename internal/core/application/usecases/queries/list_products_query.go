package queries

import (
	"errors"
	"strings"

	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/pkg/guard"
)

var (
	ErrListProductsQueryIsNotConstructed = errors.New(
		"ListProductsQuery must be created via NewListProductsQuery constructor",
	)
)

// ProductFilter narrows the gallery. Zero fields do not filter.
type ProductFilter struct {
	MediaType   *kernel.MediaType
	MachineSlug string
	OrderID     *kernel.UUID
	Favorite    *bool
	Tag         string
	Search      string
	Limit       int
	Offset      int
}

// ListProductsQuery pages through the gallery, newest first.
//
// Example:
//
//	fav := true
//	q, err := NewListProductsQuery(ProductFilter{Favorite: &fav, Tag: "sea", Limit: 24})
type ListProductsQuery struct {
	filter ProductFilter
	page   Page

	guard guard.ConstructorGuard
}

func NewListProductsQuery(filter ProductFilter) (ListProductsQuery, error) {
	var problems []error
	if filter.MediaType != nil {
		problems = append(problems, filter.MediaType.Validate())
	}
	if filter.OrderID != nil {
		problems = append(problems, filter.OrderID.Validate())
	}
	page, err := newPage(filter.Limit, filter.Offset)
	problems = append(problems, err)
	if err = errors.Join(problems...); err != nil {
		return ListProductsQuery{}, err
	}

	filter.MachineSlug = strings.TrimSpace(filter.MachineSlug)
	filter.Tag = strings.ToLower(strings.TrimSpace(filter.Tag))
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Limit, filter.Offset = page.Limit, page.Offset

	return ListProductsQuery{filter: filter, page: page, guard: guard.NewConstructorGuard()}, nil
}

func (q ListProductsQuery) Validate() error {
	return q.guard.Validate(ErrListProductsQueryIsNotConstructed)
}

func (q ListProductsQuery) Filter() ProductFilter { return q.filter }

func (q ListProductsQuery) Page() Page { return q.page }

type ListProductsQueryResponse struct {
	Products []ProductView
	Total    int
}
