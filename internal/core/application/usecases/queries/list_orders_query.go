package queries

import (
	"errors"
	"time"

	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/core/domain/model/order"
	"artfactory/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var (
	ErrListOrdersQueryIsNotConstructed = errors.New(
		"ListOrdersQuery must be created via NewListOrdersQuery constructor",
	)
)

// ListOrdersQuery pages through orders, newest first, optionally filtered by status.
type ListOrdersQuery struct {
	status *order.Status
	page   Page

	guard guard.ConstructorGuard
}

func NewListOrdersQuery(status *order.Status, limit, offset int) (ListOrdersQuery, error) {
	var problems []error
	if status != nil {
		problems = append(problems, status.Validate())
	}
	page, err := newPage(limit, offset)
	problems = append(problems, err)
	if err = errors.Join(problems...); err != nil {
		return ListOrdersQuery{}, err
	}

	return ListOrdersQuery{status: status, page: page, guard: guard.NewConstructorGuard()}, nil
}

func (q ListOrdersQuery) Validate() error {
	return q.guard.Validate(ErrListOrdersQueryIsNotConstructed)
}

func (q ListOrdersQuery) Status() (order.Status, bool) {
	if q.status == nil {
		return order.Unknown, false
	}
	return *q.status, true
}

func (q ListOrdersQuery) Page() Page { return q.page }

// OrderSummary is a row of the order list.
type OrderSummary struct {
	ID          kernel.UUID
	Title       string
	RequestedBy string
	Status      string
	Items       int
	Pending     int
	Processing  int
	Completed   int
	Failed      int
	Cancelled   int
	TotalCost   decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ListOrdersQueryResponse struct {
	Orders []OrderSummary
	Total  int
}
