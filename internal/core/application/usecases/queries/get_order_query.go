package queries

import (
	"errors"
	"time"

	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var (
	ErrGetOrderQueryIsNotConstructed = errors.New(
		"GetOrderQuery must be created via NewGetOrderQuery constructor",
	)
)

// GetOrderQuery loads one order with its items and the products they produced.
type GetOrderQuery struct {
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

func NewGetOrderQuery(orderID kernel.UUID) (GetOrderQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetOrderQuery{}, err
	}
	return GetOrderQuery{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetOrderQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderQueryIsNotConstructed)
}

func (q GetOrderQuery) OrderID() kernel.UUID { return q.orderID }

// GetOrderQueryResponse is the detailed read model of an order.
type GetOrderQueryResponse struct {
	ID          kernel.UUID
	Title       string
	Prompt      string
	RequestedBy string
	Status      string
	TotalCost   decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Items       []OrderItemView
}

// OrderItemView is one line of an order.
type OrderItemView struct {
	ID          kernel.UUID
	Position    int
	MachineID   kernel.UUID
	MachineSlug string
	MachineName string
	Prompt      string
	Parameters  map[string]any
	Cost        decimal.Decimal
	Status      string
	Attempts    int
	LastError   string
	WorkerID    string
	ClaimedAt   *time.Time
	FinishedAt  *time.Time
	ProductIDs  []kernel.UUID
}
