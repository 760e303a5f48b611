// Package orderrepo persists the order aggregate: one row in orders plus one
// row per item in order_items.
package orderrepo

import (
	"time"

	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/core/domain/model/order"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderDTO is the orders row.
type OrderDTO struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title       string
	Prompt      string
	RequestedBy string
	Status      int `gorm:"type:smallint"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (OrderDTO) TableName() string {
	return "orders"
}

// OrderItemDTO is the order_items row.
type OrderItemDTO struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID    uuid.UUID `gorm:"type:uuid;index"`
	MachineID  uuid.UUID `gorm:"type:uuid"`
	Position   int
	Prompt     string
	Parameters []byte          `gorm:"type:jsonb"`
	Cost       decimal.Decimal `gorm:"type:numeric(12,6)"`
	Status     int             `gorm:"type:smallint"`
	Attempts   int
	LastError  string
	WorkerID   string
	ClaimedAt  *time.Time
	FinishedAt *time.Time
	CreatedAt  time.Time
}

func (OrderItemDTO) TableName() string {
	return "order_items"
}

func fromDomain(o *order.Order) OrderDTO {
	return OrderDTO{
		ID:          o.ID().Bytes(),
		Title:       o.Title(),
		Prompt:      o.Prompt(),
		RequestedBy: o.RequestedBy(),
		Status:      int(o.Status()),
		CreatedAt:   o.CreatedAt(),
		UpdatedAt:   o.UpdatedAt(),
	}
}

func itemFromDomain(it *order.Item) (OrderItemDTO, error) {
	params, err := it.Parameters().MarshalJSON()
	if err != nil {
		return OrderItemDTO{}, err
	}
	return OrderItemDTO{
		ID:         it.ID().Bytes(),
		OrderID:    it.OrderID().Bytes(),
		MachineID:  it.MachineID().Bytes(),
		Position:   it.Position(),
		Prompt:     it.Prompt(),
		Parameters: params,
		Cost:       it.Cost(),
		Status:     int(it.Status()),
		Attempts:   it.Attempts(),
		LastError:  it.LastError(),
		WorkerID:   it.WorkerID(),
		ClaimedAt:  it.ClaimedAt(),
		FinishedAt: it.FinishedAt(),
		CreatedAt:  it.CreatedAt(),
	}, nil
}

func itemToDomain(dto OrderItemDTO) (*order.Item, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return nil, err
	}
	machineID, err := kernel.UUIDFromBytes(dto.MachineID[:])
	if err != nil {
		return nil, err
	}
	params, err := kernel.ParametersFromJSON(dto.Parameters)
	if err != nil {
		return nil, err
	}

	return order.RestoreItem(order.ItemState{
		ID:         id,
		OrderID:    orderID,
		MachineID:  machineID,
		Position:   dto.Position,
		Prompt:     dto.Prompt,
		Parameters: params,
		Cost:       dto.Cost,
		Status:     order.ItemStatus(dto.Status),
		Attempts:   dto.Attempts,
		LastError:  dto.LastError,
		WorkerID:   dto.WorkerID,
		ClaimedAt:  dto.ClaimedAt,
		FinishedAt: dto.FinishedAt,
		CreatedAt:  dto.CreatedAt,
	})
}

// toDomain rebuilds the aggregate. items must be sorted by position.
func toDomain(dto OrderDTO, itemDTOs []OrderItemDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	items := make([]*order.Item, 0, len(itemDTOs))
	for _, itemDTO := range itemDTOs {
		it, itemErr := itemToDomain(itemDTO)
		if itemErr != nil {
			return nil, itemErr
		}
		items = append(items, it)
	}

	return order.RestoreOrder(
		id,
		dto.Title,
		dto.Prompt,
		dto.RequestedBy,
		order.Status(dto.Status),
		items,
		dto.CreatedAt,
		dto.UpdatedAt,
	)
}
