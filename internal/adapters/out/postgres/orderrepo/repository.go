package orderrepo

import (
	"context"
	"errors"

	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/core/domain/model/order"
	"artfactory/internal/core/ports"
	"artfactory/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements ports.OrderRepository using GORM.
type GormOrderRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

func NewGormOrderRepository(db *gorm.DB, tracker aggregateTracker) *GormOrderRepository {
	return &GormOrderRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add inserts the order row and all of its items.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	items, err := itemDTOs(aggregate.Items())
	if err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	db := r.db.WithContext(ctx)
	if err = db.Create(&dto).Error; err != nil {
		return err
	}
	if err = db.Create(&items).Error; err != nil {
		return err
	}

	aggregate.ClearChanges()
	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Update writes the order row and the items changed since the aggregate was loaded.
func (r *GormOrderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	items, err := itemDTOs(aggregate.ChangedItems())
	if err != nil {
		return err
	}

	db := r.db.WithContext(ctx)
	dto := fromDomain(aggregate)
	result := db.Model(&OrderDTO{}).Where("id = ?", dto.ID).Select("*").Updates(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundErrorWithCause("order", aggregate.ID().String(), gorm.ErrRecordNotFound)
	}

	for i := range items {
		result = db.Model(&OrderItemDTO{}).Where("id = ?", items[i].ID).Select("*").Updates(&items[i])
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errs.NewObjectNotFoundErrorWithCause("order item", items[i].ID.String(), gorm.ErrRecordNotFound)
		}
	}

	aggregate.ClearChanges()
	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return r.load(ctx, id, false)
}

// GetForUpdate loads the order holding a row lock on it until the transaction ends.
// Every mutation of an existing order goes through this lock.
func (r *GormOrderRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return r.load(ctx, id, true)
}

// LockNextPendingItem locks the oldest pending item together with its order,
// skipping rows other workers hold, and returns the order and the item id.
func (r *GormOrderRepository) LockNextPendingItem(ctx context.Context) (*order.Order, kernel.UUID, error) {
	db := r.db.WithContext(ctx)

	var next struct {
		ItemID  uuid.UUID
		OrderID uuid.UUID
	}
	result := db.Raw(`
		SELECT i.id AS item_id, i.order_id AS order_id
		FROM order_items i
		JOIN orders o ON o.id = i.order_id
		WHERE i.status = ?
		ORDER BY i.created_at, i.position
		LIMIT 1
		FOR UPDATE OF i, o SKIP LOCKED
	`, int(order.ItemPending)).Scan(&next)
	if result.Error != nil {
		return nil, kernel.UUID{}, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, kernel.UUID{}, errs.NewObjectNotFoundError("order item", "next pending")
	}

	orderID, err := kernel.UUIDFromBytes(next.OrderID[:])
	if err != nil {
		return nil, kernel.UUID{}, err
	}
	itemID, err := kernel.UUIDFromBytes(next.ItemID[:])
	if err != nil {
		return nil, kernel.UUID{}, err
	}

	o, err := r.load(ctx, orderID, false)
	if err != nil {
		return nil, kernel.UUID{}, err
	}
	return o, itemID, nil
}

// FindProcessingItems lists every claimed item. It takes no locks.
func (r *GormOrderRepository) FindProcessingItems(ctx context.Context) ([]ports.ProcessingItem, error) {
	var dtos []OrderItemDTO
	if err := r.db.WithContext(ctx).
		Select("id", "order_id", "worker_id", "claimed_at").
		Where("status = ?", int(order.ItemProcessing)).
		Order("claimed_at").
		Find(&dtos).Error; err != nil {
		return nil, err
	}

	items := make([]ports.ProcessingItem, 0, len(dtos))
	for _, dto := range dtos {
		orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
		if err != nil {
			return nil, err
		}
		itemID, err := kernel.UUIDFromBytes(dto.ID[:])
		if err != nil {
			return nil, err
		}
		item := ports.ProcessingItem{OrderID: orderID, ItemID: itemID, WorkerID: dto.WorkerID}
		if dto.ClaimedAt != nil {
			item.ClaimedAt = *dto.ClaimedAt
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *GormOrderRepository) load(ctx context.Context, id kernel.UUID, forUpdate bool) (*order.Order, error) {
	db := r.db.WithContext(ctx)
	if forUpdate {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var dto OrderDTO
	if err := db.First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, err
	}

	var items []OrderItemDTO
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", dto.ID).
		Order("position").
		Find(&items).Error; err != nil {
		return nil, err
	}

	return toDomain(dto, items)
}

func itemDTOs(items []*order.Item) ([]OrderItemDTO, error) {
	dtos := make([]OrderItemDTO, 0, len(items))
	for _, it := range items {
		dto, err := itemFromDomain(it)
		if err != nil {
			return nil, err
		}
		dtos = append(dtos, dto)
	}
	return dtos, nil
}
