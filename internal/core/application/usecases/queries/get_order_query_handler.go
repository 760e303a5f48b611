package queries

import (
	"context"
	"database/sql"
	"errors"

	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/core/domain/model/order"
	"artfactory/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// GetOrderQueryHandler reads an order and its items in two statements.
//
// Example:
//
//	q, _ := NewGetOrderQuery(orderID)
//	view, err := handler.Handle(ctx, q)
//	if errors.Is(err, errs.ErrObjectNotFound) {
//	    // 404
//	}
type GetOrderQueryHandler struct {
	db *gorm.DB
}

func NewGetOrderQueryHandler(db *gorm.DB) GetOrderQueryHandler {
	return GetOrderQueryHandler{db: db}
}

func (h GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (GetOrderQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetOrderQueryResponse{}, err
	}

	db := h.db.WithContext(ctx)
	var (
		resp   GetOrderQueryResponse
		status int
	)
	row := db.Raw(`
		SELECT title, prompt, requested_by, status, created_at, updated_at
		FROM orders
		WHERE id = ?
	`, query.OrderID().Bytes()).Row()
	if err := row.Scan(&resp.Title, &resp.Prompt, &resp.RequestedBy, &status, &resp.CreatedAt, &resp.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return GetOrderQueryResponse{}, errs.NewObjectNotFoundError("order", query.OrderID().String())
		}
		return GetOrderQueryResponse{}, err
	}
	resp.ID = query.OrderID()
	resp.Status = order.Status(status).String()

	rows, err := db.Raw(`
		SELECT
			i.id,
			i.position,
			i.machine_id,
			m.slug,
			m.name,
			i.prompt,
			i.parameters,
			i.cost,
			i.status,
			i.attempts,
			i.last_error,
			i.worker_id,
			i.claimed_at,
			i.finished_at,
			COALESCE(array_agg(p.id::text ORDER BY p.created_at, p.id) FILTER (WHERE p.id IS NOT NULL), '{}') AS product_ids
		FROM order_items i
		JOIN machines m ON m.id = i.machine_id
		LEFT JOIN products p ON p.item_id = i.id
		WHERE i.order_id = ?
		GROUP BY i.id, m.slug, m.name
		ORDER BY i.position
	`, query.OrderID().Bytes()).Rows()
	if err != nil {
		return GetOrderQueryResponse{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item       OrderItemView
			id, mID    uuid.UUID
			params     []byte
			itemStatus int
			productIDs pq.StringArray
		)
		if err = rows.Scan(
			&id,
			&item.Position,
			&mID,
			&item.MachineSlug,
			&item.MachineName,
			&item.Prompt,
			&params,
			&item.Cost,
			&itemStatus,
			&item.Attempts,
			&item.LastError,
			&item.WorkerID,
			&item.ClaimedAt,
			&item.FinishedAt,
			&productIDs,
		); err != nil {
			return GetOrderQueryResponse{}, err
		}

		if item.ID, err = kernel.UUIDFromBytes(id[:]); err != nil {
			return GetOrderQueryResponse{}, err
		}
		if item.MachineID, err = kernel.UUIDFromBytes(mID[:]); err != nil {
			return GetOrderQueryResponse{}, err
		}
		if item.Parameters, err = decodeParameters(params); err != nil {
			return GetOrderQueryResponse{}, err
		}
		item.Status = order.ItemStatus(itemStatus).String()
		item.ProductIDs = make([]kernel.UUID, 0, len(productIDs))
		for _, raw := range productIDs {
			pid, idErr := kernel.UUIDFromString(raw)
			if idErr != nil {
				return GetOrderQueryResponse{}, idErr
			}
			item.ProductIDs = append(item.ProductIDs, pid)
		}

		if order.ItemStatus(itemStatus) != order.ItemCancelled {
			resp.TotalCost = resp.TotalCost.Add(item.Cost)
		}
		resp.Items = append(resp.Items, item)
	}

	if err = rows.Err(); err != nil {
		return GetOrderQueryResponse{}, err
	}

	return resp, nil
}
