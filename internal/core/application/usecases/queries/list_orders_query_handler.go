package queries

import (
	"context"

	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/core/domain/model/order"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ListOrdersQueryHandler struct {
	db *gorm.DB
}

func NewListOrdersQueryHandler(db *gorm.DB) ListOrdersQueryHandler {
	return ListOrdersQueryHandler{db: db}
}

// Handle returns one page of order summaries and the total number of matching
// orders. Cancelled items do not count towards the total cost.
func (h ListOrdersQueryHandler) Handle(ctx context.Context, query ListOrdersQuery) (ListOrdersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return ListOrdersQueryResponse{}, err
	}

	status, filtered := query.Status()
	page := query.Page()
	db := h.db.WithContext(ctx)

	resp := ListOrdersQueryResponse{Orders: make([]OrderSummary, 0)}
	if err := db.Raw(`
		SELECT COUNT(*)
		FROM orders o
		WHERE NOT @filtered OR o.status = @status
	`, map[string]any{
		"filtered": filtered,
		"status":   int(status),
	}).Scan(&resp.Total).Error; err != nil {
		return ListOrdersQueryResponse{}, err
	}

	rows, err := db.Raw(`
		SELECT
			o.id,
			o.title,
			o.requested_by,
			o.status,
			o.created_at,
			o.updated_at,
			COUNT(i.id),
			COUNT(*) FILTER (WHERE i.status = @pending),
			COUNT(*) FILTER (WHERE i.status = @processing),
			COUNT(*) FILTER (WHERE i.status = @completed),
			COUNT(*) FILTER (WHERE i.status = @failed),
			COUNT(*) FILTER (WHERE i.status = @cancelled),
			COALESCE(SUM(i.cost) FILTER (WHERE i.status <> @cancelled), 0)
		FROM orders o
		JOIN order_items i ON i.order_id = o.id
		WHERE NOT @filtered OR o.status = @status
		GROUP BY o.id
		ORDER BY o.created_at DESC, o.id
		LIMIT @limit OFFSET @offset
	`, map[string]any{
		"pending":    int(order.ItemPending),
		"processing": int(order.ItemProcessing),
		"completed":  int(order.ItemCompleted),
		"failed":     int(order.ItemFailed),
		"cancelled":  int(order.ItemCancelled),
		"filtered":   filtered,
		"status":     int(status),
		"limit":      page.Limit,
		"offset":     page.Offset,
	}).Rows()
	if err != nil {
		return ListOrdersQueryResponse{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			summary     OrderSummary
			id          uuid.UUID
			orderStatus int
		)
		if err = rows.Scan(
			&id,
			&summary.Title,
			&summary.RequestedBy,
			&orderStatus,
			&summary.CreatedAt,
			&summary.UpdatedAt,
			&summary.Items,
			&summary.Pending,
			&summary.Processing,
			&summary.Completed,
			&summary.Failed,
			&summary.Cancelled,
			&summary.TotalCost,
		); err != nil {
			return ListOrdersQueryResponse{}, err
		}

		if summary.ID, err = kernel.UUIDFromBytes(id[:]); err != nil {
			return ListOrdersQueryResponse{}, err
		}
		summary.Status = order.Status(orderStatus).String()
		resp.Orders = append(resp.Orders, summary)
	}

	if err = rows.Err(); err != nil {
		return ListOrdersQueryResponse{}, err
	}

	return resp, nil
}
