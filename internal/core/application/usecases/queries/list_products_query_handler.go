package queries

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

// ListProductsQueryHandler serves the gallery.
type ListProductsQueryHandler struct {
	db *gorm.DB
}

func NewListProductsQueryHandler(db *gorm.DB) ListProductsQueryHandler {
	return ListProductsQueryHandler{db: db}
}

func (h ListProductsQueryHandler) Handle(
	ctx context.Context,
	query ListProductsQuery,
) (ListProductsQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return ListProductsQueryResponse{}, err
	}

	filter := query.Filter()
	var (
		conditions []string
		args       []any
	)
	if filter.MediaType != nil {
		conditions = append(conditions, "p.media_type = ?")
		args = append(args, filter.MediaType.String())
	}
	if filter.MachineSlug != "" {
		conditions = append(conditions, "m.slug = ?")
		args = append(args, filter.MachineSlug)
	}
	if filter.OrderID != nil {
		conditions = append(conditions, "p.order_id = ?")
		args = append(args, filter.OrderID.Bytes())
	}
	if filter.Favorite != nil {
		conditions = append(conditions, "p.favorite = ?")
		args = append(args, *filter.Favorite)
	}
	if filter.Tag != "" {
		conditions = append(conditions, "? = ANY(p.tags)")
		args = append(args, filter.Tag)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		conditions = append(conditions, "(p.title ILIKE ? OR p.parameters->>'prompt' ILIKE ?)")
		args = append(args, pattern, pattern)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	from := `
		FROM products p
		LEFT JOIN machines m ON m.id = p.machine_id
		` + where

	db := h.db.WithContext(ctx)
	resp := ListProductsQueryResponse{Products: make([]ProductView, 0)}
	if err := db.Raw(`SELECT COUNT(*) `+from, args...).Scan(&resp.Total).Error; err != nil {
		return ListProductsQueryResponse{}, err
	}

	page := query.Page()
	rows, err := db.Raw(`
		SELECT `+productColumns+from+`
		ORDER BY p.created_at DESC, p.id
		LIMIT ? OFFSET ?
	`, append(args, page.Limit, page.Offset)...).Rows()
	if err != nil {
		return ListProductsQueryResponse{}, err
	}
	defer rows.Close()

	for rows.Next() {
		view, scanErr := scanProduct(rows)
		if scanErr != nil {
			return ListProductsQueryResponse{}, scanErr
		}
		resp.Products = append(resp.Products, view)
	}

	if err = rows.Err(); err != nil {
		return ListProductsQueryResponse{}, err
	}

	return resp, nil
}
