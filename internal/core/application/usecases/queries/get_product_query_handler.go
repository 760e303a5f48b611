package queries

import (
	"context"
	"database/sql"
	"errors"

	"artfactory/internal/pkg/errs"

	"gorm.io/gorm"
)

type GetProductQueryHandler struct {
	db *gorm.DB
}

func NewGetProductQueryHandler(db *gorm.DB) GetProductQueryHandler {
	return GetProductQueryHandler{db: db}
}

func (h GetProductQueryHandler) Handle(ctx context.Context, query GetProductQuery) (ProductView, error) {
	if err := query.Validate(); err != nil {
		return ProductView{}, err
	}

	row := h.db.WithContext(ctx).Raw(`
		SELECT `+productColumns+`
		FROM products p
		LEFT JOIN machines m ON m.id = p.machine_id
		WHERE p.id = ?
	`, query.ProductID().Bytes()).Row()

	view, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ProductView{}, errs.NewObjectNotFoundError("product", query.ProductID().String())
		}
		return ProductView{}, err
	}
	return view, nil
}
