package ports

import (
	"context"

	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/core/domain/model/product"
)

// ProductRepository defines the persistence contract for gallery products.
type ProductRepository interface {
	Add(ctx context.Context, aggregate *product.Product) error
	Update(ctx context.Context, aggregate *product.Product) error
	Get(ctx context.Context, id kernel.UUID) (*product.Product, error)
	Delete(ctx context.Context, id kernel.UUID) error
}
