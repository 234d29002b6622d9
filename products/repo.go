package products

import (
	"context"

	"github.com/google/uuid"
)

type Repo interface {
	Create(ctx context.Context, product *Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	Update(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, offset, limit int) ([]*Product, error)
	Search(ctx context.Context, term string) ([]*Product, error)
	PriceRange(ctx context.Context, minPrice, maxPrice float64) ([]*Product, error)
}
