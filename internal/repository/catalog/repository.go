package catalog

import (
	"context"

	"storefront/internal/domain"
)

// Repository owns Product entities. ReserveStock and ReleaseStock are the
// sole mutators of inventory stock and status; both recompute the derived
// status in the same atomic step as the stock change.
type Repository interface {
	List(ctx context.Context, includeInactive bool) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetBySKU(ctx context.Context, sku string) (*domain.Product, error)
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	Update(ctx context.Context, p domain.Product) (*domain.Product, error)
	SetActive(ctx context.Context, id string, active bool) error
	SetStock(ctx context.Context, id string, stock int) (*domain.Product, error)
	ReserveStock(ctx context.Context, id string, qty int) error
	ReleaseStock(ctx context.Context, id string, qty int) error
	AddReview(ctx context.Context, id string, stars int) (*domain.Product, error)
}
