package catalog

import (
	"context"

	"storefront/internal/domain"
	catalogrepo "storefront/internal/repository/catalog"
)

type Service struct {
	repo repo
}

type repo interface {
	List(ctx context.Context, includeInactive bool) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetBySKU(ctx context.Context, sku string) (*domain.Product, error)
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	Update(ctx context.Context, p domain.Product) (*domain.Product, error)
	SetActive(ctx context.Context, id string, active bool) error
	SetStock(ctx context.Context, id string, stock int) (*domain.Product, error)
}

func New(r catalogrepo.Repository) *Service {
	return &Service{repo: r}
}

func (s *Service) List(ctx context.Context, includeInactive bool) ([]domain.Product, error) {
	return s.repo.List(ctx, includeInactive)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	return s.repo.GetBySKU(ctx, sku)
}

func (s *Service) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.Ratings = domain.Ratings{Distribution: map[int]int{}}
	return s.repo.Create(ctx, p)
}

// Update applies an admin edit. The sku is immutable and ratings are owned
// by the review path; both are preserved by the repository regardless of
// input. The inventory status is derived from the submitted stock except
// for the explicit discontinued override.
func (s *Service) Update(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if p.ID == "" {
		return nil, &domain.ValidationError{Field: "id", Reason: "required"}
	}
	current, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if p.SKU != "" && p.SKU != current.SKU {
		return nil, &domain.ValidationError{Field: "sku", Reason: "immutable once assigned"}
	}
	p.SKU = current.SKU
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, p)
}

// Deactivate soft-deletes a product. Products referenced by existing orders
// are never removed; order items are snapshots and keep their copied data.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	return s.repo.SetActive(ctx, id, false)
}

// SetStock is the manual stock adjustment used for restocking, including
// after a return.
func (s *Service) SetStock(ctx context.Context, id string, stock int) (*domain.Product, error) {
	if stock < 0 {
		return nil, &domain.ValidationError{Field: "stock", Reason: "must not be negative"}
	}
	return s.repo.SetStock(ctx, id, stock)
}
