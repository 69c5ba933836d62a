package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

// memoryRepo is the swappable in-memory implementation used by tests and
// the memory backend. A single mutex serializes every mutation, which gives
// the same per-product atomicity the conditional UPDATEs give in postgres.
type memoryRepo struct {
	mu       sync.RWMutex
	products map[string]domain.Product
	bySKU    map[string]string
}

func NewMemory() Repository {
	return &memoryRepo{
		products: make(map[string]domain.Product),
		bySKU:    make(map[string]string),
	}
}

func cloneProduct(p domain.Product) domain.Product {
	out := p
	if p.Ratings.Distribution != nil {
		out.Ratings.Distribution = make(map[int]int, len(p.Ratings.Distribution))
		for k, v := range p.Ratings.Distribution {
			out.Ratings.Distribution[k] = v
		}
	}
	out.Images = append([]domain.Image(nil), p.Images...)
	out.Variants = append([]domain.Variant(nil), p.Variants...)
	out.Tags = append([]string(nil), p.Tags...)
	out.Features = append([]string(nil), p.Features...)
	if p.Specifications != nil {
		out.Specifications = make(map[string]string, len(p.Specifications))
		for k, v := range p.Specifications {
			out.Specifications[k] = v
		}
	}
	return out
}

func (r *memoryRepo) List(_ context.Context, includeInactive bool) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		if !includeInactive && !p.IsActive {
			continue
		}
		result = append(result, cloneProduct(p))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := cloneProduct(p)
	return &out, nil
}

func (r *memoryRepo) GetBySKU(_ context.Context, sku string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.bySKU[sku]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := cloneProduct(r.products[id])
	return &out, nil
}

func (r *memoryRepo) Create(_ context.Context, p domain.Product) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.bySKU[p.SKU]; exists {
		return nil, &domain.ValidationError{Field: "sku", Reason: "already in use"}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.Inventory.Status = p.Inventory.DerivedStatus()
	if p.Ratings.Distribution == nil {
		p.Ratings.Distribution = map[int]int{}
	}
	r.products[p.ID] = cloneProduct(p)
	r.bySKU[p.SKU] = p.ID
	out := cloneProduct(p)
	return &out, nil
}

func (r *memoryRepo) Update(_ context.Context, p domain.Product) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.products[p.ID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p.SKU = cur.SKU
	p.CreatedAt = cur.CreatedAt
	p.Ratings = cur.Ratings
	p.UpdatedAt = time.Now().UTC()
	p.Inventory.Status = p.Inventory.DerivedStatus()
	r.products[p.ID] = cloneProduct(p)
	out := cloneProduct(p)
	return &out, nil
}

func (r *memoryRepo) SetActive(_ context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.IsActive = active
	p.UpdatedAt = time.Now().UTC()
	r.products[id] = p
	return nil
}

func (r *memoryRepo) SetStock(_ context.Context, id string, stock int) (*domain.Product, error) {
	if stock < 0 {
		return nil, &domain.ValidationError{Field: "stock", Reason: "must not be negative"}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p.Inventory.Stock = stock
	p.Inventory.Status = p.Inventory.DerivedStatus()
	p.UpdatedAt = time.Now().UTC()
	r.products[id] = p
	out := cloneProduct(p)
	return &out, nil
}

func (r *memoryRepo) ReserveStock(_ context.Context, id string, qty int) error {
	if qty < 1 {
		return &domain.ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	if p.Inventory.Status == domain.InventoryDiscontinued || p.Inventory.Stock < qty {
		return domain.ErrInsufficientStock
	}
	p.Inventory.Stock -= qty
	p.Inventory.Status = p.Inventory.DerivedStatus()
	p.UpdatedAt = time.Now().UTC()
	r.products[id] = p
	return nil
}

func (r *memoryRepo) ReleaseStock(_ context.Context, id string, qty int) error {
	if qty < 1 {
		return &domain.ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Inventory.Stock += qty
	p.Inventory.Status = p.Inventory.DerivedStatus()
	p.UpdatedAt = time.Now().UTC()
	r.products[id] = p
	return nil
}

func (r *memoryRepo) AddReview(_ context.Context, id string, stars int) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p.Ratings = p.Ratings.Add(stars)
	p.UpdatedAt = time.Now().UTC()
	r.products[id] = p
	out := cloneProduct(p)
	return &out, nil
}
