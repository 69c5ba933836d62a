package order

import (
	"context"
	"sync"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

type memoryRepo struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

func NewMemory() Repository {
	return &memoryRepo{orders: make(map[string]*domain.Order)}
}

func cloneOrder(o *domain.Order) *domain.Order {
	out := *o
	out.Items = append([]domain.OrderItem(nil), o.Items...)
	if o.Tracking != nil {
		tr := *o.Tracking
		out.Tracking = &tr
	}
	return &out
}

func (r *memoryRepo) Create(_ context.Context, o domain.Order) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now
	stored := cloneOrder(&o)
	r.orders[o.ID] = stored
	return cloneOrder(stored), nil
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (r *memoryRepo) ListByCustomer(_ context.Context, customerID string) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Order
	for _, o := range r.orders {
		if o.CustomerID == customerID {
			result = append(result, *cloneOrder(o))
		}
	}
	return result, nil
}

func (r *memoryRepo) UpdateStatus(_ context.Context, id string, from, to domain.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	if o.Status != from {
		return domain.ErrInvalidTransition
	}
	o.Status = to
	o.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memoryRepo) SetPayment(_ context.Context, id string, p domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.Payment = p
	o.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memoryRepo) SetTracking(_ context.Context, id string, t domain.Tracking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.Tracking = &t
	o.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memoryRepo) ListPendingBefore(_ context.Context, cutoff time.Time) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Order
	for _, o := range r.orders {
		if o.Status == domain.OrderPending && o.CreatedAt.Before(cutoff) {
			result = append(result, *cloneOrder(o))
		}
	}
	return result, nil
}
