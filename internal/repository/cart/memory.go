package cart

import (
	"context"
	"sync"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

type memoryRepo struct {
	mu    sync.RWMutex
	carts map[string]*domain.Cart
}

func NewMemory() Repository {
	return &memoryRepo{carts: make(map[string]*domain.Cart)}
}

func cloneCart(c *domain.Cart) *domain.Cart {
	out := *c
	out.Items = append([]domain.CartItem(nil), c.Items...)
	return &out
}

func (r *memoryRepo) Create(_ context.Context, in CreateCartInput) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart := &domain.Cart{
		ID:         uuid.NewString(),
		CustomerID: in.CustomerID,
		Currency:   in.Currency,
		State:      domain.CartStateActive,
		CreatedAt:  time.Now().UTC(),
	}
	r.carts[cart.ID] = cart
	return cloneCart(cart), nil
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*domain.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cart, ok := r.carts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneCart(cart), nil
}

func (r *memoryRepo) AddItem(_ context.Context, cartID, productID string, quantity int, variant string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart, ok := r.carts[cartID]
	if !ok {
		return domain.ErrNotFound
	}
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID && cart.Items[i].Variant == variant {
			cart.Items[i].Quantity += quantity
			return nil
		}
	}
	cart.Items = append(cart.Items, domain.CartItem{
		ID:        uuid.NewString(),
		CartID:    cartID,
		ProductID: productID,
		Quantity:  quantity,
		Variant:   variant,
		AddedAt:   time.Now().UTC(),
	})
	return nil
}

func (r *memoryRepo) SetItemQuantity(_ context.Context, cartID, itemID string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart, ok := r.carts[cartID]
	if !ok {
		return domain.ErrNotFound
	}
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			cart.Items[i].Quantity = quantity
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *memoryRepo) RemoveItem(_ context.Context, cartID, itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart, ok := r.carts[cartID]
	if !ok {
		return domain.ErrNotFound
	}
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *memoryRepo) SetState(_ context.Context, id, state string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart, ok := r.carts[id]
	if !ok {
		return domain.ErrNotFound
	}
	cart.State = state
	return nil
}
