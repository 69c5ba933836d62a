package cart

import (
	"context"

	"storefront/internal/domain"
)

type CreateCartInput struct {
	CustomerID *string
	Currency   string
}

type Repository interface {
	Create(ctx context.Context, in CreateCartInput) (*domain.Cart, error)
	GetByID(ctx context.Context, id string) (*domain.Cart, error)
	AddItem(ctx context.Context, cartID, productID string, quantity int, variant string) error
	SetItemQuantity(ctx context.Context, cartID, itemID string, quantity int) error
	RemoveItem(ctx context.Context, cartID, itemID string) error
	SetState(ctx context.Context, id, state string) error
}
