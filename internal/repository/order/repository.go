package order

import (
	"context"
	"time"

	"storefront/internal/domain"
)

// Repository persists order snapshots. UpdateStatus is a compare-and-swap
// guarded on the current status, which serializes racing transitions for a
// single order: the loser of the race sees ErrInvalidTransition.
type Repository interface {
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) error
	SetPayment(ctx context.Context, id string, p domain.Payment) error
	SetTracking(ctx context.Context, id string, t domain.Tracking) error
	ListPendingBefore(ctx context.Context, cutoff time.Time) ([]domain.Order, error)
}
