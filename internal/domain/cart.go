package domain

import "time"

const (
	CartStateActive  = "active"
	CartStateOrdered = "ordered"
	CartStateDeleted = "deleted"
)

// Cart holds live references to products. Items carry no price; prices are
// resolved against the catalog at totals-computation time, never cached.
type Cart struct {
	ID         string     `json:"id"`
	CustomerID *string    `json:"customerId,omitempty"`
	Currency   string     `json:"currency"`
	State      string     `json:"state"`
	Items      []CartItem `json:"lineItems,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

type CartItem struct {
	ID        string    `json:"id"`
	CartID    string    `json:"cartId"`
	ProductID string    `json:"productId"`
	Quantity  int       `json:"quantity"`
	Variant   string    `json:"variant,omitempty"`
	AddedAt   time.Time `json:"addedAt"`
}
