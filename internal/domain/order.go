package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
	OrderReturned   OrderStatus = "returned"
)

// orderTransitions is the authoritative transition table. cancelled and
// returned are terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderConfirmed, OrderCancelled},
	OrderConfirmed:  {OrderProcessing, OrderCancelled},
	OrderProcessing: {OrderShipped, OrderCancelled},
	OrderShipped:    {OrderDelivered},
	OrderDelivered:  {OrderReturned},
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ReleasesStock reports whether cancelling from s must return reserved stock
// to the catalog. Stock is reserved at order creation and held until the
// order ships.
func (s OrderStatus) ReleasesStock() bool {
	return s == OrderPending || s == OrderConfirmed || s == OrderProcessing
}

func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderProcessing, OrderShipped,
		OrderDelivered, OrderCancelled, OrderReturned:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending       PaymentStatus = "pending"
	PaymentSucceeded     PaymentStatus = "succeeded"
	PaymentFailed        PaymentStatus = "failed"
	PaymentRefundPending PaymentStatus = "refund_pending"
)

type Payment struct {
	Method        string        `json:"method"`
	Status        PaymentStatus `json:"status"`
	TransactionID string        `json:"transactionId,omitempty"`
}

type Tracking struct {
	Carrier           string     `json:"carrier,omitempty"`
	TrackingNumber    string     `json:"trackingNumber,omitempty"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery,omitempty"`
}

// Address is structurally validated only; format checks belong to the form
// layer.
type Address struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
	Phone     string `json:"phone,omitempty"`
}

func (a Address) Validate(field string) error {
	required := map[string]string{
		"firstName": a.FirstName,
		"lastName":  a.LastName,
		"street":    a.Street,
		"city":      a.City,
		"state":     a.State,
		"zipCode":   a.ZipCode,
		"country":   a.Country,
	}
	for name, v := range required {
		if v == "" {
			return validationErr(field+"."+name, "required")
		}
	}
	return nil
}

// OrderItem is a snapshot: name and price are copied at order creation and
// never change, even if the product later changes or is deactivated.
type OrderItem struct {
	ProductID string          `json:"productId"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	Variant   string          `json:"variant,omitempty"`
}

type Pricing struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
	Currency string          `json:"currency"`
}

// Order is an immutable historical record created at checkout. Items,
// pricing and addresses are write-once; only status, payment and tracking
// change afterwards.
type Order struct {
	ID              string      `json:"id"`
	CustomerID      string      `json:"customerId,omitempty"`
	Items           []OrderItem `json:"items"`
	Pricing         Pricing     `json:"pricing"`
	Status          OrderStatus `json:"status"`
	ShippingAddress Address     `json:"shippingAddress"`
	BillingAddress  Address     `json:"billingAddress"`
	Payment         Payment     `json:"payment"`
	Tracking        *Tracking   `json:"tracking,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}
