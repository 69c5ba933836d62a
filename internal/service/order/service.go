package order

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/pricing"
	cartrepo "storefront/internal/repository/cart"
	catalogrepo "storefront/internal/repository/catalog"
	orderrepo "storefront/internal/repository/order"

	"github.com/shopspring/decimal"
)

// Service owns the order lifecycle: it creates immutable order snapshots
// from carts, coordinates stock reservation with the catalog, and drives the
// status state machine.
type Service struct {
	orders  ordersRepo
	carts   cartsRepo
	catalog catalogRepo

	policy       pricing.Policy
	coupons      map[string]pricing.Discount
	reserveFor   time.Duration
	returnWindow time.Duration
	logger       *log.Logger
}

type ordersRepo interface {
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) error
	SetPayment(ctx context.Context, id string, p domain.Payment) error
	SetTracking(ctx context.Context, id string, t domain.Tracking) error
	ListPendingBefore(ctx context.Context, cutoff time.Time) ([]domain.Order, error)
}

type cartsRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Cart, error)
	SetState(ctx context.Context, id, state string) error
}

type catalogRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	ReserveStock(ctx context.Context, id string, qty int) error
	ReleaseStock(ctx context.Context, id string, qty int) error
}

// Config carries the policy inputs for the lifecycle.
type Config struct {
	Policy pricing.Policy
	// Coupons maps coupon codes to the discount they resolve to.
	Coupons map[string]pricing.Discount
	// ReservationTimeout bounds how long a pending order may hold stock
	// before ExpirePendingOrders cancels it.
	ReservationTimeout time.Duration
	// ReturnWindow bounds delivered -> returned; zero disables the check.
	ReturnWindow time.Duration
}

func New(orders orderrepo.Repository, carts cartrepo.Repository, catalog catalogrepo.Repository, cfg Config, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		orders:       orders,
		carts:        carts,
		catalog:      catalog,
		policy:       cfg.Policy,
		coupons:      cfg.Coupons,
		reserveFor:   cfg.ReservationTimeout,
		returnWindow: cfg.ReturnWindow,
		logger:       logger,
	}
}

type CheckoutInput struct {
	CartID          string           `json:"cartId"`
	CustomerID      string           `json:"customerId,omitempty"`
	ShippingAddress domain.Address   `json:"shippingAddress"`
	BillingAddress  domain.Address   `json:"billingAddress"`
	PaymentMethod   string           `json:"paymentMethod"`
	CouponCode      string           `json:"couponCode,omitempty"`
	// ClientTotal is the total the client displayed. The server-computed
	// total always wins; a mismatch rejects the checkout.
	ClientTotal *decimal.Decimal `json:"clientTotal,omitempty"`
}

type reservation struct {
	productID string
	qty       int
}

// Checkout creates a pending order from a cart. Stock is reserved for every
// item before the order exists; if any reservation fails, the ones already
// made are released and no order is created.
func (s *Service) Checkout(ctx context.Context, in CheckoutInput) (*domain.Order, error) {
	if strings.TrimSpace(in.PaymentMethod) == "" {
		return nil, &domain.ValidationError{Field: "paymentMethod", Reason: "required"}
	}
	if err := in.ShippingAddress.Validate("shippingAddress"); err != nil {
		return nil, err
	}
	if err := in.BillingAddress.Validate("billingAddress"); err != nil {
		return nil, err
	}

	discount := pricing.Discount{}
	if code := strings.TrimSpace(in.CouponCode); code != "" {
		d, ok := s.coupons[code]
		if !ok {
			return nil, &domain.ValidationError{Field: "couponCode", Reason: "unknown code"}
		}
		discount = d
	}

	cart, err := s.carts.GetByID(ctx, in.CartID)
	if err != nil {
		return nil, err
	}
	if cart.State != domain.CartStateActive {
		return nil, &domain.ValidationError{Field: "cart", Reason: "not active"}
	}
	if len(cart.Items) == 0 {
		return nil, &domain.ValidationError{Field: "cart", Reason: "empty"}
	}

	// Snapshot the referenced products first so validation failures cost
	// nothing, then reserve.
	products := make(map[string]*domain.Product, len(cart.Items))
	for _, line := range cart.Items {
		p, err := s.catalog.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", line.ProductID, err)
		}
		if !p.IsActive {
			return nil, &domain.ValidationError{Field: "cart", Reason: fmt.Sprintf("product %s is no longer available", p.SKU)}
		}
		if p.Price.Currency != cart.Currency {
			return nil, &domain.ValidationError{Field: "currency", Reason: "product currency does not match cart"}
		}
		products[line.ProductID] = p
	}

	var reserved []reservation
	for _, line := range cart.Items {
		if err := s.catalog.ReserveStock(ctx, line.ProductID, line.Quantity); err != nil {
			s.releaseAll(ctx, reserved)
			return nil, fmt.Errorf("reserve %s: %w", line.ProductID, err)
		}
		reserved = append(reserved, reservation{productID: line.ProductID, qty: line.Quantity})
	}

	items := make([]domain.OrderItem, 0, len(cart.Items))
	priced := make([]pricing.Item, 0, len(cart.Items))
	for _, line := range cart.Items {
		p := products[line.ProductID]
		items = append(items, domain.OrderItem{
			ProductID: p.ID,
			SKU:       p.SKU,
			Name:      p.Name,
			UnitPrice: p.Price.Current,
			Quantity:  line.Quantity,
			Variant:   line.Variant,
		})
		priced = append(priced, pricing.Item{
			UnitPrice:    p.Price.Current,
			Quantity:     line.Quantity,
			FreeShipping: p.FreeShipping,
		})
	}

	totals, err := pricing.Compute(priced, s.policy.TaxRate, s.policy.Shipping, discount, cart.Currency)
	if err != nil {
		s.releaseAll(ctx, reserved)
		return nil, err
	}
	if in.ClientTotal != nil && !in.ClientTotal.Equal(totals.Total) {
		s.releaseAll(ctx, reserved)
		return nil, fmt.Errorf("client total %s vs computed %s: %w", in.ClientTotal, totals.Total, domain.ErrPricingMismatch)
	}

	order, err := s.orders.Create(ctx, domain.Order{
		CustomerID:      in.CustomerID,
		Items:           items,
		Pricing:         totals,
		Status:          domain.OrderPending,
		ShippingAddress: in.ShippingAddress,
		BillingAddress:  in.BillingAddress,
		Payment: domain.Payment{
			Method: in.PaymentMethod,
			Status: domain.PaymentPending,
		},
	})
	if err != nil {
		s.releaseAll(ctx, reserved)
		return nil, err
	}

	if err := s.carts.SetState(ctx, cart.ID, domain.CartStateOrdered); err != nil {
		s.logger.Printf("order service: mark cart %s ordered: %v", cart.ID, err)
	}
	s.logger.Printf("order service: created order=%s items=%d total=%s", order.ID, len(order.Items), order.Pricing.Total)
	return order, nil
}

func (s *Service) releaseAll(ctx context.Context, reserved []reservation) {
	for _, r := range reserved {
		if err := s.catalog.ReleaseStock(ctx, r.productID, r.qty); err != nil {
			s.logger.Printf("order service: compensating release product=%s qty=%d: %v", r.productID, r.qty, err)
		}
	}
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	return s.orders.GetByID(ctx, id)
}

func (s *Service) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	return s.orders.ListByCustomer(ctx, customerID)
}

// Transition advances the order state machine. The repository update is a
// compare-and-swap on the current status, so two racing transitions cannot
// both apply.
func (s *Service) Transition(ctx context.Context, id string, to domain.OrderStatus, tracking *domain.Tracking) (*domain.Order, error) {
	if !domain.ValidOrderStatus(to) {
		return nil, &domain.ValidationError{Field: "status", Reason: "unknown status"}
	}
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if to == domain.OrderCancelled && order.Status == domain.OrderCancelled {
		// Idempotent: racing a manual cancel against the expiry reaper must
		// not fail.
		return order, nil
	}
	if !order.Status.CanTransitionTo(to) {
		return nil, fmt.Errorf("%s -> %s: %w", order.Status, to, domain.ErrInvalidTransition)
	}
	if to == domain.OrderReturned && s.returnWindow > 0 && time.Since(order.UpdatedAt) > s.returnWindow {
		return nil, fmt.Errorf("return window elapsed: %w", domain.ErrInvalidTransition)
	}

	from := order.Status
	if err := s.orders.UpdateStatus(ctx, id, from, to); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) && to == domain.OrderCancelled {
			// Lost the race; if the winner also cancelled, this is a no-op.
			current, getErr := s.orders.GetByID(ctx, id)
			if getErr == nil && current.Status == domain.OrderCancelled {
				return current, nil
			}
		}
		return nil, err
	}

	switch to {
	case domain.OrderCancelled:
		if from.ReleasesStock() {
			for _, item := range order.Items {
				if err := s.catalog.ReleaseStock(ctx, item.ProductID, item.Quantity); err != nil {
					s.logger.Printf("order service: release on cancel order=%s product=%s: %v", id, item.ProductID, err)
				}
			}
		}
	case domain.OrderShipped:
		if tracking != nil {
			if err := s.orders.SetTracking(ctx, id, *tracking); err != nil {
				return nil, err
			}
		}
	case domain.OrderReturned:
		// Stock is not restored automatically; restocking is a manual admin
		// adjustment. The refund itself is the payment collaborator's job.
		payment := order.Payment
		payment.Status = domain.PaymentRefundPending
		if err := s.orders.SetPayment(ctx, id, payment); err != nil {
			return nil, err
		}
	}

	return s.orders.GetByID(ctx, id)
}

// Cancel is the customer-facing cancellation; it is idempotent.
func (s *Service) Cancel(ctx context.Context, id string) (*domain.Order, error) {
	return s.Transition(ctx, id, domain.OrderCancelled, nil)
}

type PaymentResult struct {
	Status        string `json:"status"`
	TransactionID string `json:"transactionId,omitempty"`
}

// RecordPayment applies the payment collaborator's result to a pending
// order: success confirms it, failure cancels it and releases stock.
func (s *Service) RecordPayment(ctx context.Context, id string, res PaymentResult) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderPending {
		return nil, fmt.Errorf("payment on %s order: %w", order.Status, domain.ErrInvalidTransition)
	}

	switch res.Status {
	case string(domain.PaymentSucceeded):
		if strings.TrimSpace(res.TransactionID) == "" {
			return nil, &domain.ValidationError{Field: "transactionId", Reason: "required for succeeded payments"}
		}
		payment := order.Payment
		payment.Status = domain.PaymentSucceeded
		payment.TransactionID = res.TransactionID
		if err := s.orders.SetPayment(ctx, id, payment); err != nil {
			return nil, err
		}
		return s.Transition(ctx, id, domain.OrderConfirmed, nil)
	case string(domain.PaymentFailed):
		payment := order.Payment
		payment.Status = domain.PaymentFailed
		if err := s.orders.SetPayment(ctx, id, payment); err != nil {
			return nil, err
		}
		return s.Cancel(ctx, id)
	default:
		return nil, &domain.ValidationError{Field: "status", Reason: "must be succeeded or failed"}
	}
}

// ExpirePendingOrders cancels pending orders whose stock reservation has
// been held past the configured timeout. It returns how many were cancelled.
func (s *Service) ExpirePendingOrders(ctx context.Context) (int, error) {
	if s.reserveFor <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().Add(-s.reserveFor)
	stale, err := s.orders.ListPendingBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	cancelled := 0
	for _, o := range stale {
		if _, err := s.Cancel(ctx, o.ID); err != nil {
			s.logger.Printf("order service: expire order=%s: %v", o.ID, err)
			continue
		}
		cancelled++
	}
	if cancelled > 0 {
		s.logger.Printf("order service: expired %d pending orders", cancelled)
	}
	return cancelled, nil
}
