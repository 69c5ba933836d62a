package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/pricing"
	cartrepo "storefront/internal/repository/cart"
	catalogrepo "storefront/internal/repository/catalog"
)

type Service struct {
	repo     cartRepo
	products productRepo
	policy   pricing.Policy
}

type cartRepo interface {
	Create(ctx context.Context, in cartrepo.CreateCartInput) (*domain.Cart, error)
	GetByID(ctx context.Context, id string) (*domain.Cart, error)
	AddItem(ctx context.Context, cartID, productID string, quantity int, variant string) error
	SetItemQuantity(ctx context.Context, cartID, itemID string, quantity int) error
	RemoveItem(ctx context.Context, cartID, itemID string) error
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetBySKU(ctx context.Context, sku string) (*domain.Product, error)
}

func New(repo cartrepo.Repository, products catalogrepo.Repository, policy pricing.Policy) *Service {
	return &Service{repo: repo, products: products, policy: policy}
}

type CreateInput struct {
	CustomerID *string `json:"customerId,omitempty"`
	Currency   string  `json:"currency"`
}

type UpdateInput struct {
	Actions []UpdateAction `json:"actions"`
}

type UpdateAction struct {
	Action     string `json:"action"`
	SKU        string `json:"sku,omitempty"`
	LineItemID string `json:"lineItemId,omitempty"`
	Quantity   int    `json:"quantity,omitempty"`
	Variant    string `json:"variant,omitempty"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Cart, error) {
	if strings.TrimSpace(in.Currency) == "" {
		return nil, &domain.ValidationError{Field: "currency", Reason: "required"}
	}
	return s.repo.Create(ctx, cartrepo.CreateCartInput{
		CustomerID: in.CustomerID,
		Currency:   strings.ToUpper(strings.TrimSpace(in.Currency)),
	})
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Cart, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, cartID string, in UpdateInput) (*domain.Cart, error) {
	if len(in.Actions) == 0 {
		return nil, &domain.ValidationError{Field: "actions", Reason: "required"}
	}
	cart, err := s.repo.GetByID(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if cart.State != domain.CartStateActive {
		return nil, &domain.ValidationError{Field: "cart", Reason: "not active"}
	}

	for _, action := range in.Actions {
		switch strings.ToLower(strings.TrimSpace(action.Action)) {
		case "addlineitem":
			if err := s.addLineItem(ctx, cart, action); err != nil {
				return nil, err
			}
		case "changelineitemquantity":
			if strings.TrimSpace(action.LineItemID) == "" {
				return nil, &domain.ValidationError{Field: "lineItemId", Reason: "required"}
			}
			if action.Quantity < 1 {
				return nil, &domain.ValidationError{Field: "quantity", Reason: "must be at least 1"}
			}
			if err := s.repo.SetItemQuantity(ctx, cartID, action.LineItemID, action.Quantity); err != nil {
				return nil, err
			}
		case "removelineitem":
			if strings.TrimSpace(action.LineItemID) == "" {
				return nil, &domain.ValidationError{Field: "lineItemId", Reason: "required"}
			}
			if err := s.repo.RemoveItem(ctx, cartID, action.LineItemID); err != nil {
				return nil, err
			}
		default:
			return nil, &domain.ValidationError{Field: "action", Reason: "unsupported"}
		}
	}

	return s.repo.GetByID(ctx, cartID)
}

func (s *Service) addLineItem(ctx context.Context, cart *domain.Cart, action UpdateAction) error {
	sku := strings.TrimSpace(action.SKU)
	if sku == "" {
		return &domain.ValidationError{Field: "sku", Reason: "required"}
	}
	if action.Quantity < 1 {
		return &domain.ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}
	product, err := s.products.GetBySKU(ctx, sku)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("product %s: %w", sku, domain.ErrNotFound)
		}
		return err
	}
	if !product.IsActive {
		return &domain.ValidationError{Field: "sku", Reason: "product is not available"}
	}
	if product.Price.Currency != cart.Currency {
		return &domain.ValidationError{Field: "currency", Reason: "product currency does not match cart"}
	}
	return s.repo.AddItem(ctx, cart.ID, product.ID, action.Quantity, action.Variant)
}

// Totals resolves live product prices for every line and runs the pricing
// engine. Nothing is cached: a price change on the product is visible in the
// next call.
func (s *Service) Totals(ctx context.Context, cartID string, discount pricing.Discount) (*domain.Pricing, error) {
	cart, err := s.repo.GetByID(ctx, cartID)
	if err != nil {
		return nil, err
	}
	items, err := s.priceItems(ctx, cart)
	if err != nil {
		return nil, err
	}
	p, err := pricing.Compute(items, s.policy.TaxRate, s.policy.Shipping, discount, cart.Currency)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Service) priceItems(ctx context.Context, cart *domain.Cart) ([]pricing.Item, error) {
	items := make([]pricing.Item, 0, len(cart.Items))
	for _, line := range cart.Items {
		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("product %s: %w", line.ProductID, domain.ErrNotFound)
			}
			return nil, err
		}
		if product.Price.Currency != cart.Currency {
			return nil, &domain.ValidationError{Field: "currency", Reason: "product currency does not match cart"}
		}
		items = append(items, pricing.Item{
			UnitPrice:    product.Price.Current,
			Quantity:     line.Quantity,
			FreeShipping: product.FreeShipping,
		})
	}
	return items, nil
}
