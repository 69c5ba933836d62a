package cart

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/pricing"
	cartrepo "storefront/internal/repository/cart"
	catalogrepo "storefront/internal/repository/catalog"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestService(t *testing.T) (*Service, catalogrepo.Repository) {
	t.Helper()
	catalog := catalogrepo.NewMemory()
	policy := pricing.Policy{
		TaxRate:  dec("0.08"),
		Shipping: pricing.ShippingRule{FlatRate: dec("5.99"), FreeOverSubtotal: dec("100")},
	}
	return New(cartrepo.NewMemory(), catalog, policy), catalog
}

func seedProduct(t *testing.T, catalog catalogrepo.Repository, sku, price, currency string, active bool) *domain.Product {
	t.Helper()
	p, err := catalog.Create(context.Background(), domain.Product{
		SKU:  sku,
		Name: "Product " + sku,
		Price: domain.Price{
			Original: dec(price),
			Current:  dec(price),
			Currency: currency,
		},
		Inventory: domain.Inventory{Stock: 100, LowStockThreshold: 5},
		IsActive:  active,
	})
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

func TestCreateRequiresCurrency(t *testing.T) {
	svc, _ := newTestService(t)
	var verr *domain.ValidationError
	if _, err := svc.Create(context.Background(), CreateInput{}); !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}

	cart, err := svc.Create(context.Background(), CreateInput{Currency: " usd "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if cart.Currency != "USD" {
		t.Fatalf("currency = %q, want USD", cart.Currency)
	}
	if cart.State != domain.CartStateActive {
		t.Fatalf("state = %q, want active", cart.State)
	}
}

func TestUpdateActions(t *testing.T) {
	svc, catalog := newTestService(t)
	seedProduct(t, catalog, "SKU-A", "10", "USD", true)
	cart, err := svc.Create(context.Background(), CreateInput{Currency: "USD"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.Update(context.Background(), cart.ID, UpdateInput{Actions: []UpdateAction{
		{Action: "addLineItem", SKU: "SKU-A", Quantity: 2},
	}})
	if err != nil {
		t.Fatalf("add line item: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].Quantity != 2 {
		t.Fatalf("items = %+v", got.Items)
	}

	// Adding the same sku+variant merges quantities.
	got, err = svc.Update(context.Background(), cart.ID, UpdateInput{Actions: []UpdateAction{
		{Action: "addLineItem", SKU: "SKU-A", Quantity: 3},
	}})
	if err != nil {
		t.Fatalf("merge line item: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].Quantity != 5 {
		t.Fatalf("after merge items = %+v", got.Items)
	}

	// A different variant is a separate line.
	got, err = svc.Update(context.Background(), cart.ID, UpdateInput{Actions: []UpdateAction{
		{Action: "addLineItem", SKU: "SKU-A", Quantity: 1, Variant: "red"},
	}})
	if err != nil {
		t.Fatalf("add variant line: %v", err)
	}
	if len(got.Items) != 2 {
		t.Fatalf("variant should be its own line, items = %+v", got.Items)
	}

	lineID := got.Items[0].ID
	got, err = svc.Update(context.Background(), cart.ID, UpdateInput{Actions: []UpdateAction{
		{Action: "changeLineItemQuantity", LineItemID: lineID, Quantity: 1},
		{Action: "removeLineItem", LineItemID: got.Items[1].ID},
	}})
	if err != nil {
		t.Fatalf("change+remove: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].Quantity != 1 {
		t.Fatalf("after change+remove items = %+v", got.Items)
	}
}

func TestUpdateRejectsBadActions(t *testing.T) {
	svc, catalog := newTestService(t)
	seedProduct(t, catalog, "SKU-A", "10", "USD", true)
	cart, err := svc.Create(context.Background(), CreateInput{Currency: "USD"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	cases := []struct {
		name   string
		action UpdateAction
	}{
		{"unknown action", UpdateAction{Action: "explode"}},
		{"missing sku", UpdateAction{Action: "addLineItem", Quantity: 1}},
		{"zero quantity", UpdateAction{Action: "addLineItem", SKU: "SKU-A"}},
		{"change without id", UpdateAction{Action: "changeLineItemQuantity", Quantity: 2}},
		{"remove without id", UpdateAction{Action: "removeLineItem"}},
	}
	for _, tc := range cases {
		var verr *domain.ValidationError
		_, err := svc.Update(context.Background(), cart.ID, UpdateInput{Actions: []UpdateAction{tc.action}})
		if !errors.As(err, &verr) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}

	if _, err := svc.Update(context.Background(), cart.ID, UpdateInput{Actions: []UpdateAction{
		{Action: "addLineItem", SKU: "SKU-MISSING", Quantity: 1},
	}}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for unknown sku, got %v", err)
	}
}

func TestUpdateRejectsInactiveProduct(t *testing.T) {
	svc, catalog := newTestService(t)
	seedProduct(t, catalog, "SKU-GONE", "10", "USD", false)
	cart, err := svc.Create(context.Background(), CreateInput{Currency: "USD"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var verr *domain.ValidationError
	_, err = svc.Update(context.Background(), cart.ID, UpdateInput{Actions: []UpdateAction{
		{Action: "addLineItem", SKU: "SKU-GONE", Quantity: 1},
	}})
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateRejectsCurrencyMismatch(t *testing.T) {
	svc, catalog := newTestService(t)
	seedProduct(t, catalog, "SKU-EUR", "10", "EUR", true)
	cart, err := svc.Create(context.Background(), CreateInput{Currency: "USD"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var verr *domain.ValidationError
	_, err = svc.Update(context.Background(), cart.ID, UpdateInput{Actions: []UpdateAction{
		{Action: "addLineItem", SKU: "SKU-EUR", Quantity: 1},
	}})
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if verr.Field != "currency" {
		t.Fatalf("field = %q, want currency", verr.Field)
	}
}

func TestUpdateRejectsNonActiveCart(t *testing.T) {
	svc, catalog := newTestService(t)
	repo := cartrepo.NewMemory()
	svc = New(repo, catalog, pricing.Policy{TaxRate: dec("0.08"), Shipping: pricing.ShippingRule{FlatRate: dec("5.99"), FreeOverSubtotal: dec("100")}})
	seedProduct(t, catalog, "SKU-A", "10", "USD", true)

	cart, err := repo.Create(context.Background(), cartrepo.CreateCartInput{Currency: "USD"})
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}
	if err := repo.SetState(context.Background(), cart.ID, domain.CartStateOrdered); err != nil {
		t.Fatalf("set state: %v", err)
	}

	var verr *domain.ValidationError
	_, err = svc.Update(context.Background(), cart.ID, UpdateInput{Actions: []UpdateAction{
		{Action: "addLineItem", SKU: "SKU-A", Quantity: 1},
	}})
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTotals(t *testing.T) {
	svc, catalog := newTestService(t)
	seedProduct(t, catalog, "SKU-A", "100", "USD", true)
	seedProduct(t, catalog, "SKU-B", "50", "USD", true)
	cart, err := svc.Create(context.Background(), CreateInput{Currency: "USD"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Update(context.Background(), cart.ID, UpdateInput{Actions: []UpdateAction{
		{Action: "addLineItem", SKU: "SKU-A", Quantity: 2},
		{Action: "addLineItem", SKU: "SKU-B", Quantity: 1},
	}}); err != nil {
		t.Fatalf("update: %v", err)
	}

	totals, err := svc.Totals(context.Background(), cart.ID, pricing.Discount{})
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if totals.Subtotal.StringFixed(2) != "250.00" {
		t.Fatalf("subtotal = %s, want 250.00", totals.Subtotal)
	}
	if totals.Tax.StringFixed(2) != "20.00" {
		t.Fatalf("tax = %s, want 20.00", totals.Tax)
	}
	if !totals.Shipping.IsZero() {
		t.Fatalf("shipping = %s, want 0", totals.Shipping)
	}
	if totals.Total.StringFixed(2) != "270.00" {
		t.Fatalf("total = %s, want 270.00", totals.Total)
	}
}

func TestTotalsUsesLivePrices(t *testing.T) {
	svc, catalog := newTestService(t)
	p := seedProduct(t, catalog, "SKU-A", "100", "USD", true)
	cart, err := svc.Create(context.Background(), CreateInput{Currency: "USD"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Update(context.Background(), cart.ID, UpdateInput{Actions: []UpdateAction{
		{Action: "addLineItem", SKU: "SKU-A", Quantity: 1},
	}}); err != nil {
		t.Fatalf("update: %v", err)
	}

	before, err := svc.Totals(context.Background(), cart.ID, pricing.Discount{})
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if before.Subtotal.StringFixed(2) != "100.00" {
		t.Fatalf("subtotal = %s, want 100.00", before.Subtotal)
	}

	p.Price.Current = dec("80")
	if _, err := catalog.Update(context.Background(), *p); err != nil {
		t.Fatalf("reprice product: %v", err)
	}

	after, err := svc.Totals(context.Background(), cart.ID, pricing.Discount{})
	if err != nil {
		t.Fatalf("totals after reprice: %v", err)
	}
	if after.Subtotal.StringFixed(2) != "80.00" {
		t.Fatalf("subtotal = %s after reprice, want 80.00", after.Subtotal)
	}
}
