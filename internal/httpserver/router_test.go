package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	"storefront/internal/pricing"
	cartrepo "storefront/internal/repository/cart"
	catalogrepo "storefront/internal/repository/catalog"
	orderrepo "storefront/internal/repository/order"
	cartsvc "storefront/internal/service/cart"
	catalogsvc "storefront/internal/service/catalog"
	ordersvc "storefront/internal/service/order"
	ratingsvc "storefront/internal/service/rating"

	"github.com/shopspring/decimal"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	catalogRepo := catalogrepo.NewMemory()
	cartRepo := cartrepo.NewMemory()
	orderRepo := orderrepo.NewMemory()
	policy := pricing.Policy{
		TaxRate: decimal.RequireFromString("0.08"),
		Shipping: pricing.ShippingRule{
			FlatRate:         decimal.RequireFromString("5.99"),
			FreeOverSubtotal: decimal.RequireFromString("100"),
		},
	}
	logger := log.New(io.Discard, "", 0)

	router, err := buildRouter(logger, nil, Deps{
		Catalog: catalogsvc.New(catalogRepo),
		Ratings: ratingsvc.New(catalogRepo),
		Carts:   cartsvc.New(cartRepo, catalogRepo, policy),
		Orders: ordersvc.New(orderRepo, cartRepo, catalogRepo, ordersvc.Config{
			Policy: policy,
		}, logger),
	})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

var adminHeader = map[string]string{"X-Admin-User": "admin-1"}

func createProduct(t *testing.T, router *gin.Engine, sku, price string, stock int) domain.Product {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/admin/products", map[string]any{
		"sku":  sku,
		"name": "Product " + sku,
		"price": map[string]any{
			"original": price,
			"current":  price,
			"currency": "USD",
		},
		"inventory": map[string]any{"stock": stock, "lowStockThreshold": 2},
		"isActive":  true,
	}, adminHeader)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create product: status %d body %s", rec.Code, rec.Body.String())
	}
	var p domain.Product
	decode(t, rec, &p)
	return p
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t)
	if rec := doJSON(t, router, http.MethodGet, "/healthz", nil, nil); rec.Code != http.StatusOK {
		t.Fatalf("healthz: status %d", rec.Code)
	}
	// No database configured means nothing to wait for.
	if rec := doJSON(t, router, http.MethodGet, "/readyz", nil, nil); rec.Code != http.StatusOK {
		t.Fatalf("readyz: status %d", rec.Code)
	}
}

func TestAdminRequiresHeader(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/admin/products", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	rec = doJSON(t, router, http.MethodGet, "/admin/products", nil, adminHeader)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestStorefrontListsOnlyActiveProducts(t *testing.T) {
	router := newTestRouter(t)
	active := createProduct(t, router, "SKU-LIVE", "10.00", 5)
	hidden := createProduct(t, router, "SKU-HIDDEN", "10.00", 5)

	rec := doJSON(t, router, http.MethodDelete, "/admin/products/"+hidden.ID, nil, adminHeader)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("deactivate: status %d", rec.Code)
	}

	var list struct {
		Results []domain.Product `json:"results"`
		Total   int              `json:"total"`
	}
	rec = doJSON(t, router, http.MethodGet, "/products", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status %d", rec.Code)
	}
	decode(t, rec, &list)
	if list.Total != 1 || list.Results[0].ID != active.ID {
		t.Fatalf("storefront list = %+v", list)
	}

	rec = doJSON(t, router, http.MethodGet, "/admin/products", nil, adminHeader)
	decode(t, rec, &list)
	if list.Total != 2 {
		t.Fatalf("admin list total = %d, want 2", list.Total)
	}
}

func TestReviewEndpoint(t *testing.T) {
	router := newTestRouter(t)
	p := createProduct(t, router, "SKU-A", "10.00", 5)

	rec := doJSON(t, router, http.MethodPost, "/products/"+p.ID+"/reviews", map[string]any{"stars": 5}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("review: status %d body %s", rec.Code, rec.Body.String())
	}
	var ratings domain.Ratings
	decode(t, rec, &ratings)
	if ratings.Count != 1 || ratings.Average != 5.0 {
		t.Fatalf("ratings = %+v", ratings)
	}

	rec = doJSON(t, router, http.MethodPost, "/products/"+p.ID+"/reviews", map[string]any{"stars": 9}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("out-of-range stars: status %d, want 400", rec.Code)
	}
}

func TestCheckoutFlow(t *testing.T) {
	router := newTestRouter(t)
	p := createProduct(t, router, "SKU-A", "100.00", 10)

	rec := doJSON(t, router, http.MethodPost, "/carts", map[string]any{"currency": "USD"}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create cart: status %d", rec.Code)
	}
	var cart domain.Cart
	decode(t, rec, &cart)

	rec = doJSON(t, router, http.MethodPost, "/carts/"+cart.ID, map[string]any{
		"actions": []map[string]any{
			{"action": "addLineItem", "sku": "SKU-A", "quantity": 2},
		},
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("update cart: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/carts/"+cart.ID+"/totals", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("totals: status %d", rec.Code)
	}
	var totals domain.Pricing
	decode(t, rec, &totals)
	if totals.Total.StringFixed(2) != "216.00" {
		t.Fatalf("total = %s, want 216.00", totals.Total)
	}

	address := map[string]any{
		"firstName": "Ada", "lastName": "Lovelace",
		"street": "12 Analytical Way", "city": "London",
		"state": "LDN", "zipCode": "E1 6AN", "country": "GB",
	}
	rec = doJSON(t, router, http.MethodPost, "/carts/"+cart.ID+"/checkout", map[string]any{
		"customerId":      "cust-1",
		"shippingAddress": address,
		"billingAddress":  address,
		"paymentMethod":   "card",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("checkout: status %d body %s", rec.Code, rec.Body.String())
	}
	var order domain.Order
	decode(t, rec, &order)
	if order.Status != domain.OrderPending {
		t.Fatalf("order status = %s, want pending", order.Status)
	}

	// Stock was reserved.
	rec = doJSON(t, router, http.MethodGet, "/products/"+p.ID, nil, nil)
	var after domain.Product
	decode(t, rec, &after)
	if after.Inventory.Stock != 8 {
		t.Fatalf("stock = %d, want 8", after.Inventory.Stock)
	}

	// A second checkout on the same cart fails: the cart is no longer active.
	rec = doJSON(t, router, http.MethodPost, "/carts/"+cart.ID+"/checkout", map[string]any{
		"shippingAddress": address,
		"billingAddress":  address,
		"paymentMethod":   "card",
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("repeat checkout: status %d, want 400", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/orders/"+order.ID+"/payment", map[string]any{
		"status":        "succeeded",
		"transactionId": "tx-1",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("payment: status %d body %s", rec.Code, rec.Body.String())
	}
	decode(t, rec, &order)
	if order.Status != domain.OrderConfirmed {
		t.Fatalf("order status = %s, want confirmed", order.Status)
	}

	for _, status := range []string{"processing", "shipped"} {
		body := map[string]any{"status": status}
		if status == "shipped" {
			body["tracking"] = map[string]any{"carrier": "UPS", "trackingNumber": "1Z999"}
		}
		rec = doJSON(t, router, http.MethodPost, "/admin/orders/"+order.ID+"/status", body, adminHeader)
		if rec.Code != http.StatusOK {
			t.Fatalf("transition to %s: status %d body %s", status, rec.Code, rec.Body.String())
		}
	}
	decode(t, rec, &order)
	if order.Tracking == nil || order.Tracking.TrackingNumber != "1Z999" {
		t.Fatalf("tracking = %+v", order.Tracking)
	}

	// Cancelling a shipped order is an invalid transition.
	rec = doJSON(t, router, http.MethodPost, "/orders/"+order.ID+"/cancel", nil, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("cancel shipped: status %d, want 409", rec.Code)
	}

	var orderList struct {
		Results []domain.Order `json:"results"`
		Total   int            `json:"total"`
	}
	rec = doJSON(t, router, http.MethodGet, "/orders?customerId=cust-1", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list orders: status %d", rec.Code)
	}
	decode(t, rec, &orderList)
	if orderList.Total != 1 || orderList.Results[0].ID != order.ID {
		t.Fatalf("order list = %+v", orderList)
	}

	rec = doJSON(t, router, http.MethodGet, "/orders", nil, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("list orders without customerId: status %d, want 400", rec.Code)
	}
}

func TestCheckoutInsufficientStockConflict(t *testing.T) {
	router := newTestRouter(t)
	createProduct(t, router, "SKU-A", "10.00", 1)

	rec := doJSON(t, router, http.MethodPost, "/carts", map[string]any{"currency": "USD"}, nil)
	var cart domain.Cart
	decode(t, rec, &cart)

	rec = doJSON(t, router, http.MethodPost, "/carts/"+cart.ID, map[string]any{
		"actions": []map[string]any{
			{"action": "addLineItem", "sku": "SKU-A", "quantity": 3},
		},
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("update cart: status %d", rec.Code)
	}

	address := map[string]any{
		"firstName": "Ada", "lastName": "Lovelace",
		"street": "12 Analytical Way", "city": "London",
		"state": "LDN", "zipCode": "E1 6AN", "country": "GB",
	}
	rec = doJSON(t, router, http.MethodPost, "/carts/"+cart.ID+"/checkout", map[string]any{
		"shippingAddress": address,
		"billingAddress":  address,
		"paymentMethod":   "card",
	}, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("checkout: status %d, want 409 (body %s)", rec.Code, rec.Body.String())
	}
}

func TestNotFoundMapping(t *testing.T) {
	router := newTestRouter(t)
	for _, path := range []string{
		"/products/missing",
		"/carts/missing",
		"/orders/missing",
	} {
		rec := doJSON(t, router, http.MethodGet, path, nil, nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: status %d, want 404", path, rec.Code)
		}
	}
}

func TestAdminUpdateAndStock(t *testing.T) {
	router := newTestRouter(t)
	p := createProduct(t, router, "SKU-A", "20.00", 10)

	rec := doJSON(t, router, http.MethodPut, fmt.Sprintf("/admin/products/%s", p.ID), map[string]any{
		"name": "Renamed",
		"price": map[string]any{
			"original": "20.00",
			"current":  "15.00",
			"currency": "USD",
		},
		"inventory": map[string]any{"stock": 10, "lowStockThreshold": 2},
		"isActive":  true,
	}, adminHeader)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d body %s", rec.Code, rec.Body.String())
	}
	var got domain.Product
	decode(t, rec, &got)
	if got.Name != "Renamed" || got.SKU != "SKU-A" {
		t.Fatalf("got name=%s sku=%s", got.Name, got.SKU)
	}
	if got.Price.Current.StringFixed(2) != "15.00" {
		t.Fatalf("current price = %s", got.Price.Current)
	}

	rec = doJSON(t, router, http.MethodPut, "/admin/products/"+p.ID+"/stock", map[string]any{"stock": 1}, adminHeader)
	if rec.Code != http.StatusOK {
		t.Fatalf("set stock: status %d", rec.Code)
	}
	decode(t, rec, &got)
	if got.Inventory.Stock != 1 || got.Inventory.Status != domain.InventoryLowStock {
		t.Fatalf("inventory = %+v", got.Inventory)
	}
}
