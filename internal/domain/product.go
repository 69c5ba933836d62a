package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

type InventoryStatus string

const (
	InventoryInStock      InventoryStatus = "in_stock"
	InventoryLowStock     InventoryStatus = "low_stock"
	InventoryOutOfStock   InventoryStatus = "out_of_stock"
	InventoryDiscontinued InventoryStatus = "discontinued"
)

// Price carries the original and current amount in an ISO 4217 currency.
type Price struct {
	Original decimal.Decimal `json:"original"`
	Current  decimal.Decimal `json:"current"`
	Currency string          `json:"currency"`
}

type Inventory struct {
	Stock             int             `json:"stock"`
	LowStockThreshold int             `json:"lowStockThreshold"`
	Status            InventoryStatus `json:"status"`
}

// DerivedStatus computes the status implied by the current stock level.
// Discontinued is an explicit override and is never derived away.
func (inv Inventory) DerivedStatus() InventoryStatus {
	if inv.Status == InventoryDiscontinued {
		return InventoryDiscontinued
	}
	switch {
	case inv.Stock == 0:
		return InventoryOutOfStock
	case inv.Stock <= inv.LowStockThreshold:
		return InventoryLowStock
	default:
		return InventoryInStock
	}
}

type Ratings struct {
	Average      float64     `json:"average"`
	Count        int         `json:"count"`
	Distribution map[int]int `json:"distribution"`
}

// Add records one review and recomputes the average from the distribution.
// The distribution is the authoritative form: unlike an incremental
// accumulator it cannot drift across many updates.
func (r Ratings) Add(stars int) Ratings {
	dist := make(map[int]int, len(r.Distribution)+1)
	for k, v := range r.Distribution {
		dist[k] = v
	}
	dist[stars]++
	out := Ratings{Count: r.Count + 1, Distribution: dist}
	out.Average = averageOf(dist, out.Count)
	return out
}

func averageOf(dist map[int]int, count int) float64 {
	if count == 0 {
		return 0
	}
	sum := 0
	for star, n := range dist {
		sum += star * n
	}
	return math.Round(float64(sum)/float64(count)*10) / 10
}

type Image struct {
	URL       string `json:"url"`
	Alt       string `json:"alt,omitempty"`
	IsPrimary bool   `json:"isPrimary"`
}

type Variant struct {
	Name    string   `json:"name"`
	Options []string `json:"options,omitempty"`
}

type Product struct {
	ID             string            `json:"id"`
	SKU            string            `json:"sku"`
	Name           string            `json:"name"`
	Description    string            `json:"description,omitempty"`
	Price          Price             `json:"price"`
	Inventory      Inventory         `json:"inventory"`
	Ratings        Ratings           `json:"ratings"`
	Images         []Image           `json:"images,omitempty"`
	Variants       []Variant         `json:"variants,omitempty"`
	Tags           []string          `json:"tags,omitempty"`
	Features       []string          `json:"features,omitempty"`
	Specifications map[string]string `json:"specifications,omitempty"`
	FreeShipping   bool              `json:"freeShipping,omitempty"`
	IsActive       bool              `json:"isActive"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// Validate checks the cross-field invariants an admin write must satisfy.
func (p Product) Validate() error {
	if p.SKU == "" {
		return validationErr("sku", "required")
	}
	if p.Name == "" {
		return validationErr("name", "required")
	}
	if p.Price.Currency == "" {
		return validationErr("price.currency", "required")
	}
	if p.Price.Original.IsNegative() || p.Price.Current.IsNegative() {
		return validationErr("price", "must not be negative")
	}
	if p.Price.Current.GreaterThan(p.Price.Original) {
		return validationErr("price.current", "must not exceed original price")
	}
	if p.Inventory.Stock < 0 {
		return validationErr("inventory.stock", "must not be negative")
	}
	if p.Inventory.LowStockThreshold < 0 {
		return validationErr("inventory.lowStockThreshold", "must not be negative")
	}
	if len(p.Images) > 0 {
		primaries := 0
		for _, img := range p.Images {
			if img.IsPrimary {
				primaries++
			}
		}
		if primaries != 1 {
			return validationErr("images", "exactly one image must be primary")
		}
	}
	return nil
}
