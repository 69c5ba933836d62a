package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type productSeed struct {
	SKU           string
	Name          string
	Description   string
	PriceOriginal string
	PriceCurrent  string
	Currency      string
	Stock         int
	LowThreshold  int
	FreeShipping  bool
	Images        string
	Tags          string
}

// Apply inserts basic seed data for manual testing. It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	products := []productSeed{
		{
			SKU:           "SKU-HEADPHONES",
			Name:          "Wireless Headphones",
			Description:   "Over-ear headphones with active noise cancellation",
			PriceOriginal: "129.99",
			PriceCurrent:  "99.99",
			Currency:      "USD",
			Stock:         40,
			LowThreshold:  5,
			FreeShipping:  true,
			Images:        `[{"url": "https://cdn.example.com/headphones.jpg", "alt": "Wireless headphones", "isPrimary": true}]`,
			Tags:          `["audio", "wireless"]`,
		},
		{
			SKU:           "SKU-TSHIRT",
			Name:          "Cotton T-Shirt",
			Description:   "Soft cotton tee",
			PriceOriginal: "19.99",
			PriceCurrent:  "19.99",
			Currency:      "USD",
			Stock:         200,
			LowThreshold:  20,
			Images:        `[{"url": "https://cdn.example.com/tshirt.jpg", "alt": "Cotton t-shirt", "isPrimary": true}]`,
			Tags:          `["apparel"]`,
		},
		{
			SKU:           "SKU-MUG",
			Name:          "Ceramic Mug",
			Description:   "Ceramic mug with logo",
			PriceOriginal: "12.99",
			PriceCurrent:  "9.99",
			Currency:      "USD",
			Stock:         3,
			LowThreshold:  5,
			Images:        `[{"url": "https://cdn.example.com/mug.jpg", "alt": "Ceramic mug", "isPrimary": true}]`,
			Tags:          `["kitchen"]`,
		},
	}

	for _, p := range products {
		if err := upsertProduct(ctx, pool, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.SKU, err)
		}
	}

	return nil
}

func upsertProduct(ctx context.Context, pool *pgxpool.Pool, p productSeed) error {
	const q = `
INSERT INTO products (sku, name, description, price_original, price_current, currency,
    stock, low_stock_threshold, inventory_status, images, tags, free_shipping, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8,
    CASE WHEN $7 = 0 THEN 'out_of_stock' WHEN $7 <= $8 THEN 'low_stock' ELSE 'in_stock' END,
    $9::jsonb, $10::jsonb, $11, true)
ON CONFLICT (sku) DO UPDATE SET
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    price_original = EXCLUDED.price_original,
    price_current = EXCLUDED.price_current,
    currency = EXCLUDED.currency,
    images = EXCLUDED.images,
    tags = EXCLUDED.tags,
    free_shipping = EXCLUDED.free_shipping,
    updated_at = now()
`
	_, err := pool.Exec(ctx, q,
		p.SKU, p.Name, p.Description, p.PriceOriginal, p.PriceCurrent, p.Currency,
		p.Stock, p.LowThreshold, p.Images, p.Tags, p.FreeShipping,
	)
	return err
}
