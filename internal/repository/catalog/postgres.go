package catalog

import (
	"context"
	"errors"
	"io"
	"log"

	"storefront/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const productColumns = `
id::text, sku, name, COALESCE(description, ''), price_original, price_current, currency,
stock, low_stock_threshold, inventory_status, ratings, images, variants, tags, features,
specifications, free_shipping, is_active, created_at, updated_at`

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID, &p.SKU, &p.Name, &p.Description,
		&p.Price.Original, &p.Price.Current, &p.Price.Currency,
		&p.Inventory.Stock, &p.Inventory.LowStockThreshold, &p.Inventory.Status,
		&p.Ratings, &p.Images, &p.Variants, &p.Tags, &p.Features,
		&p.Specifications, &p.FreeShipping, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.Ratings.Distribution == nil {
		p.Ratings.Distribution = map[int]int{}
	}
	return &p, nil
}

func (r *postgresRepo) List(ctx context.Context, includeInactive bool) ([]domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products`
	if !includeInactive {
		q += ` WHERE is_active`
	}
	q += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.logger.Printf("catalog repo: list error=%v", err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("catalog repo: list rows error=%v", err)
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("catalog repo: get id=%s error=%v", id, err)
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) GetBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE sku = $1`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, sku))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("catalog repo: get sku=%s error=%v", sku, err)
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (sku, name, description, price_original, price_current, currency,
    stock, low_stock_threshold, inventory_status, ratings, images, variants, tags,
    features, specifications, free_shipping, is_active)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
RETURNING ` + productColumns

	p.Inventory.Status = p.Inventory.DerivedStatus()
	if p.Ratings.Distribution == nil {
		p.Ratings.Distribution = map[int]int{}
	}
	created, err := scanProduct(r.pool.QueryRow(ctx, q,
		p.SKU, p.Name, p.Description,
		p.Price.Original, p.Price.Current, p.Price.Currency,
		p.Inventory.Stock, p.Inventory.LowStockThreshold, p.Inventory.Status,
		p.Ratings, p.Images, p.Variants, p.Tags, p.Features, p.Specifications,
		p.FreeShipping, p.IsActive,
	))
	if err != nil {
		r.logger.Printf("catalog repo: create sku=%s error=%v", p.SKU, err)
		return nil, err
	}
	r.logger.Printf("catalog repo: created sku=%s id=%s", created.SKU, created.ID)
	return created, nil
}

func (r *postgresRepo) Update(ctx context.Context, p domain.Product) (*domain.Product, error) {
	// sku and ratings are not updatable here: sku is immutable and ratings
	// belong to AddReview. The status is derived from the incoming stock;
	// the only input value honored is the discontinued override.
	const q = `
UPDATE products SET
    name = $2,
    description = NULLIF($3, ''),
    price_original = $4,
    price_current = $5,
    currency = $6,
    stock = $7,
    low_stock_threshold = $8,
    inventory_status = CASE
        WHEN $9 = 'discontinued' THEN 'discontinued'
        WHEN $7 = 0 THEN 'out_of_stock'
        WHEN $7 <= $8 THEN 'low_stock'
        ELSE 'in_stock'
    END,
    images = $10,
    variants = $11,
    tags = $12,
    features = $13,
    specifications = $14,
    free_shipping = $15,
    is_active = $16,
    updated_at = now()
WHERE id = $1
RETURNING ` + productColumns

	updated, err := scanProduct(r.pool.QueryRow(ctx, q,
		p.ID, p.Name, p.Description,
		p.Price.Original, p.Price.Current, p.Price.Currency,
		p.Inventory.Stock, p.Inventory.LowStockThreshold, string(p.Inventory.Status),
		p.Images, p.Variants, p.Tags, p.Features, p.Specifications,
		p.FreeShipping, p.IsActive,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("catalog repo: update id=%s error=%v", p.ID, err)
		return nil, err
	}
	return updated, nil
}

func (r *postgresRepo) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET is_active = $2, updated_at = now() WHERE id = $1`, id, active)
	if err != nil {
		r.logger.Printf("catalog repo: set active id=%s error=%v", id, err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) SetStock(ctx context.Context, id string, stock int) (*domain.Product, error) {
	if stock < 0 {
		return nil, &domain.ValidationError{Field: "stock", Reason: "must not be negative"}
	}
	const q = `
UPDATE products SET
    stock = $2,
    inventory_status = CASE
        WHEN inventory_status = 'discontinued' THEN 'discontinued'
        WHEN $2 = 0 THEN 'out_of_stock'
        WHEN $2 <= low_stock_threshold THEN 'low_stock'
        ELSE 'in_stock'
    END,
    updated_at = now()
WHERE id = $1
RETURNING ` + productColumns

	p, err := scanProduct(r.pool.QueryRow(ctx, q, id, stock))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("catalog repo: set stock id=%s error=%v", id, err)
		return nil, err
	}
	return p, nil
}

// ReserveStock is a single conditional UPDATE: the stock check, the
// decrement and the status recompute happen in one atomic statement, so
// concurrent reservations can never both succeed past available stock.
func (r *postgresRepo) ReserveStock(ctx context.Context, id string, qty int) error {
	if qty < 1 {
		return &domain.ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}
	const q = `
UPDATE products SET
    stock = stock - $2,
    inventory_status = CASE
        WHEN stock - $2 = 0 THEN 'out_of_stock'
        WHEN stock - $2 <= low_stock_threshold THEN 'low_stock'
        ELSE 'in_stock'
    END,
    updated_at = now()
WHERE id = $1 AND stock >= $2 AND inventory_status <> 'discontinued'`

	tag, err := r.pool.Exec(ctx, q, id, qty)
	if err != nil {
		r.logger.Printf("catalog repo: reserve id=%s qty=%d error=%v", id, qty, err)
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrInsufficientStock
	}
	r.logger.Printf("catalog repo: reserved id=%s qty=%d", id, qty)
	return nil
}

func (r *postgresRepo) ReleaseStock(ctx context.Context, id string, qty int) error {
	if qty < 1 {
		return &domain.ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}
	const q = `
UPDATE products SET
    stock = stock + $2,
    inventory_status = CASE
        WHEN inventory_status = 'discontinued' THEN 'discontinued'
        WHEN stock + $2 = 0 THEN 'out_of_stock'
        WHEN stock + $2 <= low_stock_threshold THEN 'low_stock'
        ELSE 'in_stock'
    END,
    updated_at = now()
WHERE id = $1`

	tag, err := r.pool.Exec(ctx, q, id, qty)
	if err != nil {
		r.logger.Printf("catalog repo: release id=%s qty=%d error=%v", id, qty, err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Printf("catalog repo: released id=%s qty=%d", id, qty)
	return nil
}

// AddReview serializes concurrent reviews for one product with a row lock,
// computes the new distribution in Go and writes it back in the same
// transaction.
func (r *postgresRepo) AddReview(ctx context.Context, id string, stars int) (*domain.Product, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var ratings domain.Ratings
	err = tx.QueryRow(ctx, `SELECT ratings FROM products WHERE id = $1 FOR UPDATE`, id).Scan(&ratings)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("catalog repo: add review id=%s error=%v", id, err)
		return nil, err
	}

	ratings = ratings.Add(stars)
	p, err := scanProduct(tx.QueryRow(ctx,
		`UPDATE products SET ratings = $2, updated_at = now() WHERE id = $1 RETURNING `+productColumns,
		id, ratings,
	))
	if err != nil {
		r.logger.Printf("catalog repo: add review update id=%s error=%v", id, err)
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return p, nil
}
