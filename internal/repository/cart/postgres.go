package cart

import (
	"context"
	"errors"

	"storefront/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Create(ctx context.Context, in CreateCartInput) (*domain.Cart, error) {
	const q = `
INSERT INTO carts (customer_id, currency, state)
VALUES ($1, $2, 'active')
RETURNING id::text, customer_id, currency, state, created_at
`
	var cart domain.Cart
	if err := r.pool.QueryRow(ctx, q, in.CustomerID, in.Currency).Scan(
		&cart.ID, &cart.CustomerID, &cart.Currency, &cart.State, &cart.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Cart, error) {
	const cartQuery = `
SELECT id::text, customer_id, currency, state, created_at
FROM carts
WHERE id = $1
`
	var cart domain.Cart
	err := r.pool.QueryRow(ctx, cartQuery, id).Scan(
		&cart.ID, &cart.CustomerID, &cart.Currency, &cart.State, &cart.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	const itemsQuery = `
SELECT id::text, cart_id::text, product_id::text, quantity, variant, added_at
FROM cart_items
WHERE cart_id = $1
ORDER BY added_at
`
	rows, err := r.pool.Query(ctx, itemsQuery, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &item.Variant, &item.AddedAt); err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddItem merges into an existing line for the same product and variant
// instead of duplicating it.
func (r *postgresRepo) AddItem(ctx context.Context, cartID, productID string, quantity int, variant string) error {
	const q = `
INSERT INTO cart_items (cart_id, product_id, quantity, variant)
VALUES ($1, $2, $3, $4)
ON CONFLICT (cart_id, product_id, variant) DO UPDATE SET
    quantity = cart_items.quantity + EXCLUDED.quantity
`
	_, err := r.pool.Exec(ctx, q, cartID, productID, quantity, variant)
	return err
}

func (r *postgresRepo) SetItemQuantity(ctx context.Context, cartID, itemID string, quantity int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE cart_items SET quantity = $3 WHERE cart_id = $1 AND id = $2`,
		cartID, itemID, quantity,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) RemoveItem(ctx context.Context, cartID, itemID string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM cart_items WHERE cart_id = $1 AND id = $2`,
		cartID, itemID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) SetState(ctx context.Context, id, state string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE carts SET state = $2 WHERE id = $1`, id, state)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
