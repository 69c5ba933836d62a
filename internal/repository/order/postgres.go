package order

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

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

const orderColumns = `
id::text, COALESCE(customer_id, ''), items, subtotal, tax, shipping, discount, total, currency,
status, shipping_address, billing_address, payment, tracking, created_at, updated_at`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID, &o.CustomerID, &o.Items,
		&o.Pricing.Subtotal, &o.Pricing.Tax, &o.Pricing.Shipping,
		&o.Pricing.Discount, &o.Pricing.Total, &o.Pricing.Currency,
		&o.Status, &o.ShippingAddress, &o.BillingAddress,
		&o.Payment, &o.Tracking, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *postgresRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	const q = `
INSERT INTO orders (customer_id, items, subtotal, tax, shipping, discount, total, currency,
    status, shipping_address, billing_address, payment)
VALUES (NULLIF($1, ''), $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING ` + orderColumns

	created, err := scanOrder(r.pool.QueryRow(ctx, q,
		o.CustomerID, o.Items,
		o.Pricing.Subtotal, o.Pricing.Tax, o.Pricing.Shipping,
		o.Pricing.Discount, o.Pricing.Total, o.Pricing.Currency,
		o.Status, o.ShippingAddress, o.BillingAddress, o.Payment,
	))
	if err != nil {
		r.logger.Printf("order repo: create error=%v", err)
		return nil, err
	}
	r.logger.Printf("order repo: created id=%s total=%s", created.ID, created.Pricing.Total)
	return created, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	o, err := scanOrder(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("order repo: get id=%s error=%v", id, err)
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE customer_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, customerID)
	if err != nil {
		r.logger.Printf("order repo: list customer=%s error=%v", customerID, err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $3, updated_at = now() WHERE id = $1 AND status = $2`,
		id, from, to,
	)
	if err != nil {
		r.logger.Printf("order repo: status id=%s %s->%s error=%v", id, from, to, err)
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrNotFound
		}
		// The order moved away from `from` concurrently.
		return domain.ErrInvalidTransition
	}
	r.logger.Printf("order repo: status id=%s %s->%s", id, from, to)
	return nil
}

func (r *postgresRepo) SetPayment(ctx context.Context, id string, p domain.Payment) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET payment = $2, updated_at = now() WHERE id = $1`,
		id, p,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) SetTracking(ctx context.Context, id string, t domain.Tracking) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET tracking = $2, updated_at = now() WHERE id = $1`,
		id, t,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]domain.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE status = 'pending' AND created_at < $1`
	rows, err := r.pool.Query(ctx, q, cutoff)
	if err != nil {
		r.logger.Printf("order repo: list pending error=%v", err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
