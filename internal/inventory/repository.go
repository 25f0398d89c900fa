package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arcadia-retail/arcadia-retail/internal/shared"
)

// StockPort is the contract the sale lifecycle depends on. Decrement is
// conditional: it succeeds only when the resulting stock stays >= 0, which
// bounds concurrent oversell to a single UPDATE's atomicity.
type StockPort interface {
	GetProduct(ctx context.Context, id int64) (*Product, error)
	Decrement(ctx context.Context, productID int64, qty int) error
	Restore(ctx context.Context, productID int64, qty int) error
}

// Repository persists inventory data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetProduct loads one catalog product.
func (r *Repository) GetProduct(ctx context.Context, id int64) (*Product, error) {
	const query = `
		SELECT id, sku, name, unit_price, stock, is_active, created_at, updated_at
		FROM products WHERE id = $1`
	var p Product
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.SKU, &p.Name, &p.UnitPrice, &p.Stock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: product %d", shared.ErrNotFound, id)
		}
		return nil, fmt.Errorf("inventory: get product: %w", err)
	}
	return &p, nil
}

// Decrement subtracts qty from the product's stock if enough remains.
func (r *Repository) Decrement(ctx context.Context, productID int64, qty int) error {
	const query = `
		UPDATE products SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2`
	tag, err := r.pool.Exec(ctx, query, productID, qty)
	if err != nil {
		return fmt.Errorf("inventory: decrement product %d: %w", productID, err)
	}
	if tag.RowsAffected() == 0 {
		// Either the product is missing or stock is short; the two cases
		// are distinguished so the caller can 404 on a bad reference.
		if _, err := r.GetProduct(ctx, productID); err != nil {
			return err
		}
		return ErrInsufficientStock
	}
	return nil
}

// Restore adds qty back to the product's stock. Used both for compensating
// a failed multi-item decrement and for sale cancellation.
func (r *Repository) Restore(ctx context.Context, productID int64, qty int) error {
	const query = `
		UPDATE products SET stock = stock + $2, updated_at = now()
		WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, productID, qty)
	if err != nil {
		return fmt.Errorf("inventory: restore product %d: %w", productID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %d", shared.ErrNotFound, productID)
	}
	return nil
}
