// Package customers holds the customer directory. Full customer CRUD is
// served by a separate system; this directory only resolves references
// from transaction intake and upserts walk-ins by their contact details.
package customers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arcadia-retail/arcadia-retail/internal/shared"
)

// Customer is one directory record.
type Customer struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email,omitempty" db:"email"`
	Phone     string    `json:"phone,omitempty" db:"phone"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Directory provides PostgreSQL backed customer resolution.
type Directory struct {
	pool *pgxpool.Pool
}

// NewDirectory constructs a directory.
func NewDirectory(pool *pgxpool.Pool) *Directory {
	return &Directory{pool: pool}
}

// GetByID resolves a customer reference.
func (d *Directory) GetByID(ctx context.Context, id int64) (*Customer, error) {
	const query = `
		SELECT id, name, COALESCE(email, ''), COALESCE(phone, ''), created_at
		FROM customers WHERE id = $1`
	var c Customer
	err := d.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: customer %d", shared.ErrNotFound, id)
		}
		return nil, fmt.Errorf("customers: get: %w", err)
	}
	return &c, nil
}

// Upsert returns the customer matching the given email or phone, creating
// a new record when nothing matches. Matching prefers email.
func (d *Directory) Upsert(ctx context.Context, c Customer) (*Customer, error) {
	const match = `
		SELECT id, name, COALESCE(email, ''), COALESCE(phone, ''), created_at
		FROM customers
		WHERE (email = NULLIF($1, '')) OR (phone = NULLIF($2, ''))
		ORDER BY (email = $1) DESC
		LIMIT 1`
	var found Customer
	err := d.pool.QueryRow(ctx, match, c.Email, c.Phone).Scan(
		&found.ID, &found.Name, &found.Email, &found.Phone, &found.CreatedAt,
	)
	if err == nil {
		return &found, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("customers: match: %w", err)
	}

	const insert = `
		INSERT INTO customers (name, email, phone)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''))
		RETURNING id, created_at`
	if err := d.pool.QueryRow(ctx, insert, c.Name, c.Email, c.Phone).Scan(&c.ID, &c.CreatedAt); err != nil {
		return nil, fmt.Errorf("customers: insert: %w", err)
	}
	return &c, nil
}

// Count returns the directory size for the operational summary.
func (d *Directory) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := d.pool.QueryRow(ctx, `SELECT COUNT(*) FROM customers`).Scan(&count); err != nil {
		return 0, fmt.Errorf("customers: count: %w", err)
	}
	return count, nil
}
