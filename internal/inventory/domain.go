// Package inventory tracks per-product stock levels and provides the
// conditional decrement primitive sale creation relies on.
package inventory

import (
	"fmt"
	"time"

	"github.com/arcadia-retail/arcadia-retail/internal/shared"
)

// Product is a catalog entry with its on-hand quantity.
type Product struct {
	ID        int64     `json:"id" db:"id"`
	SKU       string    `json:"sku" db:"sku"`
	Name      string    `json:"name" db:"name"`
	UnitPrice float64   `json:"unit_price" db:"unit_price"`
	Stock     int       `json:"stock" db:"stock"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ErrInsufficientStock rejects a decrement that would leave stock negative.
var ErrInsufficientStock = fmt.Errorf("%w: insufficient stock", shared.ErrBusinessRule)
