package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arcadia-retail/arcadia-retail/internal/repairs"
	"github.com/arcadia-retail/arcadia-retail/internal/sales"
)

// Repository runs the read-only aggregate queries. Reporting tolerates
// slightly stale snapshots, so it reads without locks and never joins the
// lifecycle transactions.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListSales returns active sales created inside the window with their line
// items, optionally scoped to one store.
func (r *Repository) ListSales(ctx context.Context, start, end time.Time, storeID *int64) ([]sales.Sale, error) {
	const query = `
		SELECT id, customer_id, store_id, total_amount, payment_method, status,
		       is_active, created_by, created_at, updated_at
		FROM sales
		WHERE is_active AND created_at >= $1 AND created_at <= $2
		  AND ($3::bigint IS NULL OR store_id = $3)
		ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, start, end, storeID)
	if err != nil {
		return nil, fmt.Errorf("reports: list sales: %w", err)
	}
	defer rows.Close()

	var list []sales.Sale
	index := map[int64]int{}
	for rows.Next() {
		var s sales.Sale
		if err := rows.Scan(
			&s.ID, &s.CustomerID, &s.StoreID, &s.TotalAmount, &s.PaymentMethod,
			&s.Status, &s.IsActive, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("reports: scan sale: %w", err)
		}
		index[s.ID] = len(list)
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return list, nil
	}

	const itemQuery = `
		SELECT i.id, i.sale_id, i.kind, i.product_id, i.name, i.quantity, i.unit_price, i.line_total
		FROM sale_items i
		JOIN sales s ON s.id = i.sale_id
		WHERE s.is_active AND s.created_at >= $1 AND s.created_at <= $2
		  AND ($3::bigint IS NULL OR s.store_id = $3)
		ORDER BY i.id`
	itemRows, err := r.pool.Query(ctx, itemQuery, start, end, storeID)
	if err != nil {
		return nil, fmt.Errorf("reports: list sale items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item sales.LineItem
		if err := itemRows.Scan(
			&item.ID, &item.SaleID, &item.Kind, &item.ProductID,
			&item.Name, &item.Quantity, &item.UnitPrice, &item.LineTotal,
		); err != nil {
			return nil, fmt.Errorf("reports: scan sale item: %w", err)
		}
		if pos, ok := index[item.SaleID]; ok {
			list[pos].Items = append(list[pos].Items, item)
		}
	}
	return list, itemRows.Err()
}

// ListRepairs returns active repairs created inside the window, optionally
// scoped to one store. Only the fields the metric pass reads are loaded.
func (r *Repository) ListRepairs(ctx context.Context, start, end time.Time, storeID *int64) ([]repairs.Repair, error) {
	const query = `
		SELECT id, store_id, COALESCE(issue, ''), total_cost, status, created_at, completed_at
		FROM repairs
		WHERE is_active AND created_at >= $1 AND created_at <= $2
		  AND ($3::bigint IS NULL OR store_id = $3)
		ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, start, end, storeID)
	if err != nil {
		return nil, fmt.Errorf("reports: list repairs: %w", err)
	}
	defer rows.Close()

	var list []repairs.Repair
	for rows.Next() {
		var rep repairs.Repair
		if err := rows.Scan(
			&rep.ID, &rep.StoreID, &rep.Issue, &rep.Costs.TotalCost,
			&rep.Status, &rep.CreatedAt, &rep.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("reports: scan repair: %w", err)
		}
		list = append(list, rep)
	}
	return list, rows.Err()
}

// CountActiveRepairs counts repairs still in the workshop.
func (r *Repository) CountActiveRepairs(ctx context.Context, storeID *int64) (int64, error) {
	const query = `
		SELECT COUNT(*) FROM repairs
		WHERE is_active AND status IN ('received', 'diagnosed', 'in_repair')
		  AND ($1::bigint IS NULL OR store_id = $1)`
	var count int64
	if err := r.pool.QueryRow(ctx, query, storeID).Scan(&count); err != nil {
		return 0, fmt.Errorf("reports: count active repairs: %w", err)
	}
	return count, nil
}

// SalesTotals returns the all-time active sale count and revenue.
func (r *Repository) SalesTotals(ctx context.Context, storeID *int64) (int64, float64, error) {
	const query = `
		SELECT COUNT(*), COALESCE(SUM(total_amount), 0) FROM sales
		WHERE is_active AND ($1::bigint IS NULL OR store_id = $1)`
	var count int64
	var revenue float64
	if err := r.pool.QueryRow(ctx, query, storeID).Scan(&count, &revenue); err != nil {
		return 0, 0, fmt.Errorf("reports: sales totals: %w", err)
	}
	return count, revenue, nil
}
