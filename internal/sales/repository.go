package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arcadia-retail/arcadia-retail/internal/shared"
)

// Repository provides PostgreSQL backed persistence for sale records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	InsertSale(ctx context.Context, sale Sale) (int64, error)
	InsertLineItem(ctx context.Context, item LineItem) (int64, error)
	// GetSaleForUpdate loads a sale with its items and refunds, locking
	// the sale row for the duration of the transaction.
	GetSaleForUpdate(ctx context.Context, id int64) (*Sale, error)
	// UpdateSaleStatus flips status only when the current status still
	// matches from; a zero-row update surfaces as ErrConflict so lost
	// updates cannot happen under concurrent transitions.
	UpdateSaleStatus(ctx context.Context, id int64, from, to SaleStatus) error
	InsertRefund(ctx context.Context, refund Refund) error
	DeactivateSale(ctx context.Context, id int64) error
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps the callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("%w: begin tx: %v", shared.ErrDependency, err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &txRepo{tx: tx}); err != nil {
		return wrapPgError("sales: tx", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return wrapPgError("sales: commit tx", err)
	}
	return nil
}

// GetSale loads a sale with items and refund history.
func (r *Repository) GetSale(ctx context.Context, id int64) (*Sale, error) {
	return loadSale(ctx, r.pool, id, false)
}

// ListDaily returns active sales created on the given calendar day, newest
// first, optionally scoped to one store.
func (r *Repository) ListDaily(ctx context.Context, q DailyQuery) ([]Sale, error) {
	dayStart := time.Date(q.Date.Year(), q.Date.Month(), q.Date.Day(), 0, 0, 0, 0, q.Date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	const query = `
		SELECT id, customer_id, store_id, total_amount, payment_method, status,
		       is_active, created_by, created_at, updated_at
		FROM sales
		WHERE is_active AND created_at >= $1 AND created_at < $2
		  AND ($3::bigint IS NULL OR store_id = $3)
		ORDER BY created_at DESC
		LIMIT $4`
	rows, err := r.pool.Query(ctx, query, dayStart, dayEnd, q.StoreID, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("sales: list daily: %w", err)
	}
	defer rows.Close()

	var result []Sale
	for rows.Next() {
		var s Sale
		if err := rows.Scan(
			&s.ID, &s.CustomerID, &s.StoreID, &s.TotalAmount, &s.PaymentMethod,
			&s.Status, &s.IsActive, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sales: scan daily row: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		items, err := loadItems(ctx, r.pool, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Items = items
	}
	return result, nil
}

// querier covers both pool and tx usage for the shared loaders.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func loadSale(ctx context.Context, q querier, id int64, forUpdate bool) (*Sale, error) {
	query := `
		SELECT id, customer_id, store_id, total_amount, payment_method, status,
		       is_active, created_by, created_at, updated_at
		FROM sales WHERE id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}
	var s Sale
	err := q.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.CustomerID, &s.StoreID, &s.TotalAmount, &s.PaymentMethod,
		&s.Status, &s.IsActive, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: sale %d", shared.ErrNotFound, id)
		}
		return nil, fmt.Errorf("sales: get sale: %w", err)
	}

	if s.Items, err = loadItems(ctx, q, id); err != nil {
		return nil, err
	}
	if s.Refunds, err = loadRefunds(ctx, q, id); err != nil {
		return nil, err
	}
	return &s, nil
}

func loadItems(ctx context.Context, q querier, saleID int64) ([]LineItem, error) {
	const query = `
		SELECT id, sale_id, kind, product_id, name, quantity, unit_price, line_total
		FROM sale_items WHERE sale_id = $1 ORDER BY id`
	rows, err := q.Query(ctx, query, saleID)
	if err != nil {
		return nil, fmt.Errorf("sales: load items: %w", err)
	}
	defer rows.Close()

	var items []LineItem
	for rows.Next() {
		var item LineItem
		if err := rows.Scan(
			&item.ID, &item.SaleID, &item.Kind, &item.ProductID,
			&item.Name, &item.Quantity, &item.UnitPrice, &item.LineTotal,
		); err != nil {
			return nil, fmt.Errorf("sales: scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func loadRefunds(ctx context.Context, q querier, saleID int64) ([]Refund, error) {
	const query = `
		SELECT id, sale_id, amount, reason, processed_by, created_at
		FROM sale_refunds WHERE sale_id = $1 ORDER BY created_at`
	rows, err := q.Query(ctx, query, saleID)
	if err != nil {
		return nil, fmt.Errorf("sales: load refunds: %w", err)
	}
	defer rows.Close()

	var refunds []Refund
	for rows.Next() {
		var ref Refund
		if err := rows.Scan(&ref.ID, &ref.SaleID, &ref.Amount, &ref.Reason, &ref.ProcessedBy, &ref.CreatedAt); err != nil {
			return nil, fmt.Errorf("sales: scan refund: %w", err)
		}
		refunds = append(refunds, ref)
	}
	return refunds, rows.Err()
}

// ============================================================================
// TX OPERATIONS
// ============================================================================

func (r *txRepo) InsertSale(ctx context.Context, sale Sale) (int64, error) {
	const query = `
		INSERT INTO sales (customer_id, store_id, total_amount, payment_method, status, is_active, created_by)
		VALUES ($1, $2, $3, $4, $5, true, $6)
		RETURNING id`
	var id int64
	err := r.tx.QueryRow(ctx, query,
		sale.CustomerID, sale.StoreID, sale.TotalAmount, sale.PaymentMethod, sale.Status, sale.CreatedBy,
	).Scan(&id)
	if err != nil {
		return 0, wrapPgError("sales: insert sale", err)
	}
	return id, nil
}

func (r *txRepo) InsertLineItem(ctx context.Context, item LineItem) (int64, error) {
	const query = `
		INSERT INTO sale_items (sale_id, kind, product_id, name, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	var id int64
	err := r.tx.QueryRow(ctx, query,
		item.SaleID, item.Kind, item.ProductID, item.Name, item.Quantity, item.UnitPrice, item.LineTotal,
	).Scan(&id)
	if err != nil {
		return 0, wrapPgError("sales: insert line item", err)
	}
	return id, nil
}

func (r *txRepo) GetSaleForUpdate(ctx context.Context, id int64) (*Sale, error) {
	return loadSale(ctx, r.tx, id, true)
}

func (r *txRepo) UpdateSaleStatus(ctx context.Context, id int64, from, to SaleStatus) error {
	const query = `
		UPDATE sales SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2`
	tag, err := r.tx.Exec(ctx, query, id, from, to)
	if err != nil {
		return wrapPgError("sales: update status", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: sale %d status changed concurrently", shared.ErrConflict, id)
	}
	return nil
}

func (r *txRepo) InsertRefund(ctx context.Context, refund Refund) error {
	const query = `
		INSERT INTO sale_refunds (id, sale_id, amount, reason, processed_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.tx.Exec(ctx, query,
		refund.ID, refund.SaleID, refund.Amount, refund.Reason, refund.ProcessedBy, refund.CreatedAt,
	)
	if err != nil {
		return wrapPgError("sales: insert refund", err)
	}
	return nil
}

func (r *txRepo) DeactivateSale(ctx context.Context, id int64) error {
	const query = `UPDATE sales SET is_active = false, updated_at = now() WHERE id = $1`
	tag, err := r.tx.Exec(ctx, query, id)
	if err != nil {
		return wrapPgError("sales: deactivate sale", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: sale %d", shared.ErrNotFound, id)
	}
	return nil
}

// wrapPgError translates driver-level errors into the taxonomy.
func wrapPgError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s: %s", shared.ErrConflict, op, pgErr.ConstraintName)
		case "40001":
			// Repeatable-read serialization failure: the row changed under
			// a concurrent transaction, same taxonomy as a stale status.
			return fmt.Errorf("%w: %s: concurrent update", shared.ErrConflict, op)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
