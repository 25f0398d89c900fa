package repairs

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arcadia-retail/arcadia-retail/internal/shared"
)

// Repository provides PostgreSQL backed persistence for repair tickets.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	InsertRepair(ctx context.Context, repair Repair) (int64, error)
	// GetRepairForUpdate loads a repair with its full history, locking the
	// repair row for the duration of the transaction.
	GetRepairForUpdate(ctx context.Context, id int64) (*Repair, error)
	// UpdateRepairStatus flips status only when the current status still
	// matches from; a zero-row update surfaces as ErrConflict so lost
	// updates cannot happen under concurrent transitions.
	UpdateRepairStatus(ctx context.Context, id int64, from, to RepairStatus, completedAt bool) error
	UpdateRepairCosts(ctx context.Context, id int64, costs CostBreakdown) error
	UpdateDiagnosis(ctx context.Context, id int64, diagnosis string) error
	AppendPriceHistory(ctx context.Context, entry PriceHistoryEntry) error
	AppendTimeline(ctx context.Context, entry TimelineEntry) error
	DeactivateRepair(ctx context.Context, id int64) error
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
		return wrapPgError("repairs: tx", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return wrapPgError("repairs: commit tx", err)
	}
	return nil
}

// GetRepair loads a repair with its price and timeline history.
func (r *Repository) GetRepair(ctx context.Context, id int64) (*Repair, error) {
	return loadRepair(ctx, r.pool, id, false)
}

// IdentifierExists reports whether a ticket number is already taken.
func (r *Repository) IdentifierExists(ctx context.Context, ticket string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM repairs WHERE ticket_number = $1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, ticket).Scan(&exists); err != nil {
		return false, fmt.Errorf("repairs: check ticket: %w", err)
	}
	return exists, nil
}

// MarkTimelineNotified records that a customer notification went out for
// the given timeline entry. Runs outside the lifecycle transaction since
// dispatch happens after commit.
func (r *Repository) MarkTimelineNotified(ctx context.Context, entryID string) error {
	const query = `UPDATE repair_timeline SET notified = true WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, entryID); err != nil {
		return fmt.Errorf("repairs: mark notified: %w", err)
	}
	return nil
}

// querier covers both pool and tx usage for the shared loaders.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func loadRepair(ctx context.Context, q querier, id int64, forUpdate bool) (*Repair, error) {
	query := `
		SELECT id, ticket_number, customer_id, store_id,
		       device_type, device_brand, device_model, device_serial,
		       issue, COALESCE(diagnosis, ''),
		       repair_cost, parts_cost, labor_cost, total_cost,
		       status, priority, is_active, created_by, created_at, updated_at, completed_at
		FROM repairs WHERE id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}
	var rep Repair
	err := q.QueryRow(ctx, query, id).Scan(
		&rep.ID, &rep.TicketNumber, &rep.CustomerID, &rep.StoreID,
		&rep.Device.Type, &rep.Device.Brand, &rep.Device.Model, &rep.Device.SerialNumber,
		&rep.Issue, &rep.Diagnosis,
		&rep.Costs.RepairCost, &rep.Costs.PartsCost, &rep.Costs.LaborCost, &rep.Costs.TotalCost,
		&rep.Status, &rep.Priority, &rep.IsActive, &rep.CreatedBy,
		&rep.CreatedAt, &rep.UpdatedAt, &rep.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: repair %d", shared.ErrNotFound, id)
		}
		return nil, fmt.Errorf("repairs: get repair: %w", err)
	}

	if rep.PriceHistory, err = loadPriceHistory(ctx, q, id); err != nil {
		return nil, err
	}
	if rep.Timeline, err = loadTimeline(ctx, q, id); err != nil {
		return nil, err
	}
	return &rep, nil
}

func loadPriceHistory(ctx context.Context, q querier, repairID int64) ([]PriceHistoryEntry, error) {
	const query = `
		SELECT id, repair_id, repair_cost, parts_cost, labor_cost, total_cost, actor, created_at
		FROM repair_price_history WHERE repair_id = $1 ORDER BY created_at, id`
	rows, err := q.Query(ctx, query, repairID)
	if err != nil {
		return nil, fmt.Errorf("repairs: load price history: %w", err)
	}
	defer rows.Close()

	var history []PriceHistoryEntry
	for rows.Next() {
		var e PriceHistoryEntry
		if err := rows.Scan(
			&e.ID, &e.RepairID, &e.RepairCost, &e.PartsCost, &e.LaborCost,
			&e.TotalCost, &e.Actor, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("repairs: scan price entry: %w", err)
		}
		history = append(history, e)
	}
	return history, rows.Err()
}

func loadTimeline(ctx context.Context, q querier, repairID int64) ([]TimelineEntry, error) {
	const query = `
		SELECT id, repair_id, COALESCE(status, ''), COALESCE(note, ''), actor, notified, created_at
		FROM repair_timeline WHERE repair_id = $1 ORDER BY created_at, id`
	rows, err := q.Query(ctx, query, repairID)
	if err != nil {
		return nil, fmt.Errorf("repairs: load timeline: %w", err)
	}
	defer rows.Close()

	var timeline []TimelineEntry
	for rows.Next() {
		var e TimelineEntry
		if err := rows.Scan(&e.ID, &e.RepairID, &e.Status, &e.Note, &e.Actor, &e.Notified, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("repairs: scan timeline entry: %w", err)
		}
		timeline = append(timeline, e)
	}
	return timeline, rows.Err()
}

// ============================================================================
// TX OPERATIONS
// ============================================================================

func (r *txRepo) InsertRepair(ctx context.Context, repair Repair) (int64, error) {
	const query = `
		INSERT INTO repairs (
			ticket_number, customer_id, store_id,
			device_type, device_brand, device_model, device_serial,
			issue, repair_cost, parts_cost, labor_cost, total_cost,
			status, priority, is_active, created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, true, $15)
		RETURNING id`
	var id int64
	err := r.tx.QueryRow(ctx, query,
		repair.TicketNumber, repair.CustomerID, repair.StoreID,
		repair.Device.Type, repair.Device.Brand, repair.Device.Model, repair.Device.SerialNumber,
		repair.Issue, repair.Costs.RepairCost, repair.Costs.PartsCost, repair.Costs.LaborCost,
		repair.Costs.TotalCost, repair.Status, repair.Priority, repair.CreatedBy,
	).Scan(&id)
	if err != nil {
		return 0, wrapPgError("repairs: insert repair", err)
	}
	return id, nil
}

func (r *txRepo) GetRepairForUpdate(ctx context.Context, id int64) (*Repair, error) {
	return loadRepair(ctx, r.tx, id, true)
}

func (r *txRepo) UpdateRepairStatus(ctx context.Context, id int64, from, to RepairStatus, completedAt bool) error {
	query := `
		UPDATE repairs SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2`
	if completedAt {
		query = `
		UPDATE repairs SET status = $3, completed_at = now(), updated_at = now()
		WHERE id = $1 AND status = $2`
	}
	tag, err := r.tx.Exec(ctx, query, id, from, to)
	if err != nil {
		return wrapPgError("repairs: update status", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: repair %d status changed concurrently", shared.ErrConflict, id)
	}
	return nil
}

func (r *txRepo) UpdateRepairCosts(ctx context.Context, id int64, costs CostBreakdown) error {
	const query = `
		UPDATE repairs
		SET repair_cost = $2, parts_cost = $3, labor_cost = $4, total_cost = $5, updated_at = now()
		WHERE id = $1`
	tag, err := r.tx.Exec(ctx, query, id, costs.RepairCost, costs.PartsCost, costs.LaborCost, costs.TotalCost)
	if err != nil {
		return wrapPgError("repairs: update costs", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: repair %d", shared.ErrNotFound, id)
	}
	return nil
}

func (r *txRepo) UpdateDiagnosis(ctx context.Context, id int64, diagnosis string) error {
	const query = `UPDATE repairs SET diagnosis = $2, updated_at = now() WHERE id = $1`
	if _, err := r.tx.Exec(ctx, query, id, diagnosis); err != nil {
		return wrapPgError("repairs: update diagnosis", err)
	}
	return nil
}

func (r *txRepo) AppendPriceHistory(ctx context.Context, entry PriceHistoryEntry) error {
	const query = `
		INSERT INTO repair_price_history (id, repair_id, repair_cost, parts_cost, labor_cost, total_cost, actor, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.tx.Exec(ctx, query,
		entry.ID, entry.RepairID, entry.RepairCost, entry.PartsCost, entry.LaborCost,
		entry.TotalCost, entry.Actor, entry.CreatedAt,
	)
	if err != nil {
		return wrapPgError("repairs: append price history", err)
	}
	return nil
}

func (r *txRepo) AppendTimeline(ctx context.Context, entry TimelineEntry) error {
	const query = `
		INSERT INTO repair_timeline (id, repair_id, status, note, actor, notified, created_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7)`
	_, err := r.tx.Exec(ctx, query,
		entry.ID, entry.RepairID, string(entry.Status), entry.Note, entry.Actor, entry.Notified, entry.CreatedAt,
	)
	if err != nil {
		return wrapPgError("repairs: append timeline", err)
	}
	return nil
}

func (r *txRepo) DeactivateRepair(ctx context.Context, id int64) error {
	const query = `UPDATE repairs SET is_active = false, updated_at = now() WHERE id = $1`
	tag, err := r.tx.Exec(ctx, query, id)
	if err != nil {
		return wrapPgError("repairs: deactivate repair", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: repair %d", shared.ErrNotFound, id)
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
