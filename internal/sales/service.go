package sales

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/arcadia-retail/arcadia-retail/internal/inventory"
	"github.com/arcadia-retail/arcadia-retail/internal/shared"
)

// Amounts are compared with a small tolerance; refund arithmetic runs on
// float64 like every other monetary field in the system.
const amountEpsilon = 1e-9

var (
	// ErrInvalidTransition rejects an unreachable status target.
	ErrInvalidTransition = fmt.Errorf("%w: invalid status transition", shared.ErrBusinessRule)
	// ErrNotRefundable rejects refunds on cancelled or fully refunded sales.
	ErrNotRefundable = fmt.Errorf("%w: sale is not refundable", shared.ErrBusinessRule)
	// ErrRefundExceedsBalance rejects a refund larger than what remains.
	ErrRefundExceedsBalance = fmt.Errorf("%w: refund exceeds remaining balance", shared.ErrBusinessRule)
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetSale(ctx context.Context, id int64) (*Sale, error)
	ListDaily(ctx context.Context, q DailyQuery) ([]Sale, error)
}

// CacheInvalidator bumps the report cache after committed mutations.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// Service owns the sale lifecycle: creation with inventory side effects,
// status transitions, refunds.
type Service struct {
	repo        RepositoryPort
	stock       inventory.StockPort
	invalidator CacheInvalidator
	logger      *slog.Logger
	now         func() time.Time
	newID       func() string
}

// NewService constructs a sale lifecycle service.
func NewService(repo RepositoryPort, stock inventory.StockPort, invalidator CacheInvalidator, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		stock:       stock,
		invalidator: invalidator,
		logger:      logger,
		now:         time.Now,
		newID:       func() string { return uuid.NewString() },
	}
}

// decrementedItem records a committed stock decrement so it can be
// compensated when a later step of the same request fails.
type decrementedItem struct {
	productID int64
	qty       int
}

// CreateSale validates every line item, decrements stock for catalog items
// with compensating rollback on failure, computes the total and persists
// the sale. The whole operation is all-or-nothing from the caller's view.
func (s *Service) CreateSale(ctx context.Context, req CreateSaleRequest, createdBy int64) (*Sale, error) {
	items, err := s.resolveItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = StatusCompleted
	}

	var decremented []decrementedItem
	for _, item := range items {
		if item.Kind != LineItemCatalog {
			continue
		}
		if err := s.stock.Decrement(ctx, *item.ProductID, item.Quantity); err != nil {
			s.compensate(ctx, decremented)
			return nil, err
		}
		decremented = append(decremented, decrementedItem{productID: *item.ProductID, qty: item.Quantity})
	}

	var total float64
	for _, item := range items {
		total += item.LineTotal
	}

	sale := Sale{
		CustomerID:    req.CustomerID,
		StoreID:       req.StoreID,
		TotalAmount:   total,
		PaymentMethod: req.PaymentMethod,
		Status:        status,
		IsActive:      true,
		CreatedBy:     createdBy,
	}

	var saleID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertSale(ctx, sale)
		if err != nil {
			return err
		}
		saleID = id
		for _, item := range items {
			item.SaleID = id
			if _, err := tx.InsertLineItem(ctx, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.compensate(ctx, decremented)
		return nil, err
	}

	s.bumpReports(ctx)
	return s.repo.GetSale(ctx, saleID)
}

// resolveItems checks the tagged-variant rule for every input and resolves
// catalog references before any stock is touched, so a bad item fails the
// request with nothing to roll back.
func (s *Service) resolveItems(ctx context.Context, inputs []LineItemInput) ([]LineItem, error) {
	items := make([]LineItem, 0, len(inputs))
	for i, input := range inputs {
		hasProduct := input.ProductID != nil
		hasName := input.Name != ""
		switch {
		case hasProduct && hasName:
			return nil, fmt.Errorf("%w: item %d: product_id and name are mutually exclusive", shared.ErrValidation, i)
		case !hasProduct && !hasName:
			return nil, fmt.Errorf("%w: item %d: either product_id or name is required", shared.ErrValidation, i)
		case hasProduct:
			product, err := s.stock.GetProduct(ctx, *input.ProductID)
			if err != nil {
				return nil, err
			}
			price := product.UnitPrice
			if input.UnitPrice != nil {
				price = *input.UnitPrice
			}
			item, err := NewCatalogItem(product.ID, product.Name, input.Quantity, price)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		default:
			if input.UnitPrice == nil {
				return nil, fmt.Errorf("%w: item %d: unit_price required for manual item", shared.ErrValidation, i)
			}
			item, err := NewManualItem(input.Name, input.Quantity, *input.UnitPrice)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
	}
	return items, nil
}

// compensate restores stock decremented earlier in a failed request.
func (s *Service) compensate(ctx context.Context, decremented []decrementedItem) {
	for _, d := range decremented {
		if err := s.stock.Restore(ctx, d.productID, d.qty); err != nil {
			s.logger.Error("compensating stock restore failed",
				slog.Int64("product_id", d.productID),
				slog.Int("qty", d.qty),
				slog.Any("error", err),
			)
		}
	}
}

// TransitionStatus moves a sale to a reachable status. Transitioning into
// cancelled restores each catalog item's stock exactly once: the
// conditional status update guarantees only one request wins the
// transition, and only the winner restores.
func (s *Service) TransitionStatus(ctx context.Context, id int64, newStatus SaleStatus, reason *string) (*Sale, error) {
	var restore []LineItem
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sale, err := tx.GetSaleForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !CanTransition(sale.Status, newStatus) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, sale.Status, newStatus)
		}
		if err := tx.UpdateSaleStatus(ctx, id, sale.Status, newStatus); err != nil {
			return err
		}
		if newStatus == StatusCancelled && sale.Status != StatusCancelled {
			restore = sale.Items
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, item := range restore {
		if item.Kind != LineItemCatalog {
			continue
		}
		if err := s.stock.Restore(ctx, *item.ProductID, item.Quantity); err != nil {
			// The cancellation itself is committed; a failed restore is
			// stock drift to reconcile, not a reason to fail the request.
			s.logger.Error("stock restore after cancellation failed",
				slog.Int64("sale_id", id),
				slog.Int64("product_id", *item.ProductID),
				slog.Any("error", err),
			)
		}
	}

	s.bumpReports(ctx)
	return s.repo.GetSale(ctx, id)
}

// Refund appends a refund record and flips the status to refunded or
// partially_refunded. The sale row is locked for the duration so
// concurrent refunds serialize and the refunded sum can never exceed the
// total.
func (s *Service) Refund(ctx context.Context, id int64, req RefundRequest) (*Sale, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sale, err := tx.GetSaleForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if sale.Status == StatusCancelled || sale.Status == StatusRefunded {
			return fmt.Errorf("%w: status %s", ErrNotRefundable, sale.Status)
		}

		balance := sale.RefundableBalance()
		if req.Amount > balance+amountEpsilon {
			return fmt.Errorf("%w: requested %.2f, remaining %.2f", ErrRefundExceedsBalance, req.Amount, balance)
		}

		refund := Refund{
			ID:          s.newID(),
			SaleID:      id,
			Amount:      req.Amount,
			Reason:      req.Reason,
			ProcessedBy: req.ProcessedBy,
			CreatedAt:   s.now().UTC(),
		}
		if err := tx.InsertRefund(ctx, refund); err != nil {
			return err
		}

		newStatus := StatusPartiallyRefunded
		if balance-req.Amount <= amountEpsilon {
			newStatus = StatusRefunded
		}
		if sale.Status != newStatus {
			if err := tx.UpdateSaleStatus(ctx, id, sale.Status, newStatus); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.bumpReports(ctx)
	return s.repo.GetSale(ctx, id)
}

// GetSale retrieves a sale by id.
func (s *Service) GetSale(ctx context.Context, id int64) (*Sale, error) {
	return s.repo.GetSale(ctx, id)
}

// Deactivate soft-deletes a sale so historical reports stay stable.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.DeactivateSale(ctx, id)
	})
	if err != nil {
		return err
	}
	s.bumpReports(ctx)
	return nil
}

// Daily date bounds: requests further out are almost certainly client bugs.
const (
	dailyMaxPast   = 366 * 24 * time.Hour
	dailyMaxFuture = 2 * 366 * 24 * time.Hour
)

// ListDaily returns the sales of one calendar day with summary totals,
// scoped to the principal's store visibility.
func (s *Service) ListDaily(ctx context.Context, principal shared.Principal, date time.Time, storeID *int64, limit int) (*DailySummary, error) {
	now := s.now()
	if now.Sub(date) > dailyMaxPast || date.Sub(now) > dailyMaxFuture {
		return nil, fmt.Errorf("%w: date %s out of range", shared.ErrValidation, date.Format("2006-01-02"))
	}
	if limit < 1 || limit > 1000 {
		return nil, fmt.Errorf("%w: limit must be between 1 and 1000", shared.ErrValidation)
	}

	list, err := s.repo.ListDaily(ctx, DailyQuery{
		Date:    date,
		StoreID: principal.ScopeStore(storeID),
		Limit:   limit,
	})
	if err != nil {
		return nil, err
	}

	summary := DailySummary{
		Date:  date.Format("2006-01-02"),
		Sales: list,
	}
	for _, sale := range list {
		summary.TotalSales++
		summary.TotalAmount += sale.TotalAmount
		for _, item := range sale.Items {
			summary.TotalItemsSold += item.Quantity
		}
	}
	if summary.TotalSales > 0 {
		summary.AverageOrderValue = summary.TotalAmount / float64(summary.TotalSales)
	}
	if summary.Sales == nil {
		summary.Sales = []Sale{}
	}
	return &summary, nil
}

func (s *Service) bumpReports(ctx context.Context) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Bump(ctx); err != nil {
		s.logger.Warn("report cache bump failed", slog.Any("error", err))
	}
}
