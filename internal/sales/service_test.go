package sales

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcadia-retail/arcadia-retail/internal/inventory"
	"github.com/arcadia-retail/arcadia-retail/internal/shared"
)

// ============================================================================
// MOCKS
// ============================================================================

type mockStock struct {
	products   map[int64]*inventory.Product
	stock      map[int64]int
	failOn     map[int64]error
	decrements []int64
	restores   []int64
}

func newMockStock() *mockStock {
	return &mockStock{
		products: map[int64]*inventory.Product{},
		stock:    map[int64]int{},
		failOn:   map[int64]error{},
	}
}

func (m *mockStock) addProduct(id int64, name string, price float64, stock int) {
	m.products[id] = &inventory.Product{ID: id, Name: name, UnitPrice: price, Stock: stock, IsActive: true}
	m.stock[id] = stock
}

func (m *mockStock) GetProduct(ctx context.Context, id int64) (*inventory.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: product %d", shared.ErrNotFound, id)
	}
	return p, nil
}

func (m *mockStock) Decrement(ctx context.Context, productID int64, qty int) error {
	if err := m.failOn[productID]; err != nil {
		return err
	}
	if m.stock[productID] < qty {
		return inventory.ErrInsufficientStock
	}
	m.stock[productID] -= qty
	m.decrements = append(m.decrements, productID)
	return nil
}

func (m *mockStock) Restore(ctx context.Context, productID int64, qty int) error {
	m.stock[productID] += qty
	m.restores = append(m.restores, productID)
	return nil
}

type mockRepository struct {
	sales      map[int64]*Sale
	items      map[int64][]LineItem
	refunds    map[int64][]Refund
	nextSaleID int64
	nextItemID int64
	txError    error
	bumps      int
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		sales:      map[int64]*Sale{},
		items:      map[int64][]LineItem{},
		refunds:    map[int64][]Refund{},
		nextSaleID: 1,
		nextItemID: 1,
	}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if m.txError != nil {
		return m.txError
	}
	return fn(ctx, &mockTxRepo{mock: m})
}

func (m *mockRepository) GetSale(ctx context.Context, id int64) (*Sale, error) {
	sale, ok := m.sales[id]
	if !ok {
		return nil, fmt.Errorf("%w: sale %d", shared.ErrNotFound, id)
	}
	copied := *sale
	copied.Items = m.items[id]
	copied.Refunds = m.refunds[id]
	return &copied, nil
}

func (m *mockRepository) ListDaily(ctx context.Context, q DailyQuery) ([]Sale, error) {
	var result []Sale
	for _, sale := range m.sales {
		if !sale.IsActive {
			continue
		}
		if q.StoreID != nil && sale.StoreID != *q.StoreID {
			continue
		}
		if sale.CreatedAt.Format("2006-01-02") != q.Date.Format("2006-01-02") {
			continue
		}
		copied := *sale
		copied.Items = m.items[sale.ID]
		result = append(result, copied)
	}
	return result, nil
}

func (m *mockRepository) Bump(ctx context.Context) error {
	m.bumps++
	return nil
}

type mockTxRepo struct {
	mock *mockRepository
}

func (t *mockTxRepo) InsertSale(ctx context.Context, sale Sale) (int64, error) {
	id := t.mock.nextSaleID
	t.mock.nextSaleID++
	sale.ID = id
	sale.CreatedAt = time.Now()
	t.mock.sales[id] = &sale
	return id, nil
}

func (t *mockTxRepo) InsertLineItem(ctx context.Context, item LineItem) (int64, error) {
	id := t.mock.nextItemID
	t.mock.nextItemID++
	item.ID = id
	t.mock.items[item.SaleID] = append(t.mock.items[item.SaleID], item)
	return id, nil
}

func (t *mockTxRepo) GetSaleForUpdate(ctx context.Context, id int64) (*Sale, error) {
	return t.mock.GetSale(ctx, id)
}

func (t *mockTxRepo) UpdateSaleStatus(ctx context.Context, id int64, from, to SaleStatus) error {
	sale, ok := t.mock.sales[id]
	if !ok {
		return fmt.Errorf("%w: sale %d", shared.ErrNotFound, id)
	}
	if sale.Status != from {
		return fmt.Errorf("%w: sale %d status changed concurrently", shared.ErrConflict, id)
	}
	sale.Status = to
	return nil
}

func (t *mockTxRepo) InsertRefund(ctx context.Context, refund Refund) error {
	t.mock.refunds[refund.SaleID] = append(t.mock.refunds[refund.SaleID], refund)
	return nil
}

func (t *mockTxRepo) DeactivateSale(ctx context.Context, id int64) error {
	sale, ok := t.mock.sales[id]
	if !ok {
		return fmt.Errorf("%w: sale %d", shared.ErrNotFound, id)
	}
	sale.IsActive = false
	return nil
}

func newTestService() (*Service, *mockRepository, *mockStock) {
	repo := newMockRepository()
	stock := newMockStock()
	svc := NewService(repo, stock, repo, slog.Default())
	return svc, repo, stock
}

// ============================================================================
// CREATE
// ============================================================================

func TestCreateSaleComputesTotal(t *testing.T) {
	svc, _, stock := newTestService()
	stock.addProduct(1, "Screen Protector", 500, 10)

	sale, err := svc.CreateSale(context.Background(), CreateSaleRequest{
		CustomerID:    7,
		StoreID:       1,
		PaymentMethod: PaymentCash,
		Items: []LineItemInput{
			{ProductID: i64(1), Quantity: 1},
			{Name: "Fitting charge", Quantity: 2, UnitPrice: f64(250)},
		},
	}, 99)
	require.NoError(t, err)

	assert.Equal(t, 1000.0, sale.TotalAmount)
	assert.Equal(t, StatusCompleted, sale.Status)
	require.Len(t, sale.Items, 2)
	assert.Equal(t, LineItemCatalog, sale.Items[0].Kind)
	assert.Equal(t, LineItemManual, sale.Items[1].Kind)
	assert.Equal(t, 9, stock.stock[1])
}

func TestCreateSaleRejectsAmbiguousItem(t *testing.T) {
	svc, _, stock := newTestService()
	stock.addProduct(1, "Cable", 100, 5)

	_, err := svc.CreateSale(context.Background(), CreateSaleRequest{
		CustomerID:    1,
		StoreID:       1,
		PaymentMethod: PaymentCash,
		Items: []LineItemInput{
			{ProductID: i64(1), Name: "Cable", Quantity: 1},
		},
	}, 1)
	require.ErrorIs(t, err, shared.ErrValidation)
	assert.Empty(t, stock.decrements)
}

func TestCreateSaleRejectsEmptyVariant(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.CreateSale(context.Background(), CreateSaleRequest{
		CustomerID:    1,
		StoreID:       1,
		PaymentMethod: PaymentCash,
		Items:         []LineItemInput{{Quantity: 1, UnitPrice: f64(10)}},
	}, 1)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateSaleUnknownProduct(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.CreateSale(context.Background(), CreateSaleRequest{
		CustomerID:    1,
		StoreID:       1,
		PaymentMethod: PaymentCard,
		Items:         []LineItemInput{{ProductID: i64(42), Quantity: 1}},
	}, 1)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateSaleInsufficientStockCompensates(t *testing.T) {
	svc, repo, stock := newTestService()
	stock.addProduct(1, "Charger", 300, 10)
	stock.addProduct(2, "Battery", 900, 1)

	_, err := svc.CreateSale(context.Background(), CreateSaleRequest{
		CustomerID:    1,
		StoreID:       1,
		PaymentMethod: PaymentCash,
		Items: []LineItemInput{
			{ProductID: i64(1), Quantity: 2},
			{ProductID: i64(2), Quantity: 5},
		},
	}, 1)
	require.ErrorIs(t, err, inventory.ErrInsufficientStock)

	// First decrement rolled back, nothing persisted.
	assert.Equal(t, 10, stock.stock[1])
	assert.Equal(t, []int64{1}, stock.restores)
	assert.Empty(t, repo.sales)
}

func TestCreateSalePersistFailureCompensates(t *testing.T) {
	svc, repo, stock := newTestService()
	stock.addProduct(1, "Charger", 300, 10)
	repo.txError = fmt.Errorf("%w: database down", shared.ErrDependency)

	_, err := svc.CreateSale(context.Background(), CreateSaleRequest{
		CustomerID:    1,
		StoreID:       1,
		PaymentMethod: PaymentCash,
		Items:         []LineItemInput{{ProductID: i64(1), Quantity: 3}},
	}, 1)
	require.ErrorIs(t, err, shared.ErrDependency)
	assert.Equal(t, 10, stock.stock[1])
}

// ============================================================================
// TRANSITIONS
// ============================================================================

func seedSale(repo *mockRepository, stock *mockStock, status SaleStatus) *Sale {
	stock.addProduct(1, "Charger", 300, 8)
	sale := &Sale{
		ID:            1,
		CustomerID:    1,
		StoreID:       1,
		TotalAmount:   600,
		PaymentMethod: PaymentCash,
		Status:        status,
		IsActive:      true,
		CreatedAt:     time.Now(),
	}
	productID := int64(1)
	repo.sales[1] = sale
	repo.items[1] = []LineItem{{
		ID: 1, SaleID: 1, Kind: LineItemCatalog, ProductID: &productID,
		Name: "Charger", Quantity: 2, UnitPrice: 300, LineTotal: 600,
	}}
	repo.nextSaleID = 2
	return sale
}

func TestTransitionPendingToCompleted(t *testing.T) {
	svc, repo, stock := newTestService()
	seedSale(repo, stock, StatusPending)

	sale, err := svc.TransitionStatus(context.Background(), 1, StatusCompleted, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, sale.Status)
	assert.Empty(t, stock.restores)
}

func TestTransitionInvalidTarget(t *testing.T) {
	svc, repo, stock := newTestService()
	seedSale(repo, stock, StatusCancelled)

	_, err := svc.TransitionStatus(context.Background(), 1, StatusCompleted, nil)
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.ErrorIs(t, err, shared.ErrBusinessRule)
}

func TestCancelRestoresStockExactlyOnce(t *testing.T) {
	svc, repo, stock := newTestService()
	seedSale(repo, stock, StatusCompleted)

	sale, err := svc.TransitionStatus(context.Background(), 1, StatusCancelled, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, sale.Status)
	assert.Equal(t, 10, stock.stock[1])
	assert.Equal(t, []int64{1}, stock.restores)

	// Cancelling again is rejected and must not restore a second time.
	_, err = svc.TransitionStatus(context.Background(), 1, StatusCancelled, nil)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 10, stock.stock[1])
	assert.Len(t, stock.restores, 1)
}

// ============================================================================
// REFUNDS
// ============================================================================

func TestRefundFlow(t *testing.T) {
	svc, repo, stock := newTestService()
	seedSale(repo, stock, StatusCompleted)
	repo.sales[1].TotalAmount = 1000

	sale, err := svc.Refund(context.Background(), 1, RefundRequest{Amount: 400, Reason: "damaged item", ProcessedBy: 9})
	require.NoError(t, err)
	assert.Equal(t, StatusPartiallyRefunded, sale.Status)
	assert.InDelta(t, 600, sale.RefundableBalance(), 1e-9)

	_, err = svc.Refund(context.Background(), 1, RefundRequest{Amount: 700, Reason: "change of mind", ProcessedBy: 9})
	require.ErrorIs(t, err, ErrRefundExceedsBalance)

	sale, err = svc.Refund(context.Background(), 1, RefundRequest{Amount: 600, Reason: "goodwill", ProcessedBy: 9})
	require.NoError(t, err)
	assert.Equal(t, StatusRefunded, sale.Status)
	assert.InDelta(t, 1000, sale.RefundedTotal(), 1e-9)

	_, err = svc.Refund(context.Background(), 1, RefundRequest{Amount: 1, Reason: "again", ProcessedBy: 9})
	require.ErrorIs(t, err, ErrNotRefundable)
}

func TestRefundSumNeverExceedsTotal(t *testing.T) {
	svc, repo, stock := newTestService()
	seedSale(repo, stock, StatusCompleted)
	repo.sales[1].TotalAmount = 100

	amounts := []float64{30, 30, 30, 30, 30}
	for _, amount := range amounts {
		_, _ = svc.Refund(context.Background(), 1, RefundRequest{Amount: amount, Reason: "loop", ProcessedBy: 1})
	}

	sale, err := repo.GetSale(context.Background(), 1)
	require.NoError(t, err)
	assert.LessOrEqual(t, sale.RefundedTotal(), sale.TotalAmount+1e-9)
}

func TestRefundCancelledSale(t *testing.T) {
	svc, repo, stock := newTestService()
	seedSale(repo, stock, StatusCancelled)

	_, err := svc.Refund(context.Background(), 1, RefundRequest{Amount: 10, Reason: "no", ProcessedBy: 1})
	require.ErrorIs(t, err, ErrNotRefundable)
}

// ============================================================================
// DAILY LISTING
// ============================================================================

func TestListDailyEmptyDay(t *testing.T) {
	svc, _, _ := newTestService()
	admin := shared.Principal{UserID: 1, Role: shared.RoleAdmin}

	summary, err := svc.ListDaily(context.Background(), admin, time.Now(), nil, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalSales)
	assert.Equal(t, 0.0, summary.TotalAmount)
	assert.Equal(t, 0.0, summary.AverageOrderValue)
	assert.NotNil(t, summary.Sales)
	assert.Empty(t, summary.Sales)
}

func TestListDailyScopesNonAdminToAssignedStore(t *testing.T) {
	svc, repo, stock := newTestService()
	seedSale(repo, stock, StatusCompleted)
	repo.sales[1].StoreID = 2

	staff := shared.Principal{UserID: 5, Role: shared.RoleStaff, StoreID: 3}
	otherStore := int64(2)
	summary, err := svc.ListDaily(context.Background(), staff, time.Now(), &otherStore, 100)
	require.NoError(t, err)
	// The caller asked for store 2 but is pinned to store 3.
	assert.Equal(t, 0, summary.TotalSales)
}

func TestListDailyDateBounds(t *testing.T) {
	svc, _, _ := newTestService()
	admin := shared.Principal{UserID: 1, Role: shared.RoleAdmin}

	_, err := svc.ListDaily(context.Background(), admin, time.Now().AddDate(-2, 0, 0), nil, 100)
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.ListDaily(context.Background(), admin, time.Now().AddDate(3, 0, 0), nil, 100)
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.ListDaily(context.Background(), admin, time.Now(), nil, 0)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func i64(v int64) *int64     { return &v }
func f64(v float64) *float64 { return &v }
