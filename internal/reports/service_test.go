package reports

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcadia-retail/arcadia-retail/internal/repairs"
	"github.com/arcadia-retail/arcadia-retail/internal/sales"
	"github.com/arcadia-retail/arcadia-retail/internal/shared"
)

// ============================================================================
// MOCKS
// ============================================================================

type mockStore struct {
	sales   []sales.Sale
	repairs []repairs.Repair

	lastSalesScope *int64
}

func (m *mockStore) ListSales(ctx context.Context, start, end time.Time, storeID *int64) ([]sales.Sale, error) {
	m.lastSalesScope = storeID
	var out []sales.Sale
	for _, s := range m.sales {
		if s.CreatedAt.Before(start) || s.CreatedAt.After(end) {
			continue
		}
		if storeID != nil && s.StoreID != *storeID {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *mockStore) ListRepairs(ctx context.Context, start, end time.Time, storeID *int64) ([]repairs.Repair, error) {
	var out []repairs.Repair
	for _, r := range m.repairs {
		if r.CreatedAt.Before(start) || r.CreatedAt.After(end) {
			continue
		}
		if storeID != nil && r.StoreID != *storeID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *mockStore) CountActiveRepairs(ctx context.Context, storeID *int64) (int64, error) {
	var count int64
	for _, r := range m.repairs {
		switch r.Status {
		case repairs.StatusReceived, repairs.StatusDiagnosed, repairs.StatusInRepair:
			if storeID == nil || r.StoreID == *storeID {
				count++
			}
		}
	}
	return count, nil
}

func (m *mockStore) SalesTotals(ctx context.Context, storeID *int64) (int64, float64, error) {
	var count int64
	var revenue float64
	for _, s := range m.sales {
		if storeID != nil && s.StoreID != *storeID {
			continue
		}
		count++
		revenue += s.TotalAmount
	}
	return count, revenue, nil
}

type staticCount int64

func (c staticCount) Count(ctx context.Context) (int64, error) { return int64(c), nil }

func newTestService(store *mockStore) *Service {
	// A nil cache computes every report directly.
	return NewService(store, staticCount(42), nil, slog.Default())
}

func fixtureMonth(t *testing.T) *mockStore {
	t.Helper()
	store := &mockStore{}
	// Sales spread over March 2025, two stores.
	days := []struct {
		day    int
		store  int64
		amount float64
		qty    int
	}{
		{1, 1, 500, 1},
		{1, 2, 250, 2},
		{5, 1, 1200, 3},
		{14, 1, 90, 1},
		{14, 2, 760, 2},
		{31, 2, 400, 4},
	}
	for _, d := range days {
		store.sales = append(store.sales, sales.Sale{
			StoreID:     d.store,
			TotalAmount: d.amount,
			CreatedAt:   time.Date(2025, 3, d.day, 12, 0, 0, 0, time.Local),
			Items:       []sales.LineItem{manualItem("misc", d.qty, d.amount/float64(d.qty))},
		})
	}
	store.repairs = []repairs.Repair{
		repairWith(1, "cracked screen", repairs.StatusDelivered, 1500, 2),
		repairWith(2, "battery drain", repairs.StatusReceived, 0, -1),
	}
	return store
}

// ============================================================================
// TESTS
// ============================================================================

func TestMonthlyEqualsSumOfDailies(t *testing.T) {
	svc := newTestService(fixtureMonth(t))
	admin := shared.Principal{UserID: 1, Role: shared.RoleAdmin}

	monthly, err := svc.Period(context.Background(), admin, mustMonth(t, 2025, 3), nil)
	require.NoError(t, err)

	var daySales int
	var dayRevenue float64
	var dayItems int
	for day := 1; day <= 31; day++ {
		daily, err := svc.Period(context.Background(), admin, DayWindow(time.Date(2025, 3, day, 0, 0, 0, 0, time.Local)), nil)
		require.NoError(t, err)
		daySales += daily.Sales.TotalSales
		dayRevenue += daily.Sales.TotalRevenue
		dayItems += daily.Sales.TotalItemsSold
	}

	assert.Equal(t, monthly.Sales.TotalSales, daySales)
	assert.InDelta(t, monthly.Sales.TotalRevenue, dayRevenue, 1e-9)
	assert.Equal(t, monthly.Sales.TotalItemsSold, dayItems)
}

func TestPeriodEmptyWindowIsZeroNotError(t *testing.T) {
	svc := newTestService(&mockStore{})
	admin := shared.Principal{UserID: 1, Role: shared.RoleAdmin}

	report, err := svc.Period(context.Background(), admin, mustMonth(t, 2025, 6), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Sales.TotalSales)
	assert.Equal(t, 0.0, report.Sales.AverageOrderValue)
	assert.Equal(t, 0, report.Repairs.TotalRepairs)
	assert.Equal(t, 0.0, report.Repairs.AverageRepairTimeDays)
}

func TestPeriodPinsNonAdminToAssignedStore(t *testing.T) {
	store := fixtureMonth(t)
	svc := newTestService(store)
	staff := shared.Principal{UserID: 5, Role: shared.RoleStaff, StoreID: 1}

	otherStore := int64(2)
	report, err := svc.Period(context.Background(), staff, mustMonth(t, 2025, 3), &otherStore)
	require.NoError(t, err)

	require.NotNil(t, store.lastSalesScope)
	assert.Equal(t, int64(1), *store.lastSalesScope)
	// Store 1 has three sales in the fixture; store 2's are invisible.
	assert.Equal(t, 3, report.Sales.TotalSales)
}

func TestSummary(t *testing.T) {
	svc := newTestService(fixtureMonth(t))
	admin := shared.Principal{UserID: 1, Role: shared.RoleAdmin}

	summary, err := svc.Summary(context.Background(), admin, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(6), summary.TotalSales)
	assert.InDelta(t, 3200.0, summary.TotalRevenue, 1e-9)
	assert.Equal(t, int64(1), summary.ActiveRepairCount)
	assert.Equal(t, int64(42), summary.TotalCustomers)
}

func mustMonth(t *testing.T, year, month int) Window {
	t.Helper()
	w, err := MonthWindow(year, month)
	require.NoError(t, err)
	return w
}
