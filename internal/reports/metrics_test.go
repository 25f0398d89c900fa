package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcadia-retail/arcadia-retail/internal/repairs"
	"github.com/arcadia-retail/arcadia-retail/internal/sales"
)

func saleWith(amount float64, items ...sales.LineItem) sales.Sale {
	return sales.Sale{TotalAmount: amount, Items: items}
}

func catalogItem(productID int64, name string, qty int, price float64) sales.LineItem {
	return sales.LineItem{
		Kind: sales.LineItemCatalog, ProductID: &productID, Name: name,
		Quantity: qty, UnitPrice: price, LineTotal: float64(qty) * price,
	}
}

func manualItem(name string, qty int, price float64) sales.LineItem {
	return sales.LineItem{
		Kind: sales.LineItemManual, Name: name,
		Quantity: qty, UnitPrice: price, LineTotal: float64(qty) * price,
	}
}

func TestComputeSalesMetricsEmpty(t *testing.T) {
	m := ComputeSalesMetrics(nil)
	assert.Equal(t, 0, m.TotalSales)
	assert.Equal(t, 0.0, m.TotalRevenue)
	assert.Equal(t, 0.0, m.AverageOrderValue)
	assert.NotNil(t, m.TopProducts)
	assert.Empty(t, m.TopProducts)
}

func TestComputeSalesMetricsSinglePass(t *testing.T) {
	m := ComputeSalesMetrics([]sales.Sale{
		saleWith(1000, catalogItem(1, "Screen Protector", 1, 500), manualItem("Fitting charge", 2, 250)),
		saleWith(600, catalogItem(1, "Screen Protector", 1, 500), catalogItem(2, "Cable", 1, 100)),
	})

	assert.Equal(t, 2, m.TotalSales)
	assert.Equal(t, 1600.0, m.TotalRevenue)
	assert.Equal(t, 5, m.TotalItemsSold)
	assert.Equal(t, 800.0, m.AverageOrderValue)

	require.Len(t, m.TopProducts, 3)
	// Ranked by unit count; ties keep first-encountered order.
	assert.Equal(t, "Screen Protector", m.TopProducts[0].Name)
	assert.Equal(t, 2, m.TopProducts[0].Quantity)
	assert.Equal(t, 1000.0, m.TopProducts[0].Revenue)
	assert.Equal(t, "Fitting charge", m.TopProducts[1].Name)
	assert.Equal(t, "Cable", m.TopProducts[2].Name)
}

func TestTopProductsCappedAtFiveInsertionStable(t *testing.T) {
	var list []sales.Sale
	names := []string{"A", "B", "C", "D", "E", "F", "G"}
	for _, name := range names {
		list = append(list, saleWith(10, manualItem(name, 1, 10)))
	}

	m := ComputeSalesMetrics(list)
	require.Len(t, m.TopProducts, 5)
	for i := 0; i < 5; i++ {
		assert.Equal(t, names[i], m.TopProducts[i].Name)
	}
}

func TestUnknownProductBucket(t *testing.T) {
	nameless := sales.LineItem{Kind: sales.LineItemCatalog, Quantity: 3, UnitPrice: 10, LineTotal: 30}
	m := ComputeSalesMetrics([]sales.Sale{saleWith(30, nameless)})

	require.Len(t, m.TopProducts, 1)
	assert.Equal(t, unknownProduct, m.TopProducts[0].Name)
	assert.Equal(t, 3, m.TopProducts[0].Quantity)
	assert.Equal(t, 30.0, m.TopProducts[0].Revenue)
}

func repairWith(store int64, issue string, status repairs.RepairStatus, total float64, days int) repairs.Repair {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	rep := repairs.Repair{
		StoreID:   store,
		Issue:     issue,
		Status:    status,
		Costs:     repairs.CostBreakdown{TotalCost: total},
		CreatedAt: created,
	}
	if status == repairs.StatusDelivered && days >= 0 {
		completed := created.AddDate(0, 0, days)
		rep.CompletedAt = &completed
	}
	return rep
}

func TestComputeRepairMetrics(t *testing.T) {
	m := ComputeRepairMetrics([]repairs.Repair{
		repairWith(1, "cracked screen", repairs.StatusDelivered, 1500, 2),
		repairWith(1, "cracked screen", repairs.StatusInRepair, 900, 0),
		repairWith(2, "battery drain", repairs.StatusDelivered, 800, 4),
	})

	assert.Equal(t, 3, m.TotalRepairs)
	assert.Equal(t, 2, m.CompletedRepairs)
	assert.Equal(t, 2300.0, m.TotalRevenue)
	assert.Equal(t, 3.0, m.AverageRepairTimeDays)

	require.Len(t, m.TopIssues, 2)
	assert.Equal(t, "cracked screen", m.TopIssues[0].Issue)
	assert.Equal(t, 2, m.TopIssues[0].Count)

	require.Len(t, m.PerStoreBreakdown, 2)
	assert.Equal(t, int64(1), m.PerStoreBreakdown[0].StoreID)
	assert.Equal(t, 2, m.PerStoreBreakdown[0].TotalRepairs)
	assert.Equal(t, 1, m.PerStoreBreakdown[0].CompletedRepairs)
	assert.Equal(t, 1500.0, m.PerStoreBreakdown[0].Revenue)
}

func TestAverageRepairTimeRoundsUpPartialDays(t *testing.T) {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	completed := created.Add(26 * time.Hour)
	rep := repairs.Repair{
		Status:      repairs.StatusDelivered,
		CreatedAt:   created,
		CompletedAt: &completed,
	}

	m := ComputeRepairMetrics([]repairs.Repair{rep})
	assert.Equal(t, 2.0, m.AverageRepairTimeDays)
}

func TestAverageRepairTimeSkipsUntimedCompletions(t *testing.T) {
	untimed := repairs.Repair{Status: repairs.StatusDelivered, CreatedAt: time.Now()}
	m := ComputeRepairMetrics([]repairs.Repair{untimed})
	assert.Equal(t, 1, m.CompletedRepairs)
	assert.Equal(t, 0.0, m.AverageRepairTimeDays)
}

func TestTopIssuesGroupByRawString(t *testing.T) {
	m := ComputeRepairMetrics([]repairs.Repair{
		repairWith(1, "Broken Screen", repairs.StatusReceived, 0, -1),
		repairWith(1, "broken screen", repairs.StatusReceived, 0, -1),
	})

	// Exact-match grouping: casing variants stay separate buckets.
	require.Len(t, m.TopIssues, 2)
	assert.Equal(t, 1, m.TopIssues[0].Count)
	assert.Equal(t, 1, m.TopIssues[1].Count)
}
