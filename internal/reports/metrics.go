package reports

import (
	"math"
	"sort"
	"strconv"

	"github.com/arcadia-retail/arcadia-retail/internal/repairs"
	"github.com/arcadia-retail/arcadia-retail/internal/sales"
)

// unknownProduct buckets line items that carry neither a catalog reference
// nor a usable name, so revenue never silently disappears from a report.
const unknownProduct = "Unknown Product"

// ProductCount is one row of the top products ranking.
type ProductCount struct {
	ProductID *int64  `json:"product_id,omitempty"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Revenue   float64 `json:"revenue"`
}

// SalesMetrics summarizes a window of sales.
type SalesMetrics struct {
	TotalSales        int            `json:"totalSales"`
	TotalRevenue      float64        `json:"totalRevenue"`
	TotalItemsSold    int            `json:"totalItemsSold"`
	AverageOrderValue float64        `json:"averageOrderValue"`
	TopProducts       []ProductCount `json:"topProducts"`
}

// ComputeSalesMetrics folds the sale list in a single pass. Top products
// are ranked by unit count with ties broken by first-encountered order and
// capped at five.
func ComputeSalesMetrics(list []sales.Sale) SalesMetrics {
	m := SalesMetrics{TopProducts: []ProductCount{}}
	counts := map[string]*ProductCount{}
	var order []string

	for _, sale := range list {
		m.TotalSales++
		m.TotalRevenue += sale.TotalAmount
		for _, item := range sale.Items {
			m.TotalItemsSold += item.Quantity

			key, name, productID := productKey(item)
			entry, ok := counts[key]
			if !ok {
				entry = &ProductCount{ProductID: productID, Name: name}
				counts[key] = entry
				order = append(order, key)
			}
			entry.Quantity += item.Quantity
			entry.Revenue += item.LineTotal
		}
	}

	if m.TotalSales > 0 {
		m.AverageOrderValue = m.TotalRevenue / float64(m.TotalSales)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]].Quantity > counts[order[j]].Quantity
	})
	for i, key := range order {
		if i == 5 {
			break
		}
		m.TopProducts = append(m.TopProducts, *counts[key])
	}
	return m
}

// productKey groups line items for ranking: by product id for catalog
// items, by raw name for manual entries, with the sentinel bucket for
// items that carry neither.
func productKey(item sales.LineItem) (key, name string, productID *int64) {
	switch {
	case item.ProductID != nil:
		return "p:" + strconv.FormatInt(*item.ProductID, 10), item.Name, item.ProductID
	case item.Name != "":
		return "n:" + item.Name, item.Name, nil
	default:
		return "u:", unknownProduct, nil
	}
}

// IssueCount is one row of the top issues ranking. Grouping is by raw
// string: "Broken Screen" and "broken screen" count separately.
type IssueCount struct {
	Issue string `json:"issue"`
	Count int    `json:"count"`
}

// StoreBreakdown summarizes repairs per store.
type StoreBreakdown struct {
	StoreID          int64   `json:"store_id"`
	TotalRepairs     int     `json:"totalRepairs"`
	CompletedRepairs int     `json:"completedRepairs"`
	Revenue          float64 `json:"revenue"`
}

// RepairMetrics summarizes a window of repairs. Revenue counts delivered
// repairs only.
type RepairMetrics struct {
	TotalRepairs          int              `json:"totalRepairs"`
	CompletedRepairs      int              `json:"completedRepairs"`
	AverageRepairTimeDays float64          `json:"averageRepairTimeDays"`
	TotalRevenue          float64          `json:"totalRevenue"`
	TopIssues             []IssueCount     `json:"topIssues"`
	PerStoreBreakdown     []StoreBreakdown `json:"perStoreBreakdown"`
}

// ComputeRepairMetrics folds the repair list in a single pass. The average
// repair time is taken only over repairs that completed and carry both
// timestamps, in whole days rounded up.
func ComputeRepairMetrics(list []repairs.Repair) RepairMetrics {
	m := RepairMetrics{TopIssues: []IssueCount{}, PerStoreBreakdown: []StoreBreakdown{}}
	issues := map[string]int{}
	var issueOrder []string
	stores := map[int64]*StoreBreakdown{}
	var storeOrder []int64

	var timedDays float64
	var timedCount int

	for _, rep := range list {
		m.TotalRepairs++

		store, ok := stores[rep.StoreID]
		if !ok {
			store = &StoreBreakdown{StoreID: rep.StoreID}
			stores[rep.StoreID] = store
			storeOrder = append(storeOrder, rep.StoreID)
		}
		store.TotalRepairs++

		if rep.Issue != "" {
			if _, seen := issues[rep.Issue]; !seen {
				issueOrder = append(issueOrder, rep.Issue)
			}
			issues[rep.Issue]++
		}

		if rep.Status != repairs.StatusDelivered {
			continue
		}
		m.CompletedRepairs++
		m.TotalRevenue += rep.Costs.TotalCost
		store.CompletedRepairs++
		store.Revenue += rep.Costs.TotalCost

		if rep.CompletedAt != nil && !rep.CreatedAt.IsZero() {
			days := math.Ceil(rep.CompletedAt.Sub(rep.CreatedAt).Hours() / 24)
			if days < 0 {
				days = 0
			}
			timedDays += days
			timedCount++
		}
	}

	if timedCount > 0 {
		m.AverageRepairTimeDays = timedDays / float64(timedCount)
	}

	sort.SliceStable(issueOrder, func(i, j int) bool {
		return issues[issueOrder[i]] > issues[issueOrder[j]]
	})
	for i, issue := range issueOrder {
		if i == 5 {
			break
		}
		m.TopIssues = append(m.TopIssues, IssueCount{Issue: issue, Count: issues[issue]})
	}

	for _, id := range storeOrder {
		m.PerStoreBreakdown = append(m.PerStoreBreakdown, *stores[id])
	}
	return m
}
