package reports

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arcadia-retail/arcadia-retail/internal/repairs"
	"github.com/arcadia-retail/arcadia-retail/internal/sales"
	"github.com/arcadia-retail/arcadia-retail/internal/shared"
)

// Store abstracts the aggregate queries for the service.
type Store interface {
	ListSales(ctx context.Context, start, end time.Time, storeID *int64) ([]sales.Sale, error)
	ListRepairs(ctx context.Context, start, end time.Time, storeID *int64) ([]repairs.Repair, error)
	CountActiveRepairs(ctx context.Context, storeID *int64) (int64, error)
	SalesTotals(ctx context.Context, storeID *int64) (int64, float64, error)
}

// CustomerCounter exposes the directory size.
type CustomerCounter interface {
	Count(ctx context.Context) (int64, error)
}

// PeriodReport pairs the resolved window with its metrics.
type PeriodReport struct {
	Period  string        `json:"period"`
	Window  Window        `json:"window"`
	Sales   SalesMetrics  `json:"sales"`
	Repairs RepairMetrics `json:"repairs"`
}

// Summary is the cross-domain operational snapshot.
type Summary struct {
	TotalSales        int64   `json:"totalSales"`
	TotalRevenue      float64 `json:"totalRevenue"`
	ActiveRepairCount int64   `json:"activeRepairCount"`
	TotalCustomers    int64   `json:"totalCustomers"`
}

// Service resolves report windows and computes metrics, caching period
// reports under the versioned cache.
type Service struct {
	store     Store
	customers CustomerCounter
	cache     *Cache
	logger    *slog.Logger
}

// NewService constructs a reporting service.
func NewService(store Store, customers CustomerCounter, cache *Cache, logger *slog.Logger) *Service {
	return &Service{store: store, customers: customers, cache: cache, logger: logger}
}

// Period computes the report for a resolved window, scoped to the
// principal's store visibility. A caller-supplied store filter can only
// narrow an admin's scope, never widen a staff member's.
func (s *Service) Period(ctx context.Context, principal shared.Principal, w Window, storeID *int64) (*PeriodReport, error) {
	scoped := principal.ScopeStore(storeID)

	key, err := s.cache.BuildKey(ctx, "reports", string(w.Granularity), w.Label, storeToken(scoped))
	if err != nil {
		// The cache is an accelerator; compute directly when it misbehaves.
		s.logger.Warn("report cache key unavailable", slog.Any("error", err))
		report, err := s.computePeriod(ctx, w, scoped)
		if err != nil {
			return nil, err
		}
		return report, nil
	}

	var report PeriodReport
	err = s.cache.FetchJSON(ctx, key, &report, func(ctx context.Context) (any, error) {
		return s.computePeriod(ctx, w, scoped)
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// computePeriod loads sales and repairs concurrently and folds both metric
// passes.
func (s *Service) computePeriod(ctx context.Context, w Window, storeID *int64) (*PeriodReport, error) {
	var (
		saleList   []sales.Sale
		repairList []repairs.Repair
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		saleList, err = s.store.ListSales(gctx, w.Start, w.End, storeID)
		return err
	})
	g.Go(func() error {
		var err error
		repairList, err = s.store.ListRepairs(gctx, w.Start, w.End, storeID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &PeriodReport{
		Period:  w.Label,
		Window:  w,
		Sales:   ComputeSalesMetrics(saleList),
		Repairs: ComputeRepairMetrics(repairList),
	}, nil
}

// Summary returns the operational snapshot, scoped like Period.
func (s *Service) Summary(ctx context.Context, principal shared.Principal, storeID *int64) (*Summary, error) {
	scoped := principal.ScopeStore(storeID)

	var summary Summary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count, revenue, err := s.store.SalesTotals(gctx, scoped)
		summary.TotalSales = count
		summary.TotalRevenue = revenue
		return err
	})
	g.Go(func() error {
		count, err := s.store.CountActiveRepairs(gctx, scoped)
		summary.ActiveRepairCount = count
		return err
	})
	g.Go(func() error {
		count, err := s.customers.Count(gctx)
		summary.TotalCustomers = count
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Warm precomputes one period report for every store scope the warmup job
// cares about; only the unscoped report today.
func (s *Service) Warm(ctx context.Context, w Window) error {
	admin := shared.Principal{Role: shared.RoleAdmin}
	_, err := s.Period(ctx, admin, w, nil)
	return err
}
