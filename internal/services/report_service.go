// Package services – ReportService
//
// This file implements the multi-store sales report: the one deliberately
// parallel path of the backend. Requested stores are grouped by owning
// region so each region is queried exactly once regardless of how many of
// its stores appear in the request; the per-region queries run concurrently
// and every outcome is captured independently.
//
// A report never fails because one shard is down: failed regions are listed
// by name, excluded from the summary fold, and the call still succeeds with
// the data that exists.
package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmarkou/go-sales-backend/internal/domain"
	"github.com/dmarkou/go-sales-backend/internal/shard"
	"github.com/dmarkou/go-sales-backend/internal/shardmap"
)

const (
	// storeSummarySQL aggregates sales per store for one region. DISTINCT
	// keeps the sale count honest under the item join; item-level sums use
	// the persisted line totals.
	storeSummarySQL = `
		SELECT s.store_id AS store_id,
		       COUNT(DISTINCT s.id) AS total_sales,
		       COALESCE(SUM(si.total_price), 0) AS total_revenue,
		       COALESCE(SUM(si.quantity), 0) AS total_items_sold
		FROM sales s
		LEFT JOIN sale_items si ON si.sale_id = s.id
		WHERE s.store_id IN %s AND s.created_at BETWEEN ? AND ?
		GROUP BY s.store_id
		ORDER BY s.store_id`

	// topProductsSQL lists a region's best sellers for the range.
	topProductsSQL = `
		SELECT si.product_id AS product_id,
		       p.name AS name,
		       SUM(si.quantity) AS total_quantity,
		       SUM(si.total_price) AS total_amount
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		JOIN products p ON p.id = si.product_id
		WHERE s.store_id IN %s AND s.created_at BETWEEN ? AND ?
		GROUP BY si.product_id, p.name
		ORDER BY total_quantity DESC
		LIMIT ?`

	topProductsLimit = 10
)

// ReportService aggregates sales data across regions.
type ReportService struct {
	Map  *shardmap.Map
	Exec *shard.Executor

	// MaxStores caps the number of distinct stores per report request.
	MaxStores int

	// IncludeTopProducts adds a second fan-out round collecting each
	// region's best sellers. The summary fold never depends on it.
	IncludeTopProducts bool
}

// GenerateSalesReport groups the requested stores by region, issues one
// summary query per region concurrently, and folds the successful results
// into the report summary. Failed regions appear in FailedRegions and
// contribute nothing to the fold; the report itself always succeeds once
// validation and store resolution pass.
func (s *ReportService) GenerateSalesReport(ctx context.Context, storeIDs []int, from, to time.Time) (*domain.Report, error) {
	tr := otel.Tracer("services/ReportService")
	ctx, span := tr.Start(ctx, "GenerateSalesReport",
		trace.WithAttributes(attribute.Int("report.stores", len(storeIDs))),
	)
	defer span.End()

	if len(storeIDs) == 0 {
		return nil, ErrNoStores
	}
	if s.MaxStores > 0 && len(storeIDs) > s.MaxStores {
		return nil, ErrTooManyStores
	}
	if to.Before(from) {
		return nil, ErrInvalidDateRange
	}

	groups, err := s.Map.Group(storeIDs)
	if err != nil {
		return nil, err
	}

	queries := make(map[shard.Region]shard.RegionQuery, len(groups))
	for region, stores := range groups {
		sql, args := bindStores(storeSummarySQL, stores, from, to)
		queries[region] = shard.RegionQuery{Role: shard.RoleReplica, SQL: sql, Args: args}
	}
	outcomes := s.Exec.FanOutEach(ctx, queries)

	var topOutcomes map[shard.Region]shard.Outcome
	if s.IncludeTopProducts {
		topQueries := make(map[shard.Region]shard.RegionQuery, len(groups))
		for region, stores := range groups {
			sql, args := bindStores(topProductsSQL, stores, from, to)
			topQueries[region] = shard.RegionQuery{Role: shard.RoleReplica, SQL: sql, Args: append(args, topProductsLimit)}
		}
		topOutcomes = s.Exec.FanOutEach(ctx, topQueries)
	}

	report := &domain.Report{
		DateFrom:      from,
		DateTo:        to,
		StoresQueried: storeIDs,
		Summary:       domain.ReportSummary{TotalRevenue: decimal.Zero},
	}

	for _, region := range sortedRegions(groups) {
		outcome := outcomes[region]
		if outcome.Err != nil {
			report.FailedRegions = append(report.FailedRegions, domain.FailedRegion{
				Region: string(region),
				Error:  outcome.Err.Error(),
			})
			continue
		}

		rr := domain.RegionReport{
			Region: string(region),
			Stores: groups[region],
		}
		for _, row := range outcome.Rows {
			sr := domain.StoreSalesRow{
				StoreID:        int(row.Int64("store_id")),
				TotalSales:     row.Int64("total_sales"),
				TotalRevenue:   row.Decimal("total_revenue"),
				TotalItemsSold: row.Int64("total_items_sold"),
			}
			rr.Rows = append(rr.Rows, sr)

			report.Summary.TotalSales += sr.TotalSales
			report.Summary.TotalRevenue = report.Summary.TotalRevenue.Add(sr.TotalRevenue)
			report.Summary.TotalItemsSold += sr.TotalItemsSold
		}
		if topOutcomes != nil {
			// Best-effort: a failed top-products round degrades to an
			// empty list, it does not fail the region.
			if top := topOutcomes[region]; top.Err == nil {
				for _, row := range top.Rows {
					rr.TopProducts = append(rr.TopProducts, domain.TopProductRow{
						ProductID:     row.Int64("product_id"),
						Name:          row.String("name"),
						TotalQuantity: row.Int64("total_quantity"),
						TotalAmount:   row.Decimal("total_amount"),
					})
				}
			}
		}
		report.Regions = append(report.Regions, rr)
	}

	return report, nil
}

// bindStores expands the IN placeholder list for one region's store set and
// returns the finished SQL plus its arguments (store ids, then the range).
func bindStores(tmpl string, stores []int, from, to time.Time) (string, []any) {
	marks := make([]string, len(stores))
	args := make([]any, 0, len(stores)+2)
	for i, id := range stores {
		marks[i] = "?"
		args = append(args, id)
	}
	sql := strings.Replace(tmpl, "%s", "("+strings.Join(marks, ",")+")", 1)
	return sql, append(args, from, to)
}

// sortedRegions gives the per-region loop a stable order so report payloads
// are deterministic.
func sortedRegions(groups map[shard.Region][]int) []shard.Region {
	out := make([]shard.Region, 0, len(groups))
	for region := range groups {
		out = append(out, region)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
