// Package domain – reporting and health DTOs.
//
// These shapes are ephemeral: they are assembled per request from fan-out
// results and never persisted. They are shared between the service and HTTP
// layers so the API response mirrors the aggregation exactly.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StoreSalesRow is one aggregated row of a sales report: totals for a single
// store within the requested date range, as returned by its owning region.
type StoreSalesRow struct {
	StoreID        int             `json:"store_id"`
	TotalSales     int64           `json:"total_sales"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	TotalItemsSold int64           `json:"total_items_sold"`
}

// TopProductRow is one entry of a region's best-seller list for the
// requested date range.
type TopProductRow struct {
	ProductID     int64           `json:"product_id"`
	Name          string          `json:"name"`
	TotalQuantity int64           `json:"total_quantity"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// RegionReport is the per-region breakdown of a sales report: the stores the
// caller requested from that region and the aggregated rows the region
// returned for them.
type RegionReport struct {
	Region      string          `json:"region"`
	Stores      []int           `json:"stores"`
	Rows        []StoreSalesRow `json:"rows"`
	TopProducts []TopProductRow `json:"top_products,omitempty"`
}

// ReportSummary is the commutative fold over every successful region's rows.
// Failed regions contribute nothing to these figures.
type ReportSummary struct {
	TotalSales     int64           `json:"total_sales"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	TotalItemsSold int64           `json:"total_items_sold"`
}

// FailedRegion names a region whose query failed during fan-out, with the
// error rendered as text. Its data is absent from the report; its presence
// here is the only trace of the failure.
type FailedRegion struct {
	Region string `json:"region"`
	Error  string `json:"error"`
}

// Report is the full multi-store sales report: per-region breakdowns,
// the summary fold, and the list of regions that could not be reached.
// A report request always produces a Report, possibly with partial data.
type Report struct {
	DateFrom      time.Time      `json:"date_from"`
	DateTo        time.Time      `json:"date_to"`
	StoresQueried []int          `json:"stores_queried"`
	Regions       []RegionReport `json:"regions"`
	FailedRegions []FailedRegion `json:"failed_regions"`
	Summary       ReportSummary  `json:"summary"`
}

// RegionHealth is the outcome of probing one region's replica.
// Status is "healthy", "slow", or "unhealthy".
type RegionHealth struct {
	LatencyMs int64  `json:"latency_ms"`
	Status    string `json:"status"`
}

// HealthReport maps every configured region to its probe outcome plus an
// overall classification ("healthy" only when every region is healthy,
// otherwise "degraded").
type HealthReport struct {
	Timestamp time.Time               `json:"timestamp"`
	Regions   map[string]RegionHealth `json:"regions"`
	Overall   string                  `json:"overall_status"`
}
