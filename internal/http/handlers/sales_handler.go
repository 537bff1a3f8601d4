// Sales HTTP handlers.
//
// This file exposes REST endpoints for sale resources:
//   - POST /sales                      (record a sale)
//   - GET  /stores/{id}/sales          (recent sales for a store)
//   - GET  /stores/{id}/sales/{saleID} (one committed sale)
//
// Handlers are transport-thin: they validate input shape, call application
// services, and translate results into HTTP responses. Business validation
// (quantities, stock, region resolution) belongs to the services.
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmarkou/go-sales-backend/internal/domain"
	"github.com/dmarkou/go-sales-backend/internal/services"
	"github.com/dmarkou/go-sales-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// SalesService defines the sale operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type SalesService interface {
	// RecordSale commits a sale for storeID in one shard transaction.
	RecordSale(ctx context.Context, storeID int, userID string, items []services.SaleItemInput, idempotencyKey string) (*domain.Sale, error)
	// RecentSales returns the newest sales for a store, items included.
	RecentSales(ctx context.Context, storeID, limit int) ([]domain.Sale, error)
	// GetSale loads one committed sale by id on the store's shard.
	GetSale(ctx context.Context, storeID int, saleID string) (*domain.Sale, error)
}

// ProductService defines catalog reads consumed by HTTP handlers.
type ProductService interface {
	// ProductsByStore returns the catalog of the region owning storeID.
	ProductsByStore(ctx context.Context, storeID int) ([]domain.Product, error)
}

// ReportService defines cross-region reporting consumed by HTTP handlers.
type ReportService interface {
	// GenerateSalesReport aggregates sales for the stores across regions.
	GenerateSalesReport(ctx context.Context, storeIDs []int, from, to time.Time) (*domain.Report, error)
}

// HealthService defines the shard health probe consumed by HTTP handlers.
type HealthService interface {
	// Check probes every region's replica and classifies latency.
	Check(ctx context.Context) *domain.HealthReport
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for sales, products, reports, and the
// shard health probe. It depends on abstract service interfaces to keep
// transport concerns separate from business logic.
type Handlers struct {
	salesSvc   SalesService
	productSvc ProductService
	reportSvc  ReportService
	healthSvc  HealthService
}

// New constructs a Handlers instance bound to the given services.
func New(salesSvc SalesService, productSvc ProductService, reportSvc ReportService, healthSvc HealthService) *Handlers {
	return &Handlers{salesSvc: salesSvc, productSvc: productSvc, reportSvc: reportSvc, healthSvc: healthSvc}
}

//
// DTOs
//

// HeaderIdempotencyKey is the request header carrying an optional
// client-chosen retry token for sale recording.
const HeaderIdempotencyKey = "Idempotency-Key"

// maxRecentSalesLimit caps the page size a client may request.
const maxRecentSalesLimit = 500

// RecordSaleRequest is the JSON payload for recording a sale. The request
// arrives pre-authenticated; user_id identifies the acting cashier as
// asserted by the upstream gateway.
type RecordSaleRequest struct {
	StoreID int                       `json:"store_id" binding:"required"`
	UserID  string                    `json:"user_id"  binding:"required"`
	Items   []services.SaleItemInput  `json:"items"`
}

// RecordSale handles POST /sales.
//
// An optional Idempotency-Key header makes the request safely retryable:
// replaying the same key returns the originally committed sale.
func (h *Handlers) RecordSale(c *gin.Context) {
	var req RecordSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}

	key := strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey))
	sale, err := h.salesSvc.RecordSale(c.Request.Context(), req.StoreID, req.UserID, req.Items, key)
	if err != nil {
		failFromError(c, err)
		return
	}
	ok(c, http.StatusCreated, sale)
}

// RecentSales handles GET /stores/:id/sales?limit=N.
func (h *Handlers) RecentSales(c *gin.Context) {
	storeID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "store id must be an integer")
		return
	}
	limit := utils.Clamp(utils.AtoiDefault(c.Query("limit"), 0), 0, maxRecentSalesLimit)

	sales, err := h.salesSvc.RecentSales(c.Request.Context(), storeID, limit)
	if err != nil {
		failFromError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"store_id": storeID, "sales": sales})
}

// GetSale handles GET /stores/:id/sales/:saleID.
func (h *Handlers) GetSale(c *gin.Context) {
	storeID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "store id must be an integer")
		return
	}

	sale, err := h.salesSvc.GetSale(c.Request.Context(), storeID, c.Param("saleID"))
	if err != nil {
		failFromError(c, err)
		return
	}
	ok(c, http.StatusOK, sale)
}
