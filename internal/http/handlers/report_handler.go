// Report, product, and health HTTP handlers.
//
//   - POST /reports/sales          (multi-store report across regions)
//   - GET  /stores/{id}/products   (region catalog for a store)
//   - GET  /performance            (per-region replica latency probe)
//
// Report responses are structurally always 200: regions that failed are
// listed in failed_regions with their data absent, never turned into a
// request-level error.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// SalesReportRequest is the JSON payload for generating a report.
// Dates accept RFC 3339 or plain YYYY-MM-DD.
type SalesReportRequest struct {
	StoreIDs []int  `json:"store_ids" binding:"required"`
	DateFrom string `json:"date_from" binding:"required"`
	DateTo   string `json:"date_to"   binding:"required"`
}

// GenerateReport handles POST /reports/sales.
func (h *Handlers) GenerateReport(c *gin.Context) {
	var req SalesReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}

	from, err := parseDate(req.DateFrom, false)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "date_from: "+err.Error())
		return
	}
	to, err := parseDate(req.DateTo, true)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "date_to: "+err.Error())
		return
	}

	report, err := h.reportSvc.GenerateSalesReport(c.Request.Context(), req.StoreIDs, from, to)
	if err != nil {
		failFromError(c, err)
		return
	}
	ok(c, http.StatusOK, report)
}

// ProductsByStore handles GET /stores/:id/products.
func (h *Handlers) ProductsByStore(c *gin.Context) {
	storeID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "store id must be an integer")
		return
	}

	products, err := h.productSvc.ProductsByStore(c.Request.Context(), storeID)
	if err != nil {
		failFromError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"store_id": storeID, "products": products})
}

// Performance handles GET /performance. It never fails: unreachable regions
// are reported unhealthy inside the payload.
func (h *Handlers) Performance(c *gin.Context) {
	ok(c, http.StatusOK, h.healthSvc.Check(c.Request.Context()))
}

// parseDate accepts RFC 3339 timestamps or bare dates. Bare dates mark the
// start of the day; when end is true they mark the last instant instead, so
// an inclusive "2026-01-01".."2026-01-31" range covers the whole month.
func parseDate(s string, end bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	if end {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
