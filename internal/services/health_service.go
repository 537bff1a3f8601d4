// Package services – HealthService
//
// A lightweight performance probe: one trivial statement against every
// region's replica, classified by round-trip latency. The probe never fails
// as a request — an unreachable region is reported unhealthy, and the
// overall status degrades, but the caller always gets a full map.
package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/dmarkou/go-sales-backend/internal/domain"
	"github.com/dmarkou/go-sales-backend/internal/shard"
)

// Health status classifications per region.
const (
	StatusHealthy   = "healthy"
	StatusSlow      = "slow"
	StatusUnhealthy = "unhealthy"
	StatusDegraded  = "degraded"
)

// HealthService probes replica round-trip latency across all regions.
type HealthService struct {
	Exec *shard.Executor

	// SlowAfter is the latency above which a reachable region is
	// classified "slow" instead of "healthy".
	SlowAfter time.Duration
}

// Check probes every configured region's replica concurrently and returns
// the per-region classification plus an overall status: "healthy" only when
// every region is healthy, "degraded" otherwise.
func (s *HealthService) Check(ctx context.Context) *domain.HealthReport {
	tr := otel.Tracer("services/HealthService")
	ctx, span := tr.Start(ctx, "Check")
	defer span.End()

	slowAfter := s.SlowAfter
	if slowAfter <= 0 {
		slowAfter = time.Second
	}

	regions := s.Exec.Registry().Regions()
	outcomes := s.Exec.FanOut(ctx, regions, shard.RoleReplica, "SELECT 1")

	report := &domain.HealthReport{
		Timestamp: time.Now().UTC(),
		Regions:   make(map[string]domain.RegionHealth, len(regions)),
		Overall:   StatusHealthy,
	}
	for region, outcome := range outcomes {
		status := StatusHealthy
		switch {
		case outcome.Err != nil:
			status = StatusUnhealthy
		case outcome.Elapsed > slowAfter:
			status = StatusSlow
		}
		if status != StatusHealthy {
			report.Overall = StatusDegraded
		}
		report.Regions[string(region)] = domain.RegionHealth{
			LatencyMs: outcome.Elapsed.Milliseconds(),
			Status:    status,
		}
	}
	return report
}
