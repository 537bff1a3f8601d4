package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmarkou/go-sales-backend/internal/shard"
)

func TestHealthCheck_AllHealthy(t *testing.T) {
	_, exec := newFixture(t, testRegion("north", 1, 7), testRegion("south", 8, 14))
	svc := &HealthService{Exec: exec, SlowAfter: time.Minute}

	report := svc.Check(context.Background())

	if report.Overall != StatusHealthy {
		t.Errorf("overall = %s, want healthy", report.Overall)
	}
	if len(report.Regions) != 2 {
		t.Fatalf("regions = %d, want 2", len(report.Regions))
	}
	for name, rh := range report.Regions {
		if rh.Status != StatusHealthy {
			t.Errorf("region %s = %s, want healthy", name, rh.Status)
		}
		if rh.LatencyMs < 0 {
			t.Errorf("region %s latency = %d", name, rh.LatencyMs)
		}
	}
	if report.Timestamp.IsZero() {
		t.Error("timestamp unset")
	}
}

func TestHealthCheck_SlowClassification(t *testing.T) {
	_, exec := newFixture(t, testRegion("north", 1, 7))

	// Any real round trip exceeds a 1ns threshold.
	svc := &HealthService{Exec: exec, SlowAfter: time.Nanosecond}
	report := svc.Check(context.Background())

	if got := report.Regions["north"].Status; got != StatusSlow {
		t.Errorf("north = %s, want slow", got)
	}
	if report.Overall != StatusDegraded {
		t.Errorf("overall = %s, want degraded", report.Overall)
	}
}

func TestHealthCheck_UnreachableRegionDegrades(t *testing.T) {
	_, exec := newFixture(t, testRegion("north", 1, 7), testRegion("south", 8, 14))

	db, err := exec.Registry().Get("south", shard.RoleReplica)
	if err != nil {
		t.Fatalf("get south replica: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap: %v", err)
	}
	sqlDB.Close()

	svc := &HealthService{Exec: exec, SlowAfter: time.Minute}
	report := svc.Check(context.Background())

	if got := report.Regions["south"].Status; got != StatusUnhealthy {
		t.Errorf("south = %s, want unhealthy", got)
	}
	if got := report.Regions["north"].Status; got != StatusHealthy {
		t.Errorf("north = %s, want healthy despite south being down", got)
	}
	if report.Overall != StatusDegraded {
		t.Errorf("overall = %s, want degraded", report.Overall)
	}
}
