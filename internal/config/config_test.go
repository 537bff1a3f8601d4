package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load with defaults: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.APIBasePath != "/api/v1" {
		t.Errorf("APIBasePath = %q, want /api/v1", cfg.APIBasePath)
	}
	if cfg.Shards.Driver != "mysql" {
		t.Errorf("Driver = %q, want mysql", cfg.Shards.Driver)
	}
	if cfg.MaxReportStores != 10 {
		t.Errorf("MaxReportStores = %d, want 10", cfg.MaxReportStores)
	}
	if cfg.HealthSlowAfter != time.Second {
		t.Errorf("HealthSlowAfter = %v, want 1s", cfg.HealthSlowAfter)
	}
}

func TestLoad_RegionDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []struct {
		name         string
		from, to     int
		pPort, rPort int
	}{
		{"north", 1, 7, 3306, 3307},
		{"south", 8, 14, 3308, 3309},
		{"east", 15, 20, 3310, 3311},
	}
	if len(cfg.Shards.Regions) != len(want) {
		t.Fatalf("regions = %d, want %d", len(cfg.Shards.Regions), len(want))
	}
	for i, w := range want {
		rc := cfg.Shards.Regions[i]
		if rc.Name != w.name || rc.StoreFrom != w.from || rc.StoreTo != w.to {
			t.Errorf("region[%d] = %s %d-%d, want %s %d-%d", i, rc.Name, rc.StoreFrom, rc.StoreTo, w.name, w.from, w.to)
		}
		if rc.Primary.Port != w.pPort || rc.Replica.Port != w.rPort {
			t.Errorf("region %s ports = %d/%d, want %d/%d", rc.Name, rc.Primary.Port, rc.Replica.Port, w.pPort, w.rPort)
		}
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_NORTH_PRIMARY_HOST", "db-north")
	t.Setenv("DB_NORTH_PRIMARY_PORT", "13306")
	t.Setenv("DB_NORTH_PRIMARY_POOL_SIZE", "42")
	t.Setenv("DB_NAME_PREFIX", "retail")
	t.Setenv("API_BASE_PATH", "api/v2/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	north := cfg.Shards.Regions[0]
	if north.Primary.Host != "db-north" || north.Primary.Port != 13306 {
		t.Errorf("north primary = %s:%d", north.Primary.Host, north.Primary.Port)
	}
	if north.Primary.MaxOpenConns != 42 {
		t.Errorf("north pool size = %d, want 42", north.Primary.MaxOpenConns)
	}
	if north.Primary.Database != "retail_north" {
		t.Errorf("north database = %q, want retail_north", north.Primary.Database)
	}
	if cfg.APIBasePath != "/api/v2" {
		t.Errorf("APIBasePath = %q, want /api/v2 (normalized)", cfg.APIBasePath)
	}
}

func TestLoad_OverlappingRangesRejected(t *testing.T) {
	// Stretching north into south's range must refuse to boot.
	t.Setenv("STORES_NORTH_TO", "9")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for overlapping store ranges")
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for bad LOG_LEVEL")
	}
}

func validShards() ShardsConfig {
	return ShardsConfig{
		Driver:         "sqlite",
		AcquireTimeout: time.Second,
		Regions: []RegionConfig{
			{
				Name: "north", StoreFrom: 1, StoreTo: 7,
				Primary: DBRoleConfig{DSN: "file:n?mode=memory", MaxOpenConns: 5},
				Replica: DBRoleConfig{DSN: "file:n?mode=memory", MaxOpenConns: 5},
			},
		},
	}
}

func TestValidateShards(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*ShardsConfig)
		wantErr string
	}{
		{"ok", func(sc *ShardsConfig) {}, ""},
		{"bad driver", func(sc *ShardsConfig) { sc.Driver = "postgres" }, "DB_DRIVER"},
		{"zero acquire timeout", func(sc *ShardsConfig) { sc.AcquireTimeout = 0 }, "DB_ACQUIRE_TIMEOUT"},
		{"no regions", func(sc *ShardsConfig) { sc.Regions = nil }, "at least one region"},
		{"empty name", func(sc *ShardsConfig) { sc.Regions[0].Name = " " }, "name must not be empty"},
		{"duplicate region", func(sc *ShardsConfig) {
			sc.Regions = append(sc.Regions, sc.Regions[0])
		}, "configured twice"},
		{"inverted range", func(sc *ShardsConfig) { sc.Regions[0].StoreTo = 0 }, "invalid store range"},
		{"overlap", func(sc *ShardsConfig) {
			dup := sc.Regions[0]
			dup.Name = "south"
			dup.StoreFrom, dup.StoreTo = 7, 10
			sc.Regions = append(sc.Regions, dup)
		}, "assigned to both"},
		{"pool too small", func(sc *ShardsConfig) { sc.Regions[0].Replica.MaxOpenConns = 0 }, "pool size"},
		{"sqlite needs DSN", func(sc *ShardsConfig) { sc.Regions[0].Primary.DSN = "" }, "requires an explicit DSN"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sc := validShards()
			tc.mutate(&sc)
			err := ValidateShards(sc)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestNormalizeBasePath(t *testing.T) {
	cases := map[string]string{
		"":         "/",
		"/":        "/",
		"api":      "/api",
		"/api/v1/": "/api/v1",
		" /x ":     "/x",
	}
	for in, want := range cases {
		if got := normalizeBasePath(in); got != want {
			t.Errorf("normalizeBasePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSplitCSV(t *testing.T) {
	got := splitCSV("a, b ,,c")
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("splitCSV = %v", got)
	}
	if splitCSV("") != nil {
		t.Error("splitCSV(\"\") should be nil")
	}
}
