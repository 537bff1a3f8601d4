// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server settings,
// logging, observability, and — most importantly — the static shard layout:
// which regions exist, the primary/replica database targets for each, and
// which store ids belong to which region.
//
// The shard layout is immutable for the process lifetime. A referenced but
// unconfigured region, an empty store range, or overlapping ranges are
// startup-fatal conditions: the process must refuse to boot rather than
// route traffic to the wrong shard.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DBRoleConfig holds the connection parameters for one (region, role)
// database target.
//
// For the mysql driver the DSN is assembled from Host/Port/User/Password/
// Database. For the sqlite driver (development and tests) DSN is used
// verbatim and the other target fields are ignored.
type DBRoleConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	DSN      string // sqlite only: full DSN, e.g. "file:north.db" or a shared-cache memory DSN

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// RegionConfig describes one region: its name, the inclusive store id range
// assigned to it, and its primary/replica targets.
type RegionConfig struct {
	Name      string
	StoreFrom int // first store id owned by this region (inclusive)
	StoreTo   int // last store id owned by this region (inclusive)
	Primary   DBRoleConfig
	Replica   DBRoleConfig
}

// ShardsConfig is the full shard layout plus cross-cutting database knobs.
type ShardsConfig struct {
	Driver         string        // "mysql" | "sqlite"
	AcquireTimeout time.Duration // upper bound on connection acquisition per operation
	Regions        []RegionConfig
}

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-sales-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / API
	LogLevel    string // debug|info|warn|error|fatal|panic
	LogPretty   bool   // pretty console logs in dev
	APIBasePath string // base path for API routes

	// Shards
	Shards ShardsConfig

	// Reporting / health
	MaxReportStores  int           // cap on store ids per report request
	RecentSalesLimit int           // default page size for recent sales
	HealthSlowAfter  time.Duration // replica round-trips above this are "slow"

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS CORSConfig

	// Observability
	OTEL OTELConfig
}

// regionDefaults mirrors the historical deployment layout: three regions,
// stores 1-7 north, 8-14 south, 15-20 east, with consecutive port pairs for
// primary/replica starting at 3306.
var regionDefaults = []struct {
	name        string
	from, to    int
	primaryPort int
	replicaPort int
}{
	{"north", 1, 7, 3306, 3307},
	{"south", 8, 14, 3308, 3309},
	{"east", 15, 20, 3310, 3311},
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / API
		LogLevel:    strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:   getbool("LOG_PRETTY", false),
		APIBasePath: normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// Shards
		Shards: loadShards(),

		// Reporting / health
		MaxReportStores:  getint("MAX_REPORT_STORES", 10),
		RecentSalesLimit: getint("RECENT_SALES_LIMIT", 50),
		HealthSlowAfter:  getdur("HEALTH_SLOW_THRESHOLD", time.Second),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-sales-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if cfg.MaxReportStores < 1 {
		return cfg, errors.New("MAX_REPORT_STORES must be >= 1")
	}
	if cfg.RecentSalesLimit < 1 {
		return cfg, errors.New("RECENT_SALES_LIMIT must be >= 1")
	}
	if cfg.HealthSlowAfter <= 0 {
		return cfg, errors.New("HEALTH_SLOW_THRESHOLD must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	if err := ValidateShards(cfg.Shards); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// loadShards assembles the shard layout from environment variables,
// falling back to the historical three-region deployment defaults.
// Env keys follow the pattern DB_<REGION>_<ROLE>_<FIELD>, e.g.
// DB_NORTH_PRIMARY_HOST, DB_EAST_REPLICA_PORT. Credentials and the
// database-name prefix are shared across regions (DB_USER, DB_PASSWORD,
// DB_NAME_PREFIX → "<prefix>_<region>").
func loadShards() ShardsConfig {
	sc := ShardsConfig{
		Driver:         strings.ToLower(getenv("DB_DRIVER", "mysql")),
		AcquireTimeout: getdur("DB_ACQUIRE_TIMEOUT", 5*time.Second),
	}

	user := getenv("DB_USER", "root")
	password := getenv("DB_PASSWORD", "password")
	prefix := getenv("DB_NAME_PREFIX", "sales")

	for _, rd := range regionDefaults {
		up := strings.ToUpper(rd.name)
		database := getenv("DB_"+up+"_NAME", prefix+"_"+rd.name)

		role := func(roleKey string, defPort, defOpen int) DBRoleConfig {
			k := "DB_" + up + "_" + roleKey + "_"
			return DBRoleConfig{
				Host:            getenv(k+"HOST", "localhost"),
				Port:            getint(k+"PORT", defPort),
				User:            user,
				Password:        password,
				Database:        database,
				DSN:             getenv(k+"DSN", ""),
				MaxOpenConns:    getint(k+"POOL_SIZE", defOpen),
				MaxIdleConns:    getint(k+"POOL_IDLE", 5),
				ConnMaxLifetime: getdur(k+"CONN_MAX_LIFETIME", 30*time.Minute),
				ConnMaxIdleTime: getdur(k+"CONN_MAX_IDLE_TIME", 5*time.Minute),
			}
		}

		sc.Regions = append(sc.Regions, RegionConfig{
			Name:      rd.name,
			StoreFrom: getint("STORES_"+up+"_FROM", rd.from),
			StoreTo:   getint("STORES_"+up+"_TO", rd.to),
			// Replica pools are sized below primaries so bursty read
			// traffic cannot starve the write path of file descriptors.
			Primary: role("PRIMARY", rd.primaryPort, 20),
			Replica: role("REPLICA", rd.replicaPort, 15),
		})
	}
	return sc
}

// ValidateShards checks a shard layout for the startup-fatal conditions:
// unsupported driver, nameless or duplicate regions, inverted or overlapping
// store ranges, and non-positive pool sizes.
func ValidateShards(sc ShardsConfig) error {
	switch sc.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be mysql or sqlite, got %q", sc.Driver)
	}
	if sc.AcquireTimeout <= 0 {
		return errors.New("DB_ACQUIRE_TIMEOUT must be > 0")
	}
	if len(sc.Regions) == 0 {
		return errors.New("at least one region must be configured")
	}

	seen := map[string]bool{}
	owner := map[int]string{}
	for _, rc := range sc.Regions {
		if strings.TrimSpace(rc.Name) == "" {
			return errors.New("region name must not be empty")
		}
		if seen[rc.Name] {
			return fmt.Errorf("region %q configured twice", rc.Name)
		}
		seen[rc.Name] = true
		if rc.StoreFrom < 1 || rc.StoreTo < rc.StoreFrom {
			return fmt.Errorf("region %q: invalid store range %d-%d", rc.Name, rc.StoreFrom, rc.StoreTo)
		}
		for id := rc.StoreFrom; id <= rc.StoreTo; id++ {
			if other, dup := owner[id]; dup {
				return fmt.Errorf("store %d assigned to both %q and %q", id, other, rc.Name)
			}
			owner[id] = rc.Name
		}
		for _, role := range []DBRoleConfig{rc.Primary, rc.Replica} {
			if role.MaxOpenConns < 1 {
				return fmt.Errorf("region %q: pool size must be >= 1", rc.Name)
			}
			if sc.Driver == "sqlite" && strings.TrimSpace(role.DSN) == "" {
				return fmt.Errorf("region %q: sqlite driver requires an explicit DSN", rc.Name)
			}
		}
	}
	return nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
