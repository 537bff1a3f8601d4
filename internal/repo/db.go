// Package repo implements the persistence helpers shared by every shard:
// database bootstrapping (driver selection, pragmas, pool limits, tracing)
// and thin typed queries over the per-region schema. Business rules live in
// the services package; everything here is persistence and simple query
// composition.
package repo

import (
	"fmt"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/dmarkou/go-sales-backend/internal/config"
	"github.com/dmarkou/go-sales-backend/internal/domain"
)

// Open opens one (region, role) database target and applies pool limits and
// tracing. It satisfies shard.Opener, so the registry can build its pool
// table without knowing about drivers.
//
// mysql is the production driver; sqlite (pure Go) backs development and
// tests, where each "shard" is just a separate database file or a
// shared-cache in-memory DSN.
func Open(driver string, rc config.DBRoleConfig) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	gcfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}

	switch driver {
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			rc.User, rc.Password, rc.Host, rc.Port, rc.Database)
		db, err = gorm.Open(mysql.Open(dsn), gcfg)
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(rc.DSN), gcfg)
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
	if err != nil {
		return nil, err
	}

	if driver == "sqlite" {
		// PRAGMAs
		db.Exec("PRAGMA journal_mode=WAL;")
		db.Exec("PRAGMA synchronous=NORMAL;")
		db.Exec("PRAGMA foreign_keys=ON;")
		db.Exec("PRAGMA busy_timeout=5000;")
	}

	// Pool
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(rc.MaxOpenConns)
		sqlDB.SetMaxIdleConns(rc.MaxIdleConns)
		if rc.ConnMaxIdleTime > 0 {
			sqlDB.SetConnMaxIdleTime(rc.ConnMaxIdleTime)
		} else {
			sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		}
		if rc.ConnMaxLifetime > 0 {
			sqlDB.SetConnMaxLifetime(rc.ConnMaxLifetime)
		} else {
			sqlDB.SetConnMaxLifetime(30 * time.Minute)
		}
	}

	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}

	return db, nil
}

// AutoMigrate applies the per-shard schema. Run against every region's
// primary at deploy time (cmd/seeder does this for development shards).
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Product{},
		&domain.Sale{},
		&domain.SaleItem{},
	)
}
