// Command seeder migrates every region's primary and fills it with sample
// catalog data so the API has something to sell against. Each region gets its
// own independent catalog; product ids are only meaningful within a region.
//
// Usage:
//
//	seeder               # seed every configured region
//	seeder -region north # seed a single region
//	seeder -products 200 # products per region (default 100)
package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/dmarkou/go-sales-backend/internal/config"
	"github.com/dmarkou/go-sales-backend/internal/domain"
	"github.com/dmarkou/go-sales-backend/internal/repo"
	"github.com/dmarkou/go-sales-backend/internal/sysutil"
)

var productAdjectives = []string{
	"Rustic", "Sleek", "Ergonomic", "Handcrafted", "Refined",
	"Practical", "Incredible", "Awesome", "Generic", "Licensed",
}

var productNouns = []string{
	"Chair", "Keyboard", "Lamp", "Backpack", "Bottle",
	"Notebook", "Speaker", "Mug", "Towel", "Charger",
}

var categories = []string{
	"Electronics", "Home", "Garden", "Toys", "Grocery",
	"Clothing", "Sports", "Books", "Health", "Automotive",
}

func main() {
	_ = godotenv.Load()

	only := flag.String("region", "", "seed only this region (default: all)")
	perRegion := flag.Int("products", 100, "products to create per region")
	flag.Parse()

	cfg := config.MustLoad()
	sysutil.SetLogLevel(cfg.LogLevel)

	seeded := 0
	for _, rc := range cfg.Shards.Regions {
		if *only != "" && rc.Name != *only {
			continue
		}
		if err := seedRegion(cfg.Shards.Driver, rc, *perRegion); err != nil {
			log.Error().Err(err).Str("region", rc.Name).Msg("seeding failed")
			os.Exit(1)
		}
		log.Info().Str("region", rc.Name).Int("products", *perRegion).Msg("region seeded")
		seeded++
	}
	if seeded == 0 {
		log.Fatal().Str("region", *only).Msg("no matching region configured")
	}
}

// seedRegion opens the region's primary, runs migrations, and inserts the
// sample catalog in batches.
func seedRegion(driver string, rc config.RegionConfig, count int) error {
	db, err := repo.Open(driver, rc.Primary)
	if err != nil {
		return fmt.Errorf("open primary: %w", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()
	if err := repo.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	products := make([]domain.Product, 0, count)
	for i := 0; i < count; i++ {
		adj := productAdjectives[rand.IntN(len(productAdjectives))]
		noun := productNouns[rand.IntN(len(productNouns))]
		cents := 100 + rand.IntN(99900)
		products = append(products, domain.Product{
			Name:      fmt.Sprintf("%s %s %d", adj, noun, i+1),
			Barcode:   uuid.NewString(),
			Category:  categories[rand.IntN(len(categories))],
			Price:     decimal.New(int64(cents), -2),
			Stock:     rand.IntN(500),
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		})
	}

	return db.CreateInBatches(&products, 100).Error
}
