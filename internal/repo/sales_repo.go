// Package repo – sale reads.
//
// Sale writes never go through this file: they are composed as raw statement
// sequences for the transaction executor so that stock decrements, item
// inserts, and the sale header share one connection and one transaction.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/dmarkou/go-sales-backend/internal/domain"
)

// RecentSales returns the newest sales for one store, items included,
// newest first. Intended for replica handles.
func RecentSales(ctx context.Context, db *gorm.DB, storeID, limit int) ([]domain.Sale, error) {
	var sales []domain.Sale
	err := db.WithContext(ctx).
		Preload("Items").
		Where("store_id = ?", storeID).
		Order("created_at DESC").
		Limit(limit).
		Find(&sales).Error
	return sales, err
}

// GetSale loads one committed sale with its items, or gorm.ErrRecordNotFound.
func GetSale(ctx context.Context, db *gorm.DB, id string) (*domain.Sale, error) {
	var sale domain.Sale
	if err := db.WithContext(ctx).Preload("Items").First(&sale, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

// SaleByIdempotencyKey loads the sale previously committed under the given
// idempotency key, or gorm.ErrRecordNotFound if the key is unused.
func SaleByIdempotencyKey(ctx context.Context, db *gorm.DB, key string) (*domain.Sale, error) {
	var sale domain.Sale
	if err := db.WithContext(ctx).Preload("Items").First(&sale, "idempotency_key = ?", key).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}
