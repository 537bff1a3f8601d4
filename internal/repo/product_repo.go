// Package repo – product catalog reads.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/dmarkou/go-sales-backend/internal/domain"
)

// ListProducts returns the region's full catalog with live stock, ordered
// by name. Intended for replica handles.
func ListProducts(ctx context.Context, db *gorm.DB) ([]domain.Product, error) {
	var products []domain.Product
	err := db.WithContext(ctx).Order("name ASC").Find(&products).Error
	return products, err
}

// GetProduct returns one product by id, or gorm.ErrRecordNotFound.
func GetProduct(ctx context.Context, db *gorm.DB, id int64) (*domain.Product, error) {
	var p domain.Product
	if err := db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}
