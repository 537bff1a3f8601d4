// Package domain defines the persistence models for products, sales, and
// sale line items. These types are mapped with GORM and form the per-shard
// schema of the sales backend: every region's database carries the same
// tables, holding only the rows for the stores assigned to that region.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalog entry with live stock for one region.
// Stock is mutated exclusively by the sale-recording transaction; the
// conditional decrement plus the CHECK constraint guarantee it never
// goes negative.
//
// Fields:
//   - ID: numeric product identifier, shared across regions (catalogs are
//     synchronized out of band; stock is region-local).
//   - Name / Barcode / Category: catalog attributes.
//   - Price: current list price (decimal, never float).
//   - Stock: units on hand in this region.
type Product struct {
	ID        int64           `json:"id"         gorm:"primaryKey"`
	Name      string          `json:"name"       gorm:"type:varchar(255);not null"`
	Barcode   string          `json:"barcode"    gorm:"type:varchar(64);index"`
	Category  string          `json:"category"   gorm:"type:varchar(64);index"`
	Price     decimal.Decimal `json:"price"      gorm:"type:decimal(12,2);not null"`
	Stock     int             `json:"stock"      gorm:"not null;default:0;check:stock >= 0"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TableName returns the database table name for Product.
func (Product) TableName() string { return "products" }

// Sale represents one completed transaction for one store. A sale is created
// only by the sale recorder, inside a single shard transaction together with
// its items and the corresponding stock decrements; it is immutable once
// committed and never updated or deleted by this backend.
//
// Fields:
//   - ID: server-assigned UUID primary key (char(36)).
//   - StoreID: the selling store; determines the owning region.
//   - UserID: identifier of the acting cashier/user.
//   - TotalAmount: Σ unit_price × quantity over items, computed server-side.
//   - IdempotencyKey: optional client-supplied key, unique per shard; a
//     replay with the same key returns the original sale instead of
//     recording a second one.
//   - Items: the ordered line items belonging to this sale.
type Sale struct {
	ID             string          `json:"id"           gorm:"type:char(36);primaryKey"`
	StoreID        int             `json:"store_id"     gorm:"not null;index:idx_store_sales,priority:1"`
	UserID         string          `json:"user_id"      gorm:"type:varchar(64);not null;index"`
	TotalAmount    decimal.Decimal `json:"total_amount" gorm:"type:decimal(12,2);not null"`
	IdempotencyKey *string         `json:"-"            gorm:"type:varchar(128);uniqueIndex:ux_sales_idem"`
	CreatedAt      time.Time       `json:"created_at"   gorm:"index:idx_store_sales,priority:2"`

	Items []SaleItem `json:"items" gorm:"foreignKey:SaleID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Sale.
func (Sale) TableName() string { return "sales" }

// SaleItem is one line of a sale: a product, the quantity sold, and the
// price captured at sale time. Line totals are persisted so reporting sums
// never depend on later catalog price changes.
type SaleItem struct {
	ID         string          `json:"id"          gorm:"type:char(36);primaryKey"`
	SaleID     string          `json:"-"           gorm:"type:char(36);not null;index"`
	ProductID  int64           `json:"product_id"  gorm:"not null;index"`
	Quantity   int             `json:"quantity"    gorm:"not null;check:quantity > 0"`
	UnitPrice  decimal.Decimal `json:"unit_price"  gorm:"type:decimal(12,2);not null"`
	TotalPrice decimal.Decimal `json:"total_price" gorm:"type:decimal(12,2);not null"`
	CreatedAt  time.Time       `json:"created_at"`
}

// TableName returns the database table name for SaleItem.
func (SaleItem) TableName() string { return "sale_items" }
