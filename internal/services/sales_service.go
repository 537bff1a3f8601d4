// Package services – SalesService
//
// This file implements the sale recorder, the highest-value single operation
// of the backend. A sale is one transaction on one shard: for every line
// item, a stock decrement conditioned on sufficient stock followed by the
// item insert, all on one connection acquired from the store's region
// primary. Partial application — some items decremented, others not — is
// impossible by construction: the first failure rolls the whole sequence
// back.
//
// The total amount is always computed here from unit prices and quantities;
// caller-supplied totals are never trusted.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/dmarkou/go-sales-backend/internal/domain"
	"github.com/dmarkou/go-sales-backend/internal/repo"
	"github.com/dmarkou/go-sales-backend/internal/shard"
	"github.com/dmarkou/go-sales-backend/internal/shardmap"
)

// SaleItemInput is one requested line of a sale, as handed over by the
// (already validated and authenticated) transport layer.
type SaleItemInput struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// SalesService records sales and serves per-store sale history.
type SalesService struct {
	Map  *shardmap.Map
	Exec *shard.Executor

	// DefaultRecentLimit bounds RecentSales when the caller passes no limit.
	DefaultRecentLimit int
}

// RecordSale validates the request, resolves the owning region, and commits
// the sale in a single shard transaction. idempotencyKey may be empty; when
// set and already used, the previously committed sale is returned instead
// of recording a second one.
//
// Failure modes: ErrNoItems / ErrInvalidQuantity / ErrInvalidPrice before
// the shard is touched; shard.ErrUnknownStore from resolution; and
// shard.ErrInsufficientStock, shard.ErrTransactionAborted, or
// shard.ErrShardUnavailable from execution. No partial sale is ever visible.
func (s *SalesService) RecordSale(ctx context.Context, storeID int, userID string, items []SaleItemInput, idempotencyKey string) (*domain.Sale, error) {
	tr := otel.Tracer("services/SalesService")
	ctx, span := tr.Start(ctx, "RecordSale",
		trace.WithAttributes(
			attribute.Int("store.id", storeID),
			attribute.String("user.id", userID),
			attribute.Int("sale.items", len(items)),
		),
	)
	defer span.End()

	if len(items) == 0 {
		return nil, ErrNoItems
	}
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if it.UnitPrice.IsNegative() {
			return nil, ErrInvalidPrice
		}
	}

	region, err := s.Map.Resolve(storeID)
	if err != nil {
		return nil, err
	}

	sale := s.buildSale(storeID, userID, items, idempotencyKey)
	stmts := buildSaleStatements(sale)

	if _, err := s.Exec.RunTransaction(ctx, region, stmts); err != nil {
		if idempotencyKey != "" && isDuplicateKey(err) {
			return s.replaySale(ctx, region, idempotencyKey)
		}
		return nil, err
	}
	return sale, nil
}

// buildSale assembles the committed shape of the sale: server-assigned
// UUIDs, UTC timestamp, and the recomputed total.
func (s *SalesService) buildSale(storeID int, userID string, items []SaleItemInput, idempotencyKey string) *domain.Sale {
	now := time.Now().UTC()
	sale := &domain.Sale{
		ID:          uuid.NewString(),
		StoreID:     storeID,
		UserID:      userID,
		TotalAmount: decimal.Zero,
		CreatedAt:   now,
	}
	if idempotencyKey != "" {
		sale.IdempotencyKey = &idempotencyKey
	}
	for _, it := range items {
		lineTotal := it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		sale.Items = append(sale.Items, domain.SaleItem{
			ID:         uuid.NewString(),
			SaleID:     sale.ID,
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			TotalPrice: lineTotal,
			CreatedAt:  now,
		})
		sale.TotalAmount = sale.TotalAmount.Add(lineTotal)
	}
	return sale
}

// buildSaleStatements turns a sale into the ordered statement sequence for
// the transaction executor: the sale header first (FK parent), then per
// item a conditional stock decrement and the item insert. The decrement's
// affected-row count is the sufficiency check — zero rows means unknown
// product or insufficient stock, and the Check aborts the transaction with
// that product's id.
func buildSaleStatements(sale *domain.Sale) []shard.Statement {
	stmts := make([]shard.Statement, 0, 1+2*len(sale.Items))

	stmts = append(stmts, shard.Statement{
		SQL: `INSERT INTO sales (id, store_id, user_id, total_amount, idempotency_key, created_at)
		      VALUES (?, ?, ?, ?, ?, ?)`,
		Args: []any{sale.ID, sale.StoreID, sale.UserID, sale.TotalAmount, sale.IdempotencyKey, sale.CreatedAt},
	})

	for _, item := range sale.Items {
		productID := item.ProductID
		stmts = append(stmts, shard.Statement{
			SQL:  `UPDATE products SET stock = stock - ?, updated_at = ? WHERE id = ? AND stock >= ?`,
			Args: []any{item.Quantity, sale.CreatedAt, item.ProductID, item.Quantity},
			Check: func(res shard.Result) error {
				if res.RowsAffected == 0 {
					return shard.InsufficientStock(productID)
				}
				return nil
			},
		})
		stmts = append(stmts, shard.Statement{
			SQL: `INSERT INTO sale_items (id, sale_id, product_id, quantity, unit_price, total_price, created_at)
			      VALUES (?, ?, ?, ?, ?, ?, ?)`,
			Args: []any{item.ID, item.SaleID, item.ProductID, item.Quantity, item.UnitPrice, item.TotalPrice, item.CreatedAt},
		})
	}
	return stmts
}

// replaySale fetches the sale previously committed under an idempotency key.
// It reads the primary: the committed row may not have reached the replica
// yet, and returning "not found" for a key we just collided on would be a
// lie.
func (s *SalesService) replaySale(ctx context.Context, region shard.Region, key string) (*domain.Sale, error) {
	db, err := s.Exec.Registry().Get(region, shard.RolePrimary)
	if err != nil {
		return nil, err
	}
	sale, err := repo.SaleByIdempotencyKey(ctx, db, key)
	if err != nil {
		return nil, shard.Classify(region, err)
	}
	return sale, nil
}

// RecentSales returns the newest sales for one store from the region's
// replica, items included. limit <= 0 falls back to the configured default.
func (s *SalesService) RecentSales(ctx context.Context, storeID, limit int) ([]domain.Sale, error) {
	tr := otel.Tracer("services/SalesService")
	ctx, span := tr.Start(ctx, "RecentSales",
		trace.WithAttributes(
			attribute.Int("store.id", storeID),
			attribute.Int("limit", limit),
		),
	)
	defer span.End()

	if limit <= 0 {
		limit = s.DefaultRecentLimit
	}
	if limit <= 0 {
		limit = 50
	}

	region, err := s.Map.Resolve(storeID)
	if err != nil {
		return nil, err
	}
	db, err := s.Exec.Registry().Get(region, shard.RoleReplica)
	if err != nil {
		return nil, err
	}
	sales, err := repo.RecentSales(ctx, db, storeID, limit)
	if err != nil {
		return nil, shard.Classify(region, err)
	}
	return sales, nil
}

// GetSale loads one committed sale by id for a store, items included. The
// store resolves the shard; a sale committed elsewhere (or never) yields
// ErrSaleNotFound.
func (s *SalesService) GetSale(ctx context.Context, storeID int, saleID string) (*domain.Sale, error) {
	region, err := s.Map.Resolve(storeID)
	if err != nil {
		return nil, err
	}
	db, err := s.Exec.Registry().Get(region, shard.RoleReplica)
	if err != nil {
		return nil, err
	}
	sale, err := repo.GetSale(ctx, db, saleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, shard.Classify(region, err)
	}
	if sale.StoreID != storeID {
		return nil, ErrSaleNotFound
	}
	return sale, nil
}

// isDuplicateKey reports whether an execution error stems from the unique
// index on the idempotency key. MySQL says "Duplicate entry", SQLite says
// "UNIQUE constraint failed"; both arrive wrapped in the taxonomy chain.
func isDuplicateKey(err error) bool {
	if err == nil || !errors.Is(err, shard.ErrQueryRejected) {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate entry") || strings.Contains(msg, "unique constraint")
}
