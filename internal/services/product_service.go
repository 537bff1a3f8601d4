// Package services – ProductService
package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmarkou/go-sales-backend/internal/domain"
	"github.com/dmarkou/go-sales-backend/internal/repo"
	"github.com/dmarkou/go-sales-backend/internal/shard"
	"github.com/dmarkou/go-sales-backend/internal/shardmap"
)

// ProductService serves the per-region product catalog.
type ProductService struct {
	Map  *shardmap.Map
	Exec *shard.Executor
}

// ProductsByStore returns the catalog (with live stock) of the region owning
// the given store, read from the replica.
func (s *ProductService) ProductsByStore(ctx context.Context, storeID int) ([]domain.Product, error) {
	tr := otel.Tracer("services/ProductService")
	ctx, span := tr.Start(ctx, "ProductsByStore",
		trace.WithAttributes(attribute.Int("store.id", storeID)),
	)
	defer span.End()

	region, err := s.Map.Resolve(storeID)
	if err != nil {
		return nil, err
	}
	db, err := s.Exec.Registry().Get(region, shard.RoleReplica)
	if err != nil {
		return nil, err
	}
	products, err := repo.ListProducts(ctx, db)
	if err != nil {
		return nil, shard.Classify(region, err)
	}
	return products, nil
}
