package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dmarkou/go-sales-backend/internal/domain"
	"github.com/dmarkou/go-sales-backend/internal/shard"
)

func TestProductsByStore_RegionCatalog(t *testing.T) {
	m, exec := newFixture(t, testRegion("north", 1, 7), testRegion("south", 8, 14))
	seedProduct(t, exec, "north", domain.Product{ID: 1, Name: "Kettle", Price: price("30.00"), Stock: 4})
	seedProduct(t, exec, "north", domain.Product{ID: 2, Name: "Apron", Price: price("12.00"), Stock: 9})
	seedProduct(t, exec, "south", domain.Product{ID: 3, Name: "Whisk", Price: price("6.00"), Stock: 2})

	svc := &ProductService{Map: m, Exec: exec}

	products, err := svc.ProductsByStore(context.Background(), 5)
	if err != nil {
		t.Fatalf("ProductsByStore: %v", err)
	}
	// Only north's catalog, ordered by name.
	if len(products) != 2 || products[0].Name != "Apron" || products[1].Name != "Kettle" {
		t.Fatalf("products = %+v", products)
	}

	products, err = svc.ProductsByStore(context.Background(), 10)
	if err != nil {
		t.Fatalf("ProductsByStore south: %v", err)
	}
	if len(products) != 1 || products[0].Name != "Whisk" {
		t.Fatalf("south products = %+v", products)
	}
}

func TestProductsByStore_UnknownStore(t *testing.T) {
	m, exec := newFixture(t, testRegion("north", 1, 7))
	svc := &ProductService{Map: m, Exec: exec}

	_, err := svc.ProductsByStore(context.Background(), 42)
	if !errors.Is(err, shard.ErrUnknownStore) {
		t.Fatalf("err = %v, want ErrUnknownStore", err)
	}
}
