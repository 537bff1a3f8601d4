package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmarkou/go-sales-backend/internal/config"
	"github.com/dmarkou/go-sales-backend/internal/domain"
	"github.com/dmarkou/go-sales-backend/internal/repo"
	"github.com/dmarkou/go-sales-backend/internal/shard"
	"github.com/dmarkou/go-sales-backend/internal/shardmap"
)

// testRegion builds one region over a shared-cache in-memory SQLite DB.
// The primary pool is capped at one connection so concurrent transactions
// serialize at the pool rather than fighting over SQLite table locks.
func testRegion(name string, from, to int) config.RegionConfig {
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString())
	return config.RegionConfig{
		Name: name, StoreFrom: from, StoreTo: to,
		Primary: config.DBRoleConfig{DSN: dsn, MaxOpenConns: 1, MaxIdleConns: 1},
		Replica: config.DBRoleConfig{DSN: dsn, MaxOpenConns: 5, MaxIdleConns: 2},
	}
}

// newFixture wires a migrated registry, executor, and store map over the
// given regions.
func newFixture(t *testing.T, regions ...config.RegionConfig) (*shardmap.Map, *shard.Executor) {
	t.Helper()

	sc := config.ShardsConfig{Driver: "sqlite", AcquireTimeout: 5 * time.Second, Regions: regions}
	registry, err := shard.NewRegistry(sc, repo.Open)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	t.Cleanup(registry.Shutdown)

	for _, rc := range regions {
		db, err := registry.Get(shard.Region(rc.Name), shard.RolePrimary)
		if err != nil {
			t.Fatalf("get %s primary: %v", rc.Name, err)
		}
		if err := repo.AutoMigrate(db); err != nil {
			t.Fatalf("migrate %s: %v", rc.Name, err)
		}
	}
	return shardmap.New(sc), shard.NewExecutor(registry, sc.AcquireTimeout)
}

func seedProduct(t *testing.T, exec *shard.Executor, region shard.Region, p domain.Product) {
	t.Helper()
	db, err := exec.Registry().Get(region, shard.RolePrimary)
	if err != nil {
		t.Fatalf("get primary: %v", err)
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed product %d: %v", p.ID, err)
	}
}

func productStock(t *testing.T, exec *shard.Executor, region shard.Region, id int64) int {
	t.Helper()
	db, err := exec.Registry().Get(region, shard.RoleReplica)
	if err != nil {
		t.Fatalf("get replica: %v", err)
	}
	p, err := repo.GetProduct(context.Background(), db, id)
	if err != nil {
		t.Fatalf("get product %d: %v", id, err)
	}
	return p.Stock
}

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newSalesService(t *testing.T) (*SalesService, *shard.Executor) {
	m, exec := newFixture(t, testRegion("north", 1, 7))
	seedProduct(t, exec, "north", domain.Product{ID: 10, Name: "Mug", Price: price("10.00"), Stock: 20})
	seedProduct(t, exec, "north", domain.Product{ID: 11, Name: "Pen", Price: price("14.98"), Stock: 20})
	return &SalesService{Map: m, Exec: exec, DefaultRecentLimit: 50}, exec
}

func TestRecordSale_Validation(t *testing.T) {
	svc, _ := newSalesService(t)
	ctx := context.Background()

	if _, err := svc.RecordSale(ctx, 1, "u1", nil, ""); !errors.Is(err, ErrNoItems) {
		t.Errorf("no items err = %v", err)
	}
	items := []SaleItemInput{{ProductID: 10, Quantity: 0, UnitPrice: price("1.00")}}
	if _, err := svc.RecordSale(ctx, 1, "u1", items, ""); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("zero quantity err = %v", err)
	}
	items = []SaleItemInput{{ProductID: 10, Quantity: 1, UnitPrice: price("-1.00")}}
	if _, err := svc.RecordSale(ctx, 1, "u1", items, ""); !errors.Is(err, ErrInvalidPrice) {
		t.Errorf("negative price err = %v", err)
	}
}

func TestRecordSale_UnknownStore(t *testing.T) {
	svc, _ := newSalesService(t)
	items := []SaleItemInput{{ProductID: 10, Quantity: 1, UnitPrice: price("10.00")}}
	_, err := svc.RecordSale(context.Background(), 99, "u1", items, "")
	if !errors.Is(err, shard.ErrUnknownStore) {
		t.Fatalf("err = %v, want ErrUnknownStore", err)
	}
}

func TestRecordSale_CommitsAndComputesTotal(t *testing.T) {
	svc, exec := newSalesService(t)

	sale, err := svc.RecordSale(context.Background(), 3, "cashier-7", []SaleItemInput{
		{ProductID: 10, Quantity: 3, UnitPrice: price("10.00")},
		{ProductID: 11, Quantity: 1, UnitPrice: price("14.98")},
	}, "")
	if err != nil {
		t.Fatalf("RecordSale: %v", err)
	}

	if !sale.TotalAmount.Equal(price("44.98")) {
		t.Errorf("total = %s, want 44.98", sale.TotalAmount)
	}
	if sale.ID == "" || len(sale.Items) != 2 {
		t.Fatalf("sale = %+v", sale)
	}
	if got := productStock(t, exec, "north", 10); got != 17 {
		t.Errorf("product 10 stock = %d, want 17", got)
	}
	if got := productStock(t, exec, "north", 11); got != 19 {
		t.Errorf("product 11 stock = %d, want 19", got)
	}

	// The committed sale is readable through the replica.
	recent, err := svc.RecentSales(context.Background(), 3, 10)
	if err != nil {
		t.Fatalf("RecentSales: %v", err)
	}
	if len(recent) != 1 || recent[0].ID != sale.ID {
		t.Fatalf("recent = %+v", recent)
	}
	if len(recent[0].Items) != 2 {
		t.Errorf("items not loaded: %+v", recent[0])
	}
	if !recent[0].TotalAmount.Equal(price("44.98")) {
		t.Errorf("persisted total = %s, want 44.98", recent[0].TotalAmount)
	}
}

func TestGetSale(t *testing.T) {
	svc, _ := newSalesService(t)
	ctx := context.Background()

	sale, err := svc.RecordSale(ctx, 2, "u1", []SaleItemInput{
		{ProductID: 10, Quantity: 1, UnitPrice: price("10.00")},
	}, "")
	if err != nil {
		t.Fatalf("RecordSale: %v", err)
	}

	got, err := svc.GetSale(ctx, 2, sale.ID)
	if err != nil {
		t.Fatalf("GetSale: %v", err)
	}
	if got.ID != sale.ID || len(got.Items) != 1 {
		t.Fatalf("sale = %+v", got)
	}

	if _, err := svc.GetSale(ctx, 2, uuid.NewString()); !errors.Is(err, ErrSaleNotFound) {
		t.Errorf("unknown id err = %v, want ErrSaleNotFound", err)
	}
	// A sale belongs to the store that recorded it; other stores on the same
	// shard must not see it.
	if _, err := svc.GetSale(ctx, 5, sale.ID); !errors.Is(err, ErrSaleNotFound) {
		t.Errorf("wrong store err = %v, want ErrSaleNotFound", err)
	}
	if _, err := svc.GetSale(ctx, 99, sale.ID); !errors.Is(err, shard.ErrUnknownStore) {
		t.Errorf("unknown store err = %v, want ErrUnknownStore", err)
	}
}

func TestRecordSale_InsufficientStockRollsBackWholeSale(t *testing.T) {
	svc, exec := newSalesService(t)

	_, err := svc.RecordSale(context.Background(), 3, "u1", []SaleItemInput{
		{ProductID: 10, Quantity: 5, UnitPrice: price("10.00")},  // would fit
		{ProductID: 11, Quantity: 100, UnitPrice: price("1.00")}, // exceeds stock
	}, "")
	if !errors.Is(err, shard.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}

	// Nothing from the sale may be visible: not the first item's decrement,
	// not the sale header.
	if got := productStock(t, exec, "north", 10); got != 20 {
		t.Errorf("product 10 stock = %d, want 20 untouched", got)
	}
	recent, err := svc.RecentSales(context.Background(), 3, 10)
	if err != nil {
		t.Fatalf("RecentSales: %v", err)
	}
	if len(recent) != 0 {
		t.Fatalf("aborted sale leaked: %+v", recent)
	}
}

func TestRecordSale_UnknownProductAborts(t *testing.T) {
	svc, _ := newSalesService(t)
	_, err := svc.RecordSale(context.Background(), 3, "u1", []SaleItemInput{
		{ProductID: 999, Quantity: 1, UnitPrice: price("1.00")},
	}, "")
	if !errors.Is(err, shard.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock for unknown product", err)
	}
}

func TestRecordSale_ExactStockBoundary(t *testing.T) {
	svc, exec := newSalesService(t)

	// quantity == stock is allowed and leaves zero.
	_, err := svc.RecordSale(context.Background(), 3, "u1", []SaleItemInput{
		{ProductID: 10, Quantity: 20, UnitPrice: price("10.00")},
	}, "")
	if err != nil {
		t.Fatalf("RecordSale: %v", err)
	}
	if got := productStock(t, exec, "north", 10); got != 0 {
		t.Errorf("stock = %d, want 0", got)
	}

	// One more unit must fail.
	_, err = svc.RecordSale(context.Background(), 3, "u1", []SaleItemInput{
		{ProductID: 10, Quantity: 1, UnitPrice: price("10.00")},
	}, "")
	if !errors.Is(err, shard.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}
}

func TestRecordSale_IdempotentReplay(t *testing.T) {
	svc, exec := newSalesService(t)
	items := []SaleItemInput{{ProductID: 10, Quantity: 2, UnitPrice: price("10.00")}}

	first, err := svc.RecordSale(context.Background(), 3, "u1", items, "key-1")
	if err != nil {
		t.Fatalf("first RecordSale: %v", err)
	}
	second, err := svc.RecordSale(context.Background(), 3, "u1", items, "key-1")
	if err != nil {
		t.Fatalf("replay RecordSale: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("replay returned a different sale: %s vs %s", second.ID, first.ID)
	}
	if got := productStock(t, exec, "north", 10); got != 18 {
		t.Errorf("stock = %d, want 18 (decremented once)", got)
	}
}

func TestRecordSale_ConcurrentStockNeverNegative(t *testing.T) {
	svc, exec := newSalesService(t)
	seedProduct(t, exec, "north", domain.Product{ID: 50, Name: "Scarce", Price: price("2.00"), Stock: 3})

	const attempts = 5
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  []error
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RecordSale(context.Background(), 3, "u1", []SaleItemInput{
				{ProductID: 50, Quantity: 1, UnitPrice: price("2.00")},
			}, "")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				return
			}
			successes++
		}()
	}
	wg.Wait()

	if successes != 3 {
		t.Fatalf("successes = %d, want exactly 3 (stock)", successes)
	}
	for _, err := range failures {
		if !errors.Is(err, shard.ErrInsufficientStock) {
			t.Errorf("failure = %v, want ErrInsufficientStock", err)
		}
	}
	if got := productStock(t, exec, "north", 50); got != 0 {
		t.Fatalf("stock = %d, want 0 and never negative", got)
	}
}

func TestRecentSales_DefaultLimit(t *testing.T) {
	svc, _ := newSalesService(t)
	svc.DefaultRecentLimit = 2

	for i := 0; i < 3; i++ {
		_, err := svc.RecordSale(context.Background(), 3, "u1", []SaleItemInput{
			{ProductID: 10, Quantity: 1, UnitPrice: price("10.00")},
		}, "")
		if err != nil {
			t.Fatalf("RecordSale: %v", err)
		}
	}

	sales, err := svc.RecentSales(context.Background(), 3, 0)
	if err != nil {
		t.Fatalf("RecentSales: %v", err)
	}
	if len(sales) != 2 {
		t.Fatalf("len = %d, want default limit 2", len(sales))
	}
}

func TestIsDuplicateKey(t *testing.T) {
	sqliteDup := shard.Rejected("north", errors.New("UNIQUE constraint failed: sales.idempotency_key"))
	mysqlDup := shard.Rejected("north", errors.New("Error 1062: Duplicate entry 'k' for key 'ux_sales_idem'"))
	wrapped := shard.Aborted("north", sqliteDup)

	if !isDuplicateKey(sqliteDup) || !isDuplicateKey(mysqlDup) || !isDuplicateKey(wrapped) {
		t.Error("duplicate-key errors not recognized")
	}
	if isDuplicateKey(shard.Unavailable("north", errors.New("connection refused"))) {
		t.Error("connectivity error misread as duplicate key")
	}
	if isDuplicateKey(nil) {
		t.Error("nil misread as duplicate key")
	}
}
