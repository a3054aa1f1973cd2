package catalog_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"store-backend/internal/catalog"
	catalogdb "store-backend/internal/catalog/db"
	"store-backend/internal/logger"
	"store-backend/internal/models"
)

func setupService(t *testing.T) (*catalog.Service, *bun.DB, *miniredis.Miniredis) {
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	sqldb.SetMaxOpenConns(1)
	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	if _, err := bunDB.NewCreateTable().Model((*models.Product)(nil)).Exec(context.Background()); err != nil {
		t.Fatalf("Failed to create product table: %v", err)
	}

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	log := logger.NewLogger()
	t.Cleanup(log.Close)
	t.Cleanup(func() { client.Close() })
	t.Cleanup(mr.Close)
	t.Cleanup(func() { bunDB.Close() })

	cache := catalog.NewCountCache(client, 60*time.Second)
	return catalog.NewService(&catalogdb.DB{Bun: bunDB}, cache, log), bunDB, mr
}

func seedProduct(t *testing.T, bunDB *bun.DB, productID int64, name string, deleted bool) {
	product := models.Product{ProductID: productID, ProductName: name, Price: 1, Deleted: deleted}
	_, err := bunDB.NewInsert().Model(&product).Exec(context.Background())
	require.NoError(t, err)
}

func TestListProducts_SkipsDeleted(t *testing.T) {
	svc, bunDB, _ := setupService(t)

	seedProduct(t, bunDB, 1, "Coffee beans 500g", false)
	seedProduct(t, bunDB, 2, "Discontinued", true)

	products, err := svc.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Coffee beans 500g", products[0].ProductName)
}

func TestCountProducts_CachesAndInvalidates(t *testing.T) {
	svc, bunDB, _ := setupService(t)
	ctx := context.Background()

	seedProduct(t, bunDB, 1, "Coffee beans 500g", false)
	seedProduct(t, bunDB, 2, "Filter papers", false)
	seedProduct(t, bunDB, 3, "Discontinued", true)

	count, err := svc.CountProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// the cached value is served even after the table changes
	seedProduct(t, bunDB, 4, "Mug", false)
	count, err = svc.CountProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// invalidation forces a recount
	require.NoError(t, svc.InvalidateProductCount(ctx))
	count, err = svc.CountProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestCountProducts_RecountsAfterTTL(t *testing.T) {
	svc, bunDB, mr := setupService(t)
	ctx := context.Background()

	seedProduct(t, bunDB, 1, "Coffee beans 500g", false)

	count, err := svc.CountProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	seedProduct(t, bunDB, 2, "Filter papers", false)
	mr.FastForward(61 * time.Second)

	count, err = svc.CountProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
