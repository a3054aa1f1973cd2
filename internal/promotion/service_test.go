package promotion_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"store-backend/internal/logger"
	"store-backend/internal/models"
	"store-backend/internal/promotion"
	promodb "store-backend/internal/promotion/db"
)

func setupService(t *testing.T) (*promotion.Service, *bun.DB) {
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	sqldb.SetMaxOpenConns(1)
	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = bunDB.NewCreateTable().Model((*models.Promotion)(nil)).Exec(context.Background())
	if err != nil {
		t.Fatalf("Failed to create promotion table: %v", err)
	}

	log := logger.NewLogger()
	t.Cleanup(log.Close)
	t.Cleanup(func() { bunDB.Close() })

	return promotion.NewService(&promodb.DB{Bun: bunDB}, log), bunDB
}

func seed(t *testing.T, bunDB *bun.DB, promo models.Promotion) {
	_, err := bunDB.NewInsert().Model(&promo).Exec(context.Background())
	require.NoError(t, err)
}

func base(code string) models.Promotion {
	now := time.Now()
	return models.Promotion{
		PromoID:       "promo-" + code,
		PromoCode:     code,
		DiscountType:  models.DiscountPercent,
		DiscountValue: 10,
		StartDate:     now.AddDate(0, 0, -1),
		EndDate:       now.AddDate(0, 0, 1),
		UsageLimit:    5,
		Status:        models.PromoActive,
	}
}

func TestEvaluate_PercentDiscount(t *testing.T) {
	svc, bunDB := setupService(t)
	seed(t, bunDB, base("SAVE10"))

	result, err := svc.Evaluate(context.Background(), nil, promotion.Ref{Code: "SAVE10"}, 25.00)
	require.NoError(t, err)
	assert.Equal(t, "promo-SAVE10", result.PromoID)
	assert.Equal(t, 2.50, result.DiscountAmount)
}

func TestEvaluate_FixedDiscountCappedAtTotal(t *testing.T) {
	svc, bunDB := setupService(t)
	promo := base("FLAT50")
	promo.DiscountType = models.DiscountFixed
	promo.DiscountValue = 50
	seed(t, bunDB, promo)

	result, err := svc.Evaluate(context.Background(), nil, promotion.Ref{Code: "FLAT50"}, 30.00)
	require.NoError(t, err)
	assert.Equal(t, 30.00, result.DiscountAmount)
}

func TestEvaluate_ChecksShortCircuitInOrder(t *testing.T) {
	svc, bunDB := setupService(t)
	ctx := context.Background()
	now := time.Now()

	_, err := svc.Evaluate(ctx, nil, promotion.Ref{Code: "MISSING"}, 100)
	assert.ErrorIs(t, err, promotion.ErrNotFound)

	inactive := base("INACTIVE")
	inactive.Status = models.PromoInactive
	seed(t, bunDB, inactive)
	_, err = svc.Evaluate(ctx, nil, promotion.Ref{Code: "INACTIVE"}, 100)
	assert.ErrorIs(t, err, promotion.ErrInactive)

	future := base("FUTURE")
	future.StartDate = now.AddDate(0, 0, 2)
	future.EndDate = now.AddDate(0, 0, 5)
	seed(t, bunDB, future)
	_, err = svc.Evaluate(ctx, nil, promotion.Ref{Code: "FUTURE"}, 100)
	assert.ErrorIs(t, err, promotion.ErrNotYetValid)

	expired := base("EXPIRED")
	expired.StartDate = now.AddDate(0, 0, -5)
	expired.EndDate = now.AddDate(0, 0, -2)
	seed(t, bunDB, expired)
	_, err = svc.Evaluate(ctx, nil, promotion.Ref{Code: "EXPIRED"}, 100)
	assert.ErrorIs(t, err, promotion.ErrExpired)

	spent := base("SPENT")
	spent.UsageLimit = 3
	spent.UsedCount = 3
	seed(t, bunDB, spent)
	_, err = svc.Evaluate(ctx, nil, promotion.Ref{Code: "SPENT"}, 100)
	assert.ErrorIs(t, err, promotion.ErrUsageExceeded)

	minimum := base("MIN100")
	minimum.MinOrderAmount = 100
	seed(t, bunDB, minimum)
	_, err = svc.Evaluate(ctx, nil, promotion.Ref{Code: "MIN100"}, 99.99)
	assert.ErrorIs(t, err, promotion.ErrBelowMinimum)
}

func TestEvaluate_EndDateValidThroughWholeDay(t *testing.T) {
	svc, bunDB := setupService(t)
	promo := base("TODAY")
	promo.EndDate = time.Now()
	seed(t, bunDB, promo)

	_, err := svc.Evaluate(context.Background(), nil, promotion.Ref{Code: "TODAY"}, 100)
	assert.NoError(t, err)
}

func TestEvaluate_ByIDWhenNoCode(t *testing.T) {
	svc, bunDB := setupService(t)
	seed(t, bunDB, base("BYID"))

	result, err := svc.Evaluate(context.Background(), nil, promotion.Ref{ID: "promo-BYID"}, 50)
	require.NoError(t, err)
	assert.Equal(t, "BYID", result.PromoCode)
}

func TestMarkUsed_ConditionalIncrement(t *testing.T) {
	svc, bunDB := setupService(t)
	promo := base("ONCE")
	promo.UsageLimit = 1
	seed(t, bunDB, promo)
	ctx := context.Background()

	require.NoError(t, svc.MarkUsed(ctx, nil, "promo-ONCE"))

	err := svc.MarkUsed(ctx, nil, "promo-ONCE")
	assert.ErrorIs(t, err, promotion.ErrUsageExceeded)

	var after models.Promotion
	require.NoError(t, bunDB.NewSelect().Model(&after).
		Where("promo_id = ?", "promo-ONCE").Scan(ctx))
	assert.Equal(t, 1, after.UsedCount)
}

func TestCreate_RejectsDuplicateCodeAndBadValues(t *testing.T) {
	svc, bunDB := setupService(t)
	seed(t, bunDB, base("TAKEN"))
	ctx := context.Background()

	dup := base("TAKEN")
	_, err := svc.Create(ctx, dup)
	assert.ErrorIs(t, err, promotion.ErrCodeExists)

	bad := base("BAD")
	bad.DiscountValue = 150
	_, err = svc.Create(ctx, bad)
	assert.ErrorIs(t, err, promotion.ErrInvalid)

	backwards := base("DATES")
	backwards.StartDate = time.Now()
	backwards.EndDate = time.Now().AddDate(0, 0, -1)
	_, err = svc.Create(ctx, backwards)
	assert.ErrorIs(t, err, promotion.ErrInvalid)

	good := base("FRESH")
	created, err := svc.Create(ctx, good)
	require.NoError(t, err)
	assert.NotEmpty(t, created.PromoID)
	assert.Equal(t, 0, created.UsedCount)
}

func TestUpdate_DiscountFrozenAfterUse(t *testing.T) {
	svc, bunDB := setupService(t)
	promo := base("USED")
	promo.UsedCount = 2
	seed(t, bunDB, promo)
	ctx := context.Background()

	changed := promo
	changed.DiscountValue = 20
	_, err := svc.Update(ctx, promo.PromoID, changed)
	assert.ErrorIs(t, err, promotion.ErrImmutableAfterUse)

	// other fields still editable, used_count preserved
	renamed := promo
	renamed.Description = "autumn deal"
	updated, err := svc.Update(ctx, promo.PromoID, renamed)
	require.NoError(t, err)
	assert.Equal(t, "autumn deal", updated.Description)
	assert.Equal(t, 2, updated.UsedCount)
}

func TestDelete_RefusedOnceUsed(t *testing.T) {
	svc, bunDB := setupService(t)
	used := base("USED")
	used.UsedCount = 1
	seed(t, bunDB, used)
	fresh := base("FRESH")
	seed(t, bunDB, fresh)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Delete(ctx, "promo-USED"), promotion.ErrInUse)
	assert.NoError(t, svc.Delete(ctx, "promo-FRESH"))
	assert.ErrorIs(t, svc.Delete(ctx, "promo-FRESH"), promotion.ErrNotFound)
}
