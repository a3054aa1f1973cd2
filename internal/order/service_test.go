package order_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	cartdb "store-backend/internal/cart/db"
	catalogdb "store-backend/internal/catalog/db"
	invdb "store-backend/internal/inventory/db"
	"store-backend/internal/logger"
	"store-backend/internal/models"
	"store-backend/internal/order"
	orderdb "store-backend/internal/order/db"
	"store-backend/internal/promotion"
	promodb "store-backend/internal/promotion/db"
)

func setupService(t *testing.T) (*order.Service, *bun.DB) {
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	// a second pooled connection would see a fresh empty database
	sqldb.SetMaxOpenConns(1)
	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	for _, model := range []interface{}{
		(*models.Product)(nil),
		(*models.Inventory)(nil),
		(*models.CartItem)(nil),
		(*models.Promotion)(nil),
		(*models.Order)(nil),
		(*models.OrderItem)(nil),
		(*models.Payment)(nil),
		(*models.Bill)(nil),
	} {
		if _, err := bunDB.NewCreateTable().Model(model).Exec(ctx); err != nil {
			t.Fatalf("Failed to create table for %T: %v", model, err)
		}
	}

	log := logger.NewLogger()
	t.Cleanup(log.Close)
	t.Cleanup(func() { bunDB.Close() })

	promoService := promotion.NewService(&promodb.DB{Bun: bunDB}, log)
	svc := order.NewService(
		&orderdb.DB{Bun: bunDB},
		&cartdb.DB{Bun: bunDB},
		&catalogdb.DB{Bun: bunDB},
		&invdb.DB{Bun: bunDB},
		promoService,
		nil,
		log,
	)
	return svc, bunDB
}

func seedProduct(t *testing.T, bunDB *bun.DB, productID int64, name string, price float64, stock int) {
	ctx := context.Background()
	product := models.Product{ProductID: productID, ProductName: name, Price: price}
	_, err := bunDB.NewInsert().Model(&product).Exec(ctx)
	require.NoError(t, err)

	inv := models.Inventory{ProductID: productID, Quantity: stock, UpdatedAt: time.Now()}
	_, err = bunDB.NewInsert().Model(&inv).Exec(ctx)
	require.NoError(t, err)
}

func seedCartItem(t *testing.T, bunDB *bun.DB, customerID, productID int64, quantity int, unitPrice float64) {
	item := models.CartItem{
		CartItemID: uuid.NewString(),
		CustomerID: customerID,
		ProductID:  productID,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		AddedAt:    time.Now(),
	}
	_, err := bunDB.NewInsert().Model(&item).Exec(context.Background())
	require.NoError(t, err)
}

func seedPromotion(t *testing.T, bunDB *bun.DB, promo models.Promotion) {
	_, err := bunDB.NewInsert().Model(&promo).Exec(context.Background())
	require.NoError(t, err)
}

func stockOf(t *testing.T, bunDB *bun.DB, productID int64) int {
	var inv models.Inventory
	err := bunDB.NewSelect().Model(&inv).Where("product_id = ?", productID).Scan(context.Background())
	require.NoError(t, err)
	return inv.Quantity
}

func cartSize(t *testing.T, bunDB *bun.DB, customerID int64) int {
	count, err := bunDB.NewSelect().Model((*models.CartItem)(nil)).
		Where("customer_id = ?", customerID).Count(context.Background())
	require.NoError(t, err)
	return count
}

func orderCount(t *testing.T, bunDB *bun.DB) int {
	count, err := bunDB.NewSelect().Model((*models.Order)(nil)).Count(context.Background())
	require.NoError(t, err)
	return count
}

func usedCountOf(t *testing.T, bunDB *bun.DB, promoID string) int {
	var promo models.Promotion
	err := bunDB.NewSelect().Model(&promo).Where("promo_id = ?", promoID).Scan(context.Background())
	require.NoError(t, err)
	return promo.UsedCount
}

func activePromo(promoID, code, discountType string, value, minOrder float64, limit int) models.Promotion {
	now := time.Now()
	return models.Promotion{
		PromoID:        promoID,
		PromoCode:      code,
		DiscountType:   discountType,
		DiscountValue:  value,
		StartDate:      now.AddDate(0, 0, -1),
		EndDate:        now.AddDate(0, 0, 1),
		MinOrderAmount: minOrder,
		UsageLimit:     limit,
		Status:         models.PromoActive,
	}
}

func TestCheckout_CashSettlesImmediately(t *testing.T) {
	svc, bunDB := setupService(t)
	ctx := context.Background()

	seedProduct(t, bunDB, 1, "Coffee beans 500g", 12.50, 10)
	seedCartItem(t, bunDB, 7, 1, 2, 12.50)

	detail, err := svc.Checkout(ctx, 7, models.CheckoutRequest{PaymentMethod: "cash"})
	require.NoError(t, err)

	assert.Equal(t, 25.00, detail.Order.TotalAmount)
	assert.Equal(t, 0.0, detail.Order.DiscountAmount)
	assert.Equal(t, models.PayStatusPaid, detail.Order.PayStatus)
	assert.Equal(t, models.OrderTypeOnline, detail.Order.OrderType)

	require.Len(t, detail.Payments, 1)
	assert.Equal(t, 25.00, detail.Payments[0].Amount)

	require.NotNil(t, detail.Bill)
	assert.Equal(t, models.BillPaid, detail.Bill.PayStatus)
	assert.Equal(t, 25.00, detail.Bill.FinalAmount)
	assert.False(t, detail.Bill.PaidAt.IsZero())

	assert.Equal(t, 8, stockOf(t, bunDB, 1))
	assert.Equal(t, 0, cartSize(t, bunDB, 7))
}

func TestCheckout_CardStaysPending(t *testing.T) {
	svc, bunDB := setupService(t)
	ctx := context.Background()

	seedProduct(t, bunDB, 1, "Coffee beans 500g", 12.50, 10)
	seedCartItem(t, bunDB, 7, 1, 1, 12.50)

	detail, err := svc.Checkout(ctx, 7, models.CheckoutRequest{PaymentMethod: "card"})
	require.NoError(t, err)

	assert.Equal(t, models.PayStatusPending, detail.Order.PayStatus)
	assert.Equal(t, models.BillUnpaid, detail.Bill.PayStatus)
	assert.True(t, detail.Bill.PaidAt.IsZero())

	// stock is taken at checkout even before the gateway confirms
	assert.Equal(t, 9, stockOf(t, bunDB, 1))
}

func TestCheckout_PercentPromoAppliesAndConsumesUsage(t *testing.T) {
	svc, bunDB := setupService(t)
	ctx := context.Background()

	seedProduct(t, bunDB, 1, "Coffee beans 500g", 12.50, 10)
	seedCartItem(t, bunDB, 7, 1, 2, 12.50)
	seedPromotion(t, bunDB, activePromo("promo-1", "SAVE10", models.DiscountPercent, 10, 0, 5))

	detail, err := svc.Checkout(ctx, 7, models.CheckoutRequest{
		PromoCode:     "SAVE10",
		PaymentMethod: "cash",
	})
	require.NoError(t, err)

	assert.Equal(t, 25.00, detail.Order.TotalAmount)
	assert.Equal(t, 2.50, detail.Order.DiscountAmount)
	assert.Equal(t, 22.50, detail.Order.AmountOwed())
	assert.Equal(t, "promo-1", detail.Order.PromoID)
	assert.Equal(t, 22.50, detail.Payments[0].Amount)
	assert.Equal(t, 22.50, detail.Bill.FinalAmount)
	assert.Equal(t, 1, usedCountOf(t, bunDB, "promo-1"))
}

func TestCheckout_PromoBelowMinimumAbortsEverything(t *testing.T) {
	svc, bunDB := setupService(t)
	ctx := context.Background()

	seedProduct(t, bunDB, 1, "Coffee beans 500g", 12.50, 10)
	seedCartItem(t, bunDB, 7, 1, 2, 12.50)
	seedPromotion(t, bunDB, activePromo("promo-1", "BIG50", models.DiscountFixed, 50, 100, 5))

	_, err := svc.Checkout(ctx, 7, models.CheckoutRequest{
		PromoCode:     "BIG50",
		PaymentMethod: "cash",
	})
	assert.ErrorIs(t, err, promotion.ErrBelowMinimum)

	// the whole unit of work rolled back
	assert.Equal(t, 0, orderCount(t, bunDB))
	assert.Equal(t, 10, stockOf(t, bunDB, 1))
	assert.Equal(t, 1, cartSize(t, bunDB, 7))
	assert.Equal(t, 0, usedCountOf(t, bunDB, "promo-1"))
}

func TestCheckout_PromoUsageLimitExhausted(t *testing.T) {
	svc, bunDB := setupService(t)
	ctx := context.Background()

	seedProduct(t, bunDB, 1, "Coffee beans 500g", 12.50, 10)
	seedPromotion(t, bunDB, activePromo("promo-1", "ONCE", models.DiscountPercent, 10, 0, 1))

	seedCartItem(t, bunDB, 7, 1, 1, 12.50)
	_, err := svc.Checkout(ctx, 7, models.CheckoutRequest{PromoCode: "ONCE", PaymentMethod: "cash"})
	require.NoError(t, err)
	assert.Equal(t, 1, usedCountOf(t, bunDB, "promo-1"))

	seedCartItem(t, bunDB, 8, 1, 1, 12.50)
	_, err = svc.Checkout(ctx, 8, models.CheckoutRequest{PromoCode: "ONCE", PaymentMethod: "cash"})
	assert.ErrorIs(t, err, promotion.ErrUsageExceeded)
	assert.Equal(t, 1, usedCountOf(t, bunDB, "promo-1"))
}

func TestCheckout_InsufficientStockNamesProduct(t *testing.T) {
	svc, bunDB := setupService(t)
	ctx := context.Background()

	seedProduct(t, bunDB, 1, "Coffee beans 500g", 12.50, 1)
	seedCartItem(t, bunDB, 7, 1, 3, 12.50)

	_, err := svc.Checkout(ctx, 7, models.CheckoutRequest{PaymentMethod: "cash"})
	assert.ErrorIs(t, err, order.ErrInsufficientStock)

	var stockErr *order.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(1), stockErr.ProductID)
	assert.Equal(t, "Coffee beans 500g", stockErr.ProductName)
	assert.Equal(t, 3, stockErr.Requested)
	assert.Equal(t, 1, stockErr.Available)

	assert.Equal(t, 0, orderCount(t, bunDB))
	assert.Equal(t, 1, stockOf(t, bunDB, 1))
	assert.Equal(t, 1, cartSize(t, bunDB, 7))
}

func TestCheckout_PriceDriftRejected(t *testing.T) {
	svc, bunDB := setupService(t)
	ctx := context.Background()

	seedProduct(t, bunDB, 1, "Coffee beans 500g", 14.00, 10)
	// line was added before the price change
	seedCartItem(t, bunDB, 7, 1, 1, 12.50)

	_, err := svc.Checkout(ctx, 7, models.CheckoutRequest{PaymentMethod: "cash"})
	assert.ErrorIs(t, err, order.ErrPriceChanged)
	assert.Equal(t, 0, orderCount(t, bunDB))
}

func TestCheckout_EmptyCart(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Checkout(context.Background(), 7, models.CheckoutRequest{PaymentMethod: "cash"})
	assert.ErrorIs(t, err, order.ErrEmptyCart)
}

func TestCheckout_InvalidPaymentMethod(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Checkout(context.Background(), 7, models.CheckoutRequest{PaymentMethod: "iou"})
	assert.ErrorIs(t, err, order.ErrInvalidPaymentMethod)
}

func TestPreview_WritesNothing(t *testing.T) {
	svc, bunDB := setupService(t)
	ctx := context.Background()

	seedProduct(t, bunDB, 1, "Coffee beans 500g", 12.50, 10)
	seedCartItem(t, bunDB, 7, 1, 2, 12.50)
	seedPromotion(t, bunDB, activePromo("promo-1", "SAVE10", models.DiscountPercent, 10, 0, 5))

	preview, err := svc.Preview(ctx, 7, models.PreviewRequest{PromoCode: "SAVE10"})
	require.NoError(t, err)

	assert.Equal(t, 25.00, preview.TotalAmount)
	assert.Equal(t, 2.50, preview.DiscountAmount)
	assert.Equal(t, 22.50, preview.FinalAmount)
	assert.Equal(t, "promo-1", preview.PromoID)

	assert.Equal(t, 0, orderCount(t, bunDB))
	assert.Equal(t, 10, stockOf(t, bunDB, 1))
	assert.Equal(t, 1, cartSize(t, bunDB, 7))
	assert.Equal(t, 0, usedCountOf(t, bunDB, "promo-1"))
}

func TestCancel_PaidSameDayRestoresStock(t *testing.T) {
	svc, bunDB := setupService(t)
	ctx := context.Background()

	seedProduct(t, bunDB, 1, "Coffee beans 500g", 12.50, 10)
	seedCartItem(t, bunDB, 7, 1, 2, 12.50)

	detail, err := svc.Checkout(ctx, 7, models.CheckoutRequest{PaymentMethod: "cash"})
	require.NoError(t, err)
	assert.Equal(t, 8, stockOf(t, bunDB, 1))

	canceled, err := svc.Cancel(ctx, detail.Order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.PayStatusCanceled, canceled.PayStatus)
	assert.Equal(t, 10, stockOf(t, bunDB, 1))

	var billRow models.Bill
	err = bunDB.NewSelect().Model(&billRow).
		Where("order_id = ?", detail.Order.OrderID).Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.BillCancelled, billRow.PayStatus)

	_, err = svc.Cancel(ctx, detail.Order.OrderID)
	assert.ErrorIs(t, err, order.ErrAlreadyCanceled)
}

func TestCancel_PaidOrderOnLaterDayFails(t *testing.T) {
	svc, bunDB := setupService(t)
	ctx := context.Background()

	seedProduct(t, bunDB, 1, "Coffee beans 500g", 12.50, 10)
	seedCartItem(t, bunDB, 7, 1, 1, 12.50)

	detail, err := svc.Checkout(ctx, 7, models.CheckoutRequest{PaymentMethod: "cash"})
	require.NoError(t, err)

	// age the order past its calendar day
	_, err = bunDB.NewUpdate().Model((*models.Order)(nil)).
		Set("order_date = ?", time.Now().AddDate(0, 0, -2)).
		Where("order_id = ?", detail.Order.OrderID).
		Exec(ctx)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, detail.Order.OrderID)
	assert.ErrorIs(t, err, order.ErrCancelWindowClosed)
	assert.Equal(t, 9, stockOf(t, bunDB, 1))
}

func TestCancel_PendingCancelsUnconditionally(t *testing.T) {
	svc, bunDB := setupService(t)
	ctx := context.Background()

	seedProduct(t, bunDB, 1, "Coffee beans 500g", 12.50, 10)
	seedCartItem(t, bunDB, 7, 1, 1, 12.50)

	detail, err := svc.Checkout(ctx, 7, models.CheckoutRequest{PaymentMethod: "card"})
	require.NoError(t, err)
	assert.Equal(t, models.PayStatusPending, detail.Order.PayStatus)

	// even an old pending order cancels
	_, err = bunDB.NewUpdate().Model((*models.Order)(nil)).
		Set("order_date = ?", time.Now().AddDate(0, 0, -5)).
		Where("order_id = ?", detail.Order.OrderID).
		Exec(ctx)
	require.NoError(t, err)

	canceled, err := svc.Cancel(ctx, detail.Order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.PayStatusCanceled, canceled.PayStatus)
	assert.Equal(t, 10, stockOf(t, bunDB, 1))
}

func TestConfirmGatewaySettlement(t *testing.T) {
	svc, bunDB := setupService(t)
	ctx := context.Background()

	seedProduct(t, bunDB, 1, "Coffee beans 500g", 12.50, 10)
	seedCartItem(t, bunDB, 7, 1, 1, 12.50)

	detail, err := svc.Checkout(ctx, 7, models.CheckoutRequest{PaymentMethod: "card"})
	require.NoError(t, err)

	err = svc.ConfirmGatewaySettlement(ctx, detail.Order.OrderID, "VNP123456")
	require.NoError(t, err)

	after, err := svc.GetOrder(ctx, detail.Order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.PayStatusPaid, after.Order.PayStatus)
	assert.Equal(t, models.BillPaid, after.Bill.PayStatus)
	require.Len(t, after.Payments, 1)
	assert.Equal(t, "VNP123456", after.Payments[0].TransactionRef)
	assert.Equal(t, models.TxnStatusSuccess, after.Payments[0].TransactionStatus)

	// settlement must not touch stock a second time
	assert.Equal(t, 9, stockOf(t, bunDB, 1))

	// confirming again is a no-op
	err = svc.ConfirmGatewaySettlement(ctx, detail.Order.OrderID, "VNP999999")
	require.NoError(t, err)
	after, err = svc.GetOrder(ctx, detail.Order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "VNP123456", after.Payments[0].TransactionRef)
}

func TestRecordPayment_PartialThenSettles(t *testing.T) {
	svc, bunDB := setupService(t)
	ctx := context.Background()

	seedProduct(t, bunDB, 1, "Coffee beans 500g", 12.50, 10)

	// staff-entered offline order, never went through checkout
	orderID := uuid.NewString()
	offline := models.Order{
		OrderID:     orderID,
		CustomerID:  7,
		OrderDate:   time.Now(),
		TotalAmount: 25.00,
		PayStatus:   models.PayStatusPending,
		OrderType:   models.OrderTypeOffline,
	}
	_, err := bunDB.NewInsert().Model(&offline).Exec(ctx)
	require.NoError(t, err)
	item := models.OrderItem{
		OrderItemID: uuid.NewString(),
		OrderID:     orderID,
		ProductID:   1,
		Quantity:    2,
		Price:       12.50,
		Subtotal:    25.00,
	}
	_, err = bunDB.NewInsert().Model(&item).Exec(ctx)
	require.NoError(t, err)

	// partial bank transfer leaves the order pending
	updated, err := svc.RecordPayment(ctx, orderID, models.RecordPaymentRequest{
		Amount: 10.00, PaymentMethod: "bank_transfer",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PayStatusPending, updated.PayStatus)
	assert.Equal(t, 10, stockOf(t, bunDB, 1))

	// overpayment is rejected
	_, err = svc.RecordPayment(ctx, orderID, models.RecordPaymentRequest{
		Amount: 20.00, PaymentMethod: "bank_transfer",
	})
	assert.ErrorIs(t, err, order.ErrPaymentExceedsTotal)

	// reaching the total settles: bill created, stock decremented
	updated, err = svc.RecordPayment(ctx, orderID, models.RecordPaymentRequest{
		Amount: 15.00, PaymentMethod: "bank_transfer",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PayStatusPaid, updated.PayStatus)
	assert.Equal(t, 8, stockOf(t, bunDB, 1))

	var billRow models.Bill
	err = bunDB.NewSelect().Model(&billRow).Where("order_id = ?", orderID).Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.BillPaid, billRow.PayStatus)
	assert.Equal(t, 25.00, billRow.FinalAmount)

	// no payment can land on a settled order
	_, err = svc.RecordPayment(ctx, orderID, models.RecordPaymentRequest{
		Amount: 1.00, PaymentMethod: "cash",
	})
	assert.ErrorIs(t, err, order.ErrOrderAlreadyPaid)
}

func TestRecordPayment_UnknownOrder(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.RecordPayment(context.Background(), "missing", models.RecordPaymentRequest{
		Amount: 5.00, PaymentMethod: "cash",
	})
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestGetOrder_Detail(t *testing.T) {
	svc, bunDB := setupService(t)
	ctx := context.Background()

	seedProduct(t, bunDB, 1, "Coffee beans 500g", 12.50, 10)
	seedProduct(t, bunDB, 2, "Filter papers", 3.20, 50)
	seedCartItem(t, bunDB, 7, 1, 2, 12.50)
	seedCartItem(t, bunDB, 7, 2, 1, 3.20)

	detail, err := svc.Checkout(ctx, 7, models.CheckoutRequest{PaymentMethod: "cash"})
	require.NoError(t, err)

	got, err := svc.GetOrder(ctx, detail.Order.OrderID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)
	assert.Len(t, got.Payments, 1)
	require.NotNil(t, got.Bill)
	assert.Equal(t, 28.20, got.Order.TotalAmount)

	_, err = svc.GetOrder(ctx, "missing")
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestBuildOrderItems_RejectsBadLines(t *testing.T) {
	lines := []models.CartItem{
		{ProductID: 1, Quantity: 2, UnitPrice: 12.50},
		{ProductID: 2, Quantity: 0, UnitPrice: 3.20},
	}
	_, _, err := order.BuildOrderItems("order-1", lines)
	assert.ErrorIs(t, err, order.ErrInvalidItem)

	lines[1].Quantity = 1
	items, total, err := order.BuildOrderItems("order-1", lines)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 28.20, total)
	assert.Equal(t, 25.00, items[0].Subtotal)
}
