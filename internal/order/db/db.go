package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"store-backend/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// RunInTx wraps fn in a database transaction. Every write inside the
// checkout path goes through this so a failed step leaves no partial order.
func (d *DB) RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, tx)
	})
}

func (d *DB) InsertOrder(ctx context.Context, idb bun.IDB, order *models.Order) error {
	_, err := idb.NewInsert().Model(order).Exec(ctx)
	return err
}

func (d *DB) InsertOrderItems(ctx context.Context, idb bun.IDB, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	_, err := idb.NewInsert().Model(&items).Exec(ctx)
	return err
}

func (d *DB) InsertPayment(ctx context.Context, idb bun.IDB, payment *models.Payment) error {
	_, err := idb.NewInsert().Model(payment).Exec(ctx)
	return err
}

func (d *DB) InsertBill(ctx context.Context, idb bun.IDB, bill *models.Bill) error {
	_, err := idb.NewInsert().Model(bill).Exec(ctx)
	return err
}

// GetOrderByID returns nil, nil when no order exists.
func (d *DB) GetOrderByID(ctx context.Context, idb bun.IDB, orderID string) (*models.Order, error) {
	var order models.Order
	err := idb.NewSelect().
		Model(&order).
		Where("order_id = ?", orderID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (d *DB) GetOrderItems(ctx context.Context, idb bun.IDB, orderID string) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := idb.NewSelect().
		Model(&items).
		Where("order_id = ?", orderID).
		Order("order_item_id").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (d *DB) GetPayments(ctx context.Context, idb bun.IDB, orderID string) ([]models.Payment, error) {
	var payments []models.Payment
	err := idb.NewSelect().
		Model(&payments).
		Where("order_id = ?", orderID).
		Order("payment_date").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// SumPaymentsByOrder totals all recorded payments for an order.
func (d *DB) SumPaymentsByOrder(ctx context.Context, idb bun.IDB, orderID string) (float64, error) {
	var total sql.NullFloat64
	err := idb.NewSelect().
		Model((*models.Payment)(nil)).
		ColumnExpr("SUM(amount)").
		Where("order_id = ?", orderID).
		Scan(ctx, &total)
	if err != nil {
		return 0, err
	}
	return total.Float64, nil
}

func (d *DB) UpdateOrderPayStatus(ctx context.Context, idb bun.IDB, orderID, status string) error {
	_, err := idb.NewUpdate().
		Model((*models.Order)(nil)).
		Set("pay_status = ?", status).
		Where("order_id = ?", orderID).
		Exec(ctx)
	return err
}

// GetBillByOrderID returns nil, nil when the order has no bill yet.
func (d *DB) GetBillByOrderID(ctx context.Context, idb bun.IDB, orderID string) (*models.Bill, error) {
	var bill models.Bill
	err := idb.NewSelect().
		Model(&bill).
		Where("order_id = ?", orderID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

func (d *DB) UpdateBillPayStatus(ctx context.Context, idb bun.IDB, billID, status string, paidAt time.Time) error {
	q := idb.NewUpdate().
		Model((*models.Bill)(nil)).
		Set("pay_status = ?", status).
		Where("bill_id = ?", billID)
	if !paidAt.IsZero() {
		q = q.Set("paid_at = ?", paidAt)
	}
	_, err := q.Exec(ctx)
	return err
}

func (d *DB) UpdatePaymentTransaction(ctx context.Context, idb bun.IDB, paymentID, ref, status string) error {
	_, err := idb.NewUpdate().
		Model((*models.Payment)(nil)).
		Set("transaction_ref = ?", ref).
		Set("transaction_status = ?", status).
		Where("payment_id = ?", paymentID).
		Exec(ctx)
	return err
}

func (d *DB) ListByCustomer(ctx context.Context, customerID int64) ([]models.Order, error) {
	var orders []models.Order
	err := d.Bun.NewSelect().
		Model(&orders).
		Where("customer_id = ?", customerID).
		Order("order_date DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (d *DB) ListAll(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := d.Bun.NewSelect().
		Model(&orders).
		Order("order_date DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return orders, nil
}
