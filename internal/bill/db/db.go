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

// GetByID returns nil, nil when no bill exists.
func (d *DB) GetByID(ctx context.Context, billID string) (*models.Bill, error) {
	var bill models.Bill
	err := d.Bun.NewSelect().
		Model(&bill).
		Where("bill_id = ?", billID).
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

func (d *DB) ListByCustomer(ctx context.Context, customerID int64) ([]models.Bill, error) {
	var bills []models.Bill
	err := d.Bun.NewSelect().
		Model(&bills).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return bills, nil
}

func (d *DB) UpdateStatus(ctx context.Context, billID, status string, paidAt time.Time) error {
	q := d.Bun.NewUpdate().
		Model((*models.Bill)(nil)).
		Set("pay_status = ?", status).
		Where("bill_id = ?", billID)
	if !paidAt.IsZero() {
		q = q.Set("paid_at = ?", paidAt)
	}
	_, err := q.Exec(ctx)
	return err
}
