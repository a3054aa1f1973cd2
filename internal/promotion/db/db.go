package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"store-backend/internal/models"
)

// ErrUsageConflict is returned when the conditional usage increment matched
// no row, meaning the limit was reached by a concurrent application.
var ErrUsageConflict = errors.New("promotion usage limit reached by concurrent update")

type DB struct {
	Bun *bun.DB
}

func (d *DB) GetByID(ctx context.Context, idb bun.IDB, promoID string) (*models.Promotion, error) {
	var promo models.Promotion
	err := idb.NewSelect().
		Model(&promo).
		Where("promo_id = ?", promoID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &promo, nil
}

func (d *DB) GetByCode(ctx context.Context, idb bun.IDB, code string) (*models.Promotion, error) {
	var promo models.Promotion
	err := idb.NewSelect().
		Model(&promo).
		Where("promo_code = ?", code).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &promo, nil
}

// IncrementUsage bumps used_count, guarded against overshooting the limit
// by a concurrent application.
func (d *DB) IncrementUsage(ctx context.Context, idb bun.IDB, promoID string) error {
	res, err := idb.NewUpdate().
		Model((*models.Promotion)(nil)).
		Set("used_count = used_count + 1").
		Where("promo_id = ? AND used_count < usage_limit", promoID).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrUsageConflict
	}
	return nil
}

func (d *DB) List(ctx context.Context) ([]models.Promotion, error) {
	var promos []models.Promotion
	err := d.Bun.NewSelect().
		Model(&promos).
		Order("start_date DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return promos, nil
}

func (d *DB) Insert(ctx context.Context, promo *models.Promotion) error {
	_, err := d.Bun.NewInsert().Model(promo).Exec(ctx)
	return err
}

func (d *DB) Update(ctx context.Context, promo *models.Promotion) error {
	_, err := d.Bun.NewUpdate().
		Model(promo).
		Column("promo_code", "description", "discount_type", "discount_value",
			"start_date", "end_date", "min_order_amount", "usage_limit", "status").
		Where("promo_id = ?", promo.PromoID).
		Exec(ctx)
	return err
}

func (d *DB) Delete(ctx context.Context, promoID string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Promotion)(nil)).
		Where("promo_id = ?", promoID).
		Exec(ctx)
	return err
}
