package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"store-backend/internal/models"
)

var ErrProductNotFound = errors.New("product not found")

type DB struct {
	Bun *bun.DB
}

// GetProduct fetches one product by id, soft-deleted rows included so
// callers can classify them.
func (d *DB) GetProduct(ctx context.Context, idb bun.IDB, productID int64) (*models.Product, error) {
	var product models.Product
	err := idb.NewSelect().
		Model(&product).
		Where("product_id = ?", productID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ListProducts returns all products that are not soft-deleted.
func (d *DB) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := d.Bun.NewSelect().
		Model(&products).
		Where("deleted = ?", false).
		Order("product_name").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return products, nil
}

// CountProducts counts products that are not soft-deleted.
func (d *DB) CountProducts(ctx context.Context) (int64, error) {
	count, err := d.Bun.NewSelect().
		Model((*models.Product)(nil)).
		Where("deleted = ?", false).
		Count(ctx)
	if err != nil {
		return 0, err
	}
	return int64(count), nil
}
