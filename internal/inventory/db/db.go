package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"store-backend/internal/models"
)

// ErrStockConflict is returned when a conditional decrement matched no row,
// meaning the available quantity dropped below the requested amount.
var ErrStockConflict = errors.New("insufficient stock for conditional decrement")

type DB struct {
	Bun *bun.DB
}

// Available returns the on-hand quantity for a product. found is false
// when no inventory row exists.
func (d *DB) Available(ctx context.Context, idb bun.IDB, productID int64) (quantity int, found bool, err error) {
	var inv models.Inventory
	err = idb.NewSelect().
		Model(&inv).
		Where("product_id = ?", productID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return inv.Quantity, true, nil
}

// Decrement atomically subtracts quantity, guarded so two concurrent
// checkouts cannot both take the last units:
// the WHERE re-checks quantity >= requested inside the UPDATE.
func (d *DB) Decrement(ctx context.Context, idb bun.IDB, productID int64, quantity int) error {
	res, err := idb.NewUpdate().
		Model((*models.Inventory)(nil)).
		Set("quantity = quantity - ?", quantity).
		Set("updated_at = ?", time.Now()).
		Where("product_id = ? AND quantity >= ?", productID, quantity).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrStockConflict
	}
	return nil
}

// Increment restores quantity, used by the cancellation path.
func (d *DB) Increment(ctx context.Context, idb bun.IDB, productID int64, quantity int) error {
	_, err := idb.NewUpdate().
		Model((*models.Inventory)(nil)).
		Set("quantity = quantity + ?", quantity).
		Set("updated_at = ?", time.Now()).
		Where("product_id = ?", productID).
		Exec(ctx)
	return err
}

// List returns all inventory rows with their products.
func (d *DB) List(ctx context.Context) ([]models.InventoryWithProduct, error) {
	var inventories []models.Inventory
	err := d.Bun.NewSelect().
		Model(&inventories).
		Order("product_id").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]models.InventoryWithProduct, 0, len(inventories))
	for _, inv := range inventories {
		row := models.InventoryWithProduct{Inventory: inv}
		var product models.Product
		err := d.Bun.NewSelect().
			Model(&product).
			Where("product_id = ?", inv.ProductID).
			Limit(1).
			Scan(ctx)
		if err == nil {
			row.Product = &product
		}
		result = append(result, row)
	}
	return result, nil
}

// GetByProductID fetches one inventory row with its product.
func (d *DB) GetByProductID(ctx context.Context, productID int64) (*models.InventoryWithProduct, error) {
	var inv models.Inventory
	err := d.Bun.NewSelect().
		Model(&inv).
		Where("product_id = ?", productID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	row := &models.InventoryWithProduct{Inventory: inv}
	var product models.Product
	if err := d.Bun.NewSelect().
		Model(&product).
		Where("product_id = ?", inv.ProductID).
		Limit(1).
		Scan(ctx); err == nil {
		row.Product = &product
	}
	return row, nil
}
