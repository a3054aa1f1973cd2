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

// ListByCustomer returns the customer's cart lines, oldest first.
func (d *DB) ListByCustomer(ctx context.Context, idb bun.IDB, customerID int64) ([]models.CartItem, error) {
	var items []models.CartItem
	err := idb.NewSelect().
		Model(&items).
		Where("customer_id = ?", customerID).
		Order("added_at").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// GetItem fetches the cart line for a (customer, product) pair.
func (d *DB) GetItem(ctx context.Context, idb bun.IDB, customerID, productID int64) (*models.CartItem, error) {
	var item models.CartItem
	err := idb.NewSelect().
		Model(&item).
		Where("customer_id = ? AND product_id = ?", customerID, productID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (d *DB) Insert(ctx context.Context, idb bun.IDB, item *models.CartItem) error {
	_, err := idb.NewInsert().Model(item).Exec(ctx)
	return err
}

// UpdateQuantity sets a line's quantity; subtotal stays derived.
func (d *DB) UpdateQuantity(ctx context.Context, idb bun.IDB, cartItemID string, quantity int) error {
	_, err := idb.NewUpdate().
		Model((*models.CartItem)(nil)).
		Set("quantity = ?", quantity).
		Set("added_at = ?", time.Now()).
		Where("cart_item_id = ?", cartItemID).
		Exec(ctx)
	return err
}

func (d *DB) DeleteItem(ctx context.Context, idb bun.IDB, customerID, productID int64) (int64, error) {
	res, err := idb.NewDelete().
		Model((*models.CartItem)(nil)).
		Where("customer_id = ? AND product_id = ?", customerID, productID).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

// Clear removes every cart line the customer owns.
func (d *DB) Clear(ctx context.Context, idb bun.IDB, customerID int64) error {
	_, err := idb.NewDelete().
		Model((*models.CartItem)(nil)).
		Where("customer_id = ?", customerID).
		Exec(ctx)
	return err
}
