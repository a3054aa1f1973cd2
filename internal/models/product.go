package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Product struct {
	bun.BaseModel `bun:"table:products"`

	ProductID   int64     `bun:"product_id,pk,autoincrement" json:"product_id"`
	ProductName string    `bun:"product_name,notnull" json:"product_name"`
	Barcode     string    `bun:"barcode,nullzero" json:"barcode,omitempty"`
	Unit        string    `bun:"unit,nullzero" json:"unit,omitempty"`
	Price       float64   `bun:"price,notnull" json:"price"`
	Deleted     bool      `bun:"deleted" json:"deleted"`
	CreatedAt   time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
}

type Inventory struct {
	bun.BaseModel `bun:"table:inventories"`

	InventoryID int64     `bun:"inventory_id,pk,autoincrement" json:"inventory_id"`
	ProductID   int64     `bun:"product_id,notnull,unique" json:"product_id"`
	Quantity    int       `bun:"quantity,notnull" json:"quantity"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

// InventoryWithProduct is the staff-facing read shape.
type InventoryWithProduct struct {
	Inventory
	Product *Product `json:"product,omitempty"`
}
