package models

import (
	"time"

	"github.com/uptrace/bun"
)

// CartItem is one customer-keyed cart line. The (customer_id, product_id)
// pair is unique; unit_price is a snapshot taken when the line was added.
type CartItem struct {
	bun.BaseModel `bun:"table:cart_items"`

	CartItemID string    `bun:"cart_item_id,pk" json:"cart_item_id"`
	CustomerID int64     `bun:"customer_id,notnull" json:"customer_id"`
	ProductID  int64     `bun:"product_id,notnull" json:"product_id"`
	Quantity   int       `bun:"quantity,notnull" json:"quantity"`
	UnitPrice  float64   `bun:"unit_price,notnull" json:"unit_price"`
	AddedAt    time.Time `bun:"added_at,notnull" json:"added_at"`
}

// Subtotal is always quantity × unit_price, never stored independently.
func (c CartItem) Subtotal() float64 {
	return float64(c.Quantity) * c.UnitPrice
}

type CartItemView struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Subtotal    float64 `json:"subtotal"`
}

type CartView struct {
	Items []CartItemView `json:"items"`
	Total float64        `json:"total"`
}

type AddCartItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// CartLine is the minimal (product, quantity) pair used by stock validation.
type CartLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}
