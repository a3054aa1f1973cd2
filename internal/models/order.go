package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Order pay_status values. pending → paid and pending → canceled are the
// only transitions; both targets are terminal.
const (
	PayStatusPending  = "pending"
	PayStatusPaid     = "paid"
	PayStatusCanceled = "canceled"
)

const (
	OrderTypeOnline  = "online"
	OrderTypeOffline = "offline"
)

type Order struct {
	bun.BaseModel `bun:"table:orders"`

	OrderID        string    `bun:"order_id,pk" json:"order_id"`
	CustomerID     int64     `bun:"customer_id,notnull" json:"customer_id"`
	UserID         int64     `bun:"user_id,nullzero" json:"user_id,omitempty"`
	PromoID        string    `bun:"promo_id,nullzero" json:"promo_id,omitempty"`
	OrderDate      time.Time `bun:"order_date,notnull" json:"order_date"`
	TotalAmount    float64   `bun:"total_amount,notnull" json:"total_amount"`
	DiscountAmount float64   `bun:"discount_amount" json:"discount_amount"`
	PayStatus      string    `bun:"pay_status,notnull" json:"pay_status"`
	OrderType      string    `bun:"order_type,notnull" json:"order_type"`
}

// AmountOwed is the payable total after discount.
func (o Order) AmountOwed() float64 {
	return o.TotalAmount - o.DiscountAmount
}

type OrderItem struct {
	bun.BaseModel `bun:"table:order_items"`

	OrderItemID string  `bun:"order_item_id,pk" json:"order_item_id"`
	OrderID     string  `bun:"order_id,notnull" json:"order_id"`
	ProductID   int64   `bun:"product_id,notnull" json:"product_id"`
	Quantity    int     `bun:"quantity,notnull" json:"quantity"`
	Price       float64 `bun:"price,notnull" json:"price"`
	Subtotal    float64 `bun:"subtotal,notnull" json:"subtotal"`
}

type OrderDetail struct {
	Order    Order       `json:"order"`
	Items    []OrderItem `json:"items"`
	Payments []Payment   `json:"payments,omitempty"`
	Bill     *Bill       `json:"bill,omitempty"`
}

type OrderPreview struct {
	Items          []OrderItem `json:"items"`
	TotalAmount    float64     `json:"total_amount"`
	DiscountAmount float64     `json:"discount_amount"`
	FinalAmount    float64     `json:"final_amount"`
	PromoID        string      `json:"promo_id,omitempty"`
}

type CheckoutRequest struct {
	PromoCode     string `json:"promo_code,omitempty"`
	PromoID       string `json:"promo_id,omitempty"`
	PaymentMethod string `json:"payment_method"`
}

type PreviewRequest struct {
	PromoCode string `json:"promo_code,omitempty"`
	PromoID   string `json:"promo_id,omitempty"`
}
