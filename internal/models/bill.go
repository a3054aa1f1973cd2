package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	BillUnpaid    = "unpaid"
	BillPaid      = "paid"
	BillCancelled = "cancelled"
)

// Bill is the customer-facing financial record derived from an Order,
// 1:1 with the order in the checkout path.
type Bill struct {
	bun.BaseModel `bun:"table:bills"`

	BillID         string        `bun:"bill_id,pk" json:"bill_id"`
	OrderID        string        `bun:"order_id,unique,notnull" json:"order_id"`
	CustomerID     int64         `bun:"customer_id,notnull" json:"customer_id"`
	TotalAmount    float64       `bun:"total_amount,notnull" json:"total_amount"`
	DiscountAmount float64       `bun:"discount_amount" json:"discount_amount"`
	FinalAmount    float64       `bun:"final_amount,notnull" json:"final_amount"`
	PaymentMethod  PaymentMethod `bun:"payment_method,notnull" json:"payment_method"`
	PayStatus      string        `bun:"pay_status,notnull" json:"pay_status"`
	CreatedAt      time.Time     `bun:"created_at,notnull" json:"created_at"`
	PaidAt         time.Time     `bun:"paid_at,nullzero" json:"paid_at,omitempty"`
}

type UpdateBillStatusRequest struct {
	Status string `json:"status"`
}
