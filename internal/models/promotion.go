package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	DiscountPercent = "percent"
	DiscountFixed   = "fixed"
)

const (
	PromoActive   = "active"
	PromoInactive = "inactive"
)

type Promotion struct {
	bun.BaseModel `bun:"table:promotions"`

	PromoID        string    `bun:"promo_id,pk" json:"promo_id"`
	PromoCode      string    `bun:"promo_code,unique,notnull" json:"promo_code"`
	Description    string    `bun:"description,nullzero" json:"description,omitempty"`
	DiscountType   string    `bun:"discount_type,notnull" json:"discount_type"`
	DiscountValue  float64   `bun:"discount_value,notnull" json:"discount_value"`
	StartDate      time.Time `bun:"start_date,notnull" json:"start_date"`
	EndDate        time.Time `bun:"end_date,notnull" json:"end_date"`
	MinOrderAmount float64   `bun:"min_order_amount" json:"min_order_amount"`
	UsageLimit     int       `bun:"usage_limit" json:"usage_limit"`
	UsedCount      int       `bun:"used_count" json:"used_count"`
	Status         string    `bun:"status,notnull" json:"status"`
}

type ApplyPromoRequest struct {
	PromoCode   string  `json:"promo_code,omitempty"`
	PromoID     string  `json:"promo_id,omitempty"`
	TotalAmount float64 `json:"total_amount"`
}

type ApplyPromoResult struct {
	PromoID        string  `json:"promo_id"`
	PromoCode      string  `json:"promo_code"`
	DiscountType   string  `json:"discount_type"`
	DiscountValue  float64 `json:"discount_value"`
	DiscountAmount float64 `json:"discount_amount"`
	MinOrderAmount float64 `json:"min_order_amount"`
}
