package models

import (
	"time"

	"github.com/uptrace/bun"
)

type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodCard         PaymentMethod = "card"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodEWallet      PaymentMethod = "e-wallet"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodCard, MethodBankTransfer, MethodEWallet:
		return true
	}
	return false
}

// IsInstantSettlement reports whether a method settles without an external
// gateway round-trip. Cash and e-wallet payments confirm immediately; card
// and bank transfer stay pending until the gateway callback.
func IsInstantSettlement(m PaymentMethod) bool {
	return m == MethodCash || m == MethodEWallet
}

const (
	TxnStatusSuccess = "success"
	TxnStatusFailed  = "failed"
)

type Payment struct {
	bun.BaseModel `bun:"table:payments"`

	PaymentID         string        `bun:"payment_id,pk" json:"payment_id"`
	OrderID           string        `bun:"order_id,notnull" json:"order_id"`
	Amount            float64       `bun:"amount,notnull" json:"amount"`
	PaymentMethod     PaymentMethod `bun:"payment_method,notnull" json:"payment_method"`
	PaymentDate       time.Time     `bun:"payment_date,notnull" json:"payment_date"`
	TransactionRef    string        `bun:"transaction_ref,nullzero" json:"transaction_ref,omitempty"`
	TransactionStatus string        `bun:"transaction_status,nullzero" json:"transaction_status,omitempty"`
}

type RecordPaymentRequest struct {
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"payment_method"`
}
