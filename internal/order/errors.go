package order

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrOrderNotFound        = errors.New("order not found")
	ErrNotOwner             = errors.New("order belongs to another customer")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrPaymentExceedsTotal  = errors.New("payment exceeds amount owed")
	ErrOrderAlreadyPaid     = errors.New("order is already paid")
	ErrAlreadyCanceled      = errors.New("order is already canceled")
	ErrCancelWindowClosed   = errors.New("paid orders can only be canceled on the day of payment")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrCheckoutInProgress   = errors.New("another checkout is in progress for this customer")
	ErrPriceChanged         = errors.New("product price changed since it was added to the cart")
	ErrInvalidItem          = errors.New("invalid order item")
)

// StockError carries which product fell short so handlers can report it.
type StockError struct {
	ProductID   int64
	ProductName string
	Requested   int
	Available   int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d (%s): requested %d, available %d",
		e.ProductID, e.ProductName, e.Requested, e.Available)
}

func (e *StockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
