package promotion

import "errors"

var (
	ErrNotFound          = errors.New("promotion not found")
	ErrInactive          = errors.New("promotion is not active")
	ErrNotYetValid       = errors.New("promotion is not yet valid")
	ErrExpired           = errors.New("promotion has expired")
	ErrUsageExceeded     = errors.New("promotion usage limit reached")
	ErrBelowMinimum      = errors.New("order total below promotion minimum")
	ErrCodeExists        = errors.New("promotion code already exists")
	ErrImmutableAfterUse = errors.New("discount type and value are immutable once the promotion has been used")
	ErrInUse             = errors.New("promotion has been used and cannot be deleted")
	ErrInvalid           = errors.New("invalid promotion data")
)
