package errors

import "errors"

var (
	ErrListingNotFound     = errors.New("listing not found")
	ErrListingInactive     = errors.New("listing is not active")
	ErrInvalidPrice        = errors.New("price per unit must be positive")
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrInvalidExpiry       = errors.New("expiry must be in the future and within ninety days")
	ErrInvalidParty        = errors.New("caller identity is required")
	ErrNotSeller           = errors.New("only the listing seller may do this")
	ErrSelfPurchase        = errors.New("buyer and seller must differ")
	ErrQuantityExceeds     = errors.New("quantity exceeds listing remainder")
	ErrInsufficientPayment = errors.New("payment does not cover the sale price")
	ErrSplitNotConfigured  = errors.New("claim has no payout split configured")
	ErrInsufficientCredits = errors.New("seller does not hold enough credits")
	ErrConflict            = errors.New("conflicting settlement write")
	ErrNotFound            = errors.New("settlement record not found")
)
