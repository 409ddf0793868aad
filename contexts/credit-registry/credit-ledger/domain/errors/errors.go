package errors

import "errors"

var (
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrInvalidBeneficiary  = errors.New("beneficiary identity is required")
	ErrInvalidOwner        = errors.New("owner identity is required")
	ErrReasonRequired      = errors.New("retirement reason is required")
	ErrBatchNotFound       = errors.New("credit batch not found")
	ErrBatchFullyRetired   = errors.New("credit batch is fully retired")
	ErrRetirementExceeds   = errors.New("retirement exceeds unretired batch quantity")
	ErrInsufficientBalance = errors.New("insufficient credit balance")
	ErrSelfTransfer        = errors.New("transfer to the same identity")
	ErrConflict            = errors.New("conflicting ledger write")
	ErrNotFound            = errors.New("ledger record not found")
)
