package errors

import "errors"

var (
	ErrInvalidSplit       = errors.New("payout split configuration is invalid")
	ErrSplitExceedsWhole  = errors.New("payout split exceeds 10000 basis points")
	ErrSplitNotConfigured = errors.New("no payout split configured for claim")
	ErrInvalidPrice       = errors.New("sale price must be positive")
	ErrInvalidQuantity    = errors.New("sale quantity must be positive")
	ErrInvalidParty       = errors.New("buyer and seller identities are required")
	ErrInvalidBeneficiary = errors.New("beneficiary identity is required")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrSaleNotFound       = errors.New("sale record not found")
	ErrNothingToWithdraw  = errors.New("no pending amount to withdraw")
	ErrConflict           = errors.New("conflicting payment write")
	ErrNotFound           = errors.New("payment record not found")
)
