package errors

import "errors"

var (
	ErrClaimNotFound        = errors.New("claim not found in registry")
	ErrSubmissionNotFound   = errors.New("evidence submission not found")
	ErrInvalidSourceKind    = errors.New("invalid evidence source kind")
	ErrInvalidContentRef    = errors.New("evidence content reference is required")
	ErrInvalidQuantity      = errors.New("claimed quantity must be positive")
	ErrInvalidSubmitter     = errors.New("submitter identity is required")
	ErrInvalidRequirements  = errors.New("claim verification requirements are invalid")
	ErrUnauthorizedVerifier = errors.New("identity is not an authorized verifier")
	ErrAlreadyFinalized     = errors.New("claim consensus already finalized")
	ErrSubmissionLimit      = errors.New("claim submission limit reached")
	ErrConflict             = errors.New("conflicting verification write")
	ErrNotFound             = errors.New("verification record not found")
)
