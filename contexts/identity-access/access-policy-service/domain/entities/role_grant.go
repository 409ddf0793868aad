package entities

import "time"

// Role is a coarse capability bundle recognized by the credit core.
type Role string

const (
	// RoleVerifier may accept or reject evidence submissions.
	RoleVerifier Role = "verifier"
	// RoleAdmin may mutate the access policy itself.
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleVerifier, RoleAdmin:
		return true
	default:
		return false
	}
}

// RoleGrant records one identity holding one role. Revocation flips the flag
// rather than deleting the row so policy mutations stay auditable.
type RoleGrant struct {
	GrantID   string
	Identity  string
	Role      Role
	GrantedBy string
	Reason    string
	Revoked   bool
	RevokedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}
