package entities

import "time"

// MaxBasisPoints is the whole of a sale expressed in basis points.
const MaxBasisPoints = 10000

// BeneficiaryRole labels what a payout allocation compensates.
type BeneficiaryRole string

const (
	RoleCommunity BeneficiaryRole = "community"
	RolePartner   BeneficiaryRole = "partner"
	RoleVerifier  BeneficiaryRole = "verifier"
)

func (r BeneficiaryRole) Valid() bool {
	switch r {
	case RoleCommunity, RolePartner, RoleVerifier:
		return true
	default:
		return false
	}
}

// Allocation routes a basis-point share of each sale to one beneficiary.
type Allocation struct {
	Role        BeneficiaryRole
	Beneficiary string
	BasisPoints int64
}

// PayoutSplit is the per-claim distribution configuration. It is replaced
// wholesale on every configure call, never partially mutated. The platform
// beneficiary additionally receives the flooring remainder of each
// settlement, so no money is dropped.
type PayoutSplit struct {
	ClaimID             string
	Allocations         []Allocation
	PlatformBeneficiary string
	PlatformBasisPoints int64
	UpdatedAt           time.Time
}

// TotalBasisPoints sums every allocated share including the platform's.
func (s PayoutSplit) TotalBasisPoints() int64 {
	total := s.PlatformBasisPoints
	for _, allocation := range s.Allocations {
		total += allocation.BasisPoints
	}
	return total
}

// Empty reports whether the split routes money to nobody.
func (s PayoutSplit) Empty() bool {
	return len(s.Allocations) == 0 && s.PlatformBasisPoints == 0
}

// SaleRecord is one settlement event. Immutable once created; Distributed
// flips false to true exactly once, atomically with the pending credits.
// TotalPrice is in integer minor units.
type SaleRecord struct {
	SaleID      string
	ClaimID     string
	BatchID     string
	Quantity    float64
	TotalPrice  int64
	Buyer       string
	Seller      string
	Distributed bool
	CreatedAt   time.Time
}

// ShareCredit is one beneficiary's computed share of a settled sale.
type ShareCredit struct {
	Beneficiary string
	Role        BeneficiaryRole
	Amount      int64
}

// PendingWithdrawal accumulates a beneficiary's not-yet-claimed payouts. It
// only ever grows, except for the atomic zeroing on a full withdrawal.
type PendingWithdrawal struct {
	Identity  string
	Amount    int64
	UpdatedAt time.Time
}
