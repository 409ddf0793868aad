package entities

import "time"

// CreditBatch is a minted quantity of fungible credits tied to one claim and
// vintage. RetiredQuantity accumulates and can never exceed Quantity; Retired
// flips only when the batch is consumed exactly.
type CreditBatch struct {
	BatchID         string
	ClaimID         string
	Quantity        float64
	RetiredQuantity float64
	Vintage         string
	Standard        string
	Owner           string
	Retired         bool
	CreatedAt       time.Time
}

// RemainingQuantity is the unretired remainder of the batch.
func (b CreditBatch) RemainingQuantity() float64 {
	remaining := b.Quantity - b.RetiredQuantity
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Retirement is an append-only record of credits permanently removed from
// circulation.
type Retirement struct {
	RetirementID string
	BatchID      string
	Quantity     float64
	Reason       string
	Retiree      string
	CreatedAt    time.Time
}

// Balance is the fungible holding of one identity.
type Balance struct {
	Identity  string
	Quantity  float64
	UpdatedAt time.Time
}

// GlobalStats are the ledger-wide issuance counters. Circulating is always
// derived so the conservation invariant cannot drift:
// sum(balances) + retired == issued.
type GlobalStats struct {
	Issued  float64
	Retired float64
}

func (s GlobalStats) Circulating() float64 {
	return s.Issued - s.Retired
}
