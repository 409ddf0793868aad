package entities

import "time"

// SourceKind categorizes where a piece of evidence originated. The set is
// fixed; each kind carries a configured weight and minimum-count requirement
// on the claim.
type SourceKind string

const (
	SourceCommunity     SourceKind = "community"
	SourceRemoteSensing SourceKind = "remote_sensing"
	SourceAerial        SourceKind = "aerial"
	SourceThirdParty    SourceKind = "third_party"
)

// SourceKinds lists every kind in a stable order.
func SourceKinds() []SourceKind {
	return []SourceKind{SourceCommunity, SourceRemoteSensing, SourceAerial, SourceThirdParty}
}

func (k SourceKind) Valid() bool {
	switch k {
	case SourceCommunity, SourceRemoteSensing, SourceAerial, SourceThirdParty:
		return true
	default:
		return false
	}
}

type DecisionState string

const (
	DecisionPending  DecisionState = "pending"
	DecisionAccepted DecisionState = "accepted"
	DecisionRejected DecisionState = "rejected"
)

// EvidenceSubmission is one piece of supporting data for a claim. Submissions
// are append-only: decisions mutate the state fields but nothing is ever
// deleted, preserving the audit trail.
type EvidenceSubmission struct {
	SubmissionID    string
	ClaimID         string
	SourceKind      SourceKind
	ContentRef      string
	Submitter       string
	ClaimedQuantity float64
	Decision        DecisionState
	DecisionNote    string
	DecidedBy       string
	SubmittedAt     time.Time
	DecidedAt       *time.Time
}

// ClaimRequirements is the verification configuration for one claim, supplied
// by the external claim registry: per-kind minimum submission counts, per-kind
// weights, the consensus threshold, and the issuance parameters used once the
// claim finalizes.
type ClaimRequirements struct {
	ClaimID       string
	MinimumCounts map[SourceKind]int
	Weights       map[SourceKind]float64
	Threshold     float64
	Beneficiary   string
	Vintage       string
	Standard      string
}

// ClaimConsensus aggregates the verification state of one claim. Finalized
// transitions false to true exactly once; IssuedQuantity and BatchID are
// written at that transition and immutable afterwards.
type ClaimConsensus struct {
	ClaimID          string
	SubmissionCounts map[SourceKind]int
	EligibleCounts   map[SourceKind]int
	AcceptedCounts   map[SourceKind]int
	Finalized        bool
	IssuedQuantity   float64
	BatchID          string
	FinalizedAt      *time.Time
	UpdatedAt        time.Time
}
