package services

import (
	"math"

	"bluecarbon/contexts/verification-core/consensus-verifier/domain/entities"
)

// Evaluation is the outcome of weighing every submission of a claim against
// its requirements. It is pure data; the application layer decides whether to
// act on it.
type Evaluation struct {
	SubmissionCounts map[entities.SourceKind]int
	EligibleCounts   map[entities.SourceKind]int
	AcceptedCounts   map[entities.SourceKind]int

	HasMinimumCoverage bool
	AcceptedWeight     float64
	TotalWeight        float64
	WeightFraction     float64

	// IssuedQuantity is the weight-normalized average of the claimed
	// quantities over accepted submissions. Zero when nothing is accepted.
	IssuedQuantity float64
}

// MeetsThreshold reports whether the claim may finalize. A zero accepted
// weight defers finalization even when coverage and threshold would pass, so
// a zero-quantity batch can never be issued.
func (e Evaluation) MeetsThreshold(threshold float64) bool {
	return e.HasMinimumCoverage &&
		e.AcceptedWeight > 0 &&
		e.IssuedQuantity > 0 &&
		e.WeightFraction >= threshold
}

// EvaluateConsensus tallies submissions per source kind and computes the
// weighted consensus state. Eligible counts include pending submissions:
// coverage asks whether enough evidence arrived, not whether it was reviewed.
// The weight fraction compares the kinds with at least one accepted
// submission against the kinds with at least one submission of any state.
func EvaluateConsensus(req entities.ClaimRequirements, submissions []entities.EvidenceSubmission) Evaluation {
	eval := Evaluation{
		SubmissionCounts: make(map[entities.SourceKind]int),
		EligibleCounts:   make(map[entities.SourceKind]int),
		AcceptedCounts:   make(map[entities.SourceKind]int),
	}

	var weightedQuantity float64
	var acceptedSubmissionWeight float64
	for _, submission := range submissions {
		kind := submission.SourceKind
		eval.SubmissionCounts[kind]++
		switch submission.Decision {
		case entities.DecisionAccepted:
			eval.EligibleCounts[kind]++
			eval.AcceptedCounts[kind]++
			weight := req.Weights[kind]
			weightedQuantity += submission.ClaimedQuantity * weight
			acceptedSubmissionWeight += weight
		case entities.DecisionPending:
			eval.EligibleCounts[kind]++
		}
	}

	eval.HasMinimumCoverage = true
	for kind, minimum := range req.MinimumCounts {
		if minimum > 0 && eval.EligibleCounts[kind] < minimum {
			eval.HasMinimumCoverage = false
			break
		}
	}

	for _, kind := range entities.SourceKinds() {
		if eval.SubmissionCounts[kind] > 0 {
			eval.TotalWeight += req.Weights[kind]
		}
		if eval.AcceptedCounts[kind] > 0 {
			eval.AcceptedWeight += req.Weights[kind]
		}
	}
	if eval.TotalWeight > 0 {
		eval.WeightFraction = eval.AcceptedWeight / eval.TotalWeight
	}
	if acceptedSubmissionWeight > 0 {
		eval.IssuedQuantity = round4(weightedQuantity / acceptedSubmissionWeight)
	}
	return eval
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
