package services

import (
	"testing"

	"bluecarbon/contexts/verification-core/consensus-verifier/domain/entities"
)

func requirements() entities.ClaimRequirements {
	return entities.ClaimRequirements{
		ClaimID: "claim-1",
		MinimumCounts: map[entities.SourceKind]int{
			entities.SourceCommunity:     1,
			entities.SourceRemoteSensing: 1,
		},
		Weights: map[entities.SourceKind]float64{
			entities.SourceCommunity:     1,
			entities.SourceRemoteSensing: 3,
			entities.SourceAerial:        2,
		},
		Threshold:   0.6,
		Beneficiary: "community-dao",
	}
}

func submission(kind entities.SourceKind, decision entities.DecisionState, quantity float64) entities.EvidenceSubmission {
	return entities.EvidenceSubmission{
		SubmissionID:    "sub",
		ClaimID:         "claim-1",
		SourceKind:      kind,
		ClaimedQuantity: quantity,
		Decision:        decision,
	}
}

func TestEvaluateConsensusWeightedQuantity(t *testing.T) {
	eval := EvaluateConsensus(requirements(), []entities.EvidenceSubmission{
		submission(entities.SourceCommunity, entities.DecisionAccepted, 100),
		submission(entities.SourceRemoteSensing, entities.DecisionAccepted, 120),
	})

	if !eval.HasMinimumCoverage {
		t.Fatalf("expected coverage with one submission per required kind")
	}
	// (100*1 + 120*3) / (1 + 3)
	if eval.IssuedQuantity != 115 {
		t.Fatalf("expected weighted quantity 115, got %v", eval.IssuedQuantity)
	}
	if eval.WeightFraction != 1 {
		t.Fatalf("expected full weight fraction, got %v", eval.WeightFraction)
	}
	if !eval.MeetsThreshold(0.6) {
		t.Fatalf("expected threshold met")
	}
}

func TestEvaluateConsensusMissingCoverageBlocksFinalization(t *testing.T) {
	eval := EvaluateConsensus(requirements(), []entities.EvidenceSubmission{
		submission(entities.SourceCommunity, entities.DecisionAccepted, 100),
	})

	if eval.HasMinimumCoverage {
		t.Fatalf("expected missing remote sensing evidence to block coverage")
	}
	if eval.MeetsThreshold(0.0) {
		t.Fatalf("threshold must not pass without coverage")
	}
}

func TestEvaluateConsensusPendingCountsTowardCoverageOnly(t *testing.T) {
	eval := EvaluateConsensus(requirements(), []entities.EvidenceSubmission{
		submission(entities.SourceCommunity, entities.DecisionPending, 100),
		submission(entities.SourceRemoteSensing, entities.DecisionPending, 100),
	})

	if !eval.HasMinimumCoverage {
		t.Fatalf("pending submissions should satisfy coverage")
	}
	if eval.AcceptedWeight != 0 {
		t.Fatalf("pending submissions must not carry accepted weight, got %v", eval.AcceptedWeight)
	}
	if eval.MeetsThreshold(0.0) {
		t.Fatalf("claim must not finalize on pending evidence alone")
	}
}

func TestEvaluateConsensusRejectionLowersFraction(t *testing.T) {
	eval := EvaluateConsensus(requirements(), []entities.EvidenceSubmission{
		submission(entities.SourceCommunity, entities.DecisionAccepted, 100),
		submission(entities.SourceRemoteSensing, entities.DecisionAccepted, 100),
		submission(entities.SourceAerial, entities.DecisionRejected, 500),
	})

	// accepted kinds carry weight 1+3, submitted kinds carry weight 1+3+2
	want := 4.0 / 6.0
	if eval.WeightFraction != want {
		t.Fatalf("expected fraction %v, got %v", want, eval.WeightFraction)
	}
	// rejected quantity must not influence issuance
	if eval.IssuedQuantity != 100 {
		t.Fatalf("expected issued quantity 100, got %v", eval.IssuedQuantity)
	}
	if eval.MeetsThreshold(0.7) {
		t.Fatalf("expected 0.7 threshold to fail at fraction %v", eval.WeightFraction)
	}
	if !eval.MeetsThreshold(0.6) {
		t.Fatalf("expected 0.6 threshold to pass at fraction %v", eval.WeightFraction)
	}
}

func TestEvaluateConsensusZeroQuantityNeverFinalizes(t *testing.T) {
	req := requirements()
	req.MinimumCounts = map[entities.SourceKind]int{}
	eval := EvaluateConsensus(req, nil)

	if eval.MeetsThreshold(0.0) {
		t.Fatalf("empty claim must not finalize")
	}
}
