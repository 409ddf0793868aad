package commands

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"bluecarbon/contexts/verification-core/consensus-verifier/adapters/memory"
	"bluecarbon/contexts/verification-core/consensus-verifier/domain/entities"
	domainerrors "bluecarbon/contexts/verification-core/consensus-verifier/domain/errors"
	"bluecarbon/contexts/verification-core/consensus-verifier/ports"
)

type stubPolicy struct {
	verifiers map[string]bool
}

func (p stubPolicy) IsVerifier(_ context.Context, identity string) (bool, error) {
	return p.verifiers[identity], nil
}

type stubIssuer struct {
	calls int
	fail  bool
}

func (i *stubIssuer) IssueBatch(_ context.Context, _ ports.IssueBatchInput) (string, error) {
	if i.fail {
		return "", errors.New("ledger unavailable")
	}
	i.calls++
	return fmt.Sprintf("batch-%d", i.calls), nil
}

func newUseCase(store *memory.Store, issuer *stubIssuer) EvidenceUseCase {
	return EvidenceUseCase{
		Submissions: store,
		Registry:    store,
		Policy:      stubPolicy{verifiers: map[string]bool{"vera": true}},
		Issuer:      issuer,
		Outbox:      store,
		Clock:       store,
		IDGen:       store,
	}
}

func registerSimpleClaim(t *testing.T, uc EvidenceUseCase, claimID string) {
	t.Helper()
	err := uc.RegisterClaim(context.Background(), RegisterClaimCommand{
		ClaimID: claimID,
		MinimumCounts: map[entities.SourceKind]int{
			entities.SourceCommunity: 1,
		},
		Weights: map[entities.SourceKind]float64{
			entities.SourceCommunity: 1,
		},
		Threshold:   1,
		Beneficiary: "community-dao",
		Vintage:     "2026",
		Standard:    "vcs",
	})
	if err != nil {
		t.Fatalf("register claim: %v", err)
	}
}

func submitCommunity(t *testing.T, uc EvidenceUseCase, claimID string, quantity float64) entities.EvidenceSubmission {
	t.Helper()
	submission, err := uc.Submit(context.Background(), SubmitEvidenceCommand{
		ClaimID:         claimID,
		SourceKind:      entities.SourceCommunity,
		ContentRef:      "ipfs://evidence",
		ClaimedQuantity: quantity,
		Submitter:       "sam",
	})
	if err != nil {
		t.Fatalf("submit evidence: %v", err)
	}
	return submission
}

func TestSubmitRejectsUnknownClaim(t *testing.T) {
	store := memory.NewStore()
	uc := newUseCase(store, &stubIssuer{})

	_, err := uc.Submit(context.Background(), SubmitEvidenceCommand{
		ClaimID:         "claim-missing",
		SourceKind:      entities.SourceCommunity,
		ContentRef:      "ipfs://evidence",
		ClaimedQuantity: 10,
		Submitter:       "sam",
	})
	if !errors.Is(err, domainerrors.ErrClaimNotFound) {
		t.Fatalf("expected ErrClaimNotFound, got %v", err)
	}
}

func TestDecideRejectsUnauthorizedVerifier(t *testing.T) {
	store := memory.NewStore()
	issuer := &stubIssuer{}
	uc := newUseCase(store, issuer)
	registerSimpleClaim(t, uc, "claim-1")
	submission := submitCommunity(t, uc, "claim-1", 50)

	_, err := uc.Decide(context.Background(), DecideEvidenceCommand{
		SubmissionID: submission.SubmissionID,
		Accept:       true,
		VerifierID:   "mallory",
	})
	if !errors.Is(err, domainerrors.ErrUnauthorizedVerifier) {
		t.Fatalf("expected ErrUnauthorizedVerifier, got %v", err)
	}
	if issuer.calls != 0 {
		t.Fatalf("unauthorized decision must not mint, got %d calls", issuer.calls)
	}

	stored, err := store.GetSubmission(context.Background(), submission.SubmissionID)
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if stored.Decision != entities.DecisionPending {
		t.Fatalf("expected submission to stay pending, got %s", stored.Decision)
	}
}

func TestDecideFinalizesOnceAndMintsOnce(t *testing.T) {
	store := memory.NewStore()
	issuer := &stubIssuer{}
	uc := newUseCase(store, issuer)
	registerSimpleClaim(t, uc, "claim-1")
	first := submitCommunity(t, uc, "claim-1", 50)

	result, err := uc.Decide(context.Background(), DecideEvidenceCommand{
		SubmissionID: first.SubmissionID,
		Accept:       true,
		VerifierID:   "vera",
	})
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if !result.Finalized {
		t.Fatalf("expected finalization at full consensus")
	}
	if result.Consensus.BatchID != "batch-1" {
		t.Fatalf("expected attached batch id, got %q", result.Consensus.BatchID)
	}
	if result.Consensus.IssuedQuantity != 50 {
		t.Fatalf("expected issued quantity 50, got %v", result.Consensus.IssuedQuantity)
	}
	if issuer.calls != 1 {
		t.Fatalf("expected exactly one mint, got %d", issuer.calls)
	}

	// later evidence is recorded but never re-finalizes or re-mints
	second := submitCommunity(t, uc, "claim-1", 500)
	again, err := uc.Decide(context.Background(), DecideEvidenceCommand{
		SubmissionID: second.SubmissionID,
		Accept:       true,
		VerifierID:   "vera",
	})
	if err != nil {
		t.Fatalf("decide after finalization: %v", err)
	}
	if again.Finalized {
		t.Fatalf("second decision must not report finalization")
	}
	if issuer.calls != 1 {
		t.Fatalf("expected single mint after second decision, got %d", issuer.calls)
	}
	if again.Consensus.IssuedQuantity != 50 {
		t.Fatalf("issued quantity must stay frozen at 50, got %v", again.Consensus.IssuedQuantity)
	}
}

func TestDecideReopensConsensusWhenIssuanceFails(t *testing.T) {
	store := memory.NewStore()
	issuer := &stubIssuer{fail: true}
	uc := newUseCase(store, issuer)
	registerSimpleClaim(t, uc, "claim-1")
	submission := submitCommunity(t, uc, "claim-1", 50)

	_, err := uc.Decide(context.Background(), DecideEvidenceCommand{
		SubmissionID: submission.SubmissionID,
		Accept:       true,
		VerifierID:   "vera",
	})
	if err == nil {
		t.Fatalf("expected issuance failure to surface")
	}

	consensus, found, err := store.GetConsensus(context.Background(), "claim-1")
	if err != nil || !found {
		t.Fatalf("get consensus: found=%v err=%v", found, err)
	}
	if consensus.Finalized {
		t.Fatalf("failed issuance must unwind finalization")
	}

	// the ledger recovers; re-deciding the same submission finalizes cleanly
	issuer.fail = false
	result, err := uc.Decide(context.Background(), DecideEvidenceCommand{
		SubmissionID: submission.SubmissionID,
		Accept:       true,
		VerifierID:   "vera",
	})
	if err != nil {
		t.Fatalf("decide retry: %v", err)
	}
	if !result.Finalized {
		t.Fatalf("expected finalization after ledger recovery")
	}
	if issuer.calls != 1 {
		t.Fatalf("expected one successful mint, got %d", issuer.calls)
	}
}

func TestSubmitEnforcesPerClaimLimit(t *testing.T) {
	store := memory.NewStore()
	uc := newUseCase(store, &stubIssuer{})
	registerSimpleClaim(t, uc, "claim-1")

	for i := 0; i < MaxSubmissionsPerClaim; i++ {
		err := store.CreateSubmission(context.Background(), entities.EvidenceSubmission{
			SubmissionID:    fmt.Sprintf("sub-%d", i),
			ClaimID:         "claim-1",
			SourceKind:      entities.SourceCommunity,
			ContentRef:      "ipfs://evidence",
			Submitter:       "sam",
			ClaimedQuantity: 1,
			Decision:        entities.DecisionPending,
		})
		if err != nil {
			t.Fatalf("seed submission %d: %v", i, err)
		}
	}

	_, err := uc.Submit(context.Background(), SubmitEvidenceCommand{
		ClaimID:         "claim-1",
		SourceKind:      entities.SourceCommunity,
		ContentRef:      "ipfs://evidence",
		ClaimedQuantity: 1,
		Submitter:       "sam",
	})
	if !errors.Is(err, domainerrors.ErrSubmissionLimit) {
		t.Fatalf("expected ErrSubmissionLimit, got %v", err)
	}
}
