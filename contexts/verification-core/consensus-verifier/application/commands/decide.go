package commands

import (
	"context"
	"errors"
	"strings"
	"time"

	"bluecarbon/contexts/verification-core/consensus-verifier/domain/entities"
	domainerrors "bluecarbon/contexts/verification-core/consensus-verifier/domain/errors"
	domainservices "bluecarbon/contexts/verification-core/consensus-verifier/domain/services"
	"bluecarbon/contexts/verification-core/consensus-verifier/ports"
)

// DecideResult reports the decision outcome plus whether this decision
// finalized the claim.
type DecideResult struct {
	Submission entities.EvidenceSubmission
	Finalized  bool
	Consensus  entities.ClaimConsensus
}

// Decide applies a verifier decision to a submission and evaluates
// finalization. Re-deciding an already-decided submission is allowed and
// adjusts the tallies in either direction; once the claim is finalized the
// issued quantity is frozen regardless of later corrections.
func (uc EvidenceUseCase) Decide(ctx context.Context, cmd DecideEvidenceCommand) (DecideResult, error) {
	logger := resolveLogger(uc.Logger)
	verifierID := strings.TrimSpace(cmd.VerifierID)
	if verifierID == "" {
		return DecideResult{}, domainerrors.ErrUnauthorizedVerifier
	}
	authorized, err := uc.Policy.IsVerifier(ctx, verifierID)
	if err != nil {
		return DecideResult{}, err
	}
	if !authorized {
		logger.Warn("decision rejected for unauthorized identity",
			"event", "verifier_decision_unauthorized",
			"module", "verification-core/consensus-verifier",
			"layer", "application",
			"verifier_id", verifierID,
			"submission_id", strings.TrimSpace(cmd.SubmissionID),
		)
		return DecideResult{}, domainerrors.ErrUnauthorizedVerifier
	}

	submission, err := uc.Submissions.GetSubmission(ctx, strings.TrimSpace(cmd.SubmissionID))
	if err != nil {
		return DecideResult{}, err
	}
	requirements, found, err := uc.Registry.GetClaim(ctx, submission.ClaimID)
	if err != nil {
		return DecideResult{}, err
	}
	if !found {
		return DecideResult{}, domainerrors.ErrClaimNotFound
	}

	now := uc.now()
	if cmd.Accept {
		submission.Decision = entities.DecisionAccepted
	} else {
		submission.Decision = entities.DecisionRejected
	}
	submission.DecisionNote = strings.TrimSpace(cmd.Note)
	submission.DecidedBy = verifierID
	submission.DecidedAt = &now
	if err := uc.Submissions.SaveSubmission(ctx, submission); err != nil {
		return DecideResult{}, err
	}

	eval, err := uc.refreshTally(ctx, requirements)
	if err != nil {
		return DecideResult{}, err
	}
	if err := uc.appendVerificationEvent(ctx, "verification.evidence_decided", submission.ClaimID, map[string]any{
		"submission_id": submission.SubmissionID,
		"claim_id":      submission.ClaimID,
		"decision":      string(submission.Decision),
		"verifier_id":   verifierID,
		"decided_at":    now.UTC().Format(time.RFC3339),
	}); err != nil {
		return DecideResult{}, err
	}

	finalized, consensus, err := uc.maybeFinalize(ctx, requirements, eval)
	if err != nil {
		return DecideResult{}, err
	}

	logger.Info("evidence decision recorded",
		"event", "verifier_decision_recorded",
		"module", "verification-core/consensus-verifier",
		"layer", "application",
		"submission_id", submission.SubmissionID,
		"claim_id", submission.ClaimID,
		"decision", string(submission.Decision),
		"verifier_id", verifierID,
		"finalized", finalized,
	)
	return DecideResult{
		Submission: submission,
		Finalized:  finalized,
		Consensus:  consensus,
	}, nil
}

// maybeFinalize runs the finalization algorithm after a decision. The
// repository compare-and-set guarantees the false-to-true transition happens
// once; issuance failure unwinds it so finalization stays all-or-nothing with
// the ledger mint.
func (uc EvidenceUseCase) maybeFinalize(
	ctx context.Context,
	requirements entities.ClaimRequirements,
	eval domainservices.Evaluation,
) (bool, entities.ClaimConsensus, error) {
	consensus, found, err := uc.Submissions.GetConsensus(ctx, requirements.ClaimID)
	if err != nil {
		return false, entities.ClaimConsensus{}, err
	}
	if found && consensus.Finalized {
		return false, consensus, nil
	}
	if !eval.MeetsThreshold(requirements.Threshold) {
		return false, consensus, nil
	}

	now := uc.now()
	if err := uc.Submissions.FinalizeConsensus(ctx, requirements.ClaimID, eval.IssuedQuantity, now); err != nil {
		if errors.Is(err, domainerrors.ErrAlreadyFinalized) {
			consensus, _, getErr := uc.Submissions.GetConsensus(ctx, requirements.ClaimID)
			return false, consensus, getErr
		}
		return false, entities.ClaimConsensus{}, err
	}

	batchID, err := uc.Issuer.IssueBatch(ctx, ports.IssueBatchInput{
		ClaimID:     requirements.ClaimID,
		Quantity:    eval.IssuedQuantity,
		Vintage:     requirements.Vintage,
		Standard:    requirements.Standard,
		Beneficiary: requirements.Beneficiary,
	})
	if err != nil {
		if reopenErr := uc.Submissions.ReopenConsensus(ctx, requirements.ClaimID); reopenErr != nil {
			resolveLogger(uc.Logger).Error("finalization unwind failed",
				"event", "verifier_finalize_unwind_failed",
				"module", "verification-core/consensus-verifier",
				"layer", "application",
				"claim_id", requirements.ClaimID,
				"error", reopenErr.Error(),
			)
		}
		return false, entities.ClaimConsensus{}, err
	}
	if err := uc.Submissions.AttachIssuedBatch(ctx, requirements.ClaimID, batchID); err != nil {
		return false, entities.ClaimConsensus{}, err
	}
	if err := uc.appendVerificationEvent(ctx, "verification.claim_finalized", requirements.ClaimID, map[string]any{
		"claim_id":        requirements.ClaimID,
		"issued_quantity": eval.IssuedQuantity,
		"batch_id":        batchID,
		"beneficiary":     requirements.Beneficiary,
		"finalized_at":    now.UTC().Format(time.RFC3339),
	}); err != nil {
		return false, entities.ClaimConsensus{}, err
	}

	resolveLogger(uc.Logger).Info("claim consensus finalized",
		"event", "verifier_claim_finalized",
		"module", "verification-core/consensus-verifier",
		"layer", "application",
		"claim_id", requirements.ClaimID,
		"issued_quantity", eval.IssuedQuantity,
		"batch_id", batchID,
	)

	consensus, _, err = uc.Submissions.GetConsensus(ctx, requirements.ClaimID)
	if err != nil {
		return true, entities.ClaimConsensus{}, err
	}
	return true, consensus, nil
}
