package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"bluecarbon/contexts/verification-core/consensus-verifier/domain/entities"
	domainerrors "bluecarbon/contexts/verification-core/consensus-verifier/domain/errors"
	domainservices "bluecarbon/contexts/verification-core/consensus-verifier/domain/services"
	"bluecarbon/contexts/verification-core/consensus-verifier/ports"
)

// MaxSubmissionsPerClaim bounds the evidence a single claim can accumulate so
// tally recomputation stays bounded.
const MaxSubmissionsPerClaim = 10000

// SubmitEvidenceCommand is the write-model input for evidence submission.
type SubmitEvidenceCommand struct {
	ClaimID         string
	SourceKind      entities.SourceKind
	ContentRef      string
	ClaimedQuantity float64
	Submitter       string
}

// DecideEvidenceCommand applies or revises a verifier decision on one
// submission.
type DecideEvidenceCommand struct {
	SubmissionID string
	Accept       bool
	Note         string
	VerifierID   string
}

// EvidenceUseCase orchestrates evidence intake, verifier decisions, and
// weighted-threshold finalization. Finalization mints on the ledger through
// the CreditIssuer port and is all-or-nothing with issuance.
type EvidenceUseCase struct {
	Submissions ports.SubmissionRepository
	Registry    ports.ClaimRegistry
	Policy      ports.AccessPolicy
	Issuer      ports.CreditIssuer
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	Logger      *slog.Logger
}

// Submit records a pending evidence submission and refreshes the claim tally.
// No consensus decision happens here.
func (uc EvidenceUseCase) Submit(ctx context.Context, cmd SubmitEvidenceCommand) (entities.EvidenceSubmission, error) {
	claimID := strings.TrimSpace(cmd.ClaimID)
	submitter := strings.TrimSpace(cmd.Submitter)
	if claimID == "" {
		return entities.EvidenceSubmission{}, domainerrors.ErrClaimNotFound
	}
	if !cmd.SourceKind.Valid() {
		return entities.EvidenceSubmission{}, domainerrors.ErrInvalidSourceKind
	}
	if strings.TrimSpace(cmd.ContentRef) == "" {
		return entities.EvidenceSubmission{}, domainerrors.ErrInvalidContentRef
	}
	if cmd.ClaimedQuantity <= 0 {
		return entities.EvidenceSubmission{}, domainerrors.ErrInvalidQuantity
	}
	if submitter == "" {
		return entities.EvidenceSubmission{}, domainerrors.ErrInvalidSubmitter
	}

	requirements, found, err := uc.Registry.GetClaim(ctx, claimID)
	if err != nil {
		return entities.EvidenceSubmission{}, err
	}
	if !found {
		return entities.EvidenceSubmission{}, domainerrors.ErrClaimNotFound
	}

	count, err := uc.Submissions.CountSubmissionsByClaim(ctx, claimID)
	if err != nil {
		return entities.EvidenceSubmission{}, err
	}
	if count >= MaxSubmissionsPerClaim {
		return entities.EvidenceSubmission{}, domainerrors.ErrSubmissionLimit
	}

	submissionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.EvidenceSubmission{}, err
	}
	submission := entities.EvidenceSubmission{
		SubmissionID:    strings.TrimSpace(submissionID),
		ClaimID:         claimID,
		SourceKind:      cmd.SourceKind,
		ContentRef:      strings.TrimSpace(cmd.ContentRef),
		Submitter:       submitter,
		ClaimedQuantity: cmd.ClaimedQuantity,
		Decision:        entities.DecisionPending,
		SubmittedAt:     uc.now(),
	}
	if err := uc.Submissions.CreateSubmission(ctx, submission); err != nil {
		return entities.EvidenceSubmission{}, err
	}
	if _, err := uc.refreshTally(ctx, requirements); err != nil {
		return entities.EvidenceSubmission{}, err
	}
	if err := uc.appendVerificationEvent(ctx, "verification.evidence_submitted", claimID, map[string]any{
		"submission_id":    submission.SubmissionID,
		"claim_id":         claimID,
		"source_kind":      string(submission.SourceKind),
		"submitter":        submitter,
		"claimed_quantity": submission.ClaimedQuantity,
		"submitted_at":     submission.SubmittedAt.UTC().Format(time.RFC3339),
	}); err != nil {
		return entities.EvidenceSubmission{}, err
	}

	resolveLogger(uc.Logger).Info("evidence submitted",
		"event", "verifier_evidence_submitted",
		"module", "verification-core/consensus-verifier",
		"layer", "application",
		"submission_id", submission.SubmissionID,
		"claim_id", claimID,
		"source_kind", string(submission.SourceKind),
	)
	return submission, nil
}

// refreshTally recomputes the consensus projection for the claim from its
// submissions and saves the counters without touching finalization state.
func (uc EvidenceUseCase) refreshTally(ctx context.Context, requirements entities.ClaimRequirements) (domainservices.Evaluation, error) {
	submissions, err := uc.Submissions.ListSubmissionsByClaim(ctx, requirements.ClaimID)
	if err != nil {
		return domainservices.Evaluation{}, err
	}
	eval := domainservices.EvaluateConsensus(requirements, submissions)

	consensus, found, err := uc.Submissions.GetConsensus(ctx, requirements.ClaimID)
	if err != nil {
		return domainservices.Evaluation{}, err
	}
	if !found {
		consensus = entities.ClaimConsensus{ClaimID: requirements.ClaimID}
	}
	consensus.SubmissionCounts = eval.SubmissionCounts
	consensus.EligibleCounts = eval.EligibleCounts
	consensus.AcceptedCounts = eval.AcceptedCounts
	consensus.UpdatedAt = uc.now()
	if err := uc.Submissions.SaveConsensus(ctx, consensus); err != nil {
		return domainservices.Evaluation{}, err
	}
	return eval, nil
}

func (uc EvidenceUseCase) appendVerificationEvent(ctx context.Context, eventType string, claimID string, payload map[string]any) error {
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          strings.TrimSpace(eventID),
		EventType:        eventType,
		OccurredAt:       uc.now(),
		SourceService:    "consensus-verifier",
		TraceID:          strings.TrimSpace(eventID),
		SchemaVersion:    1,
		PartitionKeyPath: "claim_id",
		PartitionKey:     claimID,
		Data:             data,
	})
}

func (uc EvidenceUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
