package ports

import (
	"context"
	"time"

	"bluecarbon/contexts/verification-core/consensus-verifier/domain/entities"
	contractsv1 "bluecarbon/contracts/gen/events/v1"
)

type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, submission entities.EvidenceSubmission) error
	GetSubmission(ctx context.Context, submissionID string) (entities.EvidenceSubmission, error)
	SaveSubmission(ctx context.Context, submission entities.EvidenceSubmission) error
	ListSubmissionsByClaim(ctx context.Context, claimID string) ([]entities.EvidenceSubmission, error)
	CountSubmissionsByClaim(ctx context.Context, claimID string) (int, error)

	GetConsensus(ctx context.Context, claimID string) (entities.ClaimConsensus, bool, error)
	// SaveConsensus upserts the tally projection. It never flips Finalized.
	SaveConsensus(ctx context.Context, consensus entities.ClaimConsensus) error
	// FinalizeConsensus is the compare-and-set false-to-true transition. It
	// fails with ErrAlreadyFinalized when the claim is already finalized, so
	// issuance happens at most once per claim.
	FinalizeConsensus(ctx context.Context, claimID string, issuedQuantity float64, now time.Time) error
	// AttachIssuedBatch records the ledger batch minted at finalization.
	AttachIssuedBatch(ctx context.Context, claimID string, batchID string) error
	// ReopenConsensus unwinds a finalization whose downstream issuance failed.
	ReopenConsensus(ctx context.Context, claimID string) error
}

// ClaimRegistry projects claim verification requirements from the external
// registry that owns project metadata.
type ClaimRegistry interface {
	GetClaim(ctx context.Context, claimID string) (entities.ClaimRequirements, bool, error)
	PutClaim(ctx context.Context, requirements entities.ClaimRequirements) error
}

// AccessPolicy answers role checks against the explicit policy module.
type AccessPolicy interface {
	IsVerifier(ctx context.Context, identity string) (bool, error)
}

type IssueBatchInput struct {
	ClaimID     string
	Quantity    float64
	Vintage     string
	Standard    string
	Beneficiary string
}

// CreditIssuer mints credits on the ledger once consensus is reached. The
// returned id identifies the minted batch.
type CreditIssuer interface {
	IssueBatch(ctx context.Context, input IssueBatchInput) (string, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}
