package ports

import (
	"context"
	"time"

	"bluecarbon/contexts/credit-registry/credit-ledger/domain/entities"
	contractsv1 "bluecarbon/contracts/gen/events/v1"
)

// Repository owns all ledger state transitions. Every method is one
// indivisible unit: either all rows move together or none do. Quantity and
// balance preconditions are enforced inside the mutation so no interleaving
// can observe a partial ledger.
type Repository interface {
	// CreateBatchAndCredit persists the batch, credits the beneficiary
	// balance, and bumps the global issued counter in one transaction.
	CreateBatchAndCredit(ctx context.Context, batch entities.CreditBatch) error
	GetBatch(ctx context.Context, batchID string) (entities.CreditBatch, error)
	ListBatchesByClaim(ctx context.Context, claimID string) ([]entities.CreditBatch, error)
	ListBatchesByOwner(ctx context.Context, owner string) ([]entities.CreditBatch, error)

	// ApplyRetirement debits the retiree balance, appends the retirement
	// record, bumps the global retired counter, and flips the batch retired
	// flag when consumed exactly. Fails with ErrInsufficientBalance,
	// ErrRetirementExceeds, ErrBatchFullyRetired, or ErrBatchNotFound.
	ApplyRetirement(ctx context.Context, retirement entities.Retirement) (entities.CreditBatch, error)
	ListRetirementsByBatch(ctx context.Context, batchID string) ([]entities.Retirement, error)

	// TransferBalance moves quantity between identities, failing with
	// ErrInsufficientBalance when the source holds less.
	TransferBalance(ctx context.Context, from string, to string, quantity float64, now time.Time) error
	GetBalance(ctx context.Context, identity string) (entities.Balance, error)

	GetGlobalStats(ctx context.Context) (entities.GlobalStats, error)
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
