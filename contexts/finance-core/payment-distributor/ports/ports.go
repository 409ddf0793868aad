package ports

import (
	"context"
	"time"

	"bluecarbon/contexts/finance-core/payment-distributor/domain/entities"
	contractsv1 "bluecarbon/contracts/gen/events/v1"
)

type Repository interface {
	// SaveSplit wholesale-replaces the claim's configuration.
	SaveSplit(ctx context.Context, split entities.PayoutSplit) error
	GetSplit(ctx context.Context, claimID string) (entities.PayoutSplit, bool, error)

	// ApplySale records the sale and credits every beneficiary's pending
	// amount as one indivisible operation. The sale is stored already
	// distributed; a partially credited sale is never observable.
	ApplySale(ctx context.Context, sale entities.SaleRecord, credits []entities.ShareCredit) error
	GetSale(ctx context.Context, saleID string) (entities.SaleRecord, error)
	ListSalesByClaim(ctx context.Context, claimID string) ([]entities.SaleRecord, error)

	GetPending(ctx context.Context, identity string) (entities.PendingWithdrawal, error)
	// WithdrawAll atomically zeroes the identity's pending amount and
	// returns what was held. ErrNothingToWithdraw when nothing is pending.
	WithdrawAll(ctx context.Context, identity string, now time.Time) (int64, error)
	// AccruePending adds to an identity's pending amount outside of sale
	// distribution, used for platform fee routing.
	AccruePending(ctx context.Context, identity string, amount int64, now time.Time) error
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
