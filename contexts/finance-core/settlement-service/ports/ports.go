package ports

import (
	"context"
	"time"

	"bluecarbon/contexts/finance-core/settlement-service/domain/entities"
	contractsv1 "bluecarbon/contracts/gen/events/v1"
)

type ListingRepository interface {
	CreateListing(ctx context.Context, listing entities.Listing) error
	GetListing(ctx context.Context, listingID string) (entities.Listing, error)
	SaveListing(ctx context.Context, listing entities.Listing) error
	// ListActiveByClaim reads through a status index, never a full scan.
	ListActiveByClaim(ctx context.Context, claimID string) ([]entities.Listing, error)
	// ListActiveExpiredBefore feeds the expiry sweeper.
	ListActiveExpiredBefore(ctx context.Context, cutoff time.Time, limit int) ([]entities.Listing, error)

	CreateMarketSale(ctx context.Context, sale entities.MarketSale) error
	ListSalesByListing(ctx context.Context, listingID string) ([]entities.MarketSale, error)
}

// CreditMover is the ledger surface settlement needs: ownership checks before
// listing, and the seller-to-buyer transfer during a sale. Implemented by the
// credit ledger's application layer via the composition root.
type CreditMover interface {
	OwnerBalance(ctx context.Context, identity string) (float64, error)
	// BatchRemainder returns the batch's claim, owner and unretired remainder.
	BatchRemainder(ctx context.Context, batchID string) (claimID string, owner string, remainder float64, err error)
	Transfer(ctx context.Context, from string, to string, quantity float64) error
}

type SettleInput struct {
	ClaimID   string
	BatchID   string
	Quantity  float64
	NetAmount int64
	Buyer     string
	Seller    string
}

// ProceedsDistributor is the payment surface: split lookup, settlement of the
// post-fee amount, and platform fee accrual through the pull-payment ledger.
type ProceedsDistributor interface {
	HasSplit(ctx context.Context, claimID string) (bool, error)
	Settle(ctx context.Context, input SettleInput) (string, error)
	AccrueFee(ctx context.Context, beneficiary string, amount int64, saleID string) error
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
