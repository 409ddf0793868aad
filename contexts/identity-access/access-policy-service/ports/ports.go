package ports

import (
	"context"
	"time"

	"bluecarbon/contexts/identity-access/access-policy-service/domain/entities"
	contractsv1 "bluecarbon/contracts/gen/events/v1"
)

type Repository interface {
	SaveGrant(ctx context.Context, grant entities.RoleGrant) error
	GetActiveGrant(ctx context.Context, identity string, role entities.Role) (entities.RoleGrant, bool, error)
	ListGrantsByIdentity(ctx context.Context, identity string) ([]entities.RoleGrant, error)
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
