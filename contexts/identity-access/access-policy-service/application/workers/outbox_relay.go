package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"bluecarbon/contexts/identity-access/access-policy-service/ports"
)

// EventPublisher is the bus side of the relay, satisfied by the platform
// messaging adapter.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event ports.EventEnvelope) error
}

// OutboxRelay drains pending policy events to the bus. Rows are published in
// creation order and marked published only after a successful publish.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher EventPublisher
	Clock     ports.Clock
	Topic     string
	BatchSize int
	Logger    *slog.Logger
}

func (r OutboxRelay) RunOnce(ctx context.Context) error {
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		r.logger().Error("policy outbox list failed",
			"event", "policy_outbox_list_failed",
			"module", "identity-access/access-policy-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, row := range pending {
		var envelope ports.EventEnvelope
		if err := json.Unmarshal(row.Payload, &envelope); err != nil {
			return err
		}
		if err := r.Publisher.Publish(ctx, r.Topic, envelope); err != nil {
			r.logger().Error("policy outbox publish failed",
				"event", "policy_outbox_publish_failed",
				"module", "identity-access/access-policy-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
			return err
		}
	}
	return nil
}

func (r OutboxRelay) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}
