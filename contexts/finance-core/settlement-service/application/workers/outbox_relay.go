package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"bluecarbon/contexts/finance-core/settlement-service/ports"
)

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event ports.EventEnvelope) error
}

// OutboxRelay drains pending marketplace events (listing lifecycle, sales) to
// the bus in creation order.
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
		r.logger().Error("market outbox list failed",
			"event", "market_outbox_list_failed",
			"module", "finance-core/settlement-service",
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
			r.logger().Error("market outbox publish failed",
				"event", "market_outbox_publish_failed",
				"module", "finance-core/settlement-service",
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
