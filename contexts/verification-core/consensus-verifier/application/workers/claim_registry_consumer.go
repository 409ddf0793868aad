package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"bluecarbon/contexts/verification-core/consensus-verifier/application/commands"
	"bluecarbon/contexts/verification-core/consensus-verifier/domain/entities"
	"bluecarbon/contexts/verification-core/consensus-verifier/ports"
)

const (
	claimRegisteredTopic = "registry.claim_registered"
	claimUpdatedTopic    = "registry.claim_updated"
	defaultClaimCG       = "consensus-verifier-claim-cg"
)

type EventSubscriber interface {
	Subscribe(ctx context.Context, topic string, consumerGroup string, handler func(context.Context, ports.EventEnvelope) error) error
}

// ClaimRegistryConsumer projects claim verification requirements published by
// the claim registry into the local store. Requirement upserts are idempotent,
// so replays are harmless.
type ClaimRegistryConsumer struct {
	Subscriber    EventSubscriber
	Evidence      commands.EvidenceUseCase
	ConsumerGroup string
	Disabled      bool
	Logger        *slog.Logger
}

func (c ClaimRegistryConsumer) Start(ctx context.Context) error {
	logger := c.logger()
	if c.Disabled {
		logger.Info("claim registry consumer disabled by feature flag",
			"event", "verifier_claim_consumer_disabled",
			"module", "verification-core/consensus-verifier",
			"layer", "worker",
		)
		return nil
	}
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultClaimCG
	}
	for _, topic := range []string{claimRegisteredTopic, claimUpdatedTopic} {
		if err := c.Subscriber.Subscribe(ctx, topic, group, c.handleClaimEvent); err != nil {
			logger.Error("claim registry consumer subscribe failed",
				"event", "verifier_claim_consumer_subscribe_failed",
				"module", "verification-core/consensus-verifier",
				"layer", "worker",
				"topic", topic,
				"consumer_group", group,
				"error", err.Error(),
			)
			return err
		}
	}
	logger.Info("claim registry consumer subscriptions active",
		"event", "verifier_claim_consumer_started",
		"module", "verification-core/consensus-verifier",
		"layer", "worker",
		"consumer_group", group,
	)
	return nil
}

func (c ClaimRegistryConsumer) handleClaimEvent(ctx context.Context, event ports.EventEnvelope) error {
	logger := c.logger()
	var payload struct {
		ClaimID       string             `json:"claim_id"`
		MinimumCounts map[string]int     `json:"minimum_counts"`
		Weights       map[string]float64 `json:"weights"`
		Threshold     float64            `json:"threshold"`
		Beneficiary   string             `json:"beneficiary"`
		Vintage       string             `json:"vintage"`
		Standard      string             `json:"standard"`
	}
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		logger.Error("claim event payload decode failed",
			"event", "verifier_claim_event_decode_failed",
			"module", "verification-core/consensus-verifier",
			"layer", "worker",
			"event_id", event.EventID,
			"event_type", event.EventType,
			"error", err.Error(),
		)
		return err
	}
	minimumCounts := make(map[entities.SourceKind]int, len(payload.MinimumCounts))
	for kind, minimum := range payload.MinimumCounts {
		minimumCounts[entities.SourceKind(kind)] = minimum
	}
	weights := make(map[entities.SourceKind]float64, len(payload.Weights))
	for kind, weight := range payload.Weights {
		weights[entities.SourceKind(kind)] = weight
	}
	err := c.Evidence.RegisterClaim(ctx, commands.RegisterClaimCommand{
		ClaimID:       payload.ClaimID,
		MinimumCounts: minimumCounts,
		Weights:       weights,
		Threshold:     payload.Threshold,
		Beneficiary:   payload.Beneficiary,
		Vintage:       payload.Vintage,
		Standard:      payload.Standard,
	})
	if err != nil {
		logger.Error("claim event projection failed",
			"event", "verifier_claim_event_project_failed",
			"module", "verification-core/consensus-verifier",
			"layer", "worker",
			"event_id", event.EventID,
			"claim_id", strings.TrimSpace(payload.ClaimID),
			"error", err.Error(),
		)
		return err
	}
	logger.Info("claim event consumed",
		"event", "verifier_claim_event_consumed",
		"module", "verification-core/consensus-verifier",
		"layer", "worker",
		"event_id", event.EventID,
		"event_type", event.EventType,
		"claim_id", strings.TrimSpace(payload.ClaimID),
	)
	return nil
}

func (c ClaimRegistryConsumer) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
