package commands

import (
	"context"
	"strings"

	"bluecarbon/contexts/verification-core/consensus-verifier/domain/entities"
	domainerrors "bluecarbon/contexts/verification-core/consensus-verifier/domain/errors"
)

// RegisterClaimCommand projects verification requirements for a claim into
// the local registry. Normally this arrives over the event bus from the claim
// registry; the command form also backs the admin HTTP surface.
type RegisterClaimCommand struct {
	ClaimID       string
	MinimumCounts map[entities.SourceKind]int
	Weights       map[entities.SourceKind]float64
	Threshold     float64
	Beneficiary   string
	Vintage       string
	Standard      string
}

func (uc EvidenceUseCase) RegisterClaim(ctx context.Context, cmd RegisterClaimCommand) error {
	claimID := strings.TrimSpace(cmd.ClaimID)
	if claimID == "" {
		return domainerrors.ErrClaimNotFound
	}
	if cmd.Threshold <= 0 || cmd.Threshold > 1 {
		return domainerrors.ErrInvalidRequirements
	}
	if strings.TrimSpace(cmd.Beneficiary) == "" {
		return domainerrors.ErrInvalidRequirements
	}
	totalWeight := 0.0
	for kind, weight := range cmd.Weights {
		if !kind.Valid() || weight < 0 {
			return domainerrors.ErrInvalidRequirements
		}
		totalWeight += weight
	}
	if totalWeight <= 0 {
		return domainerrors.ErrInvalidRequirements
	}
	for kind, minimum := range cmd.MinimumCounts {
		if !kind.Valid() || minimum < 0 {
			return domainerrors.ErrInvalidRequirements
		}
	}
	requirements := entities.ClaimRequirements{
		ClaimID:       claimID,
		MinimumCounts: cmd.MinimumCounts,
		Weights:       cmd.Weights,
		Threshold:     cmd.Threshold,
		Beneficiary:   strings.TrimSpace(cmd.Beneficiary),
		Vintage:       strings.TrimSpace(cmd.Vintage),
		Standard:      strings.TrimSpace(cmd.Standard),
	}
	if err := uc.Registry.PutClaim(ctx, requirements); err != nil {
		return err
	}
	resolveLogger(uc.Logger).Info("claim requirements registered",
		"event", "verifier_claim_registered",
		"module", "verification-core/consensus-verifier",
		"layer", "application",
		"claim_id", claimID,
	)
	return nil
}
