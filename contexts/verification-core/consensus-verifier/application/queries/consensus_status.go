package queries

import (
	"context"
	"strings"

	"bluecarbon/contexts/verification-core/consensus-verifier/domain/entities"
	domainerrors "bluecarbon/contexts/verification-core/consensus-verifier/domain/errors"
	"bluecarbon/contexts/verification-core/consensus-verifier/ports"
)

// ConsensusStatusUseCase reads the consensus projection for one claim.
type ConsensusStatusUseCase struct {
	Submissions ports.SubmissionRepository
	Registry    ports.ClaimRegistry
}

type ConsensusStatus struct {
	Consensus    entities.ClaimConsensus
	Requirements entities.ClaimRequirements
}

func (uc ConsensusStatusUseCase) Get(ctx context.Context, claimID string) (ConsensusStatus, error) {
	claimID = strings.TrimSpace(claimID)
	if claimID == "" {
		return ConsensusStatus{}, domainerrors.ErrClaimNotFound
	}
	requirements, found, err := uc.Registry.GetClaim(ctx, claimID)
	if err != nil {
		return ConsensusStatus{}, err
	}
	if !found {
		return ConsensusStatus{}, domainerrors.ErrClaimNotFound
	}
	consensus, found, err := uc.Submissions.GetConsensus(ctx, claimID)
	if err != nil {
		return ConsensusStatus{}, err
	}
	if !found {
		consensus = entities.ClaimConsensus{ClaimID: claimID}
	}
	return ConsensusStatus{
		Consensus:    consensus,
		Requirements: requirements,
	}, nil
}
