package queries

import (
	"context"
	"strings"

	"bluecarbon/contexts/verification-core/consensus-verifier/domain/entities"
	domainerrors "bluecarbon/contexts/verification-core/consensus-verifier/domain/errors"
	"bluecarbon/contexts/verification-core/consensus-verifier/ports"
)

// ListSubmissionsUseCase pages through the evidence of one claim.
type ListSubmissionsUseCase struct {
	Submissions ports.SubmissionRepository
}

func (uc ListSubmissionsUseCase) ByClaim(ctx context.Context, claimID string, limit int, offset int) ([]entities.EvidenceSubmission, error) {
	claimID = strings.TrimSpace(claimID)
	if claimID == "" {
		return nil, domainerrors.ErrClaimNotFound
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	items, err := uc.Submissions.ListSubmissionsByClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if offset >= len(items) {
		return []entities.EvidenceSubmission{}, nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return append([]entities.EvidenceSubmission(nil), items[offset:end]...), nil
}
