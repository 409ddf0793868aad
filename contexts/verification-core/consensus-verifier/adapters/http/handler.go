package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"bluecarbon/contexts/verification-core/consensus-verifier/application/commands"
	"bluecarbon/contexts/verification-core/consensus-verifier/application/queries"
	"bluecarbon/contexts/verification-core/consensus-verifier/domain/entities"
	httptransport "bluecarbon/contexts/verification-core/consensus-verifier/transport/http"
)

type Handler struct {
	Evidence    commands.EvidenceUseCase
	Status      queries.ConsensusStatusUseCase
	Submissions queries.ListSubmissionsUseCase
	Logger      *slog.Logger
}

// SubmitEvidenceHandler godoc
// @Summary Submit evidence
// @Description Records an evidence submission against a registered claim.
// @Tags consensus-verifier
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Submitter identity"
// @Param request body httptransport.SubmitEvidenceRequest true "Evidence submission"
// @Success 201 {object} httptransport.SubmissionResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 429 {object} httptransport.ErrorResponse
// @Router /verification/submissions [post]
func (h Handler) SubmitEvidenceHandler(
	ctx context.Context,
	submitterID string,
	req httptransport.SubmitEvidenceRequest,
) (httptransport.SubmissionResponse, error) {
	submission, err := h.Evidence.Submit(ctx, commands.SubmitEvidenceCommand{
		ClaimID:         req.ClaimID,
		SourceKind:      entities.SourceKind(req.SourceKind),
		ContentRef:      req.ContentRef,
		ClaimedQuantity: req.ClaimedQuantity,
		Submitter:       submitterID,
	})
	if err != nil {
		return httptransport.SubmissionResponse{}, err
	}
	return httptransport.SubmissionResponse{
		Status: "success",
		Data:   toSubmissionDTO(submission),
	}, nil
}

// DecideEvidenceHandler godoc
// @Summary Record a verifier decision
// @Description Accepts or rejects a submission and finalizes consensus when the threshold is met.
// @Tags consensus-verifier
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Verifier identity"
// @Param submission_id path string true "Submission id"
// @Param request body httptransport.DecideEvidenceRequest true "Decision"
// @Success 200 {object} httptransport.DecideResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /verification/submissions/{submission_id}/decision [post]
func (h Handler) DecideEvidenceHandler(
	ctx context.Context,
	verifierID string,
	submissionID string,
	req httptransport.DecideEvidenceRequest,
) (httptransport.DecideResponse, error) {
	result, err := h.Evidence.Decide(ctx, commands.DecideEvidenceCommand{
		SubmissionID: submissionID,
		Accept:       req.Accept,
		Note:         req.Note,
		VerifierID:   verifierID,
	})
	if err != nil {
		return httptransport.DecideResponse{}, err
	}
	resp := httptransport.DecideResponse{Status: "success"}
	resp.Data.Submission = toSubmissionDTO(result.Submission)
	resp.Data.Finalized = result.Finalized
	resp.Data.BatchID = result.Consensus.BatchID
	return resp, nil
}

// RegisterClaimHandler godoc
// @Summary Register claim verification requirements
// @Tags consensus-verifier
// @Accept json
// @Produce json
// @Param claim_id path string true "Claim id"
// @Param request body httptransport.RegisterClaimRequest true "Verification requirements"
// @Success 200 {object} httptransport.RegisterClaimResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Router /verification/claims/{claim_id} [put]
func (h Handler) RegisterClaimHandler(
	ctx context.Context,
	req httptransport.RegisterClaimRequest,
) (httptransport.RegisterClaimResponse, error) {
	minimumCounts := make(map[entities.SourceKind]int, len(req.MinimumCounts))
	for kind, minimum := range req.MinimumCounts {
		minimumCounts[entities.SourceKind(kind)] = minimum
	}
	weights := make(map[entities.SourceKind]float64, len(req.Weights))
	for kind, weight := range req.Weights {
		weights[entities.SourceKind(kind)] = weight
	}
	err := h.Evidence.RegisterClaim(ctx, commands.RegisterClaimCommand{
		ClaimID:       req.ClaimID,
		MinimumCounts: minimumCounts,
		Weights:       weights,
		Threshold:     req.Threshold,
		Beneficiary:   req.Beneficiary,
		Vintage:       req.Vintage,
		Standard:      req.Standard,
	})
	if err != nil {
		return httptransport.RegisterClaimResponse{}, err
	}
	return httptransport.RegisterClaimResponse{Status: "success"}, nil
}

// ConsensusStatusHandler godoc
// @Summary Get consensus status
// @Tags consensus-verifier
// @Produce json
// @Param claim_id path string true "Claim id"
// @Success 200 {object} httptransport.ConsensusStatusResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /verification/claims/{claim_id}/consensus [get]
func (h Handler) ConsensusStatusHandler(ctx context.Context, claimID string) (httptransport.ConsensusStatusResponse, error) {
	status, err := h.Status.Get(ctx, claimID)
	if err != nil {
		return httptransport.ConsensusStatusResponse{}, err
	}
	resp := httptransport.ConsensusStatusResponse{Status: "success"}
	resp.Data.ClaimID = status.Requirements.ClaimID
	resp.Data.SubmissionCounts = toStringCounts(status.Consensus.SubmissionCounts)
	resp.Data.AcceptedCounts = toStringCounts(status.Consensus.AcceptedCounts)
	resp.Data.MinimumCounts = toStringCounts(status.Requirements.MinimumCounts)
	resp.Data.Weights = toStringWeights(status.Requirements.Weights)
	resp.Data.Threshold = status.Requirements.Threshold
	resp.Data.Finalized = status.Consensus.Finalized
	resp.Data.IssuedQuantity = status.Consensus.IssuedQuantity
	resp.Data.BatchID = status.Consensus.BatchID
	if status.Consensus.FinalizedAt != nil {
		resp.Data.FinalizedAt = status.Consensus.FinalizedAt.UTC().Format(time.RFC3339)
	}
	return resp, nil
}

// ListSubmissionsHandler godoc
// @Summary List evidence submissions
// @Tags consensus-verifier
// @Produce json
// @Param claim_id path string true "Claim id"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} httptransport.SubmissionListResponse
// @Router /verification/claims/{claim_id}/submissions [get]
func (h Handler) ListSubmissionsHandler(
	ctx context.Context,
	claimID string,
	limit int,
	offset int,
) (httptransport.SubmissionListResponse, error) {
	submissions, err := h.Submissions.ByClaim(ctx, claimID, limit, offset)
	if err != nil {
		return httptransport.SubmissionListResponse{}, err
	}
	resp := httptransport.SubmissionListResponse{
		Status: "success",
		Data:   make([]httptransport.SubmissionDTO, 0, len(submissions)),
	}
	for _, submission := range submissions {
		resp.Data = append(resp.Data, toSubmissionDTO(submission))
	}
	return resp, nil
}

func toSubmissionDTO(submission entities.EvidenceSubmission) httptransport.SubmissionDTO {
	dto := httptransport.SubmissionDTO{
		SubmissionID:    submission.SubmissionID,
		ClaimID:         submission.ClaimID,
		SourceKind:      string(submission.SourceKind),
		ContentRef:      submission.ContentRef,
		Submitter:       submission.Submitter,
		ClaimedQuantity: submission.ClaimedQuantity,
		Decision:        string(submission.Decision),
		DecisionNote:    submission.DecisionNote,
		DecidedBy:       submission.DecidedBy,
		SubmittedAt:     submission.SubmittedAt.UTC().Format(time.RFC3339),
	}
	if submission.DecidedAt != nil {
		dto.DecidedAt = submission.DecidedAt.UTC().Format(time.RFC3339)
	}
	return dto
}

func toStringCounts(counts map[entities.SourceKind]int) map[string]int {
	out := make(map[string]int, len(counts))
	for kind, count := range counts {
		out[string(kind)] = count
	}
	return out
}

func toStringWeights(weights map[entities.SourceKind]float64) map[string]float64 {
	out := make(map[string]float64, len(weights))
	for kind, weight := range weights {
		out[string(kind)] = weight
	}
	return out
}
