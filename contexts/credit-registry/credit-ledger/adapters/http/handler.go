package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"bluecarbon/contexts/credit-registry/credit-ledger/application"
	"bluecarbon/contexts/credit-registry/credit-ledger/domain/entities"
	httptransport "bluecarbon/contexts/credit-registry/credit-ledger/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

// RetireHandler godoc
// @Summary Retire credits
// @Description Permanently retires a quantity from a batch owned by the caller.
// @Tags credit-ledger
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Caller identity"
// @Param request body httptransport.RetireRequest true "Retirement request"
// @Success 201 {object} httptransport.RetirementResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 422 {object} httptransport.ErrorResponse
// @Router /credits/retire [post]
func (h Handler) RetireHandler(
	ctx context.Context,
	callerID string,
	req httptransport.RetireRequest,
) (httptransport.RetirementResponse, error) {
	retirement, err := h.Service.Retire(ctx, application.RetireInput{
		BatchID:  req.BatchID,
		Quantity: req.Quantity,
		Reason:   req.Reason,
		Caller:   callerID,
	})
	if err != nil {
		return httptransport.RetirementResponse{}, err
	}
	return httptransport.RetirementResponse{
		Status: "success",
		Data:   toRetirementDTO(retirement),
	}, nil
}

// TransferHandler godoc
// @Summary Transfer credits
// @Description Moves unretired credits from the caller to another identity.
// @Tags credit-ledger
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Caller identity"
// @Param request body httptransport.TransferRequest true "Transfer request"
// @Success 200 {object} httptransport.TransferResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 422 {object} httptransport.ErrorResponse
// @Router /credits/transfer [post]
func (h Handler) TransferHandler(
	ctx context.Context,
	callerID string,
	req httptransport.TransferRequest,
) (httptransport.TransferResponse, error) {
	err := h.Service.Transfer(ctx, application.TransferInput{
		From:     callerID,
		To:       req.To,
		Quantity: req.Quantity,
	})
	if err != nil {
		return httptransport.TransferResponse{}, err
	}
	return httptransport.TransferResponse{Status: "success"}, nil
}

// GetBatchHandler godoc
// @Summary Get credit batch
// @Tags credit-ledger
// @Produce json
// @Param batch_id path string true "Batch id"
// @Success 200 {object} httptransport.CreditBatchResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /credits/batches/{batch_id} [get]
func (h Handler) GetBatchHandler(ctx context.Context, batchID string) (httptransport.CreditBatchResponse, error) {
	batch, err := h.Service.GetBatch(ctx, batchID)
	if err != nil {
		return httptransport.CreditBatchResponse{}, err
	}
	return httptransport.CreditBatchResponse{
		Status: "success",
		Data:   toBatchDTO(batch),
	}, nil
}

// ListBatchesByOwnerHandler godoc
// @Summary List batches held by an identity
// @Tags credit-ledger
// @Produce json
// @Param identity path string true "Owner identity"
// @Success 200 {object} httptransport.CreditBatchListResponse
// @Router /credits/owners/{identity}/batches [get]
func (h Handler) ListBatchesByOwnerHandler(ctx context.Context, owner string) (httptransport.CreditBatchListResponse, error) {
	batches, err := h.Service.ListBatchesByOwner(ctx, owner)
	if err != nil {
		return httptransport.CreditBatchListResponse{}, err
	}
	resp := httptransport.CreditBatchListResponse{
		Status: "success",
		Data:   make([]httptransport.CreditBatchDTO, 0, len(batches)),
	}
	for _, batch := range batches {
		resp.Data = append(resp.Data, toBatchDTO(batch))
	}
	return resp, nil
}

// ListBatchesByClaimHandler godoc
// @Summary List batches for a claim
// @Tags credit-ledger
// @Produce json
// @Param claim_id path string true "Claim id"
// @Success 200 {object} httptransport.CreditBatchListResponse
// @Router /credits/claims/{claim_id}/batches [get]
func (h Handler) ListBatchesByClaimHandler(ctx context.Context, claimID string) (httptransport.CreditBatchListResponse, error) {
	batches, err := h.Service.ListBatchesByClaim(ctx, claimID)
	if err != nil {
		return httptransport.CreditBatchListResponse{}, err
	}
	resp := httptransport.CreditBatchListResponse{
		Status: "success",
		Data:   make([]httptransport.CreditBatchDTO, 0, len(batches)),
	}
	for _, batch := range batches {
		resp.Data = append(resp.Data, toBatchDTO(batch))
	}
	return resp, nil
}

// ListRetirementsHandler godoc
// @Summary List batch retirements
// @Tags credit-ledger
// @Produce json
// @Param batch_id path string true "Batch id"
// @Success 200 {object} httptransport.RetirementListResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /credits/batches/{batch_id}/retirements [get]
func (h Handler) ListRetirementsHandler(ctx context.Context, batchID string) (httptransport.RetirementListResponse, error) {
	retirements, err := h.Service.ListRetirements(ctx, batchID)
	if err != nil {
		return httptransport.RetirementListResponse{}, err
	}
	resp := httptransport.RetirementListResponse{
		Status: "success",
		Data:   make([]httptransport.RetirementDTO, 0, len(retirements)),
	}
	for _, retirement := range retirements {
		resp.Data = append(resp.Data, toRetirementDTO(retirement))
	}
	return resp, nil
}

// GetBalanceHandler godoc
// @Summary Get credit balance
// @Tags credit-ledger
// @Produce json
// @Param identity path string true "Holder identity"
// @Success 200 {object} httptransport.BalanceResponse
// @Router /credits/balances/{identity} [get]
func (h Handler) GetBalanceHandler(ctx context.Context, identity string) (httptransport.BalanceResponse, error) {
	balance, err := h.Service.GetBalance(ctx, identity)
	if err != nil {
		return httptransport.BalanceResponse{}, err
	}
	resp := httptransport.BalanceResponse{Status: "success"}
	resp.Data.Identity = balance.Identity
	resp.Data.Quantity = balance.Quantity
	return resp, nil
}

// GlobalStatsHandler godoc
// @Summary Global ledger statistics
// @Tags credit-ledger
// @Produce json
// @Success 200 {object} httptransport.GlobalStatsResponse
// @Router /credits/stats [get]
func (h Handler) GlobalStatsHandler(ctx context.Context) (httptransport.GlobalStatsResponse, error) {
	stats, err := h.Service.GlobalStats(ctx)
	if err != nil {
		return httptransport.GlobalStatsResponse{}, err
	}
	resp := httptransport.GlobalStatsResponse{Status: "success"}
	resp.Data.Issued = stats.Issued
	resp.Data.Retired = stats.Retired
	resp.Data.Circulating = stats.Circulating()
	return resp, nil
}

func toBatchDTO(batch entities.CreditBatch) httptransport.CreditBatchDTO {
	return httptransport.CreditBatchDTO{
		BatchID:         batch.BatchID,
		ClaimID:         batch.ClaimID,
		Quantity:        batch.Quantity,
		RetiredQuantity: batch.RetiredQuantity,
		Vintage:         batch.Vintage,
		Standard:        batch.Standard,
		Owner:           batch.Owner,
		Retired:         batch.Retired,
		CreatedAt:       batch.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toRetirementDTO(retirement entities.Retirement) httptransport.RetirementDTO {
	return httptransport.RetirementDTO{
		RetirementID: retirement.RetirementID,
		BatchID:      retirement.BatchID,
		Quantity:     retirement.Quantity,
		Reason:       retirement.Reason,
		Retiree:      retirement.Retiree,
		CreatedAt:    retirement.CreatedAt.UTC().Format(time.RFC3339),
	}
}
