package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"bluecarbon/contexts/finance-core/payment-distributor/application"
	"bluecarbon/contexts/finance-core/payment-distributor/domain/entities"
	httptransport "bluecarbon/contexts/finance-core/payment-distributor/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

// ConfigureSplitHandler godoc
// @Summary Configure payout split
// @Description Replaces the payout split for a claim. Basis points across allocations and the platform may not exceed 10000.
// @Tags payment-distributor
// @Accept json
// @Produce json
// @Param claim_id path string true "Claim id"
// @Param request body httptransport.ConfigureSplitRequest true "Payout split"
// @Success 200 {object} httptransport.PayoutSplitResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 422 {object} httptransport.ErrorResponse
// @Router /payments/claims/{claim_id}/split [put]
func (h Handler) ConfigureSplitHandler(
	ctx context.Context,
	claimID string,
	req httptransport.ConfigureSplitRequest,
) (httptransport.PayoutSplitResponse, error) {
	allocations := make([]entities.Allocation, 0, len(req.Allocations))
	for _, allocation := range req.Allocations {
		allocations = append(allocations, entities.Allocation{
			Role:        entities.BeneficiaryRole(allocation.Role),
			Beneficiary: allocation.Beneficiary,
			BasisPoints: allocation.BasisPoints,
		})
	}
	split, err := h.Service.ConfigureSplit(ctx, application.ConfigureSplitInput{
		ClaimID:             claimID,
		Allocations:         allocations,
		PlatformBeneficiary: req.PlatformBeneficiary,
		PlatformBasisPoints: req.PlatformBasisPoints,
	})
	if err != nil {
		return httptransport.PayoutSplitResponse{}, err
	}
	return httptransport.PayoutSplitResponse{
		Status: "success",
		Data:   toSplitDTO(split),
	}, nil
}

// GetSplitHandler godoc
// @Summary Get payout split
// @Tags payment-distributor
// @Produce json
// @Param claim_id path string true "Claim id"
// @Success 200 {object} httptransport.PayoutSplitResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /payments/claims/{claim_id}/split [get]
func (h Handler) GetSplitHandler(ctx context.Context, claimID string) (httptransport.PayoutSplitResponse, error) {
	split, err := h.Service.GetSplit(ctx, claimID)
	if err != nil {
		return httptransport.PayoutSplitResponse{}, err
	}
	return httptransport.PayoutSplitResponse{
		Status: "success",
		Data:   toSplitDTO(split),
	}, nil
}

// GetSaleHandler godoc
// @Summary Get settled sale
// @Tags payment-distributor
// @Produce json
// @Param sale_id path string true "Sale id"
// @Success 200 {object} httptransport.SaleResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /payments/sales/{sale_id} [get]
func (h Handler) GetSaleHandler(ctx context.Context, saleID string) (httptransport.SaleResponse, error) {
	sale, err := h.Service.GetSale(ctx, saleID)
	if err != nil {
		return httptransport.SaleResponse{}, err
	}
	return httptransport.SaleResponse{
		Status: "success",
		Data:   toSaleDTO(sale),
	}, nil
}

// ListSalesByClaimHandler godoc
// @Summary List settled sales for a claim
// @Tags payment-distributor
// @Produce json
// @Param claim_id path string true "Claim id"
// @Success 200 {object} httptransport.SaleListResponse
// @Router /payments/claims/{claim_id}/sales [get]
func (h Handler) ListSalesByClaimHandler(ctx context.Context, claimID string) (httptransport.SaleListResponse, error) {
	sales, err := h.Service.ListSalesByClaim(ctx, claimID)
	if err != nil {
		return httptransport.SaleListResponse{}, err
	}
	resp := httptransport.SaleListResponse{
		Status: "success",
		Data:   make([]httptransport.SaleDTO, 0, len(sales)),
	}
	for _, sale := range sales {
		resp.Data = append(resp.Data, toSaleDTO(sale))
	}
	return resp, nil
}

// GetPendingHandler godoc
// @Summary Get pending withdrawal balance
// @Tags payment-distributor
// @Produce json
// @Param identity path string true "Beneficiary identity"
// @Success 200 {object} httptransport.PendingResponse
// @Router /payments/pending/{identity} [get]
func (h Handler) GetPendingHandler(ctx context.Context, identity string) (httptransport.PendingResponse, error) {
	pending, err := h.Service.GetPending(ctx, identity)
	if err != nil {
		return httptransport.PendingResponse{}, err
	}
	resp := httptransport.PendingResponse{Status: "success"}
	resp.Data.Identity = pending.Identity
	resp.Data.Amount = pending.Amount
	return resp, nil
}

// WithdrawHandler godoc
// @Summary Withdraw pending balance
// @Description Zeroes the caller's pending balance and returns the amount withdrawn.
// @Tags payment-distributor
// @Produce json
// @Param X-User-Id header string true "Caller identity"
// @Success 200 {object} httptransport.WithdrawResponse
// @Failure 422 {object} httptransport.ErrorResponse
// @Router /payments/withdraw [post]
func (h Handler) WithdrawHandler(ctx context.Context, callerID string) (httptransport.WithdrawResponse, error) {
	amount, err := h.Service.Withdraw(ctx, callerID)
	if err != nil {
		return httptransport.WithdrawResponse{}, err
	}
	resp := httptransport.WithdrawResponse{Status: "success"}
	resp.Data.Identity = callerID
	resp.Data.Amount = amount
	return resp, nil
}

func toSplitDTO(split entities.PayoutSplit) httptransport.PayoutSplitDTO {
	allocations := make([]httptransport.AllocationDTO, 0, len(split.Allocations))
	for _, allocation := range split.Allocations {
		allocations = append(allocations, httptransport.AllocationDTO{
			Role:        string(allocation.Role),
			Beneficiary: allocation.Beneficiary,
			BasisPoints: allocation.BasisPoints,
		})
	}
	return httptransport.PayoutSplitDTO{
		ClaimID:             split.ClaimID,
		Allocations:         allocations,
		PlatformBeneficiary: split.PlatformBeneficiary,
		PlatformBasisPoints: split.PlatformBasisPoints,
		UpdatedAt:           split.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toSaleDTO(sale entities.SaleRecord) httptransport.SaleDTO {
	return httptransport.SaleDTO{
		SaleID:      sale.SaleID,
		ClaimID:     sale.ClaimID,
		BatchID:     sale.BatchID,
		Quantity:    sale.Quantity,
		TotalPrice:  sale.TotalPrice,
		Buyer:       sale.Buyer,
		Seller:      sale.Seller,
		Distributed: sale.Distributed,
		CreatedAt:   sale.CreatedAt.UTC().Format(time.RFC3339),
	}
}
