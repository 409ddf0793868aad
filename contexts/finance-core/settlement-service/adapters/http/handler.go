package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"bluecarbon/contexts/finance-core/settlement-service/application"
	"bluecarbon/contexts/finance-core/settlement-service/domain/entities"
	domainerrors "bluecarbon/contexts/finance-core/settlement-service/domain/errors"
	httptransport "bluecarbon/contexts/finance-core/settlement-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

// CreateListingHandler godoc
// @Summary Create a listing
// @Description Lists credits from a batch the caller owns for sale at a fixed unit price.
// @Tags settlement-service
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Seller identity"
// @Param request body httptransport.CreateListingRequest true "Listing"
// @Success 201 {object} httptransport.ListingResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 422 {object} httptransport.ErrorResponse
// @Router /market/listings [post]
func (h Handler) CreateListingHandler(
	ctx context.Context,
	sellerID string,
	req httptransport.CreateListingRequest,
) (httptransport.ListingResponse, error) {
	expiresAt, err := time.Parse(time.RFC3339, req.ExpiresAt)
	if err != nil {
		return httptransport.ListingResponse{}, domainerrors.ErrInvalidExpiry
	}
	listing, err := h.Service.CreateListing(ctx, application.CreateListingInput{
		BatchID:      req.BatchID,
		Quantity:     req.Quantity,
		PricePerUnit: req.PricePerUnit,
		ExpiresAt:    expiresAt,
		Seller:       sellerID,
	})
	if err != nil {
		return httptransport.ListingResponse{}, err
	}
	return httptransport.ListingResponse{
		Status: "success",
		Data:   toListingDTO(listing),
	}, nil
}

// ExecuteSaleHandler godoc
// @Summary Buy from a listing
// @Description Transfers credits to the buyer and routes proceeds through the configured payout split.
// @Tags settlement-service
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Buyer identity"
// @Param listing_id path string true "Listing id"
// @Param request body httptransport.ExecuteSaleRequest true "Sale"
// @Success 200 {object} httptransport.SaleResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 410 {object} httptransport.ErrorResponse
// @Failure 422 {object} httptransport.ErrorResponse
// @Router /market/listings/{listing_id}/buy [post]
func (h Handler) ExecuteSaleHandler(
	ctx context.Context,
	buyerID string,
	listingID string,
	req httptransport.ExecuteSaleRequest,
) (httptransport.SaleResponse, error) {
	result, err := h.Service.ExecuteSale(ctx, application.ExecuteSaleInput{
		ListingID: listingID,
		Quantity:  req.Quantity,
		Payment:   req.Payment,
		Buyer:     buyerID,
	})
	if err != nil {
		return httptransport.SaleResponse{}, err
	}
	resp := httptransport.SaleResponse{Status: "success"}
	resp.Data.Sale = toSaleDTO(result.Sale)
	resp.Data.Listing = toListingDTO(result.Listing)
	return resp, nil
}

// UpdatePriceHandler godoc
// @Summary Update listing price
// @Tags settlement-service
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Seller identity"
// @Param listing_id path string true "Listing id"
// @Param request body httptransport.UpdatePriceRequest true "New price"
// @Success 200 {object} httptransport.ListingResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Router /market/listings/{listing_id}/price [put]
func (h Handler) UpdatePriceHandler(
	ctx context.Context,
	callerID string,
	listingID string,
	req httptransport.UpdatePriceRequest,
) (httptransport.ListingResponse, error) {
	listing, err := h.Service.UpdateListingPrice(ctx, listingID, callerID, req.PricePerUnit)
	if err != nil {
		return httptransport.ListingResponse{}, err
	}
	return httptransport.ListingResponse{
		Status: "success",
		Data:   toListingDTO(listing),
	}, nil
}

// CancelListingHandler godoc
// @Summary Cancel a listing
// @Tags settlement-service
// @Produce json
// @Param X-User-Id header string true "Seller identity"
// @Param listing_id path string true "Listing id"
// @Success 200 {object} httptransport.ListingResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 410 {object} httptransport.ErrorResponse
// @Router /market/listings/{listing_id}/cancel [post]
func (h Handler) CancelListingHandler(ctx context.Context, callerID string, listingID string) (httptransport.ListingResponse, error) {
	listing, err := h.Service.CancelListing(ctx, listingID, callerID)
	if err != nil {
		return httptransport.ListingResponse{}, err
	}
	return httptransport.ListingResponse{
		Status: "success",
		Data:   toListingDTO(listing),
	}, nil
}

// GetListingHandler godoc
// @Summary Get listing
// @Tags settlement-service
// @Produce json
// @Param listing_id path string true "Listing id"
// @Success 200 {object} httptransport.ListingResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /market/listings/{listing_id} [get]
func (h Handler) GetListingHandler(ctx context.Context, listingID string) (httptransport.ListingResponse, error) {
	listing, err := h.Service.GetListing(ctx, listingID)
	if err != nil {
		return httptransport.ListingResponse{}, err
	}
	return httptransport.ListingResponse{
		Status: "success",
		Data:   toListingDTO(listing),
	}, nil
}

// ListActiveByClaimHandler godoc
// @Summary List active listings for a claim
// @Tags settlement-service
// @Produce json
// @Param claim_id path string true "Claim id"
// @Success 200 {object} httptransport.ListingListResponse
// @Router /market/claims/{claim_id}/listings [get]
func (h Handler) ListActiveByClaimHandler(ctx context.Context, claimID string) (httptransport.ListingListResponse, error) {
	listings, err := h.Service.ListActiveByClaim(ctx, claimID)
	if err != nil {
		return httptransport.ListingListResponse{}, err
	}
	resp := httptransport.ListingListResponse{
		Status: "success",
		Data:   make([]httptransport.ListingDTO, 0, len(listings)),
	}
	for _, listing := range listings {
		resp.Data = append(resp.Data, toListingDTO(listing))
	}
	return resp, nil
}

// ListSalesByListingHandler godoc
// @Summary List sales for a listing
// @Tags settlement-service
// @Produce json
// @Param listing_id path string true "Listing id"
// @Success 200 {object} httptransport.SaleListResponse
// @Router /market/listings/{listing_id}/sales [get]
func (h Handler) ListSalesByListingHandler(ctx context.Context, listingID string) (httptransport.SaleListResponse, error) {
	sales, err := h.Service.ListSalesByListing(ctx, listingID)
	if err != nil {
		return httptransport.SaleListResponse{}, err
	}
	resp := httptransport.SaleListResponse{
		Status: "success",
		Data:   make([]httptransport.MarketSaleDTO, 0, len(sales)),
	}
	for _, sale := range sales {
		resp.Data = append(resp.Data, toSaleDTO(sale))
	}
	return resp, nil
}

func toListingDTO(listing entities.Listing) httptransport.ListingDTO {
	return httptransport.ListingDTO{
		ListingID:         listing.ListingID,
		BatchID:           listing.BatchID,
		ClaimID:           listing.ClaimID,
		Seller:            listing.Seller,
		Quantity:          listing.Quantity,
		RemainingQuantity: listing.RemainingQuantity,
		PricePerUnit:      listing.PricePerUnit,
		Status:            string(listing.Status),
		ExpiresAt:         listing.ExpiresAt.UTC().Format(time.RFC3339),
		CreatedAt:         listing.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toSaleDTO(sale entities.MarketSale) httptransport.MarketSaleDTO {
	return httptransport.MarketSaleDTO{
		SaleID:     sale.SaleID,
		ListingID:  sale.ListingID,
		BatchID:    sale.BatchID,
		ClaimID:    sale.ClaimID,
		Buyer:      sale.Buyer,
		Seller:     sale.Seller,
		Quantity:   sale.Quantity,
		TotalPrice: sale.TotalPrice,
		Fee:        sale.Fee,
		NetAmount:  sale.NetAmount,
		Refund:     sale.Refund,
		CreatedAt:  sale.CreatedAt.UTC().Format(time.RFC3339),
	}
}
