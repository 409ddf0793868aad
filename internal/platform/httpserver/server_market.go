package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	marketerrors "bluecarbon/contexts/finance-core/settlement-service/domain/errors"
	markethttp "bluecarbon/contexts/finance-core/settlement-service/transport/http"
)

func (s *Server) registerMarketRoutes() {
	s.mux.HandleFunc("POST /v1/market/listings", s.handleCreateListing)
	s.mux.HandleFunc("GET /v1/market/listings/{listing_id}", s.handleGetListing)
	s.mux.HandleFunc("POST /v1/market/listings/{listing_id}/buy", s.handleExecuteSale)
	s.mux.HandleFunc("PUT /v1/market/listings/{listing_id}/price", s.handleUpdatePrice)
	s.mux.HandleFunc("POST /v1/market/listings/{listing_id}/cancel", s.handleCancelListing)
	s.mux.HandleFunc("GET /v1/market/listings/{listing_id}/sales", s.handleListSalesByListing)
	s.mux.HandleFunc("GET /v1/market/claims/{claim_id}/listings", s.handleListActiveListings)
}

func (s *Server) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	seller := callerID(r)
	if seller == "" {
		writeMarketError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req markethttp.CreateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMarketError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.market.Handler.CreateListingHandler(r.Context(), seller, req)
	if err != nil {
		writeMarketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	resp, err := s.market.Handler.GetListingHandler(r.Context(), r.PathValue("listing_id"))
	if err != nil {
		writeMarketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExecuteSale(w http.ResponseWriter, r *http.Request) {
	buyer := callerID(r)
	if buyer == "" {
		writeMarketError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req markethttp.ExecuteSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMarketError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.market.Handler.ExecuteSaleHandler(r.Context(), buyer, r.PathValue("listing_id"), req)
	if err != nil {
		writeMarketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdatePrice(w http.ResponseWriter, r *http.Request) {
	caller := callerID(r)
	if caller == "" {
		writeMarketError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req markethttp.UpdatePriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMarketError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.market.Handler.UpdatePriceHandler(r.Context(), caller, r.PathValue("listing_id"), req)
	if err != nil {
		writeMarketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelListing(w http.ResponseWriter, r *http.Request) {
	caller := callerID(r)
	if caller == "" {
		writeMarketError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	resp, err := s.market.Handler.CancelListingHandler(r.Context(), caller, r.PathValue("listing_id"))
	if err != nil {
		writeMarketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListActiveListings(w http.ResponseWriter, r *http.Request) {
	resp, err := s.market.Handler.ListActiveByClaimHandler(r.Context(), r.PathValue("claim_id"))
	if err != nil {
		writeMarketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListSalesByListing(w http.ResponseWriter, r *http.Request) {
	resp, err := s.market.Handler.ListSalesByListingHandler(r.Context(), r.PathValue("listing_id"))
	if err != nil {
		writeMarketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeMarketDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, marketerrors.ErrListingNotFound),
		errors.Is(err, marketerrors.ErrNotFound):
		writeMarketError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, marketerrors.ErrInvalidPrice),
		errors.Is(err, marketerrors.ErrInvalidQuantity),
		errors.Is(err, marketerrors.ErrInvalidExpiry),
		errors.Is(err, marketerrors.ErrInvalidParty),
		errors.Is(err, marketerrors.ErrSelfPurchase):
		writeMarketError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, marketerrors.ErrNotSeller):
		writeMarketError(w, http.StatusForbidden, "not_seller", err.Error())
	case errors.Is(err, marketerrors.ErrListingInactive):
		writeMarketError(w, http.StatusGone, "listing_inactive", err.Error())
	case errors.Is(err, marketerrors.ErrQuantityExceeds),
		errors.Is(err, marketerrors.ErrInsufficientPayment),
		errors.Is(err, marketerrors.ErrInsufficientCredits),
		errors.Is(err, marketerrors.ErrSplitNotConfigured):
		writeMarketError(w, http.StatusUnprocessableEntity, "sale_rejected", err.Error())
	case errors.Is(err, marketerrors.ErrConflict):
		writeMarketError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeMarketError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeMarketError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, markethttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
