package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	paymenterrors "bluecarbon/contexts/finance-core/payment-distributor/domain/errors"
	paymenthttp "bluecarbon/contexts/finance-core/payment-distributor/transport/http"
)

func (s *Server) registerPaymentRoutes() {
	s.mux.HandleFunc("PUT /v1/payments/claims/{claim_id}/split", s.handleConfigureSplit)
	s.mux.HandleFunc("GET /v1/payments/claims/{claim_id}/split", s.handleGetSplit)
	s.mux.HandleFunc("GET /v1/payments/claims/{claim_id}/sales", s.handleListPaymentSales)
	s.mux.HandleFunc("GET /v1/payments/sales/{sale_id}", s.handleGetPaymentSale)
	s.mux.HandleFunc("GET /v1/payments/pending/{identity}", s.handleGetPending)
	s.mux.HandleFunc("POST /v1/payments/withdraw", s.handleWithdraw)
}

func (s *Server) handleConfigureSplit(w http.ResponseWriter, r *http.Request) {
	var req paymenthttp.ConfigureSplitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePaymentError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.payments.Handler.ConfigureSplitHandler(r.Context(), r.PathValue("claim_id"), req)
	if err != nil {
		writePaymentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSplit(w http.ResponseWriter, r *http.Request) {
	resp, err := s.payments.Handler.GetSplitHandler(r.Context(), r.PathValue("claim_id"))
	if err != nil {
		writePaymentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPaymentSale(w http.ResponseWriter, r *http.Request) {
	resp, err := s.payments.Handler.GetSaleHandler(r.Context(), r.PathValue("sale_id"))
	if err != nil {
		writePaymentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListPaymentSales(w http.ResponseWriter, r *http.Request) {
	resp, err := s.payments.Handler.ListSalesByClaimHandler(r.Context(), r.PathValue("claim_id"))
	if err != nil {
		writePaymentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPending(w http.ResponseWriter, r *http.Request) {
	resp, err := s.payments.Handler.GetPendingHandler(r.Context(), r.PathValue("identity"))
	if err != nil {
		writePaymentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	caller := callerID(r)
	if caller == "" {
		writePaymentError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	resp, err := s.payments.Handler.WithdrawHandler(r.Context(), caller)
	if err != nil {
		writePaymentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writePaymentDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, paymenterrors.ErrSaleNotFound),
		errors.Is(err, paymenterrors.ErrSplitNotConfigured),
		errors.Is(err, paymenterrors.ErrNotFound):
		writePaymentError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, paymenterrors.ErrInvalidSplit),
		errors.Is(err, paymenterrors.ErrInvalidPrice),
		errors.Is(err, paymenterrors.ErrInvalidQuantity),
		errors.Is(err, paymenterrors.ErrInvalidParty),
		errors.Is(err, paymenterrors.ErrInvalidBeneficiary),
		errors.Is(err, paymenterrors.ErrInvalidAmount):
		writePaymentError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, paymenterrors.ErrSplitExceedsWhole):
		writePaymentError(w, http.StatusUnprocessableEntity, "split_exceeds_whole", err.Error())
	case errors.Is(err, paymenterrors.ErrNothingToWithdraw):
		writePaymentError(w, http.StatusUnprocessableEntity, "nothing_to_withdraw", err.Error())
	case errors.Is(err, paymenterrors.ErrConflict):
		writePaymentError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writePaymentError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writePaymentError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, paymenthttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
