package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	ledgererrors "bluecarbon/contexts/credit-registry/credit-ledger/domain/errors"
	ledgerhttp "bluecarbon/contexts/credit-registry/credit-ledger/transport/http"
)

func (s *Server) registerCreditRoutes() {
	s.mux.HandleFunc("GET /v1/credits/batches/{batch_id}", s.handleGetBatch)
	s.mux.HandleFunc("GET /v1/credits/batches/{batch_id}/retirements", s.handleListRetirements)
	s.mux.HandleFunc("GET /v1/credits/claims/{claim_id}/batches", s.handleListBatchesByClaim)
	s.mux.HandleFunc("GET /v1/credits/owners/{identity}/batches", s.handleListBatchesByOwner)
	s.mux.HandleFunc("GET /v1/credits/balances/{identity}", s.handleGetBalance)
	s.mux.HandleFunc("GET /v1/credits/stats", s.handleGlobalStats)
	s.mux.HandleFunc("POST /v1/credits/retire", s.handleRetire)
	s.mux.HandleFunc("POST /v1/credits/transfer", s.handleTransfer)
}

func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.GetBatchHandler(r.Context(), r.PathValue("batch_id"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListBatchesByClaim(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.ListBatchesByClaimHandler(r.Context(), r.PathValue("claim_id"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListBatchesByOwner(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.ListBatchesByOwnerHandler(r.Context(), r.PathValue("identity"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListRetirements(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.ListRetirementsHandler(r.Context(), r.PathValue("batch_id"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.GetBalanceHandler(r.Context(), r.PathValue("identity"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGlobalStats(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.GlobalStatsHandler(r.Context())
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRetire(w http.ResponseWriter, r *http.Request) {
	caller := callerID(r)
	if caller == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req ledgerhttp.RetireRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.ledger.Handler.RetireHandler(r.Context(), caller, req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	caller := callerID(r)
	if caller == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req ledgerhttp.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.ledger.Handler.TransferHandler(r.Context(), caller, req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeLedgerDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledgererrors.ErrBatchNotFound),
		errors.Is(err, ledgererrors.ErrNotFound):
		writeLedgerError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ledgererrors.ErrInvalidQuantity),
		errors.Is(err, ledgererrors.ErrInvalidBeneficiary),
		errors.Is(err, ledgererrors.ErrInvalidOwner),
		errors.Is(err, ledgererrors.ErrReasonRequired),
		errors.Is(err, ledgererrors.ErrSelfTransfer):
		writeLedgerError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, ledgererrors.ErrBatchFullyRetired),
		errors.Is(err, ledgererrors.ErrRetirementExceeds):
		writeLedgerError(w, http.StatusUnprocessableEntity, "retirement_rejected", err.Error())
	case errors.Is(err, ledgererrors.ErrInsufficientBalance):
		writeLedgerError(w, http.StatusUnprocessableEntity, "insufficient_balance", err.Error())
	case errors.Is(err, ledgererrors.ErrConflict):
		writeLedgerError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeLedgerError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeLedgerError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, ledgerhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
