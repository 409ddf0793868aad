package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	verifiererrors "bluecarbon/contexts/verification-core/consensus-verifier/domain/errors"
	verifierhttp "bluecarbon/contexts/verification-core/consensus-verifier/transport/http"
)

func (s *Server) registerVerificationRoutes() {
	s.mux.HandleFunc("PUT /v1/verification/claims/{claim_id}", s.handleRegisterClaim)
	s.mux.HandleFunc("GET /v1/verification/claims/{claim_id}/consensus", s.handleConsensusStatus)
	s.mux.HandleFunc("GET /v1/verification/claims/{claim_id}/submissions", s.handleListSubmissions)
	s.mux.HandleFunc("POST /v1/verification/submissions", s.handleSubmitEvidence)
	s.mux.HandleFunc("POST /v1/verification/submissions/{submission_id}/decision", s.handleDecideEvidence)
}

func (s *Server) handleRegisterClaim(w http.ResponseWriter, r *http.Request) {
	var req verifierhttp.RegisterClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVerifierError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	req.ClaimID = r.PathValue("claim_id")
	resp, err := s.verifier.Handler.RegisterClaimHandler(r.Context(), req)
	if err != nil {
		writeVerifierDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitEvidence(w http.ResponseWriter, r *http.Request) {
	submitter := callerID(r)
	if submitter == "" {
		writeVerifierError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req verifierhttp.SubmitEvidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVerifierError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.verifier.Handler.SubmitEvidenceHandler(r.Context(), submitter, req)
	if err != nil {
		writeVerifierDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleDecideEvidence(w http.ResponseWriter, r *http.Request) {
	verifier := callerID(r)
	if verifier == "" {
		writeVerifierError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req verifierhttp.DecideEvidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVerifierError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.verifier.Handler.DecideEvidenceHandler(
		r.Context(),
		verifier,
		r.PathValue("submission_id"),
		req,
	)
	if err != nil {
		writeVerifierDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleConsensusStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := s.verifier.Handler.ConsensusStatusHandler(r.Context(), r.PathValue("claim_id"))
	if err != nil {
		writeVerifierDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := 0
	offset := 0
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeVerifierError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		limit = parsed
	}
	if raw := query.Get("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeVerifierError(w, http.StatusBadRequest, "invalid_offset", "offset must be an integer")
			return
		}
		offset = parsed
	}
	resp, err := s.verifier.Handler.ListSubmissionsHandler(r.Context(), r.PathValue("claim_id"), limit, offset)
	if err != nil {
		writeVerifierDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeVerifierDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, verifiererrors.ErrClaimNotFound),
		errors.Is(err, verifiererrors.ErrSubmissionNotFound),
		errors.Is(err, verifiererrors.ErrNotFound):
		writeVerifierError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, verifiererrors.ErrInvalidSourceKind),
		errors.Is(err, verifiererrors.ErrInvalidContentRef),
		errors.Is(err, verifiererrors.ErrInvalidQuantity),
		errors.Is(err, verifiererrors.ErrInvalidSubmitter),
		errors.Is(err, verifiererrors.ErrInvalidRequirements):
		writeVerifierError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, verifiererrors.ErrUnauthorizedVerifier):
		writeVerifierError(w, http.StatusForbidden, "unauthorized_verifier", err.Error())
	case errors.Is(err, verifiererrors.ErrAlreadyFinalized):
		writeVerifierError(w, http.StatusConflict, "already_finalized", err.Error())
	case errors.Is(err, verifiererrors.ErrSubmissionLimit):
		writeVerifierError(w, http.StatusTooManyRequests, "submission_limit", err.Error())
	case errors.Is(err, verifiererrors.ErrConflict):
		writeVerifierError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeVerifierError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeVerifierError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, verifierhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
