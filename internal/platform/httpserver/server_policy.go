package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	policyerrors "bluecarbon/contexts/identity-access/access-policy-service/domain/errors"
	policyhttp "bluecarbon/contexts/identity-access/access-policy-service/transport/http"
)

func (s *Server) registerPolicyRoutes() {
	s.mux.HandleFunc("GET /v1/policy/identities/{identity}/roles", s.handleListRoles)
	s.mux.HandleFunc("POST /v1/policy/roles/grant", s.handleGrantRole)
	s.mux.HandleFunc("POST /v1/policy/roles/revoke", s.handleRevokeRole)
}

func (s *Server) handleGrantRole(w http.ResponseWriter, r *http.Request) {
	actor := callerID(r)
	if actor == "" {
		writePolicyError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req policyhttp.RoleChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePolicyError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.policy.Handler.GrantRoleHandler(r.Context(), actor, req)
	if err != nil {
		writePolicyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleRevokeRole(w http.ResponseWriter, r *http.Request) {
	actor := callerID(r)
	if actor == "" {
		writePolicyError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req policyhttp.RoleChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePolicyError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.policy.Handler.RevokeRoleHandler(r.Context(), actor, req)
	if err != nil {
		writePolicyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListRoles(w http.ResponseWriter, r *http.Request) {
	resp, err := s.policy.Handler.ListRolesHandler(r.Context(), r.PathValue("identity"))
	if err != nil {
		writePolicyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writePolicyDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, policyerrors.ErrNotFound),
		errors.Is(err, policyerrors.ErrRoleNotGranted):
		writePolicyError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, policyerrors.ErrInvalidIdentity),
		errors.Is(err, policyerrors.ErrInvalidRole),
		errors.Is(err, policyerrors.ErrInvalidActor):
		writePolicyError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, policyerrors.ErrUnauthorized):
		writePolicyError(w, http.StatusForbidden, "unauthorized", err.Error())
	case errors.Is(err, policyerrors.ErrRoleAlreadyGranted),
		errors.Is(err, policyerrors.ErrConflict):
		writePolicyError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writePolicyError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writePolicyError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, policyhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
