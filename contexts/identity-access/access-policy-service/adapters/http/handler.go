package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"bluecarbon/contexts/identity-access/access-policy-service/application"
	"bluecarbon/contexts/identity-access/access-policy-service/domain/entities"
	httptransport "bluecarbon/contexts/identity-access/access-policy-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

// GrantRoleHandler godoc
// @Summary Grant a role
// @Description Grants a role to an identity. Only admins may grant roles.
// @Tags access-policy-service
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Acting admin identity"
// @Param request body httptransport.RoleChangeRequest true "Role grant"
// @Success 201 {object} httptransport.RoleChangeResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /policy/roles/grant [post]
func (h Handler) GrantRoleHandler(
	ctx context.Context,
	actorID string,
	req httptransport.RoleChangeRequest,
) (httptransport.RoleChangeResponse, error) {
	grant, err := h.Service.GrantRole(ctx, application.GrantRoleInput{
		Identity: req.Identity,
		Role:     entities.Role(req.Role),
		ActorID:  actorID,
		Reason:   req.Reason,
	})
	if err != nil {
		return httptransport.RoleChangeResponse{}, err
	}
	return httptransport.RoleChangeResponse{
		Status: "success",
		Data:   toDTO(grant),
	}, nil
}

// RevokeRoleHandler godoc
// @Summary Revoke a role
// @Tags access-policy-service
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Acting admin identity"
// @Param request body httptransport.RoleChangeRequest true "Role revocation"
// @Success 200 {object} httptransport.RoleChangeResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /policy/roles/revoke [post]
func (h Handler) RevokeRoleHandler(
	ctx context.Context,
	actorID string,
	req httptransport.RoleChangeRequest,
) (httptransport.RoleChangeResponse, error) {
	grant, err := h.Service.RevokeRole(ctx, application.RevokeRoleInput{
		Identity: req.Identity,
		Role:     entities.Role(req.Role),
		ActorID:  actorID,
		Reason:   req.Reason,
	})
	if err != nil {
		return httptransport.RoleChangeResponse{}, err
	}
	return httptransport.RoleChangeResponse{
		Status: "success",
		Data:   toDTO(grant),
	}, nil
}

// ListRolesHandler godoc
// @Summary List identity roles
// @Tags access-policy-service
// @Produce json
// @Param identity path string true "Identity"
// @Success 200 {object} httptransport.IdentityRolesResponse
// @Router /policy/identities/{identity}/roles [get]
func (h Handler) ListRolesHandler(
	ctx context.Context,
	identity string,
) (httptransport.IdentityRolesResponse, error) {
	grants, err := h.Service.ListRoles(ctx, identity)
	if err != nil {
		return httptransport.IdentityRolesResponse{}, err
	}
	resp := httptransport.IdentityRolesResponse{
		Status: "success",
		Data:   make([]httptransport.RoleGrantDTO, 0, len(grants)),
	}
	for _, grant := range grants {
		resp.Data = append(resp.Data, toDTO(grant))
	}
	return resp, nil
}

func toDTO(grant entities.RoleGrant) httptransport.RoleGrantDTO {
	return httptransport.RoleGrantDTO{
		GrantID:   grant.GrantID,
		Identity:  grant.Identity,
		Role:      string(grant.Role),
		GrantedBy: grant.GrantedBy,
		Reason:    grant.Reason,
		Revoked:   grant.Revoked,
		RevokedBy: grant.RevokedBy,
		UpdatedAt: grant.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
