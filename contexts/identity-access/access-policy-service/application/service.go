package application

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"bluecarbon/contexts/identity-access/access-policy-service/domain/entities"
	domainerrors "bluecarbon/contexts/identity-access/access-policy-service/domain/errors"
	"bluecarbon/contexts/identity-access/access-policy-service/ports"
)

// Service manages the explicit access policy for the credit core. Policy
// mutations are themselves audited operations: every grant or revocation is
// persisted and emitted through the outbox.
type Service struct {
	Repo   ports.Repository
	Outbox ports.OutboxWriter
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

type GrantRoleInput struct {
	Identity string
	Role     entities.Role
	ActorID  string
	Reason   string
}

type RevokeRoleInput struct {
	Identity string
	Role     entities.Role
	ActorID  string
	Reason   string
}

func (s Service) GrantRole(ctx context.Context, input GrantRoleInput) (entities.RoleGrant, error) {
	identity := strings.TrimSpace(input.Identity)
	actor := strings.TrimSpace(input.ActorID)
	if identity == "" {
		return entities.RoleGrant{}, domainerrors.ErrInvalidIdentity
	}
	if !input.Role.Valid() {
		return entities.RoleGrant{}, domainerrors.ErrInvalidRole
	}
	if actor == "" {
		return entities.RoleGrant{}, domainerrors.ErrInvalidActor
	}
	if err := s.requireAdmin(ctx, actor); err != nil {
		return entities.RoleGrant{}, err
	}

	if _, found, err := s.Repo.GetActiveGrant(ctx, identity, input.Role); err != nil {
		return entities.RoleGrant{}, err
	} else if found {
		return entities.RoleGrant{}, domainerrors.ErrRoleAlreadyGranted
	}

	grantID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.RoleGrant{}, err
	}
	now := s.now()
	grant := entities.RoleGrant{
		GrantID:   grantID,
		Identity:  identity,
		Role:      input.Role,
		GrantedBy: actor,
		Reason:    strings.TrimSpace(input.Reason),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Repo.SaveGrant(ctx, grant); err != nil {
		return entities.RoleGrant{}, err
	}
	if err := s.appendPolicyEvent(ctx, "policy.role_granted", grant); err != nil {
		return entities.RoleGrant{}, err
	}

	resolveLogger(s.Logger).Info("role granted",
		"event", "policy_role_granted",
		"module", "identity-access/access-policy-service",
		"layer", "application",
		"identity", identity,
		"role", string(input.Role),
		"actor_id", actor,
	)
	return grant, nil
}

func (s Service) RevokeRole(ctx context.Context, input RevokeRoleInput) (entities.RoleGrant, error) {
	identity := strings.TrimSpace(input.Identity)
	actor := strings.TrimSpace(input.ActorID)
	if identity == "" {
		return entities.RoleGrant{}, domainerrors.ErrInvalidIdentity
	}
	if !input.Role.Valid() {
		return entities.RoleGrant{}, domainerrors.ErrInvalidRole
	}
	if actor == "" {
		return entities.RoleGrant{}, domainerrors.ErrInvalidActor
	}
	if err := s.requireAdmin(ctx, actor); err != nil {
		return entities.RoleGrant{}, err
	}

	grant, found, err := s.Repo.GetActiveGrant(ctx, identity, input.Role)
	if err != nil {
		return entities.RoleGrant{}, err
	}
	if !found {
		return entities.RoleGrant{}, domainerrors.ErrRoleNotGranted
	}

	grant.Revoked = true
	grant.RevokedBy = actor
	grant.Reason = strings.TrimSpace(input.Reason)
	grant.UpdatedAt = s.now()
	if err := s.Repo.SaveGrant(ctx, grant); err != nil {
		return entities.RoleGrant{}, err
	}
	if err := s.appendPolicyEvent(ctx, "policy.role_revoked", grant); err != nil {
		return entities.RoleGrant{}, err
	}

	resolveLogger(s.Logger).Info("role revoked",
		"event", "policy_role_revoked",
		"module", "identity-access/access-policy-service",
		"layer", "application",
		"identity", identity,
		"role", string(input.Role),
		"actor_id", actor,
	)
	return grant, nil
}

// HasRole reports whether identity currently holds role. It is the port the
// other modules consume for authorization checks.
func (s Service) HasRole(ctx context.Context, identity string, role entities.Role) (bool, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" || !role.Valid() {
		return false, nil
	}
	_, found, err := s.Repo.GetActiveGrant(ctx, identity, role)
	if err != nil {
		return false, err
	}
	return found, nil
}

func (s Service) ListRoles(ctx context.Context, identity string) ([]entities.RoleGrant, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, domainerrors.ErrInvalidIdentity
	}
	return s.Repo.ListGrantsByIdentity(ctx, identity)
}

func (s Service) requireAdmin(ctx context.Context, actor string) error {
	_, found, err := s.Repo.GetActiveGrant(ctx, actor, entities.RoleAdmin)
	if err != nil {
		return err
	}
	if !found {
		return domainerrors.ErrUnauthorized
	}
	return nil
}

func (s Service) appendPolicyEvent(ctx context.Context, eventType string, grant entities.RoleGrant) error {
	if s.Outbox == nil {
		return nil
	}
	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(map[string]any{
		"grant_id":   grant.GrantID,
		"identity":   grant.Identity,
		"role":       string(grant.Role),
		"actor_id":   grant.GrantedBy,
		"revoked":    grant.Revoked,
		"revoked_by": grant.RevokedBy,
		"reason":     grant.Reason,
		"updated_at": grant.UpdatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return s.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          strings.TrimSpace(eventID),
		EventType:        eventType,
		OccurredAt:       grant.UpdatedAt.UTC(),
		SourceService:    "access-policy-service",
		TraceID:          strings.TrimSpace(eventID),
		SchemaVersion:    1,
		PartitionKeyPath: "identity",
		PartitionKey:     grant.Identity,
		Data:             data,
	})
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
