package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"bluecarbon/contexts/identity-access/access-policy-service/domain/entities"
	domainerrors "bluecarbon/contexts/identity-access/access-policy-service/domain/errors"
	"bluecarbon/contexts/identity-access/access-policy-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) SaveGrant(ctx context.Context, grant entities.RoleGrant) error {
	row := grantModelFromEntity(grant)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"revoked":    row.Revoked,
			"revoked_by": row.RevokedBy,
			"reason":     row.Reason,
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrConflict
		}
		return r.logError("policy_repo_save_grant_failed", create.Error,
			"grant_id", strings.TrimSpace(grant.GrantID),
			"identity", strings.TrimSpace(grant.Identity),
		)
	}
	return nil
}

func (r *Repository) GetActiveGrant(ctx context.Context, identity string, role entities.Role) (entities.RoleGrant, bool, error) {
	var row grantModel
	err := r.db.WithContext(ctx).
		Where("LOWER(identity) = LOWER(?)", strings.TrimSpace(identity)).
		Where("role = ?", string(role)).
		Where("revoked = FALSE").
		Order("created_at DESC").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.RoleGrant{}, false, nil
		}
		return entities.RoleGrant{}, false, r.logError("policy_repo_get_active_grant_failed", err,
			"identity", strings.TrimSpace(identity),
			"role", string(role),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListGrantsByIdentity(ctx context.Context, identity string) ([]entities.RoleGrant, error) {
	var rows []grantModel
	if err := r.db.WithContext(ctx).
		Where("LOWER(identity) = LOWER(?)", strings.TrimSpace(identity)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("policy_repo_list_grants_failed", err,
			"identity", strings.TrimSpace(identity),
		)
	}
	items := make([]entities.RoleGrant, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    envelope.EventType,
		PartitionKey: envelope.PartitionKey,
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if create.Error != nil {
		return r.logError("policy_repo_append_outbox_failed", create.Error,
			"event_id", row.OutboxID,
			"event_type", row.EventType,
		)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("policy_repo_list_pending_outbox_failed", err)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      row.Payload,
			CreatedAt:    row.CreatedAt,
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	ts := publishedAt.UTC()
	update := r.db.WithContext(ctx).Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": &ts,
		})
	if update.Error != nil {
		return r.logError("policy_repo_mark_outbox_published_failed", update.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if update.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "identity-access/access-policy-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("access policy repository operation failed", fields...)
	return err
}

type grantModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Identity  string    `gorm:"column:identity"`
	Role      string    `gorm:"column:role"`
	GrantedBy string    `gorm:"column:granted_by"`
	Reason    string    `gorm:"column:reason"`
	Revoked   bool      `gorm:"column:revoked"`
	RevokedBy string    `gorm:"column:revoked_by"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (grantModel) TableName() string {
	return "policy_role_grants"
}

func grantModelFromEntity(grant entities.RoleGrant) grantModel {
	return grantModel{
		ID:        strings.TrimSpace(grant.GrantID),
		Identity:  strings.TrimSpace(grant.Identity),
		Role:      string(grant.Role),
		GrantedBy: strings.TrimSpace(grant.GrantedBy),
		Reason:    strings.TrimSpace(grant.Reason),
		Revoked:   grant.Revoked,
		RevokedBy: strings.TrimSpace(grant.RevokedBy),
		CreatedAt: grant.CreatedAt.UTC(),
		UpdatedAt: grant.UpdatedAt.UTC(),
	}
}

func (m grantModel) toEntity() entities.RoleGrant {
	return entities.RoleGrant{
		GrantID:   m.ID,
		Identity:  m.Identity,
		Role:      entities.Role(m.Role),
		GrantedBy: m.GrantedBy,
		Reason:    m.Reason,
		Revoked:   m.Revoked,
		RevokedBy: m.RevokedBy,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "policy_outbox"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.Repository = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
