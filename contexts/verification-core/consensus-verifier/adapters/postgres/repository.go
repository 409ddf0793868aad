package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"bluecarbon/contexts/verification-core/consensus-verifier/domain/entities"
	domainerrors "bluecarbon/contexts/verification-core/consensus-verifier/domain/errors"
	"bluecarbon/contexts/verification-core/consensus-verifier/ports"

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

func (r *Repository) CreateSubmission(ctx context.Context, submission entities.EvidenceSubmission) error {
	row := submissionModelFromEntity(submission)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("verifier_repo_create_submission_failed", err,
			"submission_id", row.ID,
			"claim_id", row.ClaimID,
		)
	}
	return nil
}

func (r *Repository) GetSubmission(ctx context.Context, submissionID string) (entities.EvidenceSubmission, error) {
	var row submissionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(submissionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.EvidenceSubmission{}, domainerrors.ErrSubmissionNotFound
		}
		return entities.EvidenceSubmission{}, r.logError("verifier_repo_get_submission_failed", err,
			"submission_id", strings.TrimSpace(submissionID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) SaveSubmission(ctx context.Context, submission entities.EvidenceSubmission) error {
	row := submissionModelFromEntity(submission)
	update := r.db.WithContext(ctx).Model(&submissionModel{}).
		Where("id = ?", row.ID).
		Updates(map[string]any{
			"decision":      row.Decision,
			"decision_note": row.DecisionNote,
			"decided_by":    row.DecidedBy,
			"decided_at":    row.DecidedAt,
		})
	if update.Error != nil {
		return r.logError("verifier_repo_save_submission_failed", update.Error,
			"submission_id", row.ID,
		)
	}
	if update.RowsAffected == 0 {
		return domainerrors.ErrSubmissionNotFound
	}
	return nil
}

func (r *Repository) ListSubmissionsByClaim(ctx context.Context, claimID string) ([]entities.EvidenceSubmission, error) {
	var rows []submissionModel
	if err := r.db.WithContext(ctx).
		Where("claim_id = ?", strings.TrimSpace(claimID)).
		Order("submitted_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("verifier_repo_list_submissions_failed", err,
			"claim_id", strings.TrimSpace(claimID),
		)
	}
	items := make([]entities.EvidenceSubmission, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) CountSubmissionsByClaim(ctx context.Context, claimID string) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&submissionModel{}).
		Where("claim_id = ?", strings.TrimSpace(claimID)).
		Count(&count).Error; err != nil {
		return 0, r.logError("verifier_repo_count_submissions_failed", err,
			"claim_id", strings.TrimSpace(claimID),
		)
	}
	return int(count), nil
}

func (r *Repository) GetConsensus(ctx context.Context, claimID string) (entities.ClaimConsensus, bool, error) {
	var row consensusModel
	err := r.db.WithContext(ctx).
		Where("claim_id = ?", strings.TrimSpace(claimID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ClaimConsensus{}, false, nil
		}
		return entities.ClaimConsensus{}, false, r.logError("verifier_repo_get_consensus_failed", err,
			"claim_id", strings.TrimSpace(claimID),
		)
	}
	consensus, convErr := row.toEntity()
	if convErr != nil {
		return entities.ClaimConsensus{}, false, r.logError("verifier_repo_decode_consensus_failed", convErr,
			"claim_id", strings.TrimSpace(claimID),
		)
	}
	return consensus, true, nil
}

func (r *Repository) SaveConsensus(ctx context.Context, consensus entities.ClaimConsensus) error {
	row, err := consensusModelFromEntity(consensus)
	if err != nil {
		return err
	}
	// The finalization columns are owned by FinalizeConsensus and
	// ReopenConsensus; the tally upsert never touches them.
	upsert := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "claim_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"submission_counts",
			"eligible_counts",
			"accepted_counts",
			"updated_at",
		}),
	}).Create(&row)
	if upsert.Error != nil {
		return r.logError("verifier_repo_save_consensus_failed", upsert.Error,
			"claim_id", row.ClaimID,
		)
	}
	return nil
}

func (r *Repository) FinalizeConsensus(ctx context.Context, claimID string, issuedQuantity float64, now time.Time) error {
	ts := now.UTC()
	update := r.db.WithContext(ctx).Model(&consensusModel{}).
		Where("claim_id = ? AND finalized = ?", strings.TrimSpace(claimID), false).
		Updates(map[string]any{
			"finalized":       true,
			"issued_quantity": issuedQuantity,
			"finalized_at":    &ts,
			"updated_at":      ts,
		})
	if update.Error != nil {
		return r.logError("verifier_repo_finalize_consensus_failed", update.Error,
			"claim_id", strings.TrimSpace(claimID),
		)
	}
	if update.RowsAffected == 0 {
		return domainerrors.ErrAlreadyFinalized
	}
	return nil
}

func (r *Repository) AttachIssuedBatch(ctx context.Context, claimID string, batchID string) error {
	update := r.db.WithContext(ctx).Model(&consensusModel{}).
		Where("claim_id = ? AND finalized = ?", strings.TrimSpace(claimID), true).
		Update("batch_id", strings.TrimSpace(batchID))
	if update.Error != nil {
		return r.logError("verifier_repo_attach_batch_failed", update.Error,
			"claim_id", strings.TrimSpace(claimID),
			"batch_id", strings.TrimSpace(batchID),
		)
	}
	if update.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *Repository) ReopenConsensus(ctx context.Context, claimID string) error {
	update := r.db.WithContext(ctx).Model(&consensusModel{}).
		Where("claim_id = ?", strings.TrimSpace(claimID)).
		Updates(map[string]any{
			"finalized":       false,
			"issued_quantity": 0,
			"batch_id":        "",
			"finalized_at":    nil,
		})
	if update.Error != nil {
		return r.logError("verifier_repo_reopen_consensus_failed", update.Error,
			"claim_id", strings.TrimSpace(claimID),
		)
	}
	if update.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *Repository) GetClaim(ctx context.Context, claimID string) (entities.ClaimRequirements, bool, error) {
	var row claimModel
	err := r.db.WithContext(ctx).
		Where("claim_id = ?", strings.TrimSpace(claimID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ClaimRequirements{}, false, nil
		}
		return entities.ClaimRequirements{}, false, r.logError("verifier_repo_get_claim_failed", err,
			"claim_id", strings.TrimSpace(claimID),
		)
	}
	requirements, convErr := row.toEntity()
	if convErr != nil {
		return entities.ClaimRequirements{}, false, r.logError("verifier_repo_decode_claim_failed", convErr,
			"claim_id", strings.TrimSpace(claimID),
		)
	}
	return requirements, true, nil
}

func (r *Repository) PutClaim(ctx context.Context, requirements entities.ClaimRequirements) error {
	row, err := claimModelFromEntity(requirements)
	if err != nil {
		return err
	}
	upsert := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "claim_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"minimum_counts",
			"weights",
			"threshold",
			"beneficiary",
			"vintage",
			"standard",
		}),
	}).Create(&row)
	if upsert.Error != nil {
		return r.logError("verifier_repo_put_claim_failed", upsert.Error,
			"claim_id", row.ClaimID,
		)
	}
	return nil
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
		return r.logError("verifier_repo_append_outbox_failed", create.Error,
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
		return nil, r.logError("verifier_repo_list_pending_outbox_failed", err)
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
		return r.logError("verifier_repo_mark_outbox_published_failed", update.Error,
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
		"module", "verification-core/consensus-verifier",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("consensus verifier repository operation failed", fields...)
	return err
}

type submissionModel struct {
	ID              string     `gorm:"column:id;primaryKey"`
	ClaimID         string     `gorm:"column:claim_id"`
	SourceKind      string     `gorm:"column:source_kind"`
	ContentRef      string     `gorm:"column:content_ref"`
	Submitter       string     `gorm:"column:submitter"`
	ClaimedQuantity float64    `gorm:"column:claimed_quantity"`
	Decision        string     `gorm:"column:decision"`
	DecisionNote    string     `gorm:"column:decision_note"`
	DecidedBy       string     `gorm:"column:decided_by"`
	SubmittedAt     time.Time  `gorm:"column:submitted_at"`
	DecidedAt       *time.Time `gorm:"column:decided_at"`
}

func (submissionModel) TableName() string {
	return "evidence_submissions"
}

func submissionModelFromEntity(submission entities.EvidenceSubmission) submissionModel {
	return submissionModel{
		ID:              strings.TrimSpace(submission.SubmissionID),
		ClaimID:         strings.TrimSpace(submission.ClaimID),
		SourceKind:      string(submission.SourceKind),
		ContentRef:      strings.TrimSpace(submission.ContentRef),
		Submitter:       strings.TrimSpace(submission.Submitter),
		ClaimedQuantity: submission.ClaimedQuantity,
		Decision:        string(submission.Decision),
		DecisionNote:    submission.DecisionNote,
		DecidedBy:       strings.TrimSpace(submission.DecidedBy),
		SubmittedAt:     submission.SubmittedAt.UTC(),
		DecidedAt:       submission.DecidedAt,
	}
}

func (m submissionModel) toEntity() entities.EvidenceSubmission {
	return entities.EvidenceSubmission{
		SubmissionID:    m.ID,
		ClaimID:         m.ClaimID,
		SourceKind:      entities.SourceKind(m.SourceKind),
		ContentRef:      m.ContentRef,
		Submitter:       m.Submitter,
		ClaimedQuantity: m.ClaimedQuantity,
		Decision:        entities.DecisionState(m.Decision),
		DecisionNote:    m.DecisionNote,
		DecidedBy:       m.DecidedBy,
		SubmittedAt:     m.SubmittedAt,
		DecidedAt:       m.DecidedAt,
	}
}

type consensusModel struct {
	ClaimID          string     `gorm:"column:claim_id;primaryKey"`
	SubmissionCounts []byte     `gorm:"column:submission_counts"`
	EligibleCounts   []byte     `gorm:"column:eligible_counts"`
	AcceptedCounts   []byte     `gorm:"column:accepted_counts"`
	Finalized        bool       `gorm:"column:finalized"`
	IssuedQuantity   float64    `gorm:"column:issued_quantity"`
	BatchID          string     `gorm:"column:batch_id"`
	FinalizedAt      *time.Time `gorm:"column:finalized_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`
}

func (consensusModel) TableName() string {
	return "claim_consensus"
}

func consensusModelFromEntity(consensus entities.ClaimConsensus) (consensusModel, error) {
	submissionCounts, err := json.Marshal(consensus.SubmissionCounts)
	if err != nil {
		return consensusModel{}, err
	}
	eligibleCounts, err := json.Marshal(consensus.EligibleCounts)
	if err != nil {
		return consensusModel{}, err
	}
	acceptedCounts, err := json.Marshal(consensus.AcceptedCounts)
	if err != nil {
		return consensusModel{}, err
	}
	return consensusModel{
		ClaimID:          strings.TrimSpace(consensus.ClaimID),
		SubmissionCounts: submissionCounts,
		EligibleCounts:   eligibleCounts,
		AcceptedCounts:   acceptedCounts,
		Finalized:        consensus.Finalized,
		IssuedQuantity:   consensus.IssuedQuantity,
		BatchID:          strings.TrimSpace(consensus.BatchID),
		FinalizedAt:      consensus.FinalizedAt,
		UpdatedAt:        consensus.UpdatedAt.UTC(),
	}, nil
}

func (m consensusModel) toEntity() (entities.ClaimConsensus, error) {
	consensus := entities.ClaimConsensus{
		ClaimID:        m.ClaimID,
		Finalized:      m.Finalized,
		IssuedQuantity: m.IssuedQuantity,
		BatchID:        m.BatchID,
		FinalizedAt:    m.FinalizedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if len(m.SubmissionCounts) > 0 {
		if err := json.Unmarshal(m.SubmissionCounts, &consensus.SubmissionCounts); err != nil {
			return entities.ClaimConsensus{}, err
		}
	}
	if len(m.EligibleCounts) > 0 {
		if err := json.Unmarshal(m.EligibleCounts, &consensus.EligibleCounts); err != nil {
			return entities.ClaimConsensus{}, err
		}
	}
	if len(m.AcceptedCounts) > 0 {
		if err := json.Unmarshal(m.AcceptedCounts, &consensus.AcceptedCounts); err != nil {
			return entities.ClaimConsensus{}, err
		}
	}
	return consensus, nil
}

type claimModel struct {
	ClaimID       string  `gorm:"column:claim_id;primaryKey"`
	MinimumCounts []byte  `gorm:"column:minimum_counts"`
	Weights       []byte  `gorm:"column:weights"`
	Threshold     float64 `gorm:"column:threshold"`
	Beneficiary   string  `gorm:"column:beneficiary"`
	Vintage       string  `gorm:"column:vintage"`
	Standard      string  `gorm:"column:standard"`
}

func (claimModel) TableName() string {
	return "claim_requirements"
}

func claimModelFromEntity(requirements entities.ClaimRequirements) (claimModel, error) {
	minimumCounts, err := json.Marshal(requirements.MinimumCounts)
	if err != nil {
		return claimModel{}, err
	}
	weights, err := json.Marshal(requirements.Weights)
	if err != nil {
		return claimModel{}, err
	}
	return claimModel{
		ClaimID:       strings.TrimSpace(requirements.ClaimID),
		MinimumCounts: minimumCounts,
		Weights:       weights,
		Threshold:     requirements.Threshold,
		Beneficiary:   strings.TrimSpace(requirements.Beneficiary),
		Vintage:       strings.TrimSpace(requirements.Vintage),
		Standard:      strings.TrimSpace(requirements.Standard),
	}, nil
}

func (m claimModel) toEntity() (entities.ClaimRequirements, error) {
	requirements := entities.ClaimRequirements{
		ClaimID:     m.ClaimID,
		Threshold:   m.Threshold,
		Beneficiary: m.Beneficiary,
		Vintage:     m.Vintage,
		Standard:    m.Standard,
	}
	if len(m.MinimumCounts) > 0 {
		if err := json.Unmarshal(m.MinimumCounts, &requirements.MinimumCounts); err != nil {
			return entities.ClaimRequirements{}, err
		}
	}
	if len(m.Weights) > 0 {
		if err := json.Unmarshal(m.Weights, &requirements.Weights); err != nil {
			return entities.ClaimRequirements{}, err
		}
	}
	return requirements, nil
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
	return "verification_outbox"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.SubmissionRepository = (*Repository)(nil)
var _ ports.ClaimRegistry = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
