package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"bluecarbon/contexts/credit-registry/credit-ledger/domain/entities"
	domainerrors "bluecarbon/contexts/credit-registry/credit-ledger/domain/errors"
	"bluecarbon/contexts/credit-registry/credit-ledger/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"

	globalStatsRowID = 1
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

func (r *Repository) CreateBatchAndCredit(ctx context.Context, batch entities.CreditBatch) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := batchModelFromEntity(batch)
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrConflict
			}
			return err
		}
		if err := adjustBalance(tx, batch.Owner, batch.Quantity, batch.CreatedAt); err != nil {
			return err
		}
		return adjustStats(tx, batch.Quantity, 0)
	})
	if err != nil {
		if isDomainError(err) {
			return err
		}
		return r.logError("ledger_repo_create_batch_failed", err,
			"batch_id", strings.TrimSpace(batch.BatchID),
			"claim_id", strings.TrimSpace(batch.ClaimID),
		)
	}
	return nil
}

func (r *Repository) GetBatch(ctx context.Context, batchID string) (entities.CreditBatch, error) {
	var row batchModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(batchID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.CreditBatch{}, domainerrors.ErrBatchNotFound
		}
		return entities.CreditBatch{}, r.logError("ledger_repo_get_batch_failed", err,
			"batch_id", strings.TrimSpace(batchID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListBatchesByClaim(ctx context.Context, claimID string) ([]entities.CreditBatch, error) {
	var rows []batchModel
	if err := r.db.WithContext(ctx).
		Where("claim_id = ?", strings.TrimSpace(claimID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_batches_by_claim_failed", err,
			"claim_id", strings.TrimSpace(claimID),
		)
	}
	return toBatchEntities(rows), nil
}

func (r *Repository) ListBatchesByOwner(ctx context.Context, owner string) ([]entities.CreditBatch, error) {
	var rows []batchModel
	if err := r.db.WithContext(ctx).
		Where("LOWER(owner) = LOWER(?)", strings.TrimSpace(owner)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_batches_by_owner_failed", err,
			"owner", strings.TrimSpace(owner),
		)
	}
	return toBatchEntities(rows), nil
}

func (r *Repository) ApplyRetirement(ctx context.Context, retirement entities.Retirement) (entities.CreditBatch, error) {
	var updated entities.CreditBatch
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row batchModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", strings.TrimSpace(retirement.BatchID)).
			First(&row).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrBatchNotFound
			}
			return err
		}
		if row.Retired {
			return domainerrors.ErrBatchFullyRetired
		}
		if retirement.Quantity > row.Quantity-row.RetiredQuantity {
			return domainerrors.ErrRetirementExceeds
		}

		if err := adjustBalance(tx, retirement.Retiree, -retirement.Quantity, retirement.CreatedAt); err != nil {
			return err
		}

		row.RetiredQuantity += retirement.Quantity
		if row.RetiredQuantity >= row.Quantity {
			row.Retired = true
		}
		if err := tx.Model(&batchModel{}).
			Where("id = ?", row.ID).
			Updates(map[string]any{
				"retired_quantity": row.RetiredQuantity,
				"retired":          row.Retired,
			}).Error; err != nil {
			return err
		}

		retireRow := retirementModelFromEntity(retirement)
		if err := tx.Create(&retireRow).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrConflict
			}
			return err
		}
		if err := adjustStats(tx, 0, retirement.Quantity); err != nil {
			return err
		}
		updated = row.toEntity()
		return nil
	})
	if err != nil {
		if isDomainError(err) {
			return entities.CreditBatch{}, err
		}
		return entities.CreditBatch{}, r.logError("ledger_repo_apply_retirement_failed", err,
			"batch_id", strings.TrimSpace(retirement.BatchID),
			"retiree", strings.TrimSpace(retirement.Retiree),
		)
	}
	return updated, nil
}

func (r *Repository) ListRetirementsByBatch(ctx context.Context, batchID string) ([]entities.Retirement, error) {
	var rows []retirementModel
	if err := r.db.WithContext(ctx).
		Where("batch_id = ?", strings.TrimSpace(batchID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_retirements_failed", err,
			"batch_id", strings.TrimSpace(batchID),
		)
	}
	items := make([]entities.Retirement, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) TransferBalance(ctx context.Context, from string, to string, quantity float64, now time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := adjustBalance(tx, from, -quantity, now); err != nil {
			return err
		}
		return adjustBalance(tx, to, quantity, now)
	})
	if err != nil {
		if isDomainError(err) {
			return err
		}
		return r.logError("ledger_repo_transfer_failed", err,
			"from", strings.TrimSpace(from),
			"to", strings.TrimSpace(to),
		)
	}
	return nil
}

func (r *Repository) GetBalance(ctx context.Context, identity string) (entities.Balance, error) {
	var row balanceModel
	err := r.db.WithContext(ctx).
		Where("identity = LOWER(?)", strings.TrimSpace(identity)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Balance{Identity: strings.TrimSpace(identity)}, nil
		}
		return entities.Balance{}, r.logError("ledger_repo_get_balance_failed", err,
			"identity", strings.TrimSpace(identity),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetGlobalStats(ctx context.Context) (entities.GlobalStats, error) {
	var row statsModel
	err := r.db.WithContext(ctx).
		Where("id = ?", globalStatsRowID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.GlobalStats{}, nil
		}
		return entities.GlobalStats{}, r.logError("ledger_repo_get_stats_failed", err)
	}
	return entities.GlobalStats{Issued: row.Issued, Retired: row.Retired}, nil
}

// adjustBalance applies a signed delta under a row lock, rejecting any change
// that would leave the balance negative.
func adjustBalance(tx *gorm.DB, identity string, delta float64, now time.Time) error {
	key := strings.ToLower(strings.TrimSpace(identity))

	var row balanceModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("identity = ?", key).
		First(&row).
		Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if delta < 0 {
			return domainerrors.ErrInsufficientBalance
		}
		return tx.Create(&balanceModel{
			Identity:  key,
			Quantity:  delta,
			UpdatedAt: now.UTC(),
		}).Error
	}

	next := row.Quantity + delta
	if next < 0 {
		return domainerrors.ErrInsufficientBalance
	}
	return tx.Model(&balanceModel{}).
		Where("identity = ?", key).
		Updates(map[string]any{
			"quantity":   next,
			"updated_at": now.UTC(),
		}).Error
}

func adjustStats(tx *gorm.DB, issuedDelta float64, retiredDelta float64) error {
	var row statsModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", globalStatsRowID).
		First(&row).
		Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(&statsModel{
			ID:      globalStatsRowID,
			Issued:  issuedDelta,
			Retired: retiredDelta,
		}).Error
	}
	return tx.Model(&statsModel{}).
		Where("id = ?", globalStatsRowID).
		Updates(map[string]any{
			"issued":  row.Issued + issuedDelta,
			"retired": row.Retired + retiredDelta,
		}).Error
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
		return r.logError("ledger_repo_append_outbox_failed", create.Error,
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
		return nil, r.logError("ledger_repo_list_pending_outbox_failed", err)
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
		return r.logError("ledger_repo_mark_outbox_published_failed", update.Error,
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
		"module", "credit-registry/credit-ledger",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("credit ledger repository operation failed", fields...)
	return err
}

func isDomainError(err error) bool {
	return errors.Is(err, domainerrors.ErrBatchNotFound) ||
		errors.Is(err, domainerrors.ErrBatchFullyRetired) ||
		errors.Is(err, domainerrors.ErrRetirementExceeds) ||
		errors.Is(err, domainerrors.ErrInsufficientBalance) ||
		errors.Is(err, domainerrors.ErrConflict)
}

type batchModel struct {
	ID              string    `gorm:"column:id;primaryKey"`
	ClaimID         string    `gorm:"column:claim_id"`
	Quantity        float64   `gorm:"column:quantity"`
	RetiredQuantity float64   `gorm:"column:retired_quantity"`
	Vintage         string    `gorm:"column:vintage"`
	Standard        string    `gorm:"column:standard"`
	Owner           string    `gorm:"column:owner"`
	Retired         bool      `gorm:"column:retired"`
	CreatedAt       time.Time `gorm:"column:created_at"`
}

func (batchModel) TableName() string {
	return "credit_batches"
}

func batchModelFromEntity(batch entities.CreditBatch) batchModel {
	return batchModel{
		ID:              strings.TrimSpace(batch.BatchID),
		ClaimID:         strings.TrimSpace(batch.ClaimID),
		Quantity:        batch.Quantity,
		RetiredQuantity: batch.RetiredQuantity,
		Vintage:         strings.TrimSpace(batch.Vintage),
		Standard:        strings.TrimSpace(batch.Standard),
		Owner:           strings.TrimSpace(batch.Owner),
		Retired:         batch.Retired,
		CreatedAt:       batch.CreatedAt.UTC(),
	}
}

func (m batchModel) toEntity() entities.CreditBatch {
	return entities.CreditBatch{
		BatchID:         m.ID,
		ClaimID:         m.ClaimID,
		Quantity:        m.Quantity,
		RetiredQuantity: m.RetiredQuantity,
		Vintage:         m.Vintage,
		Standard:        m.Standard,
		Owner:           m.Owner,
		Retired:         m.Retired,
		CreatedAt:       m.CreatedAt,
	}
}

func toBatchEntities(rows []batchModel) []entities.CreditBatch {
	items := make([]entities.CreditBatch, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

type retirementModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	BatchID   string    `gorm:"column:batch_id"`
	Quantity  float64   `gorm:"column:quantity"`
	Reason    string    `gorm:"column:reason"`
	Retiree   string    `gorm:"column:retiree"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (retirementModel) TableName() string {
	return "credit_retirements"
}

func retirementModelFromEntity(retirement entities.Retirement) retirementModel {
	return retirementModel{
		ID:        strings.TrimSpace(retirement.RetirementID),
		BatchID:   strings.TrimSpace(retirement.BatchID),
		Quantity:  retirement.Quantity,
		Reason:    strings.TrimSpace(retirement.Reason),
		Retiree:   strings.TrimSpace(retirement.Retiree),
		CreatedAt: retirement.CreatedAt.UTC(),
	}
}

func (m retirementModel) toEntity() entities.Retirement {
	return entities.Retirement{
		RetirementID: m.ID,
		BatchID:      m.BatchID,
		Quantity:     m.Quantity,
		Reason:       m.Reason,
		Retiree:      m.Retiree,
		CreatedAt:    m.CreatedAt,
	}
}

type balanceModel struct {
	Identity  string    `gorm:"column:identity;primaryKey"`
	Quantity  float64   `gorm:"column:quantity"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (balanceModel) TableName() string {
	return "credit_balances"
}

func (m balanceModel) toEntity() entities.Balance {
	return entities.Balance{
		Identity:  m.Identity,
		Quantity:  m.Quantity,
		UpdatedAt: m.UpdatedAt,
	}
}

type statsModel struct {
	ID      int     `gorm:"column:id;primaryKey"`
	Issued  float64 `gorm:"column:issued"`
	Retired float64 `gorm:"column:retired"`
}

func (statsModel) TableName() string {
	return "credit_global_stats"
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
	return "ledger_outbox"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.Repository = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
