package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"bluecarbon/contexts/finance-core/payment-distributor/domain/entities"
	domainerrors "bluecarbon/contexts/finance-core/payment-distributor/domain/errors"
	"bluecarbon/contexts/finance-core/payment-distributor/ports"

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

func (r *Repository) SaveSplit(ctx context.Context, split entities.PayoutSplit) error {
	row, err := splitModelFromEntity(split)
	if err != nil {
		return err
	}
	upsert := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "claim_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"allocations",
			"platform_beneficiary",
			"platform_basis_points",
			"updated_at",
		}),
	}).Create(&row)
	if upsert.Error != nil {
		return r.logError("payments_repo_save_split_failed", upsert.Error,
			"claim_id", row.ClaimID,
		)
	}
	return nil
}

func (r *Repository) GetSplit(ctx context.Context, claimID string) (entities.PayoutSplit, bool, error) {
	var row splitModel
	err := r.db.WithContext(ctx).
		Where("claim_id = ?", strings.TrimSpace(claimID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.PayoutSplit{}, false, nil
		}
		return entities.PayoutSplit{}, false, r.logError("payments_repo_get_split_failed", err,
			"claim_id", strings.TrimSpace(claimID),
		)
	}
	split, convErr := row.toEntity()
	if convErr != nil {
		return entities.PayoutSplit{}, false, r.logError("payments_repo_decode_split_failed", convErr,
			"claim_id", strings.TrimSpace(claimID),
		)
	}
	return split, true, nil
}

func (r *Repository) ApplySale(ctx context.Context, sale entities.SaleRecord, credits []entities.ShareCredit) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := saleModelFromEntity(sale)
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrConflict
			}
			return err
		}
		for _, credit := range credits {
			if err := accruePending(tx, credit.Beneficiary, credit.Amount, sale.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrConflict) {
			return err
		}
		return r.logError("payments_repo_apply_sale_failed", err,
			"sale_id", strings.TrimSpace(sale.SaleID),
			"claim_id", strings.TrimSpace(sale.ClaimID),
		)
	}
	return nil
}

func (r *Repository) GetSale(ctx context.Context, saleID string) (entities.SaleRecord, error) {
	var row saleModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(saleID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.SaleRecord{}, domainerrors.ErrSaleNotFound
		}
		return entities.SaleRecord{}, r.logError("payments_repo_get_sale_failed", err,
			"sale_id", strings.TrimSpace(saleID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListSalesByClaim(ctx context.Context, claimID string) ([]entities.SaleRecord, error) {
	var rows []saleModel
	if err := r.db.WithContext(ctx).
		Where("claim_id = ?", strings.TrimSpace(claimID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("payments_repo_list_sales_failed", err,
			"claim_id", strings.TrimSpace(claimID),
		)
	}
	items := make([]entities.SaleRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetPending(ctx context.Context, identity string) (entities.PendingWithdrawal, error) {
	var row pendingModel
	err := r.db.WithContext(ctx).
		Where("identity = ?", pendingKey(identity)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.PendingWithdrawal{Identity: strings.TrimSpace(identity)}, nil
		}
		return entities.PendingWithdrawal{}, r.logError("payments_repo_get_pending_failed", err,
			"identity", strings.TrimSpace(identity),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) WithdrawAll(ctx context.Context, identity string, now time.Time) (int64, error) {
	var amount int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row pendingModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("identity = ?", pendingKey(identity)).
			First(&row).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrNothingToWithdraw
			}
			return err
		}
		if row.Amount <= 0 {
			return domainerrors.ErrNothingToWithdraw
		}
		amount = row.Amount
		return tx.Model(&pendingModel{}).
			Where("identity = ?", row.Identity).
			Updates(map[string]any{
				"amount":     0,
				"updated_at": now.UTC(),
			}).Error
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrNothingToWithdraw) {
			return 0, err
		}
		return 0, r.logError("payments_repo_withdraw_failed", err,
			"identity", strings.TrimSpace(identity),
		)
	}
	return amount, nil
}

func (r *Repository) AccruePending(ctx context.Context, identity string, amount int64, now time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return accruePending(tx, identity, amount, now)
	})
	if err != nil {
		return r.logError("payments_repo_accrue_pending_failed", err,
			"identity", strings.TrimSpace(identity),
			"amount", amount,
		)
	}
	return nil
}

func accruePending(tx *gorm.DB, identity string, amount int64, now time.Time) error {
	key := pendingKey(identity)
	var row pendingModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("identity = ?", key).
		First(&row).
		Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(&pendingModel{
			Identity:  key,
			Amount:    amount,
			UpdatedAt: now.UTC(),
		}).Error
	}
	return tx.Model(&pendingModel{}).
		Where("identity = ?", key).
		Updates(map[string]any{
			"amount":     row.Amount + amount,
			"updated_at": now.UTC(),
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
		return r.logError("payments_repo_append_outbox_failed", create.Error,
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
		return nil, r.logError("payments_repo_list_pending_outbox_failed", err)
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
		return r.logError("payments_repo_mark_outbox_published_failed", update.Error,
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
		"module", "finance-core/payment-distributor",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("payment distributor repository operation failed", fields...)
	return err
}

type splitModel struct {
	ClaimID             string    `gorm:"column:claim_id;primaryKey"`
	Allocations         []byte    `gorm:"column:allocations"`
	PlatformBeneficiary string    `gorm:"column:platform_beneficiary"`
	PlatformBasisPoints int64     `gorm:"column:platform_basis_points"`
	UpdatedAt           time.Time `gorm:"column:updated_at"`
}

func (splitModel) TableName() string {
	return "payout_splits"
}

func splitModelFromEntity(split entities.PayoutSplit) (splitModel, error) {
	allocations, err := json.Marshal(split.Allocations)
	if err != nil {
		return splitModel{}, err
	}
	return splitModel{
		ClaimID:             strings.TrimSpace(split.ClaimID),
		Allocations:         allocations,
		PlatformBeneficiary: strings.TrimSpace(split.PlatformBeneficiary),
		PlatformBasisPoints: split.PlatformBasisPoints,
		UpdatedAt:           split.UpdatedAt.UTC(),
	}, nil
}

func (m splitModel) toEntity() (entities.PayoutSplit, error) {
	split := entities.PayoutSplit{
		ClaimID:             m.ClaimID,
		PlatformBeneficiary: m.PlatformBeneficiary,
		PlatformBasisPoints: m.PlatformBasisPoints,
		UpdatedAt:           m.UpdatedAt,
	}
	if len(m.Allocations) > 0 {
		if err := json.Unmarshal(m.Allocations, &split.Allocations); err != nil {
			return entities.PayoutSplit{}, err
		}
	}
	return split, nil
}

type saleModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	ClaimID     string    `gorm:"column:claim_id"`
	BatchID     string    `gorm:"column:batch_id"`
	Quantity    float64   `gorm:"column:quantity"`
	TotalPrice  int64     `gorm:"column:total_price"`
	Buyer       string    `gorm:"column:buyer"`
	Seller      string    `gorm:"column:seller"`
	Distributed bool      `gorm:"column:distributed"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (saleModel) TableName() string {
	return "payment_sales"
}

func saleModelFromEntity(sale entities.SaleRecord) saleModel {
	return saleModel{
		ID:          strings.TrimSpace(sale.SaleID),
		ClaimID:     strings.TrimSpace(sale.ClaimID),
		BatchID:     strings.TrimSpace(sale.BatchID),
		Quantity:    sale.Quantity,
		TotalPrice:  sale.TotalPrice,
		Buyer:       strings.TrimSpace(sale.Buyer),
		Seller:      strings.TrimSpace(sale.Seller),
		Distributed: sale.Distributed,
		CreatedAt:   sale.CreatedAt.UTC(),
	}
}

func (m saleModel) toEntity() entities.SaleRecord {
	return entities.SaleRecord{
		SaleID:      m.ID,
		ClaimID:     m.ClaimID,
		BatchID:     m.BatchID,
		Quantity:    m.Quantity,
		TotalPrice:  m.TotalPrice,
		Buyer:       m.Buyer,
		Seller:      m.Seller,
		Distributed: m.Distributed,
		CreatedAt:   m.CreatedAt,
	}
}

type pendingModel struct {
	Identity  string    `gorm:"column:identity;primaryKey"`
	Amount    int64     `gorm:"column:amount"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (pendingModel) TableName() string {
	return "pending_withdrawals"
}

func (m pendingModel) toEntity() entities.PendingWithdrawal {
	return entities.PendingWithdrawal{
		Identity:  m.Identity,
		Amount:    m.Amount,
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
	return "payment_outbox"
}

func pendingKey(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.Repository = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
