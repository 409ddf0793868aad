package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"bluecarbon/contexts/finance-core/settlement-service/domain/entities"
	domainerrors "bluecarbon/contexts/finance-core/settlement-service/domain/errors"
	"bluecarbon/contexts/finance-core/settlement-service/ports"

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

func (r *Repository) CreateListing(ctx context.Context, listing entities.Listing) error {
	row := listingModelFromEntity(listing)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("market_repo_create_listing_failed", err,
			"listing_id", row.ID,
		)
	}
	return nil
}

func (r *Repository) GetListing(ctx context.Context, listingID string) (entities.Listing, error) {
	var row listingModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(listingID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Listing{}, domainerrors.ErrListingNotFound
		}
		return entities.Listing{}, r.logError("market_repo_get_listing_failed", err,
			"listing_id", strings.TrimSpace(listingID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) SaveListing(ctx context.Context, listing entities.Listing) error {
	row := listingModelFromEntity(listing)
	update := r.db.WithContext(ctx).Model(&listingModel{}).
		Where("id = ?", row.ID).
		Updates(map[string]any{
			"remaining_quantity": row.RemainingQuantity,
			"price_per_unit":     row.PricePerUnit,
			"status":             row.Status,
			"updated_at":         row.UpdatedAt,
		})
	if update.Error != nil {
		return r.logError("market_repo_save_listing_failed", update.Error,
			"listing_id", row.ID,
		)
	}
	if update.RowsAffected == 0 {
		return domainerrors.ErrListingNotFound
	}
	return nil
}

func (r *Repository) ListActiveByClaim(ctx context.Context, claimID string) ([]entities.Listing, error) {
	// Served by the (claim_id, status) index.
	var rows []listingModel
	if err := r.db.WithContext(ctx).
		Where("claim_id = ? AND status = ?", strings.TrimSpace(claimID), string(entities.ListingActive)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("market_repo_list_active_failed", err,
			"claim_id", strings.TrimSpace(claimID),
		)
	}
	return toListingEntities(rows), nil
}

func (r *Repository) ListActiveExpiredBefore(ctx context.Context, cutoff time.Time, limit int) ([]entities.Listing, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []listingModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", string(entities.ListingActive), cutoff.UTC()).
		Order("expires_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("market_repo_list_expired_failed", err)
	}
	return toListingEntities(rows), nil
}

func (r *Repository) CreateMarketSale(ctx context.Context, sale entities.MarketSale) error {
	row := saleModelFromEntity(sale)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("market_repo_create_sale_failed", err,
			"sale_id", row.ID,
			"listing_id", row.ListingID,
		)
	}
	return nil
}

func (r *Repository) ListSalesByListing(ctx context.Context, listingID string) ([]entities.MarketSale, error) {
	var rows []saleModel
	if err := r.db.WithContext(ctx).
		Where("listing_id = ?", strings.TrimSpace(listingID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("market_repo_list_sales_failed", err,
			"listing_id", strings.TrimSpace(listingID),
		)
	}
	items := make([]entities.MarketSale, 0, len(rows))
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
		return r.logError("market_repo_append_outbox_failed", create.Error,
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
		return nil, r.logError("market_repo_list_pending_outbox_failed", err)
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
		return r.logError("market_repo_mark_outbox_published_failed", update.Error,
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
		"module", "finance-core/settlement-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("settlement repository operation failed", fields...)
	return err
}

type listingModel struct {
	ID                string    `gorm:"column:id;primaryKey"`
	BatchID           string    `gorm:"column:batch_id"`
	ClaimID           string    `gorm:"column:claim_id;index:idx_listings_claim_status"`
	Seller            string    `gorm:"column:seller"`
	Quantity          float64   `gorm:"column:quantity"`
	RemainingQuantity float64   `gorm:"column:remaining_quantity"`
	PricePerUnit      int64     `gorm:"column:price_per_unit"`
	Status            string    `gorm:"column:status;index:idx_listings_claim_status"`
	ExpiresAt         time.Time `gorm:"column:expires_at"`
	CreatedAt         time.Time `gorm:"column:created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
}

func (listingModel) TableName() string {
	return "market_listings"
}

func listingModelFromEntity(listing entities.Listing) listingModel {
	return listingModel{
		ID:                strings.TrimSpace(listing.ListingID),
		BatchID:           strings.TrimSpace(listing.BatchID),
		ClaimID:           strings.TrimSpace(listing.ClaimID),
		Seller:            strings.TrimSpace(listing.Seller),
		Quantity:          listing.Quantity,
		RemainingQuantity: listing.RemainingQuantity,
		PricePerUnit:      listing.PricePerUnit,
		Status:            string(listing.Status),
		ExpiresAt:         listing.ExpiresAt.UTC(),
		CreatedAt:         listing.CreatedAt.UTC(),
		UpdatedAt:         listing.UpdatedAt.UTC(),
	}
}

func (m listingModel) toEntity() entities.Listing {
	return entities.Listing{
		ListingID:         m.ID,
		BatchID:           m.BatchID,
		ClaimID:           m.ClaimID,
		Seller:            m.Seller,
		Quantity:          m.Quantity,
		RemainingQuantity: m.RemainingQuantity,
		PricePerUnit:      m.PricePerUnit,
		Status:            entities.ListingStatus(m.Status),
		ExpiresAt:         m.ExpiresAt,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func toListingEntities(rows []listingModel) []entities.Listing {
	items := make([]entities.Listing, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

type saleModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	ListingID  string    `gorm:"column:listing_id"`
	BatchID    string    `gorm:"column:batch_id"`
	ClaimID    string    `gorm:"column:claim_id"`
	Buyer      string    `gorm:"column:buyer"`
	Seller     string    `gorm:"column:seller"`
	Quantity   float64   `gorm:"column:quantity"`
	TotalPrice int64     `gorm:"column:total_price"`
	Fee        int64     `gorm:"column:fee"`
	NetAmount  int64     `gorm:"column:net_amount"`
	Refund     int64     `gorm:"column:refund"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (saleModel) TableName() string {
	return "market_sales"
}

func saleModelFromEntity(sale entities.MarketSale) saleModel {
	return saleModel{
		ID:         strings.TrimSpace(sale.SaleID),
		ListingID:  strings.TrimSpace(sale.ListingID),
		BatchID:    strings.TrimSpace(sale.BatchID),
		ClaimID:    strings.TrimSpace(sale.ClaimID),
		Buyer:      strings.TrimSpace(sale.Buyer),
		Seller:     strings.TrimSpace(sale.Seller),
		Quantity:   sale.Quantity,
		TotalPrice: sale.TotalPrice,
		Fee:        sale.Fee,
		NetAmount:  sale.NetAmount,
		Refund:     sale.Refund,
		CreatedAt:  sale.CreatedAt.UTC(),
	}
}

func (m saleModel) toEntity() entities.MarketSale {
	return entities.MarketSale{
		SaleID:     m.ID,
		ListingID:  m.ListingID,
		BatchID:    m.BatchID,
		ClaimID:    m.ClaimID,
		Buyer:      m.Buyer,
		Seller:     m.Seller,
		Quantity:   m.Quantity,
		TotalPrice: m.TotalPrice,
		Fee:        m.Fee,
		NetAmount:  m.NetAmount,
		Refund:     m.Refund,
		CreatedAt:  m.CreatedAt,
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
	return "market_outbox"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.ListingRepository = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
