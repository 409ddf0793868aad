package application

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"strings"
	"time"

	"bluecarbon/contexts/finance-core/settlement-service/domain/entities"
	domainerrors "bluecarbon/contexts/finance-core/settlement-service/domain/errors"
	"bluecarbon/contexts/finance-core/settlement-service/ports"
)

// MaxFeeBasisPoints caps the marketplace fee at 10% regardless of config.
const MaxFeeBasisPoints = 1000

// Service is the marketplace write model. A sale touches three services: the
// ledger moves the credits, the distributor moves the money, and this service
// owns the listing state between them. Every precondition is checked before
// the first side effect, and the credit transfer is compensated if the money
// leg fails, so a partially executed sale is not observable.
type Service struct {
	Listings    ports.ListingRepository
	Credits     ports.CreditMover
	Distributor ports.ProceedsDistributor
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	IDGen       ports.IDGenerator

	// FeeBasisPoints and PlatformAccount come from platform config.
	FeeBasisPoints  int64
	PlatformAccount string

	Logger *slog.Logger
}

type CreateListingInput struct {
	BatchID      string
	Quantity     float64
	PricePerUnit int64
	ExpiresAt    time.Time
	Seller       string
}

type ExecuteSaleInput struct {
	ListingID string
	Quantity  float64
	Payment   int64
	Buyer     string
}

// SaleResult reports the executed sale including the refund the buyer is
// owed for any overpayment. The core holds no buyer funds, so the refund is
// returned to the caller rather than accrued.
type SaleResult struct {
	Sale    entities.MarketSale
	Listing entities.Listing
}

// CreateListing offers credits for sale. The seller must own the batch, hold
// enough balance, and the quantity must fit the batch's unretired remainder.
func (s Service) CreateListing(ctx context.Context, input CreateListingInput) (entities.Listing, error) {
	seller := strings.TrimSpace(input.Seller)
	batchID := strings.TrimSpace(input.BatchID)
	if seller == "" {
		return entities.Listing{}, domainerrors.ErrInvalidParty
	}
	if batchID == "" {
		return entities.Listing{}, domainerrors.ErrNotFound
	}
	if input.Quantity <= 0 {
		return entities.Listing{}, domainerrors.ErrInvalidQuantity
	}
	if input.PricePerUnit <= 0 {
		return entities.Listing{}, domainerrors.ErrInvalidPrice
	}
	now := s.now()
	if !input.ExpiresAt.After(now) || input.ExpiresAt.After(now.Add(entities.MaxListingLifetime)) {
		return entities.Listing{}, domainerrors.ErrInvalidExpiry
	}

	claimID, owner, remainder, err := s.Credits.BatchRemainder(ctx, batchID)
	if err != nil {
		return entities.Listing{}, err
	}
	if !strings.EqualFold(owner, seller) {
		return entities.Listing{}, domainerrors.ErrNotSeller
	}
	if input.Quantity > remainder {
		return entities.Listing{}, domainerrors.ErrQuantityExceeds
	}
	balance, err := s.Credits.OwnerBalance(ctx, seller)
	if err != nil {
		return entities.Listing{}, err
	}
	if input.Quantity > balance {
		return entities.Listing{}, domainerrors.ErrInsufficientCredits
	}

	listingID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Listing{}, err
	}
	listing := entities.Listing{
		ListingID:         strings.TrimSpace(listingID),
		BatchID:           batchID,
		ClaimID:           claimID,
		Seller:            seller,
		Quantity:          input.Quantity,
		RemainingQuantity: input.Quantity,
		PricePerUnit:      input.PricePerUnit,
		Status:            entities.ListingActive,
		ExpiresAt:         input.ExpiresAt.UTC(),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.Listings.CreateListing(ctx, listing); err != nil {
		return entities.Listing{}, err
	}
	if err := s.appendMarketEvent(ctx, "market.listing_created", claimID, map[string]any{
		"listing_id":     listing.ListingID,
		"batch_id":       batchID,
		"claim_id":       claimID,
		"seller":         seller,
		"quantity":       listing.Quantity,
		"price_per_unit": listing.PricePerUnit,
		"expires_at":     listing.ExpiresAt.Format(time.RFC3339),
	}); err != nil {
		return entities.Listing{}, err
	}

	resolveLogger(s.Logger).Info("listing created",
		"event", "market_listing_created",
		"module", "finance-core/settlement-service",
		"layer", "application",
		"listing_id", listing.ListingID,
		"batch_id", batchID,
		"quantity", listing.Quantity,
	)
	return listing, nil
}

// ExecuteSale runs the whole sale: credits move seller to buyer, the listing
// remainder shrinks, the fee is carved out, and the post-fee amount is
// settled across the claim's payout split.
func (s Service) ExecuteSale(ctx context.Context, input ExecuteSaleInput) (SaleResult, error) {
	logger := resolveLogger(s.Logger)
	buyer := strings.TrimSpace(input.Buyer)
	if buyer == "" {
		return SaleResult{}, domainerrors.ErrInvalidParty
	}
	if input.Quantity <= 0 {
		return SaleResult{}, domainerrors.ErrInvalidQuantity
	}

	listing, err := s.loadWithExpiry(ctx, input.ListingID)
	if err != nil {
		return SaleResult{}, err
	}
	if listing.Status != entities.ListingActive {
		return SaleResult{}, domainerrors.ErrListingInactive
	}
	if input.Quantity > listing.RemainingQuantity {
		return SaleResult{}, domainerrors.ErrQuantityExceeds
	}
	if strings.EqualFold(buyer, listing.Seller) {
		return SaleResult{}, domainerrors.ErrSelfPurchase
	}
	totalPrice := priceFor(input.Quantity, listing.PricePerUnit)
	if input.Payment < totalPrice {
		return SaleResult{}, domainerrors.ErrInsufficientPayment
	}
	// The money leg requires a configured split; check before any effect.
	hasSplit, err := s.Distributor.HasSplit(ctx, listing.ClaimID)
	if err != nil {
		return SaleResult{}, err
	}
	if !hasSplit {
		return SaleResult{}, domainerrors.ErrSplitNotConfigured
	}

	if err := s.Credits.Transfer(ctx, listing.Seller, buyer, input.Quantity); err != nil {
		return SaleResult{}, err
	}

	now := s.now()
	listing.RemainingQuantity = round4(listing.RemainingQuantity - input.Quantity)
	if listing.RemainingQuantity <= 0 {
		listing.RemainingQuantity = 0
		listing.Status = entities.ListingSoldOut
	}
	listing.UpdatedAt = now
	if err := s.Listings.SaveListing(ctx, listing); err != nil {
		s.compensateTransfer(ctx, buyer, listing.Seller, input.Quantity)
		return SaleResult{}, err
	}

	fee := totalPrice * s.feeBasisPoints() / 10000
	net := totalPrice - fee
	saleID, err := s.Distributor.Settle(ctx, ports.SettleInput{
		ClaimID:   listing.ClaimID,
		BatchID:   listing.BatchID,
		Quantity:  input.Quantity,
		NetAmount: net,
		Buyer:     buyer,
		Seller:    listing.Seller,
	})
	if err != nil {
		s.compensateTransfer(ctx, buyer, listing.Seller, input.Quantity)
		s.compensateListing(ctx, listing, input.Quantity)
		return SaleResult{}, err
	}
	if fee > 0 {
		if err := s.Distributor.AccrueFee(ctx, s.PlatformAccount, fee, saleID); err != nil {
			logger.Error("platform fee accrual failed after settlement",
				"event", "market_fee_accrual_failed",
				"module", "finance-core/settlement-service",
				"layer", "application",
				"sale_id", saleID,
				"fee", fee,
				"error", err.Error(),
			)
			return SaleResult{}, err
		}
	}

	sale := entities.MarketSale{
		SaleID:     saleID,
		ListingID:  listing.ListingID,
		BatchID:    listing.BatchID,
		ClaimID:    listing.ClaimID,
		Buyer:      buyer,
		Seller:     listing.Seller,
		Quantity:   input.Quantity,
		TotalPrice: totalPrice,
		Fee:        fee,
		NetAmount:  net,
		Refund:     input.Payment - totalPrice,
		CreatedAt:  now,
	}
	if err := s.Listings.CreateMarketSale(ctx, sale); err != nil {
		return SaleResult{}, err
	}
	if err := s.appendMarketEvent(ctx, "market.sale_executed", listing.ClaimID, map[string]any{
		"sale_id":     saleID,
		"listing_id":  listing.ListingID,
		"batch_id":    listing.BatchID,
		"claim_id":    listing.ClaimID,
		"buyer":       buyer,
		"seller":      listing.Seller,
		"quantity":    sale.Quantity,
		"total_price": sale.TotalPrice,
		"fee":         sale.Fee,
		"executed_at": now.UTC().Format(time.RFC3339),
	}); err != nil {
		return SaleResult{}, err
	}

	logger.Info("sale executed",
		"event", "market_sale_executed",
		"module", "finance-core/settlement-service",
		"layer", "application",
		"sale_id", saleID,
		"listing_id", listing.ListingID,
		"quantity", sale.Quantity,
		"total_price", sale.TotalPrice,
		"fee", sale.Fee,
		"refund", sale.Refund,
	)
	return SaleResult{Sale: sale, Listing: listing}, nil
}

// UpdateListingPrice changes the unit price of an active listing. Seller only.
func (s Service) UpdateListingPrice(ctx context.Context, listingID string, caller string, pricePerUnit int64) (entities.Listing, error) {
	if pricePerUnit <= 0 {
		return entities.Listing{}, domainerrors.ErrInvalidPrice
	}
	listing, err := s.loadWithExpiry(ctx, listingID)
	if err != nil {
		return entities.Listing{}, err
	}
	if !strings.EqualFold(strings.TrimSpace(caller), listing.Seller) {
		return entities.Listing{}, domainerrors.ErrNotSeller
	}
	if listing.Status != entities.ListingActive {
		return entities.Listing{}, domainerrors.ErrListingInactive
	}
	listing.PricePerUnit = pricePerUnit
	listing.UpdatedAt = s.now()
	if err := s.Listings.SaveListing(ctx, listing); err != nil {
		return entities.Listing{}, err
	}
	return listing, nil
}

// CancelListing terminates an active listing. Seller only; terminal.
func (s Service) CancelListing(ctx context.Context, listingID string, caller string) (entities.Listing, error) {
	listing, err := s.loadWithExpiry(ctx, listingID)
	if err != nil {
		return entities.Listing{}, err
	}
	if !strings.EqualFold(strings.TrimSpace(caller), listing.Seller) {
		return entities.Listing{}, domainerrors.ErrNotSeller
	}
	if listing.Status != entities.ListingActive {
		return entities.Listing{}, domainerrors.ErrListingInactive
	}
	now := s.now()
	listing.Status = entities.ListingCancelled
	listing.UpdatedAt = now
	if err := s.Listings.SaveListing(ctx, listing); err != nil {
		return entities.Listing{}, err
	}
	if err := s.appendMarketEvent(ctx, "market.listing_cancelled", listing.ClaimID, map[string]any{
		"listing_id":   listing.ListingID,
		"seller":       listing.Seller,
		"cancelled_at": now.UTC().Format(time.RFC3339),
	}); err != nil {
		return entities.Listing{}, err
	}

	resolveLogger(s.Logger).Info("listing cancelled",
		"event", "market_listing_cancelled",
		"module", "finance-core/settlement-service",
		"layer", "application",
		"listing_id", listing.ListingID,
	)
	return listing, nil
}

// ExpireListing flips one overdue active listing to expired. Used by the
// sweeper; lazy access-time expiry handles reads in between sweeps.
func (s Service) ExpireListing(ctx context.Context, listingID string) (entities.Listing, error) {
	listing, err := s.Listings.GetListing(ctx, listingID)
	if err != nil {
		return entities.Listing{}, err
	}
	now := s.now()
	if listing.Status != entities.ListingActive || !listing.ExpiredAt(now) {
		return listing, nil
	}
	return s.markExpired(ctx, listing, now)
}

func (s Service) GetListing(ctx context.Context, listingID string) (entities.Listing, error) {
	return s.loadWithExpiry(ctx, listingID)
}

func (s Service) ListActiveByClaim(ctx context.Context, claimID string) ([]entities.Listing, error) {
	claimID = strings.TrimSpace(claimID)
	if claimID == "" {
		return nil, domainerrors.ErrNotFound
	}
	listings, err := s.Listings.ListActiveByClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	active := make([]entities.Listing, 0, len(listings))
	for _, listing := range listings {
		if listing.ExpiredAt(now) {
			continue
		}
		active = append(active, listing)
	}
	return active, nil
}

func (s Service) ListSalesByListing(ctx context.Context, listingID string) ([]entities.MarketSale, error) {
	listingID = strings.TrimSpace(listingID)
	if listingID == "" {
		return nil, domainerrors.ErrListingNotFound
	}
	if _, err := s.Listings.GetListing(ctx, listingID); err != nil {
		return nil, err
	}
	return s.Listings.ListSalesByListing(ctx, listingID)
}

// ListExpirable exposes overdue active listings to the expiry worker.
func (s Service) ListExpirable(ctx context.Context, limit int) ([]entities.Listing, error) {
	return s.Listings.ListActiveExpiredBefore(ctx, s.now(), limit)
}

// loadWithExpiry fetches a listing and applies lazy expiry before any caller
// sees it.
func (s Service) loadWithExpiry(ctx context.Context, listingID string) (entities.Listing, error) {
	listingID = strings.TrimSpace(listingID)
	if listingID == "" {
		return entities.Listing{}, domainerrors.ErrListingNotFound
	}
	listing, err := s.Listings.GetListing(ctx, listingID)
	if err != nil {
		return entities.Listing{}, err
	}
	now := s.now()
	if listing.Status == entities.ListingActive && listing.ExpiredAt(now) {
		return s.markExpired(ctx, listing, now)
	}
	return listing, nil
}

func (s Service) markExpired(ctx context.Context, listing entities.Listing, now time.Time) (entities.Listing, error) {
	listing.Status = entities.ListingExpired
	listing.UpdatedAt = now
	if err := s.Listings.SaveListing(ctx, listing); err != nil {
		return entities.Listing{}, err
	}
	if err := s.appendMarketEvent(ctx, "market.listing_expired", listing.ClaimID, map[string]any{
		"listing_id": listing.ListingID,
		"expired_at": now.UTC().Format(time.RFC3339),
	}); err != nil {
		return entities.Listing{}, err
	}
	resolveLogger(s.Logger).Info("listing expired",
		"event", "market_listing_expired",
		"module", "finance-core/settlement-service",
		"layer", "application",
		"listing_id", listing.ListingID,
	)
	return listing, nil
}

// compensateTransfer returns credits to the seller after a failed money leg.
// A failure here leaves the unwind to operator intervention, so it is logged
// loudly rather than swallowed.
func (s Service) compensateTransfer(ctx context.Context, from string, to string, quantity float64) {
	if err := s.Credits.Transfer(ctx, from, to, quantity); err != nil {
		resolveLogger(s.Logger).Error("sale unwind transfer failed",
			"event", "market_sale_unwind_failed",
			"module", "finance-core/settlement-service",
			"layer", "application",
			"from", from,
			"to", to,
			"quantity", quantity,
			"error", err.Error(),
		)
	}
}

func (s Service) compensateListing(ctx context.Context, listing entities.Listing, quantity float64) {
	listing.RemainingQuantity = round4(listing.RemainingQuantity + quantity)
	listing.Status = entities.ListingActive
	listing.UpdatedAt = s.now()
	if err := s.Listings.SaveListing(ctx, listing); err != nil {
		resolveLogger(s.Logger).Error("sale unwind listing restore failed",
			"event", "market_listing_unwind_failed",
			"module", "finance-core/settlement-service",
			"layer", "application",
			"listing_id", listing.ListingID,
			"error", err.Error(),
		)
	}
}

func (s Service) feeBasisPoints() int64 {
	fee := s.FeeBasisPoints
	if fee < 0 {
		fee = 0
	}
	if fee > MaxFeeBasisPoints {
		fee = MaxFeeBasisPoints
	}
	return fee
}

func (s Service) appendMarketEvent(ctx context.Context, eventType string, partitionKey string, payload map[string]any) error {
	if s.Outbox == nil {
		return nil
	}
	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          strings.TrimSpace(eventID),
		EventType:        eventType,
		OccurredAt:       s.now(),
		SourceService:    "settlement-service",
		TraceID:          strings.TrimSpace(eventID),
		SchemaVersion:    1,
		PartitionKeyPath: "claim_id",
		PartitionKey:     partitionKey,
		Data:             data,
	})
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

// priceFor converts a fractional credit quantity at an integer unit price to
// minor units, rounding to the nearest unit.
func priceFor(quantity float64, pricePerUnit int64) int64 {
	return int64(math.Round(quantity * float64(pricePerUnit)))
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
