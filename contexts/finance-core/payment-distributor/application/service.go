package application

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"bluecarbon/contexts/finance-core/payment-distributor/domain/entities"
	domainerrors "bluecarbon/contexts/finance-core/payment-distributor/domain/errors"
	"bluecarbon/contexts/finance-core/payment-distributor/ports"
)

// Service is the payout write model. Distribution follows the pull-payment
// pattern: settlement only accrues pending amounts, and beneficiaries claim
// them with Withdraw, so one beneficiary's failure never blocks the rest.
type Service struct {
	Repo   ports.Repository
	Outbox ports.OutboxWriter
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

type ConfigureSplitInput struct {
	ClaimID             string
	Allocations         []entities.Allocation
	PlatformBeneficiary string
	PlatformBasisPoints int64
}

type SettleSaleInput struct {
	ClaimID    string
	BatchID    string
	Quantity   float64
	TotalPrice int64
	Buyer      string
	Seller     string
}

// ConfigureSplit wholesale-replaces the claim's payout configuration. The
// shares including the platform's must not exceed the whole sale.
func (s Service) ConfigureSplit(ctx context.Context, input ConfigureSplitInput) (entities.PayoutSplit, error) {
	claimID := strings.TrimSpace(input.ClaimID)
	if claimID == "" {
		return entities.PayoutSplit{}, domainerrors.ErrInvalidSplit
	}
	allocations := make([]entities.Allocation, 0, len(input.Allocations))
	for _, allocation := range input.Allocations {
		beneficiary := strings.TrimSpace(allocation.Beneficiary)
		if !allocation.Role.Valid() || beneficiary == "" || allocation.BasisPoints <= 0 {
			return entities.PayoutSplit{}, domainerrors.ErrInvalidSplit
		}
		allocations = append(allocations, entities.Allocation{
			Role:        allocation.Role,
			Beneficiary: beneficiary,
			BasisPoints: allocation.BasisPoints,
		})
	}
	platformBeneficiary := strings.TrimSpace(input.PlatformBeneficiary)
	if input.PlatformBasisPoints < 0 {
		return entities.PayoutSplit{}, domainerrors.ErrInvalidSplit
	}
	if platformBeneficiary == "" {
		// The remainder sink has to exist even with a zero platform share.
		return entities.PayoutSplit{}, domainerrors.ErrInvalidSplit
	}
	split := entities.PayoutSplit{
		ClaimID:             claimID,
		Allocations:         allocations,
		PlatformBeneficiary: platformBeneficiary,
		PlatformBasisPoints: input.PlatformBasisPoints,
		UpdatedAt:           s.now(),
	}
	if split.TotalBasisPoints() > entities.MaxBasisPoints {
		return entities.PayoutSplit{}, domainerrors.ErrSplitExceedsWhole
	}
	if err := s.Repo.SaveSplit(ctx, split); err != nil {
		return entities.PayoutSplit{}, err
	}

	resolveLogger(s.Logger).Info("payout split configured",
		"event", "payments_split_configured",
		"module", "finance-core/payment-distributor",
		"layer", "application",
		"claim_id", claimID,
		"allocations", len(allocations),
		"total_bp", split.TotalBasisPoints(),
	)
	return split, nil
}

// SettleSale records a sale and distributes its price across the configured
// split. Shares are floored to integer minor units; basis points not claimed
// by any allocation are the seller's proceeds, and the flooring dust goes to
// the platform beneficiary, so the credited amounts always sum to the full
// price and no money is dropped.
func (s Service) SettleSale(ctx context.Context, input SettleSaleInput) (entities.SaleRecord, error) {
	claimID := strings.TrimSpace(input.ClaimID)
	buyer := strings.TrimSpace(input.Buyer)
	seller := strings.TrimSpace(input.Seller)
	if claimID == "" {
		return entities.SaleRecord{}, domainerrors.ErrNotFound
	}
	if input.TotalPrice <= 0 {
		return entities.SaleRecord{}, domainerrors.ErrInvalidPrice
	}
	if input.Quantity <= 0 {
		return entities.SaleRecord{}, domainerrors.ErrInvalidQuantity
	}
	if buyer == "" || seller == "" {
		return entities.SaleRecord{}, domainerrors.ErrInvalidParty
	}

	split, found, err := s.Repo.GetSplit(ctx, claimID)
	if err != nil {
		return entities.SaleRecord{}, err
	}
	if !found || split.Empty() {
		return entities.SaleRecord{}, domainerrors.ErrSplitNotConfigured
	}

	saleID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.SaleRecord{}, err
	}
	sale := entities.SaleRecord{
		SaleID:      strings.TrimSpace(saleID),
		ClaimID:     claimID,
		BatchID:     strings.TrimSpace(input.BatchID),
		Quantity:    input.Quantity,
		TotalPrice:  input.TotalPrice,
		Buyer:       buyer,
		Seller:      seller,
		Distributed: true,
		CreatedAt:   s.now(),
	}
	credits := computeShares(split, seller, input.TotalPrice)
	if err := s.Repo.ApplySale(ctx, sale, credits); err != nil {
		return entities.SaleRecord{}, err
	}

	if err := s.appendPaymentEvent(ctx, "payments.sale_settled", claimID, map[string]any{
		"sale_id":     sale.SaleID,
		"claim_id":    claimID,
		"batch_id":    sale.BatchID,
		"quantity":    sale.Quantity,
		"total_price": sale.TotalPrice,
		"buyer":       buyer,
		"seller":      seller,
		"settled_at":  sale.CreatedAt.UTC().Format(time.RFC3339),
	}); err != nil {
		return entities.SaleRecord{}, err
	}

	resolveLogger(s.Logger).Info("sale settled",
		"event", "payments_sale_settled",
		"module", "finance-core/payment-distributor",
		"layer", "application",
		"sale_id", sale.SaleID,
		"claim_id", claimID,
		"total_price", sale.TotalPrice,
		"beneficiaries", len(credits),
	)
	return sale, nil
}

// Withdraw claims the caller's full pending amount and zeroes it. Partial
// withdrawal is not supported.
func (s Service) Withdraw(ctx context.Context, identity string) (int64, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return 0, domainerrors.ErrInvalidBeneficiary
	}
	now := s.now()
	amount, err := s.Repo.WithdrawAll(ctx, identity, now)
	if err != nil {
		return 0, err
	}
	if err := s.appendPaymentEvent(ctx, "payments.withdrawal_claimed", identity, map[string]any{
		"identity":     identity,
		"amount":       amount,
		"withdrawn_at": now.UTC().Format(time.RFC3339),
	}); err != nil {
		return 0, err
	}

	resolveLogger(s.Logger).Info("withdrawal claimed",
		"event", "payments_withdrawal_claimed",
		"module", "finance-core/payment-distributor",
		"layer", "application",
		"identity", identity,
		"amount", amount,
	)
	return amount, nil
}

// AccruePlatformFee credits a beneficiary's pending amount outside of sale
// distribution. Settlement uses it to route the marketplace fee through the
// same pull-payment ledger.
func (s Service) AccruePlatformFee(ctx context.Context, beneficiary string, amount int64, saleID string) error {
	beneficiary = strings.TrimSpace(beneficiary)
	if beneficiary == "" {
		return domainerrors.ErrInvalidBeneficiary
	}
	if amount <= 0 {
		return domainerrors.ErrInvalidAmount
	}
	if err := s.Repo.AccruePending(ctx, beneficiary, amount, s.now()); err != nil {
		return err
	}

	resolveLogger(s.Logger).Info("platform fee accrued",
		"event", "payments_fee_accrued",
		"module", "finance-core/payment-distributor",
		"layer", "application",
		"beneficiary", beneficiary,
		"amount", amount,
		"sale_id", strings.TrimSpace(saleID),
	)
	return nil
}

func (s Service) GetSplit(ctx context.Context, claimID string) (entities.PayoutSplit, error) {
	claimID = strings.TrimSpace(claimID)
	if claimID == "" {
		return entities.PayoutSplit{}, domainerrors.ErrNotFound
	}
	split, found, err := s.Repo.GetSplit(ctx, claimID)
	if err != nil {
		return entities.PayoutSplit{}, err
	}
	if !found {
		return entities.PayoutSplit{}, domainerrors.ErrSplitNotConfigured
	}
	return split, nil
}

func (s Service) GetSale(ctx context.Context, saleID string) (entities.SaleRecord, error) {
	if strings.TrimSpace(saleID) == "" {
		return entities.SaleRecord{}, domainerrors.ErrSaleNotFound
	}
	return s.Repo.GetSale(ctx, strings.TrimSpace(saleID))
}

func (s Service) ListSalesByClaim(ctx context.Context, claimID string) ([]entities.SaleRecord, error) {
	if strings.TrimSpace(claimID) == "" {
		return nil, domainerrors.ErrNotFound
	}
	return s.Repo.ListSalesByClaim(ctx, strings.TrimSpace(claimID))
}

func (s Service) GetPending(ctx context.Context, identity string) (entities.PendingWithdrawal, error) {
	if strings.TrimSpace(identity) == "" {
		return entities.PendingWithdrawal{}, domainerrors.ErrInvalidBeneficiary
	}
	return s.Repo.GetPending(ctx, strings.TrimSpace(identity))
}

// computeShares floors each beneficiary's share, credits the basis points no
// allocation claims to the seller, and routes the flooring dust to the
// platform beneficiary. Credits for the same identity are merged so the
// repository applies at most one increment per beneficiary.
func computeShares(split entities.PayoutSplit, seller string, totalPrice int64) []entities.ShareCredit {
	credits := make([]entities.ShareCredit, 0, len(split.Allocations)+2)
	allocated := int64(0)
	for _, allocation := range split.Allocations {
		share := totalPrice * allocation.BasisPoints / entities.MaxBasisPoints
		allocated += share
		if share > 0 {
			credits = append(credits, entities.ShareCredit{
				Beneficiary: allocation.Beneficiary,
				Role:        allocation.Role,
				Amount:      share,
			})
		}
	}
	sellerShare := totalPrice * (entities.MaxBasisPoints - split.TotalBasisPoints()) / entities.MaxBasisPoints
	allocated += sellerShare
	if sellerShare > 0 {
		credits = append(credits, entities.ShareCredit{
			Beneficiary: seller,
			Amount:      sellerShare,
		})
	}
	// Flooring dust plus the platform's own share.
	platformShare := totalPrice - allocated
	if platformShare > 0 {
		credits = append(credits, entities.ShareCredit{
			Beneficiary: split.PlatformBeneficiary,
			Amount:      platformShare,
		})
	}
	return mergeCredits(credits)
}

func mergeCredits(credits []entities.ShareCredit) []entities.ShareCredit {
	merged := make([]entities.ShareCredit, 0, len(credits))
	index := make(map[string]int, len(credits))
	for _, credit := range credits {
		key := strings.ToLower(credit.Beneficiary)
		if at, ok := index[key]; ok {
			merged[at].Amount += credit.Amount
			continue
		}
		index[key] = len(merged)
		merged = append(merged, credit)
	}
	return merged
}

func (s Service) appendPaymentEvent(ctx context.Context, eventType string, partitionKey string, payload map[string]any) error {
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
		SourceService:    "payment-distributor",
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

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
