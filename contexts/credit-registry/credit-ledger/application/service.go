package application

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"strings"
	"time"

	"bluecarbon/contexts/credit-registry/credit-ledger/domain/entities"
	domainerrors "bluecarbon/contexts/credit-registry/credit-ledger/domain/errors"
	"bluecarbon/contexts/credit-registry/credit-ledger/ports"
)

// Service is the credit ledger write model. All mutations go through the
// repository's atomic operations; the service enforces input preconditions,
// assigns identifiers, and emits outbox events.
type Service struct {
	Repo   ports.Repository
	Outbox ports.OutboxWriter
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

type IssueBatchInput struct {
	ClaimID     string
	Quantity    float64
	Vintage     string
	Standard    string
	Beneficiary string
}

type RetireInput struct {
	BatchID  string
	Quantity float64
	Reason   string
	Caller   string
}

type TransferInput struct {
	From     string
	To       string
	Quantity float64
}

// IssueBatch mints a new batch for a finalized claim. It is called by the
// consensus verifier inside its finalization step and must stay atomic with
// it: any error here aborts finalization.
func (s Service) IssueBatch(ctx context.Context, input IssueBatchInput) (entities.CreditBatch, error) {
	claimID := strings.TrimSpace(input.ClaimID)
	beneficiary := strings.TrimSpace(input.Beneficiary)
	quantity := round4(input.Quantity)
	if claimID == "" {
		return entities.CreditBatch{}, domainerrors.ErrNotFound
	}
	if quantity <= 0 {
		return entities.CreditBatch{}, domainerrors.ErrInvalidQuantity
	}
	if beneficiary == "" {
		return entities.CreditBatch{}, domainerrors.ErrInvalidBeneficiary
	}

	batchID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.CreditBatch{}, err
	}
	batch := entities.CreditBatch{
		BatchID:   strings.TrimSpace(batchID),
		ClaimID:   claimID,
		Quantity:  quantity,
		Vintage:   strings.TrimSpace(input.Vintage),
		Standard:  strings.TrimSpace(input.Standard),
		Owner:     beneficiary,
		CreatedAt: s.now(),
	}
	if err := s.Repo.CreateBatchAndCredit(ctx, batch); err != nil {
		return entities.CreditBatch{}, err
	}
	if err := s.appendLedgerEvent(ctx, "credits.batch_issued", batch.ClaimID, map[string]any{
		"batch_id":    batch.BatchID,
		"claim_id":    batch.ClaimID,
		"quantity":    batch.Quantity,
		"vintage":     batch.Vintage,
		"standard":    batch.Standard,
		"beneficiary": batch.Owner,
		"issued_at":   batch.CreatedAt.UTC().Format(time.RFC3339),
	}); err != nil {
		return entities.CreditBatch{}, err
	}

	resolveLogger(s.Logger).Info("credit batch issued",
		"event", "ledger_batch_issued",
		"module", "credit-registry/credit-ledger",
		"layer", "application",
		"batch_id", batch.BatchID,
		"claim_id", batch.ClaimID,
		"quantity", batch.Quantity,
		"beneficiary", batch.Owner,
	)
	return batch, nil
}

// Retire permanently removes credits from circulation. The reason is
// mandatory; the repository enforces the balance and batch bounds.
func (s Service) Retire(ctx context.Context, input RetireInput) (entities.Retirement, error) {
	batchID := strings.TrimSpace(input.BatchID)
	caller := strings.TrimSpace(input.Caller)
	quantity := round4(input.Quantity)
	if batchID == "" {
		return entities.Retirement{}, domainerrors.ErrBatchNotFound
	}
	if quantity <= 0 {
		return entities.Retirement{}, domainerrors.ErrInvalidQuantity
	}
	if strings.TrimSpace(input.Reason) == "" {
		return entities.Retirement{}, domainerrors.ErrReasonRequired
	}
	if caller == "" {
		return entities.Retirement{}, domainerrors.ErrInvalidOwner
	}

	retirementID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Retirement{}, err
	}
	retirement := entities.Retirement{
		RetirementID: strings.TrimSpace(retirementID),
		BatchID:      batchID,
		Quantity:     quantity,
		Reason:       strings.TrimSpace(input.Reason),
		Retiree:      caller,
		CreatedAt:    s.now(),
	}
	batch, err := s.Repo.ApplyRetirement(ctx, retirement)
	if err != nil {
		return entities.Retirement{}, err
	}
	if err := s.appendLedgerEvent(ctx, "credits.retired", batchID, map[string]any{
		"retirement_id": retirement.RetirementID,
		"batch_id":      batchID,
		"quantity":      retirement.Quantity,
		"reason":        retirement.Reason,
		"retiree":       retirement.Retiree,
		"fully_retired": batch.Retired,
		"retired_at":    retirement.CreatedAt.UTC().Format(time.RFC3339),
	}); err != nil {
		return entities.Retirement{}, err
	}

	resolveLogger(s.Logger).Info("credits retired",
		"event", "ledger_credits_retired",
		"module", "credit-registry/credit-ledger",
		"layer", "application",
		"batch_id", batchID,
		"quantity", retirement.Quantity,
		"retiree", retirement.Retiree,
		"fully_retired", batch.Retired,
	)
	return retirement, nil
}

// Transfer moves credits between identities under balance conservation.
func (s Service) Transfer(ctx context.Context, input TransferInput) error {
	from := strings.TrimSpace(input.From)
	to := strings.TrimSpace(input.To)
	quantity := round4(input.Quantity)
	if from == "" || to == "" {
		return domainerrors.ErrInvalidOwner
	}
	if strings.EqualFold(from, to) {
		return domainerrors.ErrSelfTransfer
	}
	if quantity <= 0 {
		return domainerrors.ErrInvalidQuantity
	}

	now := s.now()
	if err := s.Repo.TransferBalance(ctx, from, to, quantity, now); err != nil {
		return err
	}
	if err := s.appendLedgerEvent(ctx, "credits.transferred", from, map[string]any{
		"from":           from,
		"to":             to,
		"quantity":       quantity,
		"transferred_at": now.UTC().Format(time.RFC3339),
	}); err != nil {
		return err
	}

	resolveLogger(s.Logger).Info("credits transferred",
		"event", "ledger_credits_transferred",
		"module", "credit-registry/credit-ledger",
		"layer", "application",
		"from", from,
		"to", to,
		"quantity", quantity,
	)
	return nil
}

func (s Service) GetBatch(ctx context.Context, batchID string) (entities.CreditBatch, error) {
	if strings.TrimSpace(batchID) == "" {
		return entities.CreditBatch{}, domainerrors.ErrBatchNotFound
	}
	return s.Repo.GetBatch(ctx, strings.TrimSpace(batchID))
}

func (s Service) ListBatchesByClaim(ctx context.Context, claimID string) ([]entities.CreditBatch, error) {
	if strings.TrimSpace(claimID) == "" {
		return nil, domainerrors.ErrNotFound
	}
	return s.Repo.ListBatchesByClaim(ctx, strings.TrimSpace(claimID))
}

func (s Service) ListBatchesByOwner(ctx context.Context, owner string) ([]entities.CreditBatch, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, domainerrors.ErrInvalidOwner
	}
	return s.Repo.ListBatchesByOwner(ctx, strings.TrimSpace(owner))
}

func (s Service) ListRetirements(ctx context.Context, batchID string) ([]entities.Retirement, error) {
	if strings.TrimSpace(batchID) == "" {
		return nil, domainerrors.ErrBatchNotFound
	}
	if _, err := s.Repo.GetBatch(ctx, strings.TrimSpace(batchID)); err != nil {
		return nil, err
	}
	return s.Repo.ListRetirementsByBatch(ctx, strings.TrimSpace(batchID))
}

func (s Service) GetBalance(ctx context.Context, identity string) (entities.Balance, error) {
	if strings.TrimSpace(identity) == "" {
		return entities.Balance{}, domainerrors.ErrInvalidOwner
	}
	return s.Repo.GetBalance(ctx, strings.TrimSpace(identity))
}

func (s Service) GlobalStats(ctx context.Context) (entities.GlobalStats, error) {
	return s.Repo.GetGlobalStats(ctx)
}

func (s Service) appendLedgerEvent(ctx context.Context, eventType string, partitionKey string, payload map[string]any) error {
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
		SourceService:    "credit-ledger",
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

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
