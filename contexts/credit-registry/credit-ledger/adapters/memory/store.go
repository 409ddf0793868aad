package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"bluecarbon/contexts/credit-registry/credit-ledger/domain/entities"
	domainerrors "bluecarbon/contexts/credit-registry/credit-ledger/domain/errors"
	"bluecarbon/contexts/credit-registry/credit-ledger/ports"

	"github.com/google/uuid"
)

// Store keeps the full ledger behind one mutex, which gives every repository
// operation the single-writer atomicity the ledger invariants rely on.
type Store struct {
	mu sync.Mutex

	batches     map[string]entities.CreditBatch
	retirements []entities.Retirement
	balances    map[string]entities.Balance
	stats       entities.GlobalStats
	outbox      map[string]outboxRecord
}

type outboxRecord struct {
	Message     ports.OutboxMessage
	Status      string
	PublishedAt *time.Time
}

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

func NewStore() *Store {
	return &Store{
		batches:  make(map[string]entities.CreditBatch),
		balances: make(map[string]entities.Balance),
		outbox:   make(map[string]outboxRecord),
	}
}

func (s *Store) CreateBatchAndCredit(_ context.Context, batch entities.CreditBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(batch.BatchID)
	if id == "" || batch.Quantity <= 0 {
		return domainerrors.ErrInvalidQuantity
	}
	if _, exists := s.batches[id]; exists {
		return domainerrors.ErrConflict
	}

	s.batches[id] = batch
	s.creditBalance(batch.Owner, batch.Quantity, batch.CreatedAt)
	s.stats.Issued = round4(s.stats.Issued + batch.Quantity)
	return nil
}

func (s *Store) GetBatch(_ context.Context, batchID string) (entities.CreditBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch, ok := s.batches[strings.TrimSpace(batchID)]
	if !ok {
		return entities.CreditBatch{}, domainerrors.ErrBatchNotFound
	}
	return batch, nil
}

func (s *Store) ListBatchesByClaim(_ context.Context, claimID string) ([]entities.CreditBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]entities.CreditBatch, 0)
	for _, batch := range s.batches {
		if batch.ClaimID == strings.TrimSpace(claimID) {
			items = append(items, batch)
		}
	}
	sortBatches(items)
	return items, nil
}

func (s *Store) ListBatchesByOwner(_ context.Context, owner string) ([]entities.CreditBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]entities.CreditBatch, 0)
	for _, batch := range s.batches {
		if strings.EqualFold(batch.Owner, strings.TrimSpace(owner)) {
			items = append(items, batch)
		}
	}
	sortBatches(items)
	return items, nil
}

func (s *Store) ApplyRetirement(_ context.Context, retirement entities.Retirement) (entities.CreditBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch, ok := s.batches[strings.TrimSpace(retirement.BatchID)]
	if !ok {
		return entities.CreditBatch{}, domainerrors.ErrBatchNotFound
	}
	if batch.Retired {
		return entities.CreditBatch{}, domainerrors.ErrBatchFullyRetired
	}
	if retirement.Quantity > batch.RemainingQuantity() {
		return entities.CreditBatch{}, domainerrors.ErrRetirementExceeds
	}
	balance := s.balances[balanceKey(retirement.Retiree)]
	if retirement.Quantity > balance.Quantity {
		return entities.CreditBatch{}, domainerrors.ErrInsufficientBalance
	}

	balance.Identity = strings.TrimSpace(retirement.Retiree)
	balance.Quantity = round4(balance.Quantity - retirement.Quantity)
	balance.UpdatedAt = retirement.CreatedAt
	s.balances[balanceKey(retirement.Retiree)] = balance

	batch.RetiredQuantity = round4(batch.RetiredQuantity + retirement.Quantity)
	if batch.RetiredQuantity >= batch.Quantity {
		batch.Retired = true
	}
	s.batches[batch.BatchID] = batch

	s.retirements = append(s.retirements, retirement)
	s.stats.Retired = round4(s.stats.Retired + retirement.Quantity)
	return batch, nil
}

func (s *Store) ListRetirementsByBatch(_ context.Context, batchID string) ([]entities.Retirement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]entities.Retirement, 0)
	for _, retirement := range s.retirements {
		if retirement.BatchID == strings.TrimSpace(batchID) {
			items = append(items, retirement)
		}
	}
	return items, nil
}

func (s *Store) TransferBalance(_ context.Context, from string, to string, quantity float64, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	source := s.balances[balanceKey(from)]
	if quantity > source.Quantity {
		return domainerrors.ErrInsufficientBalance
	}

	source.Identity = strings.TrimSpace(from)
	source.Quantity = round4(source.Quantity - quantity)
	source.UpdatedAt = now
	s.balances[balanceKey(from)] = source

	s.creditBalance(to, quantity, now)
	return nil
}

func (s *Store) GetBalance(_ context.Context, identity string) (entities.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance, ok := s.balances[balanceKey(identity)]
	if !ok {
		return entities.Balance{Identity: strings.TrimSpace(identity)}, nil
	}
	return balance, nil
}

func (s *Store) GetGlobalStats(_ context.Context) (entities.GlobalStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats, nil
}

func (s *Store) creditBalance(identity string, quantity float64, now time.Time) {
	balance := s.balances[balanceKey(identity)]
	balance.Identity = strings.TrimSpace(identity)
	balance.Quantity = round4(balance.Quantity + quantity)
	balance.UpdatedAt = now
	s.balances[balanceKey(identity)] = balance
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		return domainerrors.ErrConflict
	}
	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.Message.Payload, payload) {
			return domainerrors.ErrConflict
		}
		return nil
	}
	s.outbox[outboxID] = outboxRecord{
		Message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAt.UTC(),
		},
		Status: outboxStatusPending,
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0)
	for _, row := range s.outbox {
		if row.Status == outboxStatusPending {
			items = append(items, row.Message)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrNotFound
	}
	ts := publishedAt.UTC()
	row.Status = outboxStatusPublished
	row.PublishedAt = &ts
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func sortBatches(items []entities.CreditBatch) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].BatchID < items[j].BatchID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
}

func balanceKey(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
