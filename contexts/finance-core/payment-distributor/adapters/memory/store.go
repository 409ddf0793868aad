package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"bluecarbon/contexts/finance-core/payment-distributor/domain/entities"
	domainerrors "bluecarbon/contexts/finance-core/payment-distributor/domain/errors"
	"bluecarbon/contexts/finance-core/payment-distributor/ports"

	"github.com/google/uuid"
)

// Store keeps all payout state behind one mutex so sale distribution and
// withdrawal zeroing stay indivisible.
type Store struct {
	mu sync.Mutex

	splits  map[string]entities.PayoutSplit
	sales   map[string]entities.SaleRecord
	pending map[string]entities.PendingWithdrawal
	outbox  map[string]outboxRecord
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
		splits:  make(map[string]entities.PayoutSplit),
		sales:   make(map[string]entities.SaleRecord),
		pending: make(map[string]entities.PendingWithdrawal),
		outbox:  make(map[string]outboxRecord),
	}
}

func (s *Store) SaveSplit(_ context.Context, split entities.PayoutSplit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(split.ClaimID)
	if id == "" {
		return domainerrors.ErrInvalidSplit
	}
	split.Allocations = append([]entities.Allocation(nil), split.Allocations...)
	s.splits[id] = split
	return nil
}

func (s *Store) GetSplit(_ context.Context, claimID string) (entities.PayoutSplit, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	split, ok := s.splits[strings.TrimSpace(claimID)]
	if !ok {
		return entities.PayoutSplit{}, false, nil
	}
	split.Allocations = append([]entities.Allocation(nil), split.Allocations...)
	return split, true, nil
}

func (s *Store) ApplySale(_ context.Context, sale entities.SaleRecord, credits []entities.ShareCredit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(sale.SaleID)
	if id == "" {
		return domainerrors.ErrConflict
	}
	if _, exists := s.sales[id]; exists {
		return domainerrors.ErrConflict
	}
	s.sales[id] = sale
	for _, credit := range credits {
		s.accrueLocked(credit.Beneficiary, credit.Amount, sale.CreatedAt)
	}
	return nil
}

func (s *Store) GetSale(_ context.Context, saleID string) (entities.SaleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, ok := s.sales[strings.TrimSpace(saleID)]
	if !ok {
		return entities.SaleRecord{}, domainerrors.ErrSaleNotFound
	}
	return sale, nil
}

func (s *Store) ListSalesByClaim(_ context.Context, claimID string) ([]entities.SaleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]entities.SaleRecord, 0)
	for _, sale := range s.sales {
		if sale.ClaimID == strings.TrimSpace(claimID) {
			items = append(items, sale)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].SaleID < items[j].SaleID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) GetPending(_ context.Context, identity string) (entities.PendingWithdrawal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, ok := s.pending[pendingKey(identity)]
	if !ok {
		return entities.PendingWithdrawal{Identity: strings.TrimSpace(identity)}, nil
	}
	return pending, nil
}

func (s *Store) WithdrawAll(_ context.Context, identity string, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pendingKey(identity)
	pending, ok := s.pending[key]
	if !ok || pending.Amount <= 0 {
		return 0, domainerrors.ErrNothingToWithdraw
	}
	amount := pending.Amount
	pending.Amount = 0
	pending.UpdatedAt = now.UTC()
	s.pending[key] = pending
	return amount, nil
}

func (s *Store) AccruePending(_ context.Context, identity string, amount int64, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(identity) == "" {
		return domainerrors.ErrInvalidBeneficiary
	}
	if amount <= 0 {
		return domainerrors.ErrInvalidAmount
	}
	s.accrueLocked(identity, amount, now)
	return nil
}

func (s *Store) accrueLocked(identity string, amount int64, now time.Time) {
	key := pendingKey(identity)
	pending, ok := s.pending[key]
	if !ok {
		pending = entities.PendingWithdrawal{Identity: strings.TrimSpace(identity)}
	}
	pending.Amount += amount
	pending.UpdatedAt = now.UTC()
	s.pending[key] = pending
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

func pendingKey(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}
