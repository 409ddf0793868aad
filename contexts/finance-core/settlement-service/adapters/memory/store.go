package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"bluecarbon/contexts/finance-core/settlement-service/domain/entities"
	domainerrors "bluecarbon/contexts/finance-core/settlement-service/domain/errors"
	"bluecarbon/contexts/finance-core/settlement-service/ports"

	"github.com/google/uuid"
)

// Store keeps listings and market sales behind one mutex, with a secondary
// index of active listings per claim so reads never scan historical volume.
type Store struct {
	mu sync.Mutex

	listings      map[string]entities.Listing
	activeByClaim map[string]map[string]struct{}
	sales         map[string]entities.MarketSale
	outbox        map[string]outboxRecord
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
		listings:      make(map[string]entities.Listing),
		activeByClaim: make(map[string]map[string]struct{}),
		sales:         make(map[string]entities.MarketSale),
		outbox:        make(map[string]outboxRecord),
	}
}

func (s *Store) CreateListing(_ context.Context, listing entities.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(listing.ListingID)
	if id == "" {
		return domainerrors.ErrConflict
	}
	if _, exists := s.listings[id]; exists {
		return domainerrors.ErrConflict
	}
	s.listings[id] = listing
	s.reindexLocked(listing)
	return nil
}

func (s *Store) GetListing(_ context.Context, listingID string) (entities.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	listing, ok := s.listings[strings.TrimSpace(listingID)]
	if !ok {
		return entities.Listing{}, domainerrors.ErrListingNotFound
	}
	return listing, nil
}

func (s *Store) SaveListing(_ context.Context, listing entities.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(listing.ListingID)
	if _, exists := s.listings[id]; !exists {
		return domainerrors.ErrListingNotFound
	}
	s.listings[id] = listing
	s.reindexLocked(listing)
	return nil
}

func (s *Store) ListActiveByClaim(_ context.Context, claimID string) ([]entities.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]entities.Listing, 0)
	for id := range s.activeByClaim[strings.TrimSpace(claimID)] {
		if listing, ok := s.listings[id]; ok {
			items = append(items, listing)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ListingID < items[j].ListingID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) ListActiveExpiredBefore(_ context.Context, cutoff time.Time, limit int) ([]entities.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]entities.Listing, 0)
	for _, listing := range s.listings {
		if listing.Status == entities.ListingActive && cutoff.After(listing.ExpiresAt) {
			items = append(items, listing)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ExpiresAt.Before(items[j].ExpiresAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) CreateMarketSale(_ context.Context, sale entities.MarketSale) error {
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
	return nil
}

func (s *Store) ListSalesByListing(_ context.Context, listingID string) ([]entities.MarketSale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]entities.MarketSale, 0)
	for _, sale := range s.sales {
		if sale.ListingID == strings.TrimSpace(listingID) {
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

func (s *Store) reindexLocked(listing entities.Listing) {
	claimID := strings.TrimSpace(listing.ClaimID)
	index, ok := s.activeByClaim[claimID]
	if !ok {
		index = make(map[string]struct{})
		s.activeByClaim[claimID] = index
	}
	if listing.Status == entities.ListingActive {
		index[listing.ListingID] = struct{}{}
	} else {
		delete(index, listing.ListingID)
	}
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

var _ ports.ListingRepository = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
