package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"bluecarbon/contexts/identity-access/access-policy-service/domain/entities"
	domainerrors "bluecarbon/contexts/identity-access/access-policy-service/domain/errors"
	"bluecarbon/contexts/identity-access/access-policy-service/ports"

	"github.com/google/uuid"
)

type Store struct {
	mu sync.RWMutex

	grants map[string]entities.RoleGrant
	outbox map[string]outboxRecord
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

// NewStore seeds the policy with initial grants, typically the bootstrap
// admin set. Seeded grants get synthetic ids when missing.
func NewStore(seed []entities.RoleGrant) *Store {
	s := &Store{
		grants: make(map[string]entities.RoleGrant),
		outbox: make(map[string]outboxRecord),
	}
	for _, grant := range seed {
		if strings.TrimSpace(grant.GrantID) == "" {
			grant.GrantID = uuid.NewString()
		}
		s.grants[grant.GrantID] = grant
	}
	return s
}

func (s *Store) SaveGrant(_ context.Context, grant entities.RoleGrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(grant.GrantID)
	if id == "" {
		return domainerrors.ErrInvalidIdentity
	}
	s.grants[id] = grant
	return nil
}

func (s *Store) GetActiveGrant(_ context.Context, identity string, role entities.Role) (entities.RoleGrant, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, grant := range s.grants {
		if grant.Revoked {
			continue
		}
		if strings.EqualFold(grant.Identity, strings.TrimSpace(identity)) && grant.Role == role {
			return grant, true, nil
		}
	}
	return entities.RoleGrant{}, false, nil
}

func (s *Store) ListGrantsByIdentity(_ context.Context, identity string) ([]entities.RoleGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.RoleGrant, 0)
	for _, grant := range s.grants {
		if strings.EqualFold(grant.Identity, strings.TrimSpace(identity)) {
			items = append(items, grant)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
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
		return domainerrors.ErrInvalidIdentity
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
	s.mu.RLock()
	defer s.mu.RUnlock()

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
