package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"bluecarbon/contexts/verification-core/consensus-verifier/domain/entities"
	domainerrors "bluecarbon/contexts/verification-core/consensus-verifier/domain/errors"
	"bluecarbon/contexts/verification-core/consensus-verifier/ports"

	"github.com/google/uuid"
)

// Store serializes all verification state behind one mutex, which is what
// gives decide/finalize its single-writer-per-claim discipline in memory.
type Store struct {
	mu sync.Mutex

	submissions map[string]entities.EvidenceSubmission
	consensuses map[string]entities.ClaimConsensus
	claims      map[string]entities.ClaimRequirements
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
		submissions: make(map[string]entities.EvidenceSubmission),
		consensuses: make(map[string]entities.ClaimConsensus),
		claims:      make(map[string]entities.ClaimRequirements),
		outbox:      make(map[string]outboxRecord),
	}
}

func (s *Store) CreateSubmission(_ context.Context, submission entities.EvidenceSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(submission.SubmissionID)
	if id == "" {
		return domainerrors.ErrConflict
	}
	if _, exists := s.submissions[id]; exists {
		return domainerrors.ErrConflict
	}
	s.submissions[id] = submission
	return nil
}

func (s *Store) GetSubmission(_ context.Context, submissionID string) (entities.EvidenceSubmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	submission, ok := s.submissions[strings.TrimSpace(submissionID)]
	if !ok {
		return entities.EvidenceSubmission{}, domainerrors.ErrSubmissionNotFound
	}
	return submission, nil
}

func (s *Store) SaveSubmission(_ context.Context, submission entities.EvidenceSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(submission.SubmissionID)
	if _, exists := s.submissions[id]; !exists {
		return domainerrors.ErrSubmissionNotFound
	}
	s.submissions[id] = submission
	return nil
}

func (s *Store) ListSubmissionsByClaim(_ context.Context, claimID string) ([]entities.EvidenceSubmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]entities.EvidenceSubmission, 0)
	for _, submission := range s.submissions {
		if submission.ClaimID == strings.TrimSpace(claimID) {
			items = append(items, submission)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].SubmittedAt.Equal(items[j].SubmittedAt) {
			return items[i].SubmissionID < items[j].SubmissionID
		}
		return items[i].SubmittedAt.Before(items[j].SubmittedAt)
	})
	return items, nil
}

func (s *Store) CountSubmissionsByClaim(_ context.Context, claimID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, submission := range s.submissions {
		if submission.ClaimID == strings.TrimSpace(claimID) {
			count++
		}
	}
	return count, nil
}

func (s *Store) GetConsensus(_ context.Context, claimID string) (entities.ClaimConsensus, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	consensus, ok := s.consensuses[strings.TrimSpace(claimID)]
	return consensus, ok, nil
}

func (s *Store) SaveConsensus(_ context.Context, consensus entities.ClaimConsensus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(consensus.ClaimID)
	if id == "" {
		return domainerrors.ErrConflict
	}
	if existing, ok := s.consensuses[id]; ok {
		// Finalization state is owned by FinalizeConsensus/ReopenConsensus.
		consensus.Finalized = existing.Finalized
		consensus.IssuedQuantity = existing.IssuedQuantity
		consensus.BatchID = existing.BatchID
		consensus.FinalizedAt = existing.FinalizedAt
	}
	s.consensuses[id] = consensus
	return nil
}

func (s *Store) FinalizeConsensus(_ context.Context, claimID string, issuedQuantity float64, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(claimID)
	consensus, ok := s.consensuses[id]
	if !ok {
		consensus = entities.ClaimConsensus{ClaimID: id}
	}
	if consensus.Finalized {
		return domainerrors.ErrAlreadyFinalized
	}
	ts := now.UTC()
	consensus.Finalized = true
	consensus.IssuedQuantity = issuedQuantity
	consensus.FinalizedAt = &ts
	consensus.UpdatedAt = ts
	s.consensuses[id] = consensus
	return nil
}

func (s *Store) AttachIssuedBatch(_ context.Context, claimID string, batchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(claimID)
	consensus, ok := s.consensuses[id]
	if !ok || !consensus.Finalized {
		return domainerrors.ErrNotFound
	}
	consensus.BatchID = strings.TrimSpace(batchID)
	s.consensuses[id] = consensus
	return nil
}

func (s *Store) ReopenConsensus(_ context.Context, claimID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(claimID)
	consensus, ok := s.consensuses[id]
	if !ok {
		return domainerrors.ErrNotFound
	}
	consensus.Finalized = false
	consensus.IssuedQuantity = 0
	consensus.BatchID = ""
	consensus.FinalizedAt = nil
	s.consensuses[id] = consensus
	return nil
}

func (s *Store) GetClaim(_ context.Context, claimID string) (entities.ClaimRequirements, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	requirements, ok := s.claims[strings.TrimSpace(claimID)]
	return requirements, ok, nil
}

func (s *Store) PutClaim(_ context.Context, requirements entities.ClaimRequirements) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(requirements.ClaimID)
	if id == "" {
		return domainerrors.ErrClaimNotFound
	}
	s.claims[id] = requirements
	return nil
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

var _ ports.SubmissionRepository = (*Store)(nil)
var _ ports.ClaimRegistry = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
