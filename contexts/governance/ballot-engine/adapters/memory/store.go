package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"ballotbox/contexts/governance/ballot-engine/domain/entities"
	domainerrors "ballotbox/contexts/governance/ballot-engine/domain/errors"
	"ballotbox/contexts/governance/ballot-engine/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store is the in-memory adapter behind BallotRepository, OutboxWriter,
// OutboxRepository, Clock, and IDGenerator. One RWMutex is the
// mutual-exclusion boundary for all ballots it holds: UpdateBallot applies
// the whole read-check-write sequence under the write lock, and reads hand
// out clones so callers never observe a ballot mid-mutation.
type Store struct {
	mu      sync.RWMutex
	ballots map[string]entities.Ballot
	outbox  []outboxRecord
}

func NewStore(seed []entities.Ballot) *Store {
	ballots := make(map[string]entities.Ballot, len(seed))
	for _, ballot := range seed {
		ballots[ballot.BallotID] = ballot.Clone()
	}
	return &Store{ballots: ballots}
}

func (s *Store) CreateBallot(_ context.Context, ballot entities.Ballot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ballotID := strings.TrimSpace(ballot.BallotID)
	if _, exists := s.ballots[ballotID]; exists {
		return domainerrors.ErrConflict
	}
	s.ballots[ballotID] = ballot.Clone()
	return nil
}

func (s *Store) GetBallot(_ context.Context, ballotID string) (entities.Ballot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ballot, ok := s.ballots[strings.TrimSpace(ballotID)]
	if !ok {
		return entities.Ballot{}, domainerrors.ErrBallotNotFound
	}
	return ballot.Clone(), nil
}

func (s *Store) UpdateBallot(
	_ context.Context,
	ballotID string,
	apply func(*entities.Ballot) error,
) (entities.Ballot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.ballots[strings.TrimSpace(ballotID)]
	if !ok {
		return entities.Ballot{}, domainerrors.ErrBallotNotFound
	}

	// apply mutates a clone; the stored ballot only changes on success.
	next := current.Clone()
	if err := apply(&next); err != nil {
		return entities.Ballot{}, err
	}
	s.ballots[strings.TrimSpace(ballotID)] = next
	return next.Clone(), nil
}

func (s *Store) ListBallots(_ context.Context) ([]entities.Ballot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Ballot, 0, len(s.ballots))
	for _, ballot := range s.ballots {
		items = append(items, ballot.Clone())
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].BallotID < items[j].BallotID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outbox = append(s.outbox, outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     uuid.NewString(),
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    time.Now().UTC(),
		},
	})
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]ports.OutboxMessage, 0, limit)
	for _, record := range s.outbox {
		if record.published {
			continue
		}
		items = append(items, record.message)
		if len(items) >= limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.outbox {
		if s.outbox[i].message.OutboxID == outboxID {
			s.outbox[i].published = true
			return nil
		}
	}
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
