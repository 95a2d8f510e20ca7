package ports

import (
	"context"
	"time"

	"ballotbox/contexts/governance/ballot-engine/domain/entities"
	contractsv1 "ballotbox/contracts/gen/events/v1"
)

// BallotRepository owns ballot aggregate persistence. UpdateBallot runs apply
// under the instance's mutual-exclusion boundary (store lock or row lock in a
// transaction), so read-check-write sequences on one ballot never interleave.
// When apply returns an error nothing is committed.
type BallotRepository interface {
	CreateBallot(ctx context.Context, ballot entities.Ballot) error
	GetBallot(ctx context.Context, ballotID string) (entities.Ballot, error)
	UpdateBallot(ctx context.Context, ballotID string, apply func(*entities.Ballot) error) (entities.Ballot, error)
	ListBallots(ctx context.Context) ([]entities.Ballot, error)
}

type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

// OutboxRepository models worker-side outbox polling/acknowledgement.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
