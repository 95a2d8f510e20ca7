package commands

import (
	"context"
	"encoding/json"
	"time"

	"ballotbox/contexts/governance/ballot-engine/ports"
)

func (uc BallotUseCase) appendBallotEvent(
	ctx context.Context,
	eventType string,
	ballotID string,
	occurredAt time.Time,
	data map[string]any,
) error {
	// Outbox is optional for pure read/test wiring, so nil is treated as no-op.
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newBallotEnvelope(eventID, eventType, ballotID, occurredAt, data)
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}

func newBallotEnvelope(
	eventID string,
	eventType string,
	ballotID string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	// Events are partitioned by ballot for stable ordering on per-ballot
	// consumers.
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "ballot-engine",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "ballot_id",
		PartitionKey:     ballotID,
		Data:             payload,
	}, nil
}
