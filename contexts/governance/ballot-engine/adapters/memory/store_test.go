package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"ballotbox/contexts/governance/ballot-engine/adapters/memory"
	"ballotbox/contexts/governance/ballot-engine/domain/entities"
	domainerrors "ballotbox/contexts/governance/ballot-engine/domain/errors"
	"ballotbox/contexts/governance/ballot-engine/ports"
)

func testBallot(id string, createdAt time.Time) entities.Ballot {
	return entities.NewBallot(id, "chair-1", []string{"A", "B"}, createdAt)
}

func TestCreateBallotRejectsDuplicateID(t *testing.T) {
	store := memory.NewStore(nil)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	if err := store.CreateBallot(context.Background(), testBallot("ballot-1", now)); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if err := store.CreateBallot(context.Background(), testBallot("ballot-1", now)); !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestGetBallotUnknownID(t *testing.T) {
	store := memory.NewStore(nil)
	if _, err := store.GetBallot(context.Background(), "missing"); !errors.Is(err, domainerrors.ErrBallotNotFound) {
		t.Fatalf("expected ErrBallotNotFound, got %v", err)
	}
}

func TestUpdateBallotDiscardsMutationsOnError(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	store := memory.NewStore([]entities.Ballot{testBallot("ballot-1", now)})

	applyFailed := errors.New("apply failed")
	_, err := store.UpdateBallot(context.Background(), "ballot-1", func(b *entities.Ballot) error {
		b.Proposals[0].VoteCount = 99
		return applyFailed
	})
	if !errors.Is(err, applyFailed) {
		t.Fatalf("expected apply error, got %v", err)
	}

	ballot, err := store.GetBallot(context.Background(), "ballot-1")
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if ballot.Proposals[0].VoteCount != 0 {
		t.Fatalf("failed apply must not commit, got count %d", ballot.Proposals[0].VoteCount)
	}
}

func TestUpdateBallotUnknownID(t *testing.T) {
	store := memory.NewStore(nil)
	_, err := store.UpdateBallot(context.Background(), "missing", func(*entities.Ballot) error {
		t.Fatalf("apply must not run for a missing ballot")
		return nil
	})
	if !errors.Is(err, domainerrors.ErrBallotNotFound) {
		t.Fatalf("expected ErrBallotNotFound, got %v", err)
	}
}

func TestReadsHandOutIsolatedClones(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	store := memory.NewStore([]entities.Ballot{testBallot("ballot-1", now)})

	first, err := store.GetBallot(context.Background(), "ballot-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	first.Proposals[0].VoteCount = 42
	first.Voters["chair-1"] = entities.Voter{VoterID: "chair-1", Weight: 9}

	second, err := store.GetBallot(context.Background(), "ballot-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if second.Proposals[0].VoteCount != 0 {
		t.Fatalf("caller mutation leaked into the store")
	}
	if voter, _ := second.Voter("chair-1"); voter.Weight != 1 {
		t.Fatalf("caller voter mutation leaked into the store")
	}
}

func TestListBallotsOrdersByCreationTime(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	store := memory.NewStore([]entities.Ballot{
		testBallot("ballot-b", base.Add(time.Minute)),
		testBallot("ballot-a", base),
		testBallot("ballot-c", base.Add(time.Minute)),
	})

	items, err := store.ListBallots(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.BallotID)
	}
	want := []string{"ballot-a", "ballot-b", "ballot-c"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("unexpected order %v, want %v", ids, want)
		}
	}
}

func TestOutboxLifecycle(t *testing.T) {
	store := memory.NewStore(nil)
	envelope := ports.EventEnvelope{
		EventID:      "event-1",
		EventType:    "ballot.voter_registered",
		PartitionKey: "ballot-1",
	}
	if err := store.AppendOutbox(context.Background(), envelope); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending row, got %d", len(pending))
	}
	row := pending[0]
	if row.EventType != envelope.EventType || row.PartitionKey != envelope.PartitionKey {
		t.Fatalf("unexpected outbox row: %+v", row)
	}

	if err := store.MarkOutboxPublished(context.Background(), row.OutboxID, time.Now()); err != nil {
		t.Fatalf("mark published failed: %v", err)
	}
	pending, err = store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("published row must not stay pending, got %d", len(pending))
	}
}
