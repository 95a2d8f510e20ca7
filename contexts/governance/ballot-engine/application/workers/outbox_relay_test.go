package workers_test

import (
	"context"
	"errors"
	"testing"

	"ballotbox/contexts/governance/ballot-engine/adapters/memory"
	"ballotbox/contexts/governance/ballot-engine/application/commands"
	"ballotbox/contexts/governance/ballot-engine/application/workers"
	"ballotbox/contexts/governance/ballot-engine/ports"
)

type capturingPublisher struct {
	topics []string
	events []ports.EventEnvelope
	fail   bool
}

func (p *capturingPublisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

func seedOutbox(t *testing.T, store *memory.Store) {
	t.Helper()
	uc := commands.BallotUseCase{Ballots: store, Outbox: store, Clock: store, IDGen: store}
	ballot, err := uc.CreateBallot(context.Background(), commands.CreateBallotCommand{
		Chairperson:   "chair-1",
		ProposalNames: []string{"A", "B"},
	})
	if err != nil {
		t.Fatalf("create ballot failed: %v", err)
	}
	if _, err := uc.RegisterVoter(context.Background(), commands.RegisterVoterCommand{
		BallotID: ballot.BallotID,
		CallerID: "chair-1",
		VoterID:  "voter-1",
	}); err != nil {
		t.Fatalf("register voter failed: %v", err)
	}
	if _, err := uc.CastVote(context.Background(), commands.CastVoteCommand{
		BallotID:      ballot.BallotID,
		VoterID:       "voter-1",
		ProposalIndex: 1,
	}); err != nil {
		t.Fatalf("cast vote failed: %v", err)
	}
}

func TestRunOncePublishesAndMarksRows(t *testing.T) {
	store := memory.NewStore(nil)
	seedOutbox(t, store)
	publisher := &capturingPublisher{}
	relay := workers.OutboxRelay{Outbox: store, Publisher: publisher, Clock: store}

	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once failed: %v", err)
	}
	if len(publisher.events) != 2 {
		t.Fatalf("expected 2 published events, got %d", len(publisher.events))
	}
	if publisher.topics[0] != "ballot.voter_registered" || publisher.topics[1] != "ballot.vote_cast" {
		t.Fatalf("unexpected publish topics: %v", publisher.topics)
	}
	for _, event := range publisher.events {
		if event.SourceService != "ballot-engine" {
			t.Fatalf("unexpected source service %q", event.SourceService)
		}
	}

	pending, err := store.ListPendingOutbox(context.Background(), 100)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("published rows must leave the pending set, got %d", len(pending))
	}
}

func TestRunOnceIsNoopWhenEmpty(t *testing.T) {
	store := memory.NewStore(nil)
	publisher := &capturingPublisher{}
	relay := workers.OutboxRelay{Outbox: store, Publisher: publisher}

	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once failed: %v", err)
	}
	if len(publisher.events) != 0 {
		t.Fatalf("expected no publishes, got %d", len(publisher.events))
	}
}

func TestRunOnceKeepsRowsPendingOnPublishFailure(t *testing.T) {
	store := memory.NewStore(nil)
	seedOutbox(t, store)
	relay := workers.OutboxRelay{Outbox: store, Publisher: &capturingPublisher{fail: true}}

	if err := relay.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected publish failure to surface")
	}
	pending, err := store.ListPendingOutbox(context.Background(), 100)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("failed publishes must stay pending, got %d", len(pending))
	}
}

func TestRunOnceHonorsBatchSize(t *testing.T) {
	store := memory.NewStore(nil)
	seedOutbox(t, store)
	publisher := &capturingPublisher{}
	relay := workers.OutboxRelay{Outbox: store, Publisher: publisher, BatchSize: 1}

	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once failed: %v", err)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("expected batch of 1, got %d", len(publisher.events))
	}
	pending, err := store.ListPendingOutbox(context.Background(), 100)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 row left pending, got %d", len(pending))
	}
}
