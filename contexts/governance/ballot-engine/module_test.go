package ballotengine_test

import (
	"context"
	"errors"
	"testing"

	ballotengine "ballotbox/contexts/governance/ballot-engine"
	domainerrors "ballotbox/contexts/governance/ballot-engine/domain/errors"
	httptransport "ballotbox/contexts/governance/ballot-engine/transport/http"
)

func TestModuleBallotLifecycle(t *testing.T) {
	module := ballotengine.NewInMemoryModule(nil, nil)
	ctx := context.Background()

	ballot, err := module.Handler.CreateBallotHandler(ctx, "chair-1", httptransport.CreateBallotRequest{
		ProposalNames: []string{"A", "B"},
	})
	if err != nil {
		t.Fatalf("create ballot failed: %v", err)
	}
	if ballot.Chairperson != "chair-1" {
		t.Fatalf("expected chairperson chair-1, got %q", ballot.Chairperson)
	}
	if len(ballot.Proposals) != 2 || ballot.Proposals[0].Name != "A" || ballot.Proposals[1].Name != "B" {
		t.Fatalf("unexpected proposals: %+v", ballot.Proposals)
	}
	if len(ballot.Voters) != 1 || ballot.Voters[0].VoterID != "chair-1" || ballot.Voters[0].Weight != 1 {
		t.Fatalf("expected chairperson seeded with weight 1, got %+v", ballot.Voters)
	}

	voter, err := module.Handler.RegisterVoterHandler(ctx, "chair-1", ballot.BallotID, httptransport.RegisterVoterRequest{
		VoterID: "voter-1",
	})
	if err != nil {
		t.Fatalf("register voter failed: %v", err)
	}
	if voter.Weight != 1 || voter.HasVoted {
		t.Fatalf("unexpected voter after registration: %+v", voter)
	}

	voted, err := module.Handler.CastVoteHandler(ctx, "voter-1", ballot.BallotID, httptransport.CastVoteRequest{
		ProposalIndex: 1,
	})
	if err != nil {
		t.Fatalf("cast vote failed: %v", err)
	}
	if !voted.HasVoted || voted.VotedProposal == nil || *voted.VotedProposal != 1 {
		t.Fatalf("unexpected voter after vote: %+v", voted)
	}

	winner, err := module.Handler.GetWinnerHandler(ctx, ballot.BallotID)
	if err != nil {
		t.Fatalf("get winner failed: %v", err)
	}
	if winner.WinningIndex != 1 || winner.WinnerName != "B" || winner.VoteCount != 1 {
		t.Fatalf("unexpected winner: %+v", winner)
	}

	pending, err := module.Store.ListPendingOutbox(ctx, 100)
	if err != nil {
		t.Fatalf("list pending outbox failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 outbox rows, got %d", len(pending))
	}
	if pending[0].EventType != "ballot.voter_registered" || pending[1].EventType != "ballot.vote_cast" {
		t.Fatalf("unexpected outbox event types: %q, %q", pending[0].EventType, pending[1].EventType)
	}
}

func TestModuleRejectsUnauthorizedRegistration(t *testing.T) {
	module := ballotengine.NewInMemoryModule(nil, nil)
	ctx := context.Background()

	ballot, err := module.Handler.CreateBallotHandler(ctx, "chair-1", httptransport.CreateBallotRequest{
		ProposalNames: []string{"A"},
	})
	if err != nil {
		t.Fatalf("create ballot failed: %v", err)
	}
	if _, err := module.Handler.RegisterVoterHandler(ctx, "intruder", ballot.BallotID, httptransport.RegisterVoterRequest{
		VoterID: "voter-1",
	}); !errors.Is(err, domainerrors.ErrNotChairperson) {
		t.Fatalf("expected ErrNotChairperson, got %v", err)
	}
}

func TestModuleRejectsSecondVote(t *testing.T) {
	module := ballotengine.NewInMemoryModule(nil, nil)
	ctx := context.Background()

	ballot, err := module.Handler.CreateBallotHandler(ctx, "chair-1", httptransport.CreateBallotRequest{
		ProposalNames: []string{"A", "B"},
	})
	if err != nil {
		t.Fatalf("create ballot failed: %v", err)
	}
	if _, err := module.Handler.RegisterVoterHandler(ctx, "chair-1", ballot.BallotID, httptransport.RegisterVoterRequest{
		VoterID: "voter-1",
	}); err != nil {
		t.Fatalf("register voter failed: %v", err)
	}
	if _, err := module.Handler.CastVoteHandler(ctx, "voter-1", ballot.BallotID, httptransport.CastVoteRequest{
		ProposalIndex: 0,
	}); err != nil {
		t.Fatalf("first vote failed: %v", err)
	}
	if _, err := module.Handler.CastVoteHandler(ctx, "voter-1", ballot.BallotID, httptransport.CastVoteRequest{
		ProposalIndex: 1,
	}); !errors.Is(err, domainerrors.ErrAlreadyVoted) {
		t.Fatalf("expected ErrAlreadyVoted, got %v", err)
	}
}

func TestModuleVoterLookupIsImplicitForStrangers(t *testing.T) {
	module := ballotengine.NewInMemoryModule(nil, nil)
	ctx := context.Background()

	ballot, err := module.Handler.CreateBallotHandler(ctx, "chair-1", httptransport.CreateBallotRequest{
		ProposalNames: []string{"A"},
	})
	if err != nil {
		t.Fatalf("create ballot failed: %v", err)
	}
	voter, err := module.Handler.GetVoterHandler(ctx, ballot.BallotID, "stranger")
	if err != nil {
		t.Fatalf("get voter failed: %v", err)
	}
	if voter.Weight != 0 || voter.HasVoted || voter.VotedProposal != nil {
		t.Fatalf("expected implicit zero-weight record, got %+v", voter)
	}
}
