package queries

import (
	"context"
	"strings"

	"ballotbox/contexts/governance/ballot-engine/domain/entities"
	"ballotbox/contexts/governance/ballot-engine/ports"
)

// Winner is the current leader of one ballot.
type Winner struct {
	BallotID     string
	WinningIndex int
	WinnerName   string
	VoteCount    uint64
}

// ResultsUseCase serves the read side: ballot state, voter lookups, the
// ordered tally, and the current winner. Queries never mutate state and each
// one observes a consistent repository snapshot.
type ResultsUseCase struct {
	Ballots ports.BallotRepository
}

func (uc ResultsUseCase) GetBallot(ctx context.Context, ballotID string) (entities.Ballot, error) {
	return uc.Ballots.GetBallot(ctx, strings.TrimSpace(ballotID))
}

func (uc ResultsUseCase) ListBallots(ctx context.Context) ([]entities.Ballot, error) {
	return uc.Ballots.ListBallots(ctx)
}

// GetVoter returns the voter record for voterID, or the implicit zero-weight
// record when the identity has never been registered.
func (uc ResultsUseCase) GetVoter(ctx context.Context, ballotID string, voterID string) (entities.Voter, error) {
	ballot, err := uc.Ballots.GetBallot(ctx, strings.TrimSpace(ballotID))
	if err != nil {
		return entities.Voter{}, err
	}
	voter, _ := ballot.Voter(strings.TrimSpace(voterID))
	return voter, nil
}

// GetProposals returns the ballot's tally in index order.
func (uc ResultsUseCase) GetProposals(ctx context.Context, ballotID string) ([]entities.Proposal, error) {
	ballot, err := uc.Ballots.GetBallot(ctx, strings.TrimSpace(ballotID))
	if err != nil {
		return nil, err
	}
	return ballot.Proposals, nil
}

// GetWinner resolves the leading proposal under the first-maximum-wins rule.
func (uc ResultsUseCase) GetWinner(ctx context.Context, ballotID string) (Winner, error) {
	ballot, err := uc.Ballots.GetBallot(ctx, strings.TrimSpace(ballotID))
	if err != nil {
		return Winner{}, err
	}
	name, err := ballot.WinnerName()
	if err != nil {
		return Winner{}, err
	}
	index := ballot.WinningIndex()
	return Winner{
		BallotID:     ballot.BallotID,
		WinningIndex: index,
		WinnerName:   name,
		VoteCount:    ballot.Proposals[index].VoteCount,
	}, nil
}
