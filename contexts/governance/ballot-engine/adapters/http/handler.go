package httpadapter

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"ballotbox/contexts/governance/ballot-engine/application/commands"
	"ballotbox/contexts/governance/ballot-engine/application/queries"
	"ballotbox/contexts/governance/ballot-engine/domain/entities"
	httptransport "ballotbox/contexts/governance/ballot-engine/transport/http"
)

type Handler struct {
	Ballots commands.BallotUseCase
	Results queries.ResultsUseCase
	Logger  *slog.Logger
}

func (h Handler) CreateBallotHandler(
	ctx context.Context,
	chairperson string,
	req httptransport.CreateBallotRequest,
) (httptransport.BallotResponse, error) {
	ballot, err := h.Ballots.CreateBallot(ctx, commands.CreateBallotCommand{
		Chairperson:   chairperson,
		ProposalNames: req.ProposalNames,
	})
	if err != nil {
		return httptransport.BallotResponse{}, err
	}
	return mapBallot(ballot), nil
}

func (h Handler) RegisterVoterHandler(
	ctx context.Context,
	callerID string,
	ballotID string,
	req httptransport.RegisterVoterRequest,
) (httptransport.VoterResponse, error) {
	voter, err := h.Ballots.RegisterVoter(ctx, commands.RegisterVoterCommand{
		BallotID: ballotID,
		CallerID: callerID,
		VoterID:  req.VoterID,
	})
	if err != nil {
		return httptransport.VoterResponse{}, err
	}
	return mapVoter(ballotID, voter), nil
}

func (h Handler) CastVoteHandler(
	ctx context.Context,
	voterID string,
	ballotID string,
	req httptransport.CastVoteRequest,
) (httptransport.VoterResponse, error) {
	voter, err := h.Ballots.CastVote(ctx, commands.CastVoteCommand{
		BallotID:      ballotID,
		VoterID:       voterID,
		ProposalIndex: req.ProposalIndex,
	})
	if err != nil {
		return httptransport.VoterResponse{}, err
	}
	return mapVoter(ballotID, voter), nil
}

func (h Handler) GetBallotHandler(ctx context.Context, ballotID string) (httptransport.BallotResponse, error) {
	ballot, err := h.Results.GetBallot(ctx, ballotID)
	if err != nil {
		return httptransport.BallotResponse{}, err
	}
	return mapBallot(ballot), nil
}

func (h Handler) ListBallotsHandler(ctx context.Context) (httptransport.BallotListResponse, error) {
	ballots, err := h.Results.ListBallots(ctx)
	if err != nil {
		return httptransport.BallotListResponse{}, err
	}
	items := make([]httptransport.BallotResponse, 0, len(ballots))
	for _, ballot := range ballots {
		items = append(items, mapBallot(ballot))
	}
	return httptransport.BallotListResponse{Items: items}, nil
}

func (h Handler) GetVoterHandler(
	ctx context.Context,
	ballotID string,
	voterID string,
) (httptransport.VoterResponse, error) {
	voter, err := h.Results.GetVoter(ctx, ballotID, voterID)
	if err != nil {
		return httptransport.VoterResponse{}, err
	}
	return mapVoter(ballotID, voter), nil
}

func (h Handler) GetProposalsHandler(ctx context.Context, ballotID string) (httptransport.ProposalListResponse, error) {
	proposals, err := h.Results.GetProposals(ctx, ballotID)
	if err != nil {
		return httptransport.ProposalListResponse{}, err
	}
	return httptransport.ProposalListResponse{
		BallotID: ballotID,
		Items:    mapProposals(proposals),
	}, nil
}

func (h Handler) GetWinnerHandler(ctx context.Context, ballotID string) (httptransport.WinnerResponse, error) {
	winner, err := h.Results.GetWinner(ctx, ballotID)
	if err != nil {
		return httptransport.WinnerResponse{}, err
	}
	return httptransport.WinnerResponse{
		BallotID:     winner.BallotID,
		WinningIndex: winner.WinningIndex,
		WinnerName:   winner.WinnerName,
		VoteCount:    winner.VoteCount,
	}, nil
}

func mapBallot(ballot entities.Ballot) httptransport.BallotResponse {
	voters := make([]httptransport.VoterResponse, 0, len(ballot.Voters))
	for _, voter := range ballot.Voters {
		voters = append(voters, mapVoter(ballot.BallotID, voter))
	}
	sort.Slice(voters, func(i, j int) bool {
		return voters[i].VoterID < voters[j].VoterID
	})
	return httptransport.BallotResponse{
		BallotID:    ballot.BallotID,
		Chairperson: ballot.Chairperson,
		Proposals:   mapProposals(ballot.Proposals),
		Voters:      voters,
		CreatedAt:   ballot.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func mapVoter(ballotID string, voter entities.Voter) httptransport.VoterResponse {
	resp := httptransport.VoterResponse{
		BallotID: ballotID,
		VoterID:  voter.VoterID,
		Weight:   voter.Weight,
		HasVoted: voter.HasVoted,
		Delegate: voter.Delegate,
	}
	if voter.HasVoted {
		voted := voter.VotedProposal
		resp.VotedProposal = &voted
	}
	return resp
}

func mapProposals(proposals []entities.Proposal) []httptransport.ProposalItem {
	items := make([]httptransport.ProposalItem, 0, len(proposals))
	for idx, proposal := range proposals {
		items = append(items, httptransport.ProposalItem{
			Index:     idx,
			Name:      proposal.Name,
			VoteCount: proposal.VoteCount,
		})
	}
	return items
}
