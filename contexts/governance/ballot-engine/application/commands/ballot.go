package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "ballotbox/contexts/governance/ballot-engine/application"
	"ballotbox/contexts/governance/ballot-engine/domain/entities"
	domainerrors "ballotbox/contexts/governance/ballot-engine/domain/errors"
	"ballotbox/contexts/governance/ballot-engine/ports"
)

// CreateBallotCommand is the write-model input for ballot creation. The
// caller becomes the ballot's chairperson.
type CreateBallotCommand struct {
	Chairperson   string
	ProposalNames []string
}

// RegisterVoterCommand grants VoterID the right to vote on BallotID.
// CallerID must be the chairperson.
type RegisterVoterCommand struct {
	BallotID string
	CallerID string
	VoterID  string
}

// CastVoteCommand spends VoterID's single vote on the proposal at
// ProposalIndex.
type CastVoteCommand struct {
	BallotID      string
	VoterID       string
	ProposalIndex int
}

// BallotUseCase orchestrates ballot commands: chairperson gatekeeping,
// one-vote-per-voter enforcement, and outbox event emission. Each failed
// precondition rejects the whole operation with no state change and no
// event.
type BallotUseCase struct {
	Ballots ports.BallotRepository
	Outbox  ports.OutboxWriter
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Logger  *slog.Logger
}

// CreateBallot records the caller as chairperson (with voting weight 1) and
// fixes the proposal list. Proposal order is preserved; indices are the
// stable external identifiers used by CastVote and in events.
func (uc BallotUseCase) CreateBallot(ctx context.Context, cmd CreateBallotCommand) (entities.Ballot, error) {
	logger := application.ResolveLogger(uc.Logger)
	chairperson := strings.TrimSpace(cmd.Chairperson)
	logger.Info("ballot create processing started",
		"event", "ballot_create_started",
		"module", "governance/ballot-engine",
		"layer", "application",
		"chairperson", chairperson,
		"proposal_count", len(cmd.ProposalNames),
	)

	names := make([]string, 0, len(cmd.ProposalNames))
	for _, name := range cmd.ProposalNames {
		names = append(names, strings.TrimSpace(name))
	}
	if chairperson == "" || len(names) == 0 || hasEmptyName(names) {
		logger.Warn("ballot create validation failed",
			"event", "ballot_create_validation_failed",
			"module", "governance/ballot-engine",
			"layer", "application",
			"chairperson", chairperson,
			"proposal_count", len(names),
		)
		return entities.Ballot{}, domainerrors.ErrInvalidBallotInput
	}

	ballotID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Ballot{}, err
	}
	ballot := entities.NewBallot(ballotID, chairperson, names, uc.now())
	if err := uc.Ballots.CreateBallot(ctx, ballot); err != nil {
		return entities.Ballot{}, err
	}

	logger.Info("ballot created",
		"event", "ballot_created",
		"module", "governance/ballot-engine",
		"layer", "application",
		"ballot_id", ballot.BallotID,
		"chairperson", ballot.Chairperson,
		"proposal_count", len(ballot.Proposals),
	)
	return ballot, nil
}

// RegisterVoter sets the target voter's weight to 1 and emits
// ballot.voter_registered. Only the chairperson may register, and each
// identity may be registered exactly once.
func (uc BallotUseCase) RegisterVoter(ctx context.Context, cmd RegisterVoterCommand) (entities.Voter, error) {
	logger := application.ResolveLogger(uc.Logger)
	ballotID := strings.TrimSpace(cmd.BallotID)
	callerID := strings.TrimSpace(cmd.CallerID)
	voterID := strings.TrimSpace(cmd.VoterID)
	logger.Info("voter registration processing started",
		"event", "ballot_register_voter_started",
		"module", "governance/ballot-engine",
		"layer", "application",
		"ballot_id", ballotID,
		"caller_id", callerID,
		"voter_id", voterID,
	)
	if ballotID == "" || callerID == "" || voterID == "" {
		logger.Warn("voter registration validation failed",
			"event", "ballot_register_voter_validation_failed",
			"module", "governance/ballot-engine",
			"layer", "application",
			"ballot_id", ballotID,
			"caller_id", callerID,
			"voter_id", voterID,
		)
		return entities.Voter{}, domainerrors.ErrInvalidBallotInput
	}

	now := uc.now()
	var registered entities.Voter
	ballot, err := uc.Ballots.UpdateBallot(ctx, ballotID, func(b *entities.Ballot) error {
		voter, err := b.RegisterVoter(callerID, voterID, now)
		if err != nil {
			return err
		}
		registered = voter
		return nil
	})
	if err != nil {
		logger.Warn("voter registration rejected",
			"event", "ballot_register_voter_rejected",
			"module", "governance/ballot-engine",
			"layer", "application",
			"ballot_id", ballotID,
			"caller_id", callerID,
			"voter_id", voterID,
			"error", err.Error(),
		)
		return entities.Voter{}, err
	}

	if err := uc.appendBallotEvent(ctx, "ballot.voter_registered", ballot.BallotID, now, map[string]any{
		"ballot_id": ballot.BallotID,
		"voter_id":  registered.VoterID,
		"weight":    registered.Weight,
	}); err != nil {
		return entities.Voter{}, err
	}

	logger.Info("voter registered",
		"event", "ballot_voter_registered",
		"module", "governance/ballot-engine",
		"layer", "application",
		"ballot_id", ballot.BallotID,
		"voter_id", registered.VoterID,
		"weight", registered.Weight,
	)
	return registered, nil
}

// CastVote marks the voter as voted, records the chosen proposal, and adds
// the voter's weight to that proposal's count, all inside one repository
// mutation. Emits ballot.vote_cast on success.
func (uc BallotUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (entities.Voter, error) {
	logger := application.ResolveLogger(uc.Logger)
	ballotID := strings.TrimSpace(cmd.BallotID)
	voterID := strings.TrimSpace(cmd.VoterID)
	logger.Info("vote cast processing started",
		"event", "ballot_cast_vote_started",
		"module", "governance/ballot-engine",
		"layer", "application",
		"ballot_id", ballotID,
		"voter_id", voterID,
		"proposal_index", cmd.ProposalIndex,
	)
	if ballotID == "" || voterID == "" {
		logger.Warn("vote cast validation failed",
			"event", "ballot_cast_vote_validation_failed",
			"module", "governance/ballot-engine",
			"layer", "application",
			"ballot_id", ballotID,
			"voter_id", voterID,
		)
		return entities.Voter{}, domainerrors.ErrInvalidBallotInput
	}

	now := uc.now()
	var voted entities.Voter
	ballot, err := uc.Ballots.UpdateBallot(ctx, ballotID, func(b *entities.Ballot) error {
		voter, err := b.CastVote(voterID, cmd.ProposalIndex, now)
		if err != nil {
			return err
		}
		voted = voter
		return nil
	})
	if err != nil {
		logger.Warn("vote cast rejected",
			"event", "ballot_cast_vote_rejected",
			"module", "governance/ballot-engine",
			"layer", "application",
			"ballot_id", ballotID,
			"voter_id", voterID,
			"proposal_index", cmd.ProposalIndex,
			"error", err.Error(),
		)
		return entities.Voter{}, err
	}

	if err := uc.appendBallotEvent(ctx, "ballot.vote_cast", ballot.BallotID, now, map[string]any{
		"ballot_id":      ballot.BallotID,
		"voter_id":       voted.VoterID,
		"proposal_index": voted.VotedProposal,
		"weight":         voted.Weight,
	}); err != nil {
		return entities.Voter{}, err
	}

	logger.Info("vote cast",
		"event", "ballot_vote_cast",
		"module", "governance/ballot-engine",
		"layer", "application",
		"ballot_id", ballot.BallotID,
		"voter_id", voted.VoterID,
		"proposal_index", voted.VotedProposal,
	)
	return voted, nil
}

func (uc BallotUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

func hasEmptyName(names []string) bool {
	for _, name := range names {
		if name == "" {
			return true
		}
	}
	return false
}
