package entities

import (
	"time"

	domainerrors "ballotbox/contexts/governance/ballot-engine/domain/errors"
)

// Voter is a per-ballot participant record. Records exist implicitly with
// weight 0; only the chairperson's registration raises the weight to 1.
// Delegate is reserved in the data model and carries no behavior.
type Voter struct {
	VoterID       string
	Weight        uint64
	HasVoted      bool
	Delegate      string
	VotedProposal int
	RegisteredAt  time.Time
}

// Proposal is immutable after ballot creation except for its vote counter.
type Proposal struct {
	Name      string
	VoteCount uint64
}

// Ballot is the aggregate state machine. Each voter transitions
// unregistered -> registered -> voted, monotonically. Mutating methods check
// every precondition before touching state, so a returned error guarantees
// the ballot is unchanged.
type Ballot struct {
	BallotID    string
	Chairperson string
	Voters      map[string]Voter
	Proposals   []Proposal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewBallot records the creator as chairperson with voting weight 1 and one
// zero-count proposal per supplied name, preserving input order.
func NewBallot(ballotID string, chairperson string, proposalNames []string, now time.Time) Ballot {
	proposals := make([]Proposal, 0, len(proposalNames))
	for _, name := range proposalNames {
		proposals = append(proposals, Proposal{Name: name})
	}
	return Ballot{
		BallotID:    ballotID,
		Chairperson: chairperson,
		Voters: map[string]Voter{
			chairperson: {
				VoterID:      chairperson,
				Weight:       1,
				RegisteredAt: now.UTC(),
			},
		},
		Proposals: proposals,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

// RegisterVoter grants voterID the right to vote with weight 1. Only the
// chairperson may register, and a voter may be registered once.
func (b *Ballot) RegisterVoter(callerID string, voterID string, now time.Time) (Voter, error) {
	if callerID != b.Chairperson {
		return Voter{}, domainerrors.ErrNotChairperson
	}
	if b.Voters[voterID].Weight > 0 {
		return Voter{}, domainerrors.ErrAlreadyRegistered
	}
	voter := b.Voters[voterID]
	voter.VoterID = voterID
	voter.Weight = 1
	voter.RegisteredAt = now.UTC()
	b.setVoter(voter, now)
	return voter, nil
}

// CastVote spends voterID's one vote on the proposal at proposalIndex,
// adding the voter's weight to that proposal's count. Checks run in order:
// eligibility, double-vote, index range.
func (b *Ballot) CastVote(voterID string, proposalIndex int, now time.Time) (Voter, error) {
	voter := b.Voters[voterID]
	if voter.Weight == 0 {
		return Voter{}, domainerrors.ErrNotEligible
	}
	if voter.HasVoted {
		return Voter{}, domainerrors.ErrAlreadyVoted
	}
	if proposalIndex < 0 || proposalIndex >= len(b.Proposals) {
		return Voter{}, domainerrors.ErrProposalOutOfRange
	}
	voter.HasVoted = true
	voter.VotedProposal = proposalIndex
	b.Proposals[proposalIndex].VoteCount += voter.Weight
	b.setVoter(voter, now)
	return voter, nil
}

// WinningIndex scans proposals in index order tracking a running maximum that
// starts at count 0, index 0, and replaces it only on strict improvement. The
// lowest index wins ties, and an all-zero (or empty) tally yields index 0.
// Callers depend on that zero-baseline result; do not change it to a
// no-leader sentinel.
func (b Ballot) WinningIndex() int {
	winning := 0
	var winningCount uint64
	for idx, proposal := range b.Proposals {
		if proposal.VoteCount > winningCount {
			winningCount = proposal.VoteCount
			winning = idx
		}
	}
	return winning
}

// WinnerName resolves the name at WinningIndex. It fails only when the
// ballot has no proposals at all.
func (b Ballot) WinnerName() (string, error) {
	if len(b.Proposals) == 0 {
		return "", domainerrors.ErrProposalOutOfRange
	}
	return b.Proposals[b.WinningIndex()].Name, nil
}

// Voter returns the record for voterID. Absent voters read as the implicit
// zero-weight record with found false.
func (b Ballot) Voter(voterID string) (Voter, bool) {
	voter, ok := b.Voters[voterID]
	if !ok {
		return Voter{VoterID: voterID}, false
	}
	return voter, true
}

// VotedWeight sums the weights of all voters that have cast their vote. It
// always equals the sum of all proposal counts.
func (b Ballot) VotedWeight() uint64 {
	var total uint64
	for _, voter := range b.Voters {
		if voter.HasVoted {
			total += voter.Weight
		}
	}
	return total
}

// Clone deep-copies the ballot so stores can hand out snapshots that callers
// cannot mutate.
func (b Ballot) Clone() Ballot {
	clone := b
	clone.Voters = make(map[string]Voter, len(b.Voters))
	for id, voter := range b.Voters {
		clone.Voters[id] = voter
	}
	clone.Proposals = make([]Proposal, len(b.Proposals))
	copy(clone.Proposals, b.Proposals)
	return clone
}

func (b *Ballot) setVoter(voter Voter, now time.Time) {
	if b.Voters == nil {
		b.Voters = make(map[string]Voter)
	}
	b.Voters[voter.VoterID] = voter
	b.UpdatedAt = now.UTC()
}
