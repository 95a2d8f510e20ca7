package postgresadapter

import (
	"strings"
	"time"

	"ballotbox/contexts/governance/ballot-engine/domain/entities"
)

type ballotModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	Chairperson string    `gorm:"column:chairperson"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (ballotModel) TableName() string {
	return "ballots"
}

func (m ballotModel) toEntity() entities.Ballot {
	return entities.Ballot{
		BallotID:    m.ID,
		Chairperson: m.Chairperson,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

func ballotModelFromEntity(ballot entities.Ballot) ballotModel {
	return ballotModel{
		ID:          strings.TrimSpace(ballot.BallotID),
		Chairperson: strings.TrimSpace(ballot.Chairperson),
		CreatedAt:   ballot.CreatedAt.UTC(),
		UpdatedAt:   ballot.UpdatedAt.UTC(),
	}
}

type ballotVoterModel struct {
	BallotID      string    `gorm:"column:ballot_id;primaryKey"`
	VoterID       string    `gorm:"column:voter_id;primaryKey"`
	Weight        uint64    `gorm:"column:weight"`
	HasVoted      bool      `gorm:"column:has_voted"`
	Delegate      *string   `gorm:"column:delegate"`
	VotedProposal *int      `gorm:"column:voted_proposal"`
	RegisteredAt  time.Time `gorm:"column:registered_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (ballotVoterModel) TableName() string {
	return "ballot_voters"
}

func (m ballotVoterModel) toEntity() entities.Voter {
	voter := entities.Voter{
		VoterID:      m.VoterID,
		Weight:       m.Weight,
		HasVoted:     m.HasVoted,
		RegisteredAt: m.RegisteredAt.UTC(),
	}
	if m.Delegate != nil {
		voter.Delegate = strings.TrimSpace(*m.Delegate)
	}
	if m.VotedProposal != nil {
		voter.VotedProposal = *m.VotedProposal
	}
	return voter
}

func voterModelsFromEntity(ballot entities.Ballot) []ballotVoterModel {
	rows := make([]ballotVoterModel, 0, len(ballot.Voters))
	for _, voter := range ballot.Voters {
		row := ballotVoterModel{
			BallotID:     strings.TrimSpace(ballot.BallotID),
			VoterID:      strings.TrimSpace(voter.VoterID),
			Weight:       voter.Weight,
			HasVoted:     voter.HasVoted,
			RegisteredAt: voter.RegisteredAt.UTC(),
			UpdatedAt:    ballot.UpdatedAt.UTC(),
		}
		if voter.Delegate != "" {
			delegate := voter.Delegate
			row.Delegate = &delegate
		}
		if voter.HasVoted {
			voted := voter.VotedProposal
			row.VotedProposal = &voted
		}
		rows = append(rows, row)
	}
	return rows
}

type ballotProposalModel struct {
	BallotID  string `gorm:"column:ballot_id;primaryKey"`
	Idx       int    `gorm:"column:idx;primaryKey;autoIncrement:false"`
	Name      string `gorm:"column:name"`
	VoteCount uint64 `gorm:"column:vote_count"`
}

func (ballotProposalModel) TableName() string {
	return "ballot_proposals"
}

func proposalModelsFromEntity(ballot entities.Ballot) []ballotProposalModel {
	rows := make([]ballotProposalModel, 0, len(ballot.Proposals))
	for idx, proposal := range ballot.Proposals {
		rows = append(rows, ballotProposalModel{
			BallotID:  strings.TrimSpace(ballot.BallotID),
			Idx:       idx,
			Name:      proposal.Name,
			VoteCount: proposal.VoteCount,
		})
	}
	return rows
}

type outboxModel struct {
	ID           string     `gorm:"column:id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload;type:jsonb"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "ballot_outbox"
}
