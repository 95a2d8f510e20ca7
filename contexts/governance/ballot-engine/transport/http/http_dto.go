package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateBallotRequest struct {
	ProposalNames []string `json:"proposal_names"`
}

type RegisterVoterRequest struct {
	VoterID string `json:"voter_id"`
}

type CastVoteRequest struct {
	ProposalIndex int `json:"proposal_index"`
}

type ProposalItem struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	VoteCount uint64 `json:"vote_count"`
}

type VoterResponse struct {
	BallotID      string `json:"ballot_id"`
	VoterID       string `json:"voter_id"`
	Weight        uint64 `json:"weight"`
	HasVoted      bool   `json:"has_voted"`
	VotedProposal *int   `json:"voted_proposal,omitempty"`
	Delegate      string `json:"delegate,omitempty"`
}

type BallotResponse struct {
	BallotID    string          `json:"ballot_id"`
	Chairperson string          `json:"chairperson"`
	Proposals   []ProposalItem  `json:"proposals"`
	Voters      []VoterResponse `json:"voters"`
	CreatedAt   string          `json:"created_at"`
}

type BallotListResponse struct {
	Items []BallotResponse `json:"items"`
}

type ProposalListResponse struct {
	BallotID string         `json:"ballot_id"`
	Items    []ProposalItem `json:"items"`
}

type WinnerResponse struct {
	BallotID     string `json:"ballot_id"`
	WinningIndex int    `json:"winning_index"`
	WinnerName   string `json:"winner_name"`
	VoteCount    uint64 `json:"vote_count"`
}
