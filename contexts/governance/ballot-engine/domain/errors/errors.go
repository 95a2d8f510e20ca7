package errors

import "errors"

var (
	ErrInvalidBallotInput = errors.New("invalid ballot input")
	ErrBallotNotFound     = errors.New("ballot not found")
	ErrNotChairperson     = errors.New("caller is not the ballot chairperson")
	ErrAlreadyRegistered  = errors.New("voter already has the right to vote")
	ErrNotEligible        = errors.New("voter has no right to vote")
	ErrAlreadyVoted       = errors.New("voter already cast a vote")
	ErrProposalOutOfRange = errors.New("proposal index out of range")
	ErrConflict           = errors.New("ballot conflict")
)
