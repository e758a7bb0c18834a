package ports

import (
	"time"

	"agora/contexts/governance/proposal-ledger/domain/entities"
	contractsv1 "agora/contracts/gen/events/v1"
)

// EventEnvelope reuses the canonical cross-runtime envelope contract.
type EventEnvelope = contractsv1.Envelope

const (
	EventProposalCreated   = "proposal.created"
	EventProposalRemoved   = "proposal.removed"
	EventProposalFinalized = "proposal.finalized"
	EventVoteCast          = "vote.cast"
	EventVoteRetracted     = "vote.retracted"
	EventVoteChanged       = "vote.changed"
)

type ProposalCreatedData struct {
	ProposalID entities.ProposalID     `json:"proposal_id"`
	OwnerID    string                  `json:"owner_id"`
	Title      string                  `json:"title"`
	Options    []string                `json:"options"`
	Mutability entities.VoteMutability `json:"mutability"`
	StartsAt   time.Time               `json:"starts_at"`
	EndsAt     time.Time               `json:"ends_at"`
	CreatedAt  time.Time               `json:"created_at"`
}

type ProposalRemovedData struct {
	ProposalID  entities.ProposalID `json:"proposal_id"`
	OwnerID     string              `json:"owner_id"`
	RequestedBy string              `json:"requested_by"`
}

type ProposalFinalizedData struct {
	Result entities.TallyResult `json:"result"`
}

type VoteCastData struct {
	ProposalID entities.ProposalID `json:"proposal_id"`
	VoterID    string              `json:"voter_id"`
	Option     string              `json:"option"`
}

type VoteRetractedData struct {
	ProposalID entities.ProposalID `json:"proposal_id"`
	VoterID    string              `json:"voter_id"`
	Option     string              `json:"option"`
}

type VoteChangedData struct {
	ProposalID entities.ProposalID `json:"proposal_id"`
	VoterID    string              `json:"voter_id"`
	FromOption string              `json:"from_option"`
	ToOption   string              `json:"to_option"`
}
