package entities

import "time"

// ProposalID identifies a proposal. IDs are assigned sequentially from 1 and
// never reused; the zero value never refers to a stored proposal.
type ProposalID uint64

func (id ProposalID) Exists() bool {
	return id != 0
}

type ProposalStatus string

const (
	ProposalStatusNone      ProposalStatus = "none"
	ProposalStatusPending   ProposalStatus = "pending"
	ProposalStatusActive    ProposalStatus = "active"
	ProposalStatusClosed    ProposalStatus = "closed"
	ProposalStatusFinalized ProposalStatus = "finalized"
)

// Rank orders statuses along the lifecycle. Transitions only ever move to a
// higher rank.
func (s ProposalStatus) Rank() int {
	switch s {
	case ProposalStatusPending:
		return 1
	case ProposalStatusActive:
		return 2
	case ProposalStatusClosed:
		return 3
	case ProposalStatusFinalized:
		return 4
	default:
		return 0
	}
}

func (s ProposalStatus) Valid() bool {
	return s == ProposalStatusNone || s.Rank() > 0
}

type VoteMutability string

const (
	VoteMutabilityImmutable VoteMutability = "immutable"
	VoteMutabilityMutable   VoteMutability = "mutable"
)

func (m VoteMutability) Valid() bool {
	return m == VoteMutabilityImmutable || m == VoteMutabilityMutable
}

// AllowsChanges reports whether a cast vote may be retracted or changed.
func (m VoteMutability) AllowsChanges() bool {
	return m == VoteMutabilityMutable
}

// Proposal is the read model of a stored proposal.
type Proposal struct {
	ProposalID       ProposalID     `json:"proposal_id"`
	OwnerID          string         `json:"owner_id"`
	Title            string         `json:"title"`
	Options          []string       `json:"options"`
	Status           ProposalStatus `json:"status"`
	Mutability       VoteMutability `json:"mutability"`
	StartsAt         time.Time      `json:"starts_at"`
	EndsAt           time.Time      `json:"ends_at"`
	ParticipantCount uint64         `json:"participant_count"`
	Winners          []string       `json:"winners"`
	IsDraw           bool           `json:"is_draw"`
	CreatedAt        time.Time      `json:"created_at"`
	FinalizedAt      *time.Time     `json:"finalized_at,omitempty"`
}

func (p Proposal) HasOption(option string) bool {
	for _, candidate := range p.Options {
		if candidate == option {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with p.
func (p Proposal) Clone() Proposal {
	clone := p
	clone.Options = append([]string(nil), p.Options...)
	clone.Winners = append([]string{}, p.Winners...)
	if p.FinalizedAt != nil {
		at := *p.FinalizedAt
		clone.FinalizedAt = &at
	}
	return clone
}
