package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateProposalRequest struct {
	Title      string    `json:"title"`
	Options    []string  `json:"options"`
	Mutability string    `json:"mutability,omitempty"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
}

type CastVoteRequest struct {
	Option string `json:"option"`
}

type ChangeVoteRequest struct {
	Option string `json:"option"`
}

type ProposalResponse struct {
	ProposalID       uint64     `json:"proposal_id"`
	OwnerID          string     `json:"owner_id"`
	Title            string     `json:"title"`
	Options          []string   `json:"options"`
	Status           string     `json:"status"`
	Mutability       string     `json:"mutability"`
	StartsAt         time.Time  `json:"starts_at"`
	EndsAt           time.Time  `json:"ends_at"`
	ParticipantCount uint64     `json:"participant_count"`
	Winners          []string   `json:"winners"`
	IsDraw           bool       `json:"is_draw"`
	CreatedAt        time.Time  `json:"created_at"`
	FinalizedAt      *time.Time `json:"finalized_at,omitempty"`
}

type ProposalListResponse struct {
	Items []ProposalResponse `json:"items"`
}

type VoteResponse struct {
	ProposalID uint64 `json:"proposal_id"`
	VoterID    string `json:"voter_id"`
	Option     string `json:"option,omitempty"`
	Status     string `json:"status"`
}

type VoteCountResponse struct {
	ProposalID uint64 `json:"proposal_id"`
	Option     string `json:"option"`
	Count      uint64 `json:"count"`
}

type OptionCountItem struct {
	Option string `json:"option"`
	Count  uint64 `json:"count"`
}

type WinnersResponse struct {
	ProposalID  uint64            `json:"proposal_id"`
	Winners     []string          `json:"winners"`
	IsDraw      bool              `json:"is_draw"`
	TotalVotes  uint64            `json:"total_votes"`
	Counts      []OptionCountItem `json:"counts"`
	FinalizedAt time.Time         `json:"finalized_at"`
}

type ParticipationItem struct {
	ProposalID uint64 `json:"proposal_id"`
	Option     string `json:"option"`
}

type VoterRecordResponse struct {
	VoterID      string              `json:"voter_id"`
	Created      []uint64            `json:"created_proposal_ids"`
	Participated []ParticipationItem `json:"participations"`
}
