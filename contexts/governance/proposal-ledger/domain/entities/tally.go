package entities

import "time"

type OptionCount struct {
	Option string `json:"option"`
	Count  uint64 `json:"count"`
}

// TallyResult is the outcome of counting a proposal. Counts follow the
// proposal's option declaration order, and so do Winners.
type TallyResult struct {
	ProposalID  ProposalID    `json:"proposal_id"`
	Counts      []OptionCount `json:"counts"`
	TotalVotes  uint64        `json:"total_votes"`
	Winners     []string      `json:"winners"`
	IsDraw      bool          `json:"is_draw"`
	FinalizedAt time.Time     `json:"finalized_at"`
}

func (r TallyResult) Clone() TallyResult {
	clone := r
	clone.Counts = append([]OptionCount(nil), r.Counts...)
	clone.Winners = append([]string{}, r.Winners...)
	return clone
}
