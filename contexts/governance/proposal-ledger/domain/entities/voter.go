package entities

// Voter is a snapshot of one principal's ledger record.
type Voter struct {
	VoterID         string                `json:"voter_id"`
	Created         []ProposalID          `json:"created_proposal_ids"`
	Participated    []ProposalID          `json:"participated_proposal_ids"`
	SelectedOptions map[ProposalID]string `json:"selected_options"`
}

func (v Voter) HasParticipated(id ProposalID) bool {
	_, ok := v.SelectedOptions[id]
	return ok
}
