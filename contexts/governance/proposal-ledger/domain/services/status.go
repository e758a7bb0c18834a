package services

import (
	"time"

	"agora/contexts/governance/proposal-ledger/domain/entities"
)

// ResolveStatus returns the status a proposal holds at now. The voting window
// is half-open: a proposal is active from startsAt inclusive and closed from
// endsAt inclusive. The result never ranks below current, so resolving is
// monotonic and idempotent. Finalized and none are terminal here.
func ResolveStatus(
	current entities.ProposalStatus,
	startsAt time.Time,
	endsAt time.Time,
	now time.Time,
) entities.ProposalStatus {
	if current == entities.ProposalStatusNone || current == entities.ProposalStatusFinalized {
		return current
	}
	target := entities.ProposalStatusPending
	switch {
	case !now.Before(endsAt):
		target = entities.ProposalStatusClosed
	case !now.Before(startsAt):
		target = entities.ProposalStatusActive
	}
	if target.Rank() < current.Rank() {
		return current
	}
	return target
}
