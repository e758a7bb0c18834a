package queries

import (
	"context"
	"fmt"

	"agora/contexts/governance/proposal-ledger/domain/entities"
	domainerrors "agora/contexts/governance/proposal-ledger/domain/errors"
	"agora/contexts/governance/proposal-ledger/domain/ledger"
)

// GetVoteCount returns the live counter of one option. It does not refresh:
// counters never change outside a vote operation.
func (q ProposalQueries) GetVoteCount(ctx context.Context, proposalID entities.ProposalID, option string) (uint64, error) {
	if !proposalID.Exists() {
		return 0, domainerrors.ErrInvalidProposalID
	}
	var count uint64
	err := q.Ledger.View(ctx, func(state ledger.Reader) error {
		if _, ok := state.Proposal(proposalID); !ok {
			return fmt.Errorf("%w: %d", domainerrors.ErrProposalNotFound, proposalID)
		}
		if !state.OptionExists(proposalID, option) {
			return fmt.Errorf("%w: %q", domainerrors.ErrUnknownOption, option)
		}
		count = state.VoteCount(proposalID, option)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// GetProposalWinners returns the sealed tally of a finalized proposal. Asking
// before the voting window ended fails with ErrResultsNotFinal.
func (q ProposalQueries) GetProposalWinners(ctx context.Context, proposalID entities.ProposalID) (entities.TallyResult, error) {
	if !proposalID.Exists() {
		return entities.TallyResult{}, domainerrors.ErrInvalidProposalID
	}
	if err := q.refresh(ctx, proposalID); err != nil {
		return entities.TallyResult{}, err
	}
	var result entities.TallyResult
	err := q.Ledger.View(ctx, func(state ledger.Reader) error {
		proposal, ok := state.Proposal(proposalID)
		if !ok {
			return fmt.Errorf("%w: %d", domainerrors.ErrProposalNotFound, proposalID)
		}
		cached, ok := state.Result(proposalID)
		if proposal.Status != entities.ProposalStatusFinalized || !ok {
			return fmt.Errorf("%w: proposal %d is %s", domainerrors.ErrResultsNotFinal, proposalID, proposal.Status)
		}
		result = cached
		return nil
	})
	if err != nil {
		return entities.TallyResult{}, err
	}
	return result, nil
}
