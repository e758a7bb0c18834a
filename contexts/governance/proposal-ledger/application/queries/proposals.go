package queries

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"agora/contexts/governance/proposal-ledger/domain/entities"
	domainerrors "agora/contexts/governance/proposal-ledger/domain/errors"
	"agora/contexts/governance/proposal-ledger/domain/ledger"
	"agora/contexts/governance/proposal-ledger/domain/services"
	"agora/contexts/governance/proposal-ledger/ports"
)

// StatusRefresher commits a due status transition. commands.LedgerUseCase
// implements it.
type StatusRefresher interface {
	RefreshStatus(ctx context.Context, proposalID entities.ProposalID) (entities.ProposalStatus, error)
}

// ProposalQueries reads the ledger under a shared lock. A read that observes a
// due status transition escalates to the refresher first, so callers never see
// a stale status or an unsealed result of a proposal that already ended.
type ProposalQueries struct {
	Ledger    ports.LedgerStore
	Refresher StatusRefresher
	Clock     ports.Clock
	Logger    *slog.Logger
}

func (q ProposalQueries) now() time.Time {
	if q.Clock != nil {
		return q.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

// refresh escalates to a write only when the stored status is behind. A
// missing proposal fails the read.
func (q ProposalQueries) refresh(ctx context.Context, proposalIDs ...entities.ProposalID) error {
	return q.refreshDue(ctx, false, proposalIDs)
}

// refreshLive refreshes a batch taken from an earlier snapshot. Proposals
// removed since then are skipped.
func (q ProposalQueries) refreshLive(ctx context.Context, proposalIDs []entities.ProposalID) error {
	return q.refreshDue(ctx, true, proposalIDs)
}

func (q ProposalQueries) refreshDue(ctx context.Context, skipRemoved bool, proposalIDs []entities.ProposalID) error {
	if q.Refresher == nil {
		return nil
	}
	now := q.now()
	due := make([]entities.ProposalID, 0, len(proposalIDs))
	err := q.Ledger.View(ctx, func(state ledger.Reader) error {
		for _, id := range proposalIDs {
			if skipRemoved {
				if _, ok := state.Proposal(id); !ok {
					continue
				}
			}
			plan, err := state.PlanRefresh(id, now)
			if err != nil {
				return err
			}
			if plan.Changed() {
				due = append(due, id)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, id := range due {
		_, err := q.Refresher.RefreshStatus(ctx, id)
		if err == nil || (skipRemoved && errors.Is(err, domainerrors.ErrProposalNotFound)) {
			continue
		}
		return err
	}
	return nil
}

func (q ProposalQueries) GetProposalDetails(ctx context.Context, proposalID entities.ProposalID) (entities.Proposal, error) {
	if !proposalID.Exists() {
		return entities.Proposal{}, domainerrors.ErrInvalidProposalID
	}
	if err := q.refresh(ctx, proposalID); err != nil {
		return entities.Proposal{}, err
	}
	var proposal entities.Proposal
	err := q.Ledger.View(ctx, func(state ledger.Reader) error {
		found, ok := state.Proposal(proposalID)
		if !ok {
			return fmt.Errorf("%w: %d", domainerrors.ErrProposalNotFound, proposalID)
		}
		proposal = found
		return nil
	})
	if err != nil {
		return entities.Proposal{}, err
	}
	return proposal, nil
}

// ListProposals returns live proposals in ascending id order, optionally
// filtered by status.
func (q ProposalQueries) ListProposals(ctx context.Context, status entities.ProposalStatus) ([]entities.Proposal, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domainerrors.ErrValidation, status)
	}
	var ids []entities.ProposalID
	if err := q.Ledger.View(ctx, func(state ledger.Reader) error {
		ids = state.ProposalIDs()
		return nil
	}); err != nil {
		return nil, err
	}
	if err := q.refreshLive(ctx, ids); err != nil {
		return nil, err
	}

	items := make([]entities.Proposal, 0, len(ids))
	err := q.Ledger.View(ctx, func(state ledger.Reader) error {
		for _, id := range state.ProposalIDs() {
			proposal, ok := state.Proposal(id)
			if !ok {
				continue
			}
			if status != "" && proposal.Status != status {
				continue
			}
			items = append(items, proposal)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// GetVoterRecord returns the proposals a voter created and voted on. An
// unknown voter has an empty record.
func (q ProposalQueries) GetVoterRecord(ctx context.Context, voterID string) (entities.Voter, error) {
	voterID = strings.TrimSpace(voterID)
	if err := services.ValidatePrincipal(voterID); err != nil {
		return entities.Voter{}, err
	}
	var record entities.Voter
	err := q.Ledger.View(ctx, func(state ledger.Reader) error {
		record, _ = state.Voter(voterID)
		return nil
	})
	if err != nil {
		return entities.Voter{}, err
	}
	return record, nil
}
