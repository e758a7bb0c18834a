package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	application "agora/contexts/governance/proposal-ledger/application"
	"agora/contexts/governance/proposal-ledger/domain/entities"
	domainerrors "agora/contexts/governance/proposal-ledger/domain/errors"
	"agora/contexts/governance/proposal-ledger/domain/ledger"
	"agora/contexts/governance/proposal-ledger/domain/services"
	"agora/contexts/governance/proposal-ledger/ports"
)

type CastVoteCommand struct {
	CallerID   string
	VoterID    string
	ProposalID entities.ProposalID
	Option     string
}

type RetractVoteCommand struct {
	CallerID   string
	VoterID    string
	ProposalID entities.ProposalID
}

type ChangeVoteCommand struct {
	CallerID   string
	VoterID    string
	ProposalID entities.ProposalID
	Option     string
}

// voteGuard is the state every vote operation checks before journaling.
type voteGuard struct {
	plan     ledger.RefreshPlan
	proposal entities.Proposal
}

func (uc LedgerUseCase) authorizeVoter(ctx context.Context, callerID, voterID string, proposalID entities.ProposalID) error {
	if err := services.ValidatePrincipal(voterID); err != nil {
		return err
	}
	if !proposalID.Exists() {
		return domainerrors.ErrInvalidProposalID
	}
	if err := uc.requireAuthorizedCaller(ctx, callerID); err != nil {
		return err
	}
	return uc.requireVerified(ctx, voterID)
}

// activeProposal resolves the status the proposal holds at now and requires it
// to be active. Nothing is stored.
func activeProposal(state *ledger.Ledger, proposalID entities.ProposalID, now time.Time) (voteGuard, error) {
	plan, err := state.PlanRefresh(proposalID, now)
	if err != nil {
		return voteGuard{}, err
	}
	if status := plan.Effective(); status != entities.ProposalStatusActive {
		return voteGuard{}, fmt.Errorf("%w: proposal %d is %s", domainerrors.ErrProposalNotActive, proposalID, status)
	}
	proposal, _ := state.Proposal(proposalID)
	return voteGuard{plan: plan, proposal: proposal}, nil
}

func (uc LedgerUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) error {
	voterID := strings.TrimSpace(cmd.VoterID)
	if err := uc.castVote(ctx, cmd); err != nil {
		uc.reject("cast_vote", err, "proposal_id", uint64(cmd.ProposalID), "voter_id", voterID)
		return err
	}
	uc.succeed("cast_vote")
	application.ResolveLogger(uc.Logger).Info("vote cast",
		"event", "ledger_vote_cast",
		"module", moduleName,
		"layer", "application",
		"proposal_id", uint64(cmd.ProposalID),
		"voter_id", voterID,
		"option", cmd.Option,
	)
	return nil
}

func (uc LedgerUseCase) castVote(ctx context.Context, cmd CastVoteCommand) error {
	voterID := strings.TrimSpace(cmd.VoterID)
	if err := uc.authorizeVoter(ctx, cmd.CallerID, voterID, cmd.ProposalID); err != nil {
		return err
	}
	now := uc.now()
	return uc.Ledger.Update(ctx, func(state *ledger.Ledger) error {
		guard, err := activeProposal(state, cmd.ProposalID, now)
		if err != nil {
			return err
		}
		if !guard.proposal.HasOption(cmd.Option) {
			return fmt.Errorf("%w: %q", domainerrors.ErrUnknownOption, cmd.Option)
		}
		if state.Proposals.IsParticipant(cmd.ProposalID, voterID) {
			return fmt.Errorf("%w: voter %s proposal %d", domainerrors.ErrAlreadyVoted, voterID, cmd.ProposalID)
		}
		if err := uc.commit(ctx, state, guard.plan, now, pendingEvent{
			eventType:  ports.EventVoteCast,
			proposalID: cmd.ProposalID,
			data: ports.VoteCastData{
				ProposalID: cmd.ProposalID,
				VoterID:    voterID,
				Option:     cmd.Option,
			},
		}); err != nil {
			return err
		}
		if err := state.CastVote(cmd.ProposalID, voterID, cmd.Option); err != nil {
			return corrupted(err)
		}
		return nil
	})
}

// RetractVote withdraws a vote on a mutable, active proposal.
func (uc LedgerUseCase) RetractVote(ctx context.Context, cmd RetractVoteCommand) error {
	voterID := strings.TrimSpace(cmd.VoterID)
	option, err := uc.retractVote(ctx, cmd)
	if err != nil {
		uc.reject("retract_vote", err, "proposal_id", uint64(cmd.ProposalID), "voter_id", voterID)
		return err
	}
	uc.succeed("retract_vote")
	application.ResolveLogger(uc.Logger).Info("vote retracted",
		"event", "ledger_vote_retracted",
		"module", moduleName,
		"layer", "application",
		"proposal_id", uint64(cmd.ProposalID),
		"voter_id", voterID,
		"option", option,
	)
	return nil
}

func (uc LedgerUseCase) retractVote(ctx context.Context, cmd RetractVoteCommand) (string, error) {
	voterID := strings.TrimSpace(cmd.VoterID)
	if err := uc.authorizeVoter(ctx, cmd.CallerID, voterID, cmd.ProposalID); err != nil {
		return "", err
	}
	now := uc.now()
	var option string
	err := uc.Ledger.Update(ctx, func(state *ledger.Ledger) error {
		guard, err := activeProposal(state, cmd.ProposalID, now)
		if err != nil {
			return err
		}
		selected, err := mutableSelection(state, guard, voterID)
		if err != nil {
			return err
		}
		if err := uc.commit(ctx, state, guard.plan, now, pendingEvent{
			eventType:  ports.EventVoteRetracted,
			proposalID: cmd.ProposalID,
			data: ports.VoteRetractedData{
				ProposalID: cmd.ProposalID,
				VoterID:    voterID,
				Option:     selected,
			},
		}); err != nil {
			return err
		}
		option, err = state.RetractVote(cmd.ProposalID, voterID)
		if err != nil {
			return corrupted(err)
		}
		return nil
	})
	return option, err
}

// ChangeVote moves a vote to another option. Re-selecting the current option
// is rejected as a no-op.
func (uc LedgerUseCase) ChangeVote(ctx context.Context, cmd ChangeVoteCommand) error {
	voterID := strings.TrimSpace(cmd.VoterID)
	previous, err := uc.changeVote(ctx, cmd)
	if err != nil {
		uc.reject("change_vote", err, "proposal_id", uint64(cmd.ProposalID), "voter_id", voterID)
		return err
	}
	uc.succeed("change_vote")
	application.ResolveLogger(uc.Logger).Info("vote changed",
		"event", "ledger_vote_changed",
		"module", moduleName,
		"layer", "application",
		"proposal_id", uint64(cmd.ProposalID),
		"voter_id", voterID,
		"from_option", previous,
		"to_option", cmd.Option,
	)
	return nil
}

func (uc LedgerUseCase) changeVote(ctx context.Context, cmd ChangeVoteCommand) (string, error) {
	voterID := strings.TrimSpace(cmd.VoterID)
	if err := uc.authorizeVoter(ctx, cmd.CallerID, voterID, cmd.ProposalID); err != nil {
		return "", err
	}
	now := uc.now()
	var previous string
	err := uc.Ledger.Update(ctx, func(state *ledger.Ledger) error {
		guard, err := activeProposal(state, cmd.ProposalID, now)
		if err != nil {
			return err
		}
		selected, err := mutableSelection(state, guard, voterID)
		if err != nil {
			return err
		}
		if !guard.proposal.HasOption(cmd.Option) {
			return fmt.Errorf("%w: %q", domainerrors.ErrUnknownOption, cmd.Option)
		}
		if selected == cmd.Option {
			return fmt.Errorf("%w: %q", domainerrors.ErrIdenticalOption, cmd.Option)
		}
		if err := uc.commit(ctx, state, guard.plan, now, pendingEvent{
			eventType:  ports.EventVoteChanged,
			proposalID: cmd.ProposalID,
			data: ports.VoteChangedData{
				ProposalID: cmd.ProposalID,
				VoterID:    voterID,
				FromOption: selected,
				ToOption:   cmd.Option,
			},
		}); err != nil {
			return err
		}
		previous, err = state.ChangeVote(cmd.ProposalID, voterID, cmd.Option)
		if err != nil {
			return corrupted(err)
		}
		return nil
	})
	return previous, err
}

// mutableSelection returns the voter's current option on a proposal that
// allows changes.
func mutableSelection(state *ledger.Ledger, guard voteGuard, voterID string) (string, error) {
	id := guard.proposal.ProposalID
	if !guard.proposal.Mutability.AllowsChanges() {
		return "", fmt.Errorf("%w: proposal %d", domainerrors.ErrVoteImmutable, id)
	}
	if !state.Proposals.IsParticipant(id, voterID) {
		return "", fmt.Errorf("%w: voter %s proposal %d", domainerrors.ErrParticipationNotFound, voterID, id)
	}
	selected, ok := state.Voters.SelectedOption(voterID, id)
	if !ok {
		return "", corrupted(fmt.Errorf("participant %s of proposal %d has no selection", voterID, id))
	}
	return selected, nil
}
