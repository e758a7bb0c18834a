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

// CreateProposalCommand is the write-model input for proposal creation.
// CallerID is the service principal invoking the ledger; CreatorID becomes
// the proposal owner.
type CreateProposalCommand struct {
	CallerID   string
	CreatorID  string
	Title      string
	Options    []string
	Mutability entities.VoteMutability
	StartsAt   time.Time
	EndsAt     time.Time
}

type RemoveProposalCommand struct {
	CallerID    string
	RequesterID string
	ProposalID  entities.ProposalID
}

func (uc LedgerUseCase) CreateProposal(ctx context.Context, cmd CreateProposalCommand) (entities.Proposal, error) {
	logger := application.ResolveLogger(uc.Logger)
	creatorID := strings.TrimSpace(cmd.CreatorID)
	logger.Info("proposal create started",
		"event", "ledger_proposal_create_started",
		"module", moduleName,
		"layer", "application",
		"caller_id", strings.TrimSpace(cmd.CallerID),
		"creator_id", creatorID,
	)

	proposal, err := uc.createProposal(ctx, cmd)
	if err != nil {
		uc.reject("create_proposal", err, "creator_id", creatorID)
		return entities.Proposal{}, err
	}
	uc.succeed("create_proposal")
	logger.Info("proposal created",
		"event", "ledger_proposal_created",
		"module", moduleName,
		"layer", "application",
		"proposal_id", uint64(proposal.ProposalID),
		"creator_id", proposal.OwnerID,
		"options", len(proposal.Options),
		"mutability", string(proposal.Mutability),
		"starts_at", proposal.StartsAt,
		"ends_at", proposal.EndsAt,
	)
	return proposal, nil
}

func (uc LedgerUseCase) createProposal(ctx context.Context, cmd CreateProposalCommand) (entities.Proposal, error) {
	creatorID := strings.TrimSpace(cmd.CreatorID)
	if err := services.ValidatePrincipal(creatorID); err != nil {
		return entities.Proposal{}, err
	}
	if err := uc.requireAuthorizedCaller(ctx, cmd.CallerID); err != nil {
		return entities.Proposal{}, err
	}
	if err := uc.requireVerified(ctx, creatorID); err != nil {
		return entities.Proposal{}, err
	}
	if err := services.ValidateTitle(cmd.Title); err != nil {
		return entities.Proposal{}, err
	}
	if err := services.ValidateOptions(cmd.Options); err != nil {
		return entities.Proposal{}, err
	}
	mutability := cmd.Mutability
	if mutability == "" {
		mutability = entities.VoteMutabilityImmutable
	}
	if err := services.ValidateMutability(mutability); err != nil {
		return entities.Proposal{}, err
	}
	now := uc.now()
	if err := services.ValidateVotingWindow(cmd.StartsAt.UTC(), cmd.EndsAt.UTC(), now, uc.MinVotingWindow); err != nil {
		return entities.Proposal{}, err
	}

	input := ledger.NewProposal{
		OwnerID:    creatorID,
		Title:      cmd.Title,
		Options:    append([]string(nil), cmd.Options...),
		Mutability: mutability,
		StartsAt:   cmd.StartsAt.UTC(),
		EndsAt:     cmd.EndsAt.UTC(),
		CreatedAt:  now,
	}

	var proposal entities.Proposal
	err := uc.Ledger.Update(ctx, func(state *ledger.Ledger) error {
		id := state.Proposals.NextID()
		if err := uc.commit(ctx, state, ledger.RefreshPlan{}, now, pendingEvent{
			eventType:  ports.EventProposalCreated,
			proposalID: id,
			data: ports.ProposalCreatedData{
				ProposalID: id,
				OwnerID:    input.OwnerID,
				Title:      input.Title,
				Options:    input.Options,
				Mutability: input.Mutability,
				StartsAt:   input.StartsAt,
				EndsAt:     input.EndsAt,
				CreatedAt:  input.CreatedAt,
			},
		}); err != nil {
			return err
		}
		created, err := state.CreateProposal(input)
		if err != nil {
			return corrupted(err)
		}
		if created != id {
			return corrupted(fmt.Errorf("journaled proposal %d, stored %d", id, created))
		}
		proposal, _ = state.Proposal(created)
		return nil
	})
	if err != nil {
		return entities.Proposal{}, err
	}
	return proposal, nil
}

// RemoveProposal deletes a proposal nobody has voted on. Only the owner or an
// admin may remove it.
func (uc LedgerUseCase) RemoveProposal(ctx context.Context, cmd RemoveProposalCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	requesterID := strings.TrimSpace(cmd.RequesterID)
	logger.Info("proposal remove started",
		"event", "ledger_proposal_remove_started",
		"module", moduleName,
		"layer", "application",
		"proposal_id", uint64(cmd.ProposalID),
		"requester_id", requesterID,
	)

	if err := uc.removeProposal(ctx, cmd); err != nil {
		uc.reject("remove_proposal", err, "proposal_id", uint64(cmd.ProposalID), "requester_id", requesterID)
		return err
	}
	uc.succeed("remove_proposal")
	logger.Info("proposal removed",
		"event", "ledger_proposal_removed",
		"module", moduleName,
		"layer", "application",
		"proposal_id", uint64(cmd.ProposalID),
		"requester_id", requesterID,
	)
	return nil
}

func (uc LedgerUseCase) removeProposal(ctx context.Context, cmd RemoveProposalCommand) error {
	requesterID := strings.TrimSpace(cmd.RequesterID)
	if err := services.ValidatePrincipal(requesterID); err != nil {
		return err
	}
	if !cmd.ProposalID.Exists() {
		return domainerrors.ErrInvalidProposalID
	}
	if err := uc.requireAuthorizedCaller(ctx, cmd.CallerID); err != nil {
		return err
	}
	admin, err := uc.isAdmin(ctx, requesterID)
	if err != nil {
		return err
	}

	now := uc.now()
	return uc.Ledger.Update(ctx, func(state *ledger.Ledger) error {
		plan, err := state.PlanRefresh(cmd.ProposalID, now)
		if err != nil {
			return err
		}
		proposal, _ := state.Proposal(cmd.ProposalID)
		if proposal.OwnerID != requesterID && !admin {
			return fmt.Errorf("%w: proposal %d", domainerrors.ErrNotProposalOwner, cmd.ProposalID)
		}
		if proposal.ParticipantCount != 0 {
			return fmt.Errorf("%w: proposal %d has %d participants",
				domainerrors.ErrProposalHasParticipants, cmd.ProposalID, proposal.ParticipantCount)
		}
		if err := uc.commit(ctx, state, plan, now, pendingEvent{
			eventType:  ports.EventProposalRemoved,
			proposalID: cmd.ProposalID,
			data: ports.ProposalRemovedData{
				ProposalID:  cmd.ProposalID,
				OwnerID:     proposal.OwnerID,
				RequestedBy: requesterID,
			},
		}); err != nil {
			return err
		}
		if err := state.RemoveProposal(cmd.ProposalID); err != nil {
			return corrupted(err)
		}
		return nil
	})
}
