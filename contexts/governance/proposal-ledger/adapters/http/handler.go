package httpadapter

import (
	"context"
	"log/slog"

	"agora/contexts/governance/proposal-ledger/application/commands"
	"agora/contexts/governance/proposal-ledger/application/queries"
	"agora/contexts/governance/proposal-ledger/domain/entities"
	httptransport "agora/contexts/governance/proposal-ledger/transport/http"
)

// Handler adapts transport DTOs to ledger use cases. callerID is the service
// principal invoking the ledger; userID is the person acting through it.
type Handler struct {
	Ledger  commands.LedgerUseCase
	Queries queries.ProposalQueries
	Logger  *slog.Logger
}

func (h Handler) CreateProposalHandler(
	ctx context.Context,
	callerID string,
	userID string,
	req httptransport.CreateProposalRequest,
) (httptransport.ProposalResponse, error) {
	proposal, err := h.Ledger.CreateProposal(ctx, commands.CreateProposalCommand{
		CallerID:   callerID,
		CreatorID:  userID,
		Title:      req.Title,
		Options:    req.Options,
		Mutability: entities.VoteMutability(req.Mutability),
		StartsAt:   req.StartsAt,
		EndsAt:     req.EndsAt,
	})
	if err != nil {
		return httptransport.ProposalResponse{}, err
	}
	return mapProposal(proposal), nil
}

func (h Handler) RemoveProposalHandler(ctx context.Context, callerID string, userID string, proposalID uint64) error {
	return h.Ledger.RemoveProposal(ctx, commands.RemoveProposalCommand{
		CallerID:    callerID,
		RequesterID: userID,
		ProposalID:  entities.ProposalID(proposalID),
	})
}

func (h Handler) CastVoteHandler(
	ctx context.Context,
	callerID string,
	userID string,
	proposalID uint64,
	req httptransport.CastVoteRequest,
) (httptransport.VoteResponse, error) {
	if err := h.Ledger.CastVote(ctx, commands.CastVoteCommand{
		CallerID:   callerID,
		VoterID:    userID,
		ProposalID: entities.ProposalID(proposalID),
		Option:     req.Option,
	}); err != nil {
		return httptransport.VoteResponse{}, err
	}
	return httptransport.VoteResponse{
		ProposalID: proposalID,
		VoterID:    userID,
		Option:     req.Option,
		Status:     "cast",
	}, nil
}

func (h Handler) ChangeVoteHandler(
	ctx context.Context,
	callerID string,
	userID string,
	proposalID uint64,
	req httptransport.ChangeVoteRequest,
) (httptransport.VoteResponse, error) {
	if err := h.Ledger.ChangeVote(ctx, commands.ChangeVoteCommand{
		CallerID:   callerID,
		VoterID:    userID,
		ProposalID: entities.ProposalID(proposalID),
		Option:     req.Option,
	}); err != nil {
		return httptransport.VoteResponse{}, err
	}
	return httptransport.VoteResponse{
		ProposalID: proposalID,
		VoterID:    userID,
		Option:     req.Option,
		Status:     "changed",
	}, nil
}

func (h Handler) RetractVoteHandler(
	ctx context.Context,
	callerID string,
	userID string,
	proposalID uint64,
) (httptransport.VoteResponse, error) {
	if err := h.Ledger.RetractVote(ctx, commands.RetractVoteCommand{
		CallerID:   callerID,
		VoterID:    userID,
		ProposalID: entities.ProposalID(proposalID),
	}); err != nil {
		return httptransport.VoteResponse{}, err
	}
	return httptransport.VoteResponse{
		ProposalID: proposalID,
		VoterID:    userID,
		Status:     "retracted",
	}, nil
}

func (h Handler) GetProposalHandler(ctx context.Context, proposalID uint64) (httptransport.ProposalResponse, error) {
	proposal, err := h.Queries.GetProposalDetails(ctx, entities.ProposalID(proposalID))
	if err != nil {
		return httptransport.ProposalResponse{}, err
	}
	return mapProposal(proposal), nil
}

func (h Handler) ListProposalsHandler(ctx context.Context, status string) (httptransport.ProposalListResponse, error) {
	items, err := h.Queries.ListProposals(ctx, entities.ProposalStatus(status))
	if err != nil {
		return httptransport.ProposalListResponse{}, err
	}
	response := httptransport.ProposalListResponse{Items: make([]httptransport.ProposalResponse, 0, len(items))}
	for _, item := range items {
		response.Items = append(response.Items, mapProposal(item))
	}
	return response, nil
}

func (h Handler) VoteCountHandler(ctx context.Context, proposalID uint64, option string) (httptransport.VoteCountResponse, error) {
	count, err := h.Queries.GetVoteCount(ctx, entities.ProposalID(proposalID), option)
	if err != nil {
		return httptransport.VoteCountResponse{}, err
	}
	return httptransport.VoteCountResponse{
		ProposalID: proposalID,
		Option:     option,
		Count:      count,
	}, nil
}

func (h Handler) WinnersHandler(ctx context.Context, proposalID uint64) (httptransport.WinnersResponse, error) {
	result, err := h.Queries.GetProposalWinners(ctx, entities.ProposalID(proposalID))
	if err != nil {
		return httptransport.WinnersResponse{}, err
	}
	counts := make([]httptransport.OptionCountItem, 0, len(result.Counts))
	for _, item := range result.Counts {
		counts = append(counts, httptransport.OptionCountItem{Option: item.Option, Count: item.Count})
	}
	return httptransport.WinnersResponse{
		ProposalID:  uint64(result.ProposalID),
		Winners:     append([]string{}, result.Winners...),
		IsDraw:      result.IsDraw,
		TotalVotes:  result.TotalVotes,
		Counts:      counts,
		FinalizedAt: result.FinalizedAt,
	}, nil
}

func (h Handler) VoterRecordHandler(ctx context.Context, voterID string) (httptransport.VoterRecordResponse, error) {
	record, err := h.Queries.GetVoterRecord(ctx, voterID)
	if err != nil {
		return httptransport.VoterRecordResponse{}, err
	}
	response := httptransport.VoterRecordResponse{
		VoterID:      record.VoterID,
		Created:      make([]uint64, 0, len(record.Created)),
		Participated: make([]httptransport.ParticipationItem, 0, len(record.Participated)),
	}
	for _, id := range record.Created {
		response.Created = append(response.Created, uint64(id))
	}
	for _, id := range record.Participated {
		response.Participated = append(response.Participated, httptransport.ParticipationItem{
			ProposalID: uint64(id),
			Option:     record.SelectedOptions[id],
		})
	}
	return response, nil
}

func mapProposal(proposal entities.Proposal) httptransport.ProposalResponse {
	return httptransport.ProposalResponse{
		ProposalID:       uint64(proposal.ProposalID),
		OwnerID:          proposal.OwnerID,
		Title:            proposal.Title,
		Options:          append([]string{}, proposal.Options...),
		Status:           string(proposal.Status),
		Mutability:       string(proposal.Mutability),
		StartsAt:         proposal.StartsAt,
		EndsAt:           proposal.EndsAt,
		ParticipantCount: proposal.ParticipantCount,
		Winners:          append([]string{}, proposal.Winners...),
		IsDraw:           proposal.IsDraw,
		CreatedAt:        proposal.CreatedAt,
		FinalizedAt:      proposal.FinalizedAt,
	}
}
