package commands

import (
	"context"
	"fmt"
	"log/slog"

	application "agora/contexts/governance/proposal-ledger/application"
	domainerrors "agora/contexts/governance/proposal-ledger/domain/errors"
	"agora/contexts/governance/proposal-ledger/domain/ledger"
	"agora/contexts/governance/proposal-ledger/ports"
)

const defaultReplayPageSize = 500

// ReplayUseCase rebuilds ledger state from the journal. Journaled events were
// validated when they were committed, so time rules are not re-checked;
// the structural checks of the ledger still apply.
type ReplayUseCase struct {
	Ledger   ports.LedgerStore
	Journal  ports.EventJournal
	PageSize int
	Logger   *slog.Logger
}

type ReplayResult struct {
	Applied      int
	LastSequence int64
}

func (uc ReplayUseCase) Execute(ctx context.Context) (ReplayResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	pageSize := uc.PageSize
	if pageSize <= 0 {
		pageSize = defaultReplayPageSize
	}

	result := ReplayResult{}
	err := uc.Ledger.Update(ctx, func(state *ledger.Ledger) error {
		for {
			entries, err := uc.Journal.ListEvents(ctx, result.LastSequence, pageSize)
			if err != nil {
				return err
			}
			for _, entry := range entries {
				if err := applyEvent(state, entry.Envelope); err != nil {
					return fmt.Errorf("replay sequence %d (%s): %w", entry.Sequence, entry.Envelope.EventType, err)
				}
				result.Applied++
				result.LastSequence = entry.Sequence
			}
			if len(entries) < pageSize {
				return nil
			}
		}
	})
	if err != nil {
		logger.Error("ledger replay failed",
			"event", "ledger_replay_failed",
			"module", moduleName,
			"layer", "application",
			"applied", result.Applied,
			"last_sequence", result.LastSequence,
			"error", err.Error(),
		)
		return ReplayResult{}, err
	}
	logger.Info("ledger replayed",
		"event", "ledger_replay_completed",
		"module", moduleName,
		"layer", "application",
		"applied", result.Applied,
		"last_sequence", result.LastSequence,
	)
	return result, nil
}

func applyEvent(state *ledger.Ledger, envelope ports.EventEnvelope) error {
	switch envelope.EventType {
	case ports.EventProposalCreated:
		var data ports.ProposalCreatedData
		if err := envelope.DecodeData(&data); err != nil {
			return err
		}
		if next := state.Proposals.NextID(); next != data.ProposalID {
			return fmt.Errorf("%w: journal holds proposal %d, next id is %d",
				domainerrors.ErrLedgerCorrupted, data.ProposalID, next)
		}
		_, err := state.CreateProposal(ledger.NewProposal{
			OwnerID:    data.OwnerID,
			Title:      data.Title,
			Options:    data.Options,
			Mutability: data.Mutability,
			StartsAt:   data.StartsAt,
			EndsAt:     data.EndsAt,
			CreatedAt:  data.CreatedAt,
		})
		return err
	case ports.EventVoteCast:
		var data ports.VoteCastData
		if err := envelope.DecodeData(&data); err != nil {
			return err
		}
		if !state.OptionExists(data.ProposalID, data.Option) {
			return fmt.Errorf("%w: %q", domainerrors.ErrUnknownOption, data.Option)
		}
		return state.CastVote(data.ProposalID, data.VoterID, data.Option)
	case ports.EventVoteRetracted:
		var data ports.VoteRetractedData
		if err := envelope.DecodeData(&data); err != nil {
			return err
		}
		_, err := state.RetractVote(data.ProposalID, data.VoterID)
		return err
	case ports.EventVoteChanged:
		var data ports.VoteChangedData
		if err := envelope.DecodeData(&data); err != nil {
			return err
		}
		if !state.OptionExists(data.ProposalID, data.ToOption) {
			return fmt.Errorf("%w: %q", domainerrors.ErrUnknownOption, data.ToOption)
		}
		_, err := state.ChangeVote(data.ProposalID, data.VoterID, data.ToOption)
		return err
	case ports.EventProposalRemoved:
		var data ports.ProposalRemovedData
		if err := envelope.DecodeData(&data); err != nil {
			return err
		}
		return state.RemoveProposal(data.ProposalID)
	case ports.EventProposalFinalized:
		var data ports.ProposalFinalizedData
		if err := envelope.DecodeData(&data); err != nil {
			return err
		}
		return state.RestoreFinalization(data.Result)
	default:
		return fmt.Errorf("%w: %s", domainerrors.ErrUnknownEventType, envelope.EventType)
	}
}
