package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	application "agora/contexts/governance/proposal-ledger/application"
	"agora/contexts/governance/proposal-ledger/domain/entities"
	domainerrors "agora/contexts/governance/proposal-ledger/domain/errors"
	"agora/contexts/governance/proposal-ledger/domain/ledger"
	"agora/contexts/governance/proposal-ledger/ports"
)

const moduleName = "governance/proposal-ledger"

// LedgerUseCase is the single entry point for ledger mutations. Each operation
// checks capabilities through the access gate, then inside one critical
// section validates against the status the proposal would have after a lazy
// refresh, journals every resulting event, and only then mutates state.
// A failure at any step leaves the ledger and the journal untouched.
type LedgerUseCase struct {
	Ledger          ports.LedgerStore
	Journal         ports.EventJournal
	Access          ports.AccessGate
	Clock           ports.Clock
	IDGen           ports.IDGenerator
	MinVotingWindow time.Duration
	Observer        ports.OperationObserver
	Logger          *slog.Logger
}

func (uc LedgerUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (uc LedgerUseCase) requireAuthorizedCaller(ctx context.Context, callerID string) error {
	if uc.Access == nil {
		return domainerrors.ErrCallerNotAuthorized
	}
	allowed, err := uc.Access.IsAuthorizedCaller(ctx, callerID)
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("%w: %s", domainerrors.ErrCallerNotAuthorized, callerID)
	}
	return nil
}

func (uc LedgerUseCase) requireVerified(ctx context.Context, principalID string) error {
	if uc.Access == nil {
		return domainerrors.ErrVoterNotVerified
	}
	verified, err := uc.Access.IsVerified(ctx, principalID)
	if err != nil {
		return err
	}
	if !verified {
		return fmt.Errorf("%w: %s", domainerrors.ErrVoterNotVerified, principalID)
	}
	return nil
}

func (uc LedgerUseCase) isAdmin(ctx context.Context, principalID string) (bool, error) {
	if uc.Access == nil {
		return false, nil
	}
	return uc.Access.IsAdmin(ctx, principalID)
}

// commit journals the finalization implied by plan followed by events, then
// applies plan. The caller applies its own mutation afterwards.
func (uc LedgerUseCase) commit(
	ctx context.Context,
	state *ledger.Ledger,
	plan ledger.RefreshPlan,
	now time.Time,
	events ...pendingEvent,
) error {
	all := make([]pendingEvent, 0, len(events)+1)
	if plan.Closes() {
		result, err := state.PreviewFinalization(plan.ProposalID, now)
		if err != nil {
			return err
		}
		all = append(all, pendingEvent{
			eventType:  ports.EventProposalFinalized,
			proposalID: plan.ProposalID,
			data:       ports.ProposalFinalizedData{Result: result},
		})
	}
	all = append(all, events...)
	// A nil journal is allowed for pure in-memory wiring.
	if len(all) > 0 && uc.Journal != nil {
		envelopes, err := uc.buildEnvelopes(ctx, now, all)
		if err != nil {
			return err
		}
		if err := uc.Journal.AppendEvents(ctx, envelopes...); err != nil {
			return err
		}
	}
	result, finalized, err := state.ApplyRefresh(plan, now)
	if err != nil {
		return err
	}
	if finalized {
		application.ResolveLogger(uc.Logger).Info("proposal finalized",
			"event", "ledger_proposal_finalized",
			"module", moduleName,
			"layer", "application",
			"proposal_id", uint64(plan.ProposalID),
			"winners", result.Winners,
			"is_draw", result.IsDraw,
			"total_votes", result.TotalVotes,
		)
	}
	return nil
}

// RefreshStatus brings a proposal's stored status up to date and returns the
// status observers now see. Closing a proposal finalizes it.
func (uc LedgerUseCase) RefreshStatus(ctx context.Context, proposalID entities.ProposalID) (entities.ProposalStatus, error) {
	now := uc.now()
	status := entities.ProposalStatusNone
	err := uc.Ledger.Update(ctx, func(state *ledger.Ledger) error {
		plan, err := state.PlanRefresh(proposalID, now)
		if err != nil {
			return err
		}
		status = plan.Effective()
		if !plan.Changed() {
			return nil
		}
		return uc.commit(ctx, state, plan, now)
	})
	if err != nil {
		uc.reject("refresh_status", err, "proposal_id", uint64(proposalID))
		return entities.ProposalStatusNone, err
	}
	return status, nil
}

// reject logs and observes a failed operation. Domain rejections are warnings;
// anything else is an error.
func (uc LedgerUseCase) reject(operation string, err error, attrs ...any) {
	kind := domainerrors.KindOf(err)
	if uc.Observer != nil {
		uc.Observer.ObserveOperation(operation, string(kind))
	}
	logger := application.ResolveLogger(uc.Logger)
	fields := make([]any, 0, len(attrs)+10)
	fields = append(fields,
		"event", "ledger_"+operation+"_rejected",
		"module", moduleName,
		"layer", "application",
		"kind", string(kind),
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	var ledgerErr *domainerrors.Error
	if errors.As(err, &ledgerErr) && kind != domainerrors.KindInternal {
		logger.Warn("ledger operation rejected", fields...)
		return
	}
	logger.Error("ledger operation failed", fields...)
}

func (uc LedgerUseCase) succeed(operation string) {
	if uc.Observer != nil {
		uc.Observer.ObserveOperation(operation, "")
	}
}

// corrupted marks a mutation that failed after its events were journaled.
// Validation runs first, so this only happens when the stores disagree.
func corrupted(err error) error {
	return fmt.Errorf("%w: %v", domainerrors.ErrLedgerCorrupted, err)
}
