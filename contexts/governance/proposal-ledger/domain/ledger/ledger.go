package ledger

import (
	"fmt"
	"time"

	"agora/contexts/governance/proposal-ledger/domain/entities"
	domainerrors "agora/contexts/governance/proposal-ledger/domain/errors"
)

// Reader is the read-only view of the ledger handed out under a shared lock.
type Reader interface {
	Proposal(id entities.ProposalID) (entities.Proposal, bool)
	ProposalIDs() []entities.ProposalID
	PlanRefresh(id entities.ProposalID, now time.Time) (RefreshPlan, error)
	OptionExists(id entities.ProposalID, option string) bool
	VoteCount(id entities.ProposalID, option string) uint64
	Result(id entities.ProposalID) (entities.TallyResult, bool)
	Voter(voterID string) (entities.Voter, bool)
	PreviewFinalization(id entities.ProposalID, at time.Time) (entities.TallyResult, error)
}

// Ledger is the composite state of proposals, counters and voter indices. The
// three stores are only ever touched together under one critical section.
//
// The mutating methods sequence the stores in a fixed order and assume the
// caller already validated the operation; an error from them means the
// stores disagree with each other.
type Ledger struct {
	Proposals *ProposalStore
	Tallies   *TallyEngine
	Voters    *VoterLedger
}

func New() *Ledger {
	return &Ledger{
		Proposals: NewProposalStore(),
		Tallies:   NewTallyEngine(),
		Voters:    NewVoterLedger(),
	}
}

func (l *Ledger) Proposal(id entities.ProposalID) (entities.Proposal, bool) {
	return l.Proposals.Get(id)
}

func (l *Ledger) ProposalIDs() []entities.ProposalID {
	return l.Proposals.IDs()
}

func (l *Ledger) PlanRefresh(id entities.ProposalID, now time.Time) (RefreshPlan, error) {
	return l.Proposals.PlanRefresh(id, now)
}

func (l *Ledger) OptionExists(id entities.ProposalID, option string) bool {
	return l.Proposals.OptionExists(id, option)
}

func (l *Ledger) VoteCount(id entities.ProposalID, option string) uint64 {
	return l.Tallies.Count(id, option)
}

func (l *Ledger) Result(id entities.ProposalID) (entities.TallyResult, bool) {
	return l.Tallies.Result(id)
}

func (l *Ledger) Voter(voterID string) (entities.Voter, bool) {
	return l.Voters.Voter(voterID)
}

// PreviewFinalization returns the result closing the proposal at would seal,
// without caching anything.
func (l *Ledger) PreviewFinalization(id entities.ProposalID, at time.Time) (entities.TallyResult, error) {
	if cached, ok := l.Tallies.Result(id); ok {
		return cached, nil
	}
	proposal, ok := l.Proposals.Get(id)
	if !ok {
		return entities.TallyResult{}, fmt.Errorf("%w: %d", domainerrors.ErrProposalNotFound, id)
	}
	result := l.Tallies.Tally(id, proposal.Options)
	result.FinalizedAt = at.UTC()
	return result, nil
}

// ApplyRefresh commits a plan produced by PlanRefresh. When the plan closes the
// proposal the tally is finalized in the same step and returned.
func (l *Ledger) ApplyRefresh(plan RefreshPlan, now time.Time) (entities.TallyResult, bool, error) {
	if !plan.Changed() {
		return entities.TallyResult{}, false, nil
	}
	if err := l.Proposals.applyPlan(plan); err != nil {
		return entities.TallyResult{}, false, err
	}
	if !plan.Closes() {
		return entities.TallyResult{}, false, nil
	}
	result, err := l.finalize(plan.ProposalID, now)
	if err != nil {
		return entities.TallyResult{}, false, err
	}
	return result, true, nil
}

func (l *Ledger) finalize(id entities.ProposalID, at time.Time) (entities.TallyResult, error) {
	proposal, ok := l.Proposals.Get(id)
	if !ok {
		return entities.TallyResult{}, fmt.Errorf("%w: %d", domainerrors.ErrProposalNotFound, id)
	}
	result := l.Tallies.Finalize(id, proposal.Options, at)
	if err := l.Proposals.Finalize(id, result); err != nil {
		return entities.TallyResult{}, err
	}
	return result, nil
}

// CreateProposal stores the proposal and indexes it under its owner.
func (l *Ledger) CreateProposal(input NewProposal) (entities.ProposalID, error) {
	id, err := l.Proposals.Create(input)
	if err != nil {
		return 0, err
	}
	if err := l.Voters.RecordCreated(input.OwnerID, id); err != nil {
		return 0, err
	}
	return id, nil
}

// CastVote marks the voter as participant, counts the option and records the
// selection, in that order.
func (l *Ledger) CastVote(id entities.ProposalID, voterID string, option string) error {
	if err := l.Proposals.AddParticipant(id, voterID); err != nil {
		return err
	}
	l.Tallies.Increment(id, option)
	return l.Voters.RecordParticipation(voterID, id, option)
}

// RetractVote undoes CastVote and returns the option that was withdrawn.
func (l *Ledger) RetractVote(id entities.ProposalID, voterID string) (string, error) {
	option, ok := l.Voters.SelectedOption(voterID, id)
	if !ok {
		return "", fmt.Errorf("%w: voter %s proposal %d", domainerrors.ErrParticipationNotFound, voterID, id)
	}
	if err := l.Proposals.RemoveParticipant(id, voterID); err != nil {
		return "", err
	}
	if err := l.Tallies.Decrement(id, option); err != nil {
		return "", err
	}
	if _, err := l.Voters.RemoveParticipation(voterID, id); err != nil {
		return "", err
	}
	return option, nil
}

// ChangeVote moves the voter's count to a new option. The participant flag and
// count are untouched. It returns the previous option.
func (l *Ledger) ChangeVote(id entities.ProposalID, voterID string, option string) (string, error) {
	previous, ok := l.Voters.SelectedOption(voterID, id)
	if !ok {
		return "", fmt.Errorf("%w: voter %s proposal %d", domainerrors.ErrParticipationNotFound, voterID, id)
	}
	if err := l.Tallies.Decrement(id, previous); err != nil {
		return "", err
	}
	l.Tallies.Increment(id, option)
	if _, err := l.Voters.RemoveParticipation(voterID, id); err != nil {
		return "", err
	}
	if err := l.Voters.RecordParticipation(voterID, id, option); err != nil {
		return "", err
	}
	return previous, nil
}

// RemoveProposal deletes a proposal without participants along with its
// owner index entry and counters.
func (l *Ledger) RemoveProposal(id entities.ProposalID) error {
	proposal, ok := l.Proposals.Get(id)
	if !ok {
		return fmt.Errorf("%w: %d", domainerrors.ErrProposalNotFound, id)
	}
	if proposal.ParticipantCount != 0 {
		return fmt.Errorf("%w: proposal %d has %d participants",
			domainerrors.ErrProposalHasParticipants, id, proposal.ParticipantCount)
	}
	if err := l.Voters.RemoveCreated(proposal.OwnerID, id); err != nil {
		return err
	}
	if err := l.Proposals.Remove(id); err != nil {
		return err
	}
	l.Tallies.Drop(id)
	return nil
}

// RestoreFinalization re-seals a journaled result. The live counters must
// agree with the journaled counts.
func (l *Ledger) RestoreFinalization(result entities.TallyResult) error {
	proposal, ok := l.Proposals.Get(result.ProposalID)
	if !ok {
		return fmt.Errorf("%w: %d", domainerrors.ErrProposalNotFound, result.ProposalID)
	}
	if proposal.Status == entities.ProposalStatusFinalized {
		return nil
	}
	live := l.Tallies.Tally(result.ProposalID, proposal.Options)
	if live.TotalVotes != result.TotalVotes || len(live.Counts) != len(result.Counts) {
		return fmt.Errorf("%w: proposal %d journaled %d votes, ledger holds %d",
			domainerrors.ErrLedgerCorrupted, result.ProposalID, result.TotalVotes, live.TotalVotes)
	}
	for i := range live.Counts {
		if live.Counts[i] != result.Counts[i] {
			return fmt.Errorf("%w: proposal %d option %q count mismatch",
				domainerrors.ErrLedgerCorrupted, result.ProposalID, live.Counts[i].Option)
		}
	}
	if err := l.Proposals.markClosed(result.ProposalID); err != nil {
		return err
	}
	l.Tallies.restore(result)
	return l.Proposals.Finalize(result.ProposalID, result)
}

// CheckConsistency verifies that the counters of a proposal sum to its
// participant count and that every participant holds a selection.
func (l *Ledger) CheckConsistency(id entities.ProposalID) error {
	record, err := l.Proposals.lookup(id)
	if err != nil {
		return err
	}
	if total := l.Tallies.Total(id); total != record.proposal.ParticipantCount {
		return fmt.Errorf("%w: proposal %d counts sum to %d, participants %d",
			domainerrors.ErrLedgerCorrupted, id, total, record.proposal.ParticipantCount)
	}
	for voterID := range record.participants {
		option, ok := l.Voters.SelectedOption(voterID, id)
		if !ok || !l.Voters.ParticipationSlot(voterID, id).IsSome() {
			return fmt.Errorf("%w: participant %s of proposal %d has no ledger record",
				domainerrors.ErrLedgerCorrupted, voterID, id)
		}
		if _, known := record.optionSet[option]; !known {
			return fmt.Errorf("%w: participant %s of proposal %d selected unknown option %q",
				domainerrors.ErrLedgerCorrupted, voterID, id, option)
		}
	}
	return nil
}

var _ Reader = (*Ledger)(nil)
