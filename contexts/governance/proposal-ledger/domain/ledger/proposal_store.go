package ledger

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"agora/contexts/governance/proposal-ledger/domain/entities"
	domainerrors "agora/contexts/governance/proposal-ledger/domain/errors"
	"agora/contexts/governance/proposal-ledger/domain/services"
)

// NewProposal is the already-validated input for ProposalStore.Create.
type NewProposal struct {
	OwnerID    string
	Title      string
	Options    []string
	Mutability entities.VoteMutability
	StartsAt   time.Time
	EndsAt     time.Time
	CreatedAt  time.Time
}

// RefreshPlan describes the lazy status transition a proposal is due for.
// Planning never mutates; ApplyRefresh commits the plan.
type RefreshPlan struct {
	ProposalID entities.ProposalID
	From       entities.ProposalStatus
	To         entities.ProposalStatus
}

func (p RefreshPlan) Changed() bool {
	return p.From != p.To
}

// Closes reports whether applying the plan closes the proposal, which always
// finalizes its tally in the same step.
func (p RefreshPlan) Closes() bool {
	return p.Changed() && p.To == entities.ProposalStatusClosed
}

// Effective is the status observers see once the plan is applied.
func (p RefreshPlan) Effective() entities.ProposalStatus {
	if p.To == entities.ProposalStatusClosed {
		return entities.ProposalStatusFinalized
	}
	return p.To
}

type proposalRecord struct {
	proposal     entities.Proposal
	optionSet    map[string]struct{}
	participants map[string]struct{}
}

// ProposalStore holds authoritative proposal records and their lifecycle
// status. It is not safe for concurrent use; callers serialize access.
type ProposalStore struct {
	lastID  entities.ProposalID
	records map[entities.ProposalID]*proposalRecord
}

func NewProposalStore() *ProposalStore {
	return &ProposalStore{records: make(map[entities.ProposalID]*proposalRecord)}
}

// NextID is the id the next Create call will assign.
func (s *ProposalStore) NextID() entities.ProposalID {
	return s.lastID + 1
}

func (s *ProposalStore) Create(input NewProposal) (entities.ProposalID, error) {
	optionSet := make(map[string]struct{}, len(input.Options))
	for _, option := range input.Options {
		if option == "" {
			return 0, fmt.Errorf("%w: empty option", domainerrors.ErrInvalidOptions)
		}
		if _, ok := optionSet[option]; ok {
			return 0, fmt.Errorf("%w: %q", domainerrors.ErrDuplicateOption, option)
		}
		optionSet[option] = struct{}{}
	}

	id := s.NextID()
	s.lastID = id
	s.records[id] = &proposalRecord{
		proposal: entities.Proposal{
			ProposalID: id,
			OwnerID:    strings.TrimSpace(input.OwnerID),
			Title:      input.Title,
			Options:    append([]string(nil), input.Options...),
			Status:     entities.ProposalStatusPending,
			Mutability: input.Mutability,
			StartsAt:   input.StartsAt.UTC(),
			EndsAt:     input.EndsAt.UTC(),
			Winners:    []string{},
			CreatedAt:  input.CreatedAt.UTC(),
		},
		optionSet:    optionSet,
		participants: make(map[string]struct{}),
	}
	return id, nil
}

func (s *ProposalStore) Exists(id entities.ProposalID) bool {
	if !id.Exists() {
		return false
	}
	_, ok := s.records[id]
	return ok
}

func (s *ProposalStore) lookup(id entities.ProposalID) (*proposalRecord, error) {
	record, ok := s.records[id]
	if !id.Exists() || !ok {
		return nil, fmt.Errorf("%w: %d", domainerrors.ErrProposalNotFound, id)
	}
	return record, nil
}

func (s *ProposalStore) Get(id entities.ProposalID) (entities.Proposal, bool) {
	record, err := s.lookup(id)
	if err != nil {
		return entities.Proposal{}, false
	}
	return record.proposal.Clone(), true
}

// Status returns the stored status, or none for unknown ids.
func (s *ProposalStore) Status(id entities.ProposalID) entities.ProposalStatus {
	record, err := s.lookup(id)
	if err != nil {
		return entities.ProposalStatusNone
	}
	return record.proposal.Status
}

func (s *ProposalStore) OptionExists(id entities.ProposalID, option string) bool {
	record, err := s.lookup(id)
	if err != nil {
		return false
	}
	_, ok := record.optionSet[option]
	return ok
}

func (s *ProposalStore) IsParticipant(id entities.ProposalID, voterID string) bool {
	record, err := s.lookup(id)
	if err != nil {
		return false
	}
	_, ok := record.participants[strings.TrimSpace(voterID)]
	return ok
}

func (s *ProposalStore) AddParticipant(id entities.ProposalID, voterID string) error {
	record, err := s.lookup(id)
	if err != nil {
		return err
	}
	key := strings.TrimSpace(voterID)
	if _, ok := record.participants[key]; ok {
		return fmt.Errorf("%w: voter %s proposal %d", domainerrors.ErrAlreadyVoted, key, id)
	}
	record.participants[key] = struct{}{}
	record.proposal.ParticipantCount++
	return nil
}

func (s *ProposalStore) RemoveParticipant(id entities.ProposalID, voterID string) error {
	record, err := s.lookup(id)
	if err != nil {
		return err
	}
	key := strings.TrimSpace(voterID)
	if _, ok := record.participants[key]; !ok {
		return fmt.Errorf("%w: voter %s proposal %d", domainerrors.ErrParticipationNotFound, key, id)
	}
	delete(record.participants, key)
	record.proposal.ParticipantCount--
	return nil
}

// PlanRefresh resolves the status the proposal holds at now without storing it.
func (s *ProposalStore) PlanRefresh(id entities.ProposalID, now time.Time) (RefreshPlan, error) {
	record, err := s.lookup(id)
	if err != nil {
		return RefreshPlan{}, err
	}
	current := record.proposal.Status
	return RefreshPlan{
		ProposalID: id,
		From:       current,
		To:         services.ResolveStatus(current, record.proposal.StartsAt, record.proposal.EndsAt, now),
	}, nil
}

// applyPlan stores the status of a plan produced by PlanRefresh. The plan must
// still start from the stored status.
func (s *ProposalStore) applyPlan(plan RefreshPlan) error {
	record, err := s.lookup(plan.ProposalID)
	if err != nil {
		return err
	}
	if record.proposal.Status != plan.From {
		return fmt.Errorf("%w: proposal %d is %s, plan expected %s",
			domainerrors.ErrLedgerCorrupted, plan.ProposalID, record.proposal.Status, plan.From)
	}
	record.proposal.Status = plan.To
	return nil
}

// Finalize seals the tally outcome onto a closed proposal. Winners are written
// exactly once.
func (s *ProposalStore) Finalize(id entities.ProposalID, result entities.TallyResult) error {
	record, err := s.lookup(id)
	if err != nil {
		return err
	}
	switch record.proposal.Status {
	case entities.ProposalStatusFinalized:
		return nil
	case entities.ProposalStatusClosed:
	default:
		return fmt.Errorf("%w: finalize proposal %d in status %s", domainerrors.ErrLedgerCorrupted, id, record.proposal.Status)
	}
	finalizedAt := result.FinalizedAt.UTC()
	record.proposal.Status = entities.ProposalStatusFinalized
	record.proposal.Winners = append([]string{}, result.Winners...)
	record.proposal.IsDraw = result.IsDraw
	record.proposal.FinalizedAt = &finalizedAt
	return nil
}

// markClosed moves a proposal straight to closed. Replay uses it because
// intermediate transitions are derived and never journaled.
func (s *ProposalStore) markClosed(id entities.ProposalID) error {
	record, err := s.lookup(id)
	if err != nil {
		return err
	}
	if record.proposal.Status.Rank() < entities.ProposalStatusClosed.Rank() {
		record.proposal.Status = entities.ProposalStatusClosed
	}
	return nil
}

// Remove deletes a proposal nobody has voted on. The id is never reassigned.
func (s *ProposalStore) Remove(id entities.ProposalID) error {
	record, err := s.lookup(id)
	if err != nil {
		return err
	}
	if record.proposal.ParticipantCount != 0 {
		return fmt.Errorf("%w: proposal %d has %d participants", domainerrors.ErrProposalHasParticipants, id, record.proposal.ParticipantCount)
	}
	delete(s.records, id)
	return nil
}

// Count is the number of live proposals.
func (s *ProposalStore) Count() int {
	return len(s.records)
}

func (s *ProposalStore) IDs() []entities.ProposalID {
	ids := make([]entities.ProposalID, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
