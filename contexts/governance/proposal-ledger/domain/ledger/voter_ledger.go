package ledger

import (
	"fmt"
	"strings"

	"agora/contexts/governance/proposal-ledger/domain/entities"
	domainerrors "agora/contexts/governance/proposal-ledger/domain/errors"
)

// slottedList is an unordered list of proposal ids with O(1) membership and
// O(1) removal. slots[id] always points at the position of id in items.
type slottedList struct {
	items []entities.ProposalID
	slots map[entities.ProposalID]entities.SlotIndex
}

func newSlottedList() slottedList {
	return slottedList{slots: make(map[entities.ProposalID]entities.SlotIndex)}
}

func (l *slottedList) slot(id entities.ProposalID) entities.SlotIndex {
	return l.slots[id]
}

func (l *slottedList) add(id entities.ProposalID) bool {
	if l.slots[id].IsSome() {
		return false
	}
	l.items = append(l.items, id)
	l.slots[id] = entities.SlotAt(len(l.items) - 1)
	return true
}

// remove swaps the last element into the removed position and pops the tail.
func (l *slottedList) remove(id entities.ProposalID) bool {
	position, ok := l.slots[id].Get()
	if !ok {
		return false
	}
	last := len(l.items) - 1
	if position != last {
		moved := l.items[last]
		l.items[position] = moved
		l.slots[moved] = entities.SlotAt(position)
	}
	l.items = l.items[:last]
	delete(l.slots, id)
	return true
}

func (l *slottedList) snapshot() []entities.ProposalID {
	return append([]entities.ProposalID{}, l.items...)
}

func (l *slottedList) empty() bool {
	return len(l.items) == 0
}

type voterRecord struct {
	created      slottedList
	participated slottedList
	selected     map[entities.ProposalID]string
}

func newVoterRecord() *voterRecord {
	return &voterRecord{
		created:      newSlottedList(),
		participated: newSlottedList(),
		selected:     make(map[entities.ProposalID]string),
	}
}

func (r *voterRecord) empty() bool {
	return r.created.empty() && r.participated.empty()
}

// VoterLedger keeps per-voter indices of created and participated proposals
// and the option each voter selected. For every voter v and proposal P,
// P is in participated(v) exactly when selected[P] is present.
type VoterLedger struct {
	voters map[string]*voterRecord
}

func NewVoterLedger() *VoterLedger {
	return &VoterLedger{voters: make(map[string]*voterRecord)}
}

func (l *VoterLedger) record(voterID string, create bool) *voterRecord {
	key := strings.TrimSpace(voterID)
	record, ok := l.voters[key]
	if !ok && create {
		record = newVoterRecord()
		l.voters[key] = record
	}
	return record
}

func (l *VoterLedger) dropIfEmpty(voterID string) {
	key := strings.TrimSpace(voterID)
	if record, ok := l.voters[key]; ok && record.empty() {
		delete(l.voters, key)
	}
}

func (l *VoterLedger) RecordParticipation(voterID string, id entities.ProposalID, option string) error {
	if record := l.record(voterID, false); record != nil && record.participated.slot(id).IsSome() {
		return fmt.Errorf("%w: voter %s already participated in proposal %d", domainerrors.ErrDuplicateRecord, voterID, id)
	}
	record := l.record(voterID, true)
	record.participated.add(id)
	record.selected[id] = option
	return nil
}

// RemoveParticipation deletes the participation record and returns the option
// that was selected.
func (l *VoterLedger) RemoveParticipation(voterID string, id entities.ProposalID) (string, error) {
	record := l.record(voterID, false)
	if record == nil || !record.participated.remove(id) {
		return "", fmt.Errorf("%w: voter %s proposal %d", domainerrors.ErrParticipationNotFound, voterID, id)
	}
	option := record.selected[id]
	delete(record.selected, id)
	l.dropIfEmpty(voterID)
	return option, nil
}

func (l *VoterLedger) RecordCreated(voterID string, id entities.ProposalID) error {
	if record := l.record(voterID, false); record != nil && record.created.slot(id).IsSome() {
		return fmt.Errorf("%w: voter %s already created proposal %d", domainerrors.ErrDuplicateRecord, voterID, id)
	}
	l.record(voterID, true).created.add(id)
	return nil
}

func (l *VoterLedger) RemoveCreated(voterID string, id entities.ProposalID) error {
	record := l.record(voterID, false)
	if record == nil || !record.created.remove(id) {
		return fmt.Errorf("%w: voter %s proposal %d", domainerrors.ErrCreationNotFound, voterID, id)
	}
	l.dropIfEmpty(voterID)
	return nil
}

func (l *VoterLedger) SelectedOption(voterID string, id entities.ProposalID) (string, bool) {
	record := l.record(voterID, false)
	if record == nil {
		return "", false
	}
	option, ok := record.selected[id]
	return option, ok
}

func (l *VoterLedger) ParticipationSlot(voterID string, id entities.ProposalID) entities.SlotIndex {
	record := l.record(voterID, false)
	if record == nil {
		return entities.NoSlot()
	}
	return record.participated.slot(id)
}

func (l *VoterLedger) CreationSlot(voterID string, id entities.ProposalID) entities.SlotIndex {
	record := l.record(voterID, false)
	if record == nil {
		return entities.NoSlot()
	}
	return record.created.slot(id)
}

func (l *VoterLedger) Participated(voterID string) []entities.ProposalID {
	record := l.record(voterID, false)
	if record == nil {
		return []entities.ProposalID{}
	}
	return record.participated.snapshot()
}

func (l *VoterLedger) Created(voterID string) []entities.ProposalID {
	record := l.record(voterID, false)
	if record == nil {
		return []entities.ProposalID{}
	}
	return record.created.snapshot()
}

// Voter returns a snapshot of the voter's record. Voters without any created
// or participated proposal report false.
func (l *VoterLedger) Voter(voterID string) (entities.Voter, bool) {
	record := l.record(voterID, false)
	voter := entities.Voter{
		VoterID:         strings.TrimSpace(voterID),
		Created:         []entities.ProposalID{},
		Participated:    []entities.ProposalID{},
		SelectedOptions: map[entities.ProposalID]string{},
	}
	if record == nil {
		return voter, false
	}
	voter.Created = record.created.snapshot()
	voter.Participated = record.participated.snapshot()
	for id, option := range record.selected {
		voter.SelectedOptions[id] = option
	}
	return voter, true
}

func (l *VoterLedger) VoterCount() int {
	return len(l.voters)
}
