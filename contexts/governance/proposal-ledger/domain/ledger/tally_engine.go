package ledger

import (
	"fmt"
	"time"

	"agora/contexts/governance/proposal-ledger/domain/entities"
	domainerrors "agora/contexts/governance/proposal-ledger/domain/errors"
	"agora/contexts/governance/proposal-ledger/domain/services"
)

// TallyEngine owns the per-(proposal, option) vote counters and the cached
// result of every finalized proposal.
type TallyEngine struct {
	counts  map[entities.ProposalID]map[string]uint64
	results map[entities.ProposalID]entities.TallyResult
}

func NewTallyEngine() *TallyEngine {
	return &TallyEngine{
		counts:  make(map[entities.ProposalID]map[string]uint64),
		results: make(map[entities.ProposalID]entities.TallyResult),
	}
}

func (e *TallyEngine) Increment(id entities.ProposalID, option string) {
	counts, ok := e.counts[id]
	if !ok {
		counts = make(map[string]uint64)
		e.counts[id] = counts
	}
	counts[option]++
}

// Decrement fails instead of wrapping when the counter is already zero.
func (e *TallyEngine) Decrement(id entities.ProposalID, option string) error {
	counts := e.counts[id]
	if counts[option] == 0 {
		return fmt.Errorf("%w: proposal %d option %q", domainerrors.ErrTallyUnderflow, id, option)
	}
	counts[option]--
	if counts[option] == 0 {
		delete(counts, option)
	}
	return nil
}

func (e *TallyEngine) Count(id entities.ProposalID, option string) uint64 {
	return e.counts[id][option]
}

func (e *TallyEngine) Total(id entities.ProposalID) uint64 {
	var total uint64
	for _, count := range e.counts[id] {
		total += count
	}
	return total
}

// Tally counts the proposal over its declared options. Ties keep declaration
// order.
func (e *TallyEngine) Tally(id entities.ProposalID, options []string) entities.TallyResult {
	counts := make([]uint64, len(options))
	result := entities.TallyResult{
		ProposalID: id,
		Counts:     make([]entities.OptionCount, 0, len(options)),
	}
	for i, option := range options {
		counts[i] = e.Count(id, option)
		result.TotalVotes += counts[i]
		result.Counts = append(result.Counts, entities.OptionCount{Option: option, Count: counts[i]})
	}
	result.Winners, result.IsDraw = services.ComputeWinners(options, counts)
	return result
}

// Finalize computes and caches the result once. Later calls return the cached
// result untouched.
func (e *TallyEngine) Finalize(id entities.ProposalID, options []string, at time.Time) entities.TallyResult {
	if cached, ok := e.results[id]; ok {
		return cached.Clone()
	}
	result := e.Tally(id, options)
	result.FinalizedAt = at.UTC()
	e.results[id] = result
	return result.Clone()
}

func (e *TallyEngine) Result(id entities.ProposalID) (entities.TallyResult, bool) {
	result, ok := e.results[id]
	if !ok {
		return entities.TallyResult{}, false
	}
	return result.Clone(), true
}

// restore caches a journaled finalization without recomputing it.
func (e *TallyEngine) restore(result entities.TallyResult) {
	e.results[result.ProposalID] = result.Clone()
}

// Drop forgets every counter of a removed proposal.
func (e *TallyEngine) Drop(id entities.ProposalID) {
	delete(e.counts, id)
	delete(e.results, id)
}
