package commands

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"agora/contexts/governance/proposal-ledger/adapters/memory"
	"agora/contexts/governance/proposal-ledger/domain/entities"
	"agora/contexts/governance/proposal-ledger/domain/ledger"
	"agora/contexts/governance/proposal-ledger/ports"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeAccess struct {
	callers  map[string]bool
	verified map[string]bool
	admins   map[string]bool
	err      error
}

func newFakeAccess() *fakeAccess {
	return &fakeAccess{
		callers:  map[string]bool{"svc-facade": true},
		verified: map[string]bool{"owner-1": true, "voter-1": true, "voter-2": true, "voter-3": true, "admin-1": true},
		admins:   map[string]bool{"admin-1": true},
	}
}

func (a *fakeAccess) IsVerified(_ context.Context, principalID string) (bool, error) {
	return a.verified[principalID], a.err
}

func (a *fakeAccess) IsAuthorizedCaller(_ context.Context, principalID string) (bool, error) {
	return a.callers[principalID], a.err
}

func (a *fakeAccess) IsAdmin(_ context.Context, principalID string) (bool, error) {
	return a.admins[principalID], a.err
}

// flakyJournal fails appends while failing is set.
type flakyJournal struct {
	ports.EventJournal
	failing bool
}

var errJournalDown = errors.New("journal unavailable")

func (j *flakyJournal) AppendEvents(ctx context.Context, events ...ports.EventEnvelope) error {
	if j.failing {
		return errJournalDown
	}
	return j.EventJournal.AppendEvents(ctx, events...)
}

type harness struct {
	store   *memory.Store
	journal *flakyJournal
	access  *fakeAccess
	clock   *fakeClock
	uc      LedgerUseCase
}

func newHarness() *harness {
	store := memory.NewStore()
	journal := &flakyJournal{EventJournal: store}
	access := newFakeAccess()
	clock := &fakeClock{now: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)}
	return &harness{
		store:   store,
		journal: journal,
		access:  access,
		clock:   clock,
		uc: LedgerUseCase{
			Ledger:  store,
			Journal: journal,
			Access:  access,
			Clock:   clock,
			IDGen:   store,
		},
	}
}

func (h *harness) createProposal(t *testing.T, options []string, mutability entities.VoteMutability) entities.Proposal {
	t.Helper()
	now := h.clock.Now()
	proposal, err := h.uc.CreateProposal(context.Background(), CreateProposalCommand{
		CallerID:   "svc-facade",
		CreatorID:  "owner-1",
		Title:      "Community budget",
		Options:    options,
		Mutability: mutability,
		StartsAt:   now.Add(11 * time.Minute),
		EndsAt:     now.Add(10 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create proposal failed: %v", err)
	}
	return proposal
}

func (h *harness) cast(t *testing.T, proposalID entities.ProposalID, voterID string, option string) {
	t.Helper()
	if err := h.uc.CastVote(context.Background(), CastVoteCommand{
		CallerID:   "svc-facade",
		VoterID:    voterID,
		ProposalID: proposalID,
		Option:     option,
	}); err != nil {
		t.Fatalf("cast vote %s/%s failed: %v", voterID, option, err)
	}
}

func (h *harness) proposal(t *testing.T, proposalID entities.ProposalID) entities.Proposal {
	t.Helper()
	var proposal entities.Proposal
	_ = h.store.View(context.Background(), func(state ledger.Reader) error {
		proposal, _ = state.Proposal(proposalID)
		return nil
	})
	return proposal
}

func (h *harness) count(proposalID entities.ProposalID, option string) uint64 {
	var count uint64
	_ = h.store.View(context.Background(), func(state ledger.Reader) error {
		count = state.VoteCount(proposalID, option)
		return nil
	})
	return count
}

func (h *harness) journalLength(t *testing.T) int {
	t.Helper()
	entries, err := h.store.ListEvents(context.Background(), 0, 1000)
	if err != nil {
		t.Fatalf("list events failed: %v", err)
	}
	return len(entries)
}
