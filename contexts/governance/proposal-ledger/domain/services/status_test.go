package services

import (
	"testing"
	"time"

	"agora/contexts/governance/proposal-ledger/domain/entities"
)

func TestResolveStatusIsMonotonic(t *testing.T) {
	start := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	statuses := []entities.ProposalStatus{
		entities.ProposalStatusPending,
		entities.ProposalStatusActive,
		entities.ProposalStatusClosed,
		entities.ProposalStatusFinalized,
	}
	instants := []time.Time{start.Add(-time.Minute), start, end.Add(-time.Nanosecond), end, end.Add(time.Hour)}
	for _, current := range statuses {
		for _, now := range instants {
			got := ResolveStatus(current, start, end, now)
			if got.Rank() < current.Rank() {
				t.Fatalf("status regressed from %s to %s at %s", current, got, now)
			}
			if again := ResolveStatus(got, start, end, now); again != got {
				t.Fatalf("expected idempotent resolution, got %s then %s", got, again)
			}
		}
	}
}

func TestResolveStatusLeavesNoneAlone(t *testing.T) {
	now := time.Now()
	if got := ResolveStatus(entities.ProposalStatusNone, now, now.Add(time.Hour), now); got != entities.ProposalStatusNone {
		t.Fatalf("expected none, got %s", got)
	}
}
