package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"agora/contexts/governance/proposal-ledger/domain/entities"
	domainerrors "agora/contexts/governance/proposal-ledger/domain/errors"
	"agora/contexts/governance/proposal-ledger/ports"
)

func testEnvelope(eventID string, eventType string) ports.EventEnvelope {
	return ports.EventEnvelope{
		EventID:       eventID,
		EventType:     eventType,
		OccurredAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		SourceService: "proposal-ledger",
		SchemaVersion: 1,
		PartitionKey:  "1",
		Data:          []byte(`{"proposal_id":1}`),
	}
}

func TestAppendEventsAssignsSequenceInOrder(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	if err := store.AppendEvents(ctx,
		testEnvelope("evt_1", ports.EventProposalCreated),
		testEnvelope("evt_2", ports.EventVoteCast),
	); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := store.AppendEvents(ctx, testEnvelope("evt_3", ports.EventVoteCast)); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	entries, err := store.ListEvents(ctx, 0, 10)
	if err != nil {
		t.Fatalf("list events failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, entry := range entries {
		if entry.Sequence != int64(i+1) {
			t.Fatalf("entry %d has sequence %d", i, entry.Sequence)
		}
	}

	tail, err := store.ListEvents(ctx, 2, 10)
	if err != nil {
		t.Fatalf("list tail failed: %v", err)
	}
	if len(tail) != 1 || tail[0].Envelope.EventID != "evt_3" {
		t.Fatalf("unexpected tail %+v", tail)
	}
}

func TestAppendEventsIsAllOrNothing(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	if err := store.AppendEvents(ctx, testEnvelope("evt_1", ports.EventProposalCreated)); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	conflicting := testEnvelope("evt_1", ports.EventProposalRemoved)
	err := store.AppendEvents(ctx, testEnvelope("evt_2", ports.EventVoteCast), conflicting)
	if !errors.Is(err, domainerrors.ErrJournalConflict) {
		t.Fatalf("expected journal conflict, got %v", err)
	}
	entries, _ := store.ListEvents(ctx, 0, 10)
	if len(entries) != 1 {
		t.Fatalf("expected failed batch to leave one entry, got %d", len(entries))
	}

	if err := store.AppendEvents(ctx, testEnvelope("evt_1", ports.EventProposalCreated)); err != nil {
		t.Fatalf("identical re-append should be a no-op: %v", err)
	}
	entries, _ = store.ListEvents(ctx, 0, 10)
	if len(entries) != 1 {
		t.Fatalf("expected re-append to keep one entry, got %d", len(entries))
	}
}

func TestOutboxFollowsJournalOrder(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	for _, id := range []string{"evt_a", "evt_b", "evt_c"} {
		if err := store.AppendEvents(ctx, testEnvelope(id, ports.EventVoteCast)); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	pending, err := store.ListPendingOutbox(ctx, 2)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 2 || pending[0].OutboxID != "evt_a" || pending[1].OutboxID != "evt_b" {
		t.Fatalf("unexpected pending rows %+v", pending)
	}
	if err := store.MarkOutboxPublished(ctx, "evt_a", time.Now().UTC()); err != nil {
		t.Fatalf("mark published failed: %v", err)
	}
	pending, _ = store.ListPendingOutbox(ctx, 10)
	if len(pending) != 2 || pending[0].OutboxID != "evt_b" {
		t.Fatalf("unexpected pending rows after publish %+v", pending)
	}
}

func TestReserveEventDetectsReplay(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	expires := time.Now().UTC().Add(time.Hour)

	processed, err := store.ReserveEvent(ctx, "evt_1", "hash", expires)
	if err != nil || processed {
		t.Fatalf("first reserve: processed=%v err=%v", processed, err)
	}
	processed, err = store.ReserveEvent(ctx, "evt_1", "hash", expires)
	if err != nil || !processed {
		t.Fatalf("second reserve: processed=%v err=%v", processed, err)
	}
	if _, err := store.ReserveEvent(ctx, "evt_1", "other", expires); !errors.Is(err, domainerrors.ErrJournalConflict) {
		t.Fatalf("expected conflict on hash mismatch, got %v", err)
	}
}

func TestResultsArchiveRoundTrip(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	result := entities.TallyResult{
		ProposalID: 7,
		Counts:     []entities.OptionCount{{Option: "yes", Count: 2}, {Option: "no", Count: 1}},
		TotalVotes: 3,
		Winners:    []string{"yes"},
	}
	if err := store.SaveFinalizedResult(ctx, result); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	got, err := store.GetFinalizedResult(ctx, 7)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.TotalVotes != 3 || len(got.Winners) != 1 || got.Winners[0] != "yes" {
		t.Fatalf("unexpected result %+v", got)
	}
	if _, err := store.GetFinalizedResult(ctx, 8); !errors.Is(err, domainerrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
