package postgresadapter

import (
	"context"
	"errors"
	"testing"
	"time"

	"agora/contexts/governance/proposal-ledger/domain/entities"
	domainerrors "agora/contexts/governance/proposal-ledger/domain/errors"
	"agora/contexts/governance/proposal-ledger/ports"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("resolve sql db failed: %v", err)
	}
	// Every pooled connection to :memory: would be a separate database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := NewRepository(db, nil)
	if err := repo.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return repo
}

func testEnvelope(eventID string, eventType string) ports.EventEnvelope {
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       time.Date(2026, 8, 10, 15, 0, 0, 0, time.UTC),
		SourceService:    "proposal-ledger",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "proposal_id",
		PartitionKey:     "1",
		Data:             []byte(`{"proposal_id":1}`),
	}
}

func TestAppendAndListEvents(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.AppendEvents(ctx,
		testEnvelope("evt_1", ports.EventProposalCreated),
		testEnvelope("evt_2", ports.EventVoteCast),
	); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := repo.AppendEvents(ctx, testEnvelope("evt_3", ports.EventVoteRetracted)); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	entries, err := repo.ListEvents(ctx, 0, 10)
	if err != nil {
		t.Fatalf("list events failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Envelope.EventType != ports.EventProposalCreated || entries[2].Envelope.EventID != "evt_3" {
		t.Fatalf("unexpected journal order %+v", entries)
	}
	if entries[0].Sequence >= entries[1].Sequence || entries[1].Sequence >= entries[2].Sequence {
		t.Fatal("sequences are not increasing")
	}

	tail, err := repo.ListEvents(ctx, entries[1].Sequence, 10)
	if err != nil {
		t.Fatalf("list tail failed: %v", err)
	}
	if len(tail) != 1 || tail[0].Envelope.EventID != "evt_3" {
		t.Fatalf("unexpected tail %+v", tail)
	}
}

func TestAppendEventsRollsBackOnConflict(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	if err := repo.AppendEvents(ctx, testEnvelope("evt_1", ports.EventProposalCreated)); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	err := repo.AppendEvents(ctx,
		testEnvelope("evt_2", ports.EventVoteCast),
		testEnvelope("evt_1", ports.EventProposalRemoved),
	)
	if !errors.Is(err, domainerrors.ErrJournalConflict) {
		t.Fatalf("expected journal conflict, got %v", err)
	}
	entries, _ := repo.ListEvents(ctx, 0, 10)
	if len(entries) != 1 {
		t.Fatalf("expected rollback to keep 1 entry, got %d", len(entries))
	}

	if err := repo.AppendEvents(ctx, testEnvelope("evt_1", ports.EventProposalCreated)); err != nil {
		t.Fatalf("identical re-append failed: %v", err)
	}
}

func TestOutboxLifecycle(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	if err := repo.AppendEvents(ctx,
		testEnvelope("evt_1", ports.EventProposalCreated),
		testEnvelope("evt_2", ports.EventVoteCast),
	); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	pending, err := repo.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 2 || pending[0].OutboxID != "evt_1" {
		t.Fatalf("unexpected pending rows %+v", pending)
	}
	if err := repo.MarkOutboxPublished(ctx, "evt_1", time.Now().UTC()); err != nil {
		t.Fatalf("mark published failed: %v", err)
	}
	pending, _ = repo.ListPendingOutbox(ctx, 10)
	if len(pending) != 1 || pending[0].OutboxID != "evt_2" {
		t.Fatalf("unexpected pending rows after publish %+v", pending)
	}
	if err := repo.MarkOutboxPublished(ctx, "evt_missing", time.Now().UTC()); !errors.Is(err, domainerrors.ErrJournalConflict) {
		t.Fatalf("expected conflict for unknown outbox row, got %v", err)
	}
}

func TestReserveEvent(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	expires := time.Now().UTC().Add(time.Hour)

	processed, err := repo.ReserveEvent(ctx, "evt_1", "hash", expires)
	if err != nil || processed {
		t.Fatalf("first reserve: processed=%v err=%v", processed, err)
	}
	processed, err = repo.ReserveEvent(ctx, "evt_1", "hash", expires)
	if err != nil || !processed {
		t.Fatalf("second reserve: processed=%v err=%v", processed, err)
	}
	if _, err := repo.ReserveEvent(ctx, "evt_1", "other", expires); !errors.Is(err, domainerrors.ErrJournalConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestFinalizedResultsArchive(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	result := entities.TallyResult{
		ProposalID:  4,
		Counts:      []entities.OptionCount{{Option: "one", Count: 2}, {Option: "two", Count: 1}},
		TotalVotes:  3,
		Winners:     []string{"one"},
		FinalizedAt: time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
	}
	if err := repo.SaveFinalizedResult(ctx, result); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := repo.SaveFinalizedResult(ctx, result); err != nil {
		t.Fatalf("idempotent save failed: %v", err)
	}

	got, err := repo.GetFinalizedResult(ctx, 4)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.TotalVotes != 3 || len(got.Counts) != 2 || got.Counts[0].Option != "one" || got.Winners[0] != "one" {
		t.Fatalf("unexpected result %+v", got)
	}
	if _, err := repo.GetFinalizedResult(ctx, 5); !errors.Is(err, domainerrors.ErrProposalNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	empty := entities.TallyResult{ProposalID: 2, Counts: []entities.OptionCount{{Option: "a"}, {Option: "b"}}}
	if err := repo.SaveFinalizedResult(ctx, empty); err != nil {
		t.Fatalf("save empty failed: %v", err)
	}
	all, err := repo.ListFinalizedResults(ctx, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 2 || all[0].ProposalID != 2 || all[0].Winners == nil || len(all[0].Winners) != 0 {
		t.Fatalf("unexpected listing %+v", all)
	}
}
