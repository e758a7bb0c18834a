package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	ledgermemory "agora/contexts/governance/proposal-ledger/adapters/memory"
	"agora/contexts/governance/proposal-ledger/application/workers"
	"agora/contexts/governance/proposal-ledger/domain/entities"
	"agora/contexts/governance/proposal-ledger/ports"
	ledgerhttp "agora/contexts/governance/proposal-ledger/transport/http"
	"agora/internal/platform/config"
	"agora/internal/platform/messaging"

	"go.uber.org/goleak"
)

func sqliteConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.DatabaseDriver = config.DriverSQLite
	cfg.DatabaseDSN = filepath.Join(t.TempDir(), "agora.db")
	cfg.BootstrapAdmins = []string{"admin-1"}
	cfg.AuthorizedCallers = []string{"svc-gateway"}
	cfg.MetricsEnabled = false
	return cfg
}

func call(t *testing.T, app *APIApp, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("X-Caller-Id", "svc-gateway")
	req.Header.Set("X-User-Id", userID)
	rr := httptest.NewRecorder()
	app.server.Handler().ServeHTTP(rr, req)
	return rr
}

func TestBuildWorkerRequiresPersistentJournal(t *testing.T) {
	cfg := config.Defaults()
	if _, err := BuildWorker(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected memory driver to be rejected for the worker")
	}
}

func TestAPIReplaysJournalAfterRestart(t *testing.T) {
	cfg := sqliteConfig(t)
	ctx := context.Background()

	first, err := BuildAPI(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("build api: %v", err)
	}
	for _, voter := range []string{"alice", "bob"} {
		if rr := call(t, first, http.MethodPost, "/api/access/v1/voters", voter, map[string]any{"attributes": map[string]string{}}); rr.Code != http.StatusCreated {
			t.Fatalf("register %s: %d %s", voter, rr.Code, rr.Body.String())
		}
		if rr := call(t, first, http.MethodPost, "/api/access/v1/voters/"+voter+"/verify", "admin-1", nil); rr.Code != http.StatusOK {
			t.Fatalf("verify %s: %d %s", voter, rr.Code, rr.Body.String())
		}
	}

	startsAt := time.Now().UTC().Add(300 * time.Millisecond)
	rr := call(t, first, http.MethodPost, "/v1/proposals", "alice", ledgerhttp.CreateProposalRequest{
		Title:    "Replayed",
		Options:  []string{"up", "down"},
		StartsAt: startsAt,
		EndsAt:   startsAt.Add(2 * time.Hour),
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rr.Code, rr.Body.String())
	}
	var created ledgerhttp.ProposalResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create: %v", err)
	}
	time.Sleep(time.Until(startsAt) + 50*time.Millisecond)

	votes := fmt.Sprintf("/v1/proposals/%d/votes", created.ProposalID)
	if rr := call(t, first, http.MethodPost, votes, "bob", ledgerhttp.CastVoteRequest{Option: "down"}); rr.Code != http.StatusCreated {
		t.Fatalf("cast: %d %s", rr.Code, rr.Body.String())
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close first app: %v", err)
	}

	second, err := BuildAPI(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("rebuild api: %v", err)
	}
	t.Cleanup(func() { _ = second.Close() })

	rr = call(t, second, http.MethodGet, fmt.Sprintf("/v1/proposals/%d/counts/down", created.ProposalID), "", nil)
	var count ledgerhttp.VoteCountResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &count); err != nil {
		t.Fatalf("decode count: %v", err)
	}
	if count.Count != 1 {
		t.Fatalf("expected replayed vote, got %+v", count)
	}
	if rr := call(t, second, http.MethodPost, votes, "bob", ledgerhttp.CastVoteRequest{Option: "up"}); rr.Code != http.StatusConflict {
		t.Fatalf("replayed participation must block a second vote, got %d %s", rr.Code, rr.Body.String())
	}
}

func TestRelayLoopArchivesFinalizedResults(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := ledgermemory.NewStore()
	bus, err := messaging.NewKafka(nil, nil)
	if err != nil {
		t.Fatalf("new bus: %v", err)
	}
	payload, err := json.Marshal(ports.ProposalFinalizedData{Result: entities.TallyResult{
		ProposalID: 7,
		Counts:     []entities.OptionCount{{Option: "a", Count: 0}, {Option: "b", Count: 0}},
		Winners:    []string{},
	}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := store.AppendEvents(context.Background(), ports.EventEnvelope{
		EventID:       "evt-final-7",
		EventType:     ports.EventProposalFinalized,
		OccurredAt:    time.Now().UTC(),
		SourceService: "proposal-ledger",
		SchemaVersion: 1,
		PartitionKey:  "7",
		Data:          payload,
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	loop := relayLoop{
		relay:     workers.OutboxRelay{Outbox: store, Publisher: bus, BatchSize: 10},
		projector: workers.ResultsProjector{Subscriber: bus, Dedup: store, Archive: store},
		interval:  10 * time.Millisecond,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := store.GetFinalizedResult(context.Background(), 7); err == nil {
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("finalized result was not archived")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("relay loop returned %v", err)
	}
	bus.Wait()
}
