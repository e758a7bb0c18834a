package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	proposalledger "agora/contexts/governance/proposal-ledger"
	ledgermemory "agora/contexts/governance/proposal-ledger/adapters/memory"
	ledgerhttp "agora/contexts/governance/proposal-ledger/transport/http"
	accessgate "agora/contexts/identity-access/access-gate"
	"agora/contexts/identity-access/access-gate/domain/services"
	"agora/internal/platform/metrics"
)

const (
	testAdmin  = "admin-1"
	testCaller = "svc-gateway"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	server *Server
	clock  *testClock
}

func newTestServer(t *testing.T) testEnv {
	t.Helper()
	access := accessgate.NewInMemoryModule(nil)
	ctx := context.Background()
	if err := access.Handler.GrantRole.Seed(ctx, testAdmin, services.RoleAdmin); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	if err := access.Handler.GrantRole.Seed(ctx, testCaller, services.RoleAuthorizedCaller); err != nil {
		t.Fatalf("seed caller: %v", err)
	}

	clock := &testClock{now: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)}
	store := ledgermemory.NewStore()
	collector := metrics.New()
	ledger := proposalledger.NewModule(proposalledger.Dependencies{
		Ledger:   store,
		Journal:  store,
		Outbox:   store,
		Dedup:    store,
		Archive:  store,
		Access:   access.Handler.Capabilities,
		Clock:    clock,
		IDGen:    store,
		Observer: collector,
	})
	ledger.Store = store
	return testEnv{
		server: New(ledger, access, collector, nil, ":0"),
		clock:  clock,
	}
}

func (e testEnv) do(t *testing.T, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Caller-Id", testCaller)
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	rr := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rr, req)
	return rr
}

func (e testEnv) verifiedVoter(t *testing.T, voterID string) {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/api/access/v1/voters", voterID, map[string]any{
		"attributes": map[string]string{"region": "north"},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d body=%s", voterID, rr.Code, rr.Body.String())
	}
	rr = e.do(t, http.MethodPost, "/api/access/v1/voters/"+voterID+"/verify", testAdmin, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("verify %s: expected 200, got %d body=%s", voterID, rr.Code, rr.Body.String())
	}
}

func (e testEnv) createProposal(t *testing.T, ownerID string, mutability string, options ...string) uint64 {
	t.Helper()
	now := e.clock.Now()
	rr := e.do(t, http.MethodPost, "/v1/proposals", ownerID, ledgerhttp.CreateProposalRequest{
		Title:      "Budget allocation",
		Options:    options,
		Mutability: mutability,
		StartsAt:   now,
		EndsAt:     now.Add(2 * time.Hour),
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create proposal: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp ledgerhttp.ProposalResponse
	decodeBody(t, rr, &resp)
	return resp.ProposalID
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), target); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
}

func TestHealthz(t *testing.T) {
	env := newTestServer(t)
	rr := env.do(t, http.MethodGet, "/healthz", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestLedgerWritesRequirePrincipalHeaders(t *testing.T) {
	env := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/proposals", strings.NewReader(`{}`))
	req.Header.Set("X-User-Id", "alice")
	rr := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("missing caller: expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = env.do(t, http.MethodPost, "/v1/proposals/1/votes", "", map[string]string{"option": "yes"})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("missing user: expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCreateProposalRejectsUnauthorizedCallerAndUnverifiedCreator(t *testing.T) {
	env := newTestServer(t)
	now := env.clock.Now()
	body := ledgerhttp.CreateProposalRequest{
		Title:    "Roadmap",
		Options:  []string{"a", "b"},
		StartsAt: now,
		EndsAt:   now.Add(2 * time.Hour),
	}

	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/v1/proposals", bytes.NewReader(payload))
	req.Header.Set("X-Caller-Id", "svc-unknown")
	req.Header.Set("X-User-Id", "alice")
	rr := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("unknown caller: expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = env.do(t, http.MethodPost, "/v1/proposals", "mallory", body)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("unverified creator: expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCreateProposalValidation(t *testing.T) {
	env := newTestServer(t)
	env.verifiedVoter(t, "alice")
	now := env.clock.Now()

	cases := []struct {
		name string
		body ledgerhttp.CreateProposalRequest
	}{
		{name: "single option", body: ledgerhttp.CreateProposalRequest{Title: "t", Options: []string{"a"}, StartsAt: now, EndsAt: now.Add(2 * time.Hour)}},
		{name: "duplicate option", body: ledgerhttp.CreateProposalRequest{Title: "t", Options: []string{"a", "a"}, StartsAt: now, EndsAt: now.Add(2 * time.Hour)}},
		{name: "start in past", body: ledgerhttp.CreateProposalRequest{Title: "t", Options: []string{"a", "b"}, StartsAt: now.Add(-time.Minute), EndsAt: now.Add(2 * time.Hour)}},
		{name: "window too short", body: ledgerhttp.CreateProposalRequest{Title: "t", Options: []string{"a", "b"}, StartsAt: now, EndsAt: now.Add(10 * time.Minute)}},
		{name: "unknown mutability", body: ledgerhttp.CreateProposalRequest{Title: "t", Options: []string{"a", "b"}, Mutability: "sometimes", StartsAt: now, EndsAt: now.Add(2 * time.Hour)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, "/v1/proposals", "alice", tc.body)
			if rr.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d body=%s", rr.Code, rr.Body.String())
			}
		})
	}

	rr := env.do(t, http.MethodGet, "/v1/proposals", "", nil)
	var list ledgerhttp.ProposalListResponse
	decodeBody(t, rr, &list)
	if len(list.Items) != 0 {
		t.Fatalf("rejected creations must not leave proposals, got %d", len(list.Items))
	}
}

func TestVotingLifecycleOverHTTP(t *testing.T) {
	env := newTestServer(t)
	for _, voter := range []string{"alice", "bob", "carol"} {
		env.verifiedVoter(t, voter)
	}
	proposalID := env.createProposal(t, "alice", "immutable", "yes", "no", "abstain")
	votes := fmt.Sprintf("/v1/proposals/%d/votes", proposalID)

	for voter, option := range map[string]string{"alice": "yes", "bob": "yes", "carol": "no"} {
		rr := env.do(t, http.MethodPost, votes, voter, ledgerhttp.CastVoteRequest{Option: option})
		if rr.Code != http.StatusCreated {
			t.Fatalf("cast %s: expected 201, got %d body=%s", voter, rr.Code, rr.Body.String())
		}
	}

	rr := env.do(t, http.MethodPost, votes, "alice", ledgerhttp.CastVoteRequest{Option: "no"})
	if rr.Code != http.StatusConflict {
		t.Fatalf("second vote: expected 409, got %d body=%s", rr.Code, rr.Body.String())
	}
	rr = env.do(t, http.MethodDelete, votes, "bob", nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("retract on immutable proposal: expected 409, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = env.do(t, http.MethodGet, fmt.Sprintf("/v1/proposals/%d/counts/yes", proposalID), "", nil)
	var count ledgerhttp.VoteCountResponse
	decodeBody(t, rr, &count)
	if count.Count != 2 {
		t.Fatalf("expected 2 yes votes, got %d", count.Count)
	}

	winners := fmt.Sprintf("/v1/proposals/%d/winners", proposalID)
	rr = env.do(t, http.MethodGet, winners, "", nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("winners while active: expected 409, got %d body=%s", rr.Code, rr.Body.String())
	}

	env.clock.Advance(3 * time.Hour)

	rr = env.do(t, http.MethodPost, votes, "bob", ledgerhttp.CastVoteRequest{Option: "no"})
	if rr.Code != http.StatusConflict {
		t.Fatalf("vote after end: expected 409, got %d body=%s", rr.Code, rr.Body.String())
	}
	rr = env.do(t, http.MethodGet, winners, "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("winners after end: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var result ledgerhttp.WinnersResponse
	decodeBody(t, rr, &result)
	if len(result.Winners) != 1 || result.Winners[0] != "yes" || result.IsDraw || result.TotalVotes != 3 {
		t.Fatalf("unexpected result %+v", result)
	}

	rr = env.do(t, http.MethodGet, fmt.Sprintf("/v1/proposals/%d", proposalID), "", nil)
	var proposal ledgerhttp.ProposalResponse
	decodeBody(t, rr, &proposal)
	if proposal.Status != "finalized" || proposal.ParticipantCount != 3 {
		t.Fatalf("unexpected proposal %+v", proposal)
	}

	rr = env.do(t, http.MethodGet, "/v1/voters/carol", "", nil)
	var record ledgerhttp.VoterRecordResponse
	decodeBody(t, rr, &record)
	if len(record.Participated) != 1 || record.Participated[0].Option != "no" {
		t.Fatalf("unexpected voter record %+v", record)
	}
}

func TestMutableProposalChangeAndRetract(t *testing.T) {
	env := newTestServer(t)
	env.verifiedVoter(t, "alice")
	env.verifiedVoter(t, "bob")
	proposalID := env.createProposal(t, "alice", "mutable", "red", "blue")
	votes := fmt.Sprintf("/v1/proposals/%d/votes", proposalID)

	if rr := env.do(t, http.MethodPost, votes, "bob", ledgerhttp.CastVoteRequest{Option: "red"}); rr.Code != http.StatusCreated {
		t.Fatalf("cast: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	if rr := env.do(t, http.MethodPut, votes, "bob", ledgerhttp.ChangeVoteRequest{Option: "red"}); rr.Code != http.StatusConflict {
		t.Fatalf("same option: expected 409, got %d body=%s", rr.Code, rr.Body.String())
	}
	if rr := env.do(t, http.MethodPut, votes, "bob", ledgerhttp.ChangeVoteRequest{Option: "blue"}); rr.Code != http.StatusOK {
		t.Fatalf("change: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if rr := env.do(t, http.MethodDelete, fmt.Sprintf("/v1/proposals/%d", proposalID), "alice", nil); rr.Code != http.StatusConflict {
		t.Fatalf("remove with participants: expected 409, got %d body=%s", rr.Code, rr.Body.String())
	}
	if rr := env.do(t, http.MethodDelete, votes, "bob", nil); rr.Code != http.StatusOK {
		t.Fatalf("retract: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if rr := env.do(t, http.MethodDelete, votes, "bob", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("second retract: expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
	if rr := env.do(t, http.MethodDelete, fmt.Sprintf("/v1/proposals/%d", proposalID), "bob", nil); rr.Code != http.StatusForbidden {
		t.Fatalf("remove by non-owner: expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
	if rr := env.do(t, http.MethodDelete, fmt.Sprintf("/v1/proposals/%d", proposalID), "alice", nil); rr.Code != http.StatusNoContent {
		t.Fatalf("remove: expected 204, got %d body=%s", rr.Code, rr.Body.String())
	}
	if rr := env.do(t, http.MethodGet, fmt.Sprintf("/v1/proposals/%d", proposalID), "", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("removed proposal: expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestInvalidProposalIDIsBadRequest(t *testing.T) {
	env := newTestServer(t)
	rr := env.do(t, http.MethodGet, "/v1/proposals/abc", "", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestVerifyVoterRequiresAdmin(t *testing.T) {
	env := newTestServer(t)
	if rr := env.do(t, http.MethodPost, "/api/access/v1/voters", "dave", map[string]any{"attributes": map[string]string{}}); rr.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	if rr := env.do(t, http.MethodPost, "/api/access/v1/voters/dave/verify", "dave", nil); rr.Code != http.StatusForbidden {
		t.Fatalf("self verify: expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
	if rr := env.do(t, http.MethodPost, "/api/access/v1/voters", "dave", map[string]any{"attributes": map[string]string{}}); rr.Code != http.StatusConflict {
		t.Fatalf("second register: expected 409, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestMetricsEndpointExposesOperations(t *testing.T) {
	env := newTestServer(t)
	env.verifiedVoter(t, "alice")
	env.createProposal(t, "alice", "", "a", "b")

	rr := env.do(t, http.MethodGet, "/metrics", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "agora_ledger_operations_total") {
		t.Fatalf("operations counter missing from exposition")
	}
}
