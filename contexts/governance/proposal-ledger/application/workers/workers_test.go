package workers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"agora/contexts/governance/proposal-ledger/adapters/memory"
	"agora/contexts/governance/proposal-ledger/domain/entities"
	"agora/contexts/governance/proposal-ledger/ports"
)

type recordingPublisher struct {
	topics []string
	failOn string
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	if event.EventID == p.failOn {
		return errors.New("broker unavailable")
	}
	p.topics = append(p.topics, topic)
	return nil
}

type relayStats struct {
	published int
	failures  int
}

func (s *relayStats) ObserveRelay(published int, failed bool) {
	s.published += published
	if failed {
		s.failures++
	}
}

type capturingSubscriber struct {
	topic   string
	group   string
	handler func(context.Context, ports.EventEnvelope) error
}

func (s *capturingSubscriber) Subscribe(
	_ context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, ports.EventEnvelope) error,
) error {
	s.topic = topic
	s.group = consumerGroup
	s.handler = handler
	return nil
}

func envelope(t *testing.T, eventID string, eventType string, data any) ports.EventEnvelope {
	t.Helper()
	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal payload failed: %v", err)
	}
	return ports.EventEnvelope{
		EventID:       eventID,
		EventType:     eventType,
		OccurredAt:    time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		SourceService: "proposal-ledger",
		SchemaVersion: 1,
		PartitionKey:  "1",
		Data:          payload,
	}
}

func TestOutboxRelayPublishesInJournalOrder(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	if err := store.AppendEvents(ctx,
		envelope(t, "evt_1", ports.EventProposalCreated, map[string]any{"proposal_id": 1}),
		envelope(t, "evt_2", ports.EventVoteCast, map[string]any{"proposal_id": 1}),
		envelope(t, "evt_3", ports.EventProposalFinalized, map[string]any{"proposal_id": 1}),
	); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	publisher := &recordingPublisher{failOn: "evt_2"}
	stats := &relayStats{}
	relay := OutboxRelay{Outbox: store, Publisher: publisher, BatchSize: 10, Observer: stats}

	if err := relay.RunOnce(ctx); err == nil {
		t.Fatal("expected relay to stop on publish failure")
	}
	if len(publisher.topics) != 1 || publisher.topics[0] != ports.EventProposalCreated {
		t.Fatalf("unexpected topics after failure %v", publisher.topics)
	}

	publisher.failOn = ""
	if err := relay.RunOnce(ctx); err != nil {
		t.Fatalf("relay failed: %v", err)
	}
	want := []string{ports.EventProposalCreated, ports.EventVoteCast, ports.EventProposalFinalized}
	if len(publisher.topics) != len(want) {
		t.Fatalf("expected %d publishes, got %v", len(want), publisher.topics)
	}
	for i := range want {
		if publisher.topics[i] != want[i] {
			t.Fatalf("publish %d: expected %s, got %s", i, want[i], publisher.topics[i])
		}
	}
	if stats.published != 3 || stats.failures != 1 {
		t.Fatalf("unexpected relay stats %+v", stats)
	}

	pending, _ := store.ListPendingOutbox(ctx, 10)
	if len(pending) != 0 {
		t.Fatalf("expected empty outbox, got %d rows", len(pending))
	}
	if err := relay.RunOnce(ctx); err != nil {
		t.Fatalf("idle relay failed: %v", err)
	}
}

func TestResultsProjectorArchivesOnce(t *testing.T) {
	store := memory.NewStore()
	subscriber := &capturingSubscriber{}
	projector := ResultsProjector{Subscriber: subscriber, Dedup: store, Archive: store}
	ctx := context.Background()

	if err := projector.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if subscriber.topic != ports.EventProposalFinalized || subscriber.group != defaultResultsCG {
		t.Fatalf("unexpected subscription %s/%s", subscriber.topic, subscriber.group)
	}

	event := envelope(t, "evt_final", ports.EventProposalFinalized, ports.ProposalFinalizedData{
		Result: entities.TallyResult{
			ProposalID: 3,
			Counts:     []entities.OptionCount{{Option: "a", Count: 1}, {Option: "b", Count: 1}},
			TotalVotes: 2,
			Winners:    []string{"a", "b"},
			IsDraw:     true,
		},
	})
	if err := subscriber.handler(ctx, event); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if err := subscriber.handler(ctx, event); err != nil {
		t.Fatalf("redelivery failed: %v", err)
	}

	results, err := store.ListFinalizedResults(ctx, 10)
	if err != nil {
		t.Fatalf("list results failed: %v", err)
	}
	if len(results) != 1 || results[0].ProposalID != 3 || !results[0].IsDraw {
		t.Fatalf("unexpected archived results %+v", results)
	}
}

func TestResultsProjectorRejectsMalformedPayload(t *testing.T) {
	store := memory.NewStore()
	projector := ResultsProjector{Dedup: store, Archive: store}
	event := ports.EventEnvelope{EventID: "evt_bad", EventType: ports.EventProposalFinalized, Data: []byte(`{"result":`)}
	if err := projector.Handle(context.Background(), event); err == nil {
		t.Fatal("expected decode failure")
	}
}
