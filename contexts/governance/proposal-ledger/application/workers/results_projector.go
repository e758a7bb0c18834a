package workers

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "agora/contexts/governance/proposal-ledger/application"
	"agora/contexts/governance/proposal-ledger/ports"
)

const defaultResultsCG = "proposal-ledger-results-cg"

// ResultsProjector consumes proposal.finalized events and stores the sealed
// tally in the results archive.
type ResultsProjector struct {
	Subscriber    ports.EventSubscriber
	Dedup         ports.EventDedupStore
	Archive       ports.ResultsArchive
	Clock         ports.Clock
	ConsumerGroup string
	DedupTTL      time.Duration
	Logger        *slog.Logger
}

func (p ResultsProjector) Start(ctx context.Context) error {
	logger := application.ResolveLogger(p.Logger)
	group := strings.TrimSpace(p.ConsumerGroup)
	if group == "" {
		group = defaultResultsCG
	}
	if err := p.Subscriber.Subscribe(ctx, ports.EventProposalFinalized, group, p.Handle); err != nil {
		logger.Error("results projector subscribe failed",
			"event", "ledger_results_projector_subscribe_failed",
			"module", moduleName,
			"layer", "worker",
			"topic", ports.EventProposalFinalized,
			"consumer_group", group,
			"error", err.Error(),
		)
		return err
	}
	logger.Info("results projector subscribed",
		"event", "ledger_results_projector_started",
		"module", moduleName,
		"layer", "worker",
		"topic", ports.EventProposalFinalized,
		"consumer_group", group,
	)
	return nil
}

// Handle projects one finalized event. Redelivered events are skipped.
func (p ResultsProjector) Handle(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(p.Logger)
	alreadyProcessed, err := p.Dedup.ReserveEvent(ctx, event.EventID, hashPayload(event.Data), p.now().Add(p.dedupTTL()))
	if err != nil {
		logger.Error("results projector dedupe failed",
			"event", "ledger_results_projector_dedupe_failed",
			"module", moduleName,
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	if alreadyProcessed {
		logger.Debug("proposal.finalized replay skipped",
			"event", "ledger_results_projector_replayed",
			"module", moduleName,
			"layer", "worker",
			"event_id", event.EventID,
		)
		return nil
	}

	var payload ports.ProposalFinalizedData
	if err := event.DecodeData(&payload); err != nil {
		logger.Error("proposal.finalized payload decode failed",
			"event", "ledger_results_projector_decode_failed",
			"module", moduleName,
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	if err := p.Archive.SaveFinalizedResult(ctx, payload.Result); err != nil {
		logger.Error("finalized result archive failed",
			"event", "ledger_results_projector_save_failed",
			"module", moduleName,
			"layer", "worker",
			"event_id", event.EventID,
			"proposal_id", uint64(payload.Result.ProposalID),
			"error", err.Error(),
		)
		return err
	}
	logger.Info("proposal.finalized consumed",
		"event", "ledger_results_projector_consumed",
		"module", moduleName,
		"layer", "worker",
		"event_id", event.EventID,
		"proposal_id", uint64(payload.Result.ProposalID),
		"winners", payload.Result.Winners,
		"is_draw", payload.Result.IsDraw,
		"total_votes", payload.Result.TotalVotes,
	)
	return nil
}

func (p ResultsProjector) now() time.Time {
	if p.Clock != nil {
		return p.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (p ResultsProjector) dedupTTL() time.Duration {
	if p.DedupTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return p.DedupTTL
}
