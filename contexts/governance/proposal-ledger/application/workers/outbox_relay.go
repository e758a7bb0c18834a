package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "agora/contexts/governance/proposal-ledger/application"
	"agora/contexts/governance/proposal-ledger/ports"
)

// RelayObserver records relay progress. The metrics package implements it.
type RelayObserver interface {
	ObserveRelay(published int, failed bool)
}

// OutboxRelay publishes journaled ledger events to the event bus in journal
// order.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Observer  RelayObserver
	Logger    *slog.Logger
}

// RunOnce publishes a bounded batch of pending events and marks each one
// published only after the bus accepted it. It stops on the first failure so
// later events are never delivered ahead of an earlier one.
func (r OutboxRelay) RunOnce(ctx context.Context) error {
	published, err := r.runOnce(ctx)
	if r.Observer != nil {
		r.Observer.ObserveRelay(published, err != nil)
	}
	return err
}

func (r OutboxRelay) runOnce(ctx context.Context) (int, error) {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("ledger outbox list failed",
			"event", "ledger_outbox_list_failed",
			"module", moduleName,
			"layer", "worker",
			"error", err.Error(),
		)
		return 0, err
	}
	if len(pending) == 0 {
		logger.Debug("ledger outbox relay found no pending events",
			"event", "ledger_outbox_relay_noop",
			"module", moduleName,
			"layer", "worker",
			"batch_size", limit,
		)
		return 0, nil
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	published := 0
	for _, row := range pending {
		var event ports.EventEnvelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			logger.Error("ledger outbox decode failed",
				"event", "ledger_outbox_decode_failed",
				"module", moduleName,
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return published, err
		}
		topic := event.EventType
		if topic == "" {
			topic = row.EventType
		}
		if err := r.Publisher.Publish(ctx, topic, event); err != nil {
			logger.Error("ledger outbox publish failed",
				"event", "ledger_outbox_publish_failed",
				"module", moduleName,
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"event_id", event.EventID,
				"event_type", event.EventType,
				"error", err.Error(),
			)
			return published, err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
			logger.Error("ledger outbox mark published failed",
				"event", "ledger_outbox_mark_published_failed",
				"module", moduleName,
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return published, err
		}
		published++
	}

	logger.Info("ledger outbox relay cycle completed",
		"event", "ledger_outbox_relay_completed",
		"module", moduleName,
		"layer", "worker",
		"published_count", published,
	)
	return published, nil
}
