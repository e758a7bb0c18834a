package commands

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"agora/contexts/governance/proposal-ledger/domain/entities"
	"agora/contexts/governance/proposal-ledger/ports"
)

const sourceService = "proposal-ledger"

type pendingEvent struct {
	eventType  string
	proposalID entities.ProposalID
	data       any
}

func newLedgerEnvelope(
	eventID string,
	eventType string,
	proposalID entities.ProposalID,
	occurredAt time.Time,
	data any,
) (ports.EventEnvelope, error) {
	// Ledger events are partitioned by proposal so consumers see one
	// proposal's history in commit order.
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    sourceService,
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "proposal_id",
		PartitionKey:     strconv.FormatUint(uint64(proposalID), 10),
		Data:             payload,
	}, nil
}

func (uc LedgerUseCase) buildEnvelopes(
	ctx context.Context,
	occurredAt time.Time,
	events []pendingEvent,
) ([]ports.EventEnvelope, error) {
	envelopes := make([]ports.EventEnvelope, 0, len(events))
	for _, event := range events {
		eventID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return nil, err
		}
		envelope, err := newLedgerEnvelope(eventID, event.eventType, event.proposalID, occurredAt, event.data)
		if err != nil {
			return nil, err
		}
		envelopes = append(envelopes, envelope)
	}
	return envelopes, nil
}
