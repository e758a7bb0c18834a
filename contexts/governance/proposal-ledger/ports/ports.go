package ports

import (
	"context"
	"time"

	"agora/contexts/governance/proposal-ledger/domain/entities"
	"agora/contexts/governance/proposal-ledger/domain/ledger"
)

// LedgerStore owns the composite ledger state and the critical section around
// it. Update runs fn exclusively; View runs fn under a shared lock. A non-nil
// error from fn is returned unchanged.
type LedgerStore interface {
	Update(ctx context.Context, fn func(state *ledger.Ledger) error) error
	View(ctx context.Context, fn func(state ledger.Reader) error) error
}

// AccessGate answers capability questions about principals. The ledger never
// stores these answers.
type AccessGate interface {
	IsVerified(ctx context.Context, principalID string) (bool, error)
	IsAuthorizedCaller(ctx context.Context, principalID string) (bool, error)
	IsAdmin(ctx context.Context, principalID string) (bool, error)
}

// JournalEntry is one committed ledger event with its position in the journal.
type JournalEntry struct {
	Sequence int64
	Envelope EventEnvelope
}

// EventJournal is the append-only log of committed ledger events. AppendEvents
// is all-or-nothing across the given envelopes.
type EventJournal interface {
	AppendEvents(ctx context.Context, events ...EventEnvelope) error
	ListEvents(ctx context.Context, afterSequence int64, limit int) ([]JournalEntry, error)
}

// OutboxMessage represents a journaled event not yet relayed to the bus.
type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

// EventDedupStore enforces idempotent processing for consumed events.
type EventDedupStore interface {
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
}

// ResultsArchive keeps finalized tally results for consumers outside the
// ledger process.
type ResultsArchive interface {
	SaveFinalizedResult(ctx context.Context, result entities.TallyResult) error
	GetFinalizedResult(ctx context.Context, proposalID entities.ProposalID) (entities.TallyResult, error)
	ListFinalizedResults(ctx context.Context, limit int) ([]entities.TallyResult, error)
}

// OperationObserver receives the outcome of every ledger operation. Kind is
// empty on success.
type OperationObserver interface {
	ObserveOperation(operation string, kind string)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
