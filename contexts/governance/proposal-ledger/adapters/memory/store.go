package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"agora/contexts/governance/proposal-ledger/domain/entities"
	domainerrors "agora/contexts/governance/proposal-ledger/domain/errors"
	"agora/contexts/governance/proposal-ledger/domain/ledger"
	"agora/contexts/governance/proposal-ledger/ports"

	"github.com/google/uuid"
)

type journalRecord struct {
	entry     ports.JournalEntry
	message   ports.OutboxMessage
	published bool
}

type dedupRecord struct {
	payloadHash string
	expiresAt   time.Time
}

// Store keeps the live ledger plus an in-process journal, dedup table and
// results archive. The ledger lock and the journal lock are separate because
// journal appends happen while the ledger lock is held.
type Store struct {
	stateMu sync.RWMutex
	state   *ledger.Ledger

	mu           sync.RWMutex
	journal      []journalRecord
	journalIndex map[string]int
	eventDedup   map[string]dedupRecord
	results      map[entities.ProposalID]entities.TallyResult
}

func NewStore() *Store {
	return &Store{
		state:        ledger.New(),
		journalIndex: make(map[string]int),
		eventDedup:   make(map[string]dedupRecord),
		results:      make(map[entities.ProposalID]entities.TallyResult),
	}
}

func (s *Store) Update(_ context.Context, fn func(state *ledger.Ledger) error) error {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return fn(s.state)
}

func (s *Store) View(_ context.Context, fn func(state ledger.Reader) error) error {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return fn(s.state)
}

// AppendEvents stores all envelopes or none. Re-appending an identical
// envelope is a no-op; reusing an event id with another payload conflicts.
func (s *Store) AppendEvents(_ context.Context, events ...ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := make([]journalRecord, 0, len(events))
	seen := make(map[string]struct{}, len(events))
	for _, envelope := range events {
		eventID := strings.TrimSpace(envelope.EventID)
		if eventID == "" {
			eventID = uuid.NewString()
		}
		envelope.EventID = eventID
		payload, err := json.Marshal(envelope)
		if err != nil {
			return err
		}
		if idx, ok := s.journalIndex[eventID]; ok {
			if !bytes.Equal(s.journal[idx].message.Payload, payload) {
				return fmt.Errorf("%w: event %s", domainerrors.ErrJournalConflict, eventID)
			}
			continue
		}
		if _, ok := seen[eventID]; ok {
			return fmt.Errorf("%w: event %s repeated in batch", domainerrors.ErrJournalConflict, eventID)
		}
		seen[eventID] = struct{}{}
		createdAt := envelope.OccurredAt.UTC()
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		staged = append(staged, journalRecord{
			entry: ports.JournalEntry{Envelope: envelope},
			message: ports.OutboxMessage{
				OutboxID:     eventID,
				EventType:    strings.TrimSpace(envelope.EventType),
				PartitionKey: strings.TrimSpace(envelope.PartitionKey),
				Payload:      payload,
				CreatedAt:    createdAt,
			},
		})
	}

	for _, record := range staged {
		record.entry.Sequence = int64(len(s.journal) + 1)
		s.journalIndex[record.message.OutboxID] = len(s.journal)
		s.journal = append(s.journal, record)
	}
	return nil
}

func (s *Store) ListEvents(_ context.Context, afterSequence int64, limit int) ([]ports.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	if afterSequence < 0 {
		afterSequence = 0
	}
	items := make([]ports.JournalEntry, 0, limit)
	for i := int(afterSequence); i < len(s.journal) && len(items) < limit; i++ {
		items = append(items, s.journal[i].entry)
	}
	return items, nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, limit)
	for _, record := range s.journal {
		if record.published {
			continue
		}
		items = append(items, record.message)
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.journalIndex[strings.TrimSpace(outboxID)]
	if !ok {
		return fmt.Errorf("%w: outbox %s", domainerrors.ErrJournalConflict, outboxID)
	}
	s.journal[idx].published = true
	return nil
}

func (s *Store) ReserveEvent(
	_ context.Context,
	eventID string,
	payloadHash string,
	expiresAt time.Time,
) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(eventID)
	existing, ok := s.eventDedup[key]
	if ok {
		if !existing.expiresAt.IsZero() && time.Now().UTC().After(existing.expiresAt.UTC()) {
			delete(s.eventDedup, key)
		} else {
			if existing.payloadHash != strings.TrimSpace(payloadHash) {
				return false, fmt.Errorf("%w: event %s", domainerrors.ErrJournalConflict, key)
			}
			return true, nil
		}
	}

	s.eventDedup[key] = dedupRecord{
		payloadHash: strings.TrimSpace(payloadHash),
		expiresAt:   expiresAt.UTC(),
	}
	return false, nil
}

func (s *Store) SaveFinalizedResult(_ context.Context, result entities.TallyResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.ProposalID] = result.Clone()
	return nil
}

func (s *Store) GetFinalizedResult(_ context.Context, proposalID entities.ProposalID) (entities.TallyResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[proposalID]
	if !ok {
		return entities.TallyResult{}, fmt.Errorf("%w: %d", domainerrors.ErrProposalNotFound, proposalID)
	}
	return result.Clone(), nil
}

func (s *Store) ListFinalizedResults(_ context.Context, limit int) ([]entities.TallyResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.TallyResult, 0, len(s.results))
	for _, result := range s.results {
		items = append(items, result.Clone())
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ProposalID < items[j].ProposalID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var (
	_ ports.LedgerStore      = (*Store)(nil)
	_ ports.EventJournal     = (*Store)(nil)
	_ ports.OutboxRepository = (*Store)(nil)
	_ ports.EventDedupStore  = (*Store)(nil)
	_ ports.ResultsArchive   = (*Store)(nil)
	_ ports.Clock            = (*Store)(nil)
	_ ports.IDGenerator      = (*Store)(nil)
)
