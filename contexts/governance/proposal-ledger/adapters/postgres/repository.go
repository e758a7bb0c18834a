package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"agora/contexts/governance/proposal-ledger/domain/entities"
	domainerrors "agora/contexts/governance/proposal-ledger/domain/errors"
	"agora/contexts/governance/proposal-ledger/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

// Repository persists the ledger journal, which doubles as the outbox, plus
// consumer dedup rows and the finalized results archive.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Migrate creates or updates the tables this repository owns.
func (r *Repository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&ledgerEventModel{}, &eventDedupModel{}, &proposalResultModel{}); err != nil {
		return r.logError("ledger_repo_migrate_failed", err)
	}
	return nil
}

// AppendEvents inserts the envelopes in one transaction. An envelope whose id
// is already journaled with the same payload is skipped.
func (r *Repository) AppendEvents(ctx context.Context, events ...ports.EventEnvelope) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([]ledgerEventModel, 0, len(events))
	for _, envelope := range events {
		eventID := strings.TrimSpace(envelope.EventID)
		if eventID == "" {
			eventID = uuid.NewString()
		}
		envelope.EventID = eventID
		payload, err := json.Marshal(envelope)
		if err != nil {
			return r.logError("ledger_repo_append_events_marshal_failed", err,
				"event_id", eventID,
				"event_type", strings.TrimSpace(envelope.EventType),
			)
		}
		createdAt := envelope.OccurredAt.UTC()
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		rows = append(rows, ledgerEventModel{
			EventID:      eventID,
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      payload,
			Status:       outboxStatusPending,
			CreatedAt:    createdAt,
		})
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			row := rows[i]
			var existing ledgerEventModel
			lookup := tx.Select("payload").Where("event_id = ?", row.EventID).Limit(1).Find(&existing)
			if lookup.Error != nil {
				return lookup.Error
			}
			if lookup.RowsAffected > 0 {
				if !bytes.Equal(existing.Payload, row.Payload) {
					return fmt.Errorf("%w: event %s", domainerrors.ErrJournalConflict, row.EventID)
				}
				continue
			}
			if err := tx.Create(&row).Error; err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("%w: event %s", domainerrors.ErrJournalConflict, row.EventID)
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrJournalConflict) {
			return err
		}
		return r.logError("ledger_repo_append_events_failed", err, "count", len(rows))
	}
	return nil
}

func (r *Repository) ListEvents(ctx context.Context, afterSequence int64, limit int) ([]ports.JournalEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []ledgerEventModel
	if err := r.db.WithContext(ctx).
		Where("sequence > ?", afterSequence).
		Order("sequence ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_events_failed", err,
			"after_sequence", afterSequence,
			"limit", limit,
		)
	}
	items := make([]ports.JournalEntry, 0, len(rows))
	for _, row := range rows {
		var envelope ports.EventEnvelope
		if err := json.Unmarshal(row.Payload, &envelope); err != nil {
			return nil, r.logError("ledger_repo_list_events_decode_failed", err,
				"sequence", row.Sequence,
				"event_id", row.EventID,
			)
		}
		items = append(items, ports.JournalEntry{
			Sequence: row.Sequence,
			Envelope: envelope,
		})
	}
	return items, nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []ledgerEventModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("sequence ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.EventID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&ledgerEventModel{}).
		Where("event_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("ledger_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: outbox %s", domainerrors.ErrJournalConflict, strings.TrimSpace(outboxID))
	}
	return nil
}

func (r *Repository) ReserveEvent(
	ctx context.Context,
	eventID string,
	payloadHash string,
	expiresAt time.Time,
) (bool, error) {
	row := eventDedupModel{
		EventID:     strings.TrimSpace(eventID),
		PayloadHash: strings.TrimSpace(payloadHash),
		ExpiresAt:   expiresAt.UTC(),
		ProcessedAt: time.Now().UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return false, r.logError("ledger_repo_reserve_event_failed", create.Error,
			"event_id", row.EventID,
		)
	}
	if create.RowsAffected > 0 {
		return false, nil
	}

	var existing eventDedupModel
	if err := r.db.WithContext(ctx).
		Select("payload_hash").
		Where("event_id = ?", row.EventID).
		First(&existing).Error; err != nil {
		return false, r.logError("ledger_repo_reserve_event_load_existing_failed", err,
			"event_id", row.EventID,
		)
	}
	if existing.PayloadHash != row.PayloadHash {
		return false, fmt.Errorf("%w: event %s", domainerrors.ErrJournalConflict, row.EventID)
	}
	return true, nil
}

func (r *Repository) SaveFinalizedResult(ctx context.Context, result entities.TallyResult) error {
	row, err := proposalResultModelFromEntity(result)
	if err != nil {
		return r.logError("ledger_repo_save_result_marshal_failed", err,
			"proposal_id", uint64(result.ProposalID),
		)
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "proposal_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"counts":       row.Counts,
			"winners":      row.Winners,
			"total_votes":  row.TotalVotes,
			"is_draw":      row.IsDraw,
			"finalized_at": row.FinalizedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("ledger_repo_save_result_failed", create.Error,
			"proposal_id", uint64(result.ProposalID),
		)
	}
	return nil
}

func (r *Repository) GetFinalizedResult(ctx context.Context, proposalID entities.ProposalID) (entities.TallyResult, error) {
	var row proposalResultModel
	err := r.db.WithContext(ctx).
		Where("proposal_id = ?", uint64(proposalID)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.TallyResult{}, fmt.Errorf("%w: %d", domainerrors.ErrProposalNotFound, proposalID)
		}
		return entities.TallyResult{}, r.logError("ledger_repo_get_result_failed", err,
			"proposal_id", uint64(proposalID),
		)
	}
	result, err := row.toEntity()
	if err != nil {
		return entities.TallyResult{}, r.logError("ledger_repo_get_result_decode_failed", err,
			"proposal_id", uint64(proposalID),
		)
	}
	return result, nil
}

func (r *Repository) ListFinalizedResults(ctx context.Context, limit int) ([]entities.TallyResult, error) {
	query := r.db.WithContext(ctx).Order("proposal_id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []proposalResultModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_results_failed", err, "limit", limit)
	}
	items := make([]entities.TallyResult, 0, len(rows))
	for _, row := range rows {
		result, err := row.toEntity()
		if err != nil {
			return nil, r.logError("ledger_repo_list_results_decode_failed", err,
				"proposal_id", row.ProposalID,
			)
		}
		items = append(items, result)
	}
	return items, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "governance/proposal-ledger",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("ledger repository operation failed", fields...)
	return err
}

type ledgerEventModel struct {
	Sequence     int64      `gorm:"column:sequence;primaryKey;autoIncrement"`
	EventID      string     `gorm:"column:event_id;uniqueIndex"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (ledgerEventModel) TableName() string {
	return "ledger_events"
}

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (eventDedupModel) TableName() string {
	return "ledger_event_dedup"
}

type proposalResultModel struct {
	ProposalID  uint64    `gorm:"column:proposal_id;primaryKey;autoIncrement:false"`
	Counts      []byte    `gorm:"column:counts"`
	Winners     []byte    `gorm:"column:winners"`
	TotalVotes  uint64    `gorm:"column:total_votes"`
	IsDraw      bool      `gorm:"column:is_draw"`
	FinalizedAt time.Time `gorm:"column:finalized_at"`
}

func (proposalResultModel) TableName() string {
	return "proposal_results"
}

func proposalResultModelFromEntity(result entities.TallyResult) (proposalResultModel, error) {
	counts, err := json.Marshal(result.Counts)
	if err != nil {
		return proposalResultModel{}, err
	}
	winners, err := json.Marshal(append([]string{}, result.Winners...))
	if err != nil {
		return proposalResultModel{}, err
	}
	return proposalResultModel{
		ProposalID:  uint64(result.ProposalID),
		Counts:      counts,
		Winners:     winners,
		TotalVotes:  result.TotalVotes,
		IsDraw:      result.IsDraw,
		FinalizedAt: result.FinalizedAt.UTC(),
	}, nil
}

func (m proposalResultModel) toEntity() (entities.TallyResult, error) {
	result := entities.TallyResult{
		ProposalID:  entities.ProposalID(m.ProposalID),
		TotalVotes:  m.TotalVotes,
		IsDraw:      m.IsDraw,
		FinalizedAt: m.FinalizedAt.UTC(),
	}
	if err := json.Unmarshal(m.Counts, &result.Counts); err != nil {
		return entities.TallyResult{}, err
	}
	if err := json.Unmarshal(m.Winners, &result.Winners); err != nil {
		return entities.TallyResult{}, err
	}
	return result, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.EventJournal = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
var _ ports.EventDedupStore = (*Repository)(nil)
var _ ports.ResultsArchive = (*Repository)(nil)
