package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

type outboxRepository struct {
	BaseRepository
}

func NewOutboxRepository(base BaseRepository) repository.OutboxRepository {
	return &outboxRepository{base}
}

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if event.Payload == nil {
		return fmt.Errorf("event payload cannot be nil")
	}

	query := `
		INSERT INTO outbox_events (id, clinic_id, event_type, payload, status, retry_count, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)
	`
	if err := r.exec(ctx, query,
		event.ID,
		event.ClinicID,
		event.EventType,
		[]byte(event.Payload),
		event.Status,
		event.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}

func (r *outboxRepository) FetchPending(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	query := `
		SELECT id, clinic_id, event_type, payload, status, error_message, retry_count, created_at, processed_at
		FROM outbox_events
		WHERE status = ?
		ORDER BY created_at
		LIMIT ?
		FOR UPDATE SKIP LOCKED
	`
	var rows []outboxRow
	if err := r.selectAll(ctx, &rows, query, model.OutboxStatusPending, limit); err != nil {
		return nil, fmt.Errorf("failed to fetch pending events: %w", err)
	}

	events := make([]*model.OutboxEvent, len(rows))
	for i := range rows {
		events[i] = rows[i].toModel()
	}
	return events, nil
}

// outboxRow scans payload as []byte so database/sql copies it out of the driver buffer
type outboxRow struct {
	model.OutboxEvent
	Payload []byte `db:"payload"`
}

func (o *outboxRow) toModel() *model.OutboxEvent {
	event := o.OutboxEvent
	event.Payload = json.RawMessage(o.Payload)
	return &event
}

func (r *outboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE outbox_events SET status = ?, error_message = NULL, processed_at = ? WHERE id = ?`
	if err := r.exec(ctx, query, model.OutboxStatusProcessed, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, maxRetries int) error {
	query := `
		UPDATE outbox_events
		SET retry_count = retry_count + 1,
			error_message = ?,
			status = CASE WHEN retry_count + 1 >= ? THEN ? ELSE status END
		WHERE id = ?
	`
	if err := r.exec(ctx, query, errMsg, maxRetries, model.OutboxStatusFailed, id); err != nil {
		return fmt.Errorf("failed to mark event failed: %w", err)
	}
	return nil
}

func (r *outboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM outbox_events WHERE status = ? AND processed_at < ?`
	res, err := r.ext(ctx).ExecContext(ctx, r.db.Rebind(query), model.OutboxStatusProcessed, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete processed events: %w", err)
	}
	return res.RowsAffected()
}
