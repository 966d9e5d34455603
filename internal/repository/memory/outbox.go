package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

type outboxRepository struct{ db *DB }

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	return r.db.write(ctx, func(s *state) error {
		e := *event
		e.Payload = append([]byte(nil), event.Payload...)
		s.outbox[e.ID] = e
		return nil
	})
}

func (r *outboxRepository) FetchPending(_ context.Context, limit int) ([]*model.OutboxEvent, error) {
	var out []*model.OutboxEvent
	err := r.db.read(func(s *state) error {
		for _, e := range s.outbox {
			if e.Status == model.OutboxStatusPending {
				e := e
				out = append(out, &e)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

func (r *outboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	return r.db.write(ctx, func(s *state) error {
		e, ok := s.outbox[id]
		if !ok {
			return repository.ErrNotFound
		}
		now := time.Now().UTC()
		e.Status = model.OutboxStatusProcessed
		e.ErrorMessage = nil
		e.ProcessedAt = &now
		s.outbox[id] = e
		return nil
	})
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, maxRetries int) error {
	return r.db.write(ctx, func(s *state) error {
		e, ok := s.outbox[id]
		if !ok {
			return repository.ErrNotFound
		}
		e.RetryCount++
		e.ErrorMessage = &errMsg
		if e.RetryCount >= maxRetries {
			e.Status = model.OutboxStatusFailed
		}
		s.outbox[id] = e
		return nil
	})
}

func (r *outboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	var n int64
	err := r.db.write(ctx, func(s *state) error {
		for id, e := range s.outbox {
			if e.Status == model.OutboxStatusProcessed && e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
				delete(s.outbox, id)
				n++
			}
		}
		return nil
	})
	return n, err
}
