package event

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

// EventService records domain events in the outbox. Called with a
// transactional ctx, the event commits or rolls back with the caller's writes.
type EventService struct {
	outboxRepo repository.OutboxRepository
}

func NewEventService(outboxRepo repository.OutboxRepository) *EventService {
	return &EventService{outboxRepo: outboxRepo}
}

func (s *EventService) Emit(ctx context.Context, scope model.TenantScope, eventType string, payload interface{}) error {
	event, err := model.NewOutboxEvent(scope.ClinicID, eventType, payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	if err := s.outboxRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("event_id", event.ID.String()).
		Str("event_type", eventType).
		Msg("event recorded")
	return nil
}

// EmitBestEffort records an event outside any transaction and only logs a failure
func (s *EventService) EmitBestEffort(ctx context.Context, scope model.TenantScope, eventType string, payload interface{}) {
	if err := s.Emit(ctx, scope, eventType, payload); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("event_type", eventType).Msg("failed to record event")
	}
}
