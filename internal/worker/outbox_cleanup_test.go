package worker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
)

func TestCleanupRemovesOnlyOldProcessedEvents(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(memory.NewDB())

	done, err := model.NewOutboxEvent(uuid.New(), model.EventPatientCreated, nil)
	require.NoError(t, err)
	pending, err := model.NewOutboxEvent(uuid.New(), model.EventPatientCreated, nil)
	require.NoError(t, err)
	require.NoError(t, store.Outbox.Create(ctx, done))
	require.NoError(t, store.Outbox.Create(ctx, pending))
	require.NoError(t, store.Outbox.MarkProcessed(ctx, done.ID))

	w := NewOutboxCleanupWorker(store.Outbox, time.Hour, time.Minute, zerolog.Nop())

	rows, err := w.Cleanup(ctx)
	require.NoError(t, err)
	assert.Zero(t, rows)

	w.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	rows, err = w.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	left, err := store.Outbox.FetchPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, pending.ID, left[0].ID)
}
