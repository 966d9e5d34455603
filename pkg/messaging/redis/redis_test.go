package redis

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishOpensCircuitAfterFailures(t *testing.T) {
	broker, err := NewRedisBrokerLazy(Config{
		URL:              "redis://127.0.0.1:1/0",
		MaxRetries:       -1,
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
	}, zerolog.Nop())
	require.NoError(t, err)
	defer broker.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i := 0; i < 2; i++ {
		err := broker.Publish(ctx, "clinic.test", []byte(`{}`))
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrBrokerUnavailable)
	}

	assert.Equal(t, gobreaker.StateOpen, broker.State())
	assert.ErrorIs(t, broker.Publish(ctx, "clinic.test", []byte(`{}`)), ErrBrokerUnavailable)
}

func TestInvalidURL(t *testing.T) {
	_, err := NewRedisBrokerLazy(Config{URL: "://bad"}, zerolog.Nop())
	assert.Error(t, err)
}
