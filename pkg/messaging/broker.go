package messaging

import (
	"context"
)

// ChannelPrefix namespaces every channel the relay publishes to
const ChannelPrefix = "clinic."

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Close() error
}

// Channel returns the channel an event type is published on
func Channel(eventType string) string {
	return ChannelPrefix + eventType
}
