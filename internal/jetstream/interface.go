package jetstream

import (
	"context"

	"github.com/nats-io/nats.go"

	"gitlab.com/timkado/api/voice-receptionist/internal/model"
)

// ClientInterface defines the interface for the JetStream client
// This allows for easy mocking in tests
type ClientInterface interface {
	// SetupStream ensures the stream exists with the given configuration
	SetupStream(ctx context.Context, streamConfig *nats.StreamConfig) error

	// Publish publishes a message to a subject with optional headers
	Publish(ctx context.Context, subject string, data []byte, headers map[string]string) error

	// IsConnected reports whether the connection is up
	IsConnected() bool

	// Close closes the NATS connection
	Close()
}

// EventPublisher publishes call lifecycle events
type EventPublisher interface {
	Publish(ctx context.Context, evt model.LifecycleEvent) error
}
