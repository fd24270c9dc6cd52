package ingestion

import (
	"context"

	"gitlab.com/timkado/api/voice-receptionist/internal/model"
)

// RouterInterface defines the interface for an event router
type RouterInterface interface {
	// Register registers a handler for an event type
	Register(eventType model.EventType, handler EventHandler)

	// RegisterDefault registers a default handler for unknown event types
	RegisterDefault(handler EventHandler)

	// Route routes an event to the appropriate handler
	Route(ctx context.Context, evt model.WebhookEvent) (interface{}, error)
}

// Ensure Router implements RouterInterface
var _ RouterInterface = (*Router)(nil)
