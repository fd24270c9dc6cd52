package ingestion

import (
	"context"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/voice-receptionist/internal/apperrors"
	"gitlab.com/timkado/api/voice-receptionist/internal/model"
	"gitlab.com/timkado/api/voice-receptionist/internal/observer"
	"gitlab.com/timkado/api/voice-receptionist/internal/tenant"
	"gitlab.com/timkado/api/voice-receptionist/pkg/logger"
)

// EventHandler processes a decoded webhook event and returns the response body
type EventHandler func(ctx context.Context, evt model.WebhookEvent) (interface{}, error)

// Router routes events to the appropriate handler based on event type
type Router struct {
	// Map of event type to handler
	handlers map[model.EventType]EventHandler
	// Default handler for unknown event types
	defaultHandler EventHandler
}

// NewRouter creates a new event router
func NewRouter() *Router {
	return &Router{
		handlers: make(map[model.EventType]EventHandler),
	}
}

// Register registers a handler for an event type
func (r *Router) Register(eventType model.EventType, handler EventHandler) {
	r.handlers[eventType] = handler
}

// RegisterDefault registers a default handler for unknown event types
func (r *Router) RegisterDefault(handler EventHandler) {
	r.defaultHandler = handler
}

// Route routes an event to the appropriate handler
func (r *Router) Route(ctx context.Context, evt model.WebhookEvent) (interface{}, error) {
	eventType := evt.Kind()

	// Add event metadata to the log context
	ctx = logger.WithFields(ctx, zap.String("event_type", string(eventType)))
	if callID := evt.CallID(); callID != "" {
		ctx = tenant.WithCallID(ctx, callID)
	}
	log := logger.FromContext(ctx)

	observer.IncWebhookReceived(string(eventType))
	log.Info("Event received", zap.Int("payload_bytes", len(evt.RawPayload())))

	handler, ok := r.handlers[eventType]
	if !ok && r.defaultHandler != nil {
		log.Warn("No specific handler for event type, using default")
		return r.defaultHandler(ctx, evt)
	} else if !ok {
		log.Error("No handler registered for event type")
		return nil, apperrors.ErrUnknownEventType
	}

	return handler(ctx, evt)
}
