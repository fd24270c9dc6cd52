package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/voice-receptionist/internal/assistant"
	"gitlab.com/timkado/api/voice-receptionist/internal/jetstream"
	"gitlab.com/timkado/api/voice-receptionist/internal/model"
	"gitlab.com/timkado/api/voice-receptionist/internal/storage"
	"gitlab.com/timkado/api/voice-receptionist/pkg/logger"
	"gitlab.com/timkado/api/voice-receptionist/pkg/utils"
)

// CallService handles the three call lifecycle webhooks
type CallService struct {
	voiceConfigRepo storage.VoiceConfigRepo
	callLogRepo     storage.CallLogRepo
	serviceRepo     storage.ServiceRepo
	publisher       jetstream.EventPublisher
	assistantOpts   assistant.Options
	now             func() time.Time
}

// NewCallService creates a new call service. A nil publisher disables lifecycle events.
func NewCallService(
	voiceConfigRepo storage.VoiceConfigRepo,
	callLogRepo storage.CallLogRepo,
	serviceRepo storage.ServiceRepo,
	publisher jetstream.EventPublisher,
	assistantOpts assistant.Options,
) *CallService {
	if publisher == nil {
		publisher = jetstream.NoopPublisher{}
	}
	return &CallService{
		voiceConfigRepo: voiceConfigRepo,
		callLogRepo:     callLogRepo,
		serviceRepo:     serviceRepo,
		publisher:       publisher,
		assistantOpts:   assistantOpts,
		now:             utils.Now,
	}
}

// publish sends a lifecycle event after the state it describes is persisted.
// Failures are logged and counted but never fail the webhook.
func publish(ctx context.Context, publisher jetstream.EventPublisher, evt model.LifecycleEvent) {
	if err := publisher.Publish(ctx, evt); err != nil {
		logger.FromContext(ctx).Warn("Failed to publish lifecycle event",
			zap.String("kind", string(evt.Kind)),
			zap.Error(err))
	}
}

type scopeKey struct{}

// requestScope collects what handlers learn about a delivery so the caller
// can label metrics and failure records with it.
type requestScope struct {
	tenantID string
}

func withRequestScope(ctx context.Context) (context.Context, *requestScope) {
	scope := &requestScope{}
	return context.WithValue(ctx, scopeKey{}, scope), scope
}

func setScopeTenant(ctx context.Context, tenantID string) {
	if scope, ok := ctx.Value(scopeKey{}).(*requestScope); ok {
		scope.tenantID = tenantID
	}
}
