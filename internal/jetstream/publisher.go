package jetstream

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/voice-receptionist/internal/model"
	"gitlab.com/timkado/api/voice-receptionist/internal/observer"
	"gitlab.com/timkado/api/voice-receptionist/pkg/logger"
)

// Publisher publishes lifecycle events as JSON to "<prefix>.<kind>".
type Publisher struct {
	client ClientInterface
	prefix string
}

// Ensure Publisher implements EventPublisher
var _ EventPublisher = (*Publisher)(nil)

// NewPublisher creates a lifecycle event publisher on top of a JetStream client.
func NewPublisher(client ClientInterface, prefix string) *Publisher {
	return &Publisher{client: client, prefix: prefix}
}

// Subject returns the subject an event kind is published to.
func (p *Publisher) Subject(kind model.LifecycleKind) string {
	return p.prefix + "." + string(kind)
}

// Publish serializes evt and publishes it with a Nats-Msg-Id header so
// JetStream drops redeliveries within its duplicate window.
func (p *Publisher) Publish(ctx context.Context, evt model.LifecycleEvent) error {
	subject := p.Subject(evt.Kind)

	data, err := json.Marshal(evt)
	if err != nil {
		observer.IncEventPublishError(subject)
		return fmt.Errorf("failed to marshal %s event: %w", evt.Kind, err)
	}

	headers := map[string]string{
		nats.MsgIdHdr:  evt.DedupID(),
		"Content-Type": "application/json",
	}
	if evt.TenantID != "" {
		headers["Tenant-Id"] = evt.TenantID
	}

	if err := p.client.Publish(ctx, subject, data, headers); err != nil {
		observer.IncEventPublishError(subject)
		return err
	}

	logger.FromContext(ctx).Debug("Published lifecycle event", zap.String("subject", subject), zap.String("msg_id", evt.DedupID()))
	return nil
}

// NoopPublisher discards events; used when NATS is disabled.
type NoopPublisher struct{}

// Publish implements EventPublisher.
func (NoopPublisher) Publish(context.Context, model.LifecycleEvent) error { return nil }
