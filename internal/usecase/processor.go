package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"gitlab.com/timkado/api/voice-receptionist/internal/apperrors"
	"gitlab.com/timkado/api/voice-receptionist/internal/ingestion"
	"gitlab.com/timkado/api/voice-receptionist/internal/model"
	"gitlab.com/timkado/api/voice-receptionist/internal/observer"
	"gitlab.com/timkado/api/voice-receptionist/internal/storage"
	"gitlab.com/timkado/api/voice-receptionist/pkg/logger"
	"gitlab.com/timkado/api/voice-receptionist/pkg/utils"
)

const failureRecordTimeout = 5 * time.Second

// Processor decodes webhook deliveries and dispatches them to the call service
type Processor struct {
	calls       *CallService
	failureRepo storage.WebhookFailureRepo
	eventRouter ingestion.RouterInterface
}

// NewProcessor creates a new processor with all components wired up
func NewProcessor(calls *CallService, failureRepo storage.WebhookFailureRepo, router ingestion.RouterInterface) *Processor {
	if router == nil {
		router = ingestion.NewRouter()
	}
	return &Processor{
		calls:       calls,
		failureRepo: failureRepo,
		eventRouter: router,
	}
}

// GetRouter returns the processor's event router.
func (p *Processor) GetRouter() ingestion.RouterInterface {
	return p.eventRouter
}

// Setup registers the lifecycle handlers on the router
func (p *Processor) Setup() {
	p.eventRouter.Register(model.EventAssistantRequest, func(ctx context.Context, evt model.WebhookEvent) (interface{}, error) {
		e, ok := evt.(*model.AssistantRequestEvent)
		if !ok {
			return nil, unexpectedEvent(evt)
		}
		return p.calls.HandleAssistantRequest(ctx, e)
	})
	p.eventRouter.Register(model.EventStatusUpdate, func(ctx context.Context, evt model.WebhookEvent) (interface{}, error) {
		e, ok := evt.(*model.StatusUpdateEvent)
		if !ok {
			return nil, unexpectedEvent(evt)
		}
		return p.calls.HandleStatusUpdate(ctx, e)
	})
	p.eventRouter.Register(model.EventEndOfCallReport, func(ctx context.Context, evt model.WebhookEvent) (interface{}, error) {
		e, ok := evt.(*model.EndOfCallReportEvent)
		if !ok {
			return nil, unexpectedEvent(evt)
		}
		return p.calls.HandleEndOfCallReport(ctx, e)
	})

	// Anything else is rejected without touching state
	p.eventRouter.RegisterDefault(func(ctx context.Context, evt model.WebhookEvent) (interface{}, error) {
		logger.FromContext(ctx).Warn("Unhandled event type", zap.String("type", string(evt.Kind())))
		return nil, apperrors.ErrUnknownEventType
	})

	logger.Log.Info("Processor setup complete")
}

func unexpectedEvent(evt model.WebhookEvent) error {
	return fmt.Errorf("unexpected payload %T for event type %s", evt, evt.Kind())
}

// Process handles one webhook body and returns the HTTP status and response body.
func (p *Processor) Process(ctx context.Context, raw []byte) (int, interface{}) {
	start := utils.Now()
	ctx, scope := withRequestScope(ctx)
	log := logger.FromContext(ctx)

	eventType := ingestion.PeekType(raw)

	var (
		resp interface{}
		err  error
		evt  model.WebhookEvent
	)
	evt, err = ingestion.Decode(raw)
	if err == nil {
		resp, err = p.eventRouter.Route(ctx, evt)
	}

	status := apperrors.HTTPStatus(err)
	observer.ObserveWebhookHandled(string(eventType), scope.tenantID, status, err, time.Since(start))

	if err == nil {
		return http.StatusOK, resp
	}

	if status >= http.StatusInternalServerError {
		log.Error("Webhook processing failed", zap.String("event_type", string(eventType)), zap.Error(err))
		p.recordFailure(ctx, raw, evt, eventType, scope.tenantID, status, err)
	} else {
		log.Info("Webhook rejected", zap.String("event_type", string(eventType)), zap.Int("status", status), zap.Error(err))
	}

	return status, model.ErrorResponse{Error: ErrorMessage(err)}
}

// ErrorMessage is the text echoed to the provider for a failed delivery.
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrUnknownEventType):
		return "Unknown event type"
	case errors.Is(err, apperrors.ErrTenantNotFound):
		return "Voice configuration not found"
	case errors.Is(err, apperrors.ErrTenantDisabled):
		return "Voice receptionist is disabled"
	default:
		return err.Error()
	}
}

// recordFailure stores the delivery for inspection; the request context may
// already be cancelled by the time the provider gave up.
func (p *Processor) recordFailure(ctx context.Context, raw []byte, evt model.WebhookEvent, eventType model.EventType, tenantID string, status int, cause error) {
	if p.failureRepo == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failureRecordTimeout)
	defer cancel()

	failure := model.WebhookFailure{
		EventType:  string(eventType),
		TenantID:   tenantID,
		StatusCode: status,
		LastError:  cause.Error(),
		Payload:    datatypes.JSON(raw),
	}
	switch {
	case apperrors.IsRetryable(cause):
		failure.Notes = "transient failure, safe to redeliver"
	case eventType == model.EventEndOfCallReport && apperrors.IsDatabaseError(cause):
		failure.Notes = "billing outcome unknown, check monthly usage before replaying"
	}
	if evt != nil {
		failure.CallID = evt.CallID()
		failure.PhoneNumber = destinationNumber(evt)
	}

	if err := p.failureRepo.Save(ctx, failure); err != nil {
		logger.FromContext(ctx).Error("Failed to record webhook failure", zap.Error(err))
	}
}

func destinationNumber(evt model.WebhookEvent) string {
	switch e := evt.(type) {
	case *model.AssistantRequestEvent:
		return utils.NormalizePhone(e.PhoneNumber.Number)
	case *model.EndOfCallReportEvent:
		return utils.NormalizePhone(e.PhoneNumber.Number)
	default:
		return ""
	}
}
