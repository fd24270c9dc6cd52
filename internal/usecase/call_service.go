package usecase

import (
	"context"
	"errors"
	"math"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"gitlab.com/timkado/api/voice-receptionist/internal/apperrors"
	"gitlab.com/timkado/api/voice-receptionist/internal/assistant"
	"gitlab.com/timkado/api/voice-receptionist/internal/model"
	"gitlab.com/timkado/api/voice-receptionist/internal/observer"
	"gitlab.com/timkado/api/voice-receptionist/internal/tenant"
	"gitlab.com/timkado/api/voice-receptionist/pkg/logger"
	"gitlab.com/timkado/api/voice-receptionist/pkg/utils"
)

// BilledMinutes rounds a call duration up to whole minutes.
func BilledMinutes(durationSeconds float64) int {
	if durationSeconds <= 0 {
		return 0
	}
	return int(math.Ceil(durationSeconds / 60))
}

// HandleAssistantRequest resolves the tenant owning the dialled number, records
// the call and returns the assistant that should answer it.
func (s *CallService) HandleAssistantRequest(ctx context.Context, evt *model.AssistantRequestEvent) (*model.AssistantResponse, error) {
	phone := utils.NormalizePhone(evt.PhoneNumber.Number)

	cfg, err := s.voiceConfigRepo.FindByPhoneNumber(ctx, phone)
	if err != nil {
		if apperrors.IsNotFoundError(err) {
			logger.FromContext(ctx).Warn("No voice configuration for dialled number", zap.String("phone_number", phone))
		}
		return nil, err
	}

	ctx = tenant.WithTenantID(ctx, cfg.TenantID)
	ctx = logger.WithFields(ctx, zap.String("tenant_id", cfg.TenantID))
	setScopeTenant(ctx, cfg.TenantID)
	log := logger.FromContext(ctx)

	// Load the catalog before writing anything so a failed read leaves no row behind.
	var services []model.Service
	if cfg.Enabled {
		services, err = s.serviceRepo.FindActive(ctx)
		if err != nil {
			return nil, err
		}
	}

	status := model.CallStatusRinging
	kind := model.LifecycleCallStarted
	if !cfg.Enabled {
		status = model.CallStatusRejected
		kind = model.LifecycleCallRejected
	}

	callLog := &model.CallLog{
		CallID:        evt.Call.ID,
		TenantID:      cfg.TenantID,
		VoiceConfigID: cfg.ID,
		PhoneNumber:   phone,
		CallerNumber:  utils.NormalizePhone(evt.Call.Customer.Number),
		Status:        status,
		StartedAt:     s.now(),
		LastPayload:   datatypes.JSON(evt.RawPayload()),
	}

	inserted, err := s.callLogRepo.CreateIfAbsent(ctx, callLog)
	if err != nil {
		return nil, err
	}
	if inserted {
		observer.IncCallOutcome(cfg.TenantID, status)
		publish(ctx, s.publisher, model.LifecycleEvent{
			Kind:         kind,
			OccurredAt:   callLog.StartedAt,
			TenantID:     cfg.TenantID,
			CallID:       callLog.CallID,
			PhoneNumber:  phone,
			CallerNumber: callLog.CallerNumber,
			Status:       status,
		})
	}

	if !cfg.Enabled {
		log.Info("Call rejected, voice receptionist disabled")
		return nil, apperrors.ErrTenantDisabled
	}

	log.Info("Assistant assembled for call", zap.Int("services", len(services)), zap.Bool("new_call", inserted))
	return &model.AssistantResponse{Assistant: assistant.Build(*cfg, services, s.assistantOpts)}, nil
}

// HandleStatusUpdate copies the provider status onto the call log.
// An update for an unknown call changes nothing and still succeeds.
// The event carries no destination number, so the tenant is read back from
// the updated call log.
func (s *CallService) HandleStatusUpdate(ctx context.Context, evt *model.StatusUpdateEvent) (*model.SuccessResponse, error) {
	log := logger.FromContext(ctx)

	rows, err := s.callLogRepo.UpdateStatus(ctx, evt.Call.ID, evt.Status, datatypes.JSON(evt.RawPayload()))
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		log.Warn("Status update for unknown call", zap.String("status", evt.Status))
		return &model.SuccessResponse{Success: true}, nil
	}

	var tenantID, phone string
	callLog, err := s.callLogRepo.FindByCallID(ctx, evt.Call.ID)
	if err != nil {
		log.Warn("Could not resolve tenant for status update", zap.Error(err))
	} else {
		tenantID, phone = callLog.TenantID, callLog.PhoneNumber
		ctx = tenant.WithTenantID(ctx, tenantID)
		ctx = logger.WithFields(ctx, zap.String("tenant_id", tenantID))
		setScopeTenant(ctx, tenantID)
		log = logger.FromContext(ctx)
	}

	observer.IncCallOutcome(tenantID, evt.Status)
	publish(ctx, s.publisher, model.LifecycleEvent{
		Kind:        model.LifecycleCallStatus,
		OccurredAt:  s.now(),
		TenantID:    tenantID,
		CallID:      evt.Call.ID,
		PhoneNumber: phone,
		Status:      evt.Status,
	})

	log.Debug("Call status updated", zap.String("status", evt.Status))
	return &model.SuccessResponse{Success: true}, nil
}

// HandleEndOfCallReport completes the call log and bills the call's minutes to
// the tenant in one transaction. A report for an unknown number is acknowledged
// without side effects, including when the configuration is removed before the
// transaction runs.
func (s *CallService) HandleEndOfCallReport(ctx context.Context, evt *model.EndOfCallReportEvent) (*model.SuccessResponse, error) {
	phone := utils.NormalizePhone(evt.PhoneNumber.Number)

	cfg, err := s.voiceConfigRepo.FindByPhoneNumber(ctx, phone)
	if err != nil {
		if apperrors.IsNotFoundError(err) {
			logger.FromContext(ctx).Warn("End of call report for unknown number, ignoring", zap.String("phone_number", phone))
			return &model.SuccessResponse{Success: true}, nil
		}
		return nil, err
	}

	ctx = tenant.WithTenantID(ctx, cfg.TenantID)
	ctx = logger.WithFields(ctx, zap.String("tenant_id", cfg.TenantID))
	setScopeTenant(ctx, cfg.TenantID)
	log := logger.FromContext(ctx)

	minutes := BilledMinutes(evt.Duration)
	completion := model.CallCompletion{
		DurationSeconds: evt.Duration,
		Cost:            evt.Cost,
		Transcript:      evt.Transcript,
		Summary:         evt.Summary,
		EndedAt:         s.now(),
		Payload:         datatypes.JSON(evt.RawPayload()),
	}

	logUpdated, err := s.callLogRepo.Finalize(ctx, evt.Call.ID, cfg.ID, completion, minutes)
	if err != nil {
		if errors.Is(err, apperrors.ErrTenantNotFound) {
			log.Warn("Voice configuration removed before billing, ignoring end of call report")
			return &model.SuccessResponse{Success: true}, nil
		}
		return nil, err
	}
	if !logUpdated {
		log.Warn("End of call report without a call log, minutes billed anyway", zap.Int("minutes", minutes))
	}

	observer.IncCallOutcome(cfg.TenantID, model.CallStatusCompleted)
	observer.AddBilledMinutes(cfg.TenantID, minutes)
	publish(ctx, s.publisher, model.LifecycleEvent{
		Kind:            model.LifecycleCallCompleted,
		OccurredAt:      completion.EndedAt,
		TenantID:        cfg.TenantID,
		CallID:          evt.Call.ID,
		PhoneNumber:     phone,
		Status:          model.CallStatusCompleted,
		DurationSeconds: evt.Duration,
		BilledMinutes:   minutes,
		Cost:            evt.Cost,
	})

	log.Info("Call completed",
		zap.Float64("duration_seconds", evt.Duration),
		zap.Int("billed_minutes", minutes),
		zap.Float64("cost", evt.Cost))
	return &model.SuccessResponse{Success: true}, nil
}
