package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/voice-receptionist/internal/model"
	"gitlab.com/timkado/api/voice-receptionist/internal/observer"
	"gitlab.com/timkado/api/voice-receptionist/internal/tenant"
	"gitlab.com/timkado/api/voice-receptionist/pkg/logger"
	"gitlab.com/timkado/api/voice-receptionist/pkg/utils"
)

// SaveAppointment inserts an appointment, assigning a UUID when ID is empty.
func (r *GormRepo) SaveAppointment(ctx context.Context, appointment *model.Appointment) error {
	if err := tenant.CheckOwnership(ctx, appointment.TenantID); err != nil {
		return err
	}
	if appointment.ID == "" {
		appointment.ID = uuid.NewString()
	}

	operation := func() error {
		return checkConstraintViolation(r.db.WithContext(ctx).Create(appointment).Error)
	}

	startTime := utils.Now()
	err := retryableOperation(ctx, r.writePolicy(ctx), "SaveAppointment", operation)
	observer.ObserveDbOperationDuration("save", "appointment", appointment.TenantID, time.Since(startTime), err)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to save appointment",
			zap.String("tenant_id", appointment.TenantID),
			zap.String("call_id", appointment.CallID),
			zap.Error(err))
		return err
	}

	logger.FromContext(ctx).Info("Saved appointment",
		zap.String("appointment_id", appointment.ID),
		zap.Time("scheduled_at", appointment.ScheduledAt))
	return nil
}
