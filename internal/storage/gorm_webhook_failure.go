package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/voice-receptionist/internal/model"
	"gitlab.com/timkado/api/voice-receptionist/internal/observer"
	"gitlab.com/timkado/api/voice-receptionist/pkg/logger"
	"gitlab.com/timkado/api/voice-receptionist/pkg/utils"
)

// SaveWebhookFailure records a webhook delivery that failed with an internal error.
func (r *GormRepo) SaveWebhookFailure(ctx context.Context, failure model.WebhookFailure) error {
	operation := func() error {
		return checkConstraintViolation(r.db.WithContext(ctx).Create(&failure).Error)
	}

	startTime := utils.Now()
	err := retryableOperation(ctx, r.writePolicy(ctx), "SaveWebhookFailure", operation)
	observer.ObserveDbOperationDuration("save", "webhook_failure", failure.TenantID, time.Since(startTime), err)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to save webhook failure",
			zap.String("event_type", failure.EventType),
			zap.String("call_id", failure.CallID),
			zap.Error(err))
		return err
	}

	logger.FromContext(ctx).Info("Recorded webhook failure", zap.Uint("failure_id", failure.ID), zap.String("event_type", failure.EventType))
	return nil
}
