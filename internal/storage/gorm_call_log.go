package storage

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gitlab.com/timkado/api/voice-receptionist/internal/apperrors"
	"gitlab.com/timkado/api/voice-receptionist/internal/model"
	"gitlab.com/timkado/api/voice-receptionist/internal/observer"
	"gitlab.com/timkado/api/voice-receptionist/pkg/logger"
	"gitlab.com/timkado/api/voice-receptionist/pkg/utils"
)

// CreateCallLogIfAbsent inserts the call log unless a row with the same call ID
// already exists. It reports whether a row was inserted; an existing row is left untouched.
func (r *GormRepo) CreateCallLogIfAbsent(ctx context.Context, callLog *model.CallLog) (bool, error) {
	var inserted bool

	operation := func() error {
		result := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "call_id"}},
				DoNothing: true,
			}).
			Create(callLog)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		inserted = result.RowsAffected > 0
		return nil
	}

	startTime := utils.Now()
	err := retryableOperation(ctx, r.writePolicy(ctx), "CreateCallLogIfAbsent", operation)
	observer.ObserveDbOperationDuration("insert", "call_log", callLog.TenantID, time.Since(startTime), err)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to insert call log",
			zap.String("call_id", callLog.CallID),
			zap.String("status", callLog.Status),
			zap.Error(err))
		return false, err
	}

	if !inserted {
		logger.FromContext(ctx).Info("Call log already exists, insert skipped", zap.String("call_id", callLog.CallID))
	}
	return inserted, nil
}

// UpdateCallLogStatus sets the status of the call log identified by callID and
// returns the number of rows changed. A nil payload leaves last_payload as is.
func (r *GormRepo) UpdateCallLogStatus(ctx context.Context, callID, status string, payload datatypes.JSON) (int64, error) {
	var rows int64

	updates := map[string]interface{}{"status": status}
	if len(payload) > 0 {
		updates["last_payload"] = payload
	}

	operation := func() error {
		result := r.db.WithContext(ctx).
			Model(&model.CallLog{}).
			Where("call_id = ?", callID).
			Updates(updates)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		rows = result.RowsAffected
		return nil
	}

	startTime := utils.Now()
	err := retryableOperation(ctx, r.writePolicy(ctx), "UpdateCallLogStatus", operation)
	observer.ObserveDbOperationDuration("update_status", "call_log", tenantForMetrics(ctx), time.Since(startTime), err)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to update call log status",
			zap.String("call_id", callID),
			zap.String("status", status),
			zap.Error(err))
		return 0, err
	}

	return rows, nil
}

// FinalizeCallLog marks the call completed with its terminal values and adds
// minutes to the voice configuration's monthly usage in one transaction.
// The usage increment is applied even when no call log row matches; the
// returned bool reports whether a call log row was updated.
// It runs exactly once: a failed COMMIT may still have applied the increment,
// so a replay could bill the call twice.
func (r *GormRepo) FinalizeCallLog(ctx context.Context, callID string, voiceConfigID uint, completion model.CallCompletion, minutes int) (bool, error) {
	var logUpdated bool

	logUpdates := map[string]interface{}{
		"status":           model.CallStatusCompleted,
		"duration_seconds": completion.DurationSeconds,
		"cost":             completion.Cost,
		"transcript":       completion.Transcript,
		"summary":          completion.Summary,
		"ended_at":         completion.EndedAt,
	}
	if len(completion.Payload) > 0 {
		logUpdates["last_payload"] = completion.Payload
	}

	operation := func() error {
		logUpdated = false
		txErr := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			logResult := tx.Model(&model.CallLog{}).
				Where("call_id = ?", callID).
				Updates(logUpdates)
			if logResult.Error != nil {
				return logResult.Error
			}
			logUpdated = logResult.RowsAffected > 0

			usageResult := tx.Model(&model.VoiceConfig{}).
				Where("id = ?", voiceConfigID).
				Update("monthly_minutes_used", gorm.Expr("monthly_minutes_used + ?", minutes))
			if usageResult.Error != nil {
				return usageResult.Error
			}
			if usageResult.RowsAffected == 0 {
				return apperrors.ErrTenantNotFound
			}
			return nil
		})
		if txErr != nil {
			if errors.Is(txErr, apperrors.ErrTenantNotFound) {
				return txErr
			}
			return checkConstraintViolation(txErr)
		}
		return nil
	}

	startTime := utils.Now()
	err := operation()
	observer.ObserveDbOperationDuration("finalize", "call_log", tenantForMetrics(ctx), time.Since(startTime), err)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to finalize call log",
			zap.String("call_id", callID),
			zap.Uint("voice_config_id", voiceConfigID),
			zap.Int("minutes", minutes),
			zap.Error(err))
		return false, err
	}

	return logUpdated, nil
}

// FindCallLogByCallID loads the call log for a provider call ID.
func (r *GormRepo) FindCallLogByCallID(ctx context.Context, callID string) (*model.CallLog, error) {
	var callLog model.CallLog

	operation := func() error {
		return checkConstraintViolation(r.db.WithContext(ctx).Where("call_id = ?", callID).First(&callLog).Error)
	}

	startTime := utils.Now()
	err := retryableOperation(ctx, r.readPolicy(ctx), "FindCallLogByCallID", operation)
	observer.ObserveDbOperationDuration("find", "call_log", tenantForMetrics(ctx), time.Since(startTime), err)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.FromContext(ctx).Error("Failed to find call log", zap.String("call_id", callID), zap.Error(err))
		}
		return nil, err
	}

	return &callLog, nil
}
