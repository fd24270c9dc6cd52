package storage

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gitlab.com/timkado/api/voice-receptionist/internal/apperrors"
	"gitlab.com/timkado/api/voice-receptionist/internal/model"
	"gitlab.com/timkado/api/voice-receptionist/internal/observer"
	"gitlab.com/timkado/api/voice-receptionist/pkg/logger"
	"gitlab.com/timkado/api/voice-receptionist/pkg/utils"
)

// FindVoiceConfigByPhoneNumber resolves the tenant configuration owning a
// normalized destination number. Disabled configurations are returned too.
func (r *GormRepo) FindVoiceConfigByPhoneNumber(ctx context.Context, phoneNumber string) (*model.VoiceConfig, error) {
	var cfg model.VoiceConfig

	operation := func() error {
		result := r.db.WithContext(ctx).Where("phone_number = ?", phoneNumber).First(&cfg)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return apperrors.ErrTenantNotFound
			}
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	startTime := utils.Now()
	err := retryableOperation(ctx, r.readPolicy(ctx), "FindVoiceConfigByPhoneNumber", operation)
	observer.ObserveDbOperationDuration("find", "voice_config", tenantForMetrics(ctx), time.Since(startTime), err)
	if err != nil {
		if !errors.Is(err, apperrors.ErrTenantNotFound) {
			logger.FromContext(ctx).Error("Failed to find voice config", zap.String("phone_number", phoneNumber), zap.Error(err))
		}
		return nil, err
	}

	return &cfg, nil
}

// SaveVoiceConfig inserts a new voice configuration.
func (r *GormRepo) SaveVoiceConfig(ctx context.Context, cfg *model.VoiceConfig) error {
	operation := func() error {
		return checkConstraintViolation(r.db.WithContext(ctx).Create(cfg).Error)
	}

	startTime := utils.Now()
	err := retryableOperation(ctx, r.writePolicy(ctx), "SaveVoiceConfig", operation)
	observer.ObserveDbOperationDuration("save", "voice_config", cfg.TenantID, time.Since(startTime), err)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to save voice config",
			zap.String("tenant_id", cfg.TenantID),
			zap.String("phone_number", cfg.PhoneNumber),
			zap.Error(err))
		return err
	}

	logger.FromContext(ctx).Info("Saved voice config", zap.Uint("voice_config_id", cfg.ID), zap.String("tenant_id", cfg.TenantID))
	return nil
}

// ResetMonthlyMinutes zeroes every tenant's monthly usage and stamps the reset time.
func (r *GormRepo) ResetMonthlyMinutes(ctx context.Context, at time.Time) (int64, error) {
	var rows int64

	operation := func() error {
		result := r.db.WithContext(ctx).
			Session(&gorm.Session{AllowGlobalUpdate: true}).
			Model(&model.VoiceConfig{}).
			Updates(map[string]interface{}{
				"monthly_minutes_used": 0,
				"minutes_reset_at":     at,
			})
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		rows = result.RowsAffected
		return nil
	}

	startTime := utils.Now()
	err := retryableOperation(ctx, r.writePolicy(ctx), "ResetMonthlyMinutes", operation)
	observer.ObserveDbOperationDuration("reset_minutes", "voice_config", "", time.Since(startTime), err)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to reset monthly minutes", zap.Error(err))
		return 0, err
	}

	return rows, nil
}
