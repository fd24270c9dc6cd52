package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/voice-receptionist/internal/model"
	"gitlab.com/timkado/api/voice-receptionist/internal/observer"
	"gitlab.com/timkado/api/voice-receptionist/internal/tenant"
	"gitlab.com/timkado/api/voice-receptionist/pkg/logger"
	"gitlab.com/timkado/api/voice-receptionist/pkg/utils"
)

// FindActiveServices lists the active services of the tenant in context, ordered by name.
func (r *GormRepo) FindActiveServices(ctx context.Context) ([]model.Service, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, err
	}

	var services []model.Service
	operation := func() error {
		return checkConstraintViolation(r.db.WithContext(ctx).
			Where("tenant_id = ? AND active = ?", tenantID, true).
			Order("name ASC").
			Find(&services).Error)
	}

	startTime := utils.Now()
	err = retryableOperation(ctx, r.readPolicy(ctx), "FindActiveServices", operation)
	observer.ObserveDbOperationDuration("find_active", "service", tenantID, time.Since(startTime), err)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to list active services", zap.String("tenant_id", tenantID), zap.Error(err))
		return nil, err
	}

	return services, nil
}

// SaveService inserts a service into the tenant's catalog.
func (r *GormRepo) SaveService(ctx context.Context, service *model.Service) error {
	if err := tenant.CheckOwnership(ctx, service.TenantID); err != nil {
		return err
	}

	operation := func() error {
		return checkConstraintViolation(r.db.WithContext(ctx).Create(service).Error)
	}

	startTime := utils.Now()
	err := retryableOperation(ctx, r.writePolicy(ctx), "SaveService", operation)
	observer.ObserveDbOperationDuration("save", "service", service.TenantID, time.Since(startTime), err)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to save service",
			zap.String("tenant_id", service.TenantID),
			zap.String("name", service.Name),
			zap.Error(err))
		return err
	}

	return nil
}
