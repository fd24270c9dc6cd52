package storage

import (
	"context"
	"time"

	"gorm.io/datatypes"

	"gitlab.com/timkado/api/voice-receptionist/internal/model"
)

// VoiceConfigRepo defines voice configuration storage operations
type VoiceConfigRepo interface {
	FindByPhoneNumber(ctx context.Context, phoneNumber string) (*model.VoiceConfig, error)
	Save(ctx context.Context, cfg *model.VoiceConfig) error
	ResetMonthlyMinutes(ctx context.Context, at time.Time) (int64, error)
}

// CallLogRepo defines call log storage operations
type CallLogRepo interface {
	CreateIfAbsent(ctx context.Context, callLog *model.CallLog) (bool, error)
	UpdateStatus(ctx context.Context, callID, status string, payload datatypes.JSON) (int64, error)
	// Finalize completes the call log and bills minutes against voiceConfigID atomically.
	Finalize(ctx context.Context, callID string, voiceConfigID uint, completion model.CallCompletion, minutes int) (bool, error)
	FindByCallID(ctx context.Context, callID string) (*model.CallLog, error)
}

// ServiceRepo defines service catalog storage operations
type ServiceRepo interface {
	FindActive(ctx context.Context) ([]model.Service, error)
	Save(ctx context.Context, service *model.Service) error
}

// AppointmentRepo defines appointment storage operations
type AppointmentRepo interface {
	Save(ctx context.Context, appointment *model.Appointment) error
}

// WebhookFailureRepo defines webhook failure storage operations
type WebhookFailureRepo interface {
	Save(ctx context.Context, failure model.WebhookFailure) error
}

// HealthChecker reports database reachability
type HealthChecker interface {
	Ping(ctx context.Context) error
}
