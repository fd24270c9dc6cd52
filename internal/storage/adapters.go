package storage

import (
	"context"
	"time"

	"gorm.io/datatypes"

	"gitlab.com/timkado/api/voice-receptionist/internal/model"
)

// VoiceConfigRepoAdapter adapts the GormRepo to the VoiceConfigRepo interface
type VoiceConfigRepoAdapter struct {
	repo *GormRepo
}

// NewVoiceConfigRepoAdapter creates a new voice config repository adapter
func NewVoiceConfigRepoAdapter(repo *GormRepo) VoiceConfigRepo {
	return &VoiceConfigRepoAdapter{repo: repo}
}

func (a *VoiceConfigRepoAdapter) FindByPhoneNumber(ctx context.Context, phoneNumber string) (*model.VoiceConfig, error) {
	return a.repo.FindVoiceConfigByPhoneNumber(ctx, phoneNumber)
}

func (a *VoiceConfigRepoAdapter) Save(ctx context.Context, cfg *model.VoiceConfig) error {
	return a.repo.SaveVoiceConfig(ctx, cfg)
}

func (a *VoiceConfigRepoAdapter) ResetMonthlyMinutes(ctx context.Context, at time.Time) (int64, error) {
	return a.repo.ResetMonthlyMinutes(ctx, at)
}

// CallLogRepoAdapter adapts the GormRepo to the CallLogRepo interface
type CallLogRepoAdapter struct {
	repo *GormRepo
}

// NewCallLogRepoAdapter creates a new call log repository adapter
func NewCallLogRepoAdapter(repo *GormRepo) CallLogRepo {
	return &CallLogRepoAdapter{repo: repo}
}

func (a *CallLogRepoAdapter) CreateIfAbsent(ctx context.Context, callLog *model.CallLog) (bool, error) {
	return a.repo.CreateCallLogIfAbsent(ctx, callLog)
}

func (a *CallLogRepoAdapter) UpdateStatus(ctx context.Context, callID, status string, payload datatypes.JSON) (int64, error) {
	return a.repo.UpdateCallLogStatus(ctx, callID, status, payload)
}

func (a *CallLogRepoAdapter) Finalize(ctx context.Context, callID string, voiceConfigID uint, completion model.CallCompletion, minutes int) (bool, error) {
	return a.repo.FinalizeCallLog(ctx, callID, voiceConfigID, completion, minutes)
}

func (a *CallLogRepoAdapter) FindByCallID(ctx context.Context, callID string) (*model.CallLog, error) {
	return a.repo.FindCallLogByCallID(ctx, callID)
}

// ServiceRepoAdapter adapts the GormRepo to the ServiceRepo interface
type ServiceRepoAdapter struct {
	repo *GormRepo
}

// NewServiceRepoAdapter creates a new service catalog repository adapter
func NewServiceRepoAdapter(repo *GormRepo) ServiceRepo {
	return &ServiceRepoAdapter{repo: repo}
}

func (a *ServiceRepoAdapter) FindActive(ctx context.Context) ([]model.Service, error) {
	return a.repo.FindActiveServices(ctx)
}

func (a *ServiceRepoAdapter) Save(ctx context.Context, service *model.Service) error {
	return a.repo.SaveService(ctx, service)
}

// AppointmentRepoAdapter adapts the GormRepo to the AppointmentRepo interface
type AppointmentRepoAdapter struct {
	repo *GormRepo
}

// NewAppointmentRepoAdapter creates a new appointment repository adapter
func NewAppointmentRepoAdapter(repo *GormRepo) AppointmentRepo {
	return &AppointmentRepoAdapter{repo: repo}
}

func (a *AppointmentRepoAdapter) Save(ctx context.Context, appointment *model.Appointment) error {
	return a.repo.SaveAppointment(ctx, appointment)
}

// WebhookFailureRepoAdapter adapts the GormRepo to the WebhookFailureRepo interface
type WebhookFailureRepoAdapter struct {
	repo *GormRepo
}

// NewWebhookFailureRepoAdapter creates a new webhook failure repository adapter
func NewWebhookFailureRepoAdapter(repo *GormRepo) WebhookFailureRepo {
	return &WebhookFailureRepoAdapter{repo: repo}
}

func (a *WebhookFailureRepoAdapter) Save(ctx context.Context, failure model.WebhookFailure) error {
	return a.repo.SaveWebhookFailure(ctx, failure)
}
