package mock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"gorm.io/datatypes"

	"gitlab.com/timkado/api/voice-receptionist/internal/model"
)

// --- VoiceConfigRepo Mock ---

// VoiceConfigRepoMock mocks the VoiceConfigRepo interface
type VoiceConfigRepoMock struct {
	mock.Mock
}

// FindByPhoneNumber mocks the FindByPhoneNumber method
func (m *VoiceConfigRepoMock) FindByPhoneNumber(ctx context.Context, phoneNumber string) (*model.VoiceConfig, error) {
	args := m.Called(ctx, phoneNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VoiceConfig), args.Error(1)
}

// Save mocks the Save method
func (m *VoiceConfigRepoMock) Save(ctx context.Context, cfg *model.VoiceConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

// ResetMonthlyMinutes mocks the ResetMonthlyMinutes method
func (m *VoiceConfigRepoMock) ResetMonthlyMinutes(ctx context.Context, at time.Time) (int64, error) {
	args := m.Called(ctx, at)
	return args.Get(0).(int64), args.Error(1)
}

// --- CallLogRepo Mock ---

// CallLogRepoMock mocks the CallLogRepo interface
type CallLogRepoMock struct {
	mock.Mock
}

// CreateIfAbsent mocks the CreateIfAbsent method
func (m *CallLogRepoMock) CreateIfAbsent(ctx context.Context, callLog *model.CallLog) (bool, error) {
	args := m.Called(ctx, callLog)
	return args.Bool(0), args.Error(1)
}

// UpdateStatus mocks the UpdateStatus method
func (m *CallLogRepoMock) UpdateStatus(ctx context.Context, callID, status string, payload datatypes.JSON) (int64, error) {
	args := m.Called(ctx, callID, status, payload)
	return args.Get(0).(int64), args.Error(1)
}

// Finalize mocks the Finalize method
func (m *CallLogRepoMock) Finalize(ctx context.Context, callID string, voiceConfigID uint, completion model.CallCompletion, minutes int) (bool, error) {
	args := m.Called(ctx, callID, voiceConfigID, completion, minutes)
	return args.Bool(0), args.Error(1)
}

// FindByCallID mocks the FindByCallID method
func (m *CallLogRepoMock) FindByCallID(ctx context.Context, callID string) (*model.CallLog, error) {
	args := m.Called(ctx, callID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CallLog), args.Error(1)
}

// --- ServiceRepo Mock ---

// ServiceRepoMock mocks the ServiceRepo interface
type ServiceRepoMock struct {
	mock.Mock
}

// FindActive mocks the FindActive method
func (m *ServiceRepoMock) FindActive(ctx context.Context) ([]model.Service, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Service), args.Error(1)
}

// Save mocks the Save method
func (m *ServiceRepoMock) Save(ctx context.Context, service *model.Service) error {
	args := m.Called(ctx, service)
	return args.Error(0)
}

// --- AppointmentRepo Mock ---

// AppointmentRepoMock mocks the AppointmentRepo interface
type AppointmentRepoMock struct {
	mock.Mock
}

// Save mocks the Save method
func (m *AppointmentRepoMock) Save(ctx context.Context, appointment *model.Appointment) error {
	args := m.Called(ctx, appointment)
	return args.Error(0)
}

// --- WebhookFailureRepo Mock ---

// WebhookFailureRepoMock mocks the WebhookFailureRepo interface
type WebhookFailureRepoMock struct {
	mock.Mock
}

// Save mocks the Save method
func (m *WebhookFailureRepoMock) Save(ctx context.Context, failure model.WebhookFailure) error {
	args := m.Called(ctx, failure)
	return args.Error(0)
}
