package ingestion

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"gitlab.com/timkado/api/voice-receptionist/internal/apperrors"
	"gitlab.com/timkado/api/voice-receptionist/internal/model"
	"gitlab.com/timkado/api/voice-receptionist/internal/tenant"
	"gitlab.com/timkado/api/voice-receptionist/pkg/logger"
)

// MockHandler is a mock of the EventHandler function
type MockHandler struct {
	mock.Mock
}

// Handle implements the EventHandler function signature
func (m *MockHandler) Handle(ctx context.Context, evt model.WebhookEvent) (interface{}, error) {
	args := m.Called(ctx, evt)
	return args.Get(0), args.Error(1)
}

func testContext(t *testing.T) context.Context {
	return logger.WithLogger(context.Background(), zaptest.NewLogger(t))
}

func TestRouter_Register(t *testing.T) {
	router := NewRouter()
	mockHandler := new(MockHandler)

	router.Register(model.EventStatusUpdate, mockHandler.Handle)

	assert.NotNil(t, router.handlers[model.EventStatusUpdate], "Handler should be registered")
}

func TestRouter_RegisterDefault(t *testing.T) {
	router := NewRouter()
	mockHandler := new(MockHandler)

	router.RegisterDefault(mockHandler.Handle)

	assert.NotNil(t, router.defaultHandler, "Default handler should be registered")
}

func TestRouter_Route_ExactMatch(t *testing.T) {
	router := NewRouter()
	mockHandler := new(MockHandler)
	router.Register(model.EventStatusUpdate, mockHandler.Handle)

	evt := model.NewStatusUpdateEvent("call-1", "in-progress")
	response := model.SuccessResponse{Success: true}
	mockHandler.On("Handle", mock.Anything, evt).Return(response, nil)

	got, err := router.Route(testContext(t), evt)

	assert.NoError(t, err)
	assert.Equal(t, response, got)
	mockHandler.AssertExpectations(t)
}

func TestRouter_Route_CallIDInContext(t *testing.T) {
	router := NewRouter()
	var seen string
	router.Register(model.EventStatusUpdate, func(ctx context.Context, evt model.WebhookEvent) (interface{}, error) {
		seen, _ = tenant.CallIDFromContext(ctx)
		return nil, nil
	})

	_, err := router.Route(testContext(t), model.NewStatusUpdateEvent("call-ctx", "ended"))

	require.NoError(t, err)
	assert.Equal(t, "call-ctx", seen)
}

func TestRouter_Route_DefaultHandler(t *testing.T) {
	router := NewRouter()
	mockDefaultHandler := new(MockHandler)
	router.RegisterDefault(mockDefaultHandler.Handle)

	evt := model.NewStatusUpdateEvent("call-2", "ended")
	mockDefaultHandler.On("Handle", mock.Anything, evt).Return(nil, apperrors.ErrUnknownEventType)

	_, err := router.Route(testContext(t), evt)

	assert.ErrorIs(t, err, apperrors.ErrUnknownEventType)
	mockDefaultHandler.AssertExpectations(t)
}

func TestRouter_Route_NoHandler(t *testing.T) {
	router := NewRouter()

	got, err := router.Route(testContext(t), model.NewStatusUpdateEvent("call-3", "ended"))

	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrUnknownEventType)
}

func TestRouter_Route_HandleError(t *testing.T) {
	router := NewRouter()
	mockHandler := new(MockHandler)
	router.Register(model.EventEndOfCallReport, mockHandler.Handle)

	evt := model.NewEndOfCallReportEvent("call-4", "+15551234567", 60)
	expectedErr := errors.New("handler error")
	mockHandler.On("Handle", mock.Anything, evt).Return(nil, expectedErr)

	_, err := router.Route(testContext(t), evt)

	assert.Equal(t, expectedErr, err)
	mockHandler.AssertExpectations(t)
}
