package mock

import (
	"context"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/mock"

	"gitlab.com/timkado/api/voice-receptionist/internal/jetstream"
	"gitlab.com/timkado/api/voice-receptionist/internal/model"
)

// ClientMock is a mock implementation of the JetStream Client
type ClientMock struct {
	mock.Mock
}

// Ensure ClientMock implements jetstream.ClientInterface
var _ jetstream.ClientInterface = (*ClientMock)(nil)

// SetupStream mocks the SetupStream method
func (m *ClientMock) SetupStream(ctx context.Context, streamConfig *nats.StreamConfig) error {
	args := m.Called(ctx, streamConfig)
	return args.Error(0)
}

// Publish mocks the Publish method
func (m *ClientMock) Publish(ctx context.Context, subject string, data []byte, headers map[string]string) error {
	args := m.Called(ctx, subject, data, headers)
	return args.Error(0)
}

// IsConnected mocks the IsConnected method
func (m *ClientMock) IsConnected() bool {
	args := m.Called()
	return args.Bool(0)
}

// Close mocks the Close method
func (m *ClientMock) Close() {
	m.Called()
}

// PublisherMock is a mock implementation of jetstream.EventPublisher
type PublisherMock struct {
	mock.Mock
}

// Ensure PublisherMock implements jetstream.EventPublisher
var _ jetstream.EventPublisher = (*PublisherMock)(nil)

// Publish mocks the Publish method
func (m *PublisherMock) Publish(ctx context.Context, evt model.LifecycleEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}
